// Package extraction turns insight content into a deterministic entity set.
// Three sources are unioned: regex patterns over the raw text, a bundled
// technical dictionary scanned with Aho-Corasick, and caller-provided
// entities appended verbatim.
package extraction

import (
	"regexp"
	"strings"
)

// MaxEntities caps the extracted set; excess is truncated in insertion
// order.
const MaxEntities = 50

var (
	// Two or more capitals with lowercase runs between them: HttpServer,
	// DataStore, parseJSONBody is not matched (leading lowercase).
	camelCaseRe = regexp.MustCompile(`\b[A-Z][a-z0-9]+(?:[A-Z][a-z0-9]*)+\b`)

	allCapsRe = regexp.MustCompile(`\b[A-Z][A-Z0-9_]+\b`)

	urlRe = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9+.-]*://[^\s]+`)

	// Path-like tokens: contain a slash or start with "./".
	pathRe = regexp.MustCompile(`(?:\./|/)?[\w.-]+(?:/[\w.-]+)+/?|\./[\w.-]+`)

	mentionRe = regexp.MustCompile(`@[A-Za-z0-9_]+`)

	bookTitleRe = regexp.MustCompile(`《([^》]+)》`)
)

// Extract returns the entity set for content, merged with the caller's
// entities. Pure and deterministic: same inputs, same output order.
func Extract(content string, provided []string) []string {
	seen := make(map[string]bool)
	var out []string

	add := func(e string) {
		e = strings.TrimSpace(e)
		if e == "" {
			return
		}
		key := strings.ToLower(e)
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, e)
	}

	// URLs first so path extraction does not shred them.
	withoutURLs := content
	for _, u := range urlRe.FindAllString(content, -1) {
		add(strings.TrimRight(u, ".,;:!?)"))
		withoutURLs = strings.Replace(withoutURLs, u, " ", 1)
	}

	for _, m := range camelCaseRe.FindAllString(content, -1) {
		add(m)
	}
	for _, m := range allCapsRe.FindAllString(content, -1) {
		if allCapsStopwords[m] {
			continue
		}
		add(m)
	}
	for _, m := range pathRe.FindAllString(withoutURLs, -1) {
		add(m)
	}
	for _, m := range mentionRe.FindAllString(content, -1) {
		add(m)
	}
	for _, groups := range bookTitleRe.FindAllStringSubmatch(content, -1) {
		add(groups[1])
	}

	for _, m := range scanDictionary(content) {
		add(m)
	}

	for _, e := range provided {
		add(e)
	}

	if len(out) > MaxEntities {
		out = out[:MaxEntities]
	}
	return out
}
