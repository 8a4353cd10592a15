// Package embedding adapts a remote embed-text endpoint (Ollama wire
// format) behind a single "text in, vector or unavailable out" call.
// Failures are never fatal: the engine degrades to token overlap.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// CallTimeout bounds every remote call; a timeout degrades to
// "embedding unavailable" for that call with no retry.
const CallTimeout = 2 * time.Second

// Adapter is the embedding client. The availability probe result is cached
// for the adapter's lifetime, which is one command invocation.
type Adapter struct {
	endpoint string
	model    string
	client   *http.Client

	probed    bool
	available bool
}

// New creates an adapter for the given endpoint and model.
func New(endpoint, model string) *Adapter {
	return &Adapter{
		endpoint: strings.TrimRight(endpoint, "/"),
		model:    model,
		client:   &http.Client{Timeout: CallTimeout},
	}
}

// Endpoint returns the configured base URL.
func (a *Adapter) Endpoint() string { return a.endpoint }

// Model returns the configured model name.
func (a *Adapter) Model() string { return a.model }

// Available probes the endpoint once and caches the result.
func (a *Adapter) Available(ctx context.Context) bool {
	if a.probed {
		return a.available
	}
	a.probed = true

	cctx, cancel := context.WithTimeout(ctx, CallTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(cctx, http.MethodGet, a.endpoint+"/", nil)
	if err != nil {
		return false
	}
	resp, err := a.client.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("endpoint", a.endpoint).Msg("embed_probe_failed")
		return false
	}
	resp.Body.Close()
	a.available = resp.StatusCode/100 == 2
	return a.available
}

type embedReq struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embedResp struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// Embed returns the vector for text, or (nil, false) when the provider is
// unreachable, times out, or answers malformed. No retry.
func (a *Adapter) Embed(ctx context.Context, text string) ([]float64, bool) {
	if !a.Available(ctx) {
		return nil, false
	}

	body, _ := json.Marshal(embedReq{Model: a.model, Input: text})

	cctx, cancel := context.WithTimeout(ctx, CallTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(cctx, http.MethodPost,
		a.endpoint+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		log.Debug().Err(err).Msg("embed_call_failed")
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		log.Debug().Str("status", resp.Status).Msg("embed_call_rejected")
		return nil, false
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false
	}
	var er embedResp
	if err := json.Unmarshal(raw, &er); err != nil || len(er.Embeddings) == 0 || len(er.Embeddings[0]) == 0 {
		log.Debug().Msg("embed_response_malformed")
		return nil, false
	}
	return er.Embeddings[0], true
}
