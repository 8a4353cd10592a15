package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/bissli/mnemon/internal/store"
	"github.com/bissli/mnemon/pkg/memory"
)

var rememberCmd = &cobra.Command{
	Use:   "remember <content>",
	Short: "Ingest one insight into the memory graph",
	Long: `Ingest an insight: deduplicate against the active set, extract
entities, synthesize temporal/entity/causal/semantic edges, refresh
effective importance and prune if over capacity -- one atomic write.

Examples:
  mnemon remember "Chose Qdrant over Milvus for vector DB" -c decision -i 5
  mnemon remember "User prefers tabs" -c preference --tags style,editor
  mnemon remember "raw note" --no-diff`,
	Args: cobra.ExactArgs(1),
	Run:  runRemember,
}

func init() {
	rememberCmd.Flags().StringP("category", "c", "general", "category: preference|decision|fact|insight|context|general")
	rememberCmd.Flags().IntP("importance", "i", 3, "importance 1-5")
	rememberCmd.Flags().String("tags", "", "comma-separated tags")
	rememberCmd.Flags().String("entities", "", "comma-separated entities merged with extraction")
	rememberCmd.Flags().String("source", "user", "source: user|agent|external")
	rememberCmd.Flags().Bool("no-diff", false, "skip deduplication/conflict diff")
	rootCmd.AddCommand(rememberCmd)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func runRemember(cmd *cobra.Command, args []string) {
	if err := ensureEngine(); err != nil {
		fatal(err)
	}

	category, _ := cmd.Flags().GetString("category")
	importance, _ := cmd.Flags().GetInt("importance")
	tags, _ := cmd.Flags().GetString("tags")
	entities, _ := cmd.Flags().GetString("entities")
	source, _ := cmd.Flags().GetString("source")
	noDiff, _ := cmd.Flags().GetBool("no-diff")

	res, err := engine.Remember(rootCtx, memory.RememberInput{
		Content:    args[0],
		Category:   store.Category(category),
		Importance: importance,
		Tags:       splitList(tags),
		Entities:   splitList(entities),
		Source:     store.Source(source),
		NoDiff:     noDiff,
	})
	if err != nil {
		fatal(err)
	}
	emit(res)
}
