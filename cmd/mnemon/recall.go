package main

import (
	"github.com/spf13/cobra"

	"github.com/bissli/mnemon/internal/store"
	"github.com/bissli/mnemon/pkg/memory"
)

var recallCmd = &cobra.Command{
	Use:   "recall <query>",
	Short: "Intent-adaptive graph recall",
	Long: `Recall insights for a query: detect intent, fuse four anchor
signals, walk the graph with an intent-weighted beam search and re-rank.
WHY queries are topologically ordered so causes precede effects.

Examples:
  mnemon recall "why did we pick Qdrant"
  mnemon recall "what is the deploy pipeline" --limit 5
  mnemon recall "postgres" --intent general --category decision`,
	Args: cobra.ExactArgs(1),
	Run:  runRecall,
}

func init() {
	recallCmd.Flags().IntP("limit", "n", 10, "maximum results")
	recallCmd.Flags().String("intent", "", "override intent: why|when|entity|general")
	recallCmd.Flags().String("category", "", "filter by category")
	recallCmd.Flags().String("source", "", "filter by source")
	recallCmd.Flags().Bool("basic", false, "anchor fusion only, no graph traversal")
	rootCmd.AddCommand(recallCmd)
}

func runRecall(cmd *cobra.Command, args []string) {
	if err := ensureEngine(); err != nil {
		fatal(err)
	}

	limit, _ := cmd.Flags().GetInt("limit")
	intent, _ := cmd.Flags().GetString("intent")
	category, _ := cmd.Flags().GetString("category")
	source, _ := cmd.Flags().GetString("source")
	basic, _ := cmd.Flags().GetBool("basic")

	res, err := engine.Recall(rootCtx, memory.RecallQuery{
		Query:          args[0],
		Limit:          limit,
		IntentOverride: intent,
		Category:       store.Category(category),
		Source:         store.Source(source),
		Basic:          basic,
	})
	if err != nil {
		fatal(err)
	}
	emit(res)
}
