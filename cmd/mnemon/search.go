package main

import (
	"github.com/spf13/cobra"

	"github.com/bissli/mnemon/internal/store"
)

var searchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Plain keyword scan over active insights",
	Long: `Substring search across content, tags and entities. No graph
traversal and no access-counter side effects; the cheap sibling of recall.`,
	Args: cobra.ExactArgs(1),
	Run:  runSearch,
}

func init() {
	searchCmd.Flags().IntP("limit", "n", 10, "maximum results")
	searchCmd.Flags().String("category", "", "filter by category")
	searchCmd.Flags().String("source", "", "filter by source")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	if err := ensureEngine(); err != nil {
		fatal(err)
	}

	limit, _ := cmd.Flags().GetInt("limit")
	category, _ := cmd.Flags().GetString("category")
	source, _ := cmd.Flags().GetString("source")

	rows, err := engine.Search(args[0], store.Category(category), store.Source(source), limit)
	if err != nil {
		fatal(err)
	}
	if rows == nil {
		rows = []*store.Insight{}
	}
	emit(map[string]any{
		"meta":    map[string]any{"term": args[0], "count": len(rows)},
		"results": rows,
	})
}
