package main

import (
	"github.com/spf13/cobra"

	"github.com/bissli/mnemon/internal/store"
)

var relatedCmd = &cobra.Command{
	Use:   "related <id>",
	Short: "Walk the graph outward from one insight",
	Long: `Breadth-first expansion from an insight along one edge type, or
every type when --type is omitted.

Example:
  mnemon related abc --type entity --depth 2`,
	Args: cobra.ExactArgs(1),
	Run:  runRelated,
}

func init() {
	relatedCmd.Flags().StringP("type", "t", "", "edge type filter: temporal|entity|causal|semantic")
	relatedCmd.Flags().IntP("depth", "d", 1, "maximum hops")
	rootCmd.AddCommand(relatedCmd)
}

func runRelated(cmd *cobra.Command, args []string) {
	if err := ensureEngine(); err != nil {
		fatal(err)
	}

	edgeType, _ := cmd.Flags().GetString("type")
	depth, _ := cmd.Flags().GetInt("depth")

	items, err := engine.Related(args[0], store.EdgeType(edgeType), depth)
	if err != nil {
		fatal(err)
	}
	emit(map[string]any{
		"meta":    map[string]any{"root": args[0], "type": edgeType, "depth": depth},
		"results": items,
	})
}
