package main

import (
	"github.com/spf13/cobra"

	"github.com/bissli/mnemon/internal/store"
)

var linkCmd = &cobra.Command{
	Use:   "link <source-id> <target-id>",
	Short: "Upsert one directed edge between two insights",
	Long: `Create or update a directed edge. Idempotent: relinking the same
(source, target, type) triple replaces the weight.

Example:
  mnemon link abc def --type causal --weight 0.9`,
	Args: cobra.ExactArgs(2),
	Run:  runLink,
}

func init() {
	linkCmd.Flags().StringP("type", "t", "semantic", "edge type: temporal|entity|causal|semantic")
	linkCmd.Flags().Float64P("weight", "w", 1.0, "edge weight in [0,1]")
	linkCmd.Flags().String("sub-type", "", "optional metadata sub_type")
	rootCmd.AddCommand(linkCmd)
}

func runLink(cmd *cobra.Command, args []string) {
	if err := ensureEngine(); err != nil {
		fatal(err)
	}

	edgeType, _ := cmd.Flags().GetString("type")
	weight, _ := cmd.Flags().GetFloat64("weight")
	subType, _ := cmd.Flags().GetString("sub-type")

	var meta map[string]string
	if subType != "" {
		meta = map[string]string{"sub_type": subType}
	}

	if err := engine.Link(args[0], args[1], store.EdgeType(edgeType), weight, meta); err != nil {
		fatal(err)
	}
	emit(map[string]any{
		"linked": true,
		"source": args[0],
		"target": args[1],
		"type":   edgeType,
		"weight": weight,
	})
}
