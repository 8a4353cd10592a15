package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bissli/mnemon/pkg/memory"
	"github.com/bissli/mnemon/pkg/viz"
)

var vizCmd = &cobra.Command{
	Use:   "viz",
	Short: "Render the active graph",
	Long: `Render the active insight graph as Graphviz dot or a standalone
HTML page on stdout.

Examples:
  mnemon viz --format dot | dot -Tsvg -o graph.svg
  mnemon viz --format html > graph.html`,
	Run: runViz,
}

func init() {
	vizCmd.Flags().String("format", "dot", "output format: dot|html")
	rootCmd.AddCommand(vizCmd)
}

func runViz(cmd *cobra.Command, args []string) {
	if err := ensureEngine(); err != nil {
		fatal(err)
	}

	insights, err := engine.Store().Active()
	if err != nil {
		fatal(err)
	}
	edges, err := engine.Store().AllEdges()
	if err != nil {
		fatal(err)
	}

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "dot":
		fmt.Fprint(os.Stdout, viz.Dot(insights, edges))
	case "html":
		fmt.Fprint(os.Stdout, viz.HTML(insights, edges))
	default:
		fatal(fmt.Errorf("%w: unknown viz format %q", memory.ErrInvalidInput, format))
	}
}
