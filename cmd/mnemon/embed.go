package main

import (
	"github.com/spf13/cobra"

	"github.com/bissli/mnemon/pkg/embedding"
)

var embedCmd = &cobra.Command{
	Use:   "embed [id]",
	Short: "Probe the embedding adapter or backfill vectors",
	Long: `Without arguments, --status probes the endpoint. With an insight
id, (re)embeds that one insight; --all backfills every active insight
missing a vector. Provider failures are never fatal; coverage just stays
where it was.

Examples:
  mnemon embed --status
  mnemon embed --all
  mnemon embed abc123`,
	Args: cobra.MaximumNArgs(1),
	Run:  runEmbed,
}

func init() {
	embedCmd.Flags().Bool("status", false, "probe the adapter and report coverage")
	embedCmd.Flags().Bool("all", false, "backfill all active insights missing vectors")
	rootCmd.AddCommand(embedCmd)
}

func runEmbed(cmd *cobra.Command, args []string) {
	if err := ensureEngine(); err != nil {
		fatal(err)
	}

	statusOnly, _ := cmd.Flags().GetBool("status")
	all, _ := cmd.Flags().GetBool("all")

	switch {
	case statusOnly:
		adapter := embedding.New(cfg.EmbedEndpoint, cfg.EmbedModel)
		available := adapter.Available(rootCtx)
		embedded, _ := engine.Store().EmbeddedCount()
		active, _ := engine.Store().ActiveCount()
		emit(map[string]any{
			"available": available,
			"endpoint":  cfg.EmbedEndpoint,
			"model":     cfg.EmbedModel,
			"coverage":  map[string]int{"embedded": embedded, "active": active},
		})
	case all:
		done, missing, err := engine.EmbedBackfill(rootCtx)
		if err != nil {
			fatal(err)
		}
		emit(map[string]any{"embedded": done, "missing_before": missing})
	case len(args) == 1:
		ok, err := engine.EmbedInsight(rootCtx, args[0])
		if err != nil {
			fatal(err)
		}
		emit(map[string]any{"id": args[0], "embedded": ok})
	default:
		cmd.Help()
	}
}
