package main

import (
	"github.com/spf13/cobra"
)

var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "Review or protect low-importance memories",
	Long: `Garbage-collection helpers. --review lists low-EI, non-immune
insights; --keep boosts one across the immunity threshold. Auto-pruning
itself runs inside remember; gc never deletes.

Examples:
  mnemon gc --review --threshold 0.3
  mnemon gc --keep abc123`,
	Run: runGC,
}

func init() {
	gcCmd.Flags().Bool("review", false, "list prune candidates, read-only")
	gcCmd.Flags().String("keep", "", "boost an insight to immunity")
	gcCmd.Flags().Float64("threshold", 0.5, "EI ceiling for --review")
	gcCmd.Flags().IntP("limit", "n", 20, "maximum review rows")
	rootCmd.AddCommand(gcCmd)
}

func runGC(cmd *cobra.Command, args []string) {
	if err := ensureEngine(); err != nil {
		fatal(err)
	}

	keepID, _ := cmd.Flags().GetString("keep")
	review, _ := cmd.Flags().GetBool("review")
	threshold, _ := cmd.Flags().GetFloat64("threshold")
	limit, _ := cmd.Flags().GetInt("limit")

	if keepID != "" {
		in, err := engine.Boost(keepID)
		if err != nil {
			fatal(err)
		}
		emit(map[string]any{
			"kept":                 true,
			"id":                   in.ID,
			"access_count":         in.AccessCount,
			"effective_importance": in.EffectiveImportance,
		})
		return
	}

	if !review {
		cmd.Help()
		return
	}
	items, err := engine.GCReview(threshold, limit)
	if err != nil {
		fatal(err)
	}
	emit(map[string]any{
		"meta":    map[string]any{"threshold": threshold, "count": len(items)},
		"results": items,
	})
}
