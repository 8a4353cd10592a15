package main

import (
	"github.com/spf13/cobra"

	"github.com/bissli/mnemon/internal/store"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show recent operations",
	Run:   runLog,
}

func init() {
	logCmd.Flags().IntP("limit", "n", 20, "maximum entries")
	rootCmd.AddCommand(logCmd)
}

func runLog(cmd *cobra.Command, args []string) {
	if err := ensureEngine(); err != nil {
		fatal(err)
	}
	limit, _ := cmd.Flags().GetInt("limit")
	entries, err := engine.Store().RecentOps(limit)
	if err != nil {
		fatal(err)
	}
	if entries == nil {
		entries = []*store.OpLogEntry{}
	}
	emit(map[string]any{
		"meta":    map[string]any{"count": len(entries)},
		"results": entries,
	})
}
