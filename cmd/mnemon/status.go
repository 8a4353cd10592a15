package main

import (
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Aggregate counters for the active store",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	if err := ensureEngine(); err != nil {
		fatal(err)
	}
	report, err := engine.StatusReport(rootCtx, cfg.Store)
	if err != nil {
		fatal(err)
	}
	emit(report)
}
