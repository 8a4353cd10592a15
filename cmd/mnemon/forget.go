package main

import (
	"github.com/spf13/cobra"
)

var forgetCmd = &cobra.Command{
	Use:   "forget <id>",
	Short: "Soft-delete an insight and cascade its edges",
	Args:  cobra.ExactArgs(1),
	Run:   runForget,
}

func init() {
	rootCmd.AddCommand(forgetCmd)
}

func runForget(cmd *cobra.Command, args []string) {
	if err := ensureEngine(); err != nil {
		fatal(err)
	}
	if err := engine.Forget(args[0]); err != nil {
		fatal(err)
	}
	emit(map[string]any{"forgotten": true, "id": args[0]})
}
