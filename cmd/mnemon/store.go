package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bissli/mnemon/pkg/memory"
)

var storeCmd = &cobra.Command{
	Use:   "store <list|create|set|remove> [name]",
	Short: "Manage named stores",
	Long: `Named-store multiplexing above the core: each store is its own
database under <data_root>/data/<name>/. "set" writes the active file.`,
	Args: cobra.RangeArgs(1, 2),
	Run:  runStore,
}

func init() {
	rootCmd.AddCommand(storeCmd)
}

func runStore(cmd *cobra.Command, args []string) {
	mode := args[0]
	name := ""
	if len(args) == 2 {
		name = args[1]
	}

	switch mode {
	case "list":
		names, err := cfg.ListStores()
		if err != nil {
			fatal(err)
		}
		if names == nil {
			names = []string{}
		}
		emit(map[string]any{"active": cfg.Store, "stores": names})
	case "create":
		if name == "" {
			fatal(fmt.Errorf("%w: store create requires a name", memory.ErrInvalidInput))
		}
		if err := cfg.CreateStore(name); err != nil {
			fatal(err)
		}
		emit(map[string]any{"created": name})
	case "set":
		if name == "" {
			fatal(fmt.Errorf("%w: store set requires a name", memory.ErrInvalidInput))
		}
		if err := cfg.SetActive(name); err != nil {
			fatal(err)
		}
		emit(map[string]any{"active": name})
	case "remove":
		if name == "" {
			fatal(fmt.Errorf("%w: store remove requires a name", memory.ErrInvalidInput))
		}
		if err := cfg.RemoveStore(name); err != nil {
			fatal(err)
		}
		emit(map[string]any{"removed": name})
	default:
		fatal(fmt.Errorf("%w: unknown store mode %q", memory.ErrInvalidInput, mode))
	}
}
