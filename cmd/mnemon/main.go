// mnemon is the symbolic command surface over the memory core: each verb
// maps onto one engine operation and emits a single JSON payload on
// stdout. stderr carries logs only.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/bissli/mnemon/internal/config"
	"github.com/bissli/mnemon/internal/store"
	"github.com/bissli/mnemon/pkg/embedding"
	"github.com/bissli/mnemon/pkg/memory"
)

var (
	flagStore string

	cfg    *config.Config
	st     *store.Store
	engine *memory.Engine

	rootCtx = context.Background()
)

var rootCmd = &cobra.Command{
	Use:           "mnemon",
	Short:         "Persistent graph memory for LLM-driven agents",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(flagStore)
		if err != nil {
			return err
		}
		level, err := zerolog.ParseLevel(cfg.LogLevel)
		if err != nil {
			level = zerolog.WarnLevel
		}
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			Level(level).With().Timestamp().Logger()
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if st != nil {
			st.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagStore, "store", "", "store name (overrides MNEMON_STORE and the active file)")
}

// ensureEngine opens the resolved store lazily; store-management verbs run
// without touching a database.
func ensureEngine() error {
	if engine != nil {
		return nil
	}
	if err := store.MigrateLegacy(cfg.DataDir); err != nil {
		return err
	}
	var err error
	st, err = store.Open(cfg.DBPath())
	if err != nil {
		return err
	}
	engine = memory.New(st, embedding.New(cfg.EmbedEndpoint, cfg.EmbedModel))
	return nil
}

// emit writes one JSON document to stdout.
func emit(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

// fatal maps an engine error onto the JSON error object and exits non-zero.
func fatal(err error) {
	kind := "storage"
	switch {
	case errors.Is(err, memory.ErrInvalidInput):
		kind = "invalid_input"
	case errors.Is(err, memory.ErrNotFound):
		kind = "not_found"
	}
	emit(map[string]any{"error": map[string]string{"kind": kind, "message": err.Error()}})
	os.Exit(1)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
