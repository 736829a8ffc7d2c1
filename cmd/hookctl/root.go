package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jg-phare/hookprio/pkg/hookconfig"
	"github.com/jg-phare/hookprio/pkg/logger"
	"github.com/jg-phare/hookprio/pkg/priority"
	"github.com/jg-phare/hookprio/pkg/types"
)

// Version is the current hookctl version.
const Version = "0.1.0"

// configEnv names the environment variable consulted when --config is unset.
const configEnv = "HOOKPRIO_CONFIG"

var (
	cfgFile   string
	agentID   string
	logLevel  string
	logFormat string
	logFile   string
)

var rootCmd = &cobra.Command{
	Use:   "hookctl",
	Short: "Hook priority and execution coordinator",
	Long: `hookctl orders, gates and dispatches Claude hooks by priority.

Hook metadata comes from the built-in table layered with an override file
(JSON or YAML). Hook definitions for dispatch come from a Claude settings.json.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg := logger.DefaultConfig()
		cfg.Level = logLevel
		cfg.Format = logFormat
		if logFile != "" {
			cfg.Output = "both"
			cfg.FilePath = logFile
		}
		logger.Init(cfg)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "hook override file (default $"+configEnv+" or ~/.claude/logic/shared/"+hookconfig.OverrideFileName+")")
	rootCmd.PersistentFlags().StringVar(&agentID, "agent", "", "agent id reported in status output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write logs to this rotated file")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// overridePath resolves the override file from the flag, the environment and
// finally the default location.
func overridePath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if p := os.Getenv(configEnv); p != "" {
		return p
	}
	return hookconfig.DefaultOverridePath()
}

// loadStore builds the hook table. A malformed override file is logged and
// the defaults are used.
func loadStore(l *zap.Logger) *hookconfig.Store {
	store := hookconfig.NewStore(hookconfig.WithLogger(l))
	_, _ = store.LoadFile(overridePath())
	return store
}

func newCoordinator(l *zap.Logger, store *hookconfig.Store) *priority.Coordinator {
	return priority.New(
		priority.WithAgentID(agentID),
		priority.WithConfigStore(store),
		priority.WithLogger(l.Named("priority")),
	)
}

// readContext decodes a hook context object from r. Empty input is an empty
// context.
func readContext(r io.Reader) (types.Context, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read context: %w", err)
	}
	ctx := types.Context{}
	if len(bytes.TrimSpace(data)) == 0 {
		return ctx, nil
	}
	if err := sonic.Unmarshal(data, &ctx); err != nil {
		return nil, fmt.Errorf("decode context: %w", err)
	}
	return ctx, nil
}

func printJSON(w io.Writer, v any) error {
	out, err := sonic.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
