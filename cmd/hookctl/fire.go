package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jg-phare/hookprio/pkg/hooks"
	"github.com/jg-phare/hookprio/pkg/logger"
	"github.com/jg-phare/hookprio/pkg/types"
)

var (
	fireEvent    string
	fireSettings string
	fireWorkers  int
)

var fireCmd = &cobra.Command{
	Use:   "fire",
	Short: "Dispatch the hooks registered for an event",
	Long: `Read a hook context JSON object from stdin, run every hook from the
settings file that applies to the event, and print the results in priority
order.`,
	Example: `  echo '{"toolName":"Edit","toolInput":{"file_path":"main.go"}}' | hookctl fire --event PreToolUse
  hookctl fire --event SessionStart --settings ./settings.json < /dev/null`,
	Args: cobra.NoArgs,
	RunE: runFire,
}

func init() {
	rootCmd.AddCommand(fireCmd)
	fireCmd.Flags().StringVarP(&fireEvent, "event", "e", "", "hook event, e.g. PreToolUse (required)")
	fireCmd.Flags().StringVar(&fireSettings, "settings", defaultSettingsPath(), "Claude settings file with hook definitions")
	fireCmd.Flags().IntVar(&fireWorkers, "workers", 0, "concurrent-safe hooks run at once (0 = default)")
	_ = fireCmd.MarkFlagRequired("event")
}

func defaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".claude", "settings.json")
}

func runFire(cmd *cobra.Command, args []string) error {
	event := types.HookEvent(fireEvent)
	if !event.Valid() {
		return fmt.Errorf("unknown hook event %q", fireEvent)
	}

	l := logger.L()
	defs, err := hooks.LoadSettings(fireSettings)
	if err != nil {
		return err
	}
	hookCtx, err := readContext(cmd.InOrStdin())
	if err != nil {
		return err
	}

	runner := hooks.NewRunner(hooks.RunnerConfig{
		Definitions: defs,
		Coordinator: newCoordinator(l, loadStore(l)),
		Workers:     fireWorkers,
		Logger:      l.Named("hooks"),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results := runner.Fire(ctx, event, hookCtx)
	l.Debug("fire finished", zap.String("event", fireEvent), zap.Int("results", len(results)))
	return printJSON(cmd.OutOrStdout(), results)
}
