package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jg-phare/hookprio/pkg/hookconfig"
	"github.com/jg-phare/hookprio/pkg/hooks"
	"github.com/jg-phare/hookprio/pkg/logger"
	"github.com/jg-phare/hookprio/pkg/statusapi"
)

var (
	serveAddr     string
	serveSettings string
	serveInterval time.Duration
	serveGrace    time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the status API",
	Long: `Serve coordinator status over HTTP. The override file is watched and
re-merged on change, and a watchdog releases executions that outlive their
timeout budget.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", statusapi.DefaultConfig().Address, "listen address")
	serveCmd.Flags().StringVar(&serveSettings, "settings", defaultSettingsPath(), "Claude settings file with hook definitions")
	serveCmd.Flags().DurationVar(&serveInterval, "watchdog-interval", 10*time.Second, "how often overdue executions are swept")
	serveCmd.Flags().DurationVar(&serveGrace, "watchdog-grace", 5*time.Second, "extra time allowed past a hook's timeout budget")
}

func runServe(cmd *cobra.Command, args []string) error {
	l := logger.L()
	store := loadStore(l)
	path := overridePath()

	defs, err := hooks.LoadSettings(serveSettings)
	if err != nil {
		l.Warn("ignoring settings file", zap.String("path", serveSettings), zap.Error(err))
	}
	runner := hooks.NewRunner(hooks.RunnerConfig{
		Definitions: defs,
		Coordinator: newCoordinator(l, store),
		Logger:      l.Named("hooks"),
	})

	cfg := statusapi.DefaultConfig()
	cfg.Address = serveAddr
	cfg.OverridePath = path
	server := statusapi.NewServer(runner.Coordinator(), cfg,
		statusapi.WithRunner(runner),
		statusapi.WithLogger(l),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	if path != "" {
		g.Go(func() error {
			return ignoreCanceled(hookconfig.Watch(ctx, store, path))
		})
	}
	g.Go(func() error {
		return ignoreCanceled(runner.Watchdog(ctx, serveInterval, serveGrace))
	})
	g.Go(func() error {
		l.Info("status api listening", zap.String("addr", serveAddr), zap.String("config", path))
		return server.StartWithContext(ctx)
	})
	return g.Wait()
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
