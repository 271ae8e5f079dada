package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/doodlesbykumbi/handover-tracker/pkg/audit"
	"github.com/doodlesbykumbi/handover-tracker/pkg/config"
	"github.com/doodlesbykumbi/handover-tracker/pkg/db"
	"github.com/doodlesbykumbi/handover-tracker/pkg/logger"
	"github.com/doodlesbykumbi/handover-tracker/pkg/server"
	"github.com/doodlesbykumbi/handover-tracker/pkg/server/endpoints"
)

const shutdownTimeout = 30 * time.Second

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the handover tracker API server",
	Long: `Run the handover tracker API server.

The server requires DATABASE_URL. Without SUPABASE_JWT_SECRET the /api/v1
routes answer 503; without CRON_SECRET the sync routes answer 500.

By default, database migrations are run on startup. Use --no-migrate to skip.
With --watch-config the config file is watched and the log level follows it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if port, _ := cmd.Flags().GetInt("port"); cmd.Flags().Changed("port") {
			cfg.Port = port
		}
		if addr, _ := cmd.Flags().GetString("bind-address"); cmd.Flags().Changed("bind-address") {
			cfg.BindAddress = addr
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		if cfg.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required")
		}

		lvl, err := logger.ParseLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		var level zap.AtomicLevel
		lggr, err := logger.NewWith(func(c *zap.Config) {
			c.Level.SetLevel(lvl)
			level = c.Level
		})
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer func() { _ = lggr.Sync() }()
		audit.SetLogger(lggr)

		noMigrate, _ := cmd.Flags().GetBool("no-migrate")
		if !noMigrate {
			lggr.Infow("Running database migrations")
			if err := runMigrations(cfg.DatabaseURL); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
		}

		database, err := db.Connect(db.Config{URL: cfg.DatabaseURL, Debug: lvl == zap.DebugLevel})
		if err != nil {
			return err
		}

		defer func() {
			if audit.DefaultStore != nil {
				_ = audit.DefaultStore.Close()
			}
		}()

		s := server.NewServer(cfg, database, lggr)
		endpoints.RegisterAll(s)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if watch, _ := cmd.Flags().GetBool("watch-config"); watch {
			go watchConfig(ctx, cfg, level, lggr.Named("config"))
		}

		errCh := make(chan error, 1)
		go func() { errCh <- s.Start() }()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		lggr.Infow("Shutting down", "timeout", shutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		return <-errCh
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().IntP("port", "p", 8000, "server listen port (overrides PORT)")
	serverCmd.Flags().StringP("bind-address", "b", "0.0.0.0", "server bind address (overrides BIND_ADDRESS)")
	serverCmd.Flags().Bool("no-migrate", false, "skip running database migrations on start")
	serverCmd.Flags().Bool("watch-config", false, "reload the log level when the config file changes")
}

// watchConfig applies log level changes from the config file. Other
// settings need a restart, which is logged.
func watchConfig(ctx context.Context, current *config.Config, level zap.AtomicLevel, lggr logger.Logger) {
	path := current.ConfigFilePath()
	lggr.Infow("Watching configuration file", "path", path)

	err := config.Watch(ctx, path, func(next *config.Config) {
		if lvl, err := logger.ParseLevel(next.LogLevel); err == nil && lvl != level.Level() {
			level.SetLevel(lvl)
			lggr.Infow("Log level changed", "level", lvl.String())
		}
		for _, name := range changedAttributes(current, next) {
			if name != "log_level" {
				lggr.Warnw("Configuration changed; restart to apply", "attribute", name)
			}
		}
		current = next
	}, func(err error) {
		lggr.Warnw("Ignoring invalid configuration", "err", err)
	})
	if err != nil {
		lggr.Errorw("Configuration watch stopped", "err", err)
	}
}

func changedAttributes(a, b *config.Config) []string {
	before := map[string]string{}
	for _, attr := range a.Attributes() {
		before[attr.Name] = attr.Value
	}
	var changed []string
	for _, attr := range b.Attributes() {
		if before[attr.Name] != attr.Value {
			changed = append(changed, attr.Name)
		}
	}
	return changed
}
