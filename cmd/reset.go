package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/meetgate/internal/instrumentation"
	"github.com/teemow/meetgate/internal/kv"
	"github.com/teemow/meetgate/internal/meetings"
)

const resetTimeout = 2 * time.Minute

func newResetCmd() *cobra.Command {
	var valkeyCfg kv.ValkeyConfig

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear all cached daily meeting links",
		Long: `Clear all cached daily meeting links.

Intended to run once a day, e.g. as a Kubernetes CronJob, so every user
gets a fresh meeting link on their next visit. Stored refresh tokens and
share aliases are left untouched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			applyResetEnv(cmd, &valkeyCfg)
			if valkeyCfg.URL == "" {
				return fmt.Errorf("missing required configuration: --valkey-url (or VALKEY_URL)")
			}
			return runReset(valkeyCfg)
		},
	}

	cmd.Flags().StringVar(&valkeyCfg.URL, "valkey-url", "", "Valkey server address (e.g., valkey.namespace.svc:6379). Can also use VALKEY_URL env var.")
	cmd.Flags().StringVar(&valkeyCfg.Password, "valkey-password", "", "Valkey authentication password. Can also use VALKEY_PASSWORD env var.")
	cmd.Flags().BoolVar(&valkeyCfg.TLSEnabled, "valkey-tls", false, "Enable TLS for Valkey connections. Can also use VALKEY_TLS_ENABLED env var.")
	cmd.Flags().StringVar(&valkeyCfg.TLSCAFile, "valkey-ca-file", "", "Path to a custom CA certificate for Valkey TLS. Can also use VALKEY_CA_FILE env var.")
	cmd.Flags().IntVar(&valkeyCfg.DB, "valkey-db", 0, "Valkey database number. Can also use VALKEY_DB env var.")

	return cmd
}

func applyResetEnv(cmd *cobra.Command, cfg *kv.ValkeyConfig) {
	if !cmd.Flags().Changed("valkey-url") {
		if v := os.Getenv("VALKEY_URL"); v != "" {
			cfg.URL = v
		}
	}
	if !cmd.Flags().Changed("valkey-password") {
		if v := os.Getenv("VALKEY_PASSWORD"); v != "" {
			cfg.Password = v
		}
	}
	if !cmd.Flags().Changed("valkey-tls") {
		cfg.TLSEnabled = os.Getenv("VALKEY_TLS_ENABLED") == "true"
	}
	if !cmd.Flags().Changed("valkey-ca-file") {
		if v := os.Getenv("VALKEY_CA_FILE"); v != "" {
			cfg.TLSCAFile = v
		}
	}
	if !cmd.Flags().Changed("valkey-db") {
		if v := os.Getenv("VALKEY_DB"); v != "" {
			if db, err := strconv.Atoi(v); err == nil {
				cfg.DB = db
			}
		}
	}
}

func runReset(valkeyCfg kv.ValkeyConfig) error {
	ctx, cancel := context.WithTimeout(context.Background(), resetTimeout)
	defer cancel()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	store, err := kv.NewValkeyStore(valkeyCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to valkey: %w", err)
	}
	defer store.Close()

	cache := meetings.NewCache(store, logger)

	start := time.Now()
	cleared, err := cache.ClearAll(ctx)

	audit := instrumentation.NewAuditLogger(logger)
	ev := instrumentation.NewAccessEvent(instrumentation.ActionCacheReset).Complete(err == nil, err)
	audit.LogAccess(ev)

	if err != nil {
		return fmt.Errorf("failed to clear meeting cache: %w", err)
	}

	logger.Info("cleared meeting cache",
		slog.Int("entries", cleared),
		slog.Duration("duration", time.Since(start)))
	return nil
}
