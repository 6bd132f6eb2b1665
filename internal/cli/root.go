package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"networth/internal/backend"
	"networth/internal/config"
	applog "networth/internal/log"
)

// Opener returns the backend a command runs against.
type Opener func(ctx context.Context, opts *RootOptions) (*backend.BackendResult, error)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format   string // "json" | "text"
	DBPath   string
	Currency string

	open Opener
}

var ValidFormats = []string{"text", "json"}

// NewRootCommand creates networthctl backed by the configured store.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWith(openFromEnv)
}

// NewRootCommandWith creates the root command using open to reach the store.
func NewRootCommandWith(open Opener) *cobra.Command {
	opts := &RootOptions{open: open}

	cmd := &cobra.Command{
		Use:   "networthctl",
		Short: "Track assets, liabilities and cash flow",
		Long: `networthctl records dated entries, keeps their value history and
reports net worth over time against up to three goals.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				out := &OutputFormatter{Format: "text", Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr()}
				return out.Fail("invalid flags", NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats)))
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "SQLite database path (overrides SQLITE_DB_PATH)")
	cmd.PersistentFlags().StringVar(&opts.Currency, "currency", "", "display currency (overrides CURRENCY)")

	cmd.AddCommand(newAddCommand(opts))
	cmd.AddCommand(newUpdateCommand(opts))
	cmd.AddCommand(newDeleteCommand(opts))
	cmd.AddCommand(newListCommand(opts))
	cmd.AddCommand(newHistoryCommand(opts))
	cmd.AddCommand(newSeriesCommand(opts))
	cmd.AddCommand(newGoalCommand(opts))
	cmd.AddCommand(newDashboardCommand(opts))
	cmd.AddCommand(newAnalyticsCommand(opts))
	cmd.AddCommand(newExportCommand(opts))
	cmd.AddCommand(newCategoriesCommand(opts))

	return cmd
}

// openFromEnv loads configuration from the environment and applies flag overrides.
func openFromEnv(ctx context.Context, opts *RootOptions) (*backend.BackendResult, error) {
	LoadEnvFile()
	cfg := config.Load()
	if opts.DBPath != "" {
		cfg.DataBackend = string(backend.SQLiteBackend)
		cfg.SQLiteDBPath = opts.DBPath
	}
	if opts.Currency == "" {
		opts.Currency = cfg.Currency
	}
	if err := cfg.Validate(); err != nil {
		return nil, NewExitError(ExitCommandError, err.Error())
	}

	// Commands write results to stdout; keep logs quiet unless they matter.
	logCfg := applog.DefaultConfig()
	logCfg.Level = slog.LevelWarn
	logCfg.Output = os.Stderr
	logCfg.Component = applog.ComponentCLI
	logger := applog.New(logCfg)

	return OpenBackend(ctx, logger, cfg)
}

// withBackend opens the store, runs fn and releases the store.
func withBackend(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, b *backend.Backend, out *OutputFormatter) error) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr()}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := opts.open(ctx, opts)
	if err != nil {
		return out.Fail("open store", err)
	}
	defer func() {
		if result.Cleanup != nil {
			_ = result.Cleanup()
		}
	}()

	if opts.Currency == "" {
		opts.Currency = "EUR"
	}
	return fn(ctx, result.Backend, out)
}
