// Package cli implements promptsctl, the command line for prompt catalogs.
//
// Commands build their own dependencies from flags and the config file, so the
// tree can be constructed fresh per invocation and driven in-process by tests.
package cli

import (
	"context"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/promptsgo/promptsgo/internal/config"
	"github.com/promptsgo/promptsgo/internal/db"
	logpkg "github.com/promptsgo/promptsgo/internal/logger"
	"github.com/promptsgo/promptsgo/internal/storage"
)

// Output formats accepted by --output.
const (
	OutputTable = "table"
	OutputJSON  = "json"
)

var validOutputFormats = []string{OutputTable, OutputJSON}

// app holds global flags and injectable dependencies.
type app struct {
	output    string
	verbose   bool
	openStore func(*config.DatabaseConfig) (db.Store, error)
	clock     func() time.Time
	logger    *zap.Logger
}

// Option customizes the command tree.
type Option func(*app)

// WithStoreOpener replaces the database driver factory used by seed.
func WithStoreOpener(open func(*config.DatabaseConfig) (db.Store, error)) Option {
	return func(a *app) { a.openStore = open }
}

// WithClock fixes the reference time for age-based ranking.
func WithClock(clock func() time.Time) Option {
	return func(a *app) { a.clock = clock }
}

// WithLogger sets the logger instead of building one from --verbose.
func WithLogger(l *zap.Logger) Option {
	return func(a *app) { a.logger = l }
}

// NewRootCmd builds the promptsctl command tree.
func NewRootCmd(opts ...Option) *cobra.Command {
	a := &app{openStore: storage.Open, clock: time.Now}
	for _, opt := range opts {
		opt(a)
	}

	root := &cobra.Command{
		Use:           "promptsctl",
		Short:         "Search, seed and render prompt catalogs",
		Long:          `promptsctl searches prompt catalogs (YAML, JSON or Parquet), imports them into Valkey and renders prompt templates.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !slices.Contains(validOutputFormats, a.output) {
				return fmt.Errorf("invalid output format: %s (valid: %v)", a.output, validOutputFormats)
			}
			if a.logger == nil {
				level := "warn"
				if a.verbose {
					level = "debug"
				}
				l, err := logpkg.NewLogger(logpkg.EnvLocal, level)
				if err != nil {
					return fmt.Errorf("create logger: %w", err)
				}
				a.logger = l
			}
			cmd.SetContext(logpkg.ContextWithLogger(cmd.Context(), a.logger))
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&a.output, "output", "o", OutputTable, "Output format (table, json)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log at debug level")

	root.AddCommand(
		a.newSearchCmd(),
		a.newSeedCmd(),
		a.newRenderCmd(),
		a.newConvertCmd(),
		a.newVersionCmd(),
	)
	return root
}

// Execute runs promptsctl and returns the process exit code.
func Execute(ctx context.Context) int {
	root := NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

func (a *app) json() bool { return a.output == OutputJSON }
