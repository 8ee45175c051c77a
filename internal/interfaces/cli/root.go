// Package cli implements the operator command surface: one-off scoring,
// fleet batches, health snapshots, model training, and migrations.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dealershipai/visibility-engine/internal/app"
	"github.com/dealershipai/visibility-engine/internal/config"
	"github.com/dealershipai/visibility-engine/internal/infrastructure/monitoring/logging"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// RootOptions holds the global flags.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
	JSONOutput bool
	Timeout    time.Duration
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "aivis",
		Short:         "AI visibility scoring engine for dealership fleets",
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: env-only configuration)")
	pf.StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.BoolVar(&opts.JSONOutput, "json", false, "print results as JSON")
	pf.DurationVar(&opts.Timeout, "timeout", 10*time.Minute, "operation timeout")

	cmd.AddCommand(
		newScoreCmd(opts),
		newBatchCmd(opts),
		newHealthCmd(opts),
		newTrainCmd(opts),
		newMigrateCmd(opts),
	)
	return cmd
}

// Execute runs the CLI and exits nonzero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig resolves configuration from the flag path or the environment.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	if opts.ConfigPath != "" {
		return config.Load(opts.ConfigPath)
	}
	return config.LoadFromEnv()
}

// runWithApp boots the full engine for the duration of one command.
func runWithApp(cmd *cobra.Command, opts *RootOptions, migrate bool, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	cfg.Log.Level = opts.LogLevel

	log, err := logging.NewLogger(logging.Config{
		Level:  cfg.Log.Level,
		Format: "console",
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
	defer cancel()

	a, err := app.Bootstrap(ctx, cfg, log, app.Options{Migrate: migrate})
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}

// printResult renders v as indented JSON or hands it to text for the
// human-readable view.
func printResult(opts *RootOptions, v interface{}, text func()) error {
	if opts.JSONOutput {
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}
	text()
	return nil
}
