// Package cli implements the fleetplan command line interface.
package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:     "fleetplan",
	Version: "dev",
	Short:   "Prioritized space-time planning for a delivery fleet",
	Long: `fleetplan coordinates a fleet of delivery robots on a room-and-corridor
floor plan. Robots are planned one at a time in priority order through a
shared space-time reservation table, so committed plans are collision-free
by construction.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// SetVersion overrides the version baked in at build time.
func SetVersion(v string) {
	if v == "" {
		return
	}
	rootCmd.Version = v
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

// Execute runs the CLI.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (default from FLEETPLAN_LOG_LEVEL)")
}

// newLogger builds the process logger. The flag wins over the
// environment default.
func newLogger(envLevel string) *slog.Logger {
	level := envLevel
	if logLevel != "" {
		level = logLevel
	}

	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: l,
	}))
}
