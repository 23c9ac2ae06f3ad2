package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/graphexec/pkg/config"
	"github.com/graphexec/pkg/telemetry"
)

var (
	// Global flags
	verbose    bool
	configPath string

	logger *slog.Logger
	cfg    *config.Config

	telemetryShutdown telemetry.ShutdownFunc
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "graphexec",
	Short: "A parallel task-graph execution tool",
	Long: `graphexec runs directed acyclic graphs of tasks across multiple
workers. Every node executes exactly once, strictly after its
predecessors, with ready nodes running in parallel.

Graphs are either built up front (static traversal) or discovered while
executing (dynamic traversal); each traversal runs serially or in
parallel, giving four modes to compare.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		level := parseLogLevel(cfg.Log.Level)
		if verbose {
			level = slog.LevelDebug
		}
		logger, err = newLogger(level, cfg.Log.OutputPath)
		if err != nil {
			return err
		}

		if cfg.Runtime.MaxWorkers > 0 {
			runtime.GOMAXPROCS(cfg.Runtime.MaxWorkers)
		}

		telemetryShutdown, err = telemetry.Init(cmd.Context())
		if err != nil {
			logger.Warn("failed to initialize telemetry", "error", err)
			telemetryShutdown = nil
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if telemetryShutdown != nil {
			return telemetryShutdown(context.Background())
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	binName := BinName()
	rootCmd.Example = `  # Run the ten-node sample DAG in every mode
  ` + binName + ` sample

  # Run it in one mode only
  ` + binName + ` sample --mode dynamic-parallel

  # Count paths through the fixed 100-node chain DAG
  ` + binName + ` paths --size 100

  # Count paths through a random layered DAG, both dynamic modes compared
  ` + binName + ` paths --layers 20 --width 8 --seed 7 --compare`
}

// newLogger builds the CLI logger: a text handler on stdout, or appending
// to outputPath when configured.
func newLogger(level slog.Level, outputPath string) (*slog.Logger, error) {
	out := os.Stdout
	if outputPath != "" {
		if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		file, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = file
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})), nil
}

// parseLogLevel maps a config string to a slog level, defaulting to info.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetLogger returns the configured logger
func GetLogger() *slog.Logger {
	return logger
}

// BinName returns the base name of the current executable
func BinName() string {
	return filepath.Base(os.Args[0])
}
