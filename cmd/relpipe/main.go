package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Promptonauts/relpipe/pkg/config"
	"github.com/Promptonauts/relpipe/pkg/models"
	"github.com/Promptonauts/relpipe/pkg/observability"
	"github.com/Promptonauts/relpipe/pkg/pipeline"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	verbose     bool
	configPath  string
	rootDir     string
	historyPath string
	timeout     time.Duration

	logger    *zap.Logger
	newLogger = observability.NewLogger
	metrics   = observability.NewMetricsRegistry()
)

var rootCmd = &cobra.Command{
	Use:   "relpipe",
	Short: "Bump, package and install a VS Code extension",
	Long: `relpipe automates the local release loop of a VS Code extension.

It bumps the patch version in package.json, packages the extension with vsce,
moves the .vsix into vsix/ and installs it with the code CLI. It also ships a
dummy chat-completion server for exercising the extension offline.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = newLogger(verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: <root>/relpipe.yaml when present)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "root", "r", "", "Extension root directory (default: current)")
	rootCmd.PersistentFlags().StringVar(&historyPath, "history", "", "SQLite file recording pipeline runs")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Abort after this long (0 waits for the tools)")

	rootCmd.AddCommand(releaseCmd)
	rootCmd.AddCommand(packageCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(echoCmd)
	rootCmd.AddCommand(historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var pe *pipeline.Error
		if !errors.As(err, &pe) {
			// Pipeline failures were already reported by the pipeline.
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// loadSpec reads the config file and applies global flag overrides.
func loadSpec() (*models.PipelineSpec, error) {
	path := configPath
	required := path != ""
	if path == "" {
		base := rootDir
		if base == "" {
			base = "."
		}
		path = filepath.Join(base, config.DefaultFile)
	}

	spec, err := config.Load(path, required)
	if err != nil {
		return nil, err
	}
	switch {
	case rootDir != "":
		spec.Root = rootDir
	case !filepath.IsAbs(spec.Root):
		spec.Root = filepath.Join(filepath.Dir(path), spec.Root)
	}
	if historyPath != "" {
		spec.History = historyPath
	}
	return spec, nil
}

// commandContext is canceled on SIGINT/SIGTERM and after --timeout.
func commandContext() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	if timeout <= 0 {
		return ctx, stop
	}
	tctx, cancel := context.WithTimeout(ctx, timeout)
	return tctx, func() {
		cancel()
		stop()
	}
}
