package main

import (
	"fmt"

	"github.com/Promptonauts/relpipe/pkg/config"
	"github.com/Promptonauts/relpipe/pkg/models"
	"github.com/Promptonauts/relpipe/pkg/observability"
	"github.com/Promptonauts/relpipe/pkg/pipeline"
	"github.com/Promptonauts/relpipe/pkg/runner"
	"github.com/Promptonauts/relpipe/pkg/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	noClean        bool
	noInstall      bool
	descriptorFlag string
	outDir         string
)

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Clean, bump the patch version, package, move and install the extension",
	Long: `Runs the full release loop:
  1. Remove generated files matching the cleanup pattern, then .n8x/ and dist/
  2. Bump the patch version in package.json
  3. Package with vsce
  4. Move <name>-<version>.vsix into vsix/
  5. Install it with code --install-extension

The version bump is kept even when packaging or installing fails.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd, models.ModeRelease)
	},
}

var packageCmd = &cobra.Command{
	Use:   "package",
	Short: "Bump the patch version and package the extension in place",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd, models.ModePackage)
	},
}

func init() {
	for _, c := range []*cobra.Command{releaseCmd, packageCmd} {
		c.Flags().StringVar(&descriptorFlag, "descriptor", "", "Version descriptor relative to root (default: package.json)")
	}
	releaseCmd.Flags().BoolVar(&noClean, "no-clean", false, "Skip removal of generated files")
	releaseCmd.Flags().BoolVar(&noInstall, "no-install", false, "Package and move the artifact but do not install it")
	releaseCmd.Flags().StringVar(&outDir, "out-dir", "", "Artifact directory relative to root (default: vsix)")
}

func runPipeline(cmd *cobra.Command, mode models.RunMode) error {
	spec, err := loadSpec()
	if err != nil {
		return err
	}
	if descriptorFlag != "" {
		spec.Descriptor = descriptorFlag
	}
	if outDir != "" {
		spec.OutputDir = outDir
	}
	if noClean {
		disabled := false
		spec.Clean.Enabled = &disabled
	}
	if noInstall {
		disabled := false
		spec.Install = &disabled
	}

	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(metrics),
		pipeline.WithOutput(cmd.OutOrStdout()),
		pipeline.WithRunner(runner.NewExecRunner(spec.Root, logger)),
	}
	if spec.History != "" {
		s, err := store.OpenSQLiteStore(config.Resolve(spec, spec.History))
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer s.Close()
		opts = append(opts, pipeline.WithStore(s))
	}

	ctx, cancel := commandContext()
	defer cancel()
	if verbose {
		// Logged for failed runs as well.
		defer observability.LogSnapshot(logger, metrics)
	}

	logger.Debug("starting pipeline",
		zap.String("mode", string(mode)),
		zap.String("root", spec.Root),
		zap.String("descriptor", spec.Descriptor))

	rep, err := pipeline.New(spec, mode, opts...).Run(ctx)
	if err != nil {
		return err
	}
	if rep.RunID != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Run %s recorded.\n", rep.RunID)
	}
	return nil
}
