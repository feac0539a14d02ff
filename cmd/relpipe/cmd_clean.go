package main

import (
	"fmt"

	"github.com/Promptonauts/relpipe/pkg/cleanup"
	"github.com/spf13/cobra"
)

var (
	cleanPattern string
	cleanExclude string
	cleanDirs    bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove generated files matching the cleanup pattern",
	Long: `Walks the root and deletes every file whose name matches the pattern
(a regular expression, by default "n8x") except the excluded file name
(by default n8x.json). With --dirs the configured directories (.n8x and dist)
are removed as well. Failures are reported and skipped.`,
	Args: cobra.NoArgs,
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().StringVar(&cleanPattern, "pattern", "", "File name pattern (default from config: n8x)")
	cleanCmd.Flags().StringVar(&cleanExclude, "exclude", "", "File name to keep (default from config: n8x.json)")
	cleanCmd.Flags().BoolVar(&cleanDirs, "dirs", false, "Also remove the configured generated directories")
}

func runClean(cmd *cobra.Command, args []string) error {
	spec, err := loadSpec()
	if err != nil {
		return err
	}
	if cleanPattern != "" {
		spec.Clean.Pattern = cleanPattern
	}
	if cleanExclude != "" {
		spec.Clean.Exclude = cleanExclude
	}

	out := cmd.OutOrStdout()
	c := cleanup.New(logger)
	c.Report = func(o cleanup.Outcome) {
		fmt.Fprintln(out, o)
	}

	outcomes, err := c.RemoveMatching(spec.Root, spec.Clean.Pattern, spec.Clean.Exclude)
	if err != nil {
		return err
	}
	if cleanDirs {
		for _, dir := range spec.Clean.Dirs {
			outcomes = append(outcomes, c.RemoveDir(spec.Root, dir))
		}
	}
	if failed := cleanup.Failures(outcomes); len(failed) > 0 {
		fmt.Fprintf(out, "%d item(s) could not be removed.\n", len(failed))
	}
	return nil
}
