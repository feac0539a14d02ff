package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/Promptonauts/relpipe/pkg/config"
	"github.com/Promptonauts/relpipe/pkg/models"
	"github.com/Promptonauts/relpipe/pkg/store"
	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List recorded pipeline runs, or show the log of one run",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to list (0 for all)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	spec, err := loadSpec()
	if err != nil {
		return err
	}
	if spec.History == "" {
		return errors.New("no history database configured (set history in relpipe.yaml or pass --history)")
	}
	s, err := store.OpenSQLiteStore(config.Resolve(spec, spec.History))
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer s.Close()

	out := cmd.OutOrStdout()
	if len(args) == 1 {
		return printRun(out, s, args[0])
	}

	runs, err := s.ListRuns(historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODE\tSTATE\tNAME\tVERSION\tCREATED")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Mode, r.State, r.Name, versionChange(r), r.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func printRun(out io.Writer, s store.Store, id string) error {
	run, err := s.GetRun(id)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Run %s (%s) %s\n", run.ID, run.Mode, run.State)
	fmt.Fprintf(out, "Version: %s\n", versionChange(run))
	if run.Artifact != "" {
		fmt.Fprintf(out, "Artifact: %s\n", run.Artifact)
	}
	if run.Error != "" {
		fmt.Fprintf(out, "Failure: %s: %s\n", run.FailureKind, run.Error)
	}
	for _, l := range run.Logs {
		fmt.Fprintf(out, "  [%d] %-5s %s\n", l.Step, l.Level, l.Message)
	}
	return nil
}

func versionChange(r *models.RunRecord) string {
	if r.ToVersion == "" {
		return r.FromVersion
	}
	return r.FromVersion + " -> " + r.ToVersion
}
