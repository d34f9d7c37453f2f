package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"nytbot/internal/ledger"
	"nytbot/internal/textutil"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs from the run ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return errors.New("--limit must be zero or positive")
			}
			return ctx.withLedger(func(store *ledger.Store) error {
				runs, err := store.RecentRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if asJSON {
					if runs == nil {
						runs = []ledger.Run{}
					}
					return writeJSON(cmd, runs)
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				fmt.Fprintln(out, runsTable(runs, shouldColorize(out)))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show (0 shows all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.AddCommand(newHistoryShowCommand(ctx))
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show RUN_ID",
		Short: "Show one run and the outcome of every record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(func(store *ledger.Store) error {
				run, err := store.GetRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				outcomes, err := store.Outcomes(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				if asJSON {
					if outcomes == nil {
						outcomes = []ledger.Outcome{}
					}
					return writeJSON(cmd, struct {
						*ledger.Run
						Outcomes []ledger.Outcome `json:"outcomes"`
					}{run, outcomes})
				}
				printRun(cmd, run, outcomes)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func runsTable(runs []ledger.Run, colorize bool) string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			shortRunID(run.ID),
			run.Job,
			statusLabel(run.Status, colorize),
			yesNo(run.DryRun),
			formatTimestamp(run.StartedAt),
			formatDuration(run.Duration()),
			valueOrDash(compactCounts(run.Counts)),
		})
	}
	return renderTable(
		[]string{"ID", "Job", "Status", "Dry Run", "Started", "Duration", "Counts"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	)
}

func printRun(cmd *cobra.Command, run *ledger.Run, outcomes []ledger.Outcome) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	fmt.Fprintf(out, "Run:      %s\n", run.ID)
	fmt.Fprintf(out, "Job:      %s\n", run.Job)
	fmt.Fprintf(out, "Status:   %s\n", statusLabel(run.Status, colorize))
	fmt.Fprintf(out, "Dry run:  %s\n", yesNo(run.DryRun))
	fmt.Fprintf(out, "Input:    %s\n", valueOrDash(run.InputFile))
	fmt.Fprintf(out, "Started:  %s\n", formatTimestamp(run.StartedAt))
	fmt.Fprintf(out, "Finished: %s\n", formatTimestamp(run.FinishedAt))
	fmt.Fprintf(out, "Duration: %s\n", formatDuration(run.Duration()))
	if strings.TrimSpace(run.Error) != "" {
		fmt.Fprintf(out, "Error:    %s\n", run.Error)
	}
	if len(run.Counts) > 0 {
		fmt.Fprintln(out, countsTable(run.Counts))
	}
	if len(outcomes) == 0 {
		return
	}
	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		rows = append(rows, []string{o.ISBN, valueOrDash(textutil.ListDisplayName(o.ListName)), valueOrDash(o.WorkKey), o.State, valueOrDash(o.Detail)})
	}
	fmt.Fprintln(out, renderTable([]string{"ISBN", "List", "Work", "State", "Detail"}, rows, nil))
}
