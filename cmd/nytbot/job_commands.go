package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"nytbot/internal/config"
	"nytbot/internal/jobrun"
	"nytbot/internal/records"
	"nytbot/internal/reconcile"
	"nytbot/internal/textutil"
)

type reportFlags struct {
	json    bool
	details bool
}

func (f *reportFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.json, "json", false, "Print the run report as JSON")
	cmd.Flags().BoolVar(&f.details, "details", false, "List the outcome of every record")
}

func newCollectCommand(ctx *commandContext) *cobra.Command {
	var fromFlag, toFlag string
	var lists []string
	var opts jobrun.CollectOptions
	var report reportFlags

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Fetch NYT best-seller lists and write the JSON artifacts",
		Long: `Fetch NYT best-seller lists and write the best-seller and review artifacts.

Without --from the current lists are collected. With --from (and optionally
--to) one published date every 7 days is collected, inclusive.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := parseRange(fromFlag, toFlag)
			if err != nil {
				return err
			}
			opts.From = from
			opts.To = to
			opts.Lists = lists

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return executeJob(cmd, ctx, report, jobrun.Invocation{Job: jobrun.JobCollect}, jobrun.CollectBody(cfg, opts))
		},
	}

	cmd.Flags().StringVar(&fromFlag, "from", "", "First published date to collect (YYYY-MM-DD)")
	cmd.Flags().StringVar(&toFlag, "to", "", "Last published date to collect (YYYY-MM-DD, defaults to --from)")
	cmd.Flags().StringArrayVar(&lists, "list", nil, "Collect only this list (repeatable, e.g. hardcover-fiction)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Best-seller artifact path (defaults to paths.bestsellers_file)")
	cmd.Flags().StringVar(&opts.ReviewsOutput, "reviews-output", "", "Review artifact path (defaults to paths.reviews_file)")
	cmd.Flags().BoolVar(&opts.NewEntriesOnly, "new-only", false, "Keep only books in their first week on a list")
	report.register(cmd)
	return cmd
}

func newTagCommand(ctx *commandContext) *cobra.Command {
	return newReconcileCommand(ctx, jobrun.JobTag,
		"Tag Open Library works found in a best-seller artifact",
		"Best-seller artifact to read (defaults to paths.bestsellers_file)",
		jobrun.TagBody)
}

func newLinkCommand(ctx *commandContext) *cobra.Command {
	return newReconcileCommand(ctx, jobrun.JobLink,
		"Attach NYT review links to Open Library works",
		"Review artifact to read (defaults to paths.reviews_file)",
		jobrun.LinkBody)
}

func newReconcileCommand(ctx *commandContext, job, short, fileUsage string, body func(*config.Config, jobrun.ReconcileOptions) jobrun.Body) *cobra.Command {
	var opts jobrun.ReconcileOptions
	var report reportFlags

	cmd := &cobra.Command{
		Use:   job,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Limit < 0 {
				return errors.New("--limit must be zero or positive")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			input := opts.File
			if input == "" {
				if job == jobrun.JobLink {
					input = cfg.Paths.ReviewsFile
				} else {
					input = cfg.Paths.BestSellersFile
				}
			}
			return executeJob(cmd, ctx, report, jobrun.Invocation{Job: job, InputFile: input, DryRun: opts.DryRun},
				body(cfg, opts))
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", fileUsage)
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Log intended edits without writing to Open Library")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Process at most N records (0 processes all)")
	report.register(cmd)
	return cmd
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var report reportFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Collect the current lists, then tag and link (weekly job)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return executeJob(cmd, ctx, report, jobrun.Invocation{Job: jobrun.JobPipeline, DryRun: dryRun},
				jobrun.PipelineBody(cfg, dryRun))
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Log intended edits without writing to Open Library")
	report.register(cmd)
	return cmd
}

func executeJob(cmd *cobra.Command, ctx *commandContext, flags reportFlags, inv jobrun.Invocation, body jobrun.Body) error {
	runner, err := ctx.runner()
	if err != nil {
		return err
	}
	report, runErr := runner.Execute(cmd.Context(), inv, body)
	if report == nil {
		return runErr
	}
	if flags.json {
		if err := writeJSON(cmd, report); err != nil {
			return err
		}
		return runErr
	}
	printReport(cmd, report, flags.details)
	return runErr
}

func printReport(cmd *cobra.Command, report *jobrun.Report, details bool) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	title := fmt.Sprintf("%s run %s %s", report.Job, shortRunID(report.RunID), statusLabel(report.Status, colorize))
	if report.DryRun {
		title += " (dry run)"
	}
	fmt.Fprintln(out, title)
	if len(report.Counts) > 0 {
		fmt.Fprintln(out, countsTable(report.Counts))
	}
	if details {
		for _, summary := range summaries(report.Details) {
			if len(summary.Outcomes) == 0 {
				continue
			}
			fmt.Fprintln(out, outcomesTable(summary.Outcomes))
		}
	}
	if report.Error != "" {
		fmt.Fprintf(out, "Error: %s\n", report.Error)
	}
	fmt.Fprintf(out, "Report: %s\n", report.ReportPath)
	fmt.Fprintf(out, "Log:    %s\n", report.LogPath)
}

func summaries(details any) []*reconcile.Summary {
	switch v := details.(type) {
	case *reconcile.Summary:
		return []*reconcile.Summary{v}
	case map[string]any:
		var out []*reconcile.Summary
		for _, stage := range []string{jobrun.JobTag, jobrun.JobLink} {
			if summary, ok := v[stage].(*reconcile.Summary); ok {
				out = append(out, summary)
			}
		}
		return out
	default:
		return nil
	}
}

func outcomesTable(outcomes []reconcile.Outcome) string {
	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		detail := o.Detail
		if len(o.Added) > 0 {
			detail = strings.Join(o.Added, "; ")
		}
		rows = append(rows, []string{o.ISBN, valueOrDash(textutil.ListDisplayName(o.ListName)), valueOrDash(o.WorkKey), string(o.State), valueOrDash(detail)})
	}
	return renderTable([]string{"ISBN", "List", "Work", "State", "Detail"}, rows, nil)
}

func parseRange(fromValue, toValue string) (records.Date, records.Date, error) {
	fromValue = strings.TrimSpace(fromValue)
	toValue = strings.TrimSpace(toValue)
	if fromValue == "" {
		if toValue != "" {
			return records.Date{}, records.Date{}, errors.New("--to requires --from")
		}
		return records.Date{}, records.Date{}, nil
	}
	from, err := records.ParseDate(fromValue)
	if err != nil {
		return records.Date{}, records.Date{}, fmt.Errorf("--from: %w", err)
	}
	if toValue == "" {
		return from, from, nil
	}
	to, err := records.ParseDate(toValue)
	if err != nil {
		return records.Date{}, records.Date{}, fmt.Errorf("--to: %w", err)
	}
	if to.Before(from.Time) {
		return records.Date{}, records.Date{}, fmt.Errorf("--to %s is before --from %s", to, from)
	}
	return from, to, nil
}
