package jobrun

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"nytbot/internal/collector"
	"nytbot/internal/config"
	"nytbot/internal/logging"
	"nytbot/internal/records"
	"nytbot/internal/reconcile"
	"nytbot/internal/services"
	"nytbot/internal/services/nyt"
	"nytbot/internal/services/openlibrary"
)

// Job names used for reports, the ledger and notifications.
const (
	JobCollect  = "collect"
	JobTag      = "tag"
	JobLink     = "link"
	JobPipeline = "run"
)

// CollectOptions configures a collect job.
type CollectOptions struct {
	From           records.Date
	To             records.Date
	Lists          []string
	NewEntriesOnly bool
	// Output and ReviewsOutput default to the configured artifact paths.
	Output        string
	ReviewsOutput string
}

// ReconcileOptions configures a tag or link job.
type ReconcileOptions struct {
	File   string
	DryRun bool
	Limit  int
}

// CollectBody returns the job body that queries NYT and writes the artifacts.
// Artifacts are written even when the collection stopped early.
func CollectBody(cfg *config.Config, opts CollectOptions) Body {
	return func(ctx context.Context, run *Run) (Result, error) {
		if err := cfg.RequireNYT(); err != nil {
			return Result{}, services.Wrap(services.ErrConfiguration, "collector", "check config", "nyt api key missing", err)
		}
		client, err := newNYTClient(cfg)
		if err != nil {
			return Result{}, err
		}
		lists := opts.Lists
		if len(lists) == 0 {
			lists = cfg.NYT.Lists
		}
		output := firstNonEmpty(opts.Output, cfg.Paths.BestSellersFile)
		reviewsOutput := firstNonEmpty(opts.ReviewsOutput, cfg.Paths.ReviewsFile)

		result, collectErr := collector.New(client, run.Logger).Collect(ctx, collector.Options{
			From:           opts.From,
			To:             opts.To,
			Lists:          lists,
			NewEntriesOnly: opts.NewEntriesOnly || cfg.NYT.NewEntriesOnly,
		})
		if result == nil {
			return Result{}, collectErr
		}
		if err := collector.WriteArtifacts(result, output, reviewsOutput); err != nil {
			if collectErr != nil {
				return Result{Counts: result.Counts(), Details: result}, collectErr
			}
			return Result{Counts: result.Counts(), Details: result}, err
		}
		run.Logger.Info("artifacts written",
			logging.String("best_sellers_file", output),
			logging.String("reviews_file", reviewsOutput),
			logging.Int("best_sellers", len(result.BestSellers)),
			logging.Int("reviews", len(result.Reviews)),
			logging.Event("artifacts_written"),
		)
		return Result{Counts: result.Counts(), Details: result}, collectErr
	}
}

// TagBody returns the job body that tags works from a best-seller artifact.
func TagBody(cfg *config.Config, opts ReconcileOptions) Body {
	return func(ctx context.Context, run *Run) (Result, error) {
		path := firstNonEmpty(opts.File, cfg.Paths.BestSellersFile)
		bestSellers, err := records.ReadBestSellers(path)
		if err != nil {
			return Result{}, services.Wrap(services.ErrValidation, "tagger", "read artifact", path, err)
		}
		mutator := reconcile.Tagger{
			Subject:      cfg.Tagger.Subject,
			ListSubjects: cfg.Tagger.ListSubjects,
			EditComment:  cfg.Tagger.Comment,
		}
		return reconcileItems(ctx, cfg, run, mutator, reconcile.ItemsFromBestSellers(bestSellers), opts)
	}
}

// LinkBody returns the job body that links reviews from a review artifact.
func LinkBody(cfg *config.Config, opts ReconcileOptions) Body {
	return func(ctx context.Context, run *Run) (Result, error) {
		path := firstNonEmpty(opts.File, cfg.Paths.ReviewsFile)
		reviews, err := records.ReadReviews(path)
		if err != nil {
			return Result{}, services.Wrap(services.ErrValidation, "linker", "read artifact", path, err)
		}
		mutator := reconcile.Linker{
			Subject:     cfg.Linker.Subject,
			LinkTitle:   cfg.Linker.LinkTitle,
			EditComment: cfg.Linker.Comment,
		}
		return reconcileItems(ctx, cfg, run, mutator, reconcile.ItemsFromReviews(reviews), opts)
	}
}

// PipelineBody collects the current lists, then tags and links from the
// freshly written artifacts. Counts are prefixed with the stage name.
func PipelineBody(cfg *config.Config, dryRun bool) Body {
	stages := []struct {
		name string
		body Body
	}{
		{JobCollect, CollectBody(cfg, CollectOptions{})},
		{JobTag, TagBody(cfg, ReconcileOptions{DryRun: dryRun})},
		{JobLink, LinkBody(cfg, ReconcileOptions{DryRun: dryRun})},
	}
	return func(ctx context.Context, run *Run) (Result, error) {
		counts := make(map[string]int)
		details := make(map[string]any, len(stages))
		for _, stage := range stages {
			stageRun := *run
			stageRun.Logger = run.Logger.With(logging.String("stage", stage.name))
			stageRun.Logger.Info("stage started", logging.Event("stage_started"))
			result, err := stage.body(ctx, &stageRun)
			for key, value := range result.Counts {
				counts[stage.name+"."+key] = value
			}
			if result.Details != nil {
				details[stage.name] = result.Details
			}
			if err != nil {
				return Result{Counts: counts, Details: details}, fmt.Errorf("%s stage: %w", stage.name, err)
			}
		}
		return Result{Counts: counts, Details: details}, nil
	}
}

func reconcileItems(ctx context.Context, cfg *config.Config, run *Run, mutator reconcile.Mutator, items []reconcile.Item, opts ReconcileOptions) (Result, error) {
	if !opts.DryRun {
		if err := cfg.RequireOpenLibraryWrite(); err != nil {
			return Result{}, services.Wrap(services.ErrConfiguration, mutator.Name(), "check config", "open library credentials missing", err)
		}
	}
	client, err := newOpenLibraryClient(cfg)
	if err != nil {
		return Result{}, err
	}
	if !opts.DryRun {
		if err := client.Login(ctx, cfg.OpenLibrary.AccessKey, cfg.OpenLibrary.SecretKey); err != nil {
			return Result{}, err
		}
	}

	engine := reconcile.NewEngine(client, mutator, run.Outcomes(), run.Logger, reconcile.Options{
		DryRun:        opts.DryRun,
		ImportMissing: cfg.OpenLibrary.ImportMissing,
		Limit:         opts.Limit,
	})
	summary, err := engine.Run(ctx, items)
	if summary == nil {
		return Result{}, err
	}
	return Result{Counts: summary.Counts(), Details: summary}, err
}

func newNYTClient(cfg *config.Config) (*nyt.Client, error) {
	return nyt.New(cfg.NYT.APIKey, cfg.NYT.BaseURL,
		nyt.WithHTTPClient(&http.Client{Timeout: seconds(float64(cfg.NYT.TimeoutSeconds))}),
		nyt.WithRequestInterval(seconds(cfg.NYT.RequestIntervalSeconds)),
		nyt.WithMaxRetries(cfg.NYT.MaxRetries),
		nyt.WithRetryWait(seconds(float64(cfg.NYT.RetryWaitSeconds))),
	)
}

func newOpenLibraryClient(cfg *config.Config) (*openlibrary.Client, error) {
	return openlibrary.New(cfg.OpenLibrary.BaseURL, cfg.OpenLibrary.UserAgent,
		openlibrary.WithHTTPClient(&http.Client{Timeout: seconds(float64(cfg.OpenLibrary.TimeoutSeconds))}),
		openlibrary.WithRequestsPerSecond(cfg.OpenLibrary.RequestsPerSecond),
		openlibrary.WithMaxRetries(cfg.OpenLibrary.MaxRetries),
	)
}

func seconds(value float64) time.Duration {
	return time.Duration(value * float64(time.Second))
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
