package jobrun_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"nytbot/internal/jobrun"
	"nytbot/internal/records"
	"nytbot/internal/services"
	"nytbot/internal/testsupport"
)

const weeklyOverview = `{"results":{"published_date":"2024-01-07","lists":[
{"list_name_encoded":"hardcover-fiction","updated":"WEEKLY","books":[
{"rank":2,"weeks_on_list":3,"primary_isbn13":"9780000000002","title":"Second","author":"B","book_review_link":""},
{"rank":1,"weeks_on_list":1,"primary_isbn13":"9780000000001","title":"First","author":"A","book_review_link":"https://www.nytimes.com/review-first"}
]}]}}`

func TestTagBodyTagsWorks(t *testing.T) {
	ol := testsupport.NewFakeOpenLibrary(t, "access", "secret")
	ol.AddWork("9780000000001", "/works/OL1W")
	ol.AddWork("9780000000002", "/works/OL2W", "new york times bestseller")
	cfg := testsupport.NewConfig(t,
		testsupport.WithOpenLibrary(ol.URL),
		testsupport.WithOpenLibraryCredentials("access", "secret"),
	)
	testsupport.WriteFile(t, cfg.Paths.BestSellersFile, `[
{"isbn":"9780000000001","title":"First","author":"A","list_name":"hardcover-fiction","rank":1,"published_date":"2024-01-07"},
{"isbn":"9780000000002","title":"Second","author":"B","list_name":"hardcover-fiction","rank":2,"published_date":"2024-01-07"},
{"isbn":"9780000000003","title":"Third","author":"C","list_name":"hardcover-fiction","rank":3,"published_date":"2024-01-07"}
]`)

	report, err := execute(t, cfg, jobrun.Invocation{Job: jobrun.JobTag, InputFile: cfg.Paths.BestSellersFile},
		jobrun.TagBody(cfg, jobrun.ReconcileOptions{}))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	wantCounts := map[string]int{
		"total":             3,
		"tagged":            1,
		"already_tagged":    1,
		"not_found":         1,
		"failed":            0,
		"imports_requested": 0,
	}
	if diff := cmp.Diff(wantCounts, report.Counts); diff != "" {
		t.Fatalf("counts mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"New York Times bestseller"}, ol.Subjects("/works/OL1W")); diff != "" {
		t.Fatalf("subjects mismatch (-want +got):\n%s", diff)
	}
	if saves := ol.Saves(); len(saves) != 1 || saves[0].Key != "/works/OL1W" {
		t.Fatalf("expected one save of OL1W, got %+v", saves)
	}

	store := testsupport.MustOpenLedger(t, cfg)
	outcomes, err := store.Outcomes(context.Background(), report.RunID)
	if err != nil {
		t.Fatalf("Outcomes: %v", err)
	}
	var states []string
	for _, o := range outcomes {
		states = append(states, o.ISBN+"="+o.State)
	}
	want := []string{"9780000000001=tagged", "9780000000002=already_tagged", "9780000000003=not_found"}
	if diff := cmp.Diff(want, states); diff != "" {
		t.Fatalf("ledger outcomes mismatch (-want +got):\n%s", diff)
	}
}

func TestTagBodyDryRunNeedsNoCredentials(t *testing.T) {
	ol := testsupport.NewFakeOpenLibrary(t, "access", "secret")
	ol.AddWork("9780000000001", "/works/OL1W")
	cfg := testsupport.NewConfig(t, testsupport.WithOpenLibrary(ol.URL))
	testsupport.WriteFile(t, cfg.Paths.BestSellersFile,
		`[{"isbn":"9780000000001","list_name":"hardcover-fiction","rank":1,"published_date":"2024-01-07"}]`)

	report, err := execute(t, cfg, jobrun.Invocation{Job: jobrun.JobTag, DryRun: true},
		jobrun.TagBody(cfg, jobrun.ReconcileOptions{DryRun: true}))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if report.Counts["tagged"] != 1 {
		t.Fatalf("expected dry-run tag to be reported, got %v", report.Counts)
	}
	if saves := ol.Saves(); len(saves) != 0 {
		t.Fatalf("dry run issued writes: %+v", saves)
	}
	if subjects := ol.Subjects("/works/OL1W"); len(subjects) != 0 {
		t.Fatalf("dry run changed subjects: %v", subjects)
	}
}

func TestTagBodyRequiresCredentialsForWrites(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteFile(t, cfg.Paths.BestSellersFile, `[]`)

	_, err := execute(t, cfg, jobrun.Invocation{Job: jobrun.JobTag}, jobrun.TagBody(cfg, jobrun.ReconcileOptions{}))
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if got := jobrun.ExitCode(err); got != 2 {
		t.Fatalf("ExitCode = %d, want 2", got)
	}
}

func TestTagBodyLoginFailureAborts(t *testing.T) {
	ol := testsupport.NewFakeOpenLibrary(t, "access", "secret")
	cfg := testsupport.NewConfig(t,
		testsupport.WithOpenLibrary(ol.URL),
		testsupport.WithOpenLibraryCredentials("access", "wrong"),
	)
	testsupport.WriteFile(t, cfg.Paths.BestSellersFile, `[]`)

	_, err := execute(t, cfg, jobrun.Invocation{Job: jobrun.JobTag}, jobrun.TagBody(cfg, jobrun.ReconcileOptions{}))
	if !errors.Is(err, services.ErrAuthentication) {
		t.Fatalf("expected authentication error, got %v", err)
	}
}

func TestLinkBodyAddsReviewLinks(t *testing.T) {
	ol := testsupport.NewFakeOpenLibrary(t, "access", "secret")
	ol.AddWork("9780000000001", "/works/OL1W", "New York Times bestseller")
	cfg := testsupport.NewConfig(t,
		testsupport.WithOpenLibrary(ol.URL),
		testsupport.WithOpenLibraryCredentials("access", "secret"),
	)
	testsupport.WriteFile(t, cfg.Paths.ReviewsFile,
		`[["https://www.nytimes.com/review-first","9780000000001"]]`)

	report, err := execute(t, cfg, jobrun.Invocation{Job: jobrun.JobLink}, jobrun.LinkBody(cfg, jobrun.ReconcileOptions{}))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if report.Counts["tagged"] != 1 {
		t.Fatalf("unexpected counts: %v", report.Counts)
	}
	if diff := cmp.Diff([]string{"https://www.nytimes.com/review-first"}, ol.LinkURLs("/works/OL1W")); diff != "" {
		t.Fatalf("links mismatch (-want +got):\n%s", diff)
	}
}

func TestCollectBodyWritesArtifacts(t *testing.T) {
	fake := testsupport.NewFakeNYT(t, "test")
	fake.SetOverview("current", weeklyOverview)
	cfg := testsupport.NewConfig(t, testsupport.WithNYT(fake.URL))

	report, err := execute(t, cfg, jobrun.Invocation{Job: jobrun.JobCollect}, jobrun.CollectBody(cfg, jobrun.CollectOptions{}))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if report.Counts["best_sellers"] != 2 || report.Counts["reviews"] != 1 {
		t.Fatalf("unexpected counts: %v", report.Counts)
	}

	bestSellers, err := records.ReadBestSellers(cfg.Paths.BestSellersFile)
	if err != nil {
		t.Fatalf("ReadBestSellers: %v", err)
	}
	var isbns []string
	for _, b := range bestSellers {
		isbns = append(isbns, b.ISBN)
	}
	if diff := cmp.Diff([]string{"9780000000001", "9780000000002"}, isbns); diff != "" {
		t.Fatalf("artifact order mismatch (-want +got):\n%s", diff)
	}
	reviews, err := records.ReadReviews(cfg.Paths.ReviewsFile)
	if err != nil {
		t.Fatalf("ReadReviews: %v", err)
	}
	if len(reviews) != 1 || reviews[0].ReviewURL != "https://www.nytimes.com/review-first" {
		t.Fatalf("unexpected reviews: %+v", reviews)
	}
}

func TestCollectBodyNewEntriesOnly(t *testing.T) {
	fake := testsupport.NewFakeNYT(t, "test")
	fake.SetOverview("current", weeklyOverview)
	cfg := testsupport.NewConfig(t, testsupport.WithNYT(fake.URL))

	report, err := execute(t, cfg, jobrun.Invocation{Job: jobrun.JobCollect},
		jobrun.CollectBody(cfg, jobrun.CollectOptions{NewEntriesOnly: true}))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if report.Counts["best_sellers"] != 1 {
		t.Fatalf("expected only the first-week entry, got %v", report.Counts)
	}
}

func TestCollectBodyRejectsBadKey(t *testing.T) {
	fake := testsupport.NewFakeNYT(t, "other")
	fake.SetOverview("current", weeklyOverview)
	cfg := testsupport.NewConfig(t, testsupport.WithNYT(fake.URL))

	_, err := execute(t, cfg, jobrun.Invocation{Job: jobrun.JobCollect}, jobrun.CollectBody(cfg, jobrun.CollectOptions{}))
	if !errors.Is(err, services.ErrAuthentication) {
		t.Fatalf("expected authentication error, got %v", err)
	}
}

func TestPipelineBodyRunsAllStages(t *testing.T) {
	fake := testsupport.NewFakeNYT(t, "test")
	fake.SetOverview("current", weeklyOverview)
	ol := testsupport.NewFakeOpenLibrary(t, "access", "secret")
	ol.AddWork("9780000000001", "/works/OL1W")
	cfg := testsupport.NewConfig(t,
		testsupport.WithNYT(fake.URL),
		testsupport.WithOpenLibrary(ol.URL),
		testsupport.WithOpenLibraryCredentials("access", "secret"),
	)

	report, err := execute(t, cfg, jobrun.Invocation{Job: jobrun.JobPipeline}, jobrun.PipelineBody(cfg, false))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	checks := map[string]int{
		"collect.best_sellers": 2,
		"tag.tagged":           1,
		"tag.not_found":        1,
		"link.tagged":          1,
	}
	for key, want := range checks {
		if got := report.Counts[key]; got != want {
			t.Errorf("%s = %d, want %d (counts %v)", key, got, want, report.Counts)
		}
	}
	if diff := cmp.Diff([]string{"New York Times bestseller"}, ol.Subjects("/works/OL1W")); diff != "" {
		t.Fatalf("subjects mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"https://www.nytimes.com/review-first"}, ol.LinkURLs("/works/OL1W")); diff != "" {
		t.Fatalf("links mismatch (-want +got):\n%s", diff)
	}
}
