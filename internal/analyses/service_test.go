package analyses

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"keywordgap-backend/internal/fetch"
	"keywordgap-backend/internal/gapengine"
	"keywordgap-backend/internal/shared/storage/artifact"
)

const (
	testOwnURL    = "https://glowclinic.example/services"
	testRivalAURL = "https://rival-a.example/laser-hair-removal-price"
	testRivalBURL = "https://rival-b.example/blog/how-laser-works"
)

type stubFetcher struct {
	pages map[string]*fetch.Page
	errs  map[string]error
}

func (f *stubFetcher) Fetch(ctx context.Context, rawURL string) (*fetch.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := f.errs[rawURL]; ok {
		return nil, err
	}
	page, ok := f.pages[rawURL]
	if !ok {
		return nil, fmt.Errorf("fetch %s: no stub page", rawURL)
	}
	return page, nil
}

func (f *stubFetcher) FetchAll(ctx context.Context, urls []string) []fetch.Result {
	results := make([]fetch.Result, 0, len(urls))
	for _, u := range urls {
		page, err := f.Fetch(ctx, u)
		results = append(results, fetch.Result{URL: u, Page: page, Err: err})
	}
	return results
}

func htmlPage(rawURL, title, meta, heading string, paragraphs []string) *fetch.Page {
	var b strings.Builder
	b.WriteString("<html><head><title>" + title + "</title>")
	if meta != "" {
		b.WriteString(`<meta name="description" content="` + meta + `">`)
	}
	b.WriteString("</head><body>")
	if heading != "" {
		b.WriteString("<h2>" + heading + "</h2>")
	}
	for _, p := range paragraphs {
		b.WriteString("<p>" + p + "</p>")
	}
	b.WriteString("</body></html>")
	return &fetch.Page{
		RequestedURL: rawURL,
		FinalURL:     rawURL,
		ContentType:  "text/html; charset=utf-8",
		Body:         []byte(b.String()),
	}
}

func testFetcher() *stubFetcher {
	return &stubFetcher{
		pages: map[string]*fetch.Page{
			testOwnURL: htmlPage(testOwnURL, "GlowClinic laser services", "", "",
				[]string{"professional laser clinic offering skin treatments and consultations"}),
			testRivalAURL: htmlPage(testRivalAURL, "Laser hair removal price list", "laser hair removal cost and booking",
				"laser hair removal price tehran",
				[]string{"laser hair removal price depends on the area. free consultation available. book laser hair removal tehran today"}),
			testRivalBURL: htmlPage(testRivalBURL, "How laser hair removal works", "", "",
				[]string{"how laser hair removal works explained. laser hair removal price comparison guide"}),
		},
		errs: map[string]error{},
	}
}

func serviceBusinessContext() *gapengine.BusinessContext {
	return gapengine.NewBusinessContext(
		"healthcare",
		"laser hair removal",
		[]string{"laser hair removal"},
		[]string{"alexandrite laser"},
		[]string{"tehran"},
		[]string{"glowclinic"},
		[]string{"free"},
	)
}

func newTestService(t *testing.T) (*Service, *MemoryRepo, *stubFetcher) {
	t.Helper()
	eng, err := gapengine.New(gapengine.DefaultConfig())
	if err != nil {
		t.Fatalf("gapengine.New: %v", err)
	}
	repo := NewMemoryRepo()
	fetcher := testFetcher()
	svc := &Service{
		Repo:           repo,
		Fetcher:        fetcher,
		Engine:         eng,
		Artifacts:      artifact.New(t.TempDir()),
		MaxCompetitors: 5,
	}
	return svc, repo, fetcher
}

func queueAnalysis(t *testing.T, repo *MemoryRepo, competitors []string) Analysis {
	t.Helper()
	analysis := Analysis{
		ID:              uuid.NewString(),
		Status:          StatusQueued,
		OwnURL:          testOwnURL,
		CompetitorURLs:  competitors,
		BusinessContext: serviceBusinessContext(),
		CreatedAt:       time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), analysis); err != nil {
		t.Fatalf("create analysis: %v", err)
	}
	return analysis
}

func TestCreateValidatesInput(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	biz := serviceBusinessContext()

	cases := []struct {
		name        string
		ownURL      string
		competitors []string
		biz         *gapengine.BusinessContext
	}{
		{"missing own url", "", []string{testRivalAURL}, biz},
		{"unsupported scheme", "ftp://example.com", []string{testRivalAURL}, biz},
		{"no competitors", testOwnURL, nil, biz},
		{"blank competitors", testOwnURL, []string{"  ", ""}, biz},
		{"bad competitor url", testOwnURL, []string{"not a url"}, biz},
		{"missing business context", testOwnURL, []string{testRivalAURL}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tc.ownURL, tc.competitors, tc.biz); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestCreateRejectsTooManyCompetitors(t *testing.T) {
	svc, _, _ := newTestService(t)
	svc.MaxCompetitors = 2

	urls := []string{testRivalAURL, testRivalBURL, "https://rival-c.example/pricing"}
	_, err := svc.Create(context.Background(), testOwnURL, urls, serviceBusinessContext())
	if !errors.Is(err, ErrTooManyCompetitors) {
		t.Fatalf("expected ErrTooManyCompetitors, got %v", err)
	}
}

func TestCreateQueuesAndCompletes(t *testing.T) {
	svc, repo, _ := newTestService(t)

	analysis, err := svc.Create(context.Background(), testOwnURL, []string{testRivalAURL, testRivalBURL}, serviceBusinessContext())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if analysis.Status != StatusQueued {
		t.Fatalf("expected queued status, got %q", analysis.Status)
	}

	deadline := time.Now().Add(5 * time.Second)
	var got Analysis
	for {
		got, err = repo.GetByID(context.Background(), analysis.ID)
		if err != nil {
			t.Fatalf("get analysis: %v", err)
		}
		if got.Status == StatusCompleted || got.Status == StatusFailed {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("analysis stuck in status %q", got.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if got.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q (error %v)", got.Status, got.ErrorMessage)
	}
	if got.TotalOpportunities == 0 {
		t.Fatalf("expected opportunities from competitor-only phrases")
	}
}

func TestCompleteAsyncCompletesAnalysis(t *testing.T) {
	svc, repo, _ := newTestService(t)
	analysis := queueAnalysis(t, repo, []string{testRivalAURL, testRivalBURL})

	svc.completeAsync(context.Background(), analysis.ID)

	got, err := repo.GetByID(context.Background(), analysis.ID)
	if err != nil {
		t.Fatalf("get analysis: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q (error %v)", got.Status, got.ErrorMessage)
	}
	if got.Result == nil {
		t.Fatalf("expected result payload")
	}
	if _, ok := got.Result["opportunities"]; !ok {
		t.Fatalf("expected opportunities key in result, got keys %v", resultKeys(got.Result))
	}
	if got.TotalOpportunities == 0 {
		t.Fatalf("expected at least one opportunity")
	}
	if got.FailureReason != "" {
		t.Fatalf("unexpected failure reason %q", got.FailureReason)
	}
	if !strings.Contains(got.ArtifactPath, analysis.ID) {
		t.Fatalf("expected artifact path for analysis, got %q", got.ArtifactPath)
	}
	if got.StartedAt == nil || got.CompletedAt == nil {
		t.Fatalf("expected started/completed timestamps, got %v / %v", got.StartedAt, got.CompletedAt)
	}
}

func TestCompleteAsyncOwnFetchFailure(t *testing.T) {
	svc, repo, fetcher := newTestService(t)
	fetcher.errs[testOwnURL] = &fetch.StatusError{URL: testOwnURL, StatusCode: 503}
	analysis := queueAnalysis(t, repo, []string{testRivalAURL})

	svc.completeAsync(context.Background(), analysis.ID)

	got, err := repo.GetByID(context.Background(), analysis.ID)
	if err != nil {
		t.Fatalf("get analysis: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Fatalf("expected graceful completion, got %q", got.Status)
	}
	if got.FailureReason != gapengine.FailureOwnDocUnavailable {
		t.Fatalf("expected failure reason %q, got %q", gapengine.FailureOwnDocUnavailable, got.FailureReason)
	}
	if got.TotalOpportunities != 0 {
		t.Fatalf("expected empty result, got %d opportunities", got.TotalOpportunities)
	}
}

func TestCompleteAsyncCompetitorFailureWarns(t *testing.T) {
	svc, repo, fetcher := newTestService(t)
	fetcher.errs[testRivalAURL] = errors.New("connection refused")
	analysis := queueAnalysis(t, repo, []string{testRivalAURL, testRivalBURL})

	svc.completeAsync(context.Background(), analysis.ID)

	got, err := repo.GetByID(context.Background(), analysis.ID)
	if err != nil {
		t.Fatalf("get analysis: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q (error %v)", got.Status, got.ErrorMessage)
	}
	warnings, _ := got.Result["warnings"].([]any)
	found := false
	for _, raw := range warnings {
		if w, ok := raw.(map[string]any); ok && w["code"] == gapengine.WarnCompetitorUnavailable {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected %s warning, got %v", gapengine.WarnCompetitorUnavailable, warnings)
	}
}

func TestCompleteAsyncMissingDependenciesFails(t *testing.T) {
	svc, repo, _ := newTestService(t)
	svc.Fetcher = nil
	analysis := queueAnalysis(t, repo, []string{testRivalAURL})

	svc.completeAsync(context.Background(), analysis.ID)

	got, err := repo.GetByID(context.Background(), analysis.ID)
	if err != nil {
		t.Fatalf("get analysis: %v", err)
	}
	if got.Status != StatusFailed {
		t.Fatalf("expected failed, got %q", got.Status)
	}
	if got.ErrorCode != ErrorCodeInternal {
		t.Fatalf("expected %s, got %q", ErrorCodeInternal, got.ErrorCode)
	}
	if got.ErrorMessage == nil || *got.ErrorMessage == "" {
		t.Fatalf("expected error message")
	}
	if got.CompletedAt == nil {
		t.Fatalf("expected completed timestamp on failure")
	}
}

func TestClassifyFailure(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ErrorCodeInternal},
		{"status error", &fetch.StatusError{URL: testOwnURL, StatusCode: 500}, ErrorCodeFetch},
		{"invalid url", fmt.Errorf("own page: %w", fetch.ErrInvalidURL), ErrorCodeFetch},
		{"non html", fetch.ErrNonHTML, ErrorCodeFetch},
		{"deadline", context.DeadlineExceeded, ErrorCodeFetch},
		{"validation", errors.New("validation: own url: url is required"), ErrorCodeValidation},
		{"result update", errors.New("set analysis result failed: boom"), ErrorCodeStorage},
		{"set processing", errors.New("set processing failed: boom"), ErrorCodeStorage},
		{"unknown", errors.New("boom"), ErrorCodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyFailure(tc.err); got != tc.want {
				t.Fatalf("classifyFailure(%v) = %q, want %q", tc.err, got, tc.want)
			}
		})
	}
}

func TestSanitizeError(t *testing.T) {
	err := errors.New("line one\nline two\r\n  ")
	if got := sanitizeError(err); strings.ContainsAny(got, "\n\r") {
		t.Fatalf("expected flattened message, got %q", got)
	}
	long := errors.New(strings.Repeat("x", 600))
	if got := sanitizeError(long); len(got) != 500 {
		t.Fatalf("expected truncation to 500, got %d", len(got))
	}
}

func resultKeys(result map[string]any) []string {
	keys := make([]string, 0, len(result))
	for k := range result {
		keys = append(keys, k)
	}
	return keys
}
