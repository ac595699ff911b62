package gapengine

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	eng, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return eng
}

func testBusinessContext() *BusinessContext {
	return NewBusinessContext(
		"healthcare",
		"laser hair removal",
		[]string{"laser hair removal"},
		[]string{"alexandrite laser"},
		[]string{"tehran"},
		[]string{"glowclinic"},
		[]string{"free"},
	)
}

func ownDoc() *ExtractedDocument {
	return &ExtractedDocument{
		URL:   "https://glowclinic.example",
		Title: "GlowClinic laser services",
		Body:  "professional laser clinic offering skin treatments and consultations",
	}
}

func competitorDocs() []*ExtractedDocument {
	return []*ExtractedDocument{
		{
			URL:             "https://rival-a.example/laser-hair-removal-price",
			Title:           "Laser hair removal price list",
			MetaDescription: "laser hair removal cost and booking",
			Headings:        []Heading{{Level: 2, Text: "laser hair removal price tehran"}},
			Body:            "laser hair removal price depends on the area. free consultation available. book laser hair removal tehran today",
			PathTokens:      []string{"laser", "hair", "removal", "price"},
		},
		{
			URL:   "https://rival-b.example/blog/how-laser-works",
			Title: "How laser hair removal works",
			Body:  "how laser hair removal works explained. laser hair removal price comparison guide",
		},
	}
}

func TestAnalyzeNilPreconditions(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	if _, err := eng.Analyze(ctx, nil, nil, testBusinessContext()); !errors.Is(err, ErrNilDocument) {
		t.Fatalf("nil own document: err = %v, want ErrNilDocument", err)
	}
	if _, err := eng.Analyze(ctx, ownDoc(), nil, nil); !errors.Is(err, ErrNilBusinessContext) {
		t.Fatalf("nil business context: err = %v, want ErrNilBusinessContext", err)
	}
}

func TestAnalyzeEndToEnd(t *testing.T) {
	eng := newTestEngine(t)
	res, err := eng.Analyze(context.Background(), ownDoc(), competitorDocs(), testBusinessContext())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if res.TotalOpportunities == 0 {
		t.Fatal("expected opportunities from competitor-only phrases")
	}
	if res.TotalOpportunities != len(res.Opportunities) {
		t.Fatalf("TotalOpportunities = %d, len(Opportunities) = %d", res.TotalOpportunities, len(res.Opportunities))
	}

	tierSum := len(res.QuickWins) + len(res.HighPriority) + len(res.Medium) + len(res.LongTerm)
	if tierSum != res.TotalOpportunities {
		t.Fatalf("tier partition sums to %d, want %d", tierSum, res.TotalOpportunities)
	}

	// Every opportunity lands in exactly the tier list its label names.
	tierOf := map[string]PriorityTier{}
	for _, o := range res.Opportunities {
		tierOf[o.Query.QueryText] = o.PriorityTier
	}
	for tier, list := range map[PriorityTier][]KeywordGapOpportunity{
		TierQuickWin:     res.QuickWins,
		TierHighPriority: res.HighPriority,
		TierMedium:       res.Medium,
		TierLongTerm:     res.LongTerm,
	} {
		for _, o := range list {
			if o.PriorityTier != tier {
				t.Fatalf("%q carries tier %q but sits in the %q list", o.Query.QueryText, o.PriorityTier, tier)
			}
			if tierOf[o.Query.QueryText] != tier {
				t.Fatalf("%q appears in more than one tier list", o.Query.QueryText)
			}
		}
	}

	// Output order is opportunity score descending.
	for i := 1; i < len(res.Opportunities); i++ {
		if res.Opportunities[i].OpportunityScore > res.Opportunities[i-1].OpportunityScore {
			t.Fatalf("opportunities not sorted at index %d", i)
		}
	}

	seen := map[string]bool{}
	for _, o := range res.Opportunities {
		q := o.Query
		if seen[q.QueryText] {
			t.Fatalf("duplicate opportunity %q", q.QueryText)
		}
		seen[q.QueryText] = true
		if strings.Contains(" "+q.QueryText+" ", " free ") {
			t.Fatalf("excluded keyword surfaced in %q", q.QueryText)
		}
		if strings.Contains(q.QueryText, "glowclinic") {
			t.Fatalf("branded phrase surfaced in %q", q.QueryText)
		}
		if !q.FoundOnCompetitors {
			t.Fatalf("%q not marked as competitor-found", q.QueryText)
		}
		if q.RelevanceToBusiness < 0 || q.RelevanceToBusiness > 100 {
			t.Fatalf("%q relevance out of range: %v", q.QueryText, q.RelevanceToBusiness)
		}
		if q.IntentConfidence < 0 || q.IntentConfidence > 1 {
			t.Fatalf("%q confidence out of range: %v", q.QueryText, q.IntentConfidence)
		}
	}
	if !seen["laser hair removal price"] {
		t.Fatal("expected gap for the shared competitor phrase")
	}

	trafficSum := 0
	for _, o := range res.Opportunities {
		trafficSum += o.EstimatedMonthlyTraffic
	}
	if res.EstimatedTrafficPotential != trafficSum {
		t.Fatalf("EstimatedTrafficPotential = %d, want %d", res.EstimatedTrafficPotential, trafficSum)
	}
	if res.SummaryMetrics["total_gaps"] != float64(res.TotalOpportunities) {
		t.Fatalf("summary total_gaps = %v, want %d", res.SummaryMetrics["total_gaps"], res.TotalOpportunities)
	}
	if res.SummaryMetrics["competitors_analyzed"] != 2 {
		t.Fatalf("competitors_analyzed = %v, want 2", res.SummaryMetrics["competitors_analyzed"])
	}
	if res.FailureReason != "" {
		t.Fatalf("unexpected failure reason %q", res.FailureReason)
	}
	if len(res.ContentCalendar) == 0 {
		t.Fatal("expected content calendar entries")
	}
}

func TestAnalyzeOwnDocumentUnavailable(t *testing.T) {
	eng := newTestEngine(t)
	res, err := eng.Analyze(context.Background(), &ExtractedDocument{}, competitorDocs(), testBusinessContext())
	if err != nil {
		t.Fatalf("own-document failure must not return an error, got %v", err)
	}
	if res.FailureReason != FailureOwnDocUnavailable {
		t.Fatalf("failure reason = %q, want %q", res.FailureReason, FailureOwnDocUnavailable)
	}
	if res.TotalOpportunities != 0 || len(res.Opportunities) != 0 {
		t.Fatalf("failed analysis must carry zero opportunities, got %d", res.TotalOpportunities)
	}
	found := false
	for _, w := range res.Warnings {
		if w.Code == FailureOwnDocUnavailable && w.Message != "" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a warning carrying the failure detail")
	}
	// Both competitors extracted fine; the summary must not blame them.
	if res.SummaryMetrics["competitors_analyzed"] != 2 {
		t.Fatalf("competitors_analyzed = %v, want 2", res.SummaryMetrics["competitors_analyzed"])
	}
	if res.SummaryMetrics["competitors_failed"] != 0 {
		t.Fatalf("competitors_failed = %v, want 0", res.SummaryMetrics["competitors_failed"])
	}
}

func TestAnalyzeOwnDocumentUnavailableCountsFailedCompetitors(t *testing.T) {
	eng := newTestEngine(t)
	competitors := append(competitorDocs(), nil)
	res, err := eng.Analyze(context.Background(), &ExtractedDocument{}, competitors, testBusinessContext())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.SummaryMetrics["competitors_analyzed"] != 2 {
		t.Fatalf("competitors_analyzed = %v, want 2", res.SummaryMetrics["competitors_analyzed"])
	}
	if res.SummaryMetrics["competitors_failed"] != 1 {
		t.Fatalf("competitors_failed = %v, want 1", res.SummaryMetrics["competitors_failed"])
	}
}

func TestAnalyzeExcludedKeywordWithDiacriticsNeverSurfaces(t *testing.T) {
	eng := newTestEngine(t)
	biz := NewBusinessContext("food", "cafe latte", []string{"latte"}, nil, nil, nil, []string{"café"})
	own := &ExtractedDocument{
		URL:   "https://own.example/menu",
		Title: "our menu",
		Body:  "espresso and pastries on our menu",
	}
	comp := &ExtractedDocument{
		URL:   "https://rival.example/cafe",
		Title: "Best café latte in town",
		Body:  "best café latte in town. order café latte today. our café latte wins prizes.",
	}

	res, err := eng.Analyze(context.Background(), own, []*ExtractedDocument{comp}, biz)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	for _, opp := range res.Opportunities {
		if strings.Contains(" "+opp.Query.QueryText+" ", " cafe ") {
			t.Fatalf("excluded term surfaced in opportunity %q", opp.Query.QueryText)
		}
	}
}

func TestAnalyzeOwnDocumentEmptyButAddressable(t *testing.T) {
	// A URL with no analyzable text is unproductive, not unavailable:
	// the run proceeds on competitor phrases alone.
	eng := newTestEngine(t)
	own := &ExtractedDocument{URL: "https://glowclinic.example"}
	res, err := eng.Analyze(context.Background(), own, competitorDocs(), testBusinessContext())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.FailureReason != "" {
		t.Fatalf("unexpected failure reason %q", res.FailureReason)
	}
	if res.TotalOpportunities == 0 {
		t.Fatal("expected opportunities despite empty own document")
	}
	found := false
	for _, w := range res.Warnings {
		if w.Code == WarnEmptyCandidateSet {
			found = true
		}
	}
	if !found {
		t.Fatal("expected empty-candidate-set warning for the own document")
	}
}

func TestAnalyzeCompetitorFailureTolerated(t *testing.T) {
	eng := newTestEngine(t)
	comps := []*ExtractedDocument{nil, competitorDocs()[0]}
	res, err := eng.Analyze(context.Background(), ownDoc(), comps, testBusinessContext())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.TotalOpportunities == 0 {
		t.Fatal("surviving competitor should still produce gaps")
	}
	var warned bool
	for _, w := range res.Warnings {
		if w.Code == WarnCompetitorUnavailable {
			warned = true
		}
	}
	if !warned {
		t.Fatal("expected competitor-unavailable warning")
	}
	if res.SummaryMetrics["competitors_failed"] != 1 {
		t.Fatalf("competitors_failed = %v, want 1", res.SummaryMetrics["competitors_failed"])
	}
	if res.SummaryMetrics["competitors_analyzed"] != 1 {
		t.Fatalf("competitors_analyzed = %v, want 1", res.SummaryMetrics["competitors_analyzed"])
	}
}

func TestAnalyzeEmptyBusinessContextWarns(t *testing.T) {
	eng := newTestEngine(t)
	biz := NewBusinessContext("", "", nil, nil, nil, nil, nil)
	res, err := eng.Analyze(context.Background(), ownDoc(), competitorDocs(), biz)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	var warned bool
	for _, w := range res.Warnings {
		if w.Code == WarnInvalidBusinessContext {
			warned = true
		}
	}
	if !warned {
		t.Fatal("expected invalid-business-context warning")
	}
	for _, o := range res.Opportunities {
		if o.RelevanceScore != 0 {
			t.Fatalf("empty context should zero relevance, got %v for %q", o.RelevanceScore, o.Query.QueryText)
		}
	}
}

func TestAnalyzeCancelledContext(t *testing.T) {
	eng := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := eng.Analyze(ctx, ownDoc(), competitorDocs(), testBusinessContext())
	if err != nil {
		t.Fatalf("cancellation must degrade, not error: %v", err)
	}
	// The own document may or may not have finished before the cancel
	// fires; either a clean result or an explicit failure reason is
	// acceptable, but never a half-built one.
	if res.FailureReason != "" && res.TotalOpportunities != 0 {
		t.Fatalf("failed analysis carries %d opportunities", res.TotalOpportunities)
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	eng := newTestEngine(t)
	first, err := eng.Analyze(context.Background(), ownDoc(), competitorDocs(), testBusinessContext())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := eng.Analyze(context.Background(), ownDoc(), competitorDocs(), testBusinessContext())
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if again.TotalOpportunities != first.TotalOpportunities {
			t.Fatalf("run %d: %d opportunities, want %d", i, again.TotalOpportunities, first.TotalOpportunities)
		}
		for j := range first.Opportunities {
			a, b := first.Opportunities[j], again.Opportunities[j]
			if a.Query.QueryText != b.Query.QueryText || a.OpportunityScore != b.OpportunityScore || a.PriorityTier != b.PriorityTier {
				t.Fatalf("run %d: opportunity %d diverged: %q/%v vs %q/%v", i, j, a.Query.QueryText, a.OpportunityScore, b.Query.QueryText, b.OpportunityScore)
			}
		}
	}
}

func TestAnalyzeResultJSONRoundTrip(t *testing.T) {
	eng := newTestEngine(t)
	res, err := eng.Analyze(context.Background(), ownDoc(), competitorDocs(), testBusinessContext())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	raw, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded KeywordGapAnalysisResult
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if decoded.TotalOpportunities != res.TotalOpportunities {
		t.Fatalf("TotalOpportunities = %d, want %d", decoded.TotalOpportunities, res.TotalOpportunities)
	}
	if len(decoded.QuickWins) != len(res.QuickWins) ||
		len(decoded.HighPriority) != len(res.HighPriority) ||
		len(decoded.Medium) != len(res.Medium) ||
		len(decoded.LongTerm) != len(res.LongTerm) {
		t.Fatal("tier list lengths changed across the round trip")
	}
	for i := range res.Opportunities {
		a, b := res.Opportunities[i], decoded.Opportunities[i]
		if a.Query.QueryText != b.Query.QueryText {
			t.Fatalf("opportunity %d reordered: %q vs %q", i, a.Query.QueryText, b.Query.QueryText)
		}
		if a.PriorityTier != b.PriorityTier || a.Query.SearchIntent != b.Query.SearchIntent || a.Query.Difficulty != b.Query.Difficulty {
			t.Fatalf("opportunity %d lost enum fields across the round trip", i)
		}
	}
	if decoded.SummaryMetrics["total_gaps"] != res.SummaryMetrics["total_gaps"] {
		t.Fatal("summary metrics changed across the round trip")
	}
}
