package gapengine

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// SearchIntent classifies what a searcher wants from a phrase.
type SearchIntent string

const (
	IntentInformational SearchIntent = "informational"
	IntentTransactional SearchIntent = "transactional"
	IntentLocal         SearchIntent = "local"
	IntentComparison    SearchIntent = "comparison"
	IntentNavigational  SearchIntent = "navigational"
)

// intentTiePriority breaks score ties between intents. Higher wins.
func intentTiePriority(intent SearchIntent) int {
	switch intent {
	case IntentTransactional:
		return 5
	case IntentLocal:
		return 4
	case IntentComparison:
		return 3
	case IntentNavigational:
		return 2
	default:
		return 1
	}
}

// Difficulty estimates how hard ranking for a phrase would be.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyExpert Difficulty = "expert"
)

// ContentType is the page type recommended for targeting a phrase.
type ContentType string

const (
	ContentArticle ContentType = "article"
	ContentService ContentType = "service"
	ContentProduct ContentType = "product"
	ContentLocal   ContentType = "local"
	ContentFAQ     ContentType = "faq"
)

// SERPFeature is a predicted search-result feature a phrase could earn.
type SERPFeature string

const (
	SERPFeatureFAQ           SERPFeature = "faq"
	SERPFeatureHowTo         SERPFeature = "howto"
	SERPFeatureVideo         SERPFeature = "video"
	SERPFeatureLocalPack     SERPFeature = "local_pack"
	SERPFeaturePeopleAlsoAsk SERPFeature = "people_also_ask"
)

// SourceField names the part of a document a phrase was extracted from.
type SourceField string

const (
	SourceTitle   SourceField = "title"
	SourceMeta    SourceField = "meta"
	SourceHeading SourceField = "heading"
	SourceBody    SourceField = "body"
	SourceURL     SourceField = "url"
)

// PriorityTier is one of four mutually exclusive opportunity buckets.
type PriorityTier string

const (
	TierQuickWin     PriorityTier = "quick_win"
	TierHighPriority PriorityTier = "high_priority"
	TierMedium       PriorityTier = "medium"
	TierLongTerm     PriorityTier = "long_term"
)

// BusinessContext describes the business the analysis scores relevance
// against. Construct it with NewBusinessContext; fields are normalized
// (trimmed, lower-cased, empties dropped) and must not be mutated after.
type BusinessContext struct {
	Industry         string   `json:"industry"`
	Niche            string   `json:"niche"`
	Services         []string `json:"services"`
	Products         []string `json:"products"`
	TargetLocations  []string `json:"target_locations"`
	BrandKeywords    []string `json:"brand_keywords"`
	ExcludedKeywords []string `json:"excluded_keywords"`
}

// NewBusinessContext normalizes all free-text fields and drops empty entries.
func NewBusinessContext(industry, niche string, services, products, locations, brands, excluded []string) *BusinessContext {
	return &BusinessContext{
		Industry:         normalizeTerm(industry),
		Niche:            normalizeTerm(niche),
		Services:         normalizeTerms(services),
		Products:         normalizeTerms(products),
		TargetLocations:  normalizeTerms(locations),
		BrandKeywords:    normalizeSet(brands),
		ExcludedKeywords: normalizeSet(excluded),
	}
}

// IsEmpty reports whether the context carries no relevance signal at all.
// Analysis still runs on an empty context, but relevance scores will be
// systematically near zero.
func (b *BusinessContext) IsEmpty() bool {
	return b.Niche == "" && len(b.Services) == 0 && len(b.Products) == 0
}

func normalizeTerm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizeTerms(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if t := normalizeTerm(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeSet behaves like normalizeTerms but also dedupes and sorts,
// since the field is a set rather than an ordered list.
func normalizeSet(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		t := normalizeTerm(s)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Heading is one heading element in document order.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// ExtractedDocument is the plain structural view of one fetched page,
// supplied by the extraction collaborator. The engine treats it as
// read-only input.
type ExtractedDocument struct {
	URL             string    `json:"url"`
	Title           string    `json:"title"`
	MetaDescription string    `json:"meta_description"`
	Headings        []Heading `json:"headings"`
	Body            string    `json:"body"`
	PathTokens      []string  `json:"path_tokens"`
}

// IsEmpty reports whether the document has no analyzable text.
func (d *ExtractedDocument) IsEmpty() bool {
	if d == nil {
		return true
	}
	if strings.TrimSpace(d.Title) != "" || strings.TrimSpace(d.MetaDescription) != "" || strings.TrimSpace(d.Body) != "" {
		return false
	}
	for _, h := range d.Headings {
		if strings.TrimSpace(h.Text) != "" {
			return false
		}
	}
	return len(d.PathTokens) > 0
}

// SearchQuery is a scored candidate phrase: a demand unit, not a bare
// string. Values are fully populated during one analysis run and never
// mutated after scoring completes.
//
// SearchVolumeEstimate and CompetitorAvgPosition are heuristic proxies
// derived from local frequency and discovery order only. They are not
// measured search-engine data.
type SearchQuery struct {
	QueryText              string        `json:"query_text"`
	NgramSize              int           `json:"ngram_size"`
	SearchIntent           SearchIntent  `json:"search_intent"`
	IntentConfidence       float64       `json:"intent_confidence"`
	SearchVolumeEstimate   int           `json:"search_volume_estimate"`
	Difficulty             Difficulty    `json:"difficulty"`
	RelevanceToBusiness    float64       `json:"relevance_to_business"`
	TFScore                float64       `json:"tf_score"`
	IDFScore               float64       `json:"idf_score"`
	TFIDFScore             float64       `json:"tfidf_score"`
	SERPFeatures           []SERPFeature `json:"serp_features"`
	RecommendedContentType ContentType   `json:"recommended_content_type"`
	IsLongTail             bool          `json:"is_long_tail"`
	FoundOnCompetitors     bool          `json:"found_on_competitors"`
	CompetitorAvgPosition  float64       `json:"competitor_avg_position"`
	CTRPotential           float64       `json:"ctr_potential"`
	EstimatedTrafficValue  float64       `json:"estimated_traffic_value"`
	IsBranded              bool          `json:"is_branded"`
	Sources                []SourceField `json:"sources"`
}

// validate enforces numeric ranges at the type boundary.
func (q *SearchQuery) validate() error {
	if strings.TrimSpace(q.QueryText) == "" {
		return fmt.Errorf("search query: empty query text")
	}
	if q.NgramSize < 1 || q.NgramSize > maxNgramSize {
		return fmt.Errorf("search query %q: ngram size %d out of range [1,%d]", q.QueryText, q.NgramSize, maxNgramSize)
	}
	if q.RelevanceToBusiness < 0 || q.RelevanceToBusiness > 100 {
		return fmt.Errorf("search query %q: relevance %.2f out of range [0,100]", q.QueryText, q.RelevanceToBusiness)
	}
	if q.IntentConfidence < 0 || q.IntentConfidence > 1 {
		return fmt.Errorf("search query %q: intent confidence %.2f out of range [0,1]", q.QueryText, q.IntentConfidence)
	}
	if q.SearchVolumeEstimate < 0 {
		return fmt.Errorf("search query %q: negative volume estimate", q.QueryText)
	}
	if q.IsLongTail != (q.NgramSize >= longTailMinSize) {
		return fmt.Errorf("search query %q: long-tail flag inconsistent with ngram size %d", q.QueryText, q.NgramSize)
	}
	return nil
}

// CompetitorPresence records how one competitor covers a phrase.
type CompetitorPresence struct {
	URL        string  `json:"url"`
	Position   float64 `json:"position"`
	TFIDFScore float64 `json:"tfidf_score"`
	Frequency  int     `json:"frequency"`
}

// KeywordGapOpportunity wraps a SearchQuery with multi-dimensional scoring
// and a single priority tier. Tier assignment is a pure function of the
// five component scores.
type KeywordGapOpportunity struct {
	Query                   SearchQuery                   `json:"query"`
	VolumeScore             float64                       `json:"volume_score"`
	RelevanceScore          float64                       `json:"relevance_score"`
	DifficultyScore         float64                       `json:"difficulty_score"`
	IntentMatchScore        float64                       `json:"intent_match_score"`
	CompetitionScore        float64                       `json:"competition_score"`
	OpportunityScore        float64                       `json:"opportunity_score"`
	PriorityTier            PriorityTier                  `json:"priority_tier"`
	PriorityReasoning       string                        `json:"priority_reasoning"`
	EffortEstimateHours     float64                       `json:"effort_estimate_hours"`
	EstimatedMonthlyTraffic int                           `json:"estimated_monthly_traffic"`
	RecommendedActions      []string                      `json:"recommended_actions"`
	ContentTypeNeeded       ContentType                   `json:"content_type_needed"`
	StrategicImportance     string                        `json:"strategic_importance"`
	CompetitorAnalysis      map[string]CompetitorPresence `json:"competitor_analysis"`
}

// StrategicRecommendation is one templated, deterministic suggestion over
// the whole opportunity set.
type StrategicRecommendation struct {
	Title       string   `json:"title"`
	Priority    string   `json:"priority"`
	Description string   `json:"description"`
	Action      string   `json:"action"`
	Keywords    []string `json:"keywords"`
}

// CalendarSuggestion sequences one opportunity into a simple content plan.
type CalendarSuggestion struct {
	QueryText     string       `json:"query_text"`
	SequenceIndex int          `json:"sequence_index"`
	Week          int          `json:"week"`
	PriorityTier  PriorityTier `json:"priority_tier"`
	ContentType   ContentType  `json:"content_type"`
	EffortHours   float64      `json:"effort_hours"`
}

// Warning records a non-fatal degradation during analysis.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Warning and failure codes surfaced by the engine.
const (
	WarnCompetitorUnavailable  = "competitor_unavailable"
	WarnEmptyCandidateSet      = "empty_candidate_set"
	WarnInvalidBusinessContext = "invalid_business_context"
	FailureOwnDocUnavailable   = "own_document_unavailable"
)

// KeywordGapAnalysisResult is the complete output of one engine
// invocation. It is created once at the end of the run and must not be
// mutated by consumers.
//
// The intent partitions are a secondary, non-exclusive view over the same
// opportunities; only the four priority tiers are mutually exclusive.
type KeywordGapAnalysisResult struct {
	TotalOpportunities        int                       `json:"total_opportunities"`
	EstimatedTrafficPotential int                       `json:"estimated_traffic_potential"`
	Opportunities             []KeywordGapOpportunity   `json:"opportunities"`
	QuickWins                 []KeywordGapOpportunity   `json:"quick_wins"`
	HighPriority              []KeywordGapOpportunity   `json:"high_priority"`
	Medium                    []KeywordGapOpportunity   `json:"medium"`
	LongTerm                  []KeywordGapOpportunity   `json:"long_term"`
	InformationalGaps         []KeywordGapOpportunity   `json:"informational_gaps"`
	TransactionalGaps         []KeywordGapOpportunity   `json:"transactional_gaps"`
	LocalGaps                 []KeywordGapOpportunity   `json:"local_gaps"`
	ComparisonGaps            []KeywordGapOpportunity   `json:"comparison_gaps"`
	NavigationalGaps          []KeywordGapOpportunity   `json:"navigational_gaps"`
	StrategicRecommendations  []StrategicRecommendation `json:"strategic_recommendations"`
	ContentCalendar           []CalendarSuggestion      `json:"content_calendar_suggestions"`
	SummaryMetrics            map[string]float64        `json:"summary_metrics"`
	Warnings                  []Warning                 `json:"warnings,omitempty"`
	FailureReason             string                    `json:"failure_reason,omitempty"`
	AnalysisTimestamp         time.Time                 `json:"analysis_timestamp"`
	BusinessContext           *BusinessContext          `json:"business_context"`
}
