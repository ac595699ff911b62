// Package gapengine implements the keyword gap opportunity engine: given
// one own-site document and N competitor documents, it extracts candidate
// search phrases, classifies their intent, scores business relevance,
// detects phrases competitors cover that the own site does not, and ranks
// the gaps into a prioritized opportunity set.
//
// All volume, difficulty and position figures are heuristic proxies
// derived from local frequency and discovery order; nothing here measures
// real search-engine data.
package gapengine

import (
	"context"
	"fmt"
	"time"
)

// Engine runs one synchronous analysis per invocation. It holds only
// immutable configuration and is safe for concurrent use.
type Engine struct {
	cfg       Config
	tokenizer *Tokenizer
	intents   *intentClassifier
}

// New validates the configuration and compiles the signal tables.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	intents, err := newIntentClassifier(&cfg)
	if err != nil {
		return nil, fmt.Errorf("gapengine: compile intent signals: %w", err)
	}
	return &Engine{
		cfg:       cfg,
		tokenizer: NewTokenizer(&cfg),
		intents:   intents,
	}, nil
}

// extractOutcome is the fan-out result for one document.
type extractOutcome struct {
	idx        int
	extraction *docExtraction
	docCtx     docContext
	failed     bool
	reason     string
}

// Analyze performs one full gap analysis. Per-document extraction fans
// out to independent goroutines; gap detection joins only after every
// document has resolved to a result or a recorded failure. A failed
// competitor is skipped with a warning; a failed own document aborts the
// analysis with zero opportunities and an explicit failure reason. The
// only returned errors are precondition violations (nil inputs) and
// internal scoring faults.
func (e *Engine) Analyze(ctx context.Context, own *ExtractedDocument, competitors []*ExtractedDocument, biz *BusinessContext) (*KeywordGapAnalysisResult, error) {
	if own == nil {
		return nil, ErrNilDocument
	}
	if biz == nil {
		return nil, ErrNilBusinessContext
	}

	start := time.Now()
	var warnings []Warning
	if biz.IsEmpty() {
		warnings = append(warnings, Warning{
			Code:    WarnInvalidBusinessContext,
			Message: "niche, services and products are all empty; relevance scores will be near zero",
		})
	}

	ext := newExtractor(e.tokenizer, biz)
	docs := append([]*ExtractedDocument{own}, competitors...)
	outcomes := e.fanOut(ctx, ext, docs)

	ownOutcome := outcomes[0]
	if ownOutcome.failed {
		warnings = append(warnings, Warning{Code: FailureOwnDocUnavailable, Message: ownOutcome.reason})
		failedCompetitors := 0
		for _, out := range outcomes[1:] {
			if out.failed {
				failedCompetitors++
			}
		}
		result := e.emptyResult(biz, warnings, len(competitors), failedCompetitors)
		result.FailureReason = FailureOwnDocUnavailable
		result.SummaryMetrics["processing_ms"] = float64(time.Since(start).Microseconds()) / 1000
		return result, nil
	}
	if ownOutcome.extraction.Set.len() == 0 {
		warnings = append(warnings, Warning{
			Code:    WarnEmptyCandidateSet,
			Message: fmt.Sprintf("document %q yielded no candidate phrases", own.URL),
		})
	}

	var (
		compExtractions []*docExtraction
		compContexts    []docContext
		corpusSets      = []*candidateSet{ownOutcome.extraction.Set}
		failedCount     int
	)
	for _, out := range outcomes[1:] {
		if out.failed {
			failedCount++
			warnings = append(warnings, Warning{Code: WarnCompetitorUnavailable, Message: out.reason})
			continue
		}
		if out.extraction.Set.len() == 0 {
			warnings = append(warnings, Warning{
				Code:    WarnEmptyCandidateSet,
				Message: fmt.Sprintf("document %q yielded no candidate phrases", out.extraction.URL),
			})
		}
		compExtractions = append(compExtractions, out.extraction)
		compContexts = append(compContexts, out.docCtx)
		corpusSets = append(corpusSets, out.extraction.Set)
	}

	// Join point: every document has resolved, compare sets.
	corpus := buildCorpus(corpusSets)
	gaps := detectGaps(ownOutcome.extraction, compExtractions, corpus, e.cfg.GapEpsilon, e.cfg.GapStrengthRatio)

	builder := &opportunityBuilder{
		cfg:              &e.cfg,
		intents:          e.intents,
		relevance:        newRelevanceScorer(biz),
		totalCompetitors: len(compExtractions),
	}

	opportunities := make([]KeywordGapOpportunity, 0, len(gaps))
	for _, gp := range gaps {
		// Index-keyed: two competitors on the same URL keep their own
		// document context.
		docCtx := compContexts[gp.FirstDoc]
		opp, ok, err := builder.build(gp, docCtx, corpus)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		opportunities = append(opportunities, opp)
	}
	sortOpportunities(opportunities)

	byTier := make(map[PriorityTier][]KeywordGapOpportunity)
	byIntent := make(map[SearchIntent][]KeywordGapOpportunity)
	totalTraffic := 0
	for _, opp := range opportunities {
		byTier[opp.PriorityTier] = append(byTier[opp.PriorityTier], opp)
		byIntent[opp.Query.SearchIntent] = append(byIntent[opp.Query.SearchIntent], opp)
		totalTraffic += opp.EstimatedMonthlyTraffic
	}

	sortWarnings(warnings)
	processingMs := float64(time.Since(start).Microseconds()) / 1000

	return &KeywordGapAnalysisResult{
		TotalOpportunities:        len(opportunities),
		EstimatedTrafficPotential: totalTraffic,
		Opportunities:             opportunities,
		QuickWins:                 byTier[TierQuickWin],
		HighPriority:              byTier[TierHighPriority],
		Medium:                    byTier[TierMedium],
		LongTerm:                  byTier[TierLongTerm],
		InformationalGaps:         byIntent[IntentInformational],
		TransactionalGaps:         byIntent[IntentTransactional],
		LocalGaps:                 byIntent[IntentLocal],
		ComparisonGaps:            byIntent[IntentComparison],
		NavigationalGaps:          byIntent[IntentNavigational],
		StrategicRecommendations:  buildRecommendations(byTier, byIntent),
		ContentCalendar:           buildCalendar(&e.cfg, byTier),
		SummaryMetrics:            summarize(opportunities, len(compExtractions), failedCount, processingMs),
		Warnings:                  warnings,
		AnalysisTimestamp:         time.Now().UTC(),
		BusinessContext:           biz,
	}, nil
}

// fanOut extracts every document on its own goroutine and joins. No
// shared state is written during fan-out; each worker returns an
// independent candidate set merged only here. A context cancellation
// marks every not-yet-returned document as failed for this run.
func (e *Engine) fanOut(ctx context.Context, ext *extractor, docs []*ExtractedDocument) []extractOutcome {
	ch := make(chan extractOutcome, len(docs))
	for i, doc := range docs {
		go func(idx int, doc *ExtractedDocument) {
			if unavailable(doc) {
				ch <- extractOutcome{
					idx:    idx,
					failed: true,
					reason: fmt.Sprintf("document %d (%s) is missing or empty", idx, docURL(doc)),
				}
				return
			}
			ch <- extractOutcome{
				idx:        idx,
				extraction: extractDoc(ext, doc),
				docCtx:     newDocContext(doc),
			}
		}(i, doc)
	}

	outcomes := make([]extractOutcome, len(docs))
	collected := make([]bool, len(docs))
	remaining := len(docs)
	for remaining > 0 {
		select {
		case out := <-ch:
			outcomes[out.idx] = out
			collected[out.idx] = true
			remaining--
		case <-ctx.Done():
			for i := range outcomes {
				if !collected[i] {
					outcomes[i] = extractOutcome{
						idx:    i,
						failed: true,
						reason: fmt.Sprintf("document %d (%s) did not complete: %v", i, docURL(docs[i]), ctx.Err()),
					}
				}
			}
			return outcomes
		}
	}
	return outcomes
}

// unavailable reports a document the upstream collaborator failed to
// deliver: nil, or carrying neither a URL nor any text. A document with a
// URL but no analyzable text is valid-but-unproductive, not unavailable.
func unavailable(doc *ExtractedDocument) bool {
	if doc == nil {
		return true
	}
	return doc.URL == "" && doc.IsEmpty()
}

func docURL(doc *ExtractedDocument) string {
	if doc == nil {
		return "<nil>"
	}
	return doc.URL
}

func (e *Engine) emptyResult(biz *BusinessContext, warnings []Warning, competitorsTotal, competitorsFailed int) *KeywordGapAnalysisResult {
	sortWarnings(warnings)
	return &KeywordGapAnalysisResult{
		SummaryMetrics:    summarize(nil, competitorsTotal-competitorsFailed, competitorsFailed, 0),
		Warnings:          warnings,
		AnalysisTimestamp: time.Now().UTC(),
		BusinessContext:   biz,
	}
}
