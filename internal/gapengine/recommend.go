package gapengine

import (
	"fmt"
	"sort"
)

const recommendationKeywordLimit = 10

// buildRecommendations derives templated strategic recommendations from
// the classified opportunity set. Pure and deterministic: same input,
// same output.
func buildRecommendations(byTier map[PriorityTier][]KeywordGapOpportunity, byIntent map[SearchIntent][]KeywordGapOpportunity) []StrategicRecommendation {
	var recs []StrategicRecommendation

	if quickWins := byTier[TierQuickWin]; len(quickWins) > 0 {
		recs = append(recs, StrategicRecommendation{
			Title:       "Focus on Quick Wins First",
			Priority:    "high",
			Description: fmt.Sprintf("You have %d quick win opportunities with high relevance and low difficulty.", len(quickWins)),
			Action:      "Start creating content for these keywords within the next 2-4 weeks",
			Keywords:    topKeywords(quickWins),
		})
	}
	if informational := byIntent[IntentInformational]; len(informational) > 0 {
		recs = append(recs, StrategicRecommendation{
			Title:       "Build Top-of-Funnel Content",
			Priority:    "medium",
			Description: fmt.Sprintf("Found %d informational keywords for the awareness stage.", len(informational)),
			Action:      "Create comprehensive guides and how-to content",
			Keywords:    topKeywords(informational),
		})
	}
	if transactional := byIntent[IntentTransactional]; len(transactional) > 0 {
		recs = append(recs, StrategicRecommendation{
			Title:       "Capture Transactional Intent",
			Priority:    "high",
			Description: fmt.Sprintf("%d transactional keywords found with direct revenue potential.", len(transactional)),
			Action:      "Create service and product pages with strong CTAs",
			Keywords:    topKeywords(transactional),
		})
	}
	if local := byIntent[IntentLocal]; len(local) > 0 {
		recs = append(recs, StrategicRecommendation{
			Title:       "Strengthen Local Presence",
			Priority:    "medium",
			Description: fmt.Sprintf("%d local-intent keywords point at geographic demand competitors already serve.", len(local)),
			Action:      "Build location pages and local business markup",
			Keywords:    topKeywords(local),
		})
	}
	return recs
}

func topKeywords(opps []KeywordGapOpportunity) []string {
	limit := len(opps)
	if limit > recommendationKeywordLimit {
		limit = recommendationKeywordLimit
	}
	out := make([]string, 0, limit)
	for _, opp := range opps[:limit] {
		out = append(out, opp.Query.QueryText)
	}
	return out
}

// tierSequence is the publishing order of the content calendar.
var tierSequence = []PriorityTier{TierQuickWin, TierHighPriority, TierMedium, TierLongTerm}

// buildCalendar sequences opportunities tier-by-tier and, within a tier,
// by opportunity score descending (ties fall back to the same chain used
// for the main ordering).
func buildCalendar(cfg *Config, byTier map[PriorityTier][]KeywordGapOpportunity) []CalendarSuggestion {
	var calendar []CalendarSuggestion
	perWeek := cfg.CalendarPerWeek
	if perWeek < 1 {
		perWeek = 1
	}

	index := 0
	for _, tier := range tierSequence {
		opps := append([]KeywordGapOpportunity(nil), byTier[tier]...)
		sortOpportunities(opps)
		for _, opp := range opps {
			if cfg.CalendarSize > 0 && index >= cfg.CalendarSize {
				return calendar
			}
			index++
			calendar = append(calendar, CalendarSuggestion{
				QueryText:     opp.Query.QueryText,
				SequenceIndex: index,
				Week:          (index-1)/perWeek + 1,
				PriorityTier:  opp.PriorityTier,
				ContentType:   opp.ContentTypeNeeded,
				EffortHours:   opp.EffortEstimateHours,
			})
		}
	}
	return calendar
}

// summarize computes the scalar aggregates reported with every result.
func summarize(opps []KeywordGapOpportunity, competitorsAnalyzed, competitorsFailed int, processingMs float64) map[string]float64 {
	totalTraffic := 0.0
	sumDifficulty := 0.0
	sumRelevance := 0.0
	for _, opp := range opps {
		totalTraffic += float64(opp.EstimatedMonthlyTraffic)
		sumDifficulty += opp.DifficultyScore
		sumRelevance += opp.RelevanceScore
	}
	n := float64(len(opps))
	avgDifficulty, avgRelevance := 0.0, 0.0
	if n > 0 {
		avgDifficulty = sumDifficulty / n
		avgRelevance = sumRelevance / n
	}
	return map[string]float64{
		"total_gaps":           n,
		"traffic_potential":    totalTraffic,
		"avg_difficulty_score": avgDifficulty,
		"avg_relevance_score":  avgRelevance,
		"competitors_analyzed": float64(competitorsAnalyzed),
		"competitors_failed":   float64(competitorsFailed),
		"processing_ms":        processingMs,
	}
}

// sortWarnings keeps warning order stable for serialization round-trips.
func sortWarnings(warnings []Warning) {
	sort.SliceStable(warnings, func(i, j int) bool {
		if warnings[i].Code != warnings[j].Code {
			return warnings[i].Code < warnings[j].Code
		}
		return warnings[i].Message < warnings[j].Message
	})
}
