package gapengine

import (
	"fmt"
	"sort"
	"strings"
)

// estimateDifficulty derives a difficulty label from competitor coverage.
// Broad coverage means the phrase is contested; long-tail phrases are one
// step easier to rank for. A labeled heuristic, like the volume estimate.
func estimateDifficulty(competitorsContaining int, longTail bool) Difficulty {
	var d Difficulty
	switch {
	case competitorsContaining >= 4:
		d = DifficultyExpert
	case competitorsContaining == 3:
		d = DifficultyHard
	case competitorsContaining == 2:
		d = DifficultyMedium
	default:
		d = DifficultyEasy
	}
	if longTail {
		switch d {
		case DifficultyExpert:
			d = DifficultyHard
		case DifficultyHard:
			d = DifficultyMedium
		case DifficultyMedium:
			d = DifficultyEasy
		}
	}
	return d
}

// predictSERPFeatures tags the search-result features a phrase could
// plausibly earn, from its wording and classified intent.
func predictSERPFeatures(phrase string, intent SearchIntent) []SERPFeature {
	padded := " " + phrase + " "
	var features []SERPFeature
	if containsAnyWord(padded, "how", "why", "what", "چگونه", "چطور", "چرا", "چیست") {
		features = append(features, SERPFeatureFAQ, SERPFeaturePeopleAlsoAsk)
	}
	if containsAnyWord(padded, "tutorial", "guide", "آموزش", "راهنما") {
		features = append(features, SERPFeatureHowTo)
	}
	if containsAnyWord(padded, "video", "watch", "ویدیو", "فیلم") {
		features = append(features, SERPFeatureVideo)
	}
	if intent == IntentLocal {
		features = append(features, SERPFeatureLocalPack)
	}
	return features
}

func containsAnyWord(paddedPhrase string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(paddedPhrase, " "+w+" ") {
			return true
		}
	}
	return false
}

// recommendContentType maps intent to a page type, with a FAQ override
// for question-shaped phrases.
func recommendContentType(cfg *Config, phrase string, intent SearchIntent) ContentType {
	if containsAnyWord(" "+phrase+" ", "how", "چگونه", "چطور") {
		return ContentFAQ
	}
	if ct, ok := cfg.ContentTypeByIntent[intent]; ok {
		return ct
	}
	return ContentArticle
}

// opportunityBuilder turns detected gap phrases into scored, classified
// opportunities.
type opportunityBuilder struct {
	cfg              *Config
	intents          *intentClassifier
	relevance        *relevanceScorer
	totalCompetitors int
}

// build scores one gap phrase. Branded phrases return (zero, false):
// the business's own brand terms are not gaps worth chasing.
func (b *opportunityBuilder) build(gp *gapPhrase, ctx docContext, corpus *corpusStats) (KeywordGapOpportunity, bool, error) {
	relevance, branded := b.relevance.score(gp.Phrase)
	if branded {
		return KeywordGapOpportunity{}, false, nil
	}

	intent, confidence := b.intents.classify(gp.Phrase, ctx)
	longTail := gp.NgramSize >= longTailMinSize
	difficulty := estimateDifficulty(len(gp.Competitors), longTail)
	volume := estimateSearchVolume(gp.TotalFrequency, len(gp.Competitors))
	ctr := b.cfg.CTRPotential[intent]

	query := SearchQuery{
		QueryText:              gp.Phrase,
		NgramSize:              gp.NgramSize,
		SearchIntent:           intent,
		IntentConfidence:       confidence,
		SearchVolumeEstimate:   volume,
		Difficulty:             difficulty,
		RelevanceToBusiness:    relevance,
		TFScore:                gp.BestTF,
		IDFScore:               corpus.idf(gp.Phrase),
		TFIDFScore:             gp.BestTFIDF,
		SERPFeatures:           predictSERPFeatures(gp.Phrase, intent),
		RecommendedContentType: recommendContentType(b.cfg, gp.Phrase, intent),
		IsLongTail:             longTail,
		FoundOnCompetitors:     true,
		CompetitorAvgPosition:  gp.AvgPosition,
		CTRPotential:           ctr,
		EstimatedTrafficValue:  float64(volume) * ctr * relevance / 100,
		Sources:                gp.Sources,
	}
	if err := query.validate(); err != nil {
		return KeywordGapOpportunity{}, false, err
	}

	opp := KeywordGapOpportunity{
		Query:              query,
		VolumeScore:        volumeScore(gp.TotalFrequency, len(gp.Competitors)),
		RelevanceScore:     relevance,
		DifficultyScore:    b.cfg.DifficultyScores[difficulty],
		IntentMatchScore:   b.cfg.IntentMatchScores[intent],
		CompetitionScore:   competitionScore(len(gp.Competitors), b.totalCompetitors, gp.AvgPosition),
		ContentTypeNeeded:  query.RecommendedContentType,
		CompetitorAnalysis: competitorMap(gp.Competitors),
	}

	w := b.cfg.Weights
	opp.OpportunityScore = opp.VolumeScore*w.Volume +
		opp.RelevanceScore*w.Relevance +
		opp.DifficultyScore*w.Difficulty +
		opp.IntentMatchScore*w.IntentMatch +
		opp.CompetitionScore*w.Competition

	opp.EffortEstimateHours = b.cfg.EffortHours[difficulty]
	opp.EstimatedMonthlyTraffic = gp.TotalFrequency * len(gp.Competitors) * b.cfg.TrafficPerCompetitorHit

	tier, reasoning := assignTier(b.cfg.TierRules, &opp)
	opp.PriorityTier = tier
	opp.PriorityReasoning = reasoning
	opp.StrategicImportance = strategicImportance(&opp)
	opp.RecommendedActions = recommendActions(&opp)

	return opp, true, nil
}

// volumeScore normalizes raw demand signals to [0,100].
func volumeScore(totalFrequency, competitorsContaining int) float64 {
	freqScore := float64(totalFrequency) / 10
	if freqScore > 1 {
		freqScore = 1
	}
	presenceScore := float64(competitorsContaining) / 5
	if presenceScore > 1 {
		presenceScore = 1
	}
	return (freqScore + presenceScore) / 2 * 100
}

// competitionScore measures how exploitable the gap is: wide coverage at
// weak (late-discovered) average position scores highest, since many
// competitors touch the phrase but none leads with it.
func competitionScore(containing, total int, avgPosition float64) float64 {
	if total == 0 {
		return 0
	}
	coverage := float64(containing) / float64(total)
	weakness := avgPosition / 50
	if weakness > 1 {
		weakness = 1
	}
	score := coverage*60 + weakness*40
	if score > 100 {
		score = 100
	}
	return score
}

// assignTier walks the ordered rule list; the first matching rule wins
// and every opportunity lands in exactly one tier.
func assignTier(rules []TierRule, opp *KeywordGapOpportunity) (PriorityTier, string) {
	for _, rule := range rules {
		if rule.Match(opp.VolumeScore, opp.RelevanceScore, opp.DifficultyScore,
			opp.IntentMatchScore, opp.CompetitionScore, opp.OpportunityScore) {
			return rule.Tier, rule.Reasoning
		}
	}
	return TierMedium, "Moderate opportunity"
}

func strategicImportance(opp *KeywordGapOpportunity) string {
	switch {
	case opp.OpportunityScore >= 80:
		return "critical"
	case opp.OpportunityScore >= 60:
		return "high"
	case opp.OpportunityScore >= 40:
		return "moderate"
	default:
		return "low"
	}
}

// recommendActions produces short, templated action items for one
// opportunity.
func recommendActions(opp *KeywordGapOpportunity) []string {
	q := opp.Query
	actions := []string{
		fmt.Sprintf("Create %s page targeting %q", q.RecommendedContentType, q.QueryText),
	}
	if len(q.SERPFeatures) > 0 {
		limit := len(q.SERPFeatures)
		if limit > 2 {
			limit = 2
		}
		names := make([]string, 0, limit)
		for _, f := range q.SERPFeatures[:limit] {
			names = append(names, string(f))
		}
		actions = append(actions, fmt.Sprintf("Implement %s markup for better visibility", strings.Join(names, ", ")))
	}
	switch q.SearchIntent {
	case IntentLocal:
		actions = append(actions, "Add local SEO elements (NAP, maps, reviews)")
	case IntentTransactional:
		actions = append(actions, "Add clear CTAs and conversion elements")
	}
	if hasSource(q.Sources, SourceTitle) || hasSource(q.Sources, SourceHeading) {
		actions = append(actions, "Use keyword in page title and main heading")
	}
	return actions
}

// sortOpportunities establishes the total output order: opportunity
// score descending, then relevance descending, then query text ascending.
// The tie-break chain makes re-runs byte-identical.
func sortOpportunities(opps []KeywordGapOpportunity) {
	sort.SliceStable(opps, func(i, j int) bool {
		a, b := opps[i], opps[j]
		if a.OpportunityScore != b.OpportunityScore {
			return a.OpportunityScore > b.OpportunityScore
		}
		if a.RelevanceScore != b.RelevanceScore {
			return a.RelevanceScore > b.RelevanceScore
		}
		return a.Query.QueryText < b.Query.QueryText
	})
}

func competitorMap(presences []CompetitorPresence) map[string]CompetitorPresence {
	out := make(map[string]CompetitorPresence, len(presences))
	for _, p := range presences {
		out[p.URL] = p
	}
	return out
}
