package gapengine

import "fmt"

const (
	maxNgramSize    = 5
	longTailMinSize = 3
)

// IntentSignals is the signal bundle scored for one intent category.
type IntentSignals struct {
	Keywords      []string
	URLPatterns   []string
	TitlePatterns []string
	Weight        float64
}

// TierRule pairs a predicate with a tier. Rules are evaluated in order;
// the first match wins.
type TierRule struct {
	Tier      PriorityTier
	Reasoning string
	Match     func(volume, relevance, difficulty, intentMatch, competition, opportunity float64) bool
}

// ScoreWeights are the five opportunity-score component weights. They
// should sum to 1.0.
type ScoreWeights struct {
	Volume      float64
	Relevance   float64
	Difficulty  float64
	IntentMatch float64
	Competition float64
}

// Config is the full tuning surface of the engine, injected at
// construction and immutable after. DefaultConfig mirrors the baked-in
// tables of the original system; tests supply minimal fixtures instead.
type Config struct {
	// StopWords maps a script name to its stop-word set. Each set is
	// independently swappable.
	StopWords map[string]map[string]bool

	// MinTokenLength drops tokens shorter than this after normalization.
	MinTokenLength int

	// IntentSignals per category, plus booster terms that nudge
	// transactional intent for domain-specific vocabulary.
	IntentSignals            map[SearchIntent]IntentSignals
	TransactionalBoostTerms  []string
	TransactionalBoostPoints float64
	// LocalTransactionalBoost is added to the local score when both local
	// and transactional signals fire, since local searches in service
	// businesses usually carry purchase intent.
	LocalTransactionalBoost float64

	Weights   ScoreWeights
	TierRules []TierRule

	// GapEpsilon is the minimum competitor tfidf strength for a phrase to
	// count as covered. GapStrengthRatio is the own/competitor strength
	// ratio below which a phrase still counts as a gap despite some own
	// presence.
	GapEpsilon       float64
	GapStrengthRatio float64

	// IntentMatchScores maps classified intent to a 0-100 funnel-fit score.
	IntentMatchScores map[SearchIntent]float64

	// CTRPotential maps intent to an estimated click-through rate in [0,1].
	CTRPotential map[SearchIntent]float64

	// ContentTypeByIntent picks the recommended page type per intent.
	ContentTypeByIntent map[SearchIntent]ContentType

	// EffortHours maps difficulty to an effort estimate.
	EffortHours map[Difficulty]float64

	// DifficultyScores maps difficulty to its inverse 0-100 score
	// (easy ranks high).
	DifficultyScores map[Difficulty]float64

	// TrafficPerCompetitorHit scales the monthly-traffic heuristic:
	// frequency x competitors x this factor.
	TrafficPerCompetitorHit int

	// CalendarSize and CalendarPerWeek bound the content calendar.
	CalendarSize    int
	CalendarPerWeek int
}

// Validate checks the parts of the configuration that would otherwise
// fail silently at scoring time.
func (c *Config) Validate() error {
	if len(c.StopWords) == 0 {
		return fmt.Errorf("gapengine config: at least one stop-word set is required")
	}
	if len(c.IntentSignals) == 0 {
		return fmt.Errorf("gapengine config: intent signals are required")
	}
	sum := c.Weights.Volume + c.Weights.Relevance + c.Weights.Difficulty + c.Weights.IntentMatch + c.Weights.Competition
	if sum < 0.99 || sum > 1.01 {
		return fmt.Errorf("gapengine config: score weights sum to %.3f, want 1.0", sum)
	}
	if len(c.TierRules) == 0 {
		return fmt.Errorf("gapengine config: tier rules are required")
	}
	if c.GapEpsilon < 0 {
		return fmt.Errorf("gapengine config: gap epsilon must be non-negative")
	}
	if c.GapStrengthRatio <= 0 || c.GapStrengthRatio > 1 {
		return fmt.Errorf("gapengine config: gap strength ratio %.2f out of range (0,1]", c.GapStrengthRatio)
	}
	return nil
}

// DefaultScoreWeights returns the production component weights.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		Volume:      0.25,
		Relevance:   0.30,
		Difficulty:  0.20,
		IntentMatch: 0.15,
		Competition: 0.10,
	}
}

// DefaultConfig returns the production tuning tables.
func DefaultConfig() Config {
	return Config{
		StopWords: map[string]map[string]bool{
			"latin":  englishStopWords(),
			"arabic": persianStopWords(),
		},
		MinTokenLength: 2,
		IntentSignals: map[SearchIntent]IntentSignals{
			IntentInformational: {
				Keywords: []string{
					"what", "how", "guide", "tutorial", "learn", "definition", "advantages",
					"چیست", "چگونه", "راهنما", "آموزش", "نحوه", "معرفی", "معنی", "تعریف", "مزایا", "معایب",
				},
				URLPatterns:   []string{`/blog/`, `/guide/`, `/learn/`},
				TitlePatterns: []string{"guide", "how", "چیست", "چگونه", "راهنمای", "آموزش"},
				Weight:        1.0,
			},
			IntentTransactional: {
				Keywords: []string{
					"buy", "price", "cost", "booking", "discount", "offer", "order",
					"خرید", "قیمت", "هزینه", "رزرو", "نوبت", "پکیج", "تخفیف", "سفارش", "پرداخت",
				},
				URLPatterns:   []string{`/buy/`, `/price/`, `/booking/`, `/pricing/`},
				TitlePatterns: []string{"price", "buy", "خرید", "قیمت", "هزینه", "رزرو", "نوبت"},
				Weight:        1.2,
			},
			IntentLocal: {
				Keywords: []string{
					"near", "location", "address", "north", "south", "east", "west",
					"نزدیک", "محله", "منطقه", "تهران", "شهر", "آدرس", "شمال", "جنوب", "شرق", "غرب",
				},
				URLPatterns:   []string{`/location/`, `/locations/`, `-tehran/`},
				TitlePatterns: []string{"near", "تهران", "منطقه", "محله"},
				Weight:        1.3,
			},
			IntentComparison: {
				Keywords: []string{
					"compare", "best", "vs", "versus", "difference", "choose", "better",
					"مقایسه", "بهترین", "برتر", "تفاوت", "انتخاب", "بهتر",
				},
				URLPatterns:   []string{`/compare/`, `/vs/`, `/best/`},
				TitlePatterns: []string{"best", "vs", "مقایسه", "بهترین", "تفاوت"},
				Weight:        1.1,
			},
			IntentNavigational: {
				Keywords:      []string{"website", "home", "login", "dashboard", "سایت", "ورود"},
				URLPatterns:   []string{`^/$`, `/home/?$`, `/index`},
				TitlePatterns: []string{"home", "صفحه اصلی", "خانه"},
				Weight:        0.9,
			},
		},
		TransactionalBoostTerms: []string{
			"surgery", "treatment", "procedure", "جراحی", "عمل", "درمان", "لیزر",
		},
		TransactionalBoostPoints: 2.0,
		LocalTransactionalBoost:  1.5,
		Weights:                  DefaultScoreWeights(),
		TierRules:                DefaultTierRules(),
		GapEpsilon:               1e-6,
		GapStrengthRatio:         0.5,
		IntentMatchScores: map[SearchIntent]float64{
			IntentTransactional: 90,
			IntentLocal:         90,
			IntentComparison:    80,
			IntentInformational: 70,
			IntentNavigational:  60,
		},
		CTRPotential: map[SearchIntent]float64{
			IntentTransactional: 0.55,
			IntentLocal:         0.45,
			IntentComparison:    0.40,
			IntentInformational: 0.35,
			IntentNavigational:  0.25,
		},
		ContentTypeByIntent: map[SearchIntent]ContentType{
			IntentTransactional: ContentService,
			IntentLocal:         ContentLocal,
			IntentComparison:    ContentArticle,
			IntentInformational: ContentArticle,
			IntentNavigational:  ContentArticle,
		},
		EffortHours: map[Difficulty]float64{
			DifficultyEasy:   2,
			DifficultyMedium: 5,
			DifficultyHard:   10,
			DifficultyExpert: 20,
		},
		DifficultyScores: map[Difficulty]float64{
			DifficultyEasy:   100,
			DifficultyMedium: 70,
			DifficultyHard:   40,
			DifficultyExpert: 20,
		},
		TrafficPerCompetitorHit: 50,
		CalendarSize:            20,
		CalendarPerWeek:         3,
	}
}

// TierThresholds are the numeric cutoffs behind the default tier
// cascade, split out so deployments can retune tiers without code
// changes.
type TierThresholds struct {
	QuickWinRelevance   float64
	QuickWinDifficulty  float64
	QuickWinOpportunity float64

	HighPriorityOpportunity float64
	HighPriorityRelevance   float64

	// LongTermMaxDifficulty is exclusive: difficulty score below it
	// (harder phrases rank lower) pushes a relevant phrase to long_term.
	LongTermMaxDifficulty float64
	LongTermRelevance     float64
}

// DefaultTierThresholds returns the production cutoffs.
func DefaultTierThresholds() TierThresholds {
	return TierThresholds{
		QuickWinRelevance:       70,
		QuickWinDifficulty:      80,
		QuickWinOpportunity:     70,
		HighPriorityOpportunity: 75,
		HighPriorityRelevance:   60,
		LongTermMaxDifficulty:   50,
		LongTermRelevance:       70,
	}
}

// DefaultTierRules is the ordered quick_win / high_priority / long_term /
// medium cascade with the default cutoffs.
func DefaultTierRules() []TierRule {
	return TierRulesFor(DefaultTierThresholds())
}

// TierRulesFor builds the standard cascade over custom cutoffs.
// Reordering or retuning tiers is a config change, not a code change.
func TierRulesFor(th TierThresholds) []TierRule {
	return []TierRule{
		{
			Tier:      TierQuickWin,
			Reasoning: "High relevance, easy to rank, good opportunity",
			Match: func(_, relevance, difficulty, _, _, opportunity float64) bool {
				return relevance >= th.QuickWinRelevance &&
					difficulty >= th.QuickWinDifficulty &&
					opportunity >= th.QuickWinOpportunity
			},
		},
		{
			Tier:      TierHighPriority,
			Reasoning: "High overall value and relevance",
			Match: func(_, relevance, _, _, _, opportunity float64) bool {
				return opportunity >= th.HighPriorityOpportunity && relevance >= th.HighPriorityRelevance
			},
		},
		{
			Tier:      TierLongTerm,
			Reasoning: "High value but requires significant effort",
			Match: func(_, relevance, difficulty, _, _, _ float64) bool {
				return difficulty < th.LongTermMaxDifficulty && relevance >= th.LongTermRelevance
			},
		},
		{
			Tier:      TierMedium,
			Reasoning: "Moderate opportunity",
			Match: func(_, _, _, _, _, _ float64) bool {
				return true
			},
		},
	}
}
