package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"keywordgap-backend/internal/gapengine"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	ArtifactDir     string
	DatabaseURL     string
	Env             string

	// Fetcher knobs.
	FetchTimeout   time.Duration
	FetchSizeCap   int64
	FetchUserAgent string
	FetchDelay     time.Duration

	// Engine tuning overridable without code changes.
	GapStrengthRatio float64
	CalendarSize     int
	MaxCompetitors   int

	// Opportunity-score component weights; overrides must still sum
	// to 1.0 or engine construction fails at startup.
	ScoreWeights gapengine.ScoreWeights

	// Priority-tier cutoffs.
	TierThresholds gapengine.TierThresholds
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	return Config{
		Port:             getEnv("PORT", "8080"),
		CORSAllowOrigin:  splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		ArtifactDir:      getEnv("ARTIFACT_DIR", "./data/analyses"),
		DatabaseURL:      dbURL,
		Env:              env,
		FetchTimeout:     getDuration("FETCH_TIMEOUT", 15*time.Second),
		FetchSizeCap:     getInt64("FETCH_SIZE_CAP", 2<<20),
		FetchUserAgent:   getEnv("FETCH_USER_AGENT", "keywordgap-bot/1.0"),
		FetchDelay:       getDuration("FETCH_DELAY", 500*time.Millisecond),
		GapStrengthRatio: getFloat("GAP_STRENGTH_RATIO", 0.5),
		CalendarSize:     getInt("CALENDAR_SIZE", 20),
		MaxCompetitors:   getInt("MAX_COMPETITORS", 10),
		ScoreWeights:     loadScoreWeights(),
		TierThresholds:   loadTierThresholds(),
	}
}

func loadScoreWeights() gapengine.ScoreWeights {
	w := gapengine.DefaultScoreWeights()
	return gapengine.ScoreWeights{
		Volume:      getFloat("SCORE_WEIGHT_VOLUME", w.Volume),
		Relevance:   getFloat("SCORE_WEIGHT_RELEVANCE", w.Relevance),
		Difficulty:  getFloat("SCORE_WEIGHT_DIFFICULTY", w.Difficulty),
		IntentMatch: getFloat("SCORE_WEIGHT_INTENT_MATCH", w.IntentMatch),
		Competition: getFloat("SCORE_WEIGHT_COMPETITION", w.Competition),
	}
}

func loadTierThresholds() gapengine.TierThresholds {
	th := gapengine.DefaultTierThresholds()
	return gapengine.TierThresholds{
		QuickWinRelevance:       getFloat("TIER_QUICK_WIN_RELEVANCE", th.QuickWinRelevance),
		QuickWinDifficulty:      getFloat("TIER_QUICK_WIN_DIFFICULTY", th.QuickWinDifficulty),
		QuickWinOpportunity:     getFloat("TIER_QUICK_WIN_OPPORTUNITY", th.QuickWinOpportunity),
		HighPriorityOpportunity: getFloat("TIER_HIGH_PRIORITY_OPPORTUNITY", th.HighPriorityOpportunity),
		HighPriorityRelevance:   getFloat("TIER_HIGH_PRIORITY_RELEVANCE", th.HighPriorityRelevance),
		LongTermMaxDifficulty:   getFloat("TIER_LONG_TERM_MAX_DIFFICULTY", th.LongTermMaxDifficulty),
		LongTermRelevance:       getFloat("TIER_LONG_TERM_RELEVANCE", th.LongTermRelevance),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("invalid %s=%q, using default %d", key, raw, def)
		return def
	}
	return val
}

func getInt64(key string, def int64) int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	val, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Printf("invalid %s=%q, using default %d", key, raw, def)
		return def
	}
	return val
}

func getFloat(key string, def float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("invalid %s=%q, using default %g", key, raw, def)
		return def
	}
	return val
}

func getDuration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("invalid %s=%q, using default %s", key, raw, def)
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}
