package server

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"keywordgap-backend/internal/analyses"
	"keywordgap-backend/internal/fetch"
	"keywordgap-backend/internal/gapengine"
	"keywordgap-backend/internal/services/health"
	"keywordgap-backend/internal/shared/config"
	"keywordgap-backend/internal/shared/metrics"
	"keywordgap-backend/internal/shared/server/middleware"
	"keywordgap-backend/internal/shared/server/respond"
	"keywordgap-backend/internal/shared/storage/artifact"
	"keywordgap-backend/internal/shared/storage/db"
)

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(cfg config.Config) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.RateLimit(rateLimits()),
	)

	// Dependencies
	var sqlDB *sql.DB
	if cfg.DatabaseURL != "" {
		dbConn, err := db.Connect(context.Background(), cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
		if err != nil {
			log.Printf("failed to connect database, falling back to memory: %v", err)
		} else {
			if err := db.RunMigrations(context.Background(), dbConn); err != nil {
				log.Printf("failed to run migrations, falling back to memory: %v", err)
				dbConn = nil
			}
		}
		sqlDB = dbConn
	}

	var analysisRepo analyses.Repo
	if sqlDB != nil {
		analysisRepo = &analyses.PGRepo{DB: sqlDB}
	} else {
		analysisRepo = analyses.NewMemoryRepo()
	}

	engine, err := gapengine.New(engineConfig(cfg))
	if err != nil {
		return nil, err
	}
	fetcher := fetch.NewClient(fetch.Options{
		Timeout:   cfg.FetchTimeout,
		SizeCap:   cfg.FetchSizeCap,
		UserAgent: cfg.FetchUserAgent,
		Delay:     cfg.FetchDelay,
	})

	analysisSvc := &analyses.Service{
		Repo:           analysisRepo,
		Fetcher:        fetcher,
		Engine:         engine,
		Artifacts:      artifact.New(cfg.ArtifactDir),
		MaxCompetitors: cfg.MaxCompetitors,
	}
	analysisHandler := analyses.NewHandler(analysisSvc)

	healthSvc := health.NewService(sqlDB)
	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, healthSvc.Status(c.Request.Context()))
	})
	api.GET("/metrics", metrics.Handler())
	analysisHandler.RegisterRoutes(api)

	return r, nil
}

func engineConfig(cfg config.Config) gapengine.Config {
	engineCfg := gapengine.DefaultConfig()
	if cfg.GapStrengthRatio > 0 {
		engineCfg.GapStrengthRatio = cfg.GapStrengthRatio
	}
	if cfg.CalendarSize > 0 {
		engineCfg.CalendarSize = cfg.CalendarSize
	}
	if w := cfg.ScoreWeights; w.Volume+w.Relevance+w.Difficulty+w.IntentMatch+w.Competition > 0 {
		engineCfg.Weights = w
	}
	if cfg.TierThresholds != (gapengine.TierThresholds{}) {
		engineCfg.TierRules = gapengine.TierRulesFor(cfg.TierThresholds)
	}
	return engineCfg
}

// rateLimits throttles analysis starts harder than status polling; both
// buckets are keyed by client IP.
func rateLimits() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		Rules: map[string]middleware.RateLimitRule{
			"START":   {Rate: 0.5, Burst: 5},
			"POLLING": {Rate: 5, Burst: 20},
		},
		GroupFor: func(c *gin.Context) string {
			if !strings.HasPrefix(c.FullPath(), "/api/v1/analyses") {
				return ""
			}
			switch c.Request.Method {
			case http.MethodPost:
				return "START"
			case http.MethodGet:
				return "POLLING"
			}
			return ""
		},
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
