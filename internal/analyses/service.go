package analyses

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"keywordgap-backend/internal/fetch"
	"keywordgap-backend/internal/gapengine"
	"keywordgap-backend/internal/shared/metrics"
	"keywordgap-backend/internal/shared/telemetry"
)

const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// PageFetcher downloads pages for analysis. *fetch.Client satisfies it.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetch.Page, error)
	FetchAll(ctx context.Context, urls []string) []fetch.Result
}

// ArtifactStore persists result snapshots. *artifact.Store satisfies it.
type ArtifactStore interface {
	Save(ctx context.Context, analysisID string, result any) (string, error)
}

// Service contains business logic for analyses.
type Service struct {
	Repo           Repo
	Fetcher        PageFetcher
	Engine         *gapengine.Engine
	Artifacts      ArtifactStore
	MaxCompetitors int
}

// Create enqueues a new analysis and kicks off asynchronous completion.
func (s *Service) Create(ctx context.Context, ownURL string, competitorURLs []string, biz *gapengine.BusinessContext) (Analysis, error) {
	ownURL = strings.TrimSpace(ownURL)
	if err := validatePageURL(ownURL); err != nil {
		return Analysis{}, fmt.Errorf("validation: own url: %w", err)
	}
	competitors := make([]string, 0, len(competitorURLs))
	for _, raw := range competitorURLs {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if err := validatePageURL(raw); err != nil {
			return Analysis{}, fmt.Errorf("validation: competitor url %q: %w", raw, err)
		}
		competitors = append(competitors, raw)
	}
	if len(competitors) == 0 {
		return Analysis{}, errors.New("validation: at least one competitor url is required")
	}
	if max := s.maxCompetitors(); len(competitors) > max {
		return Analysis{}, fmt.Errorf("%w: got %d, limit %d", ErrTooManyCompetitors, len(competitors), max)
	}
	if biz == nil {
		return Analysis{}, errors.New("validation: business context is required")
	}

	analysis := Analysis{
		ID:              uuid.NewString(),
		Status:          StatusQueued,
		OwnURL:          ownURL,
		CompetitorURLs:  competitors,
		BusinessContext: biz,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.Repo.Create(ctx, analysis); err != nil {
		return Analysis{}, err
	}

	go s.completeAsync(backgroundWithRequestID(ctx), analysis.ID)

	return analysis, nil
}

// Get returns an analysis by ID.
func (s *Service) Get(ctx context.Context, analysisID string) (Analysis, error) {
	if analysisID == "" {
		return Analysis{}, errors.New("analysisID is required")
	}
	return s.Repo.GetByID(ctx, analysisID)
}

// List returns analyses ordered newest-first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Analysis, error) {
	return s.Repo.List(ctx, limit, offset)
}

func (s *Service) maxCompetitors() int {
	if s.MaxCompetitors > 0 {
		return s.MaxCompetitors
	}
	return 10
}

func validatePageURL(raw string) error {
	if raw == "" {
		return errors.New("url is required")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("unsupported url %q", raw)
	}
	return nil
}

func (s *Service) completeAsync(ctx context.Context, analysisID string) {
	defer func() {
		if r := recover(); r != nil {
			s.failAnalysis(ctx, analysisID, fmt.Errorf("panic: %v", r), nil)
		}
	}()
	startedAt := time.Now().UTC()
	if err := s.Repo.UpdateStatusResultAndError(ctx, analysisID, StatusProcessing, nil, nil, nil, &startedAt, nil); err != nil {
		s.failAnalysis(ctx, analysisID, fmt.Errorf("set processing failed: %w", err), &startedAt)
		return
	}

	analysis, err := s.Repo.GetByID(ctx, analysisID)
	if err != nil {
		s.failAnalysis(ctx, analysisID, fmt.Errorf("analysis lookup: %w", err), &startedAt)
		return
	}
	metrics.IncAnalysisStarted()
	telemetry.Info("analysis.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"analysis_id":       analysis.ID,
		"own_url":           analysis.OwnURL,
		"competitors":       len(analysis.CompetitorURLs),
		"status":            StatusProcessing,
		"status_transition": "queued->processing",
	})
	if s.Fetcher == nil || s.Engine == nil {
		s.failAnalysis(ctx, analysisID, errors.New("analysis dependencies not configured"), &startedAt)
		return
	}

	var ownDoc *gapengine.ExtractedDocument
	ownPage, err := s.Fetcher.Fetch(ctx, analysis.OwnURL)
	if err != nil {
		metrics.IncPageFetchFailed()
		telemetry.Warn("analysis.fetch", map[string]any{
			"request_id":  requestIDFromContext(ctx),
			"analysis_id": analysis.ID,
			"url":         analysis.OwnURL,
			"error":       sanitizeError(err),
		})
		// A URL-less empty document makes the engine report
		// own_document_unavailable with a well-formed empty result.
		ownDoc = &gapengine.ExtractedDocument{}
	} else if ownDoc = extractDocument(ownPage); ownDoc == nil {
		// Reachable page with no analyzable text: keep the URL attached so
		// the engine degrades to an empty-candidate-set warning instead.
		ownDoc = &gapengine.ExtractedDocument{URL: analysis.OwnURL}
	}

	competitorDocs := make([]*gapengine.ExtractedDocument, 0, len(analysis.CompetitorURLs))
	for _, res := range s.Fetcher.FetchAll(ctx, analysis.CompetitorURLs) {
		if res.Err != nil {
			metrics.IncPageFetchFailed()
			telemetry.Warn("analysis.fetch", map[string]any{
				"request_id":  requestIDFromContext(ctx),
				"analysis_id": analysis.ID,
				"url":         res.URL,
				"error":       sanitizeError(res.Err),
			})
			competitorDocs = append(competitorDocs, nil)
			continue
		}
		competitorDocs = append(competitorDocs, extractDocument(res.Page))
	}

	result, err := s.Engine.Analyze(ctx, ownDoc, competitorDocs, analysis.BusinessContext)
	if err != nil {
		s.failAnalysis(ctx, analysisID, fmt.Errorf("gap analysis: %w", err), &startedAt)
		return
	}

	resultMap, err := resultToMap(result)
	if err != nil {
		s.failAnalysis(ctx, analysisID, fmt.Errorf("encode analysis result: %w", err), &startedAt)
		return
	}

	artifactPath := ""
	if s.Artifacts != nil {
		artifactPath, err = s.Artifacts.Save(ctx, analysisID, result)
		if err != nil {
			// The row is the source of truth; the snapshot is best-effort.
			telemetry.Warn("analysis.artifact", map[string]any{
				"request_id":  requestIDFromContext(ctx),
				"analysis_id": analysis.ID,
				"error":       sanitizeError(err),
			})
			artifactPath = ""
		}
	}

	completedAt := time.Now().UTC()
	if err := s.Repo.UpdateResult(ctx, analysisID, resultMap, artifactPath, result.FailureReason, result.TotalOpportunities, &completedAt); err != nil {
		s.failAnalysis(ctx, analysisID, fmt.Errorf("set analysis result failed: %w", err), &startedAt)
		return
	}
	metrics.IncAnalysisCompleted()
	metrics.ObserveAnalysisDurationMs(durationMs(&startedAt, &completedAt))
	telemetry.Info("analysis.status", map[string]any{
		"request_id":          requestIDFromContext(ctx),
		"analysis_id":         analysis.ID,
		"own_url":             analysis.OwnURL,
		"status":              StatusCompleted,
		"status_transition":   "processing->completed",
		"total_opportunities": result.TotalOpportunities,
		"duration_ms":         durationMs(&startedAt, &completedAt),
	})
}

func (s *Service) failAnalysis(ctx context.Context, analysisID string, err error, startedAt *time.Time) {
	code := classifyFailure(err)
	msg := sanitizeError(err)
	completedAt := time.Now().UTC()
	if updateErr := s.Repo.UpdateStatusResultAndError(context.Background(), analysisID, StatusFailed, nil, &code, &msg, nil, &completedAt); updateErr != nil {
		fmt.Printf("failAnalysis: update failed id=%s err=%v orig=%v\n", analysisID, updateErr, err)
	}
	metrics.IncAnalysisFailed()
	if startedAt != nil {
		metrics.ObserveAnalysisDurationMs(durationMs(startedAt, &completedAt))
	}
	telemetry.Info("analysis.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"analysis_id":       analysisID,
		"status":            StatusFailed,
		"status_transition": "processing->failed",
		"error_code":        code,
		"duration_ms":       durationMs(startedAt, &completedAt),
	})
}

func resultToMap(result *gapengine.KeywordGapAnalysisResult) (map[string]any, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func durationMs(startedAt, completedAt *time.Time) float64 {
	if startedAt == nil || completedAt == nil {
		return 0
	}
	return float64(completedAt.Sub(*startedAt).Microseconds()) / 1000.0
}

func classifyFailure(err error) string {
	if err == nil {
		return ErrorCodeInternal
	}
	var statusErr *fetch.StatusError
	if errors.As(err, &statusErr) || errors.Is(err, fetch.ErrInvalidURL) || errors.Is(err, fetch.ErrNonHTML) {
		return ErrorCodeFetch
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorCodeFetch
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "validation"):
		return ErrorCodeValidation
	case strings.Contains(msg, "fetch") || strings.Contains(msg, "download"):
		return ErrorCodeFetch
	case strings.Contains(msg, "extract"):
		return ErrorCodeExtract
	case strings.Contains(msg, "set processing") || strings.Contains(msg, "analysis result") || strings.Contains(msg, "analysis lookup") || strings.Contains(msg, "artifact"):
		return ErrorCodeStorage
	}
	return ErrorCodeInternal
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}
