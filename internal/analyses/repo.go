package analyses

import (
	"context"
	"time"
)

// Repo defines persistence operations for analyses.
type Repo interface {
	Create(ctx context.Context, analysis Analysis) error
	GetByID(ctx context.Context, analysisID string) (Analysis, error)
	UpdateStatusResultAndError(ctx context.Context, analysisID, status string, result map[string]any, errorCode, errorMessage *string, startedAt, completedAt *time.Time) error
	UpdateResult(ctx context.Context, analysisID string, result map[string]any, artifactPath, failureReason string, totalOpportunities int, completedAt *time.Time) error
	List(ctx context.Context, limit, offset int) ([]Analysis, error)
}
