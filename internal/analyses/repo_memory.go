package analyses

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo stores analyses in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Analysis
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]Analysis)}
}

// Create stores the analysis.
func (r *MemoryRepo) Create(ctx context.Context, analysis Analysis) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[analysis.ID] = analysis
	return nil
}

// GetByID returns an analysis by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, analysisID string) (Analysis, error) {
	if err := ctx.Err(); err != nil {
		return Analysis{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	analysis, ok := r.byID[analysisID]
	if !ok {
		return Analysis{}, ErrNotFound
	}
	return analysis, nil
}

// UpdateStatusResultAndError updates status/result/error fields and timestamps.
func (r *MemoryRepo) UpdateStatusResultAndError(ctx context.Context, analysisID, status string, result map[string]any, errorCode, errorMessage *string, startedAt, completedAt *time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	analysis, ok := r.byID[analysisID]
	if !ok {
		return ErrNotFound
	}
	analysis.Status = status
	if result != nil {
		analysis.Result = result
	}
	if errorCode != nil {
		analysis.ErrorCode = *errorCode
	}
	if errorMessage != nil {
		analysis.ErrorMessage = errorMessage
	}
	if startedAt != nil {
		analysis.StartedAt = startedAt
	} else if status == StatusProcessing && analysis.StartedAt == nil {
		now := time.Now().UTC()
		analysis.StartedAt = &now
	}
	if completedAt != nil {
		analysis.CompletedAt = completedAt
	} else if (status == StatusCompleted || status == StatusFailed) && analysis.CompletedAt == nil {
		now := time.Now().UTC()
		analysis.CompletedAt = &now
	}
	analysis.UpdatedAt = time.Now().UTC()
	r.byID[analysisID] = analysis
	return nil
}

// UpdateResult marks the analysis completed and records the result payload.
func (r *MemoryRepo) UpdateResult(ctx context.Context, analysisID string, result map[string]any, artifactPath, failureReason string, totalOpportunities int, completedAt *time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	analysis, ok := r.byID[analysisID]
	if !ok {
		return ErrNotFound
	}
	analysis.Status = StatusCompleted
	analysis.Result = result
	analysis.ArtifactPath = artifactPath
	analysis.FailureReason = failureReason
	analysis.TotalOpportunities = totalOpportunities
	if completedAt != nil {
		analysis.CompletedAt = completedAt
	} else if analysis.CompletedAt == nil {
		now := time.Now().UTC()
		analysis.CompletedAt = &now
	}
	analysis.UpdatedAt = time.Now().UTC()
	r.byID[analysisID] = analysis
	return nil
}

// List returns analyses, newest first, with limit/offset.
func (r *MemoryRepo) List(ctx context.Context, limit, offset int) ([]Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 20
	}

	r.mu.RLock()
	all := make([]Analysis, 0, len(r.byID))
	for _, a := range r.byID {
		all = append(all, a)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})

	if offset >= len(all) {
		return []Analysis{}, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

var _ Repo = (*MemoryRepo)(nil)
