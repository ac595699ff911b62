package analyses

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"reflect"
	"time"

	"keywordgap-backend/internal/gapengine"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new analysis.
func (r *PGRepo) Create(ctx context.Context, analysis Analysis) error {
	const query = `
INSERT INTO gap_analyses (
	id, status, own_url, competitor_urls, business_context, result,
	artifact_path, failure_reason, error_code, error_message, total_opportunities, created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	competitorsPayload, err := marshalJSONB(analysis.CompetitorURLs)
	if err != nil {
		return err
	}
	contextPayload, err := marshalJSONB(analysis.BusinessContext)
	if err != nil {
		return err
	}
	resultPayload, err := marshalJSONB(analysis.Result)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		analysis.ID,
		analysis.Status,
		analysis.OwnURL,
		competitorsPayload,
		contextPayload,
		resultPayload,
		analysis.ArtifactPath,
		analysis.FailureReason,
		analysis.ErrorCode,
		analysis.ErrorMessage,
		analysis.TotalOpportunities,
		analysis.CreatedAt,
	)
	return err
}

// GetByID returns an analysis by ID.
func (r *PGRepo) GetByID(ctx context.Context, analysisID string) (Analysis, error) {
	const query = `
SELECT id, status, own_url, competitor_urls, business_context, result,
       artifact_path, failure_reason, error_code, error_message, total_opportunities,
       created_at, updated_at, started_at, completed_at
FROM gap_analyses
WHERE id = $1
LIMIT 1`
	var a Analysis
	var competitors sql.NullString
	var businessContext sql.NullString
	var result sql.NullString
	var artifactPath sql.NullString
	var failureReason sql.NullString
	var errorCode sql.NullString
	var errorMessage sql.NullString
	var startedAt sql.NullTime
	var completedAt sql.NullTime
	err := r.DB.QueryRowContext(ctx, query, analysisID).Scan(
		&a.ID,
		&a.Status,
		&a.OwnURL,
		&competitors,
		&businessContext,
		&result,
		&artifactPath,
		&failureReason,
		&errorCode,
		&errorMessage,
		&a.TotalOpportunities,
		&a.CreatedAt,
		&a.UpdatedAt,
		&startedAt,
		&completedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Analysis{}, ErrNotFound
		}
		return Analysis{}, err
	}
	if competitors.Valid {
		if err := json.Unmarshal([]byte(competitors.String), &a.CompetitorURLs); err != nil {
			a.CompetitorURLs = nil
		}
	}
	if businessContext.Valid {
		a.BusinessContext = &gapengine.BusinessContext{}
		if err := json.Unmarshal([]byte(businessContext.String), a.BusinessContext); err != nil {
			a.BusinessContext = nil
		}
	}
	if result.Valid {
		a.Result = map[string]any{}
		if err := json.Unmarshal([]byte(result.String), &a.Result); err != nil {
			a.Result = nil
		}
	}
	if artifactPath.Valid {
		a.ArtifactPath = artifactPath.String
	}
	if failureReason.Valid {
		a.FailureReason = failureReason.String
	}
	if errorCode.Valid {
		a.ErrorCode = errorCode.String
	}
	if errorMessage.Valid {
		a.ErrorMessage = &errorMessage.String
	}
	if startedAt.Valid {
		a.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		a.CompletedAt = &completedAt.Time
	}
	return a, nil
}

// UpdateStatusResultAndError updates status/result/error fields and timestamps.
func (r *PGRepo) UpdateStatusResultAndError(ctx context.Context, analysisID, status string, result map[string]any, errorCode, errorMessage *string, startedAt, completedAt *time.Time) error {
	const query = `
UPDATE gap_analyses
SET status = $1,
    result = COALESCE($2::jsonb, result),
    error_code = COALESCE($3::text, error_code),
    error_message = COALESCE($4::text, error_message),
    started_at = CASE
        WHEN $5::timestamptz IS NOT NULL THEN $5::timestamptz
        WHEN $1 = 'processing' AND started_at IS NULL THEN now()
        ELSE started_at
    END,
    completed_at = CASE
        WHEN $6::timestamptz IS NOT NULL THEN $6::timestamptz
        WHEN ($1 = 'completed' OR $1 = 'failed') AND completed_at IS NULL THEN now()
        ELSE completed_at
    END,
    updated_at = now()
WHERE id = $7::uuid`

	var payload any
	var err error
	if result != nil {
		payload, err = json.Marshal(result)
		if err != nil {
			return err
		}
	}

	res, err := r.DB.ExecContext(ctx, query, status, payload, errorCode, errorMessage, startedAt, completedAt, analysisID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateResult marks the analysis completed and records the result payload.
func (r *PGRepo) UpdateResult(ctx context.Context, analysisID string, result map[string]any, artifactPath, failureReason string, totalOpportunities int, completedAt *time.Time) error {
	const query = `
UPDATE gap_analyses
SET status = 'completed',
    result = $1::jsonb,
    artifact_path = NULLIF($2::text, ''),
    failure_reason = NULLIF($3::text, ''),
    total_opportunities = $4,
    completed_at = COALESCE($5::timestamptz, completed_at, now()),
    updated_at = now()
WHERE id = $6::uuid`

	payload, err := marshalJSONB(result)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, query, payload, artifactPath, failureReason, totalOpportunities, completedAt, analysisID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns analyses, newest first, with limit/offset.
func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]Analysis, error) {
	const query = `
SELECT id, status, own_url, total_opportunities, failure_reason, created_at, completed_at
FROM gap_analyses
ORDER BY created_at DESC, id DESC
LIMIT $1 OFFSET $2`
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	analyses := []Analysis{}
	for rows.Next() {
		var a Analysis
		var failureReason sql.NullString
		var completedAt sql.NullTime
		if err := rows.Scan(&a.ID, &a.Status, &a.OwnURL, &a.TotalOpportunities, &failureReason, &a.CreatedAt, &completedAt); err != nil {
			return nil, err
		}
		if failureReason.Valid {
			a.FailureReason = failureReason.String
		}
		if completedAt.Valid {
			a.CompletedAt = &completedAt.Time
		}
		analyses = append(analyses, a)
	}
	return analyses, rows.Err()
}

// marshalJSONB renders v for a jsonb column. Nil values, including typed
// nils boxed in the interface (a nil map or pointer field), land as SQL
// NULL rather than jsonb 'null'.
func marshalJSONB(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Map, reflect.Pointer, reflect.Slice:
		if rv.IsNil() {
			return nil, nil
		}
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return payload, nil
}

var _ Repo = (*PGRepo)(nil)
