package health

import (
	"context"
	"database/sql"
	"time"
)

// Service reports liveness plus the state of optional dependencies.
type Service struct {
	DB *sql.DB
}

// NewService constructs a health service. db may be nil when running on
// the in-memory repositories.
func NewService(db *sql.DB) *Service {
	return &Service{DB: db}
}

// Status returns the health payload. A failing database ping is reported
// but does not flip the overall ok flag; the API still serves from memory.
func (s *Service) Status(ctx context.Context) map[string]any {
	payload := map[string]any{"ok": true}
	if s.DB == nil {
		payload["database"] = "disabled"
		return payload
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.DB.PingContext(pingCtx); err != nil {
		payload["database"] = "unreachable"
		return payload
	}
	payload["database"] = "ok"
	return payload
}
