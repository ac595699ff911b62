package analyses

import (
	"time"

	"keywordgap-backend/internal/gapengine"
)

// Analysis represents a keyword gap analysis job.
type Analysis struct {
	ID                 string                     `json:"id"`
	Status             string                     `json:"status"`
	OwnURL             string                     `json:"ownUrl"`
	CompetitorURLs     []string                   `json:"competitorUrls"`
	BusinessContext    *gapengine.BusinessContext `json:"businessContext,omitempty"`
	Result             map[string]any             `json:"result,omitempty"`
	ArtifactPath       string                     `json:"artifactPath,omitempty"`
	FailureReason      string                     `json:"failureReason,omitempty"`
	TotalOpportunities int                        `json:"totalOpportunities"`
	ErrorCode          string                     `json:"errorCode,omitempty"`
	ErrorMessage       *string                    `json:"errorMessage,omitempty"`
	CreatedAt          time.Time                  `json:"createdAt"`
	UpdatedAt          time.Time                  `json:"updatedAt"`
	StartedAt          *time.Time                 `json:"startedAt,omitempty"`
	CompletedAt        *time.Time                 `json:"completedAt,omitempty"`
}
