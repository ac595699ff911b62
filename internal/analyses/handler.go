package analyses

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"keywordgap-backend/internal/gapengine"
	"keywordgap-backend/internal/shared/server/middleware"
	"keywordgap-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the analyses service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analyses", h.startAnalysis)
	rg.GET("/analyses", h.listAnalyses)
	rg.GET("/analyses/:id", h.getAnalysis)
}

type businessContextRequest struct {
	Industry         string   `json:"industry"`
	Niche            string   `json:"niche"`
	Services         []string `json:"services"`
	Products         []string `json:"products"`
	TargetLocations  []string `json:"targetLocations"`
	BrandKeywords    []string `json:"brandKeywords"`
	ExcludedKeywords []string `json:"excludedKeywords"`
}

type startAnalysisRequest struct {
	OwnURL          string                  `json:"ownUrl"`
	CompetitorURLs  []string                `json:"competitorUrls"`
	BusinessContext *businessContextRequest `json:"businessContext"`
}

func (h *Handler) startAnalysis(c *gin.Context) {
	var req startAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if req.BusinessContext == nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "businessContext is required", []map[string]string{
			{"field": "businessContext", "issue": "required"},
		})
		return
	}

	biz := gapengine.NewBusinessContext(
		req.BusinessContext.Industry,
		req.BusinessContext.Niche,
		req.BusinessContext.Services,
		req.BusinessContext.Products,
		req.BusinessContext.TargetLocations,
		req.BusinessContext.BrandKeywords,
		req.BusinessContext.ExcludedKeywords,
	)

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	analysis, err := h.Svc.Create(ctx, req.OwnURL, req.CompetitorURLs, biz)
	if err != nil {
		switch {
		case errors.Is(err, ErrTooManyCompetitors):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), []map[string]string{
				{"field": "competitorUrls", "issue": "too_many"},
			})
		case classifyFailure(err) == ErrorCodeValidation:
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to start analysis", nil)
		}
		return
	}

	c.Set("analysisId", analysis.ID)
	c.Set("statusTransition", "->queued")
	respond.Accepted(c, gin.H{
		"analysisId": analysis.ID,
		"status":     analysis.Status,
	})
}

func (h *Handler) getAnalysis(c *gin.Context) {
	analysisID := c.Param("id")
	if analysisID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "analysis id is required", nil)
		return
	}

	analysis, err := h.Svc.Get(c.Request.Context(), analysisID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "analysis not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch analysis", nil)
		}
		return
	}

	c.Set("analysisId", analysis.ID)
	resp := gin.H{
		"id":     analysis.ID,
		"status": analysis.Status,
		"ownUrl": analysis.OwnURL,
	}
	if analysis.Status == StatusCompleted {
		resp["totalOpportunities"] = analysis.TotalOpportunities
		if analysis.Result != nil {
			resp["result"] = analysis.Result
		}
		if analysis.FailureReason != "" {
			resp["failureReason"] = analysis.FailureReason
		}
		if analysis.ArtifactPath != "" {
			resp["artifactPath"] = analysis.ArtifactPath
		}
	}
	if analysis.Status == StatusFailed {
		resp["errorCode"] = analysis.ErrorCode
		if analysis.ErrorMessage != nil {
			resp["errorMessage"] = *analysis.ErrorMessage
		}
	}

	respond.OK(c, resp)
}

func (h *Handler) listAnalyses(c *gin.Context) {
	limit := 20
	offset := 0

	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit < 0 {
		limit = 0
	}

	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}

	analyses, err := h.Svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list analyses", nil)
		return
	}

	resp := make([]gin.H, 0, len(analyses))
	for _, a := range analyses {
		item := gin.H{
			"analysisId": a.ID,
			"ownUrl":     a.OwnURL,
			"status":     a.Status,
			"createdAt":  a.CreatedAt,
		}
		if a.Status == StatusCompleted {
			item["totalOpportunities"] = a.TotalOpportunities
			if a.FailureReason != "" {
				item["failureReason"] = a.FailureReason
			}
		}
		resp = append(resp, item)
	}

	respond.OK(c, resp)
}
