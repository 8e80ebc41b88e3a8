package api

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pressbot/pressbot/internal/report"
	"github.com/pressbot/pressbot/pkg/errors"
)

// RunStore is the report-store slice the dashboard reads from
type RunStore interface {
	ListRuns(ctx context.Context, limit int) ([]report.RunSummary, error)
	GetRun(ctx context.Context, runID string) (*report.RunSummary, []report.StageRow, error)
}

// ReportsHandler serves stored pipeline run reports
type ReportsHandler struct {
	store RunStore
}

// NewReportsHandler creates a reports handler
func NewReportsHandler(store RunStore) *ReportsHandler {
	return &ReportsHandler{store: store}
}

// StageResponse is one stage of a run detail response
type StageResponse struct {
	StageName  string `json:"stage_name"`
	Status     string `json:"status"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// RunDetailResponse is a run with its stage results
type RunDetailResponse struct {
	report.RunSummary
	Stages []StageResponse `json:"stages"`
}

// ListRuns returns the most recent pipeline runs
func (h *ReportsHandler) ListRuns(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			ErrorResponse(c, errors.NewValidationError("limit must be an integer between 1 and 100"))
			return
		}
		limit = parsed
	}

	runs, err := h.store.ListRuns(c.Request.Context(), limit)
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, gin.H{"runs": runs, "count": len(runs)})
}

// GetRun returns one run with its stage results
func (h *ReportsHandler) GetRun(c *gin.Context) {
	runID := c.Param("id")

	run, stages, err := h.store.GetRun(c.Request.Context(), runID)
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	detail := RunDetailResponse{
		RunSummary: *run,
		Stages:     make([]StageResponse, 0, len(stages)),
	}
	for _, stage := range stages {
		detail.Stages = append(detail.Stages, StageResponse{
			StageName:  stage.StageName,
			Status:     stage.Status,
			DurationMS: stage.DurationMS,
			Error:      stage.Error.String,
		})
	}
	SuccessResponse(c, detail)
}
