package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"whisper-api/internal/api/middleware"
	"whisper-api/internal/api/v1/dto"
	"whisper-api/internal/app/scheduler"
)

// HistoryReader lists recently executed jobs.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]scheduler.JobRecord, error)
}

// JobsHandler serves the job history.
type JobsHandler struct {
	history HistoryReader
}

// NewJobsHandler creates a new jobs handler
func NewJobsHandler(history HistoryReader) *JobsHandler {
	return &JobsHandler{history: history}
}

// List handles GET /jobs
func (h *JobsHandler) List(c *gin.Context) {
	var query dto.ListJobsQuery
	if err := middleware.ValidateQuery(c, &query); err != nil {
		middleware.HandleError(c, err)
		return
	}

	records, err := h.history.Recent(c.Request.Context(), query.Limit)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	jobs := make([]dto.JobResponse, 0, len(records))
	for _, r := range records {
		jobs = append(jobs, dto.NewJobResponse(r))
	}
	c.JSON(http.StatusOK, dto.ListJobsResponse{Jobs: jobs, Count: len(jobs)})
}
