package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/vivatura/translator/internal/api/response"
	"github.com/vivatura/translator/pkg/models"
)

// MaxStatusQuery bounds the job ids accepted by one status query.
const MaxStatusQuery = 100

// JobReader reads job records.
type JobReader interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Job, error)
	Statuses(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Job, error)
}

// NewGetJobHandler returns an http.HandlerFunc for GET /api/v1/jobs/{jobID}.
func NewGetJobHandler(jr JobReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID, ok := pathUUID(w, r, "jobID")
		if !ok {
			return
		}

		job, err := jr.Get(r.Context(), jobID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, job)
	}
}

// JobStatusReader reads a job's status without its result.
type JobStatusReader interface {
	Status(ctx context.Context, id uuid.UUID) (status string, cached bool, err error)
}

// NewJobStatusHandler returns an http.HandlerFunc for GET
// /api/v1/jobs/{jobID}/status, the lightweight polling endpoint.
func NewJobStatusHandler(jr JobStatusReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID, ok := pathUUID(w, r, "jobID")
		if !ok {
			return
		}

		status, cached, err := jr.Status(r.Context(), jobID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, map[string]any{
			"job_id": jobID,
			"status": status,
			"cached": cached,
		})
	}
}

// NewJobStatusesHandler returns an http.HandlerFunc for POST
// /api/v1/jobs/status. Unknown ids map to null.
func NewJobStatusesHandler(jr JobReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			JobIDs []uuid.UUID `json:"job_ids"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if len(req.JobIDs) == 0 {
			response.InvalidRequest(w, "job_ids is required")
			return
		}
		if len(req.JobIDs) > MaxStatusQuery {
			response.InvalidRequest(w, fmt.Sprintf("at most %d job_ids per request", MaxStatusQuery))
			return
		}

		found, err := jr.Statuses(r.Context(), req.JobIDs)
		if err != nil {
			writeError(w, r, err)
			return
		}

		out := make(map[string]*models.Job, len(req.JobIDs))
		for _, id := range req.JobIDs {
			out[id.String()] = found[id]
		}
		response.JSON(w, out)
	}
}
