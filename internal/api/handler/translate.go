package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/vivatura/translator/internal/api/response"
	"github.com/vivatura/translator/internal/jobs"
	"github.com/vivatura/translator/pkg/models"
)

// MaxBulkEntities bounds the entities accepted by one bulk request.
const MaxBulkEntities = 100

// JobEnqueuer starts background translation jobs.
type JobEnqueuer interface {
	Enqueue(ctx context.Context, req jobs.Request) (*models.Job, error)
}

type entityRequest struct {
	TargetLanguageIDs []uuid.UUID `json:"target_language_ids"`
	OverwriteExisting *bool       `json:"overwrite_existing"`
}

type acceptedJob struct {
	JobID  uuid.UUID `json:"job_id"`
	Status string    `json:"status"`
}

// NewTranslateEntityHandler returns an http.HandlerFunc that queues a product
// or CMS page job for the entity named by the URL parameter param.
func NewTranslateEntityHandler(q JobEnqueuer, jobType, param string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUUID(w, r, param)
		if !ok {
			return
		}

		var req entityRequest
		if !decodeBody(w, r, &req) {
			return
		}

		job, err := q.Enqueue(r.Context(), jobs.Request{
			Type:              jobType,
			EntityID:          id,
			TargetLanguageIDs: req.TargetLanguageIDs,
			OverwriteExisting: req.OverwriteExisting,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.Accepted(w, acceptedJob{JobID: job.ID, Status: job.Status})
	}
}

// bulkSummary is the answer to a bulk translate request. Failures maps entity
// ids to the reason their job could not be created.
type bulkSummary struct {
	Total    int                  `json:"total"`
	Success  int                  `json:"success"`
	Errors   int                  `json:"errors"`
	Jobs     map[string]uuid.UUID `json:"jobs"`
	Failures map[string]string    `json:"failures"`
}

// NewTranslateEntitiesHandler returns an http.HandlerFunc for the bulk
// variants: one job per entity. Entities that could not be queued are counted
// and listed under "failures" instead of failing the request.
func NewTranslateEntitiesHandler(q JobEnqueuer, jobType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			entityRequest
			IDs []uuid.UUID `json:"ids"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if len(req.IDs) == 0 {
			response.InvalidRequest(w, "ids is required")
			return
		}
		if len(req.IDs) > MaxBulkEntities {
			response.InvalidRequest(w, "too many ids")
			return
		}
		if len(req.TargetLanguageIDs) == 0 {
			response.InvalidRequest(w, "target_language_ids is required")
			return
		}

		queued := make(map[string]uuid.UUID, len(req.IDs))
		failed := map[string]string{}
		for _, id := range req.IDs {
			job, err := q.Enqueue(r.Context(), jobs.Request{
				Type:              jobType,
				EntityID:          id,
				TargetLanguageIDs: req.TargetLanguageIDs,
				OverwriteExisting: req.OverwriteExisting,
			})
			if err != nil {
				failed[id.String()] = err.Error()
				continue
			}
			queued[id.String()] = job.ID
		}

		summary := bulkSummary{
			Total:    len(req.IDs),
			Success:  len(queued),
			Errors:   len(failed),
			Jobs:     queued,
			Failures: failed,
		}
		if len(queued) == 0 {
			// Nothing runs in the background; the summary is the final answer.
			response.JSON(w, summary)
			return
		}
		response.Accepted(w, summary)
	}
}

// NewTranslateSnippetSetHandler returns an http.HandlerFunc for POST
// /api/v1/translate/snippet-sets.
func NewTranslateSnippetSetHandler(q JobEnqueuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			SourceSetID       uuid.UUID   `json:"source_set_id"`
			TargetSetID       uuid.UUID   `json:"target_set_id"`
			SnippetIDs        []uuid.UUID `json:"snippet_ids"`
			OverwriteExisting *bool       `json:"overwrite_existing"`
		}
		if !decodeBody(w, r, &req) {
			return
		}

		job, err := q.Enqueue(r.Context(), jobs.Request{
			Type:              models.JobTypeSnippetSet,
			EntityID:          req.SourceSetID,
			TargetSetID:       req.TargetSetID,
			SnippetIDs:        req.SnippetIDs,
			OverwriteExisting: req.OverwriteExisting,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.Accepted(w, acceptedJob{JobID: job.ID, Status: job.Status})
	}
}
