package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

const (
	JobTypeProduct    = "product"
	JobTypeCmsPage    = "cms_page"
	JobTypeSnippetSet = "snippet_set"
)

// Job tracks one asynchronous translation request. The API returns the job on
// POST /api/v1/translate/...; clients poll GET /api/v1/jobs/{jobID} until it
// reaches completed or failed.
type Job struct {
	ID                uuid.UUID       `db:"id"                  json:"id"`
	Type              string          `db:"type"                json:"type"`
	EntityID          string          `db:"entity_id"           json:"entity_id"`
	TargetLanguageIDs []uuid.UUID     `db:"target_language_ids" json:"target_language_ids"`
	Params            json.RawMessage `db:"params"              json:"params,omitempty"`
	Status            string          `db:"status"              json:"status"`
	Result            json.RawMessage `db:"result"              json:"result,omitempty"`
	StartedAt         *time.Time      `db:"started_at"          json:"started_at,omitempty"`
	FinishedAt        *time.Time      `db:"finished_at"         json:"finished_at,omitempty"`
	CreatedAt         time.Time       `db:"created_at"          json:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at"          json:"updated_at"`
}

// Terminal reports whether the job can no longer change status.
func (j *Job) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
