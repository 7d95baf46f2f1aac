package models

import (
	"encoding/json"
	"time"
)

// Research run statuses.
const (
	ResearchRunPending   = "pending"
	ResearchRunRunning   = "running"
	ResearchRunCompleted = "completed"
	ResearchRunFailed    = "failed"
)

// ResearchRun scopes one investigation: a set of brands researched for one
// product. Ad ingest runs hang off a research run for traceability.
type ResearchRun struct {
	ID        string    `json:"id" db:"id"`
	OrgID     string    `json:"org_id" db:"org_id"`
	ProductID string    `json:"product_id" db:"product_id"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ResearchRunBrand links a brand into the scope of a research run.
// Unique per (research_run_id, brand_id).
type ResearchRunBrand struct {
	ID            string    `json:"id" db:"id"`
	ResearchRunID string    `json:"research_run_id" db:"research_run_id"`
	BrandID       string    `json:"brand_id" db:"brand_id"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// Ingest run statuses. "empty" is explicit so consumers can tell "provider
// returned nothing" apart from "all items failed to upsert".
const (
	IngestRunRunning   = "running"
	IngestRunSucceeded = "succeeded"
	IngestRunFailed    = "failed"
	IngestRunEmpty     = "empty"
)

// Reason codes recorded alongside an "empty" or "failed" status.
const (
	IngestReasonProviderEmpty  = "provider_empty"
	IngestReasonAllItemsFailed = "all_items_failed"
	IngestReasonProviderError  = "provider_error"
)

// AdIngestRun is one provider-call attempt for one brand channel identity.
// It is the externally visible audit trail of ingestion: consumers poll this
// table rather than receiving push notifications.
type AdIngestRun struct {
	ID                     string     `json:"id" db:"id"`
	ResearchRunID          *string    `json:"research_run_id,omitempty" db:"research_run_id"`
	BrandChannelIdentityID *string    `json:"brand_channel_identity_id,omitempty" db:"brand_channel_identity_id"`
	Channel                string     `json:"channel" db:"channel"`
	Status                 string     `json:"status" db:"status"`
	StatusReason           *string    `json:"status_reason,omitempty" db:"status_reason"`
	IsPartial              bool       `json:"is_partial" db:"is_partial"`
	ItemCount              int        `json:"item_count" db:"item_count"`
	ErrorCount             int        `json:"error_count" db:"error_count"`
	ErrorText              *string    `json:"error_text,omitempty" db:"error_text"`
	ProviderRunID          *string    `json:"provider_run_id,omitempty" db:"provider_run_id"`
	ProviderDatasetID      *string    `json:"provider_dataset_id,omitempty" db:"provider_dataset_id"`
	StartedAt              time.Time  `json:"started_at" db:"started_at"`
	FinishedAt             *time.Time `json:"finished_at,omitempty" db:"finished_at"`
	CreatedAt              time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at" db:"updated_at"`
}

// AdLibraryPageTotal is an idempotent point-in-time snapshot of a
// provider-reported aggregate count. Unique per (research_run_id,
// brand_channel_identity_id, query_key); re-snapshotting overwrites.
type AdLibraryPageTotal struct {
	ID                     string          `json:"id" db:"id"`
	ResearchRunID          string          `json:"research_run_id" db:"research_run_id"`
	BrandChannelIdentityID string          `json:"brand_channel_identity_id" db:"brand_channel_identity_id"`
	QueryKey               string          `json:"query_key" db:"query_key"`
	TotalCount             int             `json:"total_count" db:"total_count"`
	RawPayload             json.RawMessage `json:"raw_payload,omitempty" db:"raw_payload"`
	CreatedAt              time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at" db:"updated_at"`
}

// UpsertPageTotalRequest is the input for one page-total snapshot.
type UpsertPageTotalRequest struct {
	ResearchRunID          string          `json:"research_run_id" validate:"required"`
	BrandChannelIdentityID string          `json:"brand_channel_identity_id" validate:"required"`
	QueryKey               string          `json:"query_key" validate:"required"`
	TotalCount             int             `json:"total_count"`
	RawPayload             json.RawMessage `json:"raw_payload,omitempty"`
}
