// Package ingestrun persists the per-provider-call audit trail of ad
// ingestion. Rows here are the externally visible record of what each run
// did; consumers poll this table instead of receiving push notifications.
package ingestrun

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const columns = "id, research_run_id, brand_channel_identity_id, channel, status, status_reason, is_partial, item_count, error_count, error_text, provider_run_id, provider_dataset_id, started_at, finished_at, created_at, updated_at"

// Repository handles ad ingest run persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new ad ingest run repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Start records the beginning of one provider-call attempt.
func (r *Repository) Start(ctx context.Context, researchRunID, brandChannelIdentityID *string, channel string) (*models.AdIngestRun, error) {
	ctx, span := tracing.StartSpan(ctx, "ingestrun.Repository.Start")
	defer span.End()

	now := time.Now().UTC()
	id := uuid.New().String()

	query := `
		INSERT INTO ad_ingest_runs (
			id, research_run_id, brand_channel_identity_id, channel, status,
			is_partial, item_count, error_count, started_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, false, 0, 0, $6, $7, $8)
		RETURNING ` + columns + `
	`

	var run models.AdIngestRun
	err := database.Q(ctx, r.db).GetContext(ctx, &run, query,
		id, researchRunID, brandChannelIdentityID, channel, models.IngestRunRunning, now, now, now,
	)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"channel": channel}).Error("Failed to start ad ingest run")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to start ad ingest run")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"id": run.ID, "channel": channel}).Info("Started ad ingest run")
	return &run, nil
}

// FinishParams records the outcome of one run.
type FinishParams struct {
	Status            string
	StatusReason      *string
	IsPartial         bool
	ItemCount         int
	ErrorCount        int
	ErrorText         *string
	ProviderRunID     *string
	ProviderDatasetID *string
}

// Finish closes a run with its final status and counters.
func (r *Repository) Finish(ctx context.Context, id string, params FinishParams) (*models.AdIngestRun, error) {
	ctx, span := tracing.StartSpan(ctx, "ingestrun.Repository.Finish")
	defer span.End()

	now := time.Now().UTC()

	query := `
		UPDATE ad_ingest_runs SET
			status = $2,
			status_reason = $3,
			is_partial = $4,
			item_count = $5,
			error_count = $6,
			error_text = $7,
			provider_run_id = COALESCE($8, provider_run_id),
			provider_dataset_id = COALESCE($9, provider_dataset_id),
			finished_at = $10,
			updated_at = $10
		WHERE id = $1
		RETURNING ` + columns + `
	`

	var run models.AdIngestRun
	err := database.Q(ctx, r.db).GetContext(ctx, &run, query,
		id, params.Status, params.StatusReason, params.IsPartial,
		params.ItemCount, params.ErrorCount, params.ErrorText,
		params.ProviderRunID, params.ProviderDatasetID, now,
	)
	if err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "ad ingest run %s not found", id)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id, "status": params.Status}).Error("Failed to finish ad ingest run")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to finish ad ingest run")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":          run.ID,
		"status":      run.Status,
		"item_count":  run.ItemCount,
		"error_count": run.ErrorCount,
	}).Info("Finished ad ingest run")
	return &run, nil
}

// Get retrieves an ingest run by ID. Returns nil when no row exists.
func (r *Repository) Get(ctx context.Context, id string) (*models.AdIngestRun, error) {
	ctx, span := tracing.StartSpan(ctx, "ingestrun.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("ad_ingest_runs")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var run models.AdIngestRun
	if err := database.Q(ctx, r.db).GetContext(ctx, &run, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to get ad ingest run")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get ad ingest run")
	}

	return &run, nil
}

// List retrieves ingest runs, optionally filtered by research run, newest
// first.
func (r *Repository) List(ctx context.Context, researchRunID *string, page, pageSize int) ([]models.AdIngestRun, int, error) {
	ctx, span := tracing.StartSpan(ctx, "ingestrun.Repository.List")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	countSb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	countSb.Select("COUNT(*)")
	countSb.From("ad_ingest_runs")
	if researchRunID != nil {
		countSb.Where(countSb.Equal("research_run_id", *researchRunID))
	}

	countQuery, countArgs := countSb.Build()
	var totalCount int
	if err := database.Q(ctx, r.db).GetContext(ctx, &totalCount, countQuery, countArgs...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"research_run_id": researchRunID}).Error("Failed to count ad ingest runs")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count ad ingest runs")
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("ad_ingest_runs")
	if researchRunID != nil {
		sb.Where(sb.Equal("research_run_id", *researchRunID))
	}
	sb.OrderBy("started_at DESC")
	sb.Limit(pageSize).Offset(offset)

	query, args := sb.Build()
	var runs []models.AdIngestRun
	if err := database.Q(ctx, r.db).SelectContext(ctx, &runs, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"research_run_id": researchRunID, "page": page}).Error("Failed to list ad ingest runs")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list ad ingest runs")
	}

	return runs, totalCount, nil
}
