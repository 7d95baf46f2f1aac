// Package pagetotal persists idempotent snapshots of provider-reported
// aggregate counts.
package pagetotal

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

const columns = "id, research_run_id, brand_channel_identity_id, query_key, total_count, raw_payload, created_at, updated_at"

// Repository handles ad library page total persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new page total repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Upsert snapshots a provider-reported total. Re-snapshotting the same
// (research_run_id, brand_channel_identity_id, query_key) overwrites the
// count and payload instead of accumulating rows.
func (r *Repository) Upsert(ctx context.Context, req models.UpsertPageTotalRequest) (*models.AdLibraryPageTotal, error) {
	ctx, span := tracing.StartSpan(ctx, "pagetotal.Repository.Upsert")
	defer span.End()

	now := time.Now().UTC()
	id := uuid.New().String()

	query := `
		INSERT INTO ad_library_page_totals (
			id, research_run_id, brand_channel_identity_id, query_key,
			total_count, raw_payload, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (research_run_id, brand_channel_identity_id, query_key)
		DO UPDATE SET
			total_count = EXCLUDED.total_count,
			raw_payload = EXCLUDED.raw_payload,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + columns + `
	`

	var total models.AdLibraryPageTotal
	err := database.Q(ctx, r.db).GetContext(ctx, &total, query,
		id, req.ResearchRunID, req.BrandChannelIdentityID, req.QueryKey,
		req.TotalCount, []byte(req.RawPayload), now, now,
	)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"research_run_id":           req.ResearchRunID,
			"brand_channel_identity_id": req.BrandChannelIdentityID,
			"query_key":                 req.QueryKey,
		}).Error("Failed to upsert page total")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert page total")
	}

	return &total, nil
}

// ListByRun retrieves all snapshots for a research run.
func (r *Repository) ListByRun(ctx context.Context, researchRunID string) ([]models.AdLibraryPageTotal, error) {
	ctx, span := tracing.StartSpan(ctx, "pagetotal.Repository.ListByRun")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("ad_library_page_totals")
	sb.Where(sb.Equal("research_run_id", researchRunID))
	sb.OrderBy("query_key")

	query, args := sb.Build()
	var totals []models.AdLibraryPageTotal
	if err := database.Q(ctx, r.db).SelectContext(ctx, &totals, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"research_run_id": researchRunID}).Error("Failed to list page totals")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list page totals")
	}

	return totals, nil
}
