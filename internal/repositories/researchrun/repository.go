// Package researchrun persists research runs and their brand scope.
package researchrun

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

// Repository handles research run persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new research run repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a research run in the pending state.
func (r *Repository) Create(ctx context.Context, orgID, productID string) (*models.ResearchRun, error) {
	ctx, span := tracing.StartSpan(ctx, "researchrun.Repository.Create")
	defer span.End()

	now := time.Now().UTC()
	id := uuid.New().String()

	query := `
		INSERT INTO research_runs (id, org_id, product_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, org_id, product_id, status, created_at, updated_at
	`

	var run models.ResearchRun
	err := database.Q(ctx, r.db).GetContext(ctx, &run, query,
		id, orgID, productID, models.ResearchRunPending, now, now,
	)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"org_id": orgID, "product_id": productID}).Error("Failed to create research run")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create research run")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"id": run.ID}).Info("Created research run")
	return &run, nil
}

// Get retrieves a research run by ID. Returns nil when no row exists.
func (r *Repository) Get(ctx context.Context, orgID, id string) (*models.ResearchRun, error) {
	ctx, span := tracing.StartSpan(ctx, "researchrun.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "org_id", "product_id", "status", "created_at", "updated_at")
	sb.From("research_runs")
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("org_id", orgID),
	)

	query, args := sb.Build()
	var run models.ResearchRun
	if err := database.Q(ctx, r.db).GetContext(ctx, &run, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id, "org_id": orgID}).Error("Failed to get research run")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get research run")
	}

	return &run, nil
}

// SetStatus moves a research run to a new status.
func (r *Repository) SetStatus(ctx context.Context, id, status string) error {
	ctx, span := tracing.StartSpan(ctx, "researchrun.Repository.SetStatus")
	defer span.End()

	now := time.Now().UTC()
	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("research_runs")
	sb.Set(
		sb.Assign("status", status),
		sb.Assign("updated_at", now),
	)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	result, err := database.Q(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id, "status": status}).Error("Failed to update research run status")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update research run")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "research run %s not found", id)
	}
	return nil
}

// AddBrand idempotently links a brand into the run's scope.
func (r *Repository) AddBrand(ctx context.Context, researchRunID, brandID string) (*models.ResearchRunBrand, error) {
	ctx, span := tracing.StartSpan(ctx, "researchrun.Repository.AddBrand")
	defer span.End()

	now := time.Now().UTC()
	id := uuid.New().String()

	query := `
		INSERT INTO research_run_brands (id, research_run_id, brand_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (research_run_id, brand_id)
		DO UPDATE SET brand_id = EXCLUDED.brand_id
		RETURNING id, research_run_id, brand_id, created_at
	`

	var runBrand models.ResearchRunBrand
	err := database.Q(ctx, r.db).GetContext(ctx, &runBrand, query, id, researchRunID, brandID, now)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"research_run_id": researchRunID,
			"brand_id":        brandID,
		}).Error("Failed to add brand to research run")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to add brand to research run")
	}

	return &runBrand, nil
}

// ListBrands retrieves the brands in a run's scope.
func (r *Repository) ListBrands(ctx context.Context, researchRunID string) ([]models.ResearchRunBrand, error) {
	ctx, span := tracing.StartSpan(ctx, "researchrun.Repository.ListBrands")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "research_run_id", "brand_id", "created_at")
	sb.From("research_run_brands")
	sb.Where(sb.Equal("research_run_id", researchRunID))
	sb.OrderBy("created_at")

	query, args := sb.Build()
	var brands []models.ResearchRunBrand
	if err := database.Q(ctx, r.db).SelectContext(ctx, &brands, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"research_run_id": researchRunID}).Error("Failed to list research run brands")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list research run brands")
	}

	return brands, nil
}
