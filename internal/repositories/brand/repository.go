// Package brand persists org-scoped canonical brand identities.
package brand

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

// Repository handles brand persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new brand repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// UpsertResult contains the resolved brand and whether the row was created.
type UpsertResult struct {
	Brand *models.Brand
	IsNew bool
}

// Upsert resolves a brand sighting to exactly one row. When primaryDomain is
// known the identity is (org_id, primary_domain); otherwise the brand joins
// the domain-less namespace keyed by (org_id, normalized_name). On conflict,
// only currently-null fields are filled; canonical_name keeps its first
// value. Concurrent calls with the same identity converge on the same row
// via the unique index, not application locking.
func (r *Repository) Upsert(ctx context.Context, orgID, canonicalName, normalizedName string, websiteURL, primaryDomain *string) (*UpsertResult, error) {
	ctx, span := tracing.StartSpan(ctx, "brand.Repository.Upsert")
	defer span.End()

	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"org_id":          orgID,
		"normalized_name": normalizedName,
	})

	now := time.Now().UTC()
	id := uuid.New().String()

	var query string
	if primaryDomain != nil && *primaryDomain != "" {
		query = `
			INSERT INTO brands (
				id, org_id, canonical_name, normalized_name,
				primary_website_url, primary_domain, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (org_id, primary_domain) WHERE primary_domain IS NOT NULL
			DO UPDATE SET
				primary_website_url = COALESCE(brands.primary_website_url, EXCLUDED.primary_website_url),
				updated_at = EXCLUDED.updated_at
			RETURNING
				id, org_id, canonical_name, normalized_name, primary_website_url,
				primary_domain, created_at, updated_at,
				(xmax = 0) AS inserted
		`
	} else {
		query = `
			INSERT INTO brands (
				id, org_id, canonical_name, normalized_name,
				primary_website_url, primary_domain, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (org_id, normalized_name) WHERE primary_domain IS NULL
			DO UPDATE SET
				primary_website_url = COALESCE(brands.primary_website_url, EXCLUDED.primary_website_url),
				updated_at = EXCLUDED.updated_at
			RETURNING
				id, org_id, canonical_name, normalized_name, primary_website_url,
				primary_domain, created_at, updated_at,
				(xmax = 0) AS inserted
		`
	}

	var result struct {
		models.Brand
		Inserted bool `db:"inserted"`
	}

	err := database.Q(ctx, r.db).GetContext(ctx, &result, query,
		id, orgID, canonicalName, normalizedName, websiteURL, primaryDomain, now, now,
	)
	if err != nil {
		log.WithError(err).Error("Failed to upsert brand")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert brand")
	}

	if result.Inserted {
		log.WithFields(map[string]any{"id": result.ID}).Info("Created brand")
	}
	return &UpsertResult{Brand: &result.Brand, IsNew: result.Inserted}, nil
}

// Get retrieves a brand by ID. Returns nil when no row exists.
func (r *Repository) Get(ctx context.Context, orgID, id string) (*models.Brand, error) {
	ctx, span := tracing.StartSpan(ctx, "brand.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "org_id", "canonical_name", "normalized_name", "primary_website_url", "primary_domain", "created_at", "updated_at")
	sb.From("brands")
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("org_id", orgID),
	)

	query, args := sb.Build()
	var brand models.Brand
	if err := database.Q(ctx, r.db).GetContext(ctx, &brand, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id, "org_id": orgID}).Error("Failed to get brand")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get brand")
	}

	return &brand, nil
}

// GetByDomain retrieves a brand by its registrable domain. Returns nil when
// no row exists.
func (r *Repository) GetByDomain(ctx context.Context, orgID, primaryDomain string) (*models.Brand, error) {
	ctx, span := tracing.StartSpan(ctx, "brand.Repository.GetByDomain")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "org_id", "canonical_name", "normalized_name", "primary_website_url", "primary_domain", "created_at", "updated_at")
	sb.From("brands")
	sb.Where(
		sb.Equal("org_id", orgID),
		sb.Equal("primary_domain", primaryDomain),
	)
	sb.Limit(1)

	query, args := sb.Build()
	var brand models.Brand
	if err := database.Q(ctx, r.db).GetContext(ctx, &brand, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"org_id": orgID, "primary_domain": primaryDomain}).Error("Failed to get brand by domain")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get brand")
	}

	return &brand, nil
}

// List retrieves brands for an org with pagination, newest first.
func (r *Repository) List(ctx context.Context, orgID string, page, pageSize int) ([]models.Brand, int, error) {
	ctx, span := tracing.StartSpan(ctx, "brand.Repository.List")
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
	countSb.From("brands")
	countSb.Where(countSb.Equal("org_id", orgID))

	countQuery, countArgs := countSb.Build()
	var totalCount int
	if err := database.Q(ctx, r.db).GetContext(ctx, &totalCount, countQuery, countArgs...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"org_id": orgID}).Error("Failed to count brands")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count brands")
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "org_id", "canonical_name", "normalized_name", "primary_website_url", "primary_domain", "created_at", "updated_at")
	sb.From("brands")
	sb.Where(sb.Equal("org_id", orgID))
	sb.OrderBy("created_at DESC")
	sb.Limit(pageSize).Offset(offset)

	query, args := sb.Build()
	var brands []models.Brand
	if err := database.Q(ctx, r.db).SelectContext(ctx, &brands, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"org_id": orgID, "page": page, "page_size": pageSize}).Error("Failed to list brands")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list brands")
	}

	return brands, totalCount, nil
}
