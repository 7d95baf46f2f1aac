// Package ad persists advertisement rows and their media links. Ads are
// unique per (channel, external_ad_id) and are never deleted by ingestion.
package ad

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

const columns = "id, org_id, brand_id, brand_channel_identity_id, channel, external_ad_id, ad_status, started_running_at, ended_running_at, first_seen_at, last_seen_at, body_text, headline, description, cta_type, cta_text, landing_url, destination_domain, country_codes, language_codes, raw_json, created_at, updated_at"

// Repository handles ad persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new ad repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// UpsertResult contains the merged ad row and whether it was created.
type UpsertResult struct {
	Ad    *models.Ad
	IsNew bool
}

// Upsert inserts or merges an ad in a single atomic statement keyed on
// (channel, external_ad_id). Durable fields (copy, landing url, run start,
// first sighting) are first-non-null-wins; volatile fields (ad_status,
// last_seen_at, ended_running_at) always take the incoming value. raw_json
// keeps the last non-null payload.
func (r *Repository) Upsert(ctx context.Context, ad models.Ad) (*UpsertResult, error) {
	ctx, span := tracing.StartSpan(ctx, "ad.Repository.Upsert")
	defer span.End()

	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"org_id":         ad.OrgID,
		"brand_id":       ad.BrandID,
		"channel":        ad.Channel,
		"external_ad_id": ad.ExternalAdID,
	})

	now := time.Now().UTC()
	id := uuid.New().String()

	query := `
		INSERT INTO ads (
			id, org_id, brand_id, brand_channel_identity_id, channel, external_ad_id,
			ad_status, started_running_at, ended_running_at, first_seen_at, last_seen_at,
			body_text, headline, description, cta_type, cta_text,
			landing_url, destination_domain, country_codes, language_codes, raw_json,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
		ON CONFLICT (channel, external_ad_id)
		DO UPDATE SET
			brand_channel_identity_id = COALESCE(ads.brand_channel_identity_id, EXCLUDED.brand_channel_identity_id),
			ad_status = EXCLUDED.ad_status,
			started_running_at = COALESCE(ads.started_running_at, EXCLUDED.started_running_at),
			ended_running_at = EXCLUDED.ended_running_at,
			first_seen_at = COALESCE(ads.first_seen_at, EXCLUDED.first_seen_at),
			last_seen_at = EXCLUDED.last_seen_at,
			body_text = COALESCE(ads.body_text, EXCLUDED.body_text),
			headline = COALESCE(ads.headline, EXCLUDED.headline),
			description = COALESCE(ads.description, EXCLUDED.description),
			cta_type = COALESCE(ads.cta_type, EXCLUDED.cta_type),
			cta_text = COALESCE(ads.cta_text, EXCLUDED.cta_text),
			landing_url = COALESCE(ads.landing_url, EXCLUDED.landing_url),
			destination_domain = COALESCE(ads.destination_domain, EXCLUDED.destination_domain),
			country_codes = COALESCE(ads.country_codes, EXCLUDED.country_codes),
			language_codes = COALESCE(ads.language_codes, EXCLUDED.language_codes),
			raw_json = COALESCE(EXCLUDED.raw_json, ads.raw_json),
			updated_at = EXCLUDED.updated_at
		RETURNING ` + columns + `,
			(xmax = 0) AS inserted
	`

	var result struct {
		models.Ad
		Inserted bool `db:"inserted"`
	}

	err := database.Q(ctx, r.db).GetContext(ctx, &result, query,
		id, ad.OrgID, ad.BrandID, ad.BrandChannelIdentityID, ad.Channel, ad.ExternalAdID,
		ad.AdStatus, ad.StartedRunningAt, ad.EndedRunningAt, ad.FirstSeenAt, ad.LastSeenAt,
		ad.BodyText, ad.Headline, ad.Description, ad.CTAType, ad.CTAText,
		ad.LandingURL, ad.DestinationDomain, ad.CountryCodes, ad.LanguageCodes, []byte(ad.RawJSON),
		now, now,
	)
	if err != nil {
		log.WithError(err).Error("Failed to upsert ad")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert ad")
	}

	if result.Inserted {
		log.WithFields(map[string]any{"id": result.ID}).Info("Created ad")
	} else {
		log.WithFields(map[string]any{"id": result.ID}).Debug("Merged ad")
	}
	return &UpsertResult{Ad: &result.Ad, IsNew: result.Inserted}, nil
}

// Get retrieves an ad by ID. Returns nil when no row exists.
func (r *Repository) Get(ctx context.Context, id string) (*models.Ad, error) {
	ctx, span := tracing.StartSpan(ctx, "ad.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("ads")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var ad models.Ad
	if err := database.Q(ctx, r.db).GetContext(ctx, &ad, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to get ad")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get ad")
	}

	return &ad, nil
}

// GetByNaturalKey retrieves an ad by its provider identity. Returns nil when
// no row exists.
func (r *Repository) GetByNaturalKey(ctx context.Context, channel, externalAdID string) (*models.Ad, error) {
	ctx, span := tracing.StartSpan(ctx, "ad.Repository.GetByNaturalKey")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("ads")
	sb.Where(
		sb.Equal("channel", channel),
		sb.Equal("external_ad_id", externalAdID),
	)

	query, args := sb.Build()
	var ad models.Ad
	if err := database.Q(ctx, r.db).GetContext(ctx, &ad, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"channel": channel, "external_ad_id": externalAdID}).Error("Failed to get ad by natural key")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get ad")
	}

	return &ad, nil
}

// ListByBrand retrieves ads for a brand with pagination, newest first.
func (r *Repository) ListByBrand(ctx context.Context, orgID, brandID string, page, pageSize int) ([]models.Ad, int, error) {
	ctx, span := tracing.StartSpan(ctx, "ad.Repository.ListByBrand")
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
	countSb.From("ads")
	countSb.Where(
		countSb.Equal("org_id", orgID),
		countSb.Equal("brand_id", brandID),
	)

	countQuery, countArgs := countSb.Build()
	var totalCount int
	if err := database.Q(ctx, r.db).GetContext(ctx, &totalCount, countQuery, countArgs...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"org_id": orgID, "brand_id": brandID}).Error("Failed to count ads")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count ads")
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("ads")
	sb.Where(
		sb.Equal("org_id", orgID),
		sb.Equal("brand_id", brandID),
	)
	sb.OrderBy("last_seen_at DESC")
	sb.Limit(pageSize).Offset(offset)

	query, args := sb.Build()
	var ads []models.Ad
	if err := database.Q(ctx, r.db).SelectContext(ctx, &ads, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"org_id": orgID, "brand_id": brandID, "page": page, "page_size": pageSize}).Error("Failed to list ads")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list ads")
	}

	return ads, totalCount, nil
}
