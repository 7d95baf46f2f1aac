// Package adfacts persists the denormalized per-ad fact projection.
package adfacts

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const columns = "ad_id, org_id, brand_id, channel, country_codes, language_codes, media_types, media_count, display_format, days_active, start_date, video_length_seconds, has_headline, has_cta, created_at, updated_at"

// Repository handles ad facts persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new ad facts repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Upsert replaces the fact row for an ad. Facts are a pure projection, so
// every column takes the incoming value; redundant calls converge instead of
// accumulating.
func (r *Repository) Upsert(ctx context.Context, facts models.AdFacts) (*models.AdFacts, error) {
	ctx, span := tracing.StartSpan(ctx, "adfacts.Repository.Upsert")
	defer span.End()

	now := time.Now().UTC()

	query := `
		INSERT INTO ad_facts (
			ad_id, org_id, brand_id, channel, country_codes, language_codes,
			media_types, media_count, display_format, days_active, start_date,
			video_length_seconds, has_headline, has_cta, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (ad_id)
		DO UPDATE SET
			country_codes = EXCLUDED.country_codes,
			language_codes = EXCLUDED.language_codes,
			media_types = EXCLUDED.media_types,
			media_count = EXCLUDED.media_count,
			display_format = EXCLUDED.display_format,
			days_active = EXCLUDED.days_active,
			start_date = EXCLUDED.start_date,
			video_length_seconds = EXCLUDED.video_length_seconds,
			has_headline = EXCLUDED.has_headline,
			has_cta = EXCLUDED.has_cta,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + columns + `
	`

	var result models.AdFacts
	err := database.Q(ctx, r.db).GetContext(ctx, &result, query,
		facts.AdID, facts.OrgID, facts.BrandID, facts.Channel,
		facts.CountryCodes, facts.LanguageCodes, facts.MediaTypes,
		facts.MediaCount, facts.DisplayFormat, facts.DaysActive,
		facts.StartDate, facts.VideoLengthSeconds,
		facts.HasHeadline, facts.HasCTA, now, now,
	)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"ad_id": facts.AdID}).Error("Failed to upsert ad facts")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert ad facts")
	}

	return &result, nil
}

// Get retrieves the fact row for an ad. Returns nil when no row exists.
func (r *Repository) Get(ctx context.Context, adID string) (*models.AdFacts, error) {
	ctx, span := tracing.StartSpan(ctx, "adfacts.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("ad_facts")
	sb.Where(sb.Equal("ad_id", adID))

	query, args := sb.Build()
	var facts models.AdFacts
	if err := database.Q(ctx, r.db).GetContext(ctx, &facts, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"ad_id": adID}).Error("Failed to get ad facts")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get ad facts")
	}

	return &facts, nil
}
