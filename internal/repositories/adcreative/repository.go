// Package adcreative persists deduplicated creatives and the per-ad
// membership rows that point at them.
package adcreative

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

const columns = "id, org_id, brand_id, channel, fingerprint_algo, creative_fingerprint, copy_fingerprint, media_fingerprint, primary_media_asset_id, created_at, updated_at"

// Repository handles ad creative persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new ad creative repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// UpsertResult contains the resolved creative and whether it was created.
type UpsertResult struct {
	Creative *models.AdCreative
	IsNew    bool
}

// Upsert resolves a creative keyed on (org_id, brand_id, channel,
// fingerprint_algo, creative_fingerprint). On conflict the component
// fingerprints and primary asset are refreshed so the row always reflects
// the latest ad that produced this fingerprint.
func (r *Repository) Upsert(ctx context.Context, creative models.AdCreative) (*UpsertResult, error) {
	ctx, span := tracing.StartSpan(ctx, "adcreative.Repository.Upsert")
	defer span.End()

	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"org_id":               creative.OrgID,
		"brand_id":             creative.BrandID,
		"channel":              creative.Channel,
		"creative_fingerprint": creative.CreativeFingerprint,
	})

	now := time.Now().UTC()
	id := uuid.New().String()

	query := `
		INSERT INTO ad_creatives (
			id, org_id, brand_id, channel, fingerprint_algo, creative_fingerprint,
			copy_fingerprint, media_fingerprint, primary_media_asset_id,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (org_id, brand_id, channel, fingerprint_algo, creative_fingerprint)
		DO UPDATE SET
			copy_fingerprint = EXCLUDED.copy_fingerprint,
			media_fingerprint = EXCLUDED.media_fingerprint,
			primary_media_asset_id = EXCLUDED.primary_media_asset_id,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + columns + `,
			(xmax = 0) AS inserted
	`

	var result struct {
		models.AdCreative
		Inserted bool `db:"inserted"`
	}

	err := database.Q(ctx, r.db).GetContext(ctx, &result, query,
		id, creative.OrgID, creative.BrandID, creative.Channel,
		creative.FingerprintAlgo, creative.CreativeFingerprint,
		creative.CopyFingerprint, creative.MediaFingerprint,
		creative.PrimaryMediaAssetID, now, now,
	)
	if err != nil {
		log.WithError(err).Error("Failed to upsert ad creative")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert ad creative")
	}

	if result.Inserted {
		log.WithFields(map[string]any{"id": result.ID}).Info("Created ad creative")
	}
	return &UpsertResult{Creative: &result.AdCreative, IsNew: result.Inserted}, nil
}

// UpsertMembership points an ad at the creative it currently resolves to,
// overwriting any prior membership for that ad.
func (r *Repository) UpsertMembership(ctx context.Context, adID, adCreativeID string) (*models.AdCreativeMembership, error) {
	ctx, span := tracing.StartSpan(ctx, "adcreative.Repository.UpsertMembership")
	defer span.End()

	now := time.Now().UTC()

	query := `
		INSERT INTO ad_creative_memberships (ad_id, ad_creative_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (ad_id)
		DO UPDATE SET
			ad_creative_id = EXCLUDED.ad_creative_id,
			updated_at = EXCLUDED.updated_at
		RETURNING ad_id, ad_creative_id, created_at, updated_at
	`

	var membership models.AdCreativeMembership
	if err := database.Q(ctx, r.db).GetContext(ctx, &membership, query, adID, adCreativeID, now, now); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"ad_id":          adID,
			"ad_creative_id": adCreativeID,
		}).Error("Failed to upsert creative membership")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert creative membership")
	}

	return &membership, nil
}

// Get retrieves a creative by ID. Returns nil when no row exists.
func (r *Repository) Get(ctx context.Context, id string) (*models.AdCreative, error) {
	ctx, span := tracing.StartSpan(ctx, "adcreative.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("ad_creatives")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var creative models.AdCreative
	if err := database.Q(ctx, r.db).GetContext(ctx, &creative, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to get ad creative")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get ad creative")
	}

	return &creative, nil
}

// GetMembership retrieves the creative membership for an ad. Returns nil
// when the ad has no membership yet.
func (r *Repository) GetMembership(ctx context.Context, adID string) (*models.AdCreativeMembership, error) {
	ctx, span := tracing.StartSpan(ctx, "adcreative.Repository.GetMembership")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("ad_id", "ad_creative_id", "created_at", "updated_at")
	sb.From("ad_creative_memberships")
	sb.Where(sb.Equal("ad_id", adID))

	query, args := sb.Build()
	var membership models.AdCreativeMembership
	if err := database.Q(ctx, r.db).GetContext(ctx, &membership, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"ad_id": adID}).Error("Failed to get creative membership")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get creative membership")
	}

	return &membership, nil
}

// ListMemberAdIDs returns the ids of all ads currently resolving to a
// creative.
func (r *Repository) ListMemberAdIDs(ctx context.Context, adCreativeID string) ([]string, error) {
	ctx, span := tracing.StartSpan(ctx, "adcreative.Repository.ListMemberAdIDs")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("ad_id")
	sb.From("ad_creative_memberships")
	sb.Where(sb.Equal("ad_creative_id", adCreativeID))
	sb.OrderBy("ad_id")

	query, args := sb.Build()
	var adIDs []string
	if err := database.Q(ctx, r.db).SelectContext(ctx, &adIDs, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"ad_creative_id": adCreativeID}).Error("Failed to list creative members")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list creative members")
	}

	return adIDs, nil
}
