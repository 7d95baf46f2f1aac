// Package channelidentity persists a brand's presence on one ad channel.
package channelidentity

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

// Repository handles brand channel identity persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new brand channel identity repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// UpsertResult contains the resolved identity and whether the row was created.
type UpsertResult struct {
	Identity *models.BrandChannelIdentity
	IsNew    bool
}

// Upsert resolves a channel identity sighting. The identity key is
// (brand_id, channel, external_id) when the provider reports a stable id,
// falling back to (brand_id, channel, external_url). On conflict, metadata
// keys fill gaps only (existing keys win), display_name fills when null, and
// verification_status only ever moves forward to verified.
func (r *Repository) Upsert(ctx context.Context, req models.UpsertBrandChannelIdentityRequest) (*UpsertResult, error) {
	ctx, span := tracing.StartSpan(ctx, "channelidentity.Repository.Upsert")
	defer span.End()

	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"brand_id": req.BrandID,
		"channel":  req.Channel,
	})

	if (req.ExternalID == nil || *req.ExternalID == "") && (req.ExternalURL == nil || *req.ExternalURL == "") {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "channel identity requires an external id or url")
	}

	status := req.VerificationStatus
	if status == "" {
		status = models.VerificationUnverified
	}

	now := time.Now().UTC()
	id := uuid.New().String()

	var conflictTarget string
	if req.ExternalID != nil && *req.ExternalID != "" {
		conflictTarget = "(brand_id, channel, external_id) WHERE external_id IS NOT NULL"
	} else {
		conflictTarget = "(brand_id, channel, external_url) WHERE external_id IS NULL"
	}

	query := `
		INSERT INTO brand_channel_identities (
			id, brand_id, channel, external_id, external_url, display_name,
			verification_status, metadata, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT ` + conflictTarget + `
		DO UPDATE SET
			external_url = COALESCE(brand_channel_identities.external_url, EXCLUDED.external_url),
			display_name = COALESCE(brand_channel_identities.display_name, EXCLUDED.display_name),
			verification_status = CASE
				WHEN brand_channel_identities.verification_status = 'verified' THEN brand_channel_identities.verification_status
				ELSE EXCLUDED.verification_status
			END,
			metadata = COALESCE(EXCLUDED.metadata, '{}'::jsonb) || COALESCE(brand_channel_identities.metadata, '{}'::jsonb),
			updated_at = EXCLUDED.updated_at
		RETURNING
			id, brand_id, channel, external_id, external_url, display_name,
			verification_status, metadata, created_at, updated_at,
			(xmax = 0) AS inserted
	`

	var result struct {
		models.BrandChannelIdentity
		Inserted bool `db:"inserted"`
	}

	err := database.Q(ctx, r.db).GetContext(ctx, &result, query,
		id, req.BrandID, req.Channel, req.ExternalID, req.ExternalURL, req.DisplayName,
		status, []byte(req.Metadata), now, now,
	)
	if err != nil {
		log.WithError(err).Error("Failed to upsert brand channel identity")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert brand channel identity")
	}

	if result.Inserted {
		log.WithFields(map[string]any{"id": result.ID}).Info("Created brand channel identity")
	}
	return &UpsertResult{Identity: &result.BrandChannelIdentity, IsNew: result.Inserted}, nil
}

// Get retrieves a channel identity by ID. Returns nil when no row exists.
func (r *Repository) Get(ctx context.Context, id string) (*models.BrandChannelIdentity, error) {
	ctx, span := tracing.StartSpan(ctx, "channelidentity.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "brand_id", "channel", "external_id", "external_url", "display_name", "verification_status", "metadata", "created_at", "updated_at")
	sb.From("brand_channel_identities")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var identity models.BrandChannelIdentity
	if err := database.Q(ctx, r.db).GetContext(ctx, &identity, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to get brand channel identity")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get brand channel identity")
	}

	return &identity, nil
}

// ListByBrand retrieves all channel identities for a brand.
func (r *Repository) ListByBrand(ctx context.Context, brandID string) ([]models.BrandChannelIdentity, error) {
	ctx, span := tracing.StartSpan(ctx, "channelidentity.Repository.ListByBrand")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "brand_id", "channel", "external_id", "external_url", "display_name", "verification_status", "metadata", "created_at", "updated_at")
	sb.From("brand_channel_identities")
	sb.Where(sb.Equal("brand_id", brandID))
	sb.OrderBy("channel", "created_at")

	query, args := sb.Build()
	var identities []models.BrandChannelIdentity
	if err := database.Q(ctx, r.db).SelectContext(ctx, &identities, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"brand_id": brandID}).Error("Failed to list brand channel identities")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list brand channel identities")
	}

	return identities, nil
}
