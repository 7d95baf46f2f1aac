package ad

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// LinkedAsset is a media asset joined with its link to one ad.
type LinkedAsset struct {
	models.MediaAsset
	LinkRole     string    `db:"link_role"`
	LinkPosition int       `db:"link_position"`
	LinkedAt     time.Time `db:"linked_at"`
}

// LinkAsset idempotently joins an ad to a media asset. A duplicate
// (ad_id, media_asset_id) pair is a no-op; the original role and position
// are kept.
func (r *Repository) LinkAsset(ctx context.Context, adID, mediaAssetID, role string, position int) error {
	ctx, span := tracing.StartSpan(ctx, "ad.Repository.LinkAsset")
	defer span.End()

	query := `
		INSERT INTO ad_asset_links (ad_id, media_asset_id, role, position, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (ad_id, media_asset_id) DO NOTHING
	`

	now := time.Now().UTC()
	if _, err := database.Q(ctx, r.db).ExecContext(ctx, query, adID, mediaAssetID, role, position, now); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"ad_id":          adID,
			"media_asset_id": mediaAssetID,
			"role":           role,
		}).Error("Failed to link media asset to ad")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to link media asset")
	}

	return nil
}

// ListLinkedAssets returns the media assets linked to an ad, joined with
// their link role and position. The order is deterministic (link creation,
// then position, then asset id) so fingerprinting and primary-asset
// selection are stable across calls.
func (r *Repository) ListLinkedAssets(ctx context.Context, adID string) ([]LinkedAsset, error) {
	ctx, span := tracing.StartSpan(ctx, "ad.Repository.ListLinkedAssets")
	defer span.End()

	query := `
		SELECT
			m.id, m.channel, m.sha256, m.asset_kind, m.mime_type, m.width, m.height,
			m.duration_seconds, m.size_bytes, m.source_url, m.stored_url,
			m.mirror_status, m.metadata, m.created_at, m.updated_at,
			l.role AS link_role, l.position AS link_position, l.created_at AS linked_at
		FROM ad_asset_links l
		JOIN media_assets m ON m.id = l.media_asset_id
		WHERE l.ad_id = $1
		ORDER BY l.created_at, l.position, m.id
	`

	var assets []LinkedAsset
	if err := database.Q(ctx, r.db).SelectContext(ctx, &assets, query, adID); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"ad_id": adID}).Error("Failed to list linked assets")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list linked assets")
	}

	return assets, nil
}
