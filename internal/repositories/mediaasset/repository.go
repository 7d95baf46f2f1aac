// Package mediaasset persists deduplicated media objects. The dedup identity
// is sha256 when the provider reports one, else (channel, source_url).
package mediaasset

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

const columns = "id, channel, sha256, asset_kind, mime_type, width, height, duration_seconds, size_bytes, source_url, stored_url, mirror_status, metadata, created_at, updated_at"

// Repository handles media asset persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new media asset repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// UpsertResult contains the resolved asset and whether the row was created.
type UpsertResult struct {
	Asset *models.MediaAsset
	IsNew bool
}

// Upsert resolves a media sighting to exactly one row in a single atomic
// statement. Assets with a sha256 conflict on the hash regardless of source
// URL; hash-less assets conflict on (channel, source_url). On conflict,
// scalar fields fill only when previously null, metadata keys merge with
// existing keys winning, and mirror_status is left untouched. Concurrent
// sightings of the same content resolve through the unique index.
func (r *Repository) Upsert(ctx context.Context, asset models.MediaAsset) (*UpsertResult, error) {
	ctx, span := tracing.StartSpan(ctx, "mediaasset.Repository.Upsert")
	defer span.End()

	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"channel":    asset.Channel,
		"asset_kind": asset.AssetKind,
	})

	if (asset.SHA256 == nil || *asset.SHA256 == "") && (asset.SourceURL == nil || *asset.SourceURL == "") {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "media asset requires a sha256 or source url")
	}

	now := time.Now().UTC()
	id := uuid.New().String()

	var conflictTarget string
	if asset.SHA256 != nil && *asset.SHA256 != "" {
		conflictTarget = "(sha256) WHERE sha256 IS NOT NULL"
	} else {
		conflictTarget = "(channel, source_url) WHERE sha256 IS NULL AND source_url IS NOT NULL"
	}

	query := `
		INSERT INTO media_assets (
			id, channel, sha256, asset_kind, mime_type, width, height,
			duration_seconds, size_bytes, source_url, stored_url,
			mirror_status, metadata, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT ` + conflictTarget + `
		DO UPDATE SET
			mime_type = COALESCE(media_assets.mime_type, EXCLUDED.mime_type),
			width = COALESCE(media_assets.width, EXCLUDED.width),
			height = COALESCE(media_assets.height, EXCLUDED.height),
			duration_seconds = COALESCE(media_assets.duration_seconds, EXCLUDED.duration_seconds),
			size_bytes = COALESCE(media_assets.size_bytes, EXCLUDED.size_bytes),
			source_url = COALESCE(media_assets.source_url, EXCLUDED.source_url),
			stored_url = COALESCE(media_assets.stored_url, EXCLUDED.stored_url),
			metadata = COALESCE(EXCLUDED.metadata, '{}'::jsonb) || COALESCE(media_assets.metadata, '{}'::jsonb),
			updated_at = EXCLUDED.updated_at
		RETURNING ` + columns + `,
			(xmax = 0) AS inserted
	`

	var result struct {
		models.MediaAsset
		Inserted bool `db:"inserted"`
	}

	err := database.Q(ctx, r.db).GetContext(ctx, &result, query,
		id, asset.Channel, asset.SHA256, asset.AssetKind, asset.MimeType,
		asset.Width, asset.Height, asset.DurationSeconds, asset.SizeBytes,
		asset.SourceURL, asset.StoredURL, models.MirrorStatusPending,
		[]byte(asset.Metadata), now, now,
	)
	if err != nil {
		log.WithError(err).Error("Failed to upsert media asset")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert media asset")
	}

	if result.Inserted {
		log.WithFields(map[string]any{"id": result.ID}).Debug("Created media asset")
	}
	return &UpsertResult{Asset: &result.MediaAsset, IsNew: result.Inserted}, nil
}

// Get retrieves a media asset by ID. Returns nil when no row exists.
func (r *Repository) Get(ctx context.Context, id string) (*models.MediaAsset, error) {
	ctx, span := tracing.StartSpan(ctx, "mediaasset.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("media_assets")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var asset models.MediaAsset
	if err := database.Q(ctx, r.db).GetContext(ctx, &asset, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to get media asset")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get media asset")
	}

	return &asset, nil
}

// GetBySHA256 retrieves a media asset by content hash. Returns nil when no
// row exists.
func (r *Repository) GetBySHA256(ctx context.Context, sha256 string) (*models.MediaAsset, error) {
	ctx, span := tracing.StartSpan(ctx, "mediaasset.Repository.GetBySHA256")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("media_assets")
	sb.Where(sb.Equal("sha256", sha256))
	sb.Limit(1)

	query, args := sb.Build()
	var asset models.MediaAsset
	if err := database.Q(ctx, r.db).GetContext(ctx, &asset, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"sha256": sha256}).Error("Failed to get media asset by sha256")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get media asset")
	}

	return &asset, nil
}

// UpdateMirrorStatus records the outcome of the external byte-mirroring
// service for an asset, optionally filling stored_url.
func (r *Repository) UpdateMirrorStatus(ctx context.Context, id, mirrorStatus string, storedURL *string) error {
	ctx, span := tracing.StartSpan(ctx, "mediaasset.Repository.UpdateMirrorStatus")
	defer span.End()

	now := time.Now().UTC()
	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("media_assets")
	assignments := []string{
		sb.Assign("mirror_status", mirrorStatus),
		sb.Assign("updated_at", now),
	}
	if storedURL != nil {
		assignments = append(assignments, sb.Assign("stored_url", *storedURL))
	}
	sb.Set(assignments...)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	result, err := database.Q(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id, "mirror_status": mirrorStatus}).Error("Failed to update mirror status")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update mirror status")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "media asset %s not found", id)
	}
	return nil
}
