// Package media deduplicates physical media objects across ad sightings.
package media

import (
	"context"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/internal/repositories/mediaasset"
	"github.com/Ramsey-B/clover/pkg/merge"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Deduplicator resolves normalized asset references to deduplicated
// media_assets rows.
type Deduplicator struct {
	logger    ectologger.Logger
	assetRepo *mediaasset.Repository
}

// NewDeduplicator creates a new media deduplicator
func NewDeduplicator(logger ectologger.Logger, assetRepo *mediaasset.Repository) *Deduplicator {
	return &Deduplicator{
		logger:    logger,
		assetRepo: assetRepo,
	}
}

// GetOrCreateResult contains the resolved asset and whether it was created.
type GetOrCreateResult struct {
	Asset *models.MediaAsset
	IsNew bool
}

// GetOrCreateMediaAsset resolves one normalized asset reference to exactly
// one media_assets row. Identity is sha256 when the provider reports one,
// else (channel, source_url). The mime type is inferred from the URL
// extension or the asset kind when the provider omits it. Safe to call
// concurrently for the same content; duplicate-insert races resolve through
// the unique index.
func (d *Deduplicator) GetOrCreateMediaAsset(ctx context.Context, channel string, asset models.NormalizedAsset) (*GetOrCreateResult, error) {
	ctx, span := tracing.StartSpan(ctx, "media.Deduplicator.GetOrCreateMediaAsset")
	defer span.End()

	if asset.AssetKind != models.AssetKindImage && asset.AssetKind != models.AssetKindVideo {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "unknown asset kind %q", asset.AssetKind)
	}

	inferred := inferMimeType(asset)
	mimeType := merge.FirstString(asset.MimeType, &inferred)

	result, err := d.assetRepo.Upsert(ctx, models.MediaAsset{
		Channel:         channel,
		SHA256:          asset.SHA256,
		AssetKind:       asset.AssetKind,
		MimeType:        mimeType,
		Width:           asset.Width,
		Height:          asset.Height,
		DurationSeconds: asset.DurationSeconds,
		SizeBytes:       asset.SizeBytes,
		SourceURL:       asset.SourceURL,
		StoredURL:       asset.StoredURL,
		Metadata:        asset.Metadata,
	})
	if err != nil {
		return nil, err
	}

	return &GetOrCreateResult{Asset: result.Asset, IsNew: result.IsNew}, nil
}

// inferMimeType guesses a mime type from the source URL's file extension,
// falling back to a generic type for the asset kind.
func inferMimeType(asset models.NormalizedAsset) string {
	for _, candidate := range []*string{asset.SourceURL, asset.StoredURL} {
		if candidate == nil || *candidate == "" {
			continue
		}
		parsed, err := url.Parse(*candidate)
		if err != nil {
			continue
		}
		ext := strings.ToLower(path.Ext(parsed.Path))
		if ext == "" {
			continue
		}
		if mimeType := mime.TypeByExtension(ext); mimeType != "" {
			return mimeType
		}
	}

	if asset.AssetKind == models.AssetKindVideo {
		return "video/mp4"
	}
	return "image/jpeg"
}
