// Package ingest orchestrates per-ad upserts and batch ingestion runs.
package ingest

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	adrepo "github.com/Ramsey-B/clover/internal/repositories/ad"
	"github.com/Ramsey-B/clover/pkg/creative"
	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/facts"
	"github.com/Ramsey-B/clover/pkg/media"
	"github.com/Ramsey-B/clover/pkg/merge"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalize"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Engine is the per-ad upsert orchestrator and transaction boundary.
type Engine struct {
	logger         ectologger.Logger
	db             database.DB
	adRepo         *adrepo.Repository
	deduplicator   *media.Deduplicator
	creativeEngine *creative.Engine
	factsMaint     *facts.Maintainer
	validate       *validator.Validate
}

// NewEngine creates a new ad upsert engine
func NewEngine(
	logger ectologger.Logger,
	db database.DB,
	adRepo *adrepo.Repository,
	deduplicator *media.Deduplicator,
	creativeEngine *creative.Engine,
	factsMaint *facts.Maintainer,
) *Engine {
	return &Engine{
		logger:         logger,
		db:             db,
		adRepo:         adRepo,
		deduplicator:   deduplicator,
		creativeEngine: creativeEngine,
		factsMaint:     factsMaint,
		validate:       validator.New(),
	}
}

// UpsertAdWithAssets commits one ad and everything hanging off it. The ad
// row, its media assets, and their links commit together in one transaction;
// the derived creative, facts, and score rows commit in a second. A failure
// in the derived pass never discards the committed ad and a backfill run
// later converges it, so per-ad isolation holds: failing here must not roll
// back other ads in the same run.
func (e *Engine) UpsertAdWithAssets(ctx context.Context, orgID, brandID string, identityID *string, channel string, normalized models.NormalizedAd) (*models.AdUpsertResult, error) {
	ctx, span := tracing.StartSpan(ctx, "ingest.Engine.UpsertAdWithAssets")
	defer span.End()

	log := e.logger.WithContext(ctx).WithFields(map[string]any{
		"org_id":         orgID,
		"brand_id":       brandID,
		"channel":        channel,
		"external_ad_id": normalized.ExternalAdID,
	})

	// Malformed records are rejected before any writes happen.
	if err := e.validate.Struct(normalized); err != nil {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid normalized ad: %v", err)
	}
	for i := range normalized.Assets {
		if err := e.validate.Struct(normalized.Assets[i]); err != nil {
			return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid normalized asset: %v", err)
		}
	}

	result, err := e.commitAdAndMedia(ctx, orgID, brandID, identityID, channel, normalized)
	if err != nil {
		return nil, errors.Wrapf(err, "upsert ad %s/%s", channel, normalized.ExternalAdID)
	}

	creativeID, err := e.commitDerived(ctx, result.Ad)
	if err != nil {
		// The ad and media are already committed; surface the failure with
		// the natural key so the run records a per-item error and the
		// backfill jobs converge the derived rows later.
		log.WithError(err).Error("Derived rows failed after ad commit")
		return nil, errors.Wrapf(err, "derive ad %s/%s", channel, normalized.ExternalAdID)
	}
	result.CreativeID = creativeID

	return result, nil
}

// commitAdAndMedia runs the first transaction: the ad upsert, media asset
// dedup, and asset links all commit or none do.
func (e *Engine) commitAdAndMedia(ctx context.Context, orgID, brandID string, identityID *string, channel string, normalized models.NormalizedAd) (*models.AdUpsertResult, error) {
	ctx, span := tracing.StartSpan(ctx, "ingest.Engine.commitAdAndMedia")
	defer span.End()

	txCtx, tx, err := database.GetTx(ctx, e.logger, e.db, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(txCtx)

	adResult, err := e.adRepo.Upsert(txCtx, buildAdRow(orgID, brandID, identityID, channel, normalized))
	if err != nil {
		return nil, err
	}

	result := &models.AdUpsertResult{
		Ad:      adResult.Ad,
		IsNewAd: adResult.IsNew,
	}

	for i := range normalized.Assets {
		assetResult, err := e.deduplicator.GetOrCreateMediaAsset(txCtx, channel, normalized.Assets[i])
		if err != nil {
			return nil, err
		}

		role := normalized.Assets[i].Role
		if role == "" {
			role = models.AssetRolePrimary
		}
		if err := e.adRepo.LinkAsset(txCtx, adResult.Ad.ID, assetResult.Asset.ID, role, i); err != nil {
			return nil, err
		}

		result.MediaAssets = append(result.MediaAssets, *assetResult.Asset)
		if assetResult.IsNew {
			result.NewAssetIDs = append(result.NewAssetIDs, assetResult.Asset.ID)
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}
	return result, nil
}

// commitDerived runs the second transaction: creative membership, facts, and
// score, all keyed on ad_id.
func (e *Engine) commitDerived(ctx context.Context, ad *models.Ad) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "ingest.Engine.commitDerived")
	defer span.End()

	txCtx, tx, err := database.GetTx(ctx, e.logger, e.db, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(txCtx)

	resolution, err := e.creativeEngine.Resolve(txCtx, ad)
	if err != nil {
		return "", err
	}

	adFacts, err := e.factsMaint.UpsertAdFacts(txCtx, ad)
	if err != nil {
		return "", err
	}

	if _, err := e.factsMaint.UpsertAdScore(txCtx, ad, adFacts, resolution.MediaCount); err != nil {
		return "", err
	}

	if err := tx.Commit(txCtx); err != nil {
		return "", err
	}
	return resolution.Creative.ID, nil
}

func buildAdRow(orgID, brandID string, identityID *string, channel string, normalized models.NormalizedAd) models.Ad {
	now := time.Now().UTC()

	status := normalized.AdStatus
	if status == "" {
		status = models.AdStatusUnknown
	}

	lastSeen := *merge.FirstTime(normalized.LastSeenAt, &now)
	firstSeen := *merge.FirstTime(normalized.FirstSeenAt, &lastSeen)

	var landingURL, destinationDomain *string
	if normalized.LandingURL != nil {
		if canonical := normalize.LandingURL(*normalized.LandingURL); canonical != "" {
			landingURL = &canonical
		}
		if domain := normalize.PrimaryDomain(*normalized.LandingURL); domain != "" {
			destinationDomain = &domain
		}
	}

	return models.Ad{
		OrgID:                  orgID,
		BrandID:                brandID,
		BrandChannelIdentityID: identityID,
		Channel:                channel,
		ExternalAdID:           normalized.ExternalAdID,
		AdStatus:               status,
		StartedRunningAt:       normalized.StartedRunningAt,
		EndedRunningAt:         normalized.EndedRunningAt,
		FirstSeenAt:            firstSeen,
		LastSeenAt:             lastSeen,
		BodyText:               normalized.BodyText,
		Headline:               normalized.Headline,
		Description:            normalized.Description,
		CTAType:                normalized.CTAType,
		CTAText:                normalized.CTAText,
		LandingURL:             landingURL,
		DestinationDomain:      destinationDomain,
		CountryCodes:           pq.StringArray(normalized.CountryCodes),
		LanguageCodes:          pq.StringArray(normalized.LanguageCodes),
		RawJSON:                normalized.RawJSON,
	}
}
