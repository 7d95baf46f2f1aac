// Package creative decides which deduplicated creative an ad belongs to,
// purely as a function of the ad's current copy and linked media content.
package creative

import (
	"context"

	"github.com/Gobusters/ectologger"

	adrepo "github.com/Ramsey-B/clover/internal/repositories/ad"
	"github.com/Ramsey-B/clover/internal/repositories/adcreative"
	"github.com/Ramsey-B/clover/pkg/fingerprint"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalize"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Engine resolves ads to creatives.
type Engine struct {
	logger       ectologger.Logger
	adRepo       *adrepo.Repository
	creativeRepo *adcreative.Repository
}

// NewEngine creates a new creative engine
func NewEngine(logger ectologger.Logger, adRepo *adrepo.Repository, creativeRepo *adcreative.Repository) *Engine {
	return &Engine{
		logger:       logger,
		adRepo:       adRepo,
		creativeRepo: creativeRepo,
	}
}

// Resolution is the outcome of resolving one ad.
type Resolution struct {
	Creative      *models.AdCreative
	Membership    *models.AdCreativeMembership
	IsNewCreative bool
	MediaCount    int
}

// Resolve computes the ad's fingerprints from its current state, upserts the
// matching creative, and points the ad's membership at it. The result
// depends only on the ad's copy and linked media content, never on ingestion
// order, so re-resolving an unchanged ad is a no-op and two ads sharing
// copy and media converge on one creative without a reconciliation pass.
func (e *Engine) Resolve(ctx context.Context, ad *models.Ad) (*Resolution, error) {
	ctx, span := tracing.StartSpan(ctx, "creative.Engine.Resolve")
	defer span.End()

	log := e.logger.WithContext(ctx).WithFields(map[string]any{
		"ad_id":    ad.ID,
		"brand_id": ad.BrandID,
		"channel":  ad.Channel,
	})

	linked, err := e.adRepo.ListLinkedAssets(ctx, ad.ID)
	if err != nil {
		return nil, err
	}

	copyFP := fingerprint.Copy(copyTuple(ad))
	mediaFP := fingerprint.Media(contentIdentities(linked))
	creativeFP := fingerprint.Creative(copyFP, mediaFP)

	creativeResult, err := e.creativeRepo.Upsert(ctx, models.AdCreative{
		OrgID:               ad.OrgID,
		BrandID:             ad.BrandID,
		Channel:             ad.Channel,
		FingerprintAlgo:     fingerprint.AlgoVersion,
		CreativeFingerprint: creativeFP,
		CopyFingerprint:     copyFP,
		MediaFingerprint:    mediaFP,
		PrimaryMediaAssetID: primaryAssetID(linked),
	})
	if err != nil {
		return nil, err
	}

	membership, err := e.creativeRepo.UpsertMembership(ctx, ad.ID, creativeResult.Creative.ID)
	if err != nil {
		return nil, err
	}

	if creativeResult.IsNew {
		log.WithFields(map[string]any{"ad_creative_id": creativeResult.Creative.ID}).Debug("Ad resolved to new creative")
	}
	return &Resolution{
		Creative:      creativeResult.Creative,
		Membership:    membership,
		IsNewCreative: creativeResult.IsNew,
		MediaCount:    len(linked),
	}, nil
}

func copyTuple(ad *models.Ad) fingerprint.CopyTuple {
	return fingerprint.CopyTuple{
		BodyText:       deref(ad.BodyText),
		Headline:       deref(ad.Headline),
		Description:    deref(ad.Description),
		CTAType:        deref(ad.CTAType),
		CTAText:        deref(ad.CTAText),
		LandingURL:     normalize.LandingURL(deref(ad.LandingURL)),
		DestinationDom: deref(ad.DestinationDomain),
	}
}

func contentIdentities(linked []adrepo.LinkedAsset) []string {
	identities := make([]string, 0, len(linked))
	for i := range linked {
		identities = append(identities, linked[i].ContentIdentity())
	}
	return identities
}

// primaryAssetID prefers assets linked with the "primary" role; among ties,
// the earliest-linked asset wins. The repository returns links in a
// deterministic order, so repeated resolutions pick the same asset.
func primaryAssetID(linked []adrepo.LinkedAsset) *string {
	if len(linked) == 0 {
		return nil
	}

	for i := range linked {
		if linked[i].LinkRole == models.AssetRolePrimary {
			return &linked[i].ID
		}
	}
	return &linked[0].ID
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
