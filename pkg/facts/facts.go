// Package facts maintains the derived per-ad fact and score rows.
package facts

import (
	"context"
	"sort"
	"time"

	"github.com/Gobusters/ectologger"

	adrepo "github.com/Ramsey-B/clover/internal/repositories/ad"
	"github.com/Ramsey-B/clover/internal/repositories/adfacts"
	"github.com/Ramsey-B/clover/internal/repositories/adscore"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/scoring"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Maintainer recomputes and upserts fact and score projections.
type Maintainer struct {
	logger    ectologger.Logger
	adRepo    *adrepo.Repository
	factsRepo *adfacts.Repository
	scoreRepo *adscore.Repository
}

// NewMaintainer creates a new fact and score maintainer
func NewMaintainer(
	logger ectologger.Logger,
	adRepo *adrepo.Repository,
	factsRepo *adfacts.Repository,
	scoreRepo *adscore.Repository,
) *Maintainer {
	return &Maintainer{
		logger:    logger,
		adRepo:    adRepo,
		factsRepo: factsRepo,
		scoreRepo: scoreRepo,
	}
}

// UpsertAdFacts recomputes the fact projection for an ad from its current
// row and linked media, then upserts it by ad_id. Safe to call redundantly;
// nothing accumulates.
func (m *Maintainer) UpsertAdFacts(ctx context.Context, ad *models.Ad) (*models.AdFacts, error) {
	ctx, span := tracing.StartSpan(ctx, "facts.Maintainer.UpsertAdFacts")
	defer span.End()

	linked, err := m.adRepo.ListLinkedAssets(ctx, ad.ID)
	if err != nil {
		return nil, err
	}

	built := Build(ad, linked, time.Now().UTC())
	return m.factsRepo.Upsert(ctx, built)
}

// UpsertAdScore computes the ad's scores from (ad, facts, media count) and
// upserts by ad_id. The computation is deterministic, so recomputing with
// unchanged inputs writes an identical row.
func (m *Maintainer) UpsertAdScore(ctx context.Context, ad *models.Ad, facts *models.AdFacts, mediaCount int) (*models.AdScore, error) {
	ctx, span := tracing.StartSpan(ctx, "facts.Maintainer.UpsertAdScore")
	defer span.End()

	score, err := scoring.Score(ad, facts, mediaCount)
	if err != nil {
		m.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"ad_id": ad.ID}).Error("Failed to compute ad score")
		return nil, err
	}

	return m.scoreRepo.Upsert(ctx, *score)
}

// Build computes the fact projection for an ad. days_active runs from
// started_running_at to ended_running_at, or to now for still-running ads.
func Build(ad *models.Ad, linked []adrepo.LinkedAsset, now time.Time) models.AdFacts {
	facts := models.AdFacts{
		AdID:          ad.ID,
		OrgID:         ad.OrgID,
		BrandID:       ad.BrandID,
		Channel:       ad.Channel,
		CountryCodes:  ad.CountryCodes,
		LanguageCodes: ad.LanguageCodes,
		MediaTypes:    mediaTypes(linked),
		MediaCount:    len(linked),
		DisplayFormat: displayFormat(linked),
		HasHeadline:   ad.Headline != nil && *ad.Headline != "",
		HasCTA:        (ad.CTAType != nil && *ad.CTAType != "") || (ad.CTAText != nil && *ad.CTAText != ""),
	}

	if ad.StartedRunningAt != nil {
		start := ad.StartedRunningAt.UTC().Truncate(24 * time.Hour)
		facts.StartDate = &start

		end := now
		if ad.EndedRunningAt != nil {
			end = *ad.EndedRunningAt
		}
		if days := int(end.Sub(*ad.StartedRunningAt).Hours() / 24); days > 0 {
			facts.DaysActive = days
		}
	}

	facts.VideoLengthSeconds = videoLength(linked)
	return facts
}

// mediaTypes returns the distinct asset kinds present, sorted for stable
// array comparisons.
func mediaTypes(linked []adrepo.LinkedAsset) []string {
	seen := make(map[string]bool, 2)
	for i := range linked {
		seen[linked[i].AssetKind] = true
	}

	kinds := make([]string, 0, len(seen))
	for kind := range seen {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

func displayFormat(linked []adrepo.LinkedAsset) string {
	hasVideo := false
	for i := range linked {
		if linked[i].AssetKind == models.AssetKindVideo {
			hasVideo = true
			break
		}
	}

	switch {
	case hasVideo:
		return models.DisplayFormatVideo
	case len(linked) > 1:
		return models.DisplayFormatCarousel
	case len(linked) == 1:
		return models.DisplayFormatImage
	default:
		return models.DisplayFormatText
	}
}

// videoLength returns the longest linked video duration, or nil when the ad
// has no video with a known duration.
func videoLength(linked []adrepo.LinkedAsset) *float64 {
	var longest *float64
	for i := range linked {
		if linked[i].AssetKind != models.AssetKindVideo || linked[i].DurationSeconds == nil {
			continue
		}
		if longest == nil || *linked[i].DurationSeconds > *longest {
			longest = linked[i].DurationSeconds
		}
	}
	return longest
}
