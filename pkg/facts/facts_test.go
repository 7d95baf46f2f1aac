package facts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	adrepo "github.com/Ramsey-B/clover/internal/repositories/ad"
	"github.com/Ramsey-B/clover/pkg/models"
)

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func asset(kind string, duration *float64) adrepo.LinkedAsset {
	return adrepo.LinkedAsset{
		MediaAsset: models.MediaAsset{AssetKind: kind, DurationSeconds: duration},
	}
}

func TestBuild(t *testing.T) {
	now := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	started := time.Date(2025, 7, 2, 6, 0, 0, 0, time.UTC)
	ended := time.Date(2025, 7, 12, 6, 0, 0, 0, time.UTC)

	t.Run("running ad measures days to now", func(t *testing.T) {
		ad := &models.Ad{
			ID:               "ad-1",
			OrgID:            "org-1",
			BrandID:          "brand-1",
			Channel:          models.ChannelMeta,
			StartedRunningAt: &started,
			Headline:         strPtr("50% off"),
			CTAType:          strPtr("SHOP_NOW"),
			CountryCodes:     []string{"US", "CA"},
		}

		facts := Build(ad, []adrepo.LinkedAsset{asset(models.AssetKindImage, nil)}, now)

		assert.Equal(t, "ad-1", facts.AdID)
		assert.Equal(t, 30, facts.DaysActive)
		assert.Equal(t, models.DisplayFormatImage, facts.DisplayFormat)
		assert.Equal(t, []string{"image"}, []string(facts.MediaTypes))
		assert.Equal(t, 1, facts.MediaCount)
		assert.True(t, facts.HasHeadline)
		assert.True(t, facts.HasCTA)
		assert.NotNil(t, facts.StartDate)
	})

	t.Run("ended ad measures days to end", func(t *testing.T) {
		ad := &models.Ad{ID: "ad-2", StartedRunningAt: &started, EndedRunningAt: &ended}
		facts := Build(ad, nil, now)
		assert.Equal(t, 10, facts.DaysActive)
	})

	t.Run("no start date means zero days", func(t *testing.T) {
		facts := Build(&models.Ad{ID: "ad-3"}, nil, now)
		assert.Equal(t, 0, facts.DaysActive)
		assert.Nil(t, facts.StartDate)
	})

	t.Run("no media is a text ad", func(t *testing.T) {
		facts := Build(&models.Ad{ID: "ad-4"}, nil, now)
		assert.Equal(t, models.DisplayFormatText, facts.DisplayFormat)
		assert.False(t, facts.HasHeadline)
		assert.False(t, facts.HasCTA)
	})

	t.Run("video wins over carousel", func(t *testing.T) {
		linked := []adrepo.LinkedAsset{
			asset(models.AssetKindImage, nil),
			asset(models.AssetKindVideo, floatPtr(15.5)),
			asset(models.AssetKindVideo, floatPtr(30)),
		}
		facts := Build(&models.Ad{ID: "ad-5"}, linked, now)

		assert.Equal(t, models.DisplayFormatVideo, facts.DisplayFormat)
		assert.Equal(t, []string{"image", "video"}, []string(facts.MediaTypes))
		assert.NotNil(t, facts.VideoLengthSeconds)
		assert.Equal(t, 30.0, *facts.VideoLengthSeconds)
	})

	t.Run("multiple images are a carousel", func(t *testing.T) {
		linked := []adrepo.LinkedAsset{
			asset(models.AssetKindImage, nil),
			asset(models.AssetKindImage, nil),
		}
		facts := Build(&models.Ad{ID: "ad-6"}, linked, now)
		assert.Equal(t, models.DisplayFormatCarousel, facts.DisplayFormat)
	})

	t.Run("idempotent for fixed now", func(t *testing.T) {
		ad := &models.Ad{ID: "ad-7", StartedRunningAt: &started}
		first := Build(ad, nil, now)
		second := Build(ad, nil, now)
		assert.Equal(t, first, second)
	})
}
