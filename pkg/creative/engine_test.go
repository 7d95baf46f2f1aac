package creative

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	adrepo "github.com/Ramsey-B/clover/internal/repositories/ad"
	"github.com/Ramsey-B/clover/pkg/fingerprint"
	"github.com/Ramsey-B/clover/pkg/models"
)

func strPtr(s string) *string { return &s }

func linkedAsset(id, role string, sha256 *string, linkedAt time.Time) adrepo.LinkedAsset {
	return adrepo.LinkedAsset{
		MediaAsset: models.MediaAsset{ID: id, Channel: models.ChannelMeta, SHA256: sha256},
		LinkRole:   role,
		LinkedAt:   linkedAt,
	}
}

func TestCopyTuple(t *testing.T) {
	ad := &models.Ad{
		BodyText:   strPtr("Shop the sale"),
		Headline:   strPtr("50% off"),
		LandingURL: strPtr("HTTPS://Example.com/Buy?utm_source=meta&sku=9"),
	}

	tuple := copyTuple(ad)
	assert.Equal(t, "Shop the sale", tuple.BodyText)
	assert.Equal(t, "https://example.com/Buy?sku=9", tuple.LandingURL)
	assert.Equal(t, "", tuple.CTAType)

	t.Run("tracking params do not change the fingerprint", func(t *testing.T) {
		other := &models.Ad{
			BodyText:   strPtr("Shop the sale"),
			Headline:   strPtr("50% off"),
			LandingURL: strPtr("https://example.com/Buy?sku=9&fbclid=zzz"),
		}
		assert.Equal(t, fingerprint.Copy(tuple), fingerprint.Copy(copyTuple(other)))
	})
}

func TestPrimaryAssetID(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		linked   []adrepo.LinkedAsset
		expected *string
	}{
		{
			name:     "no media",
			linked:   nil,
			expected: nil,
		},
		{
			name: "primary role wins over earlier link",
			linked: []adrepo.LinkedAsset{
				linkedAsset("asset-1", models.AssetRoleCarouselSlide, nil, base),
				linkedAsset("asset-2", models.AssetRolePrimary, nil, base.Add(time.Hour)),
			},
			expected: strPtr("asset-2"),
		},
		{
			name: "earliest linked wins without a primary role",
			linked: []adrepo.LinkedAsset{
				linkedAsset("asset-1", models.AssetRoleCarouselSlide, nil, base),
				linkedAsset("asset-2", models.AssetRoleCarouselSlide, nil, base.Add(time.Hour)),
			},
			expected: strPtr("asset-1"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual := primaryAssetID(tt.linked)
			if tt.expected == nil {
				assert.Nil(t, actual)
				return
			}
			assert.Equal(t, *tt.expected, *actual)
		})
	}
}

func TestContentIdentities(t *testing.T) {
	linked := []adrepo.LinkedAsset{
		linkedAsset("asset-1", models.AssetRolePrimary, strPtr("abc123"), time.Now()),
		{
			MediaAsset: models.MediaAsset{
				ID:        "asset-2",
				Channel:   models.ChannelMeta,
				SourceURL: strPtr("https://cdn.example.com/x.png"),
			},
		},
	}

	identities := contentIdentities(linked)
	assert.Equal(t, []string{"abc123", "META|https://cdn.example.com/x.png"}, identities)
}
