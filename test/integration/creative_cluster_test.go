package integration

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/fingerprint"
	"github.com/Ramsey-B/clover/pkg/models"
)

func TestCreativeClustering_SameCopyAndMediaShareCreative(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	p := newPipeline(t)
	ctx := context.Background()
	orgID := uuid.New().String()
	brandRow := seedBrand(t, p, orgID)
	hash := uuid.New().String()

	normalized := func() models.NormalizedAd {
		return models.NormalizedAd{
			ExternalAdID: uuid.New().String(),
			AdStatus:     models.AdStatusActive,
			Headline:     strPtr("Same Creative"),
			BodyText:     strPtr("Identical copy"),
			Assets: []models.NormalizedAsset{
				{
					AssetKind: models.AssetKindImage,
					SHA256:    &hash,
				},
			},
		}
	}

	first, err := p.engine.UpsertAdWithAssets(ctx, orgID, brandRow.ID, nil, models.ChannelMeta, normalized())
	require.NoError(t, err)
	second, err := p.engine.UpsertAdWithAssets(ctx, orgID, brandRow.ID, nil, models.ChannelMeta, normalized())
	require.NoError(t, err)

	// Two distinct ads with identical copy and media land in one creative.
	require.NotEqual(t, first.Ad.ID, second.Ad.ID)
	require.NotEmpty(t, first.CreativeID)
	assert.Equal(t, first.CreativeID, second.CreativeID)

	memberIDs, err := p.creativeRepo.ListMemberAdIDs(ctx, first.CreativeID)
	require.NoError(t, err)
	assert.Contains(t, memberIDs, first.Ad.ID)
	assert.Contains(t, memberIDs, second.Ad.ID)
}

func TestCreativeClustering_DifferentCopySplits(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	p := newPipeline(t)
	ctx := context.Background()
	orgID := uuid.New().String()
	brandRow := seedBrand(t, p, orgID)
	hash := uuid.New().String()

	first, err := p.engine.UpsertAdWithAssets(ctx, orgID, brandRow.ID, nil, models.ChannelMeta, models.NormalizedAd{
		ExternalAdID: uuid.New().String(),
		Headline:     strPtr("Variant A"),
		Assets:       []models.NormalizedAsset{{AssetKind: models.AssetKindImage, SHA256: &hash}},
	})
	require.NoError(t, err)

	second, err := p.engine.UpsertAdWithAssets(ctx, orgID, brandRow.ID, nil, models.ChannelMeta, models.NormalizedAd{
		ExternalAdID: uuid.New().String(),
		Headline:     strPtr("Variant B"),
		Assets:       []models.NormalizedAsset{{AssetKind: models.AssetKindImage, SHA256: &hash}},
	})
	require.NoError(t, err)

	assert.NotEqual(t, first.CreativeID, second.CreativeID)
}

func TestCreativeClustering_AlgoVersionRecorded(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	p := newPipeline(t)
	ctx := context.Background()
	orgID := uuid.New().String()
	brandRow := seedBrand(t, p, orgID)

	result, err := p.engine.UpsertAdWithAssets(ctx, orgID, brandRow.ID, nil, models.ChannelMeta, models.NormalizedAd{
		ExternalAdID: uuid.New().String(),
		Headline:     strPtr("Versioned"),
	})
	require.NoError(t, err)

	creativeRow, err := p.creativeRepo.Get(ctx, result.CreativeID)
	require.NoError(t, err)
	require.NotNil(t, creativeRow)
	assert.Equal(t, fingerprint.AlgoVersion, creativeRow.FingerprintAlgo)
	assert.NotEmpty(t, creativeRow.CreativeFingerprint)
	assert.NotEmpty(t, creativeRow.CopyFingerprint)
	assert.NotEmpty(t, creativeRow.MediaFingerprint)
}
