package integration

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

func TestAdUpsert_ConcurrentSameNaturalKey(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	p := newPipeline(t)
	ctx := context.Background()
	orgID := uuid.New().String()
	brandRow := seedBrand(t, p, orgID)
	externalID := uuid.New().String()
	sharedHash := uuid.New().String()

	const workers = 8

	var wg sync.WaitGroup
	results := make([]*models.AdUpsertResult, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = p.engine.UpsertAdWithAssets(ctx, orgID, brandRow.ID, nil, models.ChannelMeta, models.NormalizedAd{
				ExternalAdID: externalID,
				AdStatus:     models.AdStatusActive,
				Headline:     strPtr("Race Headline"),
				Assets: []models.NormalizedAsset{
					{
						AssetKind: models.AssetKindImage,
						SHA256:    strPtr(sharedHash),
						SourceURL: strPtr("https://cdn.example.com/race-" + uuid.New().String() + ".jpg"),
					},
				},
			})
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		require.NotNil(t, results[i])
	}

	// Every worker converged on the same ad row.
	adRow, err := p.adRepo.GetByNaturalKey(ctx, models.ChannelMeta, externalID)
	require.NoError(t, err)
	require.NotNil(t, adRow)
	for i := 0; i < workers; i++ {
		assert.Equal(t, adRow.ID, results[i].Ad.ID)
	}

	var adCount int
	require.NoError(t, p.db.GetContext(ctx, &adCount,
		"SELECT COUNT(*) FROM ads WHERE channel = $1 AND external_ad_id = $2", models.ChannelMeta, externalID))
	assert.Equal(t, 1, adCount)

	// And on the same media asset for the shared content hash.
	var assetCount int
	require.NoError(t, p.db.GetContext(ctx, &assetCount,
		"SELECT COUNT(*) FROM media_assets WHERE sha256 = $1", sharedHash))
	assert.Equal(t, 1, assetCount)
}

func TestMediaDedup_ConcurrentSameHash(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	p := newPipeline(t)
	ctx := context.Background()
	sharedHash := uuid.New().String()

	const workers = 8

	var wg sync.WaitGroup
	results := make([]*models.MediaAsset, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := p.deduplicator.GetOrCreateMediaAsset(ctx, models.ChannelMeta, models.NormalizedAsset{
				AssetKind: models.AssetKindImage,
				SHA256:    strPtr(sharedHash),
				SourceURL: strPtr("https://cdn.example.com/hash-race-" + uuid.New().String() + ".jpg"),
			})
			if err != nil {
				errs[i] = err
				return
			}
			results[i] = res.Asset
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		require.NotNil(t, results[i])
		assert.Equal(t, results[0].ID, results[i].ID)
	}

	var assetCount int
	require.NoError(t, p.db.GetContext(ctx, &assetCount,
		"SELECT COUNT(*) FROM media_assets WHERE sha256 = $1", sharedHash))
	assert.Equal(t, 1, assetCount)
}
