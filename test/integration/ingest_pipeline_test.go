package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

func metaBatch(orgID string) models.NormalizedAdBatch {
	now := time.Now().UTC()
	started := now.AddDate(0, 0, -14)
	sharedHash := uuid.New().String()

	return models.NormalizedAdBatch{
		OrgID:   orgID,
		Channel: models.ChannelMeta,
		Brand: models.BatchBrand{
			CanonicalName: "Acme Outdoor Co.",
			WebsiteURL:    strPtr("https://www.acme-outdoor.com/"),
		},
		Identity: models.BatchIdentity{
			ExternalID:  strPtr("page-" + uuid.New().String()),
			DisplayName: strPtr("Acme Outdoor"),
		},
		Ads: []models.NormalizedAd{
			{
				ExternalAdID:     uuid.New().String(),
				AdStatus:         models.AdStatusActive,
				StartedRunningAt: &started,
				Headline:         strPtr("Summer Sale"),
				BodyText:         strPtr("Up to 50% off tents"),
				CTAType:          strPtr("SHOP_NOW"),
				LandingURL:       strPtr("https://www.acme-outdoor.com/sale?utm_source=fb"),
				CountryCodes:     []string{"US", "CA"},
				Assets: []models.NormalizedAsset{
					{
						AssetKind: models.AssetKindImage,
						Role:      models.AssetRolePrimary,
						SHA256:    &sharedHash,
						SourceURL: strPtr("https://cdn.example.com/creatives/tent.jpg"),
					},
				},
			},
			{
				ExternalAdID: uuid.New().String(),
				AdStatus:     models.AdStatusActive,
				Headline:     strPtr("Winter Gear"),
				BodyText:     strPtr("New arrivals"),
				Assets: []models.NormalizedAsset{
					{
						AssetKind: models.AssetKindImage,
						SHA256:    &sharedHash,
						SourceURL: strPtr("https://cdn.example.com/creatives/tent-copy.jpg"),
					},
				},
			},
		},
	}
}

func TestProcessBatch_EndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	p := newPipeline(t)
	ctx := context.Background()
	orgID := uuid.New().String()
	batch := metaBatch(orgID)

	summary, err := p.processor.ProcessBatch(ctx, batch)
	require.NoError(t, err)
	require.NotNil(t, summary)

	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 0, summary.Failed)

	// Brand resolved by registrable domain.
	brandRow, err := p.brandRepo.GetByDomain(ctx, orgID, "acme-outdoor.com")
	require.NoError(t, err)
	require.NotNil(t, brandRow)
	assert.Equal(t, "Acme Outdoor Co.", brandRow.CanonicalName)

	identities, err := p.identityRepo.ListByBrand(ctx, brandRow.ID)
	require.NoError(t, err)
	require.Len(t, identities, 1)
	assert.Equal(t, models.ChannelMeta, identities[0].Channel)

	for _, item := range summary.Results {
		require.True(t, item.OK(), "item %s failed: %s", item.Key.ExternalAdID, item.Error)

		adRow, err := p.adRepo.Get(ctx, item.AdID)
		require.NoError(t, err)
		require.NotNil(t, adRow)
		assert.Equal(t, brandRow.ID, adRow.BrandID)

		// Derived rows exist for every ingested ad.
		membership, err := p.creativeRepo.GetMembership(ctx, adRow.ID)
		require.NoError(t, err)
		require.NotNil(t, membership)

		factRow, err := p.factsRepo.Get(ctx, adRow.ID)
		require.NoError(t, err)
		require.NotNil(t, factRow)
		assert.Equal(t, 1, factRow.MediaCount)

		scoreRow, err := p.scoreRepo.Get(ctx, adRow.ID)
		require.NoError(t, err)
		require.NotNil(t, scoreRow)
		assert.GreaterOrEqual(t, scoreRow.PerformanceScore, 0.0)
		assert.LessOrEqual(t, scoreRow.PerformanceScore, 1.0)
	}

	// The shared content hash dedups to a single media asset.
	sharedHash := *batch.Ads[0].Assets[0].SHA256
	asset, err := p.assetRepo.GetBySHA256(ctx, sharedHash)
	require.NoError(t, err)
	require.NotNil(t, asset)

	// An audit row records the run outcome.
	runs, total, err := p.ingestRepo.List(ctx, nil, 1, 5)
	require.NoError(t, err)
	assert.Greater(t, total, 0)
	require.NotEmpty(t, runs)
}

func TestProcessBatch_Idempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	p := newPipeline(t)
	ctx := context.Background()
	orgID := uuid.New().String()
	batch := metaBatch(orgID)

	first, err := p.processor.ProcessBatch(ctx, batch)
	require.NoError(t, err)

	factsAfterFirstPass := make(map[string]*models.AdFacts)
	scoresAfterFirstPass := make(map[string]*models.AdScore)
	for _, result := range first.Results {
		factRow, err := p.factsRepo.Get(ctx, result.AdID)
		require.NoError(t, err)
		factsAfterFirstPass[result.AdID] = factRow
		scoreRow, err := p.scoreRepo.Get(ctx, result.AdID)
		require.NoError(t, err)
		scoresAfterFirstPass[result.AdID] = scoreRow
	}

	second, err := p.processor.ProcessBatch(ctx, batch)
	require.NoError(t, err)

	require.Equal(t, first.Succeeded, second.Succeeded)

	// Same natural keys resolve to the same ad rows, and reprocessing leaves
	// the derived rows unchanged field for field.
	for i := range first.Results {
		require.Equal(t, first.Results[i].AdID, second.Results[i].AdID)
		adID := second.Results[i].AdID

		factRow, err := p.factsRepo.Get(ctx, adID)
		require.NoError(t, err)
		require.NotNil(t, factRow)
		firstFacts := factsAfterFirstPass[adID]
		require.NotNil(t, firstFacts)
		firstFacts.CreatedAt, firstFacts.UpdatedAt = time.Time{}, time.Time{}
		factRow.CreatedAt, factRow.UpdatedAt = time.Time{}, time.Time{}
		assert.Equal(t, firstFacts, factRow)

		scoreRow, err := p.scoreRepo.Get(ctx, adID)
		require.NoError(t, err)
		require.NotNil(t, scoreRow)
		firstScore := scoresAfterFirstPass[adID]
		require.NotNil(t, firstScore)
		assert.JSONEq(t, string(firstScore.ScoreBreakdown), string(scoreRow.ScoreBreakdown))
		firstScore.CreatedAt, firstScore.UpdatedAt = time.Time{}, time.Time{}
		firstScore.ScoreBreakdown = nil
		scoreRow.CreatedAt, scoreRow.UpdatedAt = time.Time{}, time.Time{}
		scoreRow.ScoreBreakdown = nil
		assert.Equal(t, firstScore, scoreRow)
	}

	// Reprocessing creates no duplicate brands.
	_, total, err := p.brandRepo.List(ctx, orgID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestProcessBatch_ProviderError(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	p := newPipeline(t)
	ctx := context.Background()
	orgID := uuid.New().String()

	researchRun, err := p.runRepo.Create(ctx, orgID, uuid.New().String())
	require.NoError(t, err)

	batch := metaBatch(orgID)
	batch.ResearchRunID = &researchRun.ID
	batch.Ads = nil
	batch.ProviderError = strPtr("scrape timed out")

	summary, err := p.processor.ProcessBatch(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Total)

	runs, _, err := p.ingestRepo.List(ctx, &researchRun.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, models.IngestRunFailed, runs[0].Status)
	require.NotNil(t, runs[0].StatusReason)
	assert.Equal(t, models.IngestReasonProviderError, *runs[0].StatusReason)
}

func TestProcessBatch_EmptyProviderResult(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	p := newPipeline(t)
	ctx := context.Background()
	orgID := uuid.New().String()

	researchRun, err := p.runRepo.Create(ctx, orgID, uuid.New().String())
	require.NoError(t, err)

	batch := metaBatch(orgID)
	batch.ResearchRunID = &researchRun.ID
	batch.Ads = nil

	summary, err := p.processor.ProcessBatch(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Total)

	runs, _, err := p.ingestRepo.List(ctx, &researchRun.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, models.IngestRunEmpty, runs[0].Status)
}
