package integration

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

func TestPageTotals_SnapshotOverwritesSameQueryKey(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	p := newPipeline(t)
	ctx := context.Background()
	orgID := uuid.New().String()
	brandRow := seedBrand(t, p, orgID)

	researchRun, err := p.runRepo.Create(ctx, orgID, uuid.New().String())
	require.NoError(t, err)

	pageID := "page-" + uuid.New().String()
	identityRow, _, err := p.resolver.UpsertBrandChannelIdentity(ctx, models.UpsertBrandChannelIdentityRequest{
		BrandID:    brandRow.ID,
		Channel:    models.ChannelMeta,
		ExternalID: &pageID,
	})
	require.NoError(t, err)

	first, err := p.pageTotalRepo.Upsert(ctx, models.UpsertPageTotalRequest{
		ResearchRunID:          researchRun.ID,
		BrandChannelIdentityID: identityRow.ID,
		QueryKey:               "US:all",
		TotalCount:             120,
	})
	require.NoError(t, err)
	assert.Equal(t, 120, first.TotalCount)

	// Re-scraping the same query within the run overwrites the snapshot.
	second, err := p.pageTotalRepo.Upsert(ctx, models.UpsertPageTotalRequest{
		ResearchRunID:          researchRun.ID,
		BrandChannelIdentityID: identityRow.ID,
		QueryKey:               "US:all",
		TotalCount:             134,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 134, second.TotalCount)

	// A different query key is a separate snapshot.
	other, err := p.pageTotalRepo.Upsert(ctx, models.UpsertPageTotalRequest{
		ResearchRunID:          researchRun.ID,
		BrandChannelIdentityID: identityRow.ID,
		QueryKey:               "CA:all",
		TotalCount:             40,
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)

	totals, err := p.pageTotalRepo.ListByRun(ctx, researchRun.ID)
	require.NoError(t, err)
	assert.Len(t, totals, 2)
}

func TestResearchRun_BrandAttachmentIdempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	p := newPipeline(t)
	ctx := context.Background()
	orgID := uuid.New().String()
	brandRow := seedBrand(t, p, orgID)

	researchRun, err := p.runRepo.Create(ctx, orgID, uuid.New().String())
	require.NoError(t, err)
	assert.Equal(t, models.ResearchRunPending, researchRun.Status)

	first, err := p.runRepo.AddBrand(ctx, researchRun.ID, brandRow.ID)
	require.NoError(t, err)
	second, err := p.runRepo.AddBrand(ctx, researchRun.ID, brandRow.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	brands, err := p.runRepo.ListBrands(ctx, researchRun.ID)
	require.NoError(t, err)
	assert.Len(t, brands, 1)
}

func TestResearchRun_StatusTransitions(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	p := newPipeline(t)
	ctx := context.Background()
	orgID := uuid.New().String()

	researchRun, err := p.runRepo.Create(ctx, orgID, uuid.New().String())
	require.NoError(t, err)
	assert.Equal(t, models.ResearchRunPending, researchRun.Status)

	require.NoError(t, p.runRepo.SetStatus(ctx, researchRun.ID, models.ResearchRunRunning))
	running, err := p.runRepo.Get(ctx, orgID, researchRun.ID)
	require.NoError(t, err)
	require.NotNil(t, running)
	assert.Equal(t, models.ResearchRunRunning, running.Status)

	require.NoError(t, p.runRepo.SetStatus(ctx, researchRun.ID, models.ResearchRunCompleted))
	completed, err := p.runRepo.Get(ctx, orgID, researchRun.ID)
	require.NoError(t, err)
	require.NotNil(t, completed)
	assert.Equal(t, models.ResearchRunCompleted, completed.Status)

	// Unknown run ids report not found instead of silently succeeding.
	err = p.runRepo.SetStatus(ctx, uuid.New().String(), models.ResearchRunFailed)
	require.Error(t, err)
}
