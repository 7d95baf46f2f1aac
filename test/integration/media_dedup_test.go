package integration

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

func TestMediaDedup_ContentHashWins(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	p := newPipeline(t)
	ctx := context.Background()
	hash := uuid.New().String()

	first, err := p.deduplicator.GetOrCreateMediaAsset(ctx, models.ChannelMeta, models.NormalizedAsset{
		AssetKind: models.AssetKindImage,
		SHA256:    &hash,
		SourceURL: strPtr("https://cdn.example.com/a.jpg"),
	})
	require.NoError(t, err)
	assert.True(t, first.IsNew)

	// Same bytes scraped from another channel and URL still dedup to the
	// same asset.
	second, err := p.deduplicator.GetOrCreateMediaAsset(ctx, models.ChannelTikTok, models.NormalizedAsset{
		AssetKind: models.AssetKindImage,
		SHA256:    &hash,
		SourceURL: strPtr("https://cdn.other.com/b.jpg"),
	})
	require.NoError(t, err)
	assert.False(t, second.IsNew)
	assert.Equal(t, first.Asset.ID, second.Asset.ID)
}

func TestMediaDedup_URLFallbackPerChannel(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	p := newPipeline(t)
	ctx := context.Background()
	sourceURL := "https://cdn.example.com/" + uuid.New().String() + ".mp4"

	first, err := p.deduplicator.GetOrCreateMediaAsset(ctx, models.ChannelMeta, models.NormalizedAsset{
		AssetKind: models.AssetKindVideo,
		SourceURL: &sourceURL,
	})
	require.NoError(t, err)
	assert.True(t, first.IsNew)
	assert.Equal(t, models.MirrorStatusPending, first.Asset.MirrorStatus)

	// Same URL on the same channel is the same asset.
	second, err := p.deduplicator.GetOrCreateMediaAsset(ctx, models.ChannelMeta, models.NormalizedAsset{
		AssetKind: models.AssetKindVideo,
		SourceURL: &sourceURL,
	})
	require.NoError(t, err)
	assert.False(t, second.IsNew)
	assert.Equal(t, first.Asset.ID, second.Asset.ID)

	// Without a hash, the URL identity is scoped to the channel.
	third, err := p.deduplicator.GetOrCreateMediaAsset(ctx, models.ChannelTikTok, models.NormalizedAsset{
		AssetKind: models.AssetKindVideo,
		SourceURL: &sourceURL,
	})
	require.NoError(t, err)
	assert.True(t, third.IsNew)
	assert.NotEqual(t, first.Asset.ID, third.Asset.ID)
}

func TestMediaDedup_LateDimensionsFillNulls(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	p := newPipeline(t)
	ctx := context.Background()
	sourceURL := "https://cdn.example.com/" + uuid.New().String() + ".jpg"

	first, err := p.deduplicator.GetOrCreateMediaAsset(ctx, models.ChannelMeta, models.NormalizedAsset{
		AssetKind: models.AssetKindImage,
		SourceURL: &sourceURL,
	})
	require.NoError(t, err)
	assert.Nil(t, first.Asset.Width)

	// A later sighting with dimensions fills the nulls without touching
	// anything already known.
	width, height := 1080, 1350
	second, err := p.deduplicator.GetOrCreateMediaAsset(ctx, models.ChannelMeta, models.NormalizedAsset{
		AssetKind: models.AssetKindImage,
		SourceURL: &sourceURL,
		Width:     &width,
		Height:    &height,
	})
	require.NoError(t, err)
	assert.Equal(t, first.Asset.ID, second.Asset.ID)
	require.NotNil(t, second.Asset.Width)
	assert.Equal(t, 1080, *second.Asset.Width)
}

func TestMediaAsset_MimeTypeInferred(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	p := newPipeline(t)
	ctx := context.Background()
	sourceURL := "https://cdn.example.com/" + uuid.New().String() + ".png"

	result, err := p.deduplicator.GetOrCreateMediaAsset(ctx, models.ChannelMeta, models.NormalizedAsset{
		AssetKind: models.AssetKindImage,
		SourceURL: &sourceURL,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Asset.MimeType)
	assert.Equal(t, "image/png", *result.Asset.MimeType)
}

func TestMediaAsset_MirrorStatusCallback(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	p := newPipeline(t)
	ctx := context.Background()
	hash := uuid.New().String()

	created, err := p.deduplicator.GetOrCreateMediaAsset(ctx, models.ChannelMeta, models.NormalizedAsset{
		AssetKind: models.AssetKindImage,
		SHA256:    &hash,
	})
	require.NoError(t, err)
	assert.Equal(t, models.MirrorStatusPending, created.Asset.MirrorStatus)

	storedURL := "https://mirror.example.com/" + hash + ".jpg"
	require.NoError(t, p.assetRepo.UpdateMirrorStatus(ctx, created.Asset.ID, models.MirrorStatusMirrored, &storedURL))

	mirrored, err := p.assetRepo.GetBySHA256(ctx, hash)
	require.NoError(t, err)
	require.NotNil(t, mirrored)
	assert.Equal(t, models.MirrorStatusMirrored, mirrored.MirrorStatus)
	require.NotNil(t, mirrored.StoredURL)
	assert.Equal(t, storedURL, *mirrored.StoredURL)

	// Unknown asset ids report not found instead of silently succeeding.
	err = p.assetRepo.UpdateMirrorStatus(ctx, uuid.New().String(), models.MirrorStatusFailed, nil)
	require.Error(t, err)
}
