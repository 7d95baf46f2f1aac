package ingest

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

func testProcessor(maxChars int) *Processor {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return NewProcessor(logger, nil, nil, nil, nil, nil, maxChars)
}

func failedItem(extID, errText string) models.ItemResult {
	return models.ItemResult{
		Key:   models.AdKey{Channel: models.ChannelMeta, ExternalAdID: extID},
		Error: errText,
	}
}

func TestFinishParams(t *testing.T) {
	p := testProcessor(5000)

	tests := []struct {
		name           string
		batch          models.NormalizedAdBatch
		summary        *models.RunSummary
		expectedStatus string
		expectedReason string
		expectPartial  bool
	}{
		{
			name:           "provider error",
			batch:          models.NormalizedAdBatch{ProviderError: strPtr("HTTP 500 from provider")},
			summary:        &models.RunSummary{},
			expectedStatus: models.IngestRunFailed,
			expectedReason: models.IngestReasonProviderError,
		},
		{
			name:           "empty batch",
			batch:          models.NormalizedAdBatch{},
			summary:        &models.RunSummary{Total: 0},
			expectedStatus: models.IngestRunEmpty,
			expectedReason: models.IngestReasonProviderEmpty,
		},
		{
			name:  "all items failed",
			batch: models.NormalizedAdBatch{},
			summary: &models.RunSummary{
				Total:   2,
				Failed:  2,
				Results: []models.ItemResult{failedItem("ext-1", "boom"), failedItem("ext-2", "bang")},
			},
			expectedStatus: models.IngestRunFailed,
			expectedReason: models.IngestReasonAllItemsFailed,
		},
		{
			name:  "partial success",
			batch: models.NormalizedAdBatch{},
			summary: &models.RunSummary{
				Total:     3,
				Succeeded: 2,
				Failed:    1,
				Results:   []models.ItemResult{failedItem("ext-3", "boom")},
			},
			expectedStatus: models.IngestRunSucceeded,
			expectPartial:  true,
		},
		{
			name:           "clean success",
			batch:          models.NormalizedAdBatch{},
			summary:        &models.RunSummary{Total: 2, Succeeded: 2},
			expectedStatus: models.IngestRunSucceeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := p.finishParams(tt.batch, tt.summary)

			assert.Equal(t, tt.expectedStatus, params.Status)
			assert.Equal(t, tt.expectPartial, params.IsPartial)
			if tt.expectedReason != "" {
				require.NotNil(t, params.StatusReason)
				assert.Equal(t, tt.expectedReason, *params.StatusReason)
			} else {
				assert.Nil(t, params.StatusReason)
			}
		})
	}
}

func TestFinishParamsTruncatesErrorText(t *testing.T) {
	p := testProcessor(50)

	summary := &models.RunSummary{
		Total:   1,
		Failed:  1,
		Results: []models.ItemResult{failedItem("ext-1", strings.Repeat("x", 200))},
	}

	params := p.finishParams(models.NormalizedAdBatch{}, summary)
	require.NotNil(t, params.ErrorText)
	assert.Len(t, *params.ErrorText, 50)
}

func TestFinishParamsTruncatesOnRuneBoundary(t *testing.T) {
	p := testProcessor(50)

	// Multi-byte runes land across the 50-byte cut point.
	summary := &models.RunSummary{
		Total:   1,
		Failed:  1,
		Results: []models.ItemResult{failedItem("ext-1", strings.Repeat("ü", 100))},
	}

	params := p.finishParams(models.NormalizedAdBatch{}, summary)
	require.NotNil(t, params.ErrorText)
	assert.True(t, utf8.ValidString(*params.ErrorText))
	assert.LessOrEqual(t, len(*params.ErrorText), 50)
}

func TestJoinErrors(t *testing.T) {
	summary := &models.RunSummary{
		Results: []models.ItemResult{
			{Key: models.AdKey{Channel: models.ChannelMeta, ExternalAdID: "ok-1"}, AdID: "ad-1"},
			failedItem("ext-2", "boom"),
			failedItem("ext-3", "bang"),
		},
	}

	joined := joinErrors(summary)
	assert.Equal(t, "META/ext-2: boom\nMETA/ext-3: bang", joined)
}
