package media

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/clover/pkg/models"
)

func strPtr(s string) *string { return &s }

func TestInferMimeType(t *testing.T) {
	tests := []struct {
		name     string
		asset    models.NormalizedAsset
		expected string
	}{
		{
			name: "from source url extension",
			asset: models.NormalizedAsset{
				AssetKind: models.AssetKindImage,
				SourceURL: strPtr("https://cdn.example.com/creative.png?token=abc"),
			},
			expected: "image/png",
		},
		{
			name: "stored url when source has no extension",
			asset: models.NormalizedAsset{
				AssetKind: models.AssetKindImage,
				SourceURL: strPtr("https://cdn.example.com/creative"),
				StoredURL: strPtr("https://storage.example.com/abc.webp"),
			},
			expected: "image/webp",
		},
		{
			name: "video fallback",
			asset: models.NormalizedAsset{
				AssetKind: models.AssetKindVideo,
				SourceURL: strPtr("https://cdn.example.com/clip"),
			},
			expected: "video/mp4",
		},
		{
			name: "image fallback with no urls",
			asset: models.NormalizedAsset{
				AssetKind: models.AssetKindImage,
			},
			expected: "image/jpeg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, inferMimeType(tt.asset))
		})
	}
}
