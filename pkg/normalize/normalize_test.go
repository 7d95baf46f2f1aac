package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBrandName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "lowercases and trims",
			input:    "  Acme Outdoors  ",
			expected: "acme outdoors",
		},
		{
			name:     "strips punctuation",
			input:    "Ben & Jerry's",
			expected: "ben jerry s",
		},
		{
			name:     "strips legal suffix",
			input:    "Acme Outdoors, Inc.",
			expected: "acme outdoors",
		},
		{
			name:     "strips stacked legal suffixes",
			input:    "Acme Co Ltd",
			expected: "acme",
		},
		{
			name:     "keeps suffix when it is the whole name",
			input:    "Inc",
			expected: "inc",
		},
		{
			name:     "collapses internal whitespace",
			input:    "acme\t\toutdoors",
			expected: "acme outdoors",
		},
		{
			name:     "unicode letters survive",
			input:    "Café Müller GmbH",
			expected: "café müller",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BrandName(tt.input))
		})
	}
}

func TestURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "lowercases scheme and host",
			input:    "HTTPS://Shop.Example.com/Path?a=1",
			expected: "https://shop.example.com/Path?a=1",
		},
		{
			name:     "strips default https port",
			input:    "https://example.com:443/x",
			expected: "https://example.com/x",
		},
		{
			name:     "strips default http port",
			input:    "http://example.com:80/x",
			expected: "http://example.com/x",
		},
		{
			name:     "keeps explicit port",
			input:    "https://example.com:8443/x",
			expected: "https://example.com:8443/x",
		},
		{
			name:     "drops fragment",
			input:    "https://example.com/x#section",
			expected: "https://example.com/x",
		},
		{
			name:     "bare hostname gets https",
			input:    "example.com/landing",
			expected: "https://example.com/landing",
		},
		{
			name:     "garbage returns empty",
			input:    "not a url at all",
			expected: "",
		},
		{
			name:     "empty returns empty",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, URL(tt.input))
		})
	}
}

func TestStripTrackingParams(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "removes utm params",
			input:    "https://example.com/p?utm_source=fb&utm_medium=paid&color=red",
			expected: "https://example.com/p?color=red",
		},
		{
			name:     "removes click ids",
			input:    "https://example.com/p?fbclid=abc123&gclid=xyz",
			expected: "https://example.com/p",
		},
		{
			name:     "preserves order of kept params",
			input:    "https://example.com/p?b=2&utm_campaign=x&a=1",
			expected: "https://example.com/p?b=2&a=1",
		},
		{
			name:     "no query is a no-op",
			input:    "https://example.com/p",
			expected: "https://example.com/p",
		},
		{
			name:     "unparseable input passes through",
			input:    "not a url",
			expected: "not a url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripTrackingParams(tt.input))
		})
	}
}

func TestLandingURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "strips tracking then normalizes",
			input:    "HTTPS://Example.com:443/Buy?utm_source=meta&sku=9",
			expected: "https://example.com/Buy?sku=9",
		},
		{
			name:     "empty stays empty",
			input:    "   ",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, LandingURL(tt.input))
		})
	}
}

func TestPrimaryDomain(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "full url",
			input:    "https://shop.example.com/landing?x=1",
			expected: "example.com",
		},
		{
			name:     "strips www",
			input:    "https://www.example.com",
			expected: "example.com",
		},
		{
			name:     "bare hostname",
			input:    "store.example.co.uk",
			expected: "example.co.uk",
		},
		{
			name:     "multi part public suffix",
			input:    "https://foo.bar.github.io/page",
			expected: "bar.github.io",
		},
		{
			name:     "no registrable domain",
			input:    "https://localhost/x",
			expected: "",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, PrimaryDomain(tt.input))
		})
	}
}
