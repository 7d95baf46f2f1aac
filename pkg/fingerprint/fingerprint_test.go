package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCopy(t *testing.T) {
	base := CopyTuple{
		BodyText:       "Shop the summer sale",
		Headline:       "50% off",
		CTAType:        "SHOP_NOW",
		CTAText:        "Shop Now",
		LandingURL:     "https://example.com/sale",
		DestinationDom: "example.com",
	}

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, Copy(base), Copy(base))
		assert.Len(t, Copy(base), 64)
	})

	t.Run("case and whitespace insensitive", func(t *testing.T) {
		variant := base
		variant.Headline = "  50% OFF "
		assert.Equal(t, Copy(base), Copy(variant))
	})

	t.Run("field changes change the hash", func(t *testing.T) {
		variant := base
		variant.BodyText = "Shop the winter sale"
		assert.NotEqual(t, Copy(base), Copy(variant))
	})

	t.Run("values do not collide across fields", func(t *testing.T) {
		a := CopyTuple{Headline: "x|cta_text=y"}
		b := CopyTuple{Headline: "x", CTAText: "y"}
		assert.NotEqual(t, Copy(a), Copy(b))
	})
}

func TestMedia(t *testing.T) {
	t.Run("order independent", func(t *testing.T) {
		a := Media([]string{"sha:aaa", "sha:bbb"})
		b := Media([]string{"sha:bbb", "sha:aaa"})
		assert.Equal(t, a, b)
	})

	t.Run("does not mutate input", func(t *testing.T) {
		ids := []string{"sha:bbb", "sha:aaa"}
		Media(ids)
		assert.Equal(t, []string{"sha:bbb", "sha:aaa"}, ids)
	})

	t.Run("empty set has a stable identity", func(t *testing.T) {
		assert.Equal(t, Media(nil), Media([]string{}))
		assert.NotEqual(t, Media(nil), Media([]string{"sha:aaa"}))
	})

	t.Run("trailing escape does not collide across identities", func(t *testing.T) {
		a := Media([]string{`x\`, `y`})
		b := Media([]string{`x\|asset=y`})
		assert.NotEqual(t, a, b)
	})

	t.Run("different sets differ", func(t *testing.T) {
		assert.NotEqual(t, Media([]string{"sha:aaa"}), Media([]string{"sha:aaa", "sha:bbb"}))
	})
}

func TestCreative(t *testing.T) {
	copyFP := Copy(CopyTuple{BodyText: "hello"})
	mediaFP := Media([]string{"sha:aaa"})

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, Creative(copyFP, mediaFP), Creative(copyFP, mediaFP))
	})

	t.Run("sensitive to both components", func(t *testing.T) {
		otherCopy := Copy(CopyTuple{BodyText: "goodbye"})
		otherMedia := Media(nil)
		assert.NotEqual(t, Creative(copyFP, mediaFP), Creative(otherCopy, mediaFP))
		assert.NotEqual(t, Creative(copyFP, mediaFP), Creative(copyFP, otherMedia))
	})
}
