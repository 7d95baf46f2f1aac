// Package scoring derives ad performance scores from already-persisted
// ad and fact state. Scores are a pure function of their inputs so the
// backfill job can recompute them at any time and converge on identical rows.
package scoring

import (
	"encoding/json"
	"math"

	"github.com/Ramsey-B/clover/pkg/models"
)

// ScoreVersion tags every breakdown this package produces. Bump it when the
// formula changes so old rows are recognizably stale.
const ScoreVersion = "v1"

const (
	// longevity saturates at 90 days of runtime
	longevityCapDays = 90.0

	// media richness saturates at 5 linked assets
	mediaCapCount = 5.0
)

// Breakdown records the subscores behind a score row for explainability.
type Breakdown struct {
	Longevity        float64 `json:"longevity"`
	Recency          float64 `json:"recency"`
	MediaRichness    float64 `json:"media_richness"`
	CopyCompleteness float64 `json:"copy_completeness"`
}

// Score computes performance/winning/confidence scores for an ad from its
// durable fields, its fact projection, and its linked media count. All
// outputs are in [0, 1].
func Score(ad *models.Ad, facts *models.AdFacts, mediaCount int) (*models.AdScore, error) {
	breakdown := Breakdown{
		Longevity:        longevity(facts),
		Recency:          recency(ad),
		MediaRichness:    mediaRichness(facts, mediaCount),
		CopyCompleteness: copyCompleteness(ad, facts),
	}

	breakdownJSON, err := json.Marshal(breakdown)
	if err != nil {
		return nil, err
	}

	performance := clamp(0.35*breakdown.Longevity +
		0.20*breakdown.Recency +
		0.25*breakdown.MediaRichness +
		0.20*breakdown.CopyCompleteness)

	winning := clamp(0.50*breakdown.Longevity +
		0.30*breakdown.Recency +
		0.20*breakdown.MediaRichness)

	return &models.AdScore{
		AdID:             ad.ID,
		PerformanceScore: round(performance),
		WinningScore:     round(winning),
		ConfidenceScore:  round(confidence(ad, facts, mediaCount)),
		ScoreVersion:     ScoreVersion,
		ScoreBreakdown:   breakdownJSON,
	}, nil
}

// longevity rewards ads that have stayed running. An ad still active after
// weeks of spend is the strongest signal the library gives us.
func longevity(facts *models.AdFacts) float64 {
	if facts == nil || facts.DaysActive <= 0 {
		return 0
	}
	return clamp(float64(facts.DaysActive) / longevityCapDays)
}

// recency scores current run state. Status is a field of the ad row, so the
// score stays a pure function of persisted state.
func recency(ad *models.Ad) float64 {
	switch ad.AdStatus {
	case models.AdStatusActive:
		return 1.0
	case models.AdStatusUnknown:
		return 0.5
	default:
		return 0.2
	}
}

func mediaRichness(facts *models.AdFacts, mediaCount int) float64 {
	score := clamp(float64(mediaCount) / mediaCapCount)

	if facts != nil {
		switch facts.DisplayFormat {
		case models.DisplayFormatVideo:
			score = clamp(score + 0.25)
		case models.DisplayFormatCarousel:
			score = clamp(score + 0.15)
		}
	}

	return score
}

func copyCompleteness(ad *models.Ad, facts *models.AdFacts) float64 {
	present := 0.0
	if ad.BodyText != nil && *ad.BodyText != "" {
		present++
	}
	if ad.Description != nil && *ad.Description != "" {
		present++
	}
	if ad.LandingURL != nil && *ad.LandingURL != "" {
		present++
	}
	if facts != nil && facts.HasHeadline {
		present++
	}
	if facts != nil && facts.HasCTA {
		present++
	}
	return present / 5.0
}

// confidence reflects how much of the input surface was actually known,
// independent of how good the ad looks.
func confidence(ad *models.Ad, facts *models.AdFacts, mediaCount int) float64 {
	known := 0.0
	if ad.StartedRunningAt != nil {
		known++
	}
	if ad.AdStatus != models.AdStatusUnknown {
		known++
	}
	if mediaCount > 0 {
		known++
	}
	if facts != nil && facts.StartDate != nil {
		known++
	}
	if ad.BodyText != nil && *ad.BodyText != "" {
		known++
	}
	return known / 5.0
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// round keeps stored scores at 4 decimal places so recomputation produces
// byte-identical rows across platforms.
func round(v float64) float64 {
	return math.Round(v*10000) / 10000
}
