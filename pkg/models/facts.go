package models

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// Display formats derived from an ad's linked media.
const (
	DisplayFormatText     = "text"
	DisplayFormatImage    = "image"
	DisplayFormatVideo    = "video"
	DisplayFormatCarousel = "carousel"
)

// AdFacts is a denormalized projection of Ad + Brand + MediaAsset data
// optimized for filtering. Exactly one row per ad; always recomputable from
// source rows and never hand-edited.
type AdFacts struct {
	AdID               string         `json:"ad_id" db:"ad_id"`
	OrgID              string         `json:"org_id" db:"org_id"`
	BrandID            string         `json:"brand_id" db:"brand_id"`
	Channel            string         `json:"channel" db:"channel"`
	CountryCodes       pq.StringArray `json:"country_codes,omitempty" db:"country_codes"`
	LanguageCodes      pq.StringArray `json:"language_codes,omitempty" db:"language_codes"`
	MediaTypes         pq.StringArray `json:"media_types,omitempty" db:"media_types"`
	MediaCount         int            `json:"media_count" db:"media_count"`
	DisplayFormat      string         `json:"display_format" db:"display_format"`
	DaysActive         int            `json:"days_active" db:"days_active"`
	StartDate          *time.Time     `json:"start_date,omitempty" db:"start_date"`
	VideoLengthSeconds *float64       `json:"video_length_seconds,omitempty" db:"video_length_seconds"`
	HasHeadline        bool           `json:"has_headline" db:"has_headline"`
	HasCTA             bool           `json:"has_cta" db:"has_cta"`
	CreatedAt          time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at" db:"updated_at"`
}

// AdScore holds the derived performance/winning/confidence scores for one
// ad, plus a versioned breakdown for explainability. Exactly one row per ad.
// Recomputing with unchanged inputs yields byte-identical output.
type AdScore struct {
	AdID             string          `json:"ad_id" db:"ad_id"`
	PerformanceScore float64         `json:"performance_score" db:"performance_score"`
	WinningScore     float64         `json:"winning_score" db:"winning_score"`
	ConfidenceScore  float64         `json:"confidence_score" db:"confidence_score"`
	ScoreVersion     string          `json:"score_version" db:"score_version"`
	ScoreBreakdown   json.RawMessage `json:"score_breakdown,omitempty" db:"score_breakdown"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
}
