package models

import (
	"encoding/json"
	"time"
)

// NormalizedAd is the provider-agnostic shape produced by the scraping
// adapters. Adapters own all wire-format translation; the pipeline rejects
// records without an external_ad_id before any writes happen.
type NormalizedAd struct {
	ExternalAdID     string          `json:"external_ad_id" validate:"required"`
	AdStatus         string          `json:"ad_status,omitempty"`
	StartedRunningAt *time.Time      `json:"started_running_at,omitempty"`
	EndedRunningAt   *time.Time      `json:"ended_running_at,omitempty"`
	FirstSeenAt      *time.Time      `json:"first_seen_at,omitempty"`
	LastSeenAt       *time.Time      `json:"last_seen_at,omitempty"`
	BodyText         *string         `json:"body_text,omitempty"`
	Headline         *string         `json:"headline,omitempty"`
	Description      *string         `json:"description,omitempty"`
	CTAType          *string         `json:"cta_type,omitempty"`
	CTAText          *string         `json:"cta_text,omitempty"`
	LandingURL       *string         `json:"landing_url,omitempty"`
	CountryCodes     []string        `json:"country_codes,omitempty"`
	LanguageCodes    []string        `json:"language_codes,omitempty"`
	RawJSON          json.RawMessage `json:"raw_json,omitempty"`
	Assets           []NormalizedAsset `json:"assets,omitempty"`
}

// NormalizedAsset is one media reference attached to a normalized ad.
type NormalizedAsset struct {
	AssetKind       string          `json:"asset_kind" validate:"required,oneof=image video"`
	Role            string          `json:"role,omitempty"`
	SHA256          *string         `json:"sha256,omitempty"`
	SourceURL       *string         `json:"source_url,omitempty"`
	StoredURL       *string         `json:"stored_url,omitempty"`
	MimeType        *string         `json:"mime_type,omitempty"`
	Width           *int            `json:"width,omitempty"`
	Height          *int            `json:"height,omitempty"`
	DurationSeconds *float64        `json:"duration_seconds,omitempty"`
	SizeBytes       *int64          `json:"size_bytes,omitempty"`
	Metadata        json.RawMessage `json:"metadata,omitempty"`
}

// AdUpsertResult is what one successful per-ad upsert returns: the ad row
// after merge, its resolved media assets, and the creative it now belongs to.
type AdUpsertResult struct {
	Ad          *Ad          `json:"ad"`
	MediaAssets []MediaAsset `json:"media_assets,omitempty"`
	CreativeID  string       `json:"creative_id,omitempty"`
	IsNewAd     bool         `json:"is_new_ad"`
	NewAssetIDs []string     `json:"new_asset_ids,omitempty"`
}

// ItemResult is the per-item outcome collected into a run summary, so
// callers can tell "0 succeeded" apart from "all succeeded".
type ItemResult struct {
	Key   AdKey  `json:"key"`
	AdID  string `json:"ad_id,omitempty"`
	Error string `json:"error,omitempty"`
}

// OK reports whether the item upserted successfully.
func (r ItemResult) OK() bool {
	return r.Error == ""
}

// RunSummary aggregates the per-item results of one ingestion run.
type RunSummary struct {
	Total     int          `json:"total"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Results   []ItemResult `json:"results,omitempty"`
}
