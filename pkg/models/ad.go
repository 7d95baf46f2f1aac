package models

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// Ad channels. The channel value is part of every natural key, so it is
// stored exactly as the scraping adapters report it.
const (
	ChannelMeta     = "META"
	ChannelTikTok   = "TIKTOK"
	ChannelLinkedIn = "LINKEDIN"
)

// Ad statuses as normalized by the scraping adapters.
const (
	AdStatusActive   = "active"
	AdStatusInactive = "inactive"
	AdStatusUnknown  = "unknown"
)

// Ad is one advertisement record, unique per (channel, external_ad_id).
//
// Merge policy on re-sighting: durable fields (copy, landing_url,
// started_running_at, first_seen_at) are first-non-null-wins; volatile fields
// (ad_status, last_seen_at, ended_running_at, raw_json) are last-write-wins.
// Ads are never deleted by the pipeline.
type Ad struct {
	ID                     string          `json:"id" db:"id"`
	OrgID                  string          `json:"org_id" db:"org_id"`
	BrandID                string          `json:"brand_id" db:"brand_id"`
	BrandChannelIdentityID *string         `json:"brand_channel_identity_id,omitempty" db:"brand_channel_identity_id"`
	Channel                string          `json:"channel" db:"channel"`
	ExternalAdID           string          `json:"external_ad_id" db:"external_ad_id"`
	AdStatus               string          `json:"ad_status" db:"ad_status"`
	StartedRunningAt       *time.Time      `json:"started_running_at,omitempty" db:"started_running_at"`
	EndedRunningAt         *time.Time      `json:"ended_running_at,omitempty" db:"ended_running_at"`
	FirstSeenAt            time.Time       `json:"first_seen_at" db:"first_seen_at"`
	LastSeenAt             time.Time       `json:"last_seen_at" db:"last_seen_at"`
	BodyText               *string         `json:"body_text,omitempty" db:"body_text"`
	Headline               *string         `json:"headline,omitempty" db:"headline"`
	Description            *string         `json:"description,omitempty" db:"description"`
	CTAType                *string         `json:"cta_type,omitempty" db:"cta_type"`
	CTAText                *string         `json:"cta_text,omitempty" db:"cta_text"`
	LandingURL             *string         `json:"landing_url,omitempty" db:"landing_url"`
	DestinationDomain      *string         `json:"destination_domain,omitempty" db:"destination_domain"`
	CountryCodes           pq.StringArray  `json:"country_codes,omitempty" db:"country_codes"`
	LanguageCodes          pq.StringArray  `json:"language_codes,omitempty" db:"language_codes"`
	RawJSON                json.RawMessage `json:"raw_json,omitempty" db:"raw_json"`
	CreatedAt              time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at" db:"updated_at"`
}

// NaturalKey returns the provider-defined identity of the ad.
func (a *Ad) NaturalKey() AdKey {
	return AdKey{Channel: a.Channel, ExternalAdID: a.ExternalAdID}
}

// AdKey is the natural key of an ad, attached to every per-ad error so run
// callers can record item failures without aborting the batch.
type AdKey struct {
	Channel      string `json:"channel"`
	ExternalAdID string `json:"external_ad_id"`
}

// AdAssetLink joins an ad to a media asset with a role. A given
// (ad_id, media_asset_id) pair is only ever inserted once.
type AdAssetLink struct {
	AdID         string    `json:"ad_id" db:"ad_id"`
	MediaAssetID string    `json:"media_asset_id" db:"media_asset_id"`
	Role         string    `json:"role" db:"role"`
	Position     int       `json:"position" db:"position"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Asset link roles.
const (
	AssetRolePrimary       = "primary"
	AssetRoleCarouselSlide = "carousel_slide"
	AssetRoleThumbnail     = "thumbnail"
)
