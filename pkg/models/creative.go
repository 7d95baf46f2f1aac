package models

import "time"

// AdCreative is the deduplicated concept behind one or more ads that share
// copy and media content. Keyed by (org_id, brand_id, channel,
// fingerprint_algo, creative_fingerprint); fingerprint_algo is versioned so a
// future algorithm change opens a disjoint fingerprint space instead of
// silently reclustering history.
type AdCreative struct {
	ID                  string    `json:"id" db:"id"`
	OrgID               string    `json:"org_id" db:"org_id"`
	BrandID             string    `json:"brand_id" db:"brand_id"`
	Channel             string    `json:"channel" db:"channel"`
	FingerprintAlgo     string    `json:"fingerprint_algo" db:"fingerprint_algo"`
	CreativeFingerprint string    `json:"creative_fingerprint" db:"creative_fingerprint"`
	CopyFingerprint     string    `json:"copy_fingerprint" db:"copy_fingerprint"`
	MediaFingerprint    string    `json:"media_fingerprint" db:"media_fingerprint"`
	PrimaryMediaAssetID *string   `json:"primary_media_asset_id,omitempty" db:"primary_media_asset_id"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at"`
}

// AdCreativeMembership points an ad at the creative it currently resolves
// to. Exactly one row per ad; re-ingesting recomputes and overwrites it,
// since membership is a function of current ad/media state, not history.
type AdCreativeMembership struct {
	AdID         string    `json:"ad_id" db:"ad_id"`
	AdCreativeID string    `json:"ad_creative_id" db:"ad_creative_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
