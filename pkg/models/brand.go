package models

import (
	"encoding/json"
	"time"
)

// Brand is the org-scoped canonical advertiser identity.
// At most one row per (org_id, primary_domain) when the domain is known, and
// at most one per (org_id, normalized_name) among domain-less brands.
type Brand struct {
	ID                string     `json:"id" db:"id"`
	OrgID             string     `json:"org_id" db:"org_id"`
	CanonicalName     string     `json:"canonical_name" db:"canonical_name"`
	NormalizedName    string     `json:"normalized_name" db:"normalized_name"`
	PrimaryWebsiteURL *string    `json:"primary_website_url,omitempty" db:"primary_website_url"`
	PrimaryDomain     *string    `json:"primary_domain,omitempty" db:"primary_domain"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}

// UpsertBrandRequest is the find-or-create input for a brand sighting.
type UpsertBrandRequest struct {
	OrgID         string  `json:"org_id" validate:"required"`
	CanonicalName string  `json:"canonical_name" validate:"required"`
	WebsiteURL    *string `json:"website_url,omitempty"`
}

// Verification statuses for a brand channel identity. The status only moves
// forward; once verified it is never downgraded by ingestion.
const (
	VerificationUnverified = "unverified"
	VerificationVerified   = "verified"
)

// BrandChannelIdentity is a brand's presence on one ad channel (page,
// profile, advertiser account). Keyed by (brand_id, channel, external_id),
// falling back to (brand_id, channel, external_url) when the provider gives
// no stable id.
type BrandChannelIdentity struct {
	ID                 string          `json:"id" db:"id"`
	BrandID            string          `json:"brand_id" db:"brand_id"`
	Channel            string          `json:"channel" db:"channel"`
	ExternalID         *string         `json:"external_id,omitempty" db:"external_id"`
	ExternalURL        *string         `json:"external_url,omitempty" db:"external_url"`
	DisplayName        *string         `json:"display_name,omitempty" db:"display_name"`
	VerificationStatus string          `json:"verification_status" db:"verification_status"`
	Metadata           json.RawMessage `json:"metadata,omitempty" db:"metadata"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
}

// UpsertBrandChannelIdentityRequest is the find-or-create input for one
// channel identity sighting.
type UpsertBrandChannelIdentityRequest struct {
	BrandID            string          `json:"brand_id" validate:"required"`
	Channel            string          `json:"channel" validate:"required"`
	ExternalID         *string         `json:"external_id,omitempty"`
	ExternalURL        *string         `json:"external_url,omitempty"`
	DisplayName        *string         `json:"display_name,omitempty"`
	VerificationStatus string          `json:"verification_status,omitempty"`
	Metadata           json.RawMessage `json:"metadata,omitempty"`
}

// ProductBrandRelationship is a typed edge between a product under research
// and a brand (e.g. relationship_type "competitor" discovered via
// "ads_ingestion"). Unique per (product_id, brand_id, relationship_type).
type ProductBrandRelationship struct {
	ID               string    `json:"id" db:"id"`
	ProductID        string    `json:"product_id" db:"product_id"`
	BrandID          string    `json:"brand_id" db:"brand_id"`
	RelationshipType string    `json:"relationship_type" db:"relationship_type"`
	DiscoverySource  string    `json:"discovery_source" db:"discovery_source"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}
