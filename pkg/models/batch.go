package models

import "encoding/json"

// BatchBrand is the advertiser context carried with a normalized batch.
type BatchBrand struct {
	CanonicalName string  `json:"canonical_name" validate:"required"`
	WebsiteURL    *string `json:"website_url,omitempty"`
}

// BatchIdentity is the channel presence the batch was scraped from.
type BatchIdentity struct {
	ExternalID  *string         `json:"external_id,omitempty"`
	ExternalURL *string         `json:"external_url,omitempty"`
	DisplayName *string         `json:"display_name,omitempty"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
}

// PageTotalSnapshot is one provider-reported aggregate count carried with a
// batch.
type PageTotalSnapshot struct {
	QueryKey   string          `json:"query_key" validate:"required"`
	TotalCount int             `json:"total_count"`
	RawPayload json.RawMessage `json:"raw_payload,omitempty"`
}

// NormalizedAdBatch is one provider-call result handed to the pipeline by a
// scraping adapter: the brand and channel identity the ads belong to, the
// normalized ads themselves, and any aggregate snapshots. ProviderError is
// set when the provider call itself failed and no items could be produced.
type NormalizedAdBatch struct {
	OrgID             string              `json:"org_id" validate:"required"`
	ProductID         *string             `json:"product_id,omitempty"`
	ResearchRunID     *string             `json:"research_run_id,omitempty"`
	Channel           string              `json:"channel" validate:"required"`
	Brand             BatchBrand          `json:"brand"`
	Identity          BatchIdentity       `json:"identity"`
	ProviderRunID     *string             `json:"provider_run_id,omitempty"`
	ProviderDatasetID *string             `json:"provider_dataset_id,omitempty"`
	ProviderError     *string             `json:"provider_error,omitempty"`
	Ads               []NormalizedAd      `json:"ads,omitempty"`
	PageTotals        []PageTotalSnapshot `json:"page_totals,omitempty"`
}
