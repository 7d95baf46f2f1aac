package models

import (
	"encoding/json"
	"time"
)

// Asset kinds.
const (
	AssetKindImage = "image"
	AssetKindVideo = "video"
)

// Mirror statuses for a media asset. Byte mirroring to durable storage is an
// external collaborator; ingestion only ever writes "pending".
const (
	MirrorStatusPending  = "pending"
	MirrorStatusMirrored = "mirrored"
	MirrorStatusFailed   = "failed"
)

// MediaAsset is one physical media object, keyed by sha256 when the provider
// reports one, else by (channel, source_url). Repeat sightings merge
// metadata first-write-wins per key and fill scalar fields only when
// previously null.
type MediaAsset struct {
	ID              string          `json:"id" db:"id"`
	Channel         string          `json:"channel" db:"channel"`
	SHA256          *string         `json:"sha256,omitempty" db:"sha256"`
	AssetKind       string          `json:"asset_kind" db:"asset_kind"`
	MimeType        *string         `json:"mime_type,omitempty" db:"mime_type"`
	Width           *int            `json:"width,omitempty" db:"width"`
	Height          *int            `json:"height,omitempty" db:"height"`
	DurationSeconds *float64        `json:"duration_seconds,omitempty" db:"duration_seconds"`
	SizeBytes       *int64          `json:"size_bytes,omitempty" db:"size_bytes"`
	SourceURL       *string         `json:"source_url,omitempty" db:"source_url"`
	StoredURL       *string         `json:"stored_url,omitempty" db:"stored_url"`
	MirrorStatus    string          `json:"mirror_status" db:"mirror_status"`
	Metadata        json.RawMessage `json:"metadata,omitempty" db:"metadata"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// ContentIdentity returns the dedup identity of the asset: the sha256 when
// known, else the (channel, source_url) pair. Used by the media fingerprint
// so hash-less assets still contribute a stable identity.
func (m *MediaAsset) ContentIdentity() string {
	if m.SHA256 != nil && *m.SHA256 != "" {
		return *m.SHA256
	}
	sourceURL := ""
	if m.SourceURL != nil {
		sourceURL = *m.SourceURL
	}
	return m.Channel + "|" + sourceURL
}
