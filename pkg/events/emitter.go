// Package events publishes pipeline outcomes for downstream collaborators:
// the media mirroring service watches for new assets, and reporting
// consumers watch for completed ingest runs.
package events

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Event types emitted by the pipeline.
const (
	EventMediaAssetCreated  = "media.asset.created"
	EventIngestRunCompleted = "ad.ingest.completed"
)

// MediaAssetCreatedEvent tells the mirroring service to copy bytes for a
// newly created asset. The pipeline does not block on mirroring.
type MediaAssetCreatedEvent struct {
	EventType    string    `json:"event_type"`
	MediaAssetID string    `json:"media_asset_id"`
	Channel      string    `json:"channel"`
	AssetKind    string    `json:"asset_kind"`
	SHA256       *string   `json:"sha256,omitempty"`
	SourceURL    *string   `json:"source_url,omitempty"`
	MirrorStatus string    `json:"mirror_status"`
	Timestamp    time.Time `json:"timestamp"`
}

// IngestRunCompletedEvent summarizes one finished ingest run.
type IngestRunCompletedEvent struct {
	EventType     string     `json:"event_type"`
	RunID         string     `json:"run_id"`
	ResearchRunID *string    `json:"research_run_id,omitempty"`
	Channel       string     `json:"channel"`
	Status        string     `json:"status"`
	StatusReason  *string    `json:"status_reason,omitempty"`
	IsPartial     bool       `json:"is_partial"`
	ItemCount     int        `json:"item_count"`
	ErrorCount    int        `json:"error_count"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
	Timestamp     time.Time  `json:"timestamp"`
}

// Emitter publishes pipeline events to Kafka.
type Emitter struct {
	logger   ectologger.Logger
	producer *kafka.Producer
}

// NewEmitter creates a new event emitter
func NewEmitter(logger ectologger.Logger, producer *kafka.Producer) *Emitter {
	return &Emitter{
		logger:   logger,
		producer: producer,
	}
}

// MediaAssetsCreated publishes one event per newly created media asset.
func (e *Emitter) MediaAssetsCreated(ctx context.Context, assets []models.MediaAsset) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.MediaAssetsCreated")
	defer span.End()

	now := time.Now().UTC()
	for i := range assets {
		event := MediaAssetCreatedEvent{
			EventType:    EventMediaAssetCreated,
			MediaAssetID: assets[i].ID,
			Channel:      assets[i].Channel,
			AssetKind:    assets[i].AssetKind,
			SHA256:       assets[i].SHA256,
			SourceURL:    assets[i].SourceURL,
			MirrorStatus: assets[i].MirrorStatus,
			Timestamp:    now,
		}
		if err := e.producer.Publish(ctx, EventMediaAssetCreated, assets[i].ID, event); err != nil {
			return err
		}
	}
	return nil
}

// IngestRunCompleted publishes the outcome of one ingest run.
func (e *Emitter) IngestRunCompleted(ctx context.Context, run *models.AdIngestRun, summary *models.RunSummary) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.IngestRunCompleted")
	defer span.End()

	event := IngestRunCompletedEvent{
		EventType:     EventIngestRunCompleted,
		RunID:         run.ID,
		ResearchRunID: run.ResearchRunID,
		Channel:       run.Channel,
		Status:        run.Status,
		StatusReason:  run.StatusReason,
		IsPartial:     run.IsPartial,
		ItemCount:     summary.Total,
		ErrorCount:    summary.Failed,
		FinishedAt:    run.FinishedAt,
		Timestamp:     time.Now().UTC(),
	}
	return e.producer.Publish(ctx, EventIngestRunCompleted, run.ID, event)
}
