package kafka

import (
	"encoding/json"
	"time"

	"github.com/Ramsey-B/clover/pkg/models"
)

// IncomingMessage wraps a raw Kafka message with parsed headers
type IncomingMessage struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Partition int
	Offset    int64
	Timestamp time.Time
	Topic     string

	// Parsed content
	Batch *models.NormalizedAdBatch
}

// ParseBatch parses the message value as a normalized ad batch. Context
// fields missing from the payload fall back to message headers, so adapters
// can route on headers without duplicating them in the body.
func (m *IncomingMessage) ParseBatch() error {
	var batch models.NormalizedAdBatch
	if err := json.Unmarshal(m.Value, &batch); err != nil {
		return err
	}

	if batch.OrgID == "" {
		batch.OrgID = m.Headers["org_id"]
	}
	if batch.Channel == "" {
		batch.Channel = m.Headers["channel"]
	}
	if batch.ResearchRunID == nil {
		if runID := m.Headers["research_run_id"]; runID != "" {
			batch.ResearchRunID = &runID
		}
	}
	if batch.ProductID == nil {
		if productID := m.Headers["product_id"]; productID != "" {
			batch.ProductID = &productID
		}
	}

	m.Batch = &batch
	return nil
}

// GetOrgID returns the org the batch belongs to.
func (m *IncomingMessage) GetOrgID() string {
	if m.Batch != nil && m.Batch.OrgID != "" {
		return m.Batch.OrgID
	}
	return m.Headers["org_id"]
}

// GetChannel returns the ad channel the batch was scraped from.
func (m *IncomingMessage) GetChannel() string {
	if m.Batch != nil && m.Batch.Channel != "" {
		return m.Batch.Channel
	}
	return m.Headers["channel"]
}
