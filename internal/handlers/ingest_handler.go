package handlers

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/backfill"
	"github.com/Ramsey-B/clover/pkg/ingest"
	"github.com/Ramsey-B/clover/pkg/models"
)

// IngestHandler serves synchronous batch ingestion and backfill triggers
type IngestHandler struct {
	logger    ectologger.Logger
	processor *ingest.Processor
	backfill  *backfill.Runner
}

// NewIngestHandler creates a new ingest handler
func NewIngestHandler(
	logger ectologger.Logger,
	processor *ingest.Processor,
	backfillRunner *backfill.Runner,
) *IngestHandler {
	return &IngestHandler{
		logger:    logger,
		processor: processor,
		backfill:  backfillRunner,
	}
}

// RegisterRoutes registers ingest routes on the given group
func (h *IngestHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/ingest/batches", h.IngestBatch)
	g.POST("/backfill/creatives", h.BackfillCreatives)
	g.POST("/backfill/facts", h.BackfillFacts)
	g.POST("/backfill/scores", h.BackfillScores)
}

// IngestBatch ingests a normalized ad batch synchronously. The same batch is
// accepted from the Kafka consumer; this endpoint exists for providers that
// push over HTTP and for replaying batches by hand.
func (h *IngestHandler) IngestBatch(c echo.Context) error {
	ctx := c.Request().Context()

	orgID, err := GetOrgID(c)
	if err != nil {
		return err
	}

	var batch models.NormalizedAdBatch
	if err := c.Bind(&batch); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	// The authenticated org always wins over whatever the payload carries.
	batch.OrgID = orgID

	summary, err := h.processor.ProcessBatch(ctx, batch)
	if err != nil {
		return err
	}

	return SuccessResponse(c, summary)
}

// BackfillCreatives recomputes creative membership for ads missing one.
func (h *IngestHandler) BackfillCreatives(c echo.Context) error {
	report, err := h.backfill.AdCreatives(c.Request().Context())
	if err != nil {
		return err
	}
	return SuccessResponse(c, report)
}

// BackfillFacts recomputes derived facts for ads missing them.
func (h *IngestHandler) BackfillFacts(c echo.Context) error {
	report, err := h.backfill.AdFacts(c.Request().Context())
	if err != nil {
		return err
	}
	return SuccessResponse(c, report)
}

// BackfillScores recomputes scores for ads missing them.
func (h *IngestHandler) BackfillScores(c echo.Context) error {
	report, err := h.backfill.AdScores(c.Request().Context())
	if err != nil {
		return err
	}
	return SuccessResponse(c, report)
}
