package ingest

import (
	"context"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"

	"github.com/Ramsey-B/clover/internal/repositories/ingestrun"
	"github.com/Ramsey-B/clover/internal/repositories/pagetotal"
	"github.com/Ramsey-B/clover/pkg/identity"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// RelationshipCompetitor is the edge type recorded between a researched
// product and the brands whose ads it ingests.
const RelationshipCompetitor = "competitor"

// Emitter notifies downstream collaborators of pipeline outcomes. Emission
// is best-effort; the processor logs failures and continues.
type Emitter interface {
	MediaAssetsCreated(ctx context.Context, assets []models.MediaAsset) error
	IngestRunCompleted(ctx context.Context, run *models.AdIngestRun, summary *models.RunSummary) error
}

// Processor runs whole normalized batches through the upsert engine and
// records the audit trail.
type Processor struct {
	logger            ectologger.Logger
	resolver          *identity.Resolver
	engine            *Engine
	runRepo           *ingestrun.Repository
	pageTotalRepo     *pagetotal.Repository
	emitter           Emitter
	errorTextMaxChars int
	validate          *validator.Validate
}

// NewProcessor creates a new batch processor. emitter may be nil when event
// publishing is disabled.
func NewProcessor(
	logger ectologger.Logger,
	resolver *identity.Resolver,
	engine *Engine,
	runRepo *ingestrun.Repository,
	pageTotalRepo *pagetotal.Repository,
	emitter Emitter,
	errorTextMaxChars int,
) *Processor {
	if errorTextMaxChars < 1 {
		errorTextMaxChars = 5000
	}
	return &Processor{
		logger:            logger,
		resolver:          resolver,
		engine:            engine,
		runRepo:           runRepo,
		pageTotalRepo:     pageTotalRepo,
		emitter:           emitter,
		errorTextMaxChars: errorTextMaxChars,
		validate:          validator.New(),
	}
}

// ProcessBatch resolves the batch's brand and channel identity, upserts
// every ad, snapshots page totals, and records one AdIngestRun row with the
// outcome. One bad ad never aborts the batch; cancellation between ads
// leaves already-committed ads valid and marks the run partial. The returned
// summary distinguishes "provider returned nothing" from "all items failed".
func (p *Processor) ProcessBatch(ctx context.Context, batch models.NormalizedAdBatch) (*models.RunSummary, error) {
	ctx, span := tracing.StartSpan(ctx, "ingest.Processor.ProcessBatch")
	defer span.End()

	if err := p.validate.Struct(batch); err != nil {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid batch: %v", err)
	}

	log := p.logger.WithContext(ctx).WithFields(map[string]any{
		"org_id":    batch.OrgID,
		"channel":   batch.Channel,
		"ad_count":  len(batch.Ads),
		"brand":     batch.Brand.CanonicalName,
		"has_error": batch.ProviderError != nil,
	})

	brand, _, err := p.resolver.UpsertBrand(ctx, models.UpsertBrandRequest{
		OrgID:         batch.OrgID,
		CanonicalName: batch.Brand.CanonicalName,
		WebsiteURL:    batch.Brand.WebsiteURL,
	})
	if err != nil {
		return nil, err
	}

	var identityID *string
	if batch.Identity.ExternalID != nil || batch.Identity.ExternalURL != nil {
		channelIdentity, _, err := p.resolver.UpsertBrandChannelIdentity(ctx, models.UpsertBrandChannelIdentityRequest{
			BrandID:     brand.ID,
			Channel:     batch.Channel,
			ExternalID:  batch.Identity.ExternalID,
			ExternalURL: batch.Identity.ExternalURL,
			DisplayName: batch.Identity.DisplayName,
			Metadata:    batch.Identity.Metadata,
		})
		if err != nil {
			return nil, err
		}
		identityID = &channelIdentity.ID
	}

	if batch.ProductID != nil {
		if _, err := p.resolver.EnsureProductBrandRelationship(ctx, *batch.ProductID, brand.ID, RelationshipCompetitor); err != nil {
			return nil, err
		}
	}

	run, err := p.runRepo.Start(ctx, batch.ResearchRunID, identityID, batch.Channel)
	if err != nil {
		return nil, err
	}

	summary := p.upsertItems(ctx, brand.ID, identityID, batch)

	p.snapshotPageTotals(ctx, identityID, batch)

	finished, err := p.runRepo.Finish(ctx, run.ID, p.finishParams(batch, summary))
	if err != nil {
		return nil, err
	}

	if p.emitter != nil {
		if err := p.emitter.IngestRunCompleted(ctx, finished, summary); err != nil {
			log.WithError(err).Error("Failed to emit ingest run completed event")
		}
	}

	log.WithFields(map[string]any{
		"run_id":    finished.ID,
		"status":    finished.Status,
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
	}).Info("Processed normalized ad batch")
	return summary, nil
}

func (p *Processor) upsertItems(ctx context.Context, brandID string, identityID *string, batch models.NormalizedAdBatch) *models.RunSummary {
	summary := &models.RunSummary{Total: len(batch.Ads)}

	for i := range batch.Ads {
		// Cancellation between ads leaves committed ads valid; the run is
		// recorded as partial below.
		if ctx.Err() != nil {
			summary.Results = append(summary.Results, models.ItemResult{
				Key:   models.AdKey{Channel: batch.Channel, ExternalAdID: batch.Ads[i].ExternalAdID},
				Error: ctx.Err().Error(),
			})
			summary.Failed++
			continue
		}

		result, err := p.engine.UpsertAdWithAssets(ctx, batch.OrgID, brandID, identityID, batch.Channel, batch.Ads[i])
		if err != nil {
			p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"channel":        batch.Channel,
				"external_ad_id": batch.Ads[i].ExternalAdID,
			}).Error("Failed to upsert ad")
			summary.Results = append(summary.Results, models.ItemResult{
				Key:   models.AdKey{Channel: batch.Channel, ExternalAdID: batch.Ads[i].ExternalAdID},
				Error: err.Error(),
			})
			summary.Failed++
			continue
		}

		summary.Results = append(summary.Results, models.ItemResult{
			Key:  result.Ad.NaturalKey(),
			AdID: result.Ad.ID,
		})
		summary.Succeeded++

		if p.emitter != nil && len(result.NewAssetIDs) > 0 {
			newAssets := filterNewAssets(result)
			if err := p.emitter.MediaAssetsCreated(ctx, newAssets); err != nil {
				p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"ad_id": result.Ad.ID}).Error("Failed to emit media asset created events")
			}
		}
	}

	return summary
}

func (p *Processor) snapshotPageTotals(ctx context.Context, identityID *string, batch models.NormalizedAdBatch) {
	if batch.ResearchRunID == nil || identityID == nil {
		return
	}

	for i := range batch.PageTotals {
		_, err := p.pageTotalRepo.Upsert(ctx, models.UpsertPageTotalRequest{
			ResearchRunID:          *batch.ResearchRunID,
			BrandChannelIdentityID: *identityID,
			QueryKey:               batch.PageTotals[i].QueryKey,
			TotalCount:             batch.PageTotals[i].TotalCount,
			RawPayload:             batch.PageTotals[i].RawPayload,
		})
		if err != nil {
			p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"query_key": batch.PageTotals[i].QueryKey,
			}).Error("Failed to snapshot page total")
		}
	}
}

func (p *Processor) finishParams(batch models.NormalizedAdBatch, summary *models.RunSummary) ingestrun.FinishParams {
	params := ingestrun.FinishParams{
		ItemCount:         summary.Total,
		ErrorCount:        summary.Failed,
		IsPartial:         summary.Failed > 0 && summary.Succeeded > 0,
		ProviderRunID:     batch.ProviderRunID,
		ProviderDatasetID: batch.ProviderDatasetID,
	}

	switch {
	case batch.ProviderError != nil:
		params.Status = models.IngestRunFailed
		params.StatusReason = strPtr(models.IngestReasonProviderError)
		params.ErrorText = p.truncated(*batch.ProviderError)
	case summary.Total == 0:
		params.Status = models.IngestRunEmpty
		params.StatusReason = strPtr(models.IngestReasonProviderEmpty)
	case summary.Succeeded == 0:
		params.Status = models.IngestRunFailed
		params.StatusReason = strPtr(models.IngestReasonAllItemsFailed)
		params.ErrorText = p.truncated(joinErrors(summary))
	default:
		params.Status = models.IngestRunSucceeded
		if summary.Failed > 0 {
			params.ErrorText = p.truncated(joinErrors(summary))
		}
	}

	return params
}

func (p *Processor) truncated(text string) *string {
	if text == "" {
		return nil
	}
	if len(text) > p.errorTextMaxChars {
		cut := p.errorTextMaxChars
		// Back up to a rune boundary so the cut never splits a code point.
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	return &text
}

func joinErrors(summary *models.RunSummary) string {
	var sb strings.Builder
	for _, result := range summary.Results {
		if result.OK() {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(result.Key.Channel)
		sb.WriteString("/")
		sb.WriteString(result.Key.ExternalAdID)
		sb.WriteString(": ")
		sb.WriteString(result.Error)
	}
	return sb.String()
}

func filterNewAssets(result *models.AdUpsertResult) []models.MediaAsset {
	newIDs := make(map[string]bool, len(result.NewAssetIDs))
	for _, id := range result.NewAssetIDs {
		newIDs[id] = true
	}

	assets := make([]models.MediaAsset, 0, len(result.NewAssetIDs))
	for i := range result.MediaAssets {
		if newIDs[result.MediaAssets[i].ID] {
			assets = append(assets, result.MediaAssets[i])
		}
	}
	return assets
}

func strPtr(s string) *string { return &s }
