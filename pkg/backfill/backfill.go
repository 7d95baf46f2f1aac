// Package backfill converges derived rows for ads that are missing them,
// typically after a derived-pass failure during ingestion or a scoring
// algorithm change.
package backfill

import (
	"context"

	"github.com/Gobusters/ectologger"

	adrepo "github.com/Ramsey-B/clover/internal/repositories/ad"
	"github.com/Ramsey-B/clover/pkg/creative"
	"github.com/Ramsey-B/clover/pkg/facts"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Runner executes backfill jobs in batches. Each job processes ads missing
// one derived row and terminates when a batch comes back empty, so a
// completed run followed by another run is a no-op.
type Runner struct {
	logger         ectologger.Logger
	adRepo         *adrepo.Repository
	creativeEngine *creative.Engine
	factsMaint     *facts.Maintainer
	batchSize      int
}

// NewRunner creates a new backfill runner
func NewRunner(
	logger ectologger.Logger,
	adRepo *adrepo.Repository,
	creativeEngine *creative.Engine,
	factsMaint *facts.Maintainer,
	batchSize int,
) *Runner {
	if batchSize < 1 {
		batchSize = 500
	}
	return &Runner{
		logger:         logger,
		adRepo:         adRepo,
		creativeEngine: creativeEngine,
		factsMaint:     factsMaint,
		batchSize:      batchSize,
	}
}

// Report summarizes one backfill job.
type Report struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

// AdCreatives resolves creative membership for every ad lacking one.
func (r *Runner) AdCreatives(ctx context.Context) (*Report, error) {
	ctx, span := tracing.StartSpan(ctx, "backfill.Runner.AdCreatives")
	defer span.End()

	return r.run(ctx, "ad_creatives", r.adRepo.ListMissingMemberships, func(ctx context.Context, ad *models.Ad) error {
		_, err := r.creativeEngine.Resolve(ctx, ad)
		return err
	})
}

// AdFacts recomputes the fact projection for every ad lacking one.
func (r *Runner) AdFacts(ctx context.Context) (*Report, error) {
	ctx, span := tracing.StartSpan(ctx, "backfill.Runner.AdFacts")
	defer span.End()

	return r.run(ctx, "ad_facts", r.adRepo.ListMissingFacts, func(ctx context.Context, ad *models.Ad) error {
		_, err := r.factsMaint.UpsertAdFacts(ctx, ad)
		return err
	})
}

// AdScores computes scores for every ad lacking one. Facts are recomputed
// in passing when the ad has none, so scoring always runs on fresh inputs.
func (r *Runner) AdScores(ctx context.Context) (*Report, error) {
	ctx, span := tracing.StartSpan(ctx, "backfill.Runner.AdScores")
	defer span.End()

	return r.run(ctx, "ad_scores", r.adRepo.ListMissingScores, func(ctx context.Context, ad *models.Ad) error {
		adFacts, err := r.factsMaint.UpsertAdFacts(ctx, ad)
		if err != nil {
			return err
		}
		_, err = r.factsMaint.UpsertAdScore(ctx, ad, adFacts, adFacts.MediaCount)
		return err
	})
}

type listFunc func(ctx context.Context, limit int) ([]models.Ad, error)

type processFunc func(ctx context.Context, ad *models.Ad) error

func (r *Runner) run(ctx context.Context, job string, list listFunc, process processFunc) (*Report, error) {
	log := r.logger.WithContext(ctx).WithFields(map[string]any{"job": job})
	report := &Report{}

	for {
		if err := ctx.Err(); err != nil {
			log.WithFields(map[string]any{"processed": report.Processed}).Info("Backfill cancelled")
			return report, err
		}

		batch, err := list(ctx, r.batchSize)
		if err != nil {
			return report, err
		}
		if len(batch) == 0 {
			break
		}

		failedInBatch := 0
		for i := range batch {
			if err := ctx.Err(); err != nil {
				log.WithFields(map[string]any{"processed": report.Processed}).Info("Backfill cancelled")
				return report, err
			}

			if err := process(ctx, &batch[i]); err != nil {
				log.WithError(err).WithFields(map[string]any{"ad_id": batch[i].ID}).Error("Backfill item failed")
				report.Failed++
				failedInBatch++
				continue
			}
			report.Processed++
		}

		// A batch where nothing succeeded would repeat forever; stop and
		// surface the counts instead.
		if failedInBatch == len(batch) {
			break
		}
	}

	log.WithFields(map[string]any{
		"processed": report.Processed,
		"failed":    report.Failed,
	}).Info("Backfill finished")
	return report, nil
}
