// Package adscore persists derived per-ad score rows.
package adscore

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const columns = "ad_id, performance_score, winning_score, confidence_score, score_version, score_breakdown, created_at, updated_at"

// Repository handles ad score persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new ad score repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Upsert replaces the score row for an ad. Scores are recomputed whole, so
// every column takes the incoming value.
func (r *Repository) Upsert(ctx context.Context, score models.AdScore) (*models.AdScore, error) {
	ctx, span := tracing.StartSpan(ctx, "adscore.Repository.Upsert")
	defer span.End()

	now := time.Now().UTC()

	query := `
		INSERT INTO ad_scores (
			ad_id, performance_score, winning_score, confidence_score,
			score_version, score_breakdown, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (ad_id)
		DO UPDATE SET
			performance_score = EXCLUDED.performance_score,
			winning_score = EXCLUDED.winning_score,
			confidence_score = EXCLUDED.confidence_score,
			score_version = EXCLUDED.score_version,
			score_breakdown = EXCLUDED.score_breakdown,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + columns + `
	`

	var result models.AdScore
	err := database.Q(ctx, r.db).GetContext(ctx, &result, query,
		score.AdID, score.PerformanceScore, score.WinningScore, score.ConfidenceScore,
		score.ScoreVersion, []byte(score.ScoreBreakdown), now, now,
	)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"ad_id": score.AdID}).Error("Failed to upsert ad score")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert ad score")
	}

	return &result, nil
}

// Get retrieves the score row for an ad. Returns nil when no row exists.
func (r *Repository) Get(ctx context.Context, adID string) (*models.AdScore, error) {
	ctx, span := tracing.StartSpan(ctx, "adscore.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("ad_scores")
	sb.Where(sb.Equal("ad_id", adID))

	query, args := sb.Build()
	var score models.AdScore
	if err := database.Q(ctx, r.db).GetContext(ctx, &score, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"ad_id": adID}).Error("Failed to get ad score")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get ad score")
	}

	return &score, nil
}
