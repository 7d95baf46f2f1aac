package ad

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Batch queries for the backfill jobs. Each returns ads missing one derived
// row, oldest first. Backfilling a batch removes those ads from the next
// query's result set, so callers loop until an empty batch comes back.

// ListMissingMemberships returns ads with no creative membership row.
func (r *Repository) ListMissingMemberships(ctx context.Context, limit int) ([]models.Ad, error) {
	ctx, span := tracing.StartSpan(ctx, "ad.Repository.ListMissingMemberships")
	defer span.End()

	return r.listMissingDerived(ctx, "ad_creative_memberships", limit)
}

// ListMissingFacts returns ads with no fact row.
func (r *Repository) ListMissingFacts(ctx context.Context, limit int) ([]models.Ad, error) {
	ctx, span := tracing.StartSpan(ctx, "ad.Repository.ListMissingFacts")
	defer span.End()

	return r.listMissingDerived(ctx, "ad_facts", limit)
}

// ListMissingScores returns ads with no score row.
func (r *Repository) ListMissingScores(ctx context.Context, limit int) ([]models.Ad, error) {
	ctx, span := tracing.StartSpan(ctx, "ad.Repository.ListMissingScores")
	defer span.End()

	return r.listMissingDerived(ctx, "ad_scores", limit)
}

func (r *Repository) listMissingDerived(ctx context.Context, derivedTable string, limit int) ([]models.Ad, error) {
	if limit < 1 {
		limit = 100
	}

	// derivedTable is a compile-time constant from the callers above, never
	// user input.
	query := fmt.Sprintf(`
		SELECT %s
		FROM ads
		LEFT JOIN %s d ON d.ad_id = ads.id
		WHERE d.ad_id IS NULL
		ORDER BY ads.created_at, ads.id
		LIMIT $1
	`, prefixedColumns("ads"), derivedTable)

	var ads []models.Ad
	if err := database.Q(ctx, r.db).SelectContext(ctx, &ads, query, limit); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"derived_table": derivedTable,
			"limit":         limit,
		}).Error("Failed to list ads missing derived rows")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list ads for backfill")
	}

	return ads, nil
}

func prefixedColumns(prefix string) string {
	return prefix + ".id, " + prefix + ".org_id, " + prefix + ".brand_id, " +
		prefix + ".brand_channel_identity_id, " + prefix + ".channel, " +
		prefix + ".external_ad_id, " + prefix + ".ad_status, " +
		prefix + ".started_running_at, " + prefix + ".ended_running_at, " +
		prefix + ".first_seen_at, " + prefix + ".last_seen_at, " +
		prefix + ".body_text, " + prefix + ".headline, " + prefix + ".description, " +
		prefix + ".cta_type, " + prefix + ".cta_text, " + prefix + ".landing_url, " +
		prefix + ".destination_domain, " + prefix + ".country_codes, " +
		prefix + ".language_codes, " + prefix + ".raw_json, " +
		prefix + ".created_at, " + prefix + ".updated_at"
}
