// Package productbrand persists typed product-to-brand edges.
package productbrand

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Repository handles product brand relationship persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new product brand relationship repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Ensure idempotently creates the (product, brand, relationship_type) edge.
// A second call with the same key is a no-op that returns the existing row;
// discovery_source keeps its first value.
func (r *Repository) Ensure(ctx context.Context, productID, brandID, relationshipType, discoverySource string) (*models.ProductBrandRelationship, error) {
	ctx, span := tracing.StartSpan(ctx, "productbrand.Repository.Ensure")
	defer span.End()

	now := time.Now().UTC()
	id := uuid.New().String()

	query := `
		INSERT INTO product_brand_relationships (
			id, product_id, brand_id, relationship_type, discovery_source, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (product_id, brand_id, relationship_type)
		DO UPDATE SET relationship_type = EXCLUDED.relationship_type
		RETURNING id, product_id, brand_id, relationship_type, discovery_source, created_at
	`

	var relationship models.ProductBrandRelationship
	err := database.Q(ctx, r.db).GetContext(ctx, &relationship, query,
		id, productID, brandID, relationshipType, discoverySource, now,
	)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"product_id":        productID,
			"brand_id":          brandID,
			"relationship_type": relationshipType,
		}).Error("Failed to ensure product brand relationship")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to ensure product brand relationship")
	}

	return &relationship, nil
}

// ListByProduct retrieves all brand relationships for a product.
func (r *Repository) ListByProduct(ctx context.Context, productID string) ([]models.ProductBrandRelationship, error) {
	ctx, span := tracing.StartSpan(ctx, "productbrand.Repository.ListByProduct")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "product_id", "brand_id", "relationship_type", "discovery_source", "created_at")
	sb.From("product_brand_relationships")
	sb.Where(sb.Equal("product_id", productID))
	sb.OrderBy("created_at")

	query, args := sb.Build()
	var relationships []models.ProductBrandRelationship
	if err := database.Q(ctx, r.db).SelectContext(ctx, &relationships, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"product_id": productID}).Error("Failed to list product brand relationships")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list product brand relationships")
	}

	return relationships, nil
}
