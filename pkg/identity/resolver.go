// Package identity resolves brand and channel identities from ad sightings.
package identity

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"

	"github.com/Ramsey-B/clover/internal/repositories/brand"
	"github.com/Ramsey-B/clover/internal/repositories/channelidentity"
	"github.com/Ramsey-B/clover/internal/repositories/productbrand"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalize"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// DiscoverySourceAdsIngestion marks edges discovered by the ad pipeline.
const DiscoverySourceAdsIngestion = "ads_ingestion"

// Resolver maps provider-reported advertiser data onto canonical brand rows.
type Resolver struct {
	logger       ectologger.Logger
	brandRepo    *brand.Repository
	identityRepo *channelidentity.Repository
	productRepo  *productbrand.Repository
	validate     *validator.Validate
}

// NewResolver creates a new identity resolver
func NewResolver(
	logger ectologger.Logger,
	brandRepo *brand.Repository,
	identityRepo *channelidentity.Repository,
	productRepo *productbrand.Repository,
) *Resolver {
	return &Resolver{
		logger:       logger,
		brandRepo:    brandRepo,
		identityRepo: identityRepo,
		productRepo:  productRepo,
		validate:     validator.New(),
	}
}

// UpsertBrand resolves a brand sighting to exactly one row. The website URL
// is canonicalized and its registrable domain extracted; when a domain is
// derivable the brand is keyed by (org, domain), otherwise by (org,
// normalized name) among domain-less brands. On a repeat sighting only
// currently-null fields are filled.
func (r *Resolver) UpsertBrand(ctx context.Context, req models.UpsertBrandRequest) (*models.Brand, bool, error) {
	ctx, span := tracing.StartSpan(ctx, "identity.Resolver.UpsertBrand")
	defer span.End()

	if err := r.validate.Struct(req); err != nil {
		return nil, false, httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid brand request: %v", err)
	}

	normalizedName := normalize.BrandName(req.CanonicalName)
	if normalizedName == "" {
		return nil, false, httperror.NewHTTPError(http.StatusBadRequest, "brand name normalizes to empty")
	}

	var websiteURL, primaryDomain *string
	if req.WebsiteURL != nil {
		if canonical := normalize.URL(*req.WebsiteURL); canonical != "" {
			websiteURL = &canonical
		}
		if domain := normalize.PrimaryDomain(*req.WebsiteURL); domain != "" {
			primaryDomain = &domain
		}
	}

	result, err := r.brandRepo.Upsert(ctx, req.OrgID, req.CanonicalName, normalizedName, websiteURL, primaryDomain)
	if err != nil {
		return nil, false, err
	}
	return result.Brand, result.IsNew, nil
}

// UpsertBrandChannelIdentity resolves one channel presence sighting for a
// brand. Verification status only moves forward; metadata keys fill gaps.
func (r *Resolver) UpsertBrandChannelIdentity(ctx context.Context, req models.UpsertBrandChannelIdentityRequest) (*models.BrandChannelIdentity, bool, error) {
	ctx, span := tracing.StartSpan(ctx, "identity.Resolver.UpsertBrandChannelIdentity")
	defer span.End()

	if err := r.validate.Struct(req); err != nil {
		return nil, false, httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid channel identity request: %v", err)
	}

	if req.ExternalURL != nil {
		if canonical := normalize.URL(*req.ExternalURL); canonical != "" {
			req.ExternalURL = &canonical
		}
	}

	result, err := r.identityRepo.Upsert(ctx, req)
	if err != nil {
		return nil, false, err
	}
	return result.Identity, result.IsNew, nil
}

// EnsureProductBrandRelationship idempotently records a typed edge between a
// product under research and a brand. Repeat calls with the same key are
// no-ops.
func (r *Resolver) EnsureProductBrandRelationship(ctx context.Context, productID, brandID, relationshipType string) (*models.ProductBrandRelationship, error) {
	ctx, span := tracing.StartSpan(ctx, "identity.Resolver.EnsureProductBrandRelationship")
	defer span.End()

	if productID == "" || brandID == "" || relationshipType == "" {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "product id, brand id, and relationship type are required")
	}

	return r.productRepo.Ensure(ctx, productID, brandID, relationshipType, DiscoverySourceAdsIngestion)
}
