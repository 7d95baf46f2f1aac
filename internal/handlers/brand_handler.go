package handlers

import (
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/internal/repositories/ad"
	"github.com/Ramsey-B/clover/internal/repositories/brand"
	"github.com/Ramsey-B/clover/internal/repositories/channelidentity"
	"github.com/Ramsey-B/clover/pkg/models"
)

// BrandHandler serves brand and channel identity reads
type BrandHandler struct {
	logger       ectologger.Logger
	brandRepo    *brand.Repository
	identityRepo *channelidentity.Repository
	adRepo       *ad.Repository
}

// NewBrandHandler creates a new brand handler
func NewBrandHandler(
	logger ectologger.Logger,
	brandRepo *brand.Repository,
	identityRepo *channelidentity.Repository,
	adRepo *ad.Repository,
) *BrandHandler {
	return &BrandHandler{
		logger:       logger,
		brandRepo:    brandRepo,
		identityRepo: identityRepo,
		adRepo:       adRepo,
	}
}

// RegisterRoutes registers brand routes on the given group
func (h *BrandHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/brands", h.ListBrands)
	g.GET("/brands/:id", h.GetBrand)
	g.GET("/brands/:id/ads", h.ListBrandAds)
}

// BrandDetail is a brand with its channel identities.
type BrandDetail struct {
	models.Brand
	Identities []models.BrandChannelIdentity `json:"identities"`
}

// ListBrands returns a page of brands for the caller's org.
func (h *BrandHandler) ListBrands(c echo.Context) error {
	ctx := c.Request().Context()

	orgID, err := GetOrgID(c)
	if err != nil {
		return err
	}

	page, pageSize := PageParams(c)

	brands, total, err := h.brandRepo.List(ctx, orgID, page, pageSize)
	if err != nil {
		return err
	}

	return SuccessResponse(c, ListResponse[models.Brand]{
		Items:      brands,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
	})
}

// GetBrand returns a brand with its channel identities.
func (h *BrandHandler) GetBrand(c echo.Context) error {
	ctx := c.Request().Context()

	orgID, err := GetOrgID(c)
	if err != nil {
		return err
	}

	brandID, err := RequireParam(c, "id")
	if err != nil {
		return err
	}

	result, err := h.brandRepo.Get(ctx, orgID, brandID)
	if err != nil {
		return err
	}
	if result == nil {
		return NotFound("brand not found")
	}

	identities, err := h.identityRepo.ListByBrand(ctx, result.ID)
	if err != nil {
		return err
	}

	return SuccessResponse(c, BrandDetail{Brand: *result, Identities: identities})
}

// ListBrandAds returns a page of ads attributed to the brand.
func (h *BrandHandler) ListBrandAds(c echo.Context) error {
	ctx := c.Request().Context()

	orgID, err := GetOrgID(c)
	if err != nil {
		return err
	}

	brandID, err := RequireParam(c, "id")
	if err != nil {
		return err
	}

	result, err := h.brandRepo.Get(ctx, orgID, brandID)
	if err != nil {
		return err
	}
	if result == nil {
		return NotFound("brand not found")
	}

	page, pageSize := PageParams(c)

	ads, total, err := h.adRepo.ListByBrand(ctx, orgID, result.ID, page, pageSize)
	if err != nil {
		return err
	}

	return SuccessResponse(c, ListResponse[models.Ad]{
		Items:      ads,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
	})
}
