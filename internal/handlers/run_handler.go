package handlers

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/internal/repositories/ingestrun"
	"github.com/Ramsey-B/clover/internal/repositories/pagetotal"
	"github.com/Ramsey-B/clover/internal/repositories/researchrun"
	"github.com/Ramsey-B/clover/pkg/models"
)

// RunHandler serves research run and ingest run endpoints
type RunHandler struct {
	logger        ectologger.Logger
	runRepo       *researchrun.Repository
	ingestRepo    *ingestrun.Repository
	pageTotalRepo *pagetotal.Repository
	validate      *validator.Validate
}

// NewRunHandler creates a new run handler
func NewRunHandler(
	logger ectologger.Logger,
	runRepo *researchrun.Repository,
	ingestRepo *ingestrun.Repository,
	pageTotalRepo *pagetotal.Repository,
) *RunHandler {
	return &RunHandler{
		logger:        logger,
		runRepo:       runRepo,
		ingestRepo:    ingestRepo,
		pageTotalRepo: pageTotalRepo,
		validate:      validator.New(),
	}
}

// RegisterRoutes registers run routes on the given group
func (h *RunHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/research-runs", h.CreateResearchRun)
	g.GET("/research-runs/:id", h.GetResearchRun)
	g.PATCH("/research-runs/:id/status", h.SetResearchRunStatus)
	g.POST("/research-runs/:id/brands", h.AddResearchRunBrand)
	g.GET("/research-runs/:id/ingest-runs", h.ListIngestRuns)
	g.GET("/research-runs/:id/page-totals", h.ListPageTotals)
	g.GET("/ingest-runs/:id", h.GetIngestRun)
}

// CreateResearchRunRequest is the body for creating a research run.
type CreateResearchRunRequest struct {
	ProductID string `json:"product_id" validate:"required"`
}

// SetResearchRunStatusRequest is the body for moving a run between statuses.
type SetResearchRunStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending running completed failed"`
}

// AddResearchRunBrandRequest is the body for attaching a brand to a run.
type AddResearchRunBrandRequest struct {
	BrandID string `json:"brand_id" validate:"required"`
}

// ResearchRunDetail is a research run with its attached brands.
type ResearchRunDetail struct {
	models.ResearchRun
	Brands []models.ResearchRunBrand `json:"brands"`
}

// CreateResearchRun creates a pending research run for the caller's org.
func (h *RunHandler) CreateResearchRun(c echo.Context) error {
	ctx := c.Request().Context()

	orgID, err := GetOrgID(c)
	if err != nil {
		return err
	}

	var req CreateResearchRunRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid request: %s", err.Error())
	}

	run, err := h.runRepo.Create(ctx, orgID, req.ProductID)
	if err != nil {
		return err
	}

	return CreatedResponse(c, run)
}

// GetResearchRun returns a research run with its brands.
func (h *RunHandler) GetResearchRun(c echo.Context) error {
	ctx := c.Request().Context()

	orgID, err := GetOrgID(c)
	if err != nil {
		return err
	}

	runID, err := RequireParam(c, "id")
	if err != nil {
		return err
	}

	run, err := h.runRepo.Get(ctx, orgID, runID)
	if err != nil {
		return err
	}
	if run == nil {
		return NotFound("research run not found")
	}

	brands, err := h.runRepo.ListBrands(ctx, run.ID)
	if err != nil {
		return err
	}

	return SuccessResponse(c, ResearchRunDetail{ResearchRun: *run, Brands: brands})
}

// SetResearchRunStatus moves a research run to a new status. Orchestrators
// call this when scraping for the run starts and when it finishes.
func (h *RunHandler) SetResearchRunStatus(c echo.Context) error {
	ctx := c.Request().Context()

	orgID, err := GetOrgID(c)
	if err != nil {
		return err
	}

	runID, err := RequireParam(c, "id")
	if err != nil {
		return err
	}

	var req SetResearchRunStatusRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid request: %s", err.Error())
	}

	run, err := h.runRepo.Get(ctx, orgID, runID)
	if err != nil {
		return err
	}
	if run == nil {
		return NotFound("research run not found")
	}

	if err := h.runRepo.SetStatus(ctx, run.ID, req.Status); err != nil {
		return err
	}

	updated, err := h.runRepo.Get(ctx, orgID, runID)
	if err != nil {
		return err
	}

	return SuccessResponse(c, updated)
}

// AddResearchRunBrand attaches a brand to a research run. Attaching the same
// brand twice is a no-op.
func (h *RunHandler) AddResearchRunBrand(c echo.Context) error {
	ctx := c.Request().Context()

	orgID, err := GetOrgID(c)
	if err != nil {
		return err
	}

	runID, err := RequireParam(c, "id")
	if err != nil {
		return err
	}

	var req AddResearchRunBrandRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid request: %s", err.Error())
	}

	run, err := h.runRepo.Get(ctx, orgID, runID)
	if err != nil {
		return err
	}
	if run == nil {
		return NotFound("research run not found")
	}

	runBrand, err := h.runRepo.AddBrand(ctx, run.ID, req.BrandID)
	if err != nil {
		return err
	}

	return CreatedResponse(c, runBrand)
}

// ListIngestRuns returns a page of ingest runs for a research run.
func (h *RunHandler) ListIngestRuns(c echo.Context) error {
	ctx := c.Request().Context()

	orgID, err := GetOrgID(c)
	if err != nil {
		return err
	}

	runID, err := RequireParam(c, "id")
	if err != nil {
		return err
	}

	run, err := h.runRepo.Get(ctx, orgID, runID)
	if err != nil {
		return err
	}
	if run == nil {
		return NotFound("research run not found")
	}

	page, pageSize := PageParams(c)

	runs, total, err := h.ingestRepo.List(ctx, &run.ID, page, pageSize)
	if err != nil {
		return err
	}

	return SuccessResponse(c, ListResponse[models.AdIngestRun]{
		Items:      runs,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
	})
}

// ListPageTotals returns the page total snapshots recorded for a research run.
func (h *RunHandler) ListPageTotals(c echo.Context) error {
	ctx := c.Request().Context()

	orgID, err := GetOrgID(c)
	if err != nil {
		return err
	}

	runID, err := RequireParam(c, "id")
	if err != nil {
		return err
	}

	run, err := h.runRepo.Get(ctx, orgID, runID)
	if err != nil {
		return err
	}
	if run == nil {
		return NotFound("research run not found")
	}

	totals, err := h.pageTotalRepo.ListByRun(ctx, run.ID)
	if err != nil {
		return err
	}

	return SuccessResponse(c, totals)
}

// GetIngestRun returns a single ingest run by ID.
func (h *RunHandler) GetIngestRun(c echo.Context) error {
	ctx := c.Request().Context()

	if _, err := GetOrgID(c); err != nil {
		return err
	}

	runID, err := RequireParam(c, "id")
	if err != nil {
		return err
	}

	run, err := h.ingestRepo.Get(ctx, runID)
	if err != nil {
		return err
	}
	if run == nil {
		return NotFound("ingest run not found")
	}

	return SuccessResponse(c, run)
}
