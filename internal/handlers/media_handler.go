package handlers

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/internal/repositories/mediaasset"
)

// MediaHandler serves media asset endpoints
type MediaHandler struct {
	logger    ectologger.Logger
	assetRepo *mediaasset.Repository
	validate  *validator.Validate
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(logger ectologger.Logger, assetRepo *mediaasset.Repository) *MediaHandler {
	return &MediaHandler{
		logger:    logger,
		assetRepo: assetRepo,
		validate:  validator.New(),
	}
}

// RegisterRoutes registers media routes on the given group
func (h *MediaHandler) RegisterRoutes(g *echo.Group) {
	g.PATCH("/media-assets/:id/mirror-status", h.UpdateMirrorStatus)
}

// UpdateMirrorStatusRequest is the body the byte-mirroring worker posts back
// once it has fetched (or failed to fetch) an asset's bytes.
type UpdateMirrorStatusRequest struct {
	MirrorStatus string  `json:"mirror_status" validate:"required,oneof=pending mirrored failed"`
	StoredURL    *string `json:"stored_url,omitempty"`
}

// UpdateMirrorStatus records the mirroring outcome for a media asset.
func (h *MediaHandler) UpdateMirrorStatus(c echo.Context) error {
	ctx := c.Request().Context()

	if _, err := GetOrgID(c); err != nil {
		return err
	}

	assetID, err := RequireParam(c, "id")
	if err != nil {
		return err
	}

	var req UpdateMirrorStatusRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid request: %s", err.Error())
	}

	if err := h.assetRepo.UpdateMirrorStatus(ctx, assetID, req.MirrorStatus, req.StoredURL); err != nil {
		return err
	}

	return SuccessResponse(c, map[string]string{"id": assetID, "mirror_status": req.MirrorStatus})
}
