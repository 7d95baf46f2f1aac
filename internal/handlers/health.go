package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/database"
)

// HealthHandler reports process and database health
type HealthHandler struct {
	db database.DB
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db database.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// RegisterRoutes registers health routes
func (h *HealthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	e.GET("/ready", h.Ready)
}

// Health is the liveness probe.
func (h *HealthHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Ready is the readiness probe; it fails when the database is unreachable.
func (h *HealthHandler) Ready(c echo.Context) error {
	if err := h.db.PingContext(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "database unreachable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
