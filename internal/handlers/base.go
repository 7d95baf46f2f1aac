package handlers

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/appcontext"
)

// GetOrgID extracts the org ID set by the context middleware.
func GetOrgID(c echo.Context) (string, error) {
	orgID := appcontext.GetOrgID(c.Request().Context())
	if orgID == "" {
		return "", httperror.NewHTTPError(http.StatusUnauthorized, "org context required")
	}
	return orgID, nil
}

// RequireParam returns a path parameter or a 400.
func RequireParam(c echo.Context, param string) (string, error) {
	value := c.Param(param)
	if value == "" {
		return "", httperror.NewHTTPError(http.StatusBadRequest, "missing "+param)
	}
	return value, nil
}

// SuccessResponse returns a 200 OK with data
func SuccessResponse(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, data)
}

// CreatedResponse returns a 201 Created with data
func CreatedResponse(c echo.Context, data any) error {
	return c.JSON(http.StatusCreated, data)
}

// NotFound returns a 404 Not Found error
func NotFound(message string) error {
	return httperror.NewHTTPError(http.StatusNotFound, message)
}

// ListResponse is the standard paginated list envelope.
type ListResponse[T any] struct {
	Items      []T `json:"items"`
	TotalCount int `json:"total_count"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
}

// PageParams reads page/page_size query params with defaults.
func PageParams(c echo.Context) (int, int) {
	page := 1
	pageSize := 20
	if err := echo.QueryParamsBinder(c).Int("page", &page).Int("page_size", &pageSize).BindError(); err != nil {
		return 1, 20
	}
	return page, pageSize
}
