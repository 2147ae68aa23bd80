// handlers_health.go - Health check handlers
package api

import (
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/labstack/echo/v4"
)

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version string
	store   UploadStore
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string, store UploadStore) HealthHandler {
	return &HealthHandlerImpl{
		version: version,
		store:   store,
	}
}

// HandleHealth returns server health status
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	resp := map[string]interface{}{
		"status":  "ok",
		"version": h.version,
	}
	if h.store != nil {
		resp["maxUploadSize"] = humanize.IBytes(uint64(h.store.MaxSize()))
	}
	return c.JSON(http.StatusOK, resp)
}
