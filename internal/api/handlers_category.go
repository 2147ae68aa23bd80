// handlers_category.go - Category handlers
package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopapp/backend/internal/models"
)

// CategoryHandlerImpl implements the CategoryHandler interface with placeholder responses
type CategoryHandlerImpl struct{}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler() CategoryHandler {
	return &CategoryHandlerImpl{}
}

// HandleListCategories echoes the requested page
func (h *CategoryHandlerImpl) HandleListCategories(c echo.Context) error {
	page, limit, err := pageParams(c)
	if err != nil {
		return err
	}
	return c.String(http.StatusOK, fmt.Sprintf("page %d limit %d", page, limit))
}

// HandleCreateCategory validates the JSON body and echoes it back
func (h *CategoryHandlerImpl) HandleCreateCategory(c echo.Context) error {
	var dto models.CategoryDTO
	if err := c.Bind(&dto); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := c.Validate(&dto); err != nil {
		return err
	}
	return c.String(http.StatusOK, dto.String())
}

// HandleUpdateCategory echoes the id
func (h *CategoryHandlerImpl) HandleUpdateCategory(c echo.Context) error {
	id, err := int64Param(c, "id")
	if err != nil {
		return err
	}
	return c.String(http.StatusOK, fmt.Sprintf("Put %d", id))
}

// HandleDeleteCategory echoes the id
func (h *CategoryHandlerImpl) HandleDeleteCategory(c echo.Context) error {
	id, err := int64Param(c, "id")
	if err != nil {
		return err
	}
	return c.String(http.StatusOK, fmt.Sprintf("Delete %d", id))
}
