// handlers_product.go - Product handlers
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopapp/backend/internal/models"
	"github.com/shopapp/backend/internal/notify"
)

// ProductHandlerImpl implements the ProductHandler interface.
// Products are not persisted; only the thumbnail image is stored.
type ProductHandlerImpl struct {
	store  UploadStore
	events EventPublisher
}

// NewProductHandler creates a new product handler. events may be nil.
func NewProductHandler(store UploadStore, events EventPublisher) ProductHandler {
	return &ProductHandlerImpl{
		store:  store,
		events: events,
	}
}

type productCreatedResponse struct {
	Message   string `json:"message"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// HandleListProducts echoes the requested page
func (h *ProductHandlerImpl) HandleListProducts(c echo.Context) error {
	page, limit, err := pageParams(c)
	if err != nil {
		return err
	}
	return c.String(http.StatusOK, fmt.Sprintf("page %d limit %d", page, limit))
}

// HandleGetProduct echoes the requested id
func (h *ProductHandlerImpl) HandleGetProduct(c echo.Context) error {
	return c.String(http.StatusOK, "Product with ID: "+c.Param("id"))
}

// HandleCreateProduct validates the product form and stores the optional image part
func (h *ProductHandlerImpl) HandleCreateProduct(c echo.Context) error {
	if err := requireMultipart(c); err != nil {
		return err
	}

	var dto models.ProductDTO
	if err := c.Bind(&dto); err != nil {
		return NewBadRequestError("invalid form body", err)
	}
	if err := c.Validate(&dto); err != nil {
		return err
	}

	fh, err := c.FormFile(fileField)
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		return NewBadRequestError("invalid multipart body", err)
	default:
		info, err := saveFormFile(h.store, fh)
		if err != nil {
			return err
		}
		publish(h.events, notify.EventUploadStored, info)
		dto.Thumbnail = info.Name
	}

	return c.JSON(http.StatusOK, productCreatedResponse{
		Message:   "Product created successfully",
		Thumbnail: dto.Thumbnail,
	})
}

// HandleDeleteProduct accepts a numeric id
func (h *ProductHandlerImpl) HandleDeleteProduct(c echo.Context) error {
	if _, err := int64Param(c, "id"); err != nil {
		return err
	}
	return c.String(http.StatusOK, "Product delete successfully")
}

// Helper functions

// pageParams reads the required page and limit query parameters.
func pageParams(c echo.Context) (page, limit int, err error) {
	err = echo.QueryParamsBinder(c).
		MustInt("page", &page).
		MustInt("limit", &limit).
		BindError()
	if err != nil {
		return 0, 0, NewBadRequestError("page and limit must be integers", err)
	}
	return page, limit, nil
}

// int64Param reads a required integer path parameter.
func int64Param(c echo.Context, name string) (int64, error) {
	var v int64
	if err := echo.PathParamsBinder(c).MustInt64(name, &v).BindError(); err != nil {
		return 0, NewBadRequestError(name+" must be an integer", err)
	}
	return v, nil
}
