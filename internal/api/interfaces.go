// interfaces.go - Handler and dependency interfaces for clean separation of concerns
package api

import (
	"github.com/labstack/echo/v4"
	"github.com/shopapp/backend/internal/models"
	"github.com/shopapp/backend/internal/notify"
	"github.com/shopapp/backend/internal/storage"
	"github.com/spf13/afero"
)

// UploadStore persists validated images. *storage.UploadStore is the production implementation.
type UploadStore interface {
	Save(req *models.UploadRequest) (*models.StoredFile, error)
	List() ([]models.StoredFile, error)
	Open(name string) (afero.File, *models.StoredFile, error)
	Delete(name string) error
	MaxSize() int64
}

// EventPublisher receives upload events. *notify.Hub is the production implementation.
type EventPublisher interface {
	Publish(ev notify.Event) int
}

// EventSource hands out event subscriptions to websocket clients.
type EventSource interface {
	Subscribe() (<-chan notify.Event, func())
}

// ProductHandler handles product operations
type ProductHandler interface {
	HandleListProducts(c echo.Context) error
	HandleGetProduct(c echo.Context) error
	HandleCreateProduct(c echo.Context) error
	HandleDeleteProduct(c echo.Context) error
}

// CategoryHandler handles category operations
type CategoryHandler interface {
	HandleListCategories(c echo.Context) error
	HandleCreateCategory(c echo.Context) error
	HandleUpdateCategory(c echo.Context) error
	HandleDeleteCategory(c echo.Context) error
}

// UploadHandler handles stored image operations
type UploadHandler interface {
	HandleUploadFile(c echo.Context) error
	HandleListFiles(c echo.Context) error
	HandleListFilesMsgpack(c echo.Context) error
	HandleGetFile(c echo.Context) error
	HandleDeleteFile(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

var (
	_ UploadStore    = (*storage.UploadStore)(nil)
	_ EventPublisher = (*notify.Hub)(nil)
	_ EventSource    = (*notify.Hub)(nil)
)
