// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/shopapp/backend/internal/notify"
)

// APIPrefix is the base path of every REST route
const APIPrefix = "/api/v1"

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store   UploadStore
	Events  *notify.Hub
	Logger  *log.Logger
	Version string
}

// Handlers holds all handler instances
type Handlers struct {
	Health    HealthHandler
	Product   ProductHandler
	Category  CategoryHandler
	Upload    UploadHandler
	WebSocket *WebSocketHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	events := deps.Events
	if events == nil {
		events = notify.NewHub(notify.DefaultBuffer)
	}

	return &Handlers{
		Health:    NewHealthHandler(deps.Version, deps.Store),
		Product:   NewProductHandler(deps.Store, events),
		Category:  NewCategoryHandler(),
		Upload:    NewUploadHandler(deps.Store, events),
		WebSocket: NewWebSocketHandler(events, deps.Logger),
	}
}

// RouteOptions toggles optional routes
type RouteOptions struct {
	AllowFileDeletion bool
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers, opts RouteOptions) {
	v1 := e.Group(APIPrefix)

	// Health check
	v1.GET("/health", handlers.Health.HandleHealth)

	// Product routes
	products := v1.Group("/products")
	products.GET("", handlers.Product.HandleListProducts)
	products.POST("", handlers.Product.HandleCreateProduct)
	products.GET("/:id", handlers.Product.HandleGetProduct)
	products.DELETE("/:id", handlers.Product.HandleDeleteProduct)

	// Category routes
	categories := v1.Group("/categories")
	categories.GET("", handlers.Category.HandleListCategories)
	categories.POST("", handlers.Category.HandleCreateCategory)
	categories.PUT("/:id", handlers.Category.HandleUpdateCategory)
	categories.DELETE("/:id", handlers.Category.HandleDeleteCategory)

	// Stored image routes
	uploads := v1.Group("/uploads")
	uploads.POST("", handlers.Upload.HandleUploadFile)
	uploads.GET("", handlers.Upload.HandleListFiles)
	uploads.GET("/msgpack", handlers.Upload.HandleListFilesMsgpack)
	uploads.GET("/:name", handlers.Upload.HandleGetFile)
	if opts.AllowFileDeletion {
		uploads.DELETE("/:name", handlers.Upload.HandleDeleteFile)
	} else {
		uploads.DELETE("/:name", func(c echo.Context) error {
			return NewForbiddenError("file deletion is disabled")
		})
	}
}

// RegisterWebSocketRoutes registers WebSocket routes
func RegisterWebSocketRoutes(e *echo.Echo, handlers *Handlers) {
	e.GET(APIPrefix+"/ws/uploads", handlers.WebSocket.HandleWebSocket)
}

// SetupMiddleware installs the error handler and request validator
func SetupMiddleware(e *echo.Echo, logger *log.Logger, debug bool) {
	e.HTTPErrorHandler = NewErrorHandler(logger, debug)
	e.Validator = NewRequestValidator()
}
