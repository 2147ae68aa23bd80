package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/shopapp/backend/internal/api"
	"github.com/shopapp/backend/internal/config"
	"github.com/shopapp/backend/internal/logging"
	"github.com/shopapp/backend/internal/notify"
	"github.com/shopapp/backend/internal/storage"
	"github.com/spf13/afero"
)

// loadSettings reads the config file, applies .env and process environment overrides
// (process environment wins) and validates the result.
func loadSettings(fsys afero.Fs, opts *serveOptions, environ []string) (*config.AppConfig, error) {
	dotenv, err := config.LoadDotEnv(fsys, opts.envFile)
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfig(fsys, opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.ApplyEnvironment(append(dotenv, environ...)); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newEcho wires the upload store, event hub and routes behind the configured middleware.
func newEcho(cfg *config.AppConfig, fsys afero.Fs, logger *log.Logger) (*echo.Echo, error) {
	maxSize, err := cfg.MaxUploadBytes()
	if err != nil {
		return nil, err
	}
	bodyLimit, err := cfg.BodyLimitBytes()
	if err != nil {
		return nil, err
	}

	store := storage.NewUploadStore(fsys, cfg.GetUploadDir(), storage.Options{
		MaxSize:       maxSize,
		VerifyContent: cfg.Storage.VerifyContent,
		Logger:        logger.With("component", "storage"),
	})
	hub := notify.NewHub(cfg.Advanced.EventBufferSize)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	api.SetupMiddleware(e, logger, strings.EqualFold(cfg.Advanced.LogLevel, "debug"))

	// Configure middleware
	if cfg.Advanced.EnableRequestLogging {
		e.Use(logging.RequestLogger(logger, func(c echo.Context) bool {
			return c.Path() == api.APIPrefix+"/health"
		}))
	}

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("panic recovered", "err", err, "stack", string(stack))
			return err
		},
	}))

	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout:      time.Duration(cfg.Server.ReadTimeout) * time.Second,
		Skipper:      isStreamingRequest,
		ErrorMessage: "Request timeout",
	}))

	if cfg.Server.EnableCompression {
		e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
			Skipper: isStreamingRequest,
		}))
	}

	e.Use(middleware.BodyLimit(strconv.FormatInt(bodyLimit, 10)))

	if cfg.Server.EnableCORS {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: splitOrigins(cfg.Server.AllowOrigins),
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}

	handlers := api.NewHandlers(&api.Dependencies{
		Store:   store,
		Events:  hub,
		Logger:  logger,
		Version: Version,
	})
	api.RegisterRoutes(e, handlers, api.RouteOptions{AllowFileDeletion: cfg.Security.AllowFileDeletion})
	api.RegisterWebSocketRoutes(e, handlers)

	return e, nil
}

// isStreamingRequest matches uploads, file downloads and the websocket feed, which must not
// be buffered by the timeout or gzip middleware.
func isStreamingRequest(c echo.Context) bool {
	path := c.Request().URL.Path
	return c.Request().Method == http.MethodPost ||
		strings.HasPrefix(path, api.APIPrefix+"/uploads/") ||
		strings.HasPrefix(path, api.APIPrefix+"/ws/")
}

func splitOrigins(s string) []string {
	var origins []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// runServe starts the HTTP server and blocks until ctx is done or the listener fails.
func runServe(ctx context.Context, fsys afero.Fs, opts *serveOptions, environ []string, stdout, stderr io.Writer) error {
	cfg, err := loadSettings(fsys, opts, environ)
	if err != nil {
		return err
	}

	logger := logging.New(stderr, cfg.Advanced.LogLevel)

	e, err := newEcho(cfg, fsys, logger)
	if err != nil {
		return err
	}

	// Configure server with settings from config
	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		Handler:      e,
	}

	fmt.Fprintln(stdout, renderBanner(cfg, opts.configPath))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
