// Package logging builds the charmbracelet/log loggers used across the server.
package logging

import (
	"bytes"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Prefix is attached to every line the server logs.
const Prefix = "shopapp"

// New creates a logger writing to w at the named level. Unknown levels fall back to info.
// Debug level also reports the caller.
func New(w io.Writer, level string) *log.Logger {
	lvl, err := log.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = log.InfoLevel
	}

	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		ReportCaller:    lvl == log.DebugLevel,
		Prefix:          Prefix,
	})
	logger.SetLevel(lvl)
	return logger
}

// TestLogger captures output in memory.
type TestLogger struct {
	*log.Logger
	Buffer *bytes.Buffer
}

// NewTestLogger returns a debug level logger writing to a buffer.
func NewTestLogger() *TestLogger {
	buf := new(bytes.Buffer)
	logger := log.NewWithOptions(buf, log.Options{Prefix: Prefix})
	logger.SetLevel(log.DebugLevel)
	return &TestLogger{Logger: logger, Buffer: buf}
}

// GetOutput returns everything logged so far.
func (l *TestLogger) GetOutput() string {
	if l.Buffer == nil {
		return ""
	}
	return l.Buffer.String()
}

// RequestLogger returns echo middleware that logs one line per request.
// Requests that end in an error are logged at error level.
func RequestLogger(logger *log.Logger, skipper middleware.Skipper) echo.MiddlewareFunc {
	if skipper == nil {
		skipper = middleware.DefaultSkipper
	}
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper:     skipper,
		HandleError: true,
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			kv := []interface{}{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"remote", v.RemoteIP,
			}
			if v.Error != nil {
				logger.Error("request", append(kv, "err", v.Error)...)
				return nil
			}
			logger.Info("request", kv...)
			return nil
		},
	})
}
