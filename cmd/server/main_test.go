package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopapp/backend/internal/config"
	"github.com/shopapp/backend/internal/logging"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func imageUpload(t *testing.T, size int) (*bytes.Buffer, string) {
	t.Helper()
	data := make([]byte, size)
	copy(data, pngHeader)

	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="photo.png"`)
	h.Set("Content-Type", "image/png")
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	root := newRootCommand(afero.NewMemMapFs(), &out, io.Discard)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "shopapp dev (built unknown)\n", out.String())
}

func TestRootCommand_RejectsArgs(t *testing.T) {
	root := newRootCommand(afero.NewMemMapFs(), io.Discard, io.Discard)
	root.SetArgs([]string{"serve", "extra"})
	assert.Error(t, root.Execute())
}

func TestLoadSettings(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/app/.env", []byte("PORT=7000\nLOG_LEVEL=debug\n"), 0o644))

	opts := &serveOptions{configPath: "/app/shopapp.yaml", envFile: "/app/.env"}
	cfg, err := loadSettings(fsys, opts, []string{"PORT=7100"})
	require.NoError(t, err)

	assert.Equal(t, 7100, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Advanced.LogLevel)
	assert.Equal(t, "/app/uploads", cfg.GetUploadDir())

	exists, err := afero.Exists(fsys, "/app/shopapp.yaml")
	require.NoError(t, err)
	assert.True(t, exists, "default config file should be created")
}

func TestLoadSettings_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		environ []string
		wantErr string
	}{
		{"bad port", []string{"PORT=http"}, "invalid PORT"},
		{"port out of range", []string{"PORT=99999"}, "invalid configuration"},
		{"bad size", []string{"MAX_UPLOAD_SIZE=huge"}, "invalid configuration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := &serveOptions{configPath: "shopapp.config.xml", envFile: ".env"}
			_, err := loadSettings(afero.NewMemMapFs(), opts, tt.environ)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func newTestApp(t *testing.T, mutate func(*config.AppConfig)) (*echo.Echo, afero.Fs, *logging.TestLogger) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Storage.UploadsDirectory = "/srv/uploads"
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Validate())

	fsys := afero.NewMemMapFs()
	tl := logging.NewTestLogger()
	e, err := newEcho(cfg, fsys, tl.Logger)
	require.NoError(t, err)
	return e, fsys, tl
}

func TestNewEcho_UploadFlow(t *testing.T) {
	e, fsys, tl := newTestApp(t, nil)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, tl.GetOutput(), "/api/v1/health")

	body, ctype := imageUpload(t, 2048)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", body)
	req.Header.Set(echo.HeaderContentType, ctype)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	entries, err := afero.ReadDir(fsys, "/srv/uploads")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasSuffix(entries[0].Name(), "_photo.png"))
	assert.Contains(t, tl.GetOutput(), "uri=/api/v1/uploads")

	// Deletion is off by default.
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/uploads/"+entries[0].Name(), nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestNewEcho_Limits(t *testing.T) {
	e, _, _ := newTestApp(t, func(c *config.AppConfig) {
		c.Storage.MaxUploadSize = "1KiB"
		c.Server.BodyLimit = "2KiB"
	})

	tests := []struct {
		name       string
		size       int
		wantStatus int
		wantBody   string
	}{
		{"within limit", 1024, http.StatusCreated, "_photo.png"},
		{"over store limit", 1500, http.StatusRequestEntityTooLarge, "File is too large! Maximum size is 1.0 KiB"},
		{"over body limit", 4096, http.StatusRequestEntityTooLarge, `"code":"HTTP_ERROR"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ctype := imageUpload(t, tt.size)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", body)
			req.Header.Set(echo.HeaderContentType, ctype)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

func TestNewEcho_CORS(t *testing.T) {
	e, _, _ := newTestApp(t, func(c *config.AppConfig) {
		c.Server.AllowOrigins = "https://shop.example.com, https://admin.example.com"
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/products", nil)
	req.Header.Set(echo.HeaderOrigin, "https://admin.example.com")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://admin.example.com", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}

func TestSplitOrigins(t *testing.T) {
	assert.Equal(t, []string{"*"}, splitOrigins(""))
	assert.Equal(t, []string{"*"}, splitOrigins(" , "))
	assert.Equal(t, []string{"a", "b"}, splitOrigins("a, b,"))
}

func TestRenderBanner(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Security.AllowFileDeletion = true

	out := renderBanner(cfg, "shopapp.config.xml")
	assert.Contains(t, out, "Shop Backend Server")
	assert.Contains(t, out, "http://0.0.0.0:8088")
	assert.Contains(t, out, "10 MiB")
	assert.Contains(t, out, "enabled")
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestRunServe_GracefulShutdown(t *testing.T) {
	port := freePort(t)
	fsys := afero.NewMemMapFs()
	opts := &serveOptions{configPath: "/etc/shopapp/shopapp.config.xml", envFile: "/etc/shopapp/.env"}
	environ := []string{fmt.Sprintf("PORT=%d", port), "BIND_ADDRESS=127.0.0.1", "LOG_LEVEL=error"}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stdout bytes.Buffer
	done := make(chan error, 1)
	go func() {
		done <- runServe(ctx, fsys, opts, environ, &stdout, io.Discard)
	}()

	url := fmt.Sprintf("http://127.0.0.1:%d/api/v1/health", port)
	assert.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
