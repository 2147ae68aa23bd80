package api

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopapp/backend/internal/notify"
	"github.com/shopapp/backend/internal/storage"
	"github.com/shopapp/backend/internal/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

var _ UploadStore = (*testutil.MockUploadStore)(nil)

// pngHeader is enough of a PNG for content sniffing.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

const storedNamePattern = `^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}_%s$`

// filePart describes the "file" part of a multipart body.
type filePart struct {
	name        string
	contentType string // omitted from the part header when empty
	data        []byte
}

func pngFile(name string, size int) *filePart {
	data := make([]byte, size)
	copy(data, pngHeader)
	return &filePart{name: name, contentType: "image/png", data: data}
}

// multipartBody builds a multipart/form-data body and returns it with its Content-Type.
func multipartBody(t *testing.T, fields map[string]string, file *filePart) (*bytes.Buffer, string) {
	t.Helper()

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, fileField, file.name))
		if file.contentType != "" {
			h.Set("Content-Type", file.contentType)
		}
		part, err := writer.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(file.data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

// newTestEcho returns an echo instance with the API error handler and validator installed.
func newTestEcho() *echo.Echo {
	e := echo.New()
	SetupMiddleware(e, nil, true)
	return e
}

// testServer wires every route over the given store.
type testServer struct {
	e      *echo.Echo
	events *notify.Hub
}

func newTestServer(store UploadStore, opts RouteOptions) *testServer {
	e := newTestEcho()
	hub := notify.NewHub(8)
	h := NewHandlers(&Dependencies{Store: store, Events: hub, Version: "test"})
	RegisterRoutes(e, h, opts)
	RegisterWebSocketRoutes(e, h)
	return &testServer{e: e, events: hub}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

// newMemStore returns a real upload store over an in-memory filesystem.
func newMemStore(maxSize int64) (*storage.UploadStore, afero.Fs) {
	fsys := afero.NewMemMapFs()
	return storage.NewUploadStore(fsys, storage.DefaultDir, storage.Options{MaxSize: maxSize}), fsys
}

// asAPIError asserts err is an *APIError and returns it.
func asAPIError(t *testing.T, err error) *APIError {
	t.Helper()
	require.Error(t, err)
	apiErr, ok := err.(*APIError)
	require.True(t, ok, "expected *APIError, got %T", err)
	return apiErr
}
