// handlers_upload.go - Stored image handlers
package api

import (
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopapp/backend/internal/models"
	"github.com/shopapp/backend/internal/notify"
	"github.com/vmihailenco/msgpack/v5"
)

// fileField is the multipart part carrying the image.
const fileField = "file"

// inlineImageTypes are the raster formats served with their own type. Anything else,
// SVG included, is sent as an attachment.
var inlineImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// UploadHandlerImpl implements the UploadHandler interface
type UploadHandlerImpl struct {
	store  UploadStore
	events EventPublisher
}

// NewUploadHandler creates a new upload handler instance. events may be nil.
func NewUploadHandler(store UploadStore, events EventPublisher) UploadHandler {
	return &UploadHandlerImpl{
		store:  store,
		events: events,
	}
}

// HandleUploadFile stores the multipart "file" part and returns its metadata
func (h *UploadHandlerImpl) HandleUploadFile(c echo.Context) error {
	if err := requireMultipart(c); err != nil {
		return err
	}

	fh, err := c.FormFile(fileField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return NewValidationError(fileField)
		}
		return NewBadRequestError("invalid multipart body", err)
	}

	info, err := saveFormFile(h.store, fh)
	if err != nil {
		return err
	}
	publish(h.events, notify.EventUploadStored, info)

	return c.JSON(http.StatusCreated, info)
}

// HandleListFiles returns all stored files, newest first
func (h *UploadHandlerImpl) HandleListFiles(c echo.Context) error {
	files, err := h.store.List()
	if err != nil {
		return NewInternalError("failed to list files", err)
	}
	return c.JSON(http.StatusOK, files)
}

// HandleListFilesMsgpack returns the file list encoded as MessagePack
func (h *UploadHandlerImpl) HandleListFilesMsgpack(c echo.Context) error {
	files, err := h.store.List()
	if err != nil {
		return NewInternalError("failed to list files", err)
	}

	data, err := msgpack.Marshal(files)
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}

	return c.Blob(http.StatusOK, "application/msgpack", data)
}

// HandleGetFile streams a stored file with its sniffed content type
func (h *UploadHandlerImpl) HandleGetFile(c echo.Context) error {
	name := c.Param("name")
	if name == "" {
		return NewValidationError("name")
	}

	f, info, err := h.store.Open(name)
	if err != nil {
		return newStoredFileError(err, name)
	}
	defer f.Close()

	header := c.Response().Header()
	if ctype, ok := inlineType(info.DetectedType); ok {
		header.Set(echo.HeaderContentType, ctype)
	} else {
		header.Set(echo.HeaderContentType, echo.MIMEOctetStream)
		header.Set(echo.HeaderContentDisposition, mime.FormatMediaType("attachment", map[string]string{"filename": info.Name}))
		header.Set(echo.HeaderContentSecurityPolicy, "sandbox")
	}
	header.Set(echo.HeaderXContentTypeOptions, "nosniff")
	http.ServeContent(c.Response(), c.Request(), info.Name, info.StoredAt, f)
	return nil
}

// HandleDeleteFile removes a stored file
func (h *UploadHandlerImpl) HandleDeleteFile(c echo.Context) error {
	name := c.Param("name")
	if name == "" {
		return NewValidationError("name")
	}

	if err := h.store.Delete(name); err != nil {
		return newStoredFileError(err, name)
	}
	publish(h.events, notify.EventUploadDeleted, &models.StoredFile{Name: name})

	return c.NoContent(http.StatusNoContent)
}

// Helper functions

// inlineType returns the media type to serve a file inline with, if it is a safe raster image.
func inlineType(detected string) (string, bool) {
	mediaType, _, err := mime.ParseMediaType(detected)
	if err != nil || !inlineImageTypes[mediaType] {
		return "", false
	}
	return mediaType, true
}

// requireMultipart rejects bodies that are not multipart/form-data.
func requireMultipart(c echo.Context) error {
	ctype := c.Request().Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(ctype, echo.MIMEMultipartForm) {
		return NewUnsupportedMediaTypeError("Content-Type must be " + echo.MIMEMultipartForm)
	}
	return nil
}

// saveFormFile hands a multipart file to the store and maps store failures to API errors.
func saveFormFile(store UploadStore, fh *multipart.FileHeader) (*models.StoredFile, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, NewInternalError("failed to open uploaded file", err)
	}
	defer src.Close()

	info, err := store.Save(&models.UploadRequest{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Body:        src,
	})
	if err != nil {
		return nil, NewUploadError(err, store.MaxSize())
	}
	return info, nil
}

func publish(events EventPublisher, typ notify.EventType, info *models.StoredFile) {
	if events == nil || info == nil {
		return
	}
	events.Publish(notify.Event{Type: typ, File: *info})
}
