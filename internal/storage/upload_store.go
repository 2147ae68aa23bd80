package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/shopapp/backend/internal/models"
	"github.com/spf13/afero"
)

const (
	// DefaultMaxSize is the largest accepted upload, 10 MiB.
	DefaultMaxSize int64 = 10 * 1024 * 1024
	// DefaultDir is the upload directory, relative to the working directory.
	DefaultDir = "uploads"

	imageTypePrefix = "image/"
	sniffLen        = 3072
	tempPattern     = ".upload-*"
)

// Options tunes an UploadStore. Zero values fall back to the defaults.
type Options struct {
	MaxSize int64
	// VerifyContent additionally rejects bodies whose sniffed type is not an image.
	VerifyContent bool
	Logger        *log.Logger
}

// UploadStore validates uploaded images and persists them under unique names in a
// single flat directory. It is safe for concurrent use.
type UploadStore struct {
	fs            afero.Fs
	dir           string
	maxSize       int64
	verifyContent bool
	logger        *log.Logger
	newID         func() uuid.UUID
	now           func() time.Time
}

// NewUploadStore creates a store rooted at dir. The directory is created on first write.
func NewUploadStore(fsys afero.Fs, dir string, opts Options) *UploadStore {
	if dir == "" {
		dir = DefaultDir
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = DefaultMaxSize
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &UploadStore{
		fs:            fsys,
		dir:           filepath.Clean(dir),
		maxSize:       opts.MaxSize,
		verifyContent: opts.VerifyContent,
		logger:        opts.Logger,
		newID:         uuid.New,
		now:           time.Now,
	}
}

// Dir returns the upload directory.
func (s *UploadStore) Dir() string { return s.dir }

// MaxSize returns the upload size limit in bytes.
func (s *UploadStore) MaxSize() int64 { return s.maxSize }

// Store validates and persists req and returns the stored name.
func (s *UploadStore) Store(req *models.UploadRequest) (string, error) {
	info, err := s.Save(req)
	if err != nil {
		return "", err
	}
	return info.Name, nil
}

// Save is Store returning the full metadata record.
func (s *UploadStore) Save(req *models.UploadRequest) (*models.StoredFile, error) {
	const op = "store"

	if req.Size > s.maxSize {
		return nil, tooLarge(op, req.Size, s.maxSize)
	}
	if !IsImageType(req.ContentType) {
		return nil, &Error{
			Kind: KindUnsupportedMediaType,
			Op:   op,
			Err:  fmt.Errorf("content type %q is not an image", req.ContentType),
		}
	}

	body := req.Body
	if body == nil {
		body = bytes.NewReader(nil)
	}
	head, body, err := sniff(body)
	if err != nil {
		return nil, storageFailure("read", err)
	}
	detected := mimetype.Detect(head).String()
	if s.verifyContent && !IsImageType(detected) {
		return nil, &Error{
			Kind: KindUnsupportedMediaType,
			Op:   op,
			Err:  fmt.Errorf("content looks like %q, not an image", detected),
		}
	}

	original := CleanName(req.Filename)
	name := StoredName(s.newID(), original)

	// MkdirAll succeeds when the directory already exists, including when another
	// request created it a moment ago.
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return nil, storageFailure("mkdir", err)
	}

	size, err := s.write(name, body)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("stored upload", "name", name, "size", size, "type", detected)

	return &models.StoredFile{
		Name:         name,
		OriginalName: original,
		Size:         size,
		ContentType:  req.ContentType,
		DetectedType: detected,
		StoredAt:     s.now(),
	}, nil
}

// write streams r into a temp file next to the destination and renames it into place.
// The temp file never outlives a failed call.
func (s *UploadStore) write(name string, r io.Reader) (int64, error) {
	tmp, err := afero.TempFile(s.fs, s.dir, tempPattern)
	if err != nil {
		return 0, storageFailure("create", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = s.fs.Remove(tmpName)
		}
	}()

	n, err := io.Copy(tmp, io.LimitReader(r, s.maxSize+1))
	if err != nil {
		tmp.Close()
		return 0, storageFailure("copy", err)
	}
	if n > s.maxSize {
		tmp.Close()
		return 0, tooLarge("copy", n, s.maxSize)
	}
	if err := tmp.Close(); err != nil {
		return 0, storageFailure("close", err)
	}

	// Rename replaces an existing file of the same name.
	if err := s.fs.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		return 0, storageFailure("rename", err)
	}
	committed = true
	return n, nil
}

// List returns the stored files, newest first.
func (s *UploadStore) List() ([]models.StoredFile, error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []models.StoredFile{}, nil
		}
		return nil, storageFailure("list", err)
	}

	files := make([]models.StoredFile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		files = append(files, models.StoredFile{
			Name:         e.Name(),
			OriginalName: OriginalName(e.Name()),
			Size:         e.Size(),
			StoredAt:     e.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].StoredAt.After(files[j].StoredAt)
	})
	return files, nil
}

// Open opens a stored file for reading. The caller closes the returned file.
func (s *UploadStore) Open(name string) (afero.File, *models.StoredFile, error) {
	if !validStoredName(name) {
		return nil, nil, ErrInvalidName
	}

	f, err := s.fs.Open(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, storageFailure("open", err)
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, storageFailure("stat", err)
	}
	if st.IsDir() {
		f.Close()
		return nil, nil, ErrNotFound
	}

	head, _, err := sniff(f)
	if err == nil {
		_, err = f.Seek(0, io.SeekStart)
	}
	if err != nil {
		f.Close()
		return nil, nil, storageFailure("read", err)
	}

	return f, &models.StoredFile{
		Name:         name,
		OriginalName: OriginalName(name),
		Size:         st.Size(),
		DetectedType: mimetype.Detect(head).String(),
		StoredAt:     st.ModTime(),
	}, nil
}

// Delete removes a stored file.
func (s *UploadStore) Delete(name string) error {
	if !validStoredName(name) {
		return ErrInvalidName
	}
	if err := s.fs.Remove(filepath.Join(s.dir, name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return storageFailure("delete", err)
	}
	s.logger.Debug("deleted upload", "name", name)
	return nil
}

// IsImageType reports whether a declared or detected content type is an image type.
func IsImageType(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), imageTypePrefix)
}

// sniff reads up to sniffLen bytes for type detection and returns a reader that
// replays them ahead of the rest of r.
func sniff(r io.Reader) ([]byte, io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, nil, err
	}
	head = head[:n]
	return head, io.MultiReader(bytes.NewReader(head), r), nil
}
