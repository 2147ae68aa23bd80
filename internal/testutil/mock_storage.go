// mock_storage.go - In-memory upload store for handler tests
package testutil

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/shopapp/backend/internal/models"
	"github.com/shopapp/backend/internal/storage"
	"github.com/spf13/afero"
)

// MockUploadStore keeps files in an afero memory filesystem and accepts anything
// unless an error is injected. It does not validate size or type.
type MockUploadStore struct {
	mu      sync.RWMutex
	fs      afero.Fs
	files   map[string]models.StoredFile
	calls   []models.UploadRequest
	maxSize int64
	seq     int

	// Injected errors, returned as is when set.
	SaveErr   error
	ListErr   error
	DeleteErr error
}

// NewMockUploadStore creates an empty mock with the default size limit
func NewMockUploadStore() *MockUploadStore {
	return &MockUploadStore{
		fs:      afero.NewMemMapFs(),
		files:   make(map[string]models.StoredFile),
		maxSize: storage.DefaultMaxSize,
	}
}

var mockEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func (m *MockUploadStore) Save(req *models.UploadRequest) (*models.StoredFile, error) {
	m.mu.Lock()
	m.calls = append(m.calls, models.UploadRequest{
		Filename:    req.Filename,
		ContentType: req.ContentType,
		Size:        req.Size,
	})
	err := m.SaveErr
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	var data []byte
	if req.Body != nil {
		var readErr error
		if data, readErr = io.ReadAll(req.Body); readErr != nil {
			return nil, readErr
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	info := m.put(fmt.Sprintf("mock-%04d_%s", m.seq, storage.CleanName(req.Filename)), data)
	info.ContentType = req.ContentType
	m.files[info.Name] = info
	return &info, nil
}

func (m *MockUploadStore) List() ([]models.StoredFile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.ListErr != nil {
		return nil, m.ListErr
	}

	files := make([]models.StoredFile, 0, len(m.files))
	for _, f := range m.files {
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].StoredAt.After(files[j].StoredAt)
	})
	return files, nil
}

func (m *MockUploadStore) Open(name string) (afero.File, *models.StoredFile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.files[name]
	if !ok {
		return nil, nil, storage.ErrNotFound
	}
	f, err := m.fs.Open(filepath.Join("/", name))
	if err != nil {
		return nil, nil, err
	}
	return f, &info, nil
}

func (m *MockUploadStore) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	if _, ok := m.files[name]; !ok {
		return storage.ErrNotFound
	}
	delete(m.files, name)
	return m.fs.Remove(filepath.Join("/", name))
}

func (m *MockUploadStore) MaxSize() int64 {
	return m.maxSize
}

// Test Helper Methods

// SetMaxSize changes the limit reported to handlers
func (m *MockUploadStore) SetMaxSize(n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxSize = n
}

// AddFile adds a file directly to the mock under its exact name
func (m *MockUploadStore) AddFile(name string, data []byte) models.StoredFile {
	m.mu.Lock()
	defer m.mu.Unlock()

	info := m.put(name, data)
	m.files[name] = info
	return info
}

// GetFileData returns the file content
func (m *MockUploadStore) GetFileData(name string) ([]byte, error) {
	return afero.ReadFile(m.fs, filepath.Join("/", name))
}

// GetFileCount returns the number of stored files
func (m *MockUploadStore) GetFileCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.files)
}

// Calls returns the requests passed to Save, without bodies
func (m *MockUploadStore) Calls() []models.UploadRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.UploadRequest(nil), m.calls...)
}

// put writes data and builds its record. Callers hold m.mu.
func (m *MockUploadStore) put(name string, data []byte) models.StoredFile {
	if err := afero.WriteFile(m.fs, filepath.Join("/", name), data, 0o644); err != nil {
		panic(fmt.Sprintf("failed to write test file: %v", err))
	}
	return models.StoredFile{
		Name:         name,
		OriginalName: storage.OriginalName(name),
		Size:         int64(len(data)),
		DetectedType: mimetype.Detect(data).String(),
		StoredAt:     mockEpoch.Add(time.Duration(len(m.files)) * time.Second),
	}
}
