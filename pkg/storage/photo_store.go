package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrTooLarge is returned when an upload exceeds the configured limit.
	ErrTooLarge = errors.New("file exceeds size limit")
	// ErrUnsupportedType is returned for content types outside the allow list.
	ErrUnsupportedType = errors.New("unsupported content type")
	// ErrInvalidPath is returned for paths escaping the storage root.
	ErrInvalidPath = errors.New("invalid storage path")
)

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// StoredFile describes a file written by PhotoStore.
type StoredFile struct {
	Path        string
	ContentType string
	Size        int64
}

// PhotoStore keeps inspection photos on the local filesystem below a base
// directory, grouped by year and month.
type PhotoStore struct {
	baseDir  string
	maxBytes int64
	allowed  map[string]struct{}
	now      func() time.Time
}

// NewPhotoStore creates the base directory and returns a store. An empty
// allow list accepts every image type with a known extension.
func NewPhotoStore(baseDir string, maxBytes int64, allowedTypes []string) (*PhotoStore, error) {
	if baseDir == "" {
		baseDir = "./photos"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create photo directory: %w", err)
	}
	allowed := make(map[string]struct{}, len(allowedTypes))
	for _, t := range allowedTypes {
		allowed[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}
	return &PhotoStore{baseDir: baseDir, maxBytes: maxBytes, allowed: allowed, now: time.Now}, nil
}

// Save sniffs the content type, enforces the size limit and writes the file
// under a fresh name. The returned path is relative to the store root.
func (s *PhotoStore) Save(r io.Reader) (*StoredFile, error) {
	limit := s.maxBytes
	if limit <= 0 {
		limit = 8 << 20
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, ErrTooLarge
	}

	contentType := http.DetectContentType(data)
	ext, known := extensions[contentType]
	if !known {
		return nil, ErrUnsupportedType
	}
	if len(s.allowed) > 0 {
		if _, ok := s.allowed[contentType]; !ok {
			return nil, ErrUnsupportedType
		}
	}

	now := s.now().UTC()
	rel := filepath.ToSlash(filepath.Join(now.Format("2006"), now.Format("01"), uuid.NewString()+ext))
	full, err := s.resolve(rel)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, fmt.Errorf("prepare photo directory: %w", err)
	}
	if err := writeFile(full, bytes.NewReader(data)); err != nil {
		return nil, err
	}

	return &StoredFile{Path: rel, ContentType: contentType, Size: int64(len(data))}, nil
}

// Open returns a read handle for a stored photo.
func (s *PhotoStore) Open(rel string) (*os.File, error) {
	full, err := s.resolve(rel)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(full)
	if err != nil {
		return nil, fmt.Errorf("open photo: %w", err)
	}
	return file, nil
}

func (s *PhotoStore) resolve(rel string) (string, error) {
	if rel == "" || filepath.IsAbs(rel) {
		return "", ErrInvalidPath
	}
	clean := filepath.Clean(filepath.FromSlash(rel))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", ErrInvalidPath
	}
	return filepath.Join(s.baseDir, clean), nil
}

func writeFile(path string, r io.Reader) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create photo: %w", err)
	}
	defer file.Close() //nolint:errcheck
	if _, err := io.Copy(file, r); err != nil {
		return fmt.Errorf("write photo: %w", err)
	}
	return nil
}
