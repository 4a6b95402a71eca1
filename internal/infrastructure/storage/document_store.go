package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// ErrDocumentNotFound is returned when a named document does not exist
var ErrDocumentNotFound = errors.New("document not found")

// ErrInvalidName is returned for names that could escape the store
var ErrInvalidName = errors.New("invalid document name")

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// DocumentStore keeps generated label documents by name
type DocumentStore interface {
	Save(ctx context.Context, name string, data []byte) error
	Open(ctx context.Context, name string) ([]byte, error)
	Kind() string
}

// ValidName reports whether name is a flat, safe document name
func ValidName(name string) bool {
	return namePattern.MatchString(name) && name != "." && name != ".."
}

// LocalDocumentStore writes documents to a directory on disk
type LocalDocumentStore struct {
	dir string
}

// NewLocalDocumentStore creates the directory if needed
func NewLocalDocumentStore(dir string) (*LocalDocumentStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create document directory: %w", err)
	}
	return &LocalDocumentStore{dir: dir}, nil
}

func (s *LocalDocumentStore) Kind() string { return "local" }

// Save writes through a temp file so readers never see a partial document
func (s *LocalDocumentStore) Save(ctx context.Context, name string, data []byte) error {
	if !ValidName(name) {
		return ErrInvalidName
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp document: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return os.Rename(tmp.Name(), filepath.Join(s.dir, name))
}

func (s *LocalDocumentStore) Open(ctx context.Context, name string) ([]byte, error) {
	if !ValidName(name) {
		return nil, ErrInvalidName
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrDocumentNotFound
	}
	return data, err
}
