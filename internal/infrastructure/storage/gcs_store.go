package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSDocumentStore keeps documents as objects in a Cloud Storage bucket
type GCSDocumentStore struct {
	client *gcs.Client
	bucket string
	prefix string
}

// NewGCSDocumentStore connects with explicit credentials JSON when given,
// otherwise with application default credentials.
func NewGCSDocumentStore(ctx context.Context, bucket, credentialsJSON, prefix string) (*GCSDocumentStore, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, errors.New("GCS_BUCKET is required")
	}

	var opts []option.ClientOption
	if strings.TrimSpace(credentialsJSON) != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &GCSDocumentStore{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}, nil
}

func (s *GCSDocumentStore) Kind() string { return "gcs" }

func (s *GCSDocumentStore) object(name string) *gcs.ObjectHandle {
	key := name
	if s.prefix != "" {
		key = s.prefix + "/" + name
	}
	return s.client.Bucket(s.bucket).Object(key)
}

func (s *GCSDocumentStore) Save(ctx context.Context, name string, data []byte) error {
	if !ValidName(name) {
		return ErrInvalidName
	}

	w := s.object(name).NewWriter(ctx)
	w.ContentType = "application/pdf"
	w.CacheControl = "no-store"

	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("failed to upload document: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize document upload: %w", err)
	}
	return nil
}

func (s *GCSDocumentStore) Open(ctx context.Context, name string) ([]byte, error) {
	if !ValidName(name) {
		return nil, ErrInvalidName
	}

	r, err := s.object(name).NewReader(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer r.Close()

	return io.ReadAll(r)
}

// Close releases the storage client
func (s *GCSDocumentStore) Close() error {
	return s.client.Close()
}
