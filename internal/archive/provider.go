package archive

import (
	"context"
	"io"
	"time"
)

// Provider is the object storage the archive is written to.
type Provider interface {
	// CheckBucket makes sure the bucket exists.
	CheckBucket(ctx context.Context) error

	// PutObject uploads size bytes from r under key.
	PutObject(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// GeneratePresignedURL returns a temporary download link for key.
	GeneratePresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}
