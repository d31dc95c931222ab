package archive

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/autopeer-io/tripdash/pkg/log"
	"github.com/autopeer-io/tripdash/pkg/options"
)

type minioProvider struct {
	client     *minio.Client
	bucketName string
	region     string
}

// NewMinIOProvider creates a Provider for any S3 compatible endpoint.
func NewMinIOProvider(opts *options.S3Options) (Provider, error) {
	minioOpts := &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	}
	if opts.InsecureSkipVerify {
		minioOpts.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	client, err := minio.New(opts.Endpoint, minioOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &minioProvider{
		client:     client,
		bucketName: opts.BucketName,
		region:     opts.Region,
	}, nil
}

func (p *minioProvider) CheckBucket(ctx context.Context) error {
	exists, err := p.client.BucketExists(ctx, p.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		log.Info("Bucket does not exist, creating...", "bucket", p.bucketName)
		if err := p.client.MakeBucket(ctx, p.bucketName, minio.MakeBucketOptions{Region: p.region}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

func (p *minioProvider) PutObject(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := p.client.PutObject(ctx, p.bucketName, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

func (p *minioProvider) GeneratePresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := p.client.PresignedGetObject(ctx, p.bucketName, key, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned url: %w", err)
	}
	return u.String(), nil
}
