package qart

import (
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Store implements Store using MinIO/S3-compatible storage.
type S3Store struct {
	client *minio.Client
	bucket string
}

// S3Config holds configuration for S3-compatible storage.
type S3Config struct {
	Endpoint  string // host:port (e.g., "localhost:9000")
	AccessKey string
	SecretKey string
	Bucket    string // default bucket for references without one
	Region    string
	UseSSL    bool
}

// NewS3Store creates a new S3Store with the given configuration.
func NewS3Store(cfg S3Config) (*S3Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}

	return &S3Store{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

// Open retrieves a config document by bucket and key.
func (s *S3Store) Open(ctx context.Context, bucket, key string) (io.ReadCloser, *Object, error) {
	if bucket == "" {
		bucket = s.bucket
	}
	if bucket == "" {
		return nil, nil, ErrNoBucket
	}

	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, translate(err)
	}

	// GetObject is lazy; Stat forces the request so a missing key surfaces here.
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, nil, translate(err)
	}

	return obj, &Object{
		Bucket:       bucket,
		Key:          info.Key,
		Size:         info.Size,
		ContentType:  info.ContentType,
		LastModified: info.LastModified,
	}, nil
}

func translate(err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey":
		return ErrNotFound
	case "NoSuchBucket":
		return ErrBucketMissing
	}
	return err
}

// Ensure S3Store implements Store.
var _ Store = (*S3Store)(nil)
