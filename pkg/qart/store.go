// Package qart reads training config documents from S3-compatible storage.
package qart

import (
	"context"
	"io"
	"time"
)

// Object describes a stored config document.
type Object struct {
	Bucket       string    `json:"bucket"`
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type"`
	LastModified time.Time `json:"last_modified"`
}

// Store defines the read side of an object store holding config documents.
type Store interface {
	// Open returns a reader for the object at bucket/key. An empty bucket
	// means the store's default bucket. Returns ErrNotFound when the key
	// or bucket does not exist.
	Open(ctx context.Context, bucket, key string) (io.ReadCloser, *Object, error)
}
