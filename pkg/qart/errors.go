package qart

import "errors"

// Common errors
var (
	ErrNotFound      = errors.New("object not found")
	ErrBucketMissing = errors.New("bucket does not exist")
	ErrNoBucket      = errors.New("no bucket given and no default bucket configured")
)
