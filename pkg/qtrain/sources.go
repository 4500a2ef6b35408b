package qtrain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/quatton/qwex-trainer/pkg/kv"
	"github.com/quatton/qwex-trainer/pkg/qart"
	"github.com/quatton/qwex-trainer/pkg/qerr"
)

const (
	SchemeFile = "file"
	SchemeS3   = "s3"
	SchemeKV   = "kv"
)

// ErrSourceNotFound is returned by a Source when the reference does not resolve.
var ErrSourceNotFound = errors.New("config source not found")

// Ref is a config reference split into scheme and location.
// "runs/cfg.yaml" and "file://runs/cfg.yaml" both parse to {file, runs/cfg.yaml}.
type Ref struct {
	Scheme   string
	Location string
}

// ParseRef splits a reference on its scheme separator.
func ParseRef(ref string) (Ref, error) {
	ref = strings.TrimSpace(ref)
	scheme, location, ok := strings.Cut(ref, "://")
	if !ok {
		return Ref{Scheme: SchemeFile, Location: ref}, nil
	}
	if scheme == "" || location == "" {
		return Ref{}, qerr.Newf(qerr.CodeInvalidArgument, "malformed config reference %q", ref)
	}
	return Ref{Scheme: strings.ToLower(scheme), Location: location}, nil
}

func (r Ref) String() string {
	return r.Scheme + "://" + r.Location
}

// Source fetches the raw bytes of a config document.
type Source interface {
	Read(ctx context.Context, ref Ref) ([]byte, error)
}

// FileSource reads documents from the local filesystem. With Root set,
// locations are relative to Root and may not leave it; absolute locations are
// rejected. An empty Root reads any path the process can open.
type FileSource struct {
	Root string
}

func (s FileSource) Read(_ context.Context, ref Ref) ([]byte, error) {
	p, err := s.resolve(ref.Location)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, ref.Location)
		}
		return nil, err
	}
	return data, nil
}

func (s FileSource) resolve(location string) (string, error) {
	if s.Root == "" {
		return location, nil
	}
	if filepath.IsAbs(location) {
		return "", qerr.Newf(qerr.CodeInvalidArgument, "config path %q must be relative to the config root", location)
	}

	root, err := filepath.Abs(s.Root)
	if err != nil {
		return "", fmt.Errorf("resolving config root: %w", err)
	}
	p := filepath.Join(root, location)
	rel, err := filepath.Rel(root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", qerr.Newf(qerr.CodeInvalidArgument, "config path %q escapes the config root", location)
	}
	return p, nil
}

// ObjectSource reads documents from an object store. The location is
// "bucket/key"; a location without a slash is a key in the default bucket.
type ObjectSource struct {
	Store qart.Store
}

func (s ObjectSource) Read(ctx context.Context, ref Ref) ([]byte, error) {
	bucket, key, ok := strings.Cut(ref.Location, "/")
	if !ok {
		bucket, key = "", ref.Location
	}
	if key == "" {
		return nil, qerr.Newf(qerr.CodeInvalidArgument, "config reference %s has no object key", ref)
	}

	rc, _, err := s.Store.Open(ctx, bucket, key)
	if err != nil {
		if errors.Is(err, qart.ErrNotFound) || errors.Is(err, qart.ErrBucketMissing) {
			return nil, fmt.Errorf("%w: %v", ErrSourceNotFound, err)
		}
		return nil, err
	}
	defer rc.Close()

	return io.ReadAll(rc)
}

// KVSource reads documents stored under kv.ConfigKey(location).
type KVSource struct {
	Store kv.Store
}

func (s KVSource) Read(ctx context.Context, ref Ref) ([]byte, error) {
	data, err := s.Store.Get(ctx, kv.ConfigKey(ref.Location))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, ref.Location)
		}
		return nil, err
	}
	return data, nil
}
