// Package storage adapts S3-compatible object storage into the DocumentStore
// the verification workflow hands file bytes to. The core keeps only the
// object key (file reference) and never reads file contents back.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrObjectNotFound is returned by Stat for unknown keys.
var ErrObjectNotFound = errors.New("object not found")

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1 and the implementation
// will buffer/chunk as supported by the backend.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
}

// DocumentStore holds uploaded document bytes.
type DocumentStore interface {
	// Put streams r to key.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Stat returns ErrObjectNotFound when key does not exist.
	Stat(ctx context.Context, key string) (ObjectInfo, error)
	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error
	// PresignGet returns a time-limited URL that can be used to download the object without credentials.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// DocumentKey builds documents/<owner>/<uuid><ext> for an upload. The
// original filename only contributes its lowercased extension.
func DocumentKey(ownerID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	return path.Join("documents", ownerID, uuid.NewString()+ext)
}
