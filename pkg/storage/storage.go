package storage

import (
	"context"
	"errors"
	"path"
	"strings"
)

// ErrNotFound is returned when a requested path does not exist in storage.
var ErrNotFound = errors.New("not found")

// Storage is a flat object store addressed by slash separated keys. Keys
// are relative to the backend root; a leading slash or ".." segments never
// reach outside of it.
//
// List returns the objects directly under prefix, sorted, as full keys.
type Storage interface {
	Read(ctx context.Context, path string) ([]byte, error)
	Write(ctx context.Context, path string, data []byte) error
	Delete(ctx context.Context, path string) error
	List(ctx context.Context, prefix string) ([]string, error)
	Exists(ctx context.Context, path string) (bool, error)
}

// cleanKey normalizes a key to its canonical relative form. The root is "".
func cleanKey(p string) string {
	return strings.TrimPrefix(path.Clean("/"+p), "/")
}
