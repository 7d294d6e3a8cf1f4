// Package archive stores rendered chart figures on cold storage.
package archive

import "context"

// Storage is a flat key/blob store. Paths use forward slashes.
type Storage interface {
	Write(ctx context.Context, path string, data []byte) error
	Read(ctx context.Context, path string) ([]byte, error)
	// List returns every path under prefix, relative to the store root.
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
}
