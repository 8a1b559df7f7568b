// Package storage keeps activity log snapshots as files.
package storage

import (
	"context"
	"time"
)

// FileMetadata represents metadata about a stored file
type FileMetadata struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size"`
	LastModified time.Time         `json:"last_modified"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// StoreOptions provides options for storing files
type StoreOptions struct {
	Metadata  map[string]string `json:"metadata,omitempty"`
	Overwrite bool              `json:"overwrite,omitempty"`
}

// FileStorage stores snapshot files by key. Keys are slash-separated
// relative paths.
type FileStorage interface {
	// Store saves data under key. Without Overwrite an existing key is an error.
	Store(ctx context.Context, key string, data []byte, opts *StoreOptions) error

	// Retrieve gets a file by its storage key
	Retrieve(ctx context.Context, key string) ([]byte, error)

	// Exists checks if a file exists at the given key
	Exists(ctx context.Context, key string) (bool, error)

	// List returns the files whose key starts with prefix, sorted by key
	List(ctx context.Context, prefix string) ([]FileMetadata, error)

	Close() error
}
