package storage

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const metadataSuffix = ".meta.json"

// LocalFileStorage implements FileStorage on a directory
type LocalFileStorage struct {
	basePath string
}

// NewLocalFileStorage creates the base directory if needed
func NewLocalFileStorage(basePath string) (*LocalFileStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, NewStorageError("NewLocalFileStorage", "", err)
	}

	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, NewStorageError("NewLocalFileStorage", "", err)
	}

	return &LocalFileStorage{basePath: absPath}, nil
}

// Store implements FileStorage.Store. The file is written to a temporary
// name and renamed so readers never see a partial snapshot.
func (l *LocalFileStorage) Store(ctx context.Context, key string, data []byte, opts *StoreOptions) error {
	if err := l.validateKey(key); err != nil {
		return NewStorageError("Store", key, err)
	}

	filePath := l.getFilePath(key)

	if opts == nil || !opts.Overwrite {
		if _, err := os.Stat(filePath); err == nil {
			return NewStorageError("Store", key, ErrFileAlreadyExists)
		}
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return NewStorageError("Store", key, err)
	}

	tempPath := filePath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return NewStorageError("Store", key, err)
	}
	if err := os.Rename(tempPath, filePath); err != nil {
		os.Remove(tempPath)
		return NewStorageError("Store", key, err)
	}

	if opts != nil && len(opts.Metadata) > 0 {
		if err := l.storeMetadata(key, opts.Metadata); err != nil {
			return NewStorageError("Store", key, err)
		}
	}

	return nil
}

// Retrieve implements FileStorage.Retrieve
func (l *LocalFileStorage) Retrieve(ctx context.Context, key string) ([]byte, error) {
	if err := l.validateKey(key); err != nil {
		return nil, NewStorageError("Retrieve", key, err)
	}

	data, err := os.ReadFile(l.getFilePath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewStorageError("Retrieve", key, ErrFileNotFound)
		}
		return nil, NewStorageError("Retrieve", key, err)
	}

	return data, nil
}

// Exists implements FileStorage.Exists
func (l *LocalFileStorage) Exists(ctx context.Context, key string) (bool, error) {
	if err := l.validateKey(key); err != nil {
		return false, NewStorageError("Exists", key, err)
	}

	if _, err := os.Stat(l.getFilePath(key)); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, NewStorageError("Exists", key, err)
	}

	return true, nil
}

// List implements FileStorage.List
func (l *LocalFileStorage) List(ctx context.Context, prefix string) ([]FileMetadata, error) {
	files := []FileMetadata{}

	err := filepath.WalkDir(l.basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(path, metadataSuffix) || strings.HasSuffix(path, ".tmp") {
			return nil
		}

		relPath, err := filepath.Rel(l.basePath, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(relPath)
		if prefix != "" && !strings.HasPrefix(key, prefix) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		meta := FileMetadata{
			Key:          key,
			Size:         info.Size(),
			LastModified: info.ModTime(),
		}
		if custom, err := l.loadMetadata(key); err == nil {
			meta.Metadata = custom
		}
		files = append(files, meta)
		return nil
	})
	if err != nil {
		return nil, NewStorageError("List", "", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Key < files[j].Key })
	return files, nil
}

// Close implements FileStorage.Close
func (l *LocalFileStorage) Close() error {
	return nil
}

// Helper methods

func (l *LocalFileStorage) validateKey(key string) error {
	if key == "" {
		return ErrInvalidKey
	}

	// Prevent directory traversal
	if strings.Contains(key, "..") || strings.HasPrefix(key, "/") || strings.HasSuffix(key, metadataSuffix) {
		return ErrInvalidKey
	}

	return nil
}

func (l *LocalFileStorage) getFilePath(key string) string {
	return filepath.Join(l.basePath, filepath.FromSlash(key))
}

func (l *LocalFileStorage) getMetadataPath(key string) string {
	return l.getFilePath(key) + metadataSuffix
}

func (l *LocalFileStorage) storeMetadata(key string, metadata map[string]string) error {
	data, err := json.Marshal(metadata)
	if err != nil {
		return err
	}
	return os.WriteFile(l.getMetadataPath(key), data, 0644)
}

func (l *LocalFileStorage) loadMetadata(key string) (map[string]string, error) {
	data, err := os.ReadFile(l.getMetadataPath(key))
	if err != nil {
		return nil, err
	}

	var metadata map[string]string
	if err := json.Unmarshal(data, &metadata); err != nil {
		return nil, err
	}
	return metadata, nil
}
