package persistent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/xueshanchen/picbed/pkg/types/errs"
)

// LocalBlobStore maps keys to files under a single root directory. It
// is the development backend selected when no S3 credentials are
// configured; URLs are relative paths served by the images controller.
type LocalBlobStore struct {
	root string
}

func NewLocalBlobStore(root string) (*LocalBlobStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("LocalBlobStore - New - os.MkdirAll: %w", err)
	}

	return &LocalBlobStore{root: root}, nil
}

func (r *LocalBlobStore) Put(_ context.Context, key string, data io.Reader, _ string, _ int64) error {
	path := filepath.Join(r.root, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("LocalBlobStore - Put - os.MkdirAll: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("LocalBlobStore - Put - os.Create: %w", err)
	}

	_, err = io.Copy(f, data)
	if err != nil {
		f.Close()

		return fmt.Errorf("LocalBlobStore - Put - io.Copy: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("LocalBlobStore - Put - f.Close: %w", err)
	}

	return nil
}

func (r *LocalBlobStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(r.root, filepath.FromSlash(key)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("LocalBlobStore - Get: %w", errs.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("LocalBlobStore - Get - os.Open: %w", err)
	}

	return f, nil
}

func (r *LocalBlobStore) Delete(_ context.Context, key string) (bool, error) {
	err := os.Remove(filepath.Join(r.root, filepath.FromSlash(key)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("LocalBlobStore - Delete - os.Remove: %w", err)
	}

	return true, nil
}

// URL returns the relative path the web layer serves files from.
func (r *LocalBlobStore) URL(_ context.Context, key string) (string, error) {
	return "/api/images/file/" + key, nil
}
