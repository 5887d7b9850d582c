package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

// LocalStorage implements ObjectStorage on a directory of the local
// filesystem. It serves single-machine deployments and tests.
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates object storage rooted at basePath, creating the
// directory if needed.
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, errUploadFailed(basePath, err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

func (l *LocalStorage) fullPath(objectPath string) string {
	return filepath.Join(l.basePath, filepath.FromSlash(objectPath))
}

// Upload copies a local file under the storage root.
func (l *LocalStorage) Upload(ctx context.Context, localPath, objectPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dest := l.fullPath(objectPath)
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return errUploadFailed(objectPath, err)
	}

	src, err := os.Open(localPath)
	if err != nil {
		return errUploadFailed(objectPath, err)
	}
	defer src.Close()

	dst, err := os.Create(dest)
	if err != nil {
		return errUploadFailed(objectPath, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return errUploadFailed(objectPath, err)
	}
	return nil
}

// Download copies an object out of the storage root.
func (l *LocalStorage) Download(ctx context.Context, objectPath, localPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	src, err := os.Open(l.fullPath(objectPath))
	if err != nil {
		if os.IsNotExist(err) {
			return errObjectNotFound(objectPath, err)
		}
		return errDownloadFailed(objectPath, err)
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return errDownloadFailed(objectPath, err)
	}

	dst, err := os.Create(localPath)
	if err != nil {
		return errDownloadFailed(objectPath, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return errDownloadFailed(objectPath, err)
	}
	return nil
}

// Delete removes an object. Removing an absent object succeeds.
func (l *LocalStorage) Delete(ctx context.Context, objectPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(l.fullPath(objectPath)); err != nil && !os.IsNotExist(err) {
		return errDownloadFailed(objectPath, err)
	}
	return nil
}

// Exists reports whether an object is present.
func (l *LocalStorage) Exists(ctx context.Context, objectPath string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := os.Stat(l.fullPath(objectPath))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ListObjects returns every object path under the given prefix, using
// slash-separated object notation regardless of platform.
func (l *LocalStorage) ListObjects(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var objects []string
	err := filepath.Walk(l.fullPath(prefix), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !info.IsDir() {
			rel, err := filepath.Rel(l.basePath, path)
			if err != nil {
				return err
			}
			objects = append(objects, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return objects, nil
}
