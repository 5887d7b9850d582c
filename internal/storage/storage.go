// Package storage moves completed sweep output trees between the local
// filesystem and object storage, so a sweep run on one machine can be
// indexed and read back on another.
package storage

import (
	"context"

	"github.com/simherd/simherd/internal/errors"
)

// ObjectStorage abstracts the object store holding archived sweeps.
// Implementations include S3 and the local filesystem.
type ObjectStorage interface {
	// Upload copies a local file to objectPath in the store.
	Upload(ctx context.Context, localPath, objectPath string) error

	// Download copies the object at objectPath to localPath. Fails with an
	// OBJECT_NOT_FOUND condition when the object does not exist.
	Download(ctx context.Context, objectPath, localPath string) error

	// Delete removes an object. Deleting an absent object is not an error.
	Delete(ctx context.Context, objectPath string) error

	// Exists reports whether an object is present.
	Exists(ctx context.Context, objectPath string) (bool, error)

	// ListObjects returns every object path under the given prefix.
	ListObjects(ctx context.Context, prefix string) ([]string, error)
}

func errObjectNotFound(path string, cause error) error {
	return errors.NewStorageError(errors.CodeObjectNotFound, "no object at "+path, cause)
}

func errUploadFailed(path string, cause error) error {
	return errors.NewStorageError(errors.CodeUploadFailed, "failed to upload "+path, cause)
}

func errDownloadFailed(path string, cause error) error {
	return errors.NewStorageError(errors.CodeDownloadFailed, "failed to download "+path, cause)
}
