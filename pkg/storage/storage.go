package storage

import (
	"bytes"
	"errors"
	"os"
	"time"

	pkgerrors "github.com/pkg/errors"
)

// DirDelim separates directories in storage paths, including bucket keys.
const DirDelim = "/"

// DoesNotExistError is returned when a target path does not exist in storage. It is
// os.ErrNotExist so that os.IsNotExist(err) and errors.Is both work.
var DoesNotExistError = os.ErrNotExist

// StorageInfo describes a stored file.
type StorageInfo struct {
	Name    string    // base name of the file
	Size    int64     // length in bytes for regular files
	ModTime time.Time // modification time
}

// Storage provides an API for storing binary data. Paths are relative to the storage root.
type Storage interface {
	// StorageType returns a string identifier for the type of storage used by the implementation.
	StorageType() StorageType

	// FullPath returns the storage working path combined with the path provided
	FullPath(path string) string

	// Stat returns the StorageInfo for the specific path.
	Stat(path string) (*StorageInfo, error)

	// Read returns the contents stored at path, or DoesNotExistError.
	Read(path string) ([]byte, error)

	// Write creates or overwrites the file at path.
	Write(path string, data []byte) error

	// Remove permanently deletes the file at path.
	Remove(path string) error

	// Exists returns true if a file exists at path.
	Exists(path string) (bool, error)

	// List returns storage information for the files directly under path.
	List(path string) ([]*StorageInfo, error)
}

// Validate round-trips a probe object through storage: write, read back, compare and remove.
// It is used to reject a misconfigured bucket before anything depends on it.
func Validate(storage Storage) error {
	const probe = "tmp/validate.txt"
	content := []byte("gputco")

	steps := []struct {
		what string
		run  func() error
	}{
		{"checking probe path", func() error { _, err := storage.Exists(probe); return err }},
		{"writing probe", func() error { return storage.Write(probe, content) }},
		{"reading probe", func() error {
			data, err := storage.Read(probe)
			if err == nil && !bytes.Equal(data, content) {
				err = pkgerrors.Errorf("read %d bytes that do not match what was written", len(data))
			}
			return err
		}},
		{"removing probe", func() error { return storage.Remove(probe) }},
	}

	for _, step := range steps {
		if err := step.run(); err != nil {
			return pkgerrors.Wrapf(err, "validating %s storage: %s", storage.StorageType(), step.what)
		}
	}
	return nil
}

// IsNotExist reports whether err, possibly wrapped, means the path is missing.
func IsNotExist(err error) bool {
	return err != nil && errors.Is(pkgerrors.Cause(err), DoesNotExistError)
}
