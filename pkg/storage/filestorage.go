package storage

import (
	"fmt"
	gofs "io/fs"
	"os"
	gopath "path"
	"path/filepath"

	"github.com/opencost/gputco/pkg/util/fileutil"
)

// FileStorage leverages the file system to write data to disk.
type FileStorage struct {
	baseDir string
}

// NewFileStorage returns a new storage API which leverages the file system.
func NewFileStorage(baseDir string) *FileStorage {
	return &FileStorage{baseDir}
}

// StorageType returns StorageTypeFile.
func (fs *FileStorage) StorageType() StorageType {
	return StorageTypeFile
}

// FullPath returns the storage working path combined with the path provided
func (fs *FileStorage) FullPath(path string) string {
	return gopath.Join(fs.baseDir, path)
}

// Stat returns the StorageInfo for the specific path.
func (fs *FileStorage) Stat(path string) (*StorageInfo, error) {
	st, err := os.Stat(fs.FullPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, DoesNotExistError
		}

		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	return FileToStorageInfo(st), nil
}

func (fs *FileStorage) Read(path string) ([]byte, error) {
	b, err := os.ReadFile(fs.FullPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, DoesNotExistError
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return b, nil
}

// Write creates the parent directory if needed before writing.
func (fs *FileStorage) Write(path string, data []byte) error {
	f := fs.FullPath(path)
	if err := fileutil.EnsureDir(f); err != nil {
		return fmt.Errorf("failed to prepare path: %w", err)
	}

	// write to a temp file and rename so readers never see a partial document
	tmp := f + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp, f); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

func (fs *FileStorage) Remove(path string) error {
	err := os.Remove(fs.FullPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return DoesNotExistError
		}

		return fmt.Errorf("failed to remove file: %w", err)
	}

	return nil
}

func (fs *FileStorage) Exists(path string) (bool, error) {
	return fileutil.FileExists(fs.FullPath(path))
}

// List returns the regular files directly under path. A missing directory lists as empty.
func (fs *FileStorage) List(path string) ([]*StorageInfo, error) {
	entries, err := os.ReadDir(filepath.FromSlash(fs.FullPath(path)))
	if err != nil {
		if os.IsNotExist(err) {
			return []*StorageInfo{}, nil
		}
		return nil, fmt.Errorf("failed to list directory: %w", err)
	}

	stats := make([]*StorageInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat directory entry: %w", err)
		}
		stats = append(stats, FileToStorageInfo(info))
	}

	return stats, nil
}

// FileToStorageInfo maps a fs.FileInfo to *storage.StorageInfo
func FileToStorageInfo(fileInfo gofs.FileInfo) *StorageInfo {
	return &StorageInfo{
		Name:    fileInfo.Name(),
		Size:    fileInfo.Size(),
		ModTime: fileInfo.ModTime(),
	}
}
