package fileutil

import (
	"os"
	"path/filepath"
)

// FileExists has three different return cases that should be handled:
//  1. File exists and is not a directory (true, nil)
//  2. File does not exist (false, nil)
//  3. Stat failed for another reason, such as permissions (false, error)
func FileExists(filename string) (bool, error) {
	info, err := os.Stat(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}

		return false, err
	}

	return !info.IsDir(), nil
}

// EnsureDir creates the parent directory of path if it does not exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, os.ModePerm)
}
