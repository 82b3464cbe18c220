package storage

import (
	"strings"

	"github.com/pkg/errors"
)

// PrefixedBucketStorage scopes every path of a wrapped Storage under a fixed prefix.
type PrefixedBucketStorage struct {
	storage Storage
	prefix  string
}

func NewPrefixedBucketStorage(storage Storage, prefix string) (Storage, error) {
	if strings.ReplaceAll(prefix, DirDelim, "") == "" {
		return storage, errors.Errorf("failed to create prefixed storage: invalid prefix '%s'", prefix)
	}

	return &PrefixedBucketStorage{
		storage: storage,
		prefix:  strings.Trim(prefix, DirDelim),
	}, nil
}

func (pbs *PrefixedBucketStorage) withPrefix(name string) string {
	if name == "" {
		return pbs.prefix
	}
	return pbs.prefix + DirDelim + trimLeading(name)
}

func (pbs *PrefixedBucketStorage) StorageType() StorageType {
	return pbs.storage.StorageType()
}

func (pbs *PrefixedBucketStorage) FullPath(name string) string {
	return pbs.storage.FullPath(pbs.withPrefix(name))
}

func (pbs *PrefixedBucketStorage) Exists(name string) (bool, error) {
	return pbs.storage.Exists(pbs.withPrefix(name))
}

func (pbs *PrefixedBucketStorage) List(path string) ([]*StorageInfo, error) {
	return pbs.storage.List(pbs.withPrefix(path))
}

func (pbs *PrefixedBucketStorage) Read(name string) ([]byte, error) {
	return pbs.storage.Read(pbs.withPrefix(name))
}

func (pbs *PrefixedBucketStorage) Remove(name string) error {
	return pbs.storage.Remove(pbs.withPrefix(name))
}

func (pbs *PrefixedBucketStorage) Stat(name string) (*StorageInfo, error) {
	return pbs.storage.Stat(pbs.withPrefix(name))
}

func (pbs *PrefixedBucketStorage) Write(name string, data []byte) error {
	return pbs.storage.Write(pbs.withPrefix(name), data)
}
