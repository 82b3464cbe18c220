package storage

import (
	"sort"
	"strings"
	"sync"
	"time"
)

type memoryFile struct {
	data    []byte
	modTime time.Time
}

// MemoryStorage is an in-process Storage used when persistence is disabled and in tests.
type MemoryStorage struct {
	lock  sync.RWMutex
	files map[string]*memoryFile
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{files: make(map[string]*memoryFile)}
}

func (ms *MemoryStorage) StorageType() StorageType {
	return StorageTypeMemory
}

func (ms *MemoryStorage) FullPath(path string) string {
	return trimLeading(path)
}

func (ms *MemoryStorage) Stat(path string) (*StorageInfo, error) {
	ms.lock.RLock()
	defer ms.lock.RUnlock()

	f, ok := ms.files[trimLeading(path)]
	if !ok {
		return nil, DoesNotExistError
	}
	return &StorageInfo{Name: trimName(path), Size: int64(len(f.data)), ModTime: f.modTime}, nil
}

func (ms *MemoryStorage) Read(path string) ([]byte, error) {
	ms.lock.RLock()
	defer ms.lock.RUnlock()

	f, ok := ms.files[trimLeading(path)]
	if !ok {
		return nil, DoesNotExistError
	}
	out := make([]byte, len(f.data))
	copy(out, f.data)
	return out, nil
}

func (ms *MemoryStorage) Write(path string, data []byte) error {
	stored := make([]byte, len(data))
	copy(stored, data)

	ms.lock.Lock()
	ms.files[trimLeading(path)] = &memoryFile{data: stored, modTime: time.Now()}
	ms.lock.Unlock()
	return nil
}

func (ms *MemoryStorage) Remove(path string) error {
	ms.lock.Lock()
	defer ms.lock.Unlock()

	key := trimLeading(path)
	if _, ok := ms.files[key]; !ok {
		return DoesNotExistError
	}
	delete(ms.files, key)
	return nil
}

func (ms *MemoryStorage) Exists(path string) (bool, error) {
	ms.lock.RLock()
	defer ms.lock.RUnlock()

	_, ok := ms.files[trimLeading(path)]
	return ok, nil
}

func (ms *MemoryStorage) List(path string) ([]*StorageInfo, error) {
	prefix := trimLeading(path)
	if prefix != "" {
		prefix = strings.TrimSuffix(prefix, DirDelim) + DirDelim
	}

	ms.lock.RLock()
	defer ms.lock.RUnlock()

	stats := []*StorageInfo{}
	for name, f := range ms.files {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		rest := strings.TrimPrefix(name, prefix)
		if rest == "" || strings.Contains(rest, DirDelim) {
			continue
		}
		stats = append(stats, &StorageInfo{Name: rest, Size: int64(len(f.data)), ModTime: f.modTime})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Name < stats[j].Name })
	return stats, nil
}
