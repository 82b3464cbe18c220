package activity

import (
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// MapDBEventStorage keeps events in memory. It is used when persistence is disabled and in tests.
type MapDBEventStorage struct {
	lock  sync.RWMutex
	store map[string][]byte
}

func NewMapDBEventStorage() EventStorage {
	return &MapDBEventStorage{
		store: make(map[string][]byte),
	}
}

func (es *MapDBEventStorage) Add(key string, event []byte) error {
	value := make([]byte, len(event))
	copy(value, event)

	es.lock.Lock()
	defer es.lock.Unlock()

	es.store[key] = value
	return nil
}

func (es *MapDBEventStorage) Each(handler func(string, []byte) error) error {
	es.lock.RLock()
	keys := maps.Keys(es.store)
	values := make(map[string][]byte, len(keys))
	for _, k := range keys {
		value := make([]byte, len(es.store[k]))
		copy(value, es.store[k])
		values[k] = value
	}
	es.lock.RUnlock()

	slices.Sort(keys)
	for _, k := range keys {
		if err := handler(k, values[k]); err != nil {
			return err
		}
	}
	return nil
}

func (es *MapDBEventStorage) Close() error {
	return nil
}
