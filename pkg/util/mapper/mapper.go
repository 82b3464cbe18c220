package mapper

import (
	"strconv"
	"strings"
)

// Getter retrieves string values by key.
type Getter interface {
	Get(key string) string
	Has(key string) bool
}

// PrimitiveMapReader reads typed values from a Getter. Every getter falls back to the default value
// when the key is absent or its value fails to parse.
type PrimitiveMapReader interface {
	Has(key string) bool
	Get(key string, defaultValue string) string
	GetInt(key string, defaultValue int) int
	GetFloat64(key string, defaultValue float64) float64
	GetBool(key string, defaultValue bool) bool

	// GetList returns the value split by delimiter with each entry trimmed of space. Empty entries
	// are dropped. If the value doesn't exist, nil is returned.
	GetList(key string, delimiter string) []string
}

// GoMap is a Getter over a map[string]string.
type GoMap map[string]string

func (gm GoMap) Has(key string) bool {
	_, ok := gm[key]
	return ok
}

func (gm GoMap) Get(key string) string {
	return gm[key]
}

// NewGoMap creates a Getter from a copy of m.
func NewGoMap(m map[string]string) GoMap {
	copied := make(GoMap, len(m))
	for k, v := range m {
		copied[k] = v
	}
	return copied
}

type reader struct {
	getter Getter
}

// NewMapper wraps a Getter with typed, defaulting accessors.
func NewMapper(getter Getter) PrimitiveMapReader {
	return &reader{getter}
}

func (r *reader) raw(key string) string {
	return strings.TrimSpace(r.getter.Get(key))
}

func (r *reader) Has(key string) bool {
	return r.getter.Has(key)
}

func (r *reader) Get(key string, defaultValue string) string {
	if v := r.getter.Get(key); v != "" {
		return v
	}
	return defaultValue
}

func (r *reader) GetInt(key string, defaultValue int) int {
	v := r.raw(key)
	if i, err := strconv.Atoi(v); err == nil {
		return i
	}

	// accept integral floats such as "1024.0", which JSON and YAML decoders produce
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f != float64(int(f)) {
		return defaultValue
	}
	return int(f)
}

func (r *reader) GetFloat64(key string, defaultValue float64) float64 {
	f, err := strconv.ParseFloat(r.raw(key), 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func (r *reader) GetBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(r.raw(key))
	if err != nil {
		return defaultValue
	}
	return b
}

func (r *reader) GetList(key string, delimiter string) []string {
	value := r.getter.Get(key)
	if value == "" {
		return nil
	}

	var list []string
	for _, v := range strings.Split(value, delimiter) {
		if v = strings.TrimSpace(v); v != "" {
			list = append(list, v)
		}
	}
	return list
}
