package storage

import (
	"strings"

	"github.com/opencost/gputco/pkg/util/json"
)

// StorageType identifies a Storage backend as "backend" or "backend|provider".
type StorageType string

const (
	StorageTypeFile     StorageType = "file"
	StorageTypeMemory   StorageType = "memory"
	StorageTypeBucketS3 StorageType = "bucket|s3"
)

// BackendType is the part before the "|".
func (st StorageType) BackendType() string {
	backend, _, _ := strings.Cut(string(st), "|")
	return backend
}

// ProviderType is the part after the "|", empty for backends without providers.
func (st StorageType) ProviderType() string {
	_, provider, _ := strings.Cut(string(st), "|")
	return provider
}

// MarshalJSON renders the type as {"backendType": ..., "providerType": ...} so health and status
// payloads do not leak the internal separator.
func (st StorageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Backend  string `json:"backendType"`
		Provider string `json:"providerType,omitempty"`
	}{st.BackendType(), st.ProviderType()})
}
