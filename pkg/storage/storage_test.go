package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencost/gputco/pkg/util/json"
)

func storages(t *testing.T) map[string]Storage {
	prefixed, err := NewPrefixedBucketStorage(NewMemoryStorage(), "/tenants/a/")
	require.NoError(t, err)

	return map[string]Storage{
		"file":     NewFileStorage(t.TempDir()),
		"memory":   NewMemoryStorage(),
		"prefixed": prefixed,
	}
}

func TestStorageRoundTrip(t *testing.T) {
	for name, store := range storages(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, Validate(store))

			exists, err := store.Exists("overrides.json")
			require.NoError(t, err)
			assert.False(t, exists)

			_, err = store.Read("overrides.json")
			assert.True(t, IsNotExist(err))

			require.NoError(t, store.Write("overrides.json", []byte(`{"pue":1.2}`)))
			require.NoError(t, store.Write("docs/a.json", []byte(`{}`)))
			require.NoError(t, store.Write("docs/b.json", []byte(`{}`)))

			data, err := store.Read("overrides.json")
			require.NoError(t, err)
			assert.Equal(t, `{"pue":1.2}`, string(data))

			info, err := store.Stat("overrides.json")
			require.NoError(t, err)
			assert.Equal(t, "overrides.json", info.Name)
			assert.Equal(t, int64(11), info.Size)

			list, err := store.List("docs")
			require.NoError(t, err)
			names := []string{}
			for _, f := range list {
				names = append(names, f.Name)
			}
			assert.ElementsMatch(t, []string{"a.json", "b.json"}, names)

			require.NoError(t, store.Remove("overrides.json"))
			assert.True(t, IsNotExist(store.Remove("overrides.json")))
		})
	}
}

func TestFileStorageFullPath(t *testing.T) {
	dir := t.TempDir()
	fs := NewFileStorage(dir)
	assert.Equal(t, filepath.ToSlash(filepath.Join(dir, "a", "b.json")), fs.FullPath("a/b.json"))
	assert.Equal(t, StorageTypeFile, fs.StorageType())
}

func TestPrefixedBucketStorage(t *testing.T) {
	mem := NewMemoryStorage()
	prefixed, err := NewPrefixedBucketStorage(mem, "gputco")
	require.NoError(t, err)

	require.NoError(t, prefixed.Write("overrides.json", []byte("{}")))

	exists, err := mem.Exists("gputco/overrides.json")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = NewPrefixedBucketStorage(mem, "///")
	assert.Error(t, err)
}

func TestNewBucketStorage(t *testing.T) {
	_, err := NewBucketStorage([]byte("type: GCS\nconfig: {}\n"))
	assert.Error(t, err)

	_, err = NewBucketStorage([]byte("type: S3\nconfig:\n  bucket: overrides\n"))
	assert.Error(t, err, "missing endpoint must be rejected")

	s, err := NewBucketStorage([]byte(`
type: S3
prefix: gputco
config:
  bucket: overrides
  endpoint: s3.us-east-1.amazonaws.com
  access_key: key
  secret_key: secret
`))
	require.NoError(t, err)
	assert.Equal(t, StorageTypeBucketS3, s.StorageType())
	assert.Equal(t, "gputco/overrides.json", s.FullPath("overrides.json"))
}

func TestStorageType(t *testing.T) {
	assert.Equal(t, "bucket", StorageTypeBucketS3.BackendType())
	assert.Equal(t, "s3", StorageTypeBucketS3.ProviderType())
	assert.Equal(t, "file", StorageTypeFile.BackendType())
	assert.Equal(t, "", StorageTypeFile.ProviderType())

	data, err := json.Marshal(StorageTypeBucketS3)
	require.NoError(t, err)
	assert.JSONEq(t, `{"backendType":"bucket","providerType":"s3"}`, string(data))

	data, err = json.Marshal(StorageTypeMemory)
	require.NoError(t, err)
	assert.JSONEq(t, `{"backendType":"memory"}`, string(data))
}
