package storage

import (
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// BucketConfig selects and configures a bucket backend:
//
//	type: S3
//	prefix: gputco
//	config: {...}
//
// Config is decoded by the provider named in Type.
type BucketConfig struct {
	Type   string      `yaml:"type"`
	Prefix string      `yaml:"prefix"`
	Config interface{} `yaml:"config"`
}

// bucketProviders maps an upper-cased provider type to its constructor.
var bucketProviders = map[string]func(conf []byte) (Storage, error){
	"S3": func(conf []byte) (Storage, error) { return NewS3Storage(conf) },
}

// NewBucketStorage builds the bucket Storage described by a YAML BucketConfig. A non-empty prefix
// scopes every path under it.
func NewBucketStorage(raw []byte) (Storage, error) {
	var bc BucketConfig
	if err := yaml.UnmarshalStrict(raw, &bc); err != nil {
		return nil, errors.Wrap(err, "parsing bucket config")
	}

	newProvider, ok := bucketProviders[strings.ToUpper(bc.Type)]
	if !ok {
		return nil, errors.Errorf("unsupported bucket type %q", bc.Type)
	}

	providerConf, err := yaml.Marshal(bc.Config)
	if err != nil {
		return nil, errors.Wrapf(err, "encoding %s config", bc.Type)
	}

	store, err := newProvider(providerConf)
	if err != nil {
		return nil, errors.Wrapf(err, "creating %s bucket", bc.Type)
	}

	if bc.Prefix == "" {
		return store, nil
	}
	return NewPrefixedBucketStorage(store, bc.Prefix)
}

func trimLeading(name string) string {
	return strings.TrimPrefix(name, DirDelim)
}

// trimName returns the last path element.
func trimName(name string) string {
	if i := strings.LastIndex(name, DirDelim); i >= 0 {
		return name[i+1:]
	}
	return name
}
