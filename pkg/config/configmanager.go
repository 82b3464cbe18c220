package config

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/opencost/gputco/pkg/log"
	"github.com/opencost/gputco/pkg/storage"
)

//--------------------------------------------------------------------------
//  ConfigFileManagerOpts
//--------------------------------------------------------------------------

// ConfigFileManagerOpts describes how to configure the ConfigFileManager for
// serving configuration files
type ConfigFileManagerOpts struct {
	// BucketStoreConfig is the path to a YAML bucket storage configuration. When empty,
	// LocalConfigPath is used.
	BucketStoreConfig string

	// LocalConfigPath is the local root for configuration files when no bucket is configured.
	LocalConfigPath string
}

// IsBucketStorageEnabled returns true if bucket storage is enabled.
func (cfmo *ConfigFileManagerOpts) IsBucketStorageEnabled() bool {
	return cfmo.BucketStoreConfig != ""
}

// DefaultConfigFileManagerOpts returns the default configuration options for the
// config file manager
func DefaultConfigFileManagerOpts() *ConfigFileManagerOpts {
	return &ConfigFileManagerOpts{
		LocalConfigPath: "/",
	}
}

//--------------------------------------------------------------------------
//  ConfigFileManager
//--------------------------------------------------------------------------

// ConfigFileManager is a facade for a central API used to create and watch
// config files.
type ConfigFileManager struct {
	lock  sync.Mutex
	store storage.Storage
	files map[string]*ConfigFile
}

// NewConfigFileManager creates a new backing storage and configuration file manager
func NewConfigFileManager(opts *ConfigFileManagerOpts) *ConfigFileManager {
	if opts == nil {
		opts = DefaultConfigFileManagerOpts()
	}

	var configStore storage.Storage
	if opts.IsBucketStorageEnabled() {
		bucketConfig, err := os.ReadFile(opts.BucketStoreConfig)
		if err != nil {
			log.Warnf("Failed to initialize config bucket storage: %s", err)
		} else {
			bucketStore, err := storage.NewBucketStorage(bucketConfig)
			if err != nil {
				log.Warnf("Failed to create config bucket storage: %s", err)
			} else if err := storage.Validate(bucketStore); err != nil {
				log.Warnf("Config bucket storage failed validation, falling back to local storage: %s", err)
			} else {
				configStore = bucketStore
			}
		}
	}

	if configStore == nil {
		log.Debugf("Using local file storage for configuration at %s", opts.LocalConfigPath)
		configStore = storage.NewFileStorage(opts.LocalConfigPath)
	}

	return NewConfigFileManagerWith(configStore)
}

// NewConfigFileManagerWith creates a manager over an existing storage.
func NewConfigFileManagerWith(store storage.Storage) *ConfigFileManager {
	return &ConfigFileManager{
		store: store,
		files: make(map[string]*ConfigFile),
	}
}

// Storage returns the backing storage shared by every managed file.
func (cfm *ConfigFileManager) Storage() storage.Storage {
	return cfm.store
}

// ConfigFileAt returns an existing configuration file for the provided path if it exists. Otherwise,
// a new instance is created and returned. The path does not have to exist yet.
func (cfm *ConfigFileManager) ConfigFileAt(path string) *ConfigFile {
	cfm.lock.Lock()
	defer cfm.lock.Unlock()

	if cf, ok := cfm.files[path]; ok {
		return cf
	}

	cf := NewConfigFile(cfm.store, path)
	cfm.files[path] = cf
	return cf
}

// WatchAll starts a Watch goroutine for every file created so far.
func (cfm *ConfigFileManager) WatchAll(ctx context.Context, interval time.Duration) {
	cfm.lock.Lock()
	defer cfm.lock.Unlock()

	for _, cf := range cfm.files {
		go cf.Watch(ctx, interval)
	}
}
