package config

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/opencost/gputco/pkg/log"
	"github.com/opencost/gputco/pkg/storage"
)

// HandlerID is a unique identifier assigned to a provided ConfigChangedHandler. This is used to remove a handler
// from the ConfigFile when it is no longer needed.
type HandlerID string

//--------------------------------------------------------------------------
//  ChangeType
//--------------------------------------------------------------------------

// ChangeType is used to specifically categorize the change that was made on a ConfigFile
type ChangeType string

// ChangeType constants contain the different types of updates passed through the ConfigChangedHandler
const (
	ChangeTypeCreated  ChangeType = "created"
	ChangeTypeModified ChangeType = "modified"
	ChangeTypeDeleted  ChangeType = "deleted"
)

//--------------------------------------------------------------------------
//  ConfigChangedHandler
//--------------------------------------------------------------------------

// ConfigChangedHandler is the func handler used to receive change updates about the
// config file. Both ChangeTypeCreated and ChangeTypeModified yield a valid []byte, while
// ChangeTypeDeleted yields a nil []byte.
type ConfigChangedHandler func(ChangeType, []byte)

//--------------------------------------------------------------------------
//  ConfigFile
//--------------------------------------------------------------------------

// DefaultHandlerPriority is used as the priority for any handlers added via AddChangeHandler
const DefaultHandlerPriority int = 1000

// NoBackingStore error is used when the config file's backing storage is missing
var NoBackingStore error = errors.New("backing storage does not exist")

// ConfigFile is a configuration file on a storage.Storage that can be written to, read, and watched
// for updates. Writes and deletes made through the ConfigFile notify handlers immediately; changes
// made by other processes are picked up by Watch.
type ConfigFile struct {
	store     storage.Storage
	file      string
	dataLock  sync.Mutex
	data      []byte
	watchLock sync.Mutex
	watchers  []*pHandler
}

// NewConfigFile creates a new ConfigFile instance using a specific storage.Storage and path relative
// to the storage.
func NewConfigFile(store storage.Storage, file string) *ConfigFile {
	return &ConfigFile{
		store: store,
		file:  file,
	}
}

// Path returns the fully qualified path of the config file.
func (cf *ConfigFile) Path() string {
	if cf.store == nil {
		return cf.file
	}

	return cf.store.FullPath(cf.file)
}

// Write will write the binary data to the file.
func (cf *ConfigFile) Write(data []byte) error {
	if cf.store == nil {
		return NoBackingStore
	}

	existed, _ := cf.store.Exists(cf.file)

	if err := cf.store.Write(cf.file, data); err != nil {
		return err
	}

	cf.dataLock.Lock()
	cf.data = data
	cf.dataLock.Unlock()

	if existed {
		cf.onFileChange(ChangeTypeModified, data)
	} else {
		cf.onFileChange(ChangeTypeCreated, data)
	}
	return nil
}

// Read will read the binary data from the file and return it. If an error is returned,
// the byte array will be nil.
func (cf *ConfigFile) Read() ([]byte, error) {
	return cf.internalRead(false)
}

// internalRead is used to allow a forced override of data cache to refresh data
func (cf *ConfigFile) internalRead(force bool) ([]byte, error) {
	if cf.store == nil {
		return nil, NoBackingStore
	}

	cf.dataLock.Lock()
	defer cf.dataLock.Unlock()
	if !force && cf.data != nil {
		return cf.data, nil
	}

	d, err := cf.store.Read(cf.file)
	if err != nil {
		return nil, err
	}
	cf.data = d
	return cf.data, nil
}

// Stat returns the StorageStats for the file.
func (cf *ConfigFile) Stat() (*storage.StorageInfo, error) {
	if cf.store == nil {
		return nil, NoBackingStore
	}

	return cf.store.Stat(cf.file)
}

// Exists returns true if the file exist. If an error other than a NotExist error is returned,
// the result will be false with the provided error.
func (cf *ConfigFile) Exists() (bool, error) {
	if cf.store == nil {
		return false, NoBackingStore
	}

	return cf.store.Exists(cf.file)
}

// Delete removes the file from storage permanently.
func (cf *ConfigFile) Delete() error {
	if cf.store == nil {
		return NoBackingStore
	}

	if err := cf.store.Remove(cf.file); err != nil {
		return err
	}

	cf.dataLock.Lock()
	cf.data = nil
	cf.dataLock.Unlock()

	cf.onFileChange(ChangeTypeDeleted, nil)
	return nil
}

// Refresh forces a reload of the config file from storage.
func (cf *ConfigFile) Refresh() ([]byte, error) {
	return cf.internalRead(true)
}

// AddChangeHandler accepts a ConfigChangedHandler function which will be called whenever the implementation
// detects that a change has been made. A unique HandlerID is returned that can be used to remove the handler
// if necessary.
func (cf *ConfigFile) AddChangeHandler(handler ConfigChangedHandler) HandlerID {
	return cf.AddPriorityChangeHandler(handler, DefaultHandlerPriority)
}

// AddPriorityChangeHandler adds a handler with a specific priority. The lower the priority, the
// sooner in the handler execution it will be called.
func (cf *ConfigFile) AddPriorityChangeHandler(handler ConfigChangedHandler, priority int) HandlerID {
	cf.watchLock.Lock()
	defer cf.watchLock.Unlock()

	h := &pHandler{
		id:       HandlerID(uuid.NewString()),
		handler:  handler,
		priority: priority,
	}

	cf.watchers = append(cf.watchers, h)
	return h.id
}

// RemoveChangeHandler removes the change handler with the provided identifier if it exists. True
// is returned if the handler was removed (it existed), false otherwise.
func (cf *ConfigFile) RemoveChangeHandler(id HandlerID) bool {
	cf.watchLock.Lock()
	defer cf.watchLock.Unlock()

	for i := range cf.watchers {
		if cf.watchers[i] != nil && cf.watchers[i].id == id {
			copy(cf.watchers[i:], cf.watchers[i+1:])
			cf.watchers[len(cf.watchers)-1] = nil
			cf.watchers = cf.watchers[:len(cf.watchers)-1]
			return true
		}
	}
	return false
}

// Watch polls the stat of the storage target every interval until ctx is done, dispatching
// created, modified, and deleted events for changes made outside of this ConfigFile.
func (cf *ConfigFile) Watch(ctx context.Context, interval time.Duration) {
	var last time.Time
	exists := false

	if st, err := cf.Stat(); err == nil {
		exists = true
		last = st.ModTime
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		st, err := cf.Stat()
		if err != nil && !storage.IsNotExist(err) {
			log.DedupedErrorf(5, "Storage Stat Error for %s: %s", cf.Path(), err)
			continue
		}

		if storage.IsNotExist(err) {
			if exists {
				exists = false
				cf.dataLock.Lock()
				cf.data = nil
				cf.dataLock.Unlock()
				cf.onFileChange(ChangeTypeDeleted, nil)
			}
			continue
		}

		if exists && st.ModTime.Equal(last) {
			continue
		}

		changeType := ChangeTypeModified
		if !exists {
			changeType = ChangeTypeCreated
		}

		cached, _ := cf.internalRead(false)
		data, err := cf.internalRead(true)
		if err != nil {
			log.Warnf("Read() Error for %s: %s", cf.Path(), err)
			continue
		}

		exists = true
		last = st.ModTime

		// our own writes already notified handlers
		if changeType == ChangeTypeModified && bytes.Equal(cached, data) {
			continue
		}
		cf.onFileChange(changeType, data)
	}
}

// onFileChange dispatches a change to all handlers in priority order. Handlers are copied out
// so they can safely call back into the ConfigFile.
func (cf *ConfigFile) onFileChange(changeType ChangeType, newData []byte) {
	cf.watchLock.Lock()
	if len(cf.watchers) == 0 {
		cf.watchLock.Unlock()
		return
	}

	toNotify := make([]*pHandler, len(cf.watchers))
	copy(toNotify, cf.watchers)
	cf.watchLock.Unlock()

	sort.SliceStable(toNotify, func(i, j int) bool {
		return toNotify[i].priority < toNotify[j].priority
	})

	for _, handler := range toNotify {
		handler.handler(changeType, newData)
	}
}

//--------------------------------------------------------------------------
//  pHandler
//--------------------------------------------------------------------------

// pHandler is a wrapper type used to assign a ConfigChangedHandler a unique identifier and priority.
type pHandler struct {
	id       HandlerID
	handler  ConfigChangedHandler
	priority int
}
