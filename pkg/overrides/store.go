package overrides

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/microcosm-cc/bluemonday"

	"github.com/opencost/gputco/pkg/config"
	"github.com/opencost/gputco/pkg/log"
	"github.com/opencost/gputco/pkg/storage"
	"github.com/opencost/gputco/pkg/util/json"
)

// Persisted documents, relative to the configuration storage root.
const (
	OverridesFileName    = "overrides.json"
	DistributionFileName = "service-tier-distribution.json"
	ModifiersFileName    = "service-modifiers.json"
)

// Modifiers are the persisted service premium selections.
type Modifiers struct {
	StoragePerformance string   `json:"storagePerformance,omitempty"`
	Compliance         []string `json:"compliance,omitempty"`
	Sustainability     string   `json:"sustainability,omitempty"`
}

// IsEmpty returns true when no modifier has been selected.
func (m Modifiers) IsEmpty() bool {
	return m.StoragePerformance == "" && len(m.Compliance) == 0 && m.Sustainability == ""
}

// KeyFunc maps an override key to its canonical spelling. Unknown keys return false.
type KeyFunc func(key string) (string, bool)

// Store holds the persisted overrides, service tier distribution and service modifiers. Documents
// live in ConfigFiles; the Store keeps a parsed copy that is refreshed from every change event, so
// writes from other replicas picked up by ConfigFileManager.WatchAll are visible here too.
type Store struct {
	overridesFile    *config.ConfigFile
	distributionFile *config.ConfigFile
	modifiersFile    *config.ConfigFile

	canonical   KeyFunc
	sanitizer   *bluemonday.Policy
	storageType storage.StorageType

	lock         sync.RWMutex
	values       map[string]float64
	distribution map[string]float64
	modifiers    Modifiers

	listenerLock sync.Mutex
	listeners    []func()
}

// NewStore loads the three documents from the manager's storage. Missing documents load as
// empty. A nil canonical func accepts every key as given.
func NewStore(cfm *config.ConfigFileManager, canonical KeyFunc) (*Store, error) {
	if canonical == nil {
		canonical = func(key string) (string, bool) { return key, true }
	}

	s := &Store{
		overridesFile:    cfm.ConfigFileAt(OverridesFileName),
		distributionFile: cfm.ConfigFileAt(DistributionFileName),
		modifiersFile:    cfm.ConfigFileAt(ModifiersFileName),
		canonical:        canonical,
		sanitizer:        bluemonday.StrictPolicy(),
		storageType:      cfm.Storage().StorageType(),
		values:           map[string]float64{},
		distribution:     map[string]float64{},
	}

	var result *multierror.Error
	for _, cf := range []*config.ConfigFile{s.overridesFile, s.distributionFile, s.modifiersFile} {
		data, err := cf.Read()
		if err != nil && !storage.IsNotExist(err) {
			result = multierror.Append(result, fmt.Errorf("reading %s: %w", cf.Path(), err))
			continue
		}
		if err := s.load(cf, data); err != nil {
			result = multierror.Append(result, err)
		}
	}

	s.overridesFile.AddChangeHandler(s.onChange(s.overridesFile))
	s.distributionFile.AddChangeHandler(s.onChange(s.distributionFile))
	s.modifiersFile.AddChangeHandler(s.onChange(s.modifiersFile))

	return s, result.ErrorOrNil()
}

func (s *Store) onChange(cf *config.ConfigFile) config.ConfigChangedHandler {
	return func(ct config.ChangeType, data []byte) {
		if err := s.load(cf, data); err != nil {
			log.Warnf("Ignoring %s change to %s: %s", ct, cf.Path(), err)
			return
		}
		log.Debugf("Reloaded %s after %s", cf.Path(), ct)
		s.notify()
	}
}

// load parses one document into the cached state. Empty data resets it.
func (s *Store) load(cf *config.ConfigFile, data []byte) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	switch cf {
	case s.overridesFile:
		values := map[string]float64{}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &values); err != nil {
				return fmt.Errorf("parsing %s: %w", cf.Path(), err)
			}
		}
		s.values = values

	case s.distributionFile:
		dist := map[string]float64{}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &dist); err != nil {
				return fmt.Errorf("parsing %s: %w", cf.Path(), err)
			}
		}
		s.distribution = dist

	case s.modifiersFile:
		var mods Modifiers
		if len(data) > 0 {
			if err := json.Unmarshal(data, &mods); err != nil {
				return fmt.Errorf("parsing %s: %w", cf.Path(), err)
			}
		}
		s.modifiers = mods
	}

	return nil
}

// StorageType reports where the documents are persisted.
func (s *Store) StorageType() storage.StorageType {
	return s.storageType
}

// OnChange registers f to be called after any persisted document changes.
func (s *Store) OnChange(f func()) {
	s.listenerLock.Lock()
	defer s.listenerLock.Unlock()

	s.listeners = append(s.listeners, f)
}

func (s *Store) notify() {
	s.listenerLock.Lock()
	listeners := make([]func(), len(s.listeners))
	copy(listeners, s.listeners)
	s.listenerLock.Unlock()

	for _, f := range listeners {
		f()
	}
}

// Overrides returns a copy of the persisted override values.
func (s *Store) Overrides() map[string]float64 {
	s.lock.RLock()
	defer s.lock.RUnlock()

	out := make(map[string]float64, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// SetOverrides replaces every persisted override. Keys are canonicalized; the whole update is
// rejected if any key is unknown or any value is not finite.
func (s *Store) SetOverrides(values map[string]float64) error {
	clean := make(map[string]float64, len(values))

	var result *multierror.Error
	for k, v := range values {
		canonical, err := s.validate(k, v)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		clean[canonical] = v
	}
	if err := result.ErrorOrNil(); err != nil {
		return err
	}

	return s.write(s.overridesFile, clean)
}

// SetOverride sets or replaces a single override.
func (s *Store) SetOverride(key string, value float64) error {
	canonical, err := s.validate(key, value)
	if err != nil {
		return err
	}

	values := s.Overrides()
	values[canonical] = value
	return s.write(s.overridesFile, values)
}

// DeleteOverrides removes the overrides document, returning every value to its default.
func (s *Store) DeleteOverrides() error {
	exists, err := s.overridesFile.Exists()
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	return s.overridesFile.Delete()
}

func (s *Store) validate(key string, value float64) (string, error) {
	canonical, ok := s.canonical(key)
	if !ok {
		return "", fmt.Errorf("unknown override %q", key)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return "", fmt.Errorf("override %q must be a finite number", key)
	}
	return canonical, nil
}

// Distribution returns a copy of the persisted service tier distribution.
func (s *Store) Distribution() map[string]float64 {
	s.lock.RLock()
	defer s.lock.RUnlock()

	out := make(map[string]float64, len(s.distribution))
	for k, v := range s.distribution {
		out[k] = v
	}
	return out
}

// SetDistribution replaces the service tier distribution. Percentages must be finite and
// non-negative; they are not required to sum to 100.
func (s *Store) SetDistribution(dist map[string]float64) error {
	clean := make(map[string]float64, len(dist))
	for k, v := range dist {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("distribution for %q must be a finite, non-negative number", k)
		}
		clean[normalize(k)] = v
	}
	return s.write(s.distributionFile, clean)
}

// Modifiers returns the persisted service modifiers.
func (s *Store) Modifiers() Modifiers {
	s.lock.RLock()
	defer s.lock.RUnlock()

	out := s.modifiers
	if s.modifiers.Compliance != nil {
		out.Compliance = append([]string(nil), s.modifiers.Compliance...)
	}
	return out
}

// SetModifiers replaces the service modifiers. Values are stripped of markup before they are
// stored, since they are echoed back to the browser.
func (s *Store) SetModifiers(m Modifiers) error {
	clean := Modifiers{
		StoragePerformance: s.sanitize(m.StoragePerformance),
		Sustainability:     s.sanitize(m.Sustainability),
	}
	for _, c := range m.Compliance {
		if c = s.sanitize(c); c != "" {
			clean.Compliance = append(clean.Compliance, c)
		}
	}
	return s.write(s.modifiersFile, clean)
}

func (s *Store) sanitize(v string) string {
	return normalize(s.sanitizer.Sanitize(v))
}

func (s *Store) write(cf *config.ConfigFile, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", cf.Path(), err)
	}
	if err := cf.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", cf.Path(), err)
	}
	return nil
}

func normalize(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
