package activity

// EventStorage is the persistence prototype for encoded events. Keys sort chronologically.
type EventStorage interface {
	// Add stores an encoded event under key, replacing any existing value.
	Add(key string, event []byte) error

	// Each iterates all key/values in key order and calls the handler func. If a handler returns
	// an error, the iteration stops.
	Each(handler func(string, []byte) error) error

	// Closes the backing storage
	Close() error
}
