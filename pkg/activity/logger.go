package activity

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/opencost/gputco/pkg/log"
	"github.com/opencost/gputco/pkg/util/json"
)

// DefaultQueryLimit caps access log queries that do not specify a limit.
const DefaultQueryLimit = 100

// Recorder accepts activity events.
type Recorder interface {
	Record(event Event) error
}

// Logger records events to an EventStorage and reads them back for the access log.
type Logger struct {
	storage EventStorage
}

// NewLogger creates a new Logger instance using the provided storage
func NewLogger(storage EventStorage) *Logger {
	return &Logger{
		storage: storage,
	}
}

// Record sanitizes and stores event. Missing ids and timestamps are filled in.
func (l *Logger) Record(event Event) error {
	if !event.Type.IsValid() {
		return fmt.Errorf("unknown activity event type %q", event.Type)
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	event = event.sanitize()

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return l.storage.Add(event.key(), data)
}

// QueryOpts filters an access log query. A zero Type matches every event.
type QueryOpts struct {
	Type  EventType
	Limit int
}

// Query returns matching events, newest first.
func (l *Logger) Query(opts QueryOpts) ([]*Event, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}

	events := []*Event{}
	err := l.storage.Each(func(key string, data []byte) error {
		var e Event
		if err := json.Unmarshal(data, &e); err != nil {
			log.Warnf("Failed to unmarshal activity event for key: %s", key)
			return nil
		}
		if opts.Type != "" && e.Type != opts.Type {
			return nil
		}

		events = append(events, &e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading activity events: %w", err)
	}

	// storage order is oldest first
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	if len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

func (l *Logger) Close() error {
	return l.storage.Close()
}
