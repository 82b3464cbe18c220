package activity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

// EventType categorizes an activity event.
type EventType string

const (
	EventTabNavigation   EventType = "tab_navigation"
	EventCalculation     EventType = "calculation"
	EventOverrideChanged EventType = "override_changed"
	EventLoginAttempt    EventType = "login_attempt"
)

// IsValid returns true for the known event types.
func (et EventType) IsValid() bool {
	switch et {
	case EventTabNavigation, EventCalculation, EventOverrideChanged, EventLoginAttempt:
		return true
	}
	return false
}

// Event is one user action recorded by the activity logger.
type Event struct {
	ID        string            `json:"id"`
	Type      EventType         `json:"type"`
	User      string            `json:"user"`
	Details   map[string]string `json:"details,omitempty"`
	Success   bool              `json:"success"`
	Timestamp time.Time         `json:"timestamp"`
}

// NewEvent creates an event stamped with a new id and the current time.
func NewEvent(eventType EventType, user string, success bool, details map[string]string) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		User:      user,
		Details:   details,
		Success:   success,
		Timestamp: time.Now().UTC(),
	}
}

// key orders events chronologically in the key-value stores.
func (e Event) key() string {
	return fmt.Sprintf("%020d-%s", e.Timestamp.UnixNano(), e.ID)
}

var sanitizer = bluemonday.StrictPolicy()

// sanitize strips markup from user-supplied strings; events are rendered by the admin UI.
func (e Event) sanitize() Event {
	e.User = sanitizer.Sanitize(e.User)
	if e.Details != nil {
		details := make(map[string]string, len(e.Details))
		for k, v := range e.Details {
			details[sanitizer.Sanitize(k)] = sanitizer.Sanitize(v)
		}
		e.Details = details
	}
	return e
}
