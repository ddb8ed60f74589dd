package broadcast

import (
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill"
)

// Event is what every listener receives. Payload is opaque to the
// broadcaster.
type Event struct {
	ID      string          `json:"id"`
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
	At      time.Time       `json:"at"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(action string, payload json.RawMessage) Event {
	return Event{
		ID:      watermill.NewUUID(),
		Action:  action,
		Payload: payload,
		At:      time.Now().UTC(),
	}
}
