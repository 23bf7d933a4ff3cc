package events

import "time"

// Relay event type codes published on the platform bus.
const (
	TypeUserConnected    = "USER_CONNECTED"
	TypeUserDisconnected = "USER_DISCONNECTED"
	TypeMessageSent      = "MESSAGE_SENT"
	TypeCallCompleted    = "CALL_COMPLETED"
	TypeCallRejected     = "CALL_REJECTED"
	TypeCallMissed       = "CALL_MISSED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "MESSAGE_SENT").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the plain implementation used across the relay.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}
