package events

import "time"

// Kind names an event type. Kinds are namespaced strings such as
// "turn_state.changed" so receivers can match on whole namespaces.
type Kind string

func (k Kind) String() string {
	return string(k)
}

// Event is the contract every orchestration event satisfies.
type Event interface {
	Kind() Kind
	Timestamp() time.Time
}

// Base carries the kind and emission time shared by all events.
type Base struct {
	kind      Kind
	timestamp time.Time
}

// NewBase creates a base stamped with the current time.
func NewBase(kind Kind) Base {
	return Base{kind: kind, timestamp: time.Now()}
}

func (b Base) Kind() Kind {
	return b.kind
}

func (b Base) Timestamp() time.Time {
	return b.timestamp
}
