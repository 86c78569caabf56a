package watcher

// EventType defines the type of event being broadcast.
type EventType string

const (
	EventStateChanged   EventType = "state_changed"
	EventStaleDiscarded EventType = "stale_discarded"
	EventRefreshIgnored EventType = "refresh_ignored"
)

// Event represents a monitoring event. Data is a screen.Snapshot for state changes.
type Event struct {
	Type EventType   `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Subscriber is a channel that receives events.
type Subscriber chan Event
