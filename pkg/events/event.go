package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "NOTEBOOK_LIST_UPDATED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the plain struct implementation used across the app.
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

const TypeNotebookListUpdated = "NOTEBOOK_LIST_UPDATED"

// NotebookListUpdated is emitted whenever a mutation changed the global
// notebook summary list (create, rename).
func NotebookListUpdated(notebookId string) BaseEvent {
	return BaseEvent{
		Type: TypeNotebookListUpdated,
		Data: map[string]interface{}{
			"notebook_id": notebookId,
		},
		OccurredAt: time.Now(),
	}
}
