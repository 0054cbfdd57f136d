package service

// Broadcaster is the outbound fan-out surface the services push events
// through. Implemented by the websocket hub. Delivery is best-effort and
// fire-and-forget.
type Broadcaster interface {
	// ToRoom delivers to every connection currently joined to the notebook.
	ToRoom(notebookId string, event string, data interface{})

	// ToAll delivers to every connected session regardless of room
	// membership. Used only for the global notebook-list refresh.
	ToAll(event string, data interface{})
}
