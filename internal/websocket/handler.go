package websocket

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs handles websocket requests from the peer. Each connection gets a
// server-assigned id; identity comes later through the login event.
func ServeWs(hub *Hub, dispatcher *Dispatcher, c *websocket.Conn) {
	client := &Client{
		Hub:        hub,
		Conn:       c,
		Id:         uuid.NewString(),
		Send:       make(chan []byte, 256),
		dispatcher: dispatcher,
	}
	client.Hub.register <- client

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	client.readPump() // Run readPump in current goroutine (handler)
}
