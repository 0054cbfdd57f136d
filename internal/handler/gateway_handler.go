package handler

import (
	"collabnote-be/internal/pkg/logger"
	internalWS "collabnote-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// GatewayHandler owns the websocket entry point. There is no handshake
// auth: identity is self-asserted through the login event after connect.
type GatewayHandler struct {
	hub        *internalWS.Hub
	dispatcher *internalWS.Dispatcher
	logger     logger.ILogger
}

func NewGatewayHandler(hub *internalWS.Hub, dispatcher *internalWS.Dispatcher, log logger.ILogger) *GatewayHandler {
	return &GatewayHandler{
		hub:        hub,
		dispatcher: dispatcher,
		logger:     log,
	}
}

// ServeWs upgrades the request and runs the connection's pumps.
func (h *GatewayHandler) ServeWs(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("GatewayHandler", "Starting WebSocket session", nil)
			internalWS.ServeWs(h.hub, h.dispatcher, conn)
			h.logger.Info("GatewayHandler", "WebSocket session ended", nil)
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

// RegisterRoutes registers the gateway routes.
func (h *GatewayHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws", h.ServeWs)
}
