package bootstrap

import (
	"log"
	"time"

	"collabnote-be/internal/config"
	"collabnote-be/internal/controller"
	"collabnote-be/internal/handler"
	"collabnote-be/internal/pkg/logger"
	"collabnote-be/internal/repository/filestore"
	"collabnote-be/internal/repository/memory"
	"collabnote-be/internal/service"
	"collabnote-be/internal/websocket"
	"collabnote-be/pkg/sandbox"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const notebookListTopic = "notebook.list.updated"

type Container struct {
	// Controllers
	NotebookController controller.INotebookController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// Domain services
	NotebookService service.INotebookService

	// WebSockets
	GatewayHandler *handler.GatewayHandler
	WebSocketHub   *websocket.Hub

	Logger logger.ILogger
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	notebookRepo, err := filestore.NewNotebookRepository(cfg.Storage.DataDir, sysLogger)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize notebook store: %v", err)
	}
	sessionRepo := memory.NewSessionRepository()

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Sessions, Presence, Hub
	registry := service.NewSessionRegistry(sessionRepo, sysLogger)
	presence := service.NewPresenceTracker(registry)
	hub := websocket.NewHub(presence, sysLogger)

	// 4. Services
	publisherService := service.NewPublisherService(notebookListTopic, pubSub)
	notebookService := service.NewNotebookService(notebookRepo, hub, publisherService, sysLogger)

	runner := sandbox.NewRunner(time.Duration(cfg.Exec.TimeoutMs) * time.Millisecond)
	executionService := service.NewExecutionService(notebookService, runner, sysLogger)

	consumerService := service.NewConsumerService(pubSub, notebookListTopic, notebookRepo, hub, sysLogger)

	// 5. Gateway
	dispatcher := websocket.NewDispatcher(hub, registry, presence, notebookService, executionService, sysLogger)
	gatewayHandler := handler.NewGatewayHandler(hub, dispatcher, sysLogger)

	// 6. Controllers
	notebookController := controller.NewNotebookController(notebookService)

	return &Container{
		NotebookController: notebookController,
		ConsumerService:    consumerService,
		NotebookService:    notebookService,
		GatewayHandler:     gatewayHandler,
		WebSocketHub:       hub,
		Logger:             sysLogger,
	}
}
