package main

import (
	"context"
	"log"

	"collabnote-be/internal/bootstrap"
	"collabnote-be/internal/config"
	"collabnote-be/internal/server"
	"collabnote-be/internal/tracer"
)

func main() {
	// 0. Initialize Tracer (disabled unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(cfg)

	// 3. Start Background Services
	go container.WebSocketHub.Run()

	if err := container.ConsumerService.Consume(context.Background()); err != nil {
		log.Fatalf("[FATAL] Failed to start list-refresh consumer: %v", err)
	}

	// 4. Initialize Server
	srv := server.New(cfg, container)

	// 5. Run Server
	log.Fatal(srv.Run())
}
