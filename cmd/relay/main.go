package main

import (
	"context"
	"log"

	"matrimony-relay-be/internal/bootstrap"
	"matrimony-relay-be/internal/config"
	"matrimony-relay-be/internal/server"
	"matrimony-relay-be/internal/tracer"
	"matrimony-relay-be/pkg/database"
)

func main() {
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	cfg := config.Load()

	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	container := bootstrap.NewContainer(gormDB, cfg)

	go func() {
		log.Println("Background: starting relay event forwarder...")
		if err := container.ConsumerService.Consume(context.Background()); err != nil {
			log.Printf("Background forwarder error: %v", err)
		}
	}()

	srv := server.New(cfg, container)
	log.Fatal(srv.Run())
}
