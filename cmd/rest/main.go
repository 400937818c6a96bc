package main

import (
	"context"
	"log"

	"examcraft-be/internal/bootstrap"
	"examcraft-be/internal/config"
	"examcraft-be/internal/server"
	"examcraft-be/internal/tracer"
	"examcraft-be/pkg/database"
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

	// Pipeline workers share the process with the HTTP server.
	go func() {
		log.Println("Background: Starting ingest consumer...")
		if err := container.ConsumerService.Consume(context.Background()); err != nil {
			log.Printf("Background ingest consumer error: %v", err)
		}
	}()
	go func() {
		log.Println("Background: Starting grading consumer...")
		if err := container.GradingService.Consume(context.Background()); err != nil {
			log.Printf("Background grading consumer error: %v", err)
		}
	}()

	if err := container.SchedulerService.Start(); err != nil {
		log.Printf("Scheduler failed to start: %v", err)
	}
	defer container.SchedulerService.Stop()

	srv := server.New(cfg, container)
	log.Fatal(srv.Run())
}
