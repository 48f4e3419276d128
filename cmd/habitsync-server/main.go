package main

import (
	"log"

	"github.com/daystreak/habitsync/internal/logger"
	"github.com/daystreak/habitsync/server"
)

func main() {
	cfg, err := server.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logConfig := logger.Config{
		Level:    logger.ParseLevel(cfg.LogLevel),
		FilePath: cfg.LogFile,
		Console:  true,
	}
	if err := logger.Init(logConfig); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	srv, err := server.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}
	defer func() {
		if err := srv.Close(); err != nil {
			log.Printf("Error closing server: %v", err)
		}
	}()

	log.Printf("HabitSync server starting on :%s", cfg.Port)
	if err := srv.Start(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
