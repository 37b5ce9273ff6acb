package main

import (
	"log"

	"oracle-market/internal/config"
	"oracle-market/internal/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := database.Connect(cfg.Database.Driver, cfg.GetDSN()); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	log.Printf("Applying schema (driver: %s)", cfg.Database.Driver)
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	log.Println("Schema is up to date")
}
