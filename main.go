package main

import (
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"dokanhisab/m/internal/api"
	"dokanhisab/m/internal/config"
	"dokanhisab/m/internal/database"
	"dokanhisab/m/internal/migrations"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	db, err := database.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	migrations.Run(db)

	handler := api.New(db, cfg.Secret)

	log.Printf("Dokan Hisab server starting on :%s", cfg.HTTPPort)
	if err := http.ListenAndServe(":"+cfg.HTTPPort, handler.Router()); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
