package main

import (
	"context"
	"net/http"
	"os"

	"github.com/jan-ninh/match3-backend/internal/api"
	"github.com/jan-ninh/match3-backend/internal/config"
	"github.com/jan-ninh/match3-backend/internal/database"
	"github.com/jan-ninh/match3-backend/internal/logger"
	"github.com/jan-ninh/match3-backend/internal/middleware"
	"github.com/jan-ninh/match3-backend/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Could not load config: %v", err)
		os.Exit(1)
	}

	// Connect to PostgreSQL
	db, err := database.ConnectPostgres(cfg)
	if err != nil {
		logger.Error("Database connection failed: %v", err)
		os.Exit(1)
	}
	defer db.Close()

	// Create tables if needed
	if err := database.InitSchema(context.Background()); err != nil {
		logger.Error("Schema initialization failed: %v", err)
		os.Exit(1)
	}

	// Background heart regeneration sweep
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	services.StartHeartRefillScheduler(ctx, cfg.MaxHearts, cfg.HeartRefillInterval())

	// Initialize routes
	router := api.SetupRouter()

	// Wrap router with CORS middleware
	handler := middleware.CORSMiddleware(router)

	// Start server
	logger.Success("Server starting on port %s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, handler); err != nil {
		logger.Error("Server failed: %v", err)
		os.Exit(1)
	}
}
