package main

import (
	"log"

	"github.com/labstack/echo/v4"
	"github.com/vibely-app/backend/internal/router"
	"github.com/vibely-app/backend/pkg/config"
	"github.com/vibely-app/backend/validators"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB()

	// Create Echo instance
	e := echo.New()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	router.SetupRoutes(e, cfg, db)

	// Validator
	e.Validator = validators.NewValidator()

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
