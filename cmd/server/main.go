package main

import (
	"context"
	"log"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/diwanhq/murasalat/backend/internal/engine"
	"github.com/diwanhq/murasalat/backend/internal/router"
	"github.com/diwanhq/murasalat/backend/pkg/config"
	"github.com/diwanhq/murasalat/backend/pkg/firebase"
	"github.com/diwanhq/murasalat/backend/validators"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database connections
	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	// Firebase push delivery is optional; without credentials the
	// Notification rows remain the only hand-off point.
	ctx := context.Background()
	var push engine.PushSender
	if cfg.FirebaseCredentialsPath != "" {
		firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase: %v", err)
		}
		push = firebaseApp
	} else {
		log.Println("No Firebase credentials configured, push delivery disabled.")
	}

	// Create Echo instance
	e := echo.New()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	fanout := router.SetupRoutes(e, db.Postgres, db.Mongo, push, cfg.ReferencePrefix)

	// Drain failed notification deliveries in the background
	go fanout.RunRetryWorker(ctx, 30*time.Second)

	// Validator
	e.Validator = validators.NewValidator()

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
