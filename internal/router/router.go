package router

import (
	"log"

	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"github.com/diwanhq/murasalat/backend/internal/engine"
	"github.com/diwanhq/murasalat/backend/internal/handlers"
	"github.com/diwanhq/murasalat/backend/internal/middleware"
	"github.com/diwanhq/murasalat/backend/internal/models"
	"github.com/diwanhq/murasalat/backend/internal/repositories"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies.
// It returns the notification fanout so the caller can run its retry worker.
func SetupRoutes(e *echo.Echo, pgdb *gorm.DB, mgClient *mongo.Client, push engine.PushSender, referencePrefix string) *engine.Fanout {
	// AutoMigrate PostgreSQL models
	err := pgdb.AutoMigrate(
		&models.User{},
		&models.Department{},
		&models.Category{},
		&models.Document{},
		&models.DocumentDepartment{},
		&models.DocumentSeen{},
		&models.Notification{},
		&models.ActivityLog{},
		&models.ReferenceCounter{},
	)
	if err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}
	log.Println("PostgreSQL auto-migrations completed for all models.")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(pgdb)
	departmentRepo := repositories.NewPostgresDepartmentRepository(pgdb)
	categoryRepo := repositories.NewPostgresCategoryRepository(pgdb)
	documentRepo := repositories.NewPostgresDocumentRepository(pgdb)
	notificationRepo := repositories.NewPostgresNotificationRepository(pgdb)
	fanoutQueue := repositories.NewMongoFanoutQueue(mgClient.Database("murasalat"))

	// --- Initialize the lifecycle engine ---
	allocator := engine.NewAllocator(pgdb, referencePrefix)
	ledger := engine.NewLedger(pgdb)
	fanout := engine.NewFanout(pgdb, fanoutQueue, push)
	workflow := engine.NewWorkflow(pgdb, ledger, fanout)
	coordinator := engine.NewCoordinator(pgdb, allocator, ledger, fanout)
	seenTracker := engine.NewSeenTracker(pgdb)
	log.Println("Lifecycle engine initialized.")

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(userRepo, ledger)
	authHandler.RegisterAuthRoutes(authGroup)
	log.Println("Auth routes configured.")

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware())
	log.Println("JWT authentication middleware applied to /api/v1 group.")

	// User profile routes
	userHandler := handlers.NewUserHandler(userRepo)
	userHandler.RegisterProfileRoutes(api)
	api.GET("/users/search", userHandler.SearchUsers)
	log.Println("User profile routes configured.")

	// Document routes
	documentHandler := handlers.NewDocumentHandler(documentRepo, coordinator, seenTracker)
	documentHandler.RegisterDocumentRoutes(api)
	log.Println("Document routes configured.")

	// Workflow routes
	statusHandler := handlers.NewStatusHandler(workflow, ledger)
	statusHandler.RegisterStatusRoutes(api)
	log.Println("Workflow routes configured.")

	// Department routes
	departmentHandler := handlers.NewDepartmentHandler(departmentRepo, seenTracker)
	departmentHandler.RegisterDepartmentRoutes(api)
	log.Println("Department routes configured.")

	// Category routes
	categoryHandler := handlers.NewCategoryHandler(categoryRepo)
	categoryHandler.RegisterCategoryRoutes(api)
	log.Println("Category routes configured.")

	// Notification routes
	notificationHandler := handlers.NewNotificationHandler(notificationRepo)
	notificationHandler.RegisterNotificationRoutes(api)
	log.Println("Notification routes configured.")

	// Activity log routes
	activityHandler := handlers.NewActivityHandler(ledger)
	activityHandler.RegisterActivityRoutes(api)
	log.Println("Activity log routes configured.")

	log.Println("All routes configured.")
	return fanout
}
