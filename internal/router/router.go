package router

import (
	"log"

	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/vibely-app/backend/internal/feed"
	"github.com/vibely-app/backend/internal/handlers"
	"github.com/vibely-app/backend/internal/media"
	"github.com/vibely-app/backend/internal/middleware"
	"github.com/vibely-app/backend/internal/models"
	"github.com/vibely-app/backend/internal/repositories"
	"github.com/vibely-app/backend/pkg/config"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, cfg *config.Config, db *config.DB) {
	// AutoMigrate PostgreSQL models
	if err := db.Postgres.AutoMigrate(&models.User{}, &models.Follow{}); err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}
	log.Println("PostgreSQL auto-migrations completed.")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(db.Postgres)
	followRepo := repositories.NewPostgresFollowRepository(db.Postgres)
	commentRepo := repositories.NewMongoCommentRepository(db.Mongo.Database(cfg.MongoDBName))

	var postRepo repositories.PostRepository = repositories.NewMongoPostRepository(db.Mongo.Database(cfg.MongoDBName))
	if db.Redis != nil {
		postRepo = repositories.NewCachedPostRepository(db.Redis, postRepo)
		log.Println("Post cache enabled.")
	}

	engine := feed.NewEngine(postRepo, userRepo, followRepo)

	// --- Unprotected auth routes ---
	authHandler := handlers.NewAuthHandler(userRepo, followRepo, cfg.JWTSecret)
	authPublic := e.Group("/api/auth")
	authHandler.RegisterPublicRoutes(authPublic)

	// --- Protected routes ---
	authProtected := e.Group("/api/auth")
	authProtected.Use(middleware.Auth(cfg.JWTSecret))
	authHandler.RegisterProtectedRoutes(authProtected)
	log.Println("Auth routes configured.")

	api := e.Group("/api")
	api.Use(middleware.Auth(cfg.JWTSecret))

	posts := api.Group("/posts")

	postHandler := handlers.NewPostHandler(postRepo, commentRepo, userRepo, engine)
	postHandler.RegisterPostRoutes(posts)
	log.Println("Post and feed routes configured.")

	commentHandler := handlers.NewCommentHandler(commentRepo, postRepo, userRepo, engine)
	commentHandler.RegisterCommentRoutes(posts)
	log.Println("Comment routes configured.")

	if cfg.MediaUploadURL != "" {
		mediaHandler := handlers.NewMediaHandler(media.NewHTTPUploader(cfg.MediaUploadURL))
		mediaHandler.RegisterMediaRoutes(api)
		log.Println("Media upload routes configured.")
	}

	log.Println("All routes configured.")
}
