package main

import (
	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/lolo262652/tasknot/internal/config"
	"github.com/lolo262652/tasknot/internal/constants"
	"github.com/lolo262652/tasknot/internal/database"
	"github.com/lolo262652/tasknot/internal/handlers"
	"github.com/lolo262652/tasknot/internal/logging"
	"github.com/lolo262652/tasknot/internal/middleware"
	"github.com/lolo262652/tasknot/internal/realtime"
	"github.com/lolo262652/tasknot/internal/repository"
	"github.com/lolo262652/tasknot/internal/services"
	"github.com/lolo262652/tasknot/internal/storage"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logging.Setup(cfg)

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		logrus.Fatalf("Failed to run migrations: %v", err)
	}
	if err := database.AddIndexes(database.GetDB()); err != nil {
		logrus.Fatalf("Failed to add indexes: %v", err)
	}

	// Initialize Gin router
	r := gin.Default()

	// Setup session middleware with Redis
	redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
	store, err := redisStore.NewStore(
		10,        // Redis pool size
		"tcp",     // network type
		redisAddr, // Redis address from config
		"",        // username (empty for default user)
		"",        // password (empty = no password)
		[]byte(cfg.SessionSecret), // authentication key
	)
	if err != nil {
		logrus.Fatalf("Failed to create Redis store: %v", err)
	}
	isProduction := cfg.GinMode == "release"
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: 2, // SameSite=Lax
	})
	r.Use(sessions.Sessions(constants.SessionName, store))

	// Realtime change feed
	hub := realtime.NewHub()

	// Object storage
	objects := storage.New(afero.NewOsFs(), cfg.StorageDir)
	signer := storage.NewSigner(cfg.StorageSecret)

	// Repositories and services
	db := database.GetDB()
	taskRepo := repository.NewTaskRepository(db)
	docRepo := repository.NewDocumentRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	profileRepo := repository.NewProfileRepository(db)

	authService := services.NewAuthService(profileRepo)
	taskService := services.NewTaskService(taskRepo, docRepo, hub)
	documentService := services.NewDocumentService(docRepo, hub)
	historyService := services.NewHistoryService(historyRepo, hub)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	taskHandler := handlers.NewTaskHandler(taskService)
	documentHandler := handlers.NewDocumentHandler(documentService)
	historyHandler := handlers.NewHistoryHandler(historyService)
	profileHandler := handlers.NewProfileHandler(authService)
	storageHandler := handlers.NewStorageHandler(objects, signer, cfg.PublicURL)
	realtimeHandler := handlers.NewRealtimeHandler(hub)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "tasknot gateway is running",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
		}

		// Signed object downloads carry their own capability token
		api.GET("/signed/:token", storageHandler.ServeSigned)

		// Row routes (protected)
		protected := api.Group("")
		protected.Use(middleware.RequireAuth())
		{
			protected.GET("/tasks", taskHandler.ListTasks)
			protected.POST("/tasks", taskHandler.CreateTask)
			protected.PATCH("/tasks/:id", taskHandler.UpdateTask)
			protected.DELETE("/tasks/:id", taskHandler.DeleteTask)
			protected.GET("/tasks/:id/documents", documentHandler.ListForTask)

			protected.POST("/documents", documentHandler.CreateDocument)
			protected.DELETE("/documents/:id", documentHandler.DeleteDocument)

			protected.GET("/history", historyHandler.ListHistory)
			protected.POST("/history", historyHandler.AppendHistory)

			protected.GET("/profiles", profileHandler.ListProfiles)
			protected.PATCH("/profiles/me", profileHandler.UpdateMe)

			protected.PUT("/storage/*key", storageHandler.Upload)
			protected.GET("/storage/*key", storageHandler.Download)
			protected.DELETE("/storage/*key", storageHandler.Remove)
			protected.POST("/storage-sign", storageHandler.Sign)

			protected.GET("/realtime", realtimeHandler.Subscribe)
		}
	}

	// Start server
	logrus.Infof("Server starting on %s", cfg.ListenAddr)
	if err := r.Run(cfg.ListenAddr); err != nil {
		logrus.Fatalf("Failed to start server: %v", err)
	}
}
