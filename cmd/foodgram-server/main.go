package main

import (
	"log"

	"github.com/foodgram/backend/pkg/foodgram/admin"
	"github.com/foodgram/backend/pkg/foodgram/auth"
	"github.com/foodgram/backend/pkg/foodgram/cart"
	"github.com/foodgram/backend/pkg/foodgram/config"
	"github.com/foodgram/backend/pkg/foodgram/database"
	"github.com/foodgram/backend/pkg/foodgram/favorites"
	"github.com/foodgram/backend/pkg/foodgram/ingredients"
	"github.com/foodgram/backend/pkg/foodgram/logger"
	"github.com/foodgram/backend/pkg/foodgram/models"
	"github.com/foodgram/backend/pkg/foodgram/recipes"
	"github.com/foodgram/backend/pkg/foodgram/tags"
	"github.com/foodgram/backend/pkg/foodgram/users"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/foodgram/backend/api/swagger"
)

// @title Foodgram API
// @version 1.0
// @description A recipe-sharing backend: recipes with tags and ingredients, favorites, shopping cart, and subscriptions.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	auth.Init(cfg.JWT)

	if err := database.Connect(cfg.Database); err != nil {
		zlog.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := models.AutoMigrate(database.GetDB()); err != nil {
		zlog.Fatal("Failed to run migrations", zap.Error(err))
	}
	zlog.Info("Database migrations completed",
		zap.String("driver", cfg.Database.Driver))

	if err := ensureAdminExists(cfg.Admin); err != nil {
		zlog.Fatal("Failed to ensure admin user exists", zap.Error(err))
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(logger.RequestLogger(zlog), gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Swagger documentation
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	db := database.GetDB()

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{"status": "ok", "service": "foodgram"})
		})

		// Auth routes (public)
		authHandler := auth.NewHandler(db)
		authHandler.RegisterRoutes(api.Group("/auth"))

		// Reads tolerate anonymous callers but vary per user; writes
		// require a valid token
		public := api.Group("", auth.OptionalAuthMiddleware())
		protected := api.Group("", auth.AuthMiddleware())

		recipesHandler := recipes.NewHandler(db)
		recipesHandler.RegisterRoutes(public, protected)

		tagsHandler := tags.NewHandler(db)
		tagsHandler.RegisterRoutes(api.Group(""))

		ingredientsHandler := ingredients.NewHandler(db)
		ingredientsHandler.RegisterRoutes(api.Group(""))

		favoritesHandler := favorites.NewHandler(db)
		favoritesHandler.RegisterRoutes(protected)

		cartHandler := cart.NewHandler(db)
		cartHandler.RegisterRoutes(protected)

		usersHandler := users.NewHandler(db)
		usersHandler.RegisterRoutes(public, protected)

		// Admin routes (JWT, admin role required)
		adminHandler := admin.NewHandler(db)
		adminGroup := api.Group("/admin")
		adminGroup.Use(auth.AuthMiddleware(), auth.RequireAdmin())
		adminHandler.RegisterRoutes(adminGroup)
	}

	zlog.Info("Starting Foodgram server", zap.String("port", cfg.App.Port))
	if err := r.Run(":" + cfg.App.Port); err != nil {
		zlog.Fatal("Failed to start server", zap.Error(err))
	}
}

// ensureAdminExists creates the bootstrap admin account if no admin exists
// in the database.
func ensureAdminExists(cfg config.AdminConfig) error {
	db := database.GetDB()

	var count int64
	if err := db.Model(&models.User{}).Where("system_role = ?", models.SystemRoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashedPassword, err := auth.HashPassword(cfg.Password)
	if err != nil {
		return err
	}

	adminUser := models.User{
		Email:        cfg.Email,
		Username:     cfg.Username,
		PasswordHash: hashedPassword,
		SystemRole:   models.SystemRoleAdmin,
	}
	return db.Create(&adminUser).Error
}
