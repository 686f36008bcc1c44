package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Eduard-Golovash/foodgram-project-react/config"
	"github.com/Eduard-Golovash/foodgram-project-react/internal/api"
	"github.com/Eduard-Golovash/foodgram-project-react/internal/database"
	"github.com/Eduard-Golovash/foodgram-project-react/internal/middleware"
	"github.com/Eduard-Golovash/foodgram-project-react/internal/router"
	"github.com/Eduard-Golovash/foodgram-project-react/internal/server"
	"github.com/Eduard-Golovash/foodgram-project-react/internal/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	redisClient, err := database.NewRedisClient(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	if redisClient == nil {
		log.Printf("Redis not configured, rate limiting disabled")
	}

	s3Config, err := config.NewS3Config(context.Background(), cfg.S3Bucket)
	if err != nil {
		log.Fatalf("Failed to configure S3: %v", err)
	}
	if s3Config == nil {
		log.Printf("S3 not configured, recipe images stored as submitted")
	}

	authService := service.NewAuthService(db, cfg.JWTSecret)
	catalogService := service.NewCatalogService(db)
	recipeService := service.NewRecipeService(db)
	membershipService := service.NewMembershipService(db)
	shoppingListService := service.NewShoppingListService(db, cfg.ExportFontPath)
	imageService := service.NewImageService(s3Config)

	var writeLimiter *middleware.RateLimiter
	if redisClient != nil {
		writeLimiter = middleware.NewRecipeWriteRateLimiter(redisClient)
	}

	engine := router.SetupRouter(
		api.NewAuthHandler(authService),
		api.NewUserHandler(authService, membershipService, recipeService),
		api.NewCatalogHandler(catalogService),
		api.NewRecipeHandler(recipeService, membershipService, shoppingListService, imageService, authService, writeLimiter),
	)

	srv := server.New(engine)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start(cfg.ServerHost + ":" + cfg.ServerPort)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-quit:
		log.Printf("Received signal: %v", sig)
	}

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
