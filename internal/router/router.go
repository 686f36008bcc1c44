package router

import (
	"github.com/gin-gonic/gin"

	"github.com/Eduard-Golovash/foodgram-project-react/internal/api"
	"github.com/Eduard-Golovash/foodgram-project-react/internal/middleware"
)

// SetupRouter configures the application routes
func SetupRouter(
	authHandler *api.AuthHandler,
	userHandler *api.UserHandler,
	catalogHandler *api.CatalogHandler,
	recipeHandler *api.RecipeHandler,
) *gin.Engine {
	router := gin.Default()

	router.Use(middleware.CORS())

	// Handlers attach their own auth middleware: reads are open (with
	// optional identity for annotations), writes require a token.
	v1 := router.Group("/api/v1")
	authHandler.RegisterRoutes(v1)
	userHandler.RegisterRoutes(v1)
	catalogHandler.RegisterRoutes(v1)
	recipeHandler.RegisterRoutes(v1)

	return router
}
