package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Eduard-Golovash/foodgram-project-react/internal/apperror"
	"github.com/Eduard-Golovash/foodgram-project-react/internal/middleware"
	"github.com/Eduard-Golovash/foodgram-project-react/internal/service"
)

// SubscriptionResponse is a subscribed author together with their recipes
// in short form.
type SubscriptionResponse struct {
	UserResponse
	Recipes      []RecipeShortResponse `json:"recipes"`
	RecipesCount int                   `json:"recipes_count"`
}

// UserHandler serves public user profiles and author subscriptions.
type UserHandler struct {
	authService       *service.AuthService
	membershipService *service.MembershipService
	recipeService     *service.RecipeService
}

func NewUserHandler(authService *service.AuthService, membershipService *service.MembershipService, recipeService *service.RecipeService) *UserHandler {
	return &UserHandler{
		authService:       authService,
		membershipService: membershipService,
		recipeService:     recipeService,
	}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	{
		users.GET("/:id", middleware.OptionalAuthMiddleware(h.authService), h.GetUser)
		users.GET("/subscriptions", middleware.AuthMiddleware(h.authService), h.ListSubscriptions)
		users.POST("/:id/subscribe", middleware.AuthMiddleware(h.authService), h.Subscribe)
		users.DELETE("/:id/subscribe", middleware.AuthMiddleware(h.authService), h.Unsubscribe)
	}
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperror.NotFound("user not found"))
		return
	}

	user, err := h.authService.GetUser(id)
	if err != nil {
		respondError(c, err)
		return
	}

	isSubscribed, err := h.membershipService.IsSubscribed(c.Request.Context(), currentUserPtr(c), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(*user, isSubscribed))
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	authorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperror.NotFound("author not found"))
		return
	}

	author, err := h.membershipService.Subscribe(c.Request.Context(), userID, authorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newUserResponse(*author, true))
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	authorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperror.NotFound("author not found"))
		return
	}

	if err := h.membershipService.Unsubscribe(c.Request.Context(), userID, authorID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) ListSubscriptions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	authors, err := h.membershipService.SubscribedAuthors(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	subscriptions := make([]SubscriptionResponse, 0, len(authors))
	for _, author := range authors {
		recipes, err := h.recipeService.List(c.Request.Context(), service.RecipeFilter{AuthorID: &author.ID})
		if err != nil {
			respondError(c, err)
			return
		}

		short := make([]RecipeShortResponse, 0, len(recipes))
		for _, recipe := range recipes {
			short = append(short, newRecipeShortResponse(recipe))
		}
		subscriptions = append(subscriptions, SubscriptionResponse{
			UserResponse: newUserResponse(author, true),
			Recipes:      short,
			RecipesCount: len(short),
		})
	}

	c.JSON(http.StatusOK, gin.H{"subscriptions": subscriptions})
}
