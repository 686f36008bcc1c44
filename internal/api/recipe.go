package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Eduard-Golovash/foodgram-project-react/internal/apperror"
	"github.com/Eduard-Golovash/foodgram-project-react/internal/middleware"
	"github.com/Eduard-Golovash/foodgram-project-react/internal/models"
	"github.com/Eduard-Golovash/foodgram-project-react/internal/service"
)

type ingredientAmountRequest struct {
	ID     string `json:"id"`
	Amount int    `json:"amount"`
}

// recipeRequest is the create/update body. On update a missing
// ingredients or tags key keeps the current set; an empty list is a
// validation error, same as on create.
type recipeRequest struct {
	Name        string                    `json:"name"`
	Image       string                    `json:"image"`
	Text        string                    `json:"text"`
	CookingTime int                       `json:"cooking_time"`
	Ingredients []ingredientAmountRequest `json:"ingredients"`
	Tags        []string                  `json:"tags"`
}

type RecipeHandler struct {
	recipeService       *service.RecipeService
	membershipService   *service.MembershipService
	shoppingListService *service.ShoppingListService
	imageService        *service.ImageService
	authService         *service.AuthService
	writeLimiter        *middleware.RateLimiter
}

func NewRecipeHandler(
	recipeService *service.RecipeService,
	membershipService *service.MembershipService,
	shoppingListService *service.ShoppingListService,
	imageService *service.ImageService,
	authService *service.AuthService,
	writeLimiter *middleware.RateLimiter,
) *RecipeHandler {
	return &RecipeHandler{
		recipeService:       recipeService,
		membershipService:   membershipService,
		shoppingListService: shoppingListService,
		imageService:        imageService,
		authService:         authService,
		writeLimiter:        writeLimiter,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	optional := middleware.OptionalAuthMiddleware(h.authService)
	required := middleware.AuthMiddleware(h.authService)
	limited := h.writeLimiter.RateLimitMiddleware()

	recipes := router.Group("/recipes")
	{
		recipes.GET("", optional, h.ListRecipes)
		recipes.GET("/download_shopping_cart", required, h.DownloadShoppingCart)
		recipes.GET("/:id", optional, h.GetRecipe)
		recipes.POST("", required, limited, h.CreateRecipe)
		recipes.PUT("/:id", required, limited, h.UpdateRecipe)
		recipes.DELETE("/:id", required, h.DeleteRecipe)
		recipes.POST("/:id/favorite", required, h.AddFavorite)
		recipes.DELETE("/:id/favorite", required, h.RemoveFavorite)
		recipes.POST("/:id/shopping_cart", required, h.AddToShoppingCart)
		recipes.DELETE("/:id/shopping_cart", required, h.RemoveFromShoppingCart)
	}
}

// ListRecipes filters and annotates the recipe collection. Unrecognized
// or malformed query values are treated as absent, never as errors, and
// the membership filters only apply to authenticated callers.
func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	userID := currentUserPtr(c)

	filter := service.RecipeFilter{}
	if tags := c.Query("tags"); tags != "" {
		for _, slug := range strings.Split(tags, ",") {
			if slug = strings.TrimSpace(slug); slug != "" {
				filter.TagSlugs = append(filter.TagSlugs, slug)
			}
		}
	}
	if author := c.Query("author"); author != "" {
		if authorID, err := uuid.Parse(author); err == nil {
			filter.AuthorID = &authorID
		}
	}
	if userID != nil {
		if boolishQuery(c, "is_favorited") {
			filter.FavoritedBy = userID
		}
		if boolishQuery(c, "is_in_shopping_cart") {
			filter.InCartBy = userID
		}
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 {
		filter.Limit = limit
		if offset, err := strconv.Atoi(c.Query("offset")); err == nil && offset > 0 {
			filter.Offset = offset
		}
	}

	recipes, err := h.recipeService.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	responses, err := h.annotate(c, userID, recipes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": responses})
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperror.NotFound("recipe not found"))
		return
	}

	recipe, err := h.recipeService.Get(c.Request.Context(), recipeID)
	if err != nil {
		respondError(c, err)
		return
	}

	responses, err := h.annotate(c, currentUserPtr(c), []models.Recipe{*recipe})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, responses[0])
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req recipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	input, err := h.buildInput(c, req)
	if err != nil {
		respondError(c, err)
		return
	}

	recipe, err := h.recipeService.Create(c.Request.Context(), userID, *input)
	if err != nil {
		respondError(c, err)
		return
	}

	responses, err := h.annotate(c, &userID, []models.Recipe{*recipe})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"recipe": responses[0]})
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperror.NotFound("recipe not found"))
		return
	}

	var req recipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	input, err := h.buildInput(c, req)
	if err != nil {
		respondError(c, err)
		return
	}

	recipe, err := h.recipeService.Update(c.Request.Context(), userID, recipeID, *input)
	if err != nil {
		respondError(c, err)
		return
	}

	responses, err := h.annotate(c, &userID, []models.Recipe{*recipe})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipe": responses[0]})
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperror.NotFound("recipe not found"))
		return
	}

	if err := h.recipeService.Delete(c.Request.Context(), userID, recipeID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) AddFavorite(c *gin.Context) {
	h.addMembership(c, models.MembershipFavorite)
}

func (h *RecipeHandler) RemoveFavorite(c *gin.Context) {
	h.removeMembership(c, models.MembershipFavorite)
}

func (h *RecipeHandler) AddToShoppingCart(c *gin.Context) {
	h.addMembership(c, models.MembershipShoppingCart)
}

func (h *RecipeHandler) RemoveFromShoppingCart(c *gin.Context) {
	h.removeMembership(c, models.MembershipShoppingCart)
}

// DownloadShoppingCart aggregates the caller's shopping cart and returns
// it as a PDF attachment.
func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	entries, err := h.shoppingListService.Aggregate(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	document, err := h.shoppingListService.Export(entries)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="shopping_cart.pdf"`)
	c.Data(http.StatusOK, "application/pdf", document)
}

func (h *RecipeHandler) addMembership(c *gin.Context, kind models.MembershipKind) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperror.NotFound("recipe not found"))
		return
	}

	recipe, err := h.membershipService.AddRecipe(c.Request.Context(), kind, userID, recipeID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newRecipeShortResponse(*recipe))
}

func (h *RecipeHandler) removeMembership(c *gin.Context, kind models.MembershipKind) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperror.NotFound("recipe not found"))
		return
	}

	if err := h.membershipService.RemoveRecipe(c.Request.Context(), kind, userID, recipeID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// annotate computes the membership flags for every listed recipe with one
// batched query and builds the projections.
func (h *RecipeHandler) annotate(c *gin.Context, userID *uuid.UUID, recipes []models.Recipe) ([]RecipeResponse, error) {
	recipeIDs := make([]uuid.UUID, 0, len(recipes))
	for _, recipe := range recipes {
		recipeIDs = append(recipeIDs, recipe.ID)
	}

	flags, err := h.membershipService.Flags(c.Request.Context(), userID, recipeIDs)
	if err != nil {
		return nil, err
	}

	responses := make([]RecipeResponse, 0, len(recipes))
	for _, recipe := range recipes {
		responses = append(responses, newRecipeResponse(recipe, flags[recipe.ID]))
	}
	return responses, nil
}

// buildInput parses the request ids and stores the submitted image,
// keeping opaque references untouched.
func (h *RecipeHandler) buildInput(c *gin.Context, req recipeRequest) (*service.RecipeInput, error) {
	input := service.RecipeInput{
		Name:        req.Name,
		Text:        req.Text,
		CookingTime: req.CookingTime,
	}

	if req.Image != "" {
		stored, err := h.imageService.StoreRecipeImage(c.Request.Context(), req.Image)
		if err != nil {
			return nil, err
		}
		input.Image = stored
	}

	if req.Ingredients != nil {
		input.Ingredients = make([]service.IngredientAmount, 0, len(req.Ingredients))
		for _, item := range req.Ingredients {
			id, err := uuid.Parse(item.ID)
			if err != nil {
				return nil, apperror.Validation("ingredients", "invalid ingredient id")
			}
			input.Ingredients = append(input.Ingredients, service.IngredientAmount{
				IngredientID: id,
				Amount:       item.Amount,
			})
		}
	}

	if req.Tags != nil {
		input.TagIDs = make([]uuid.UUID, 0, len(req.Tags))
		for _, raw := range req.Tags {
			id, err := uuid.Parse(raw)
			if err != nil {
				return nil, apperror.Validation("tags", "invalid tag id")
			}
			input.TagIDs = append(input.TagIDs, id)
		}
	}

	return &input, nil
}

// boolishQuery accepts the usual truthy spellings; anything else counts
// as absent.
func boolishQuery(c *gin.Context, name string) bool {
	switch strings.ToLower(c.Query(name)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
