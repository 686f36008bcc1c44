package api

import (
	"fmt"
	"hash/crc32"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/Eduard-Golovash/foodgram-project-react/internal/models"
	"github.com/Eduard-Golovash/foodgram-project-react/internal/service"
)

type recipeListBody struct {
	Recipes []RecipeResponse `json:"recipes"`
}

type recipeBody struct {
	Recipe RecipeResponse `json:"recipe"`
}

func seedRecipe(t *testing.T, env *testEnv, authorID uuid.UUID, name string) *models.Recipe {
	t.Helper()
	flour := env.createIngredient(t, name+" flour", "g")
	// Tag names, colors and slugs are all unique, so derive them from the
	// recipe name.
	color := fmt.Sprintf("#%06X", crc32.ChecksumIEEE([]byte(name))&0xFFFFFF)
	tag := env.createTag(t, name+" tag", color, name+"-tag")
	return env.createRecipe(t, authorID, name,
		[]service.IngredientAmount{{IngredientID: flour.ID, Amount: 100}},
		[]uuid.UUID{tag.ID},
	)
}

func TestListRecipesAnonymousFlagsPresent(t *testing.T) {
	env := setupTestEnv(t)
	author, _ := env.registerUser(t, "author")
	seedRecipe(t, env, author.ID, "Pancakes")

	w := env.request(t, http.MethodGet, "/api/v1/recipes", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	// Flags are present and false for anonymous callers.
	assert.Contains(t, w.Body.String(), `"is_favorited":false`)
	assert.Contains(t, w.Body.String(), `"is_in_shopping_cart":false`)

	var body recipeListBody
	decodeJSON(t, w, &body)
	if assert.Len(t, body.Recipes, 1) {
		assert.Equal(t, "Pancakes", body.Recipes[0].Name)
		assert.Equal(t, "author", body.Recipes[0].Author.Username)
	}
}

func TestListRecipesAnonymousMembershipFilterIgnored(t *testing.T) {
	env := setupTestEnv(t)
	author, _ := env.registerUser(t, "author")
	seedRecipe(t, env, author.ID, "Pancakes")
	seedRecipe(t, env, author.ID, "Bread")

	w := env.request(t, http.MethodGet, "/api/v1/recipes?is_favorited=true", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var body recipeListBody
	decodeJSON(t, w, &body)
	assert.Len(t, body.Recipes, 2)
}

func TestListRecipesMalformedParamsIgnored(t *testing.T) {
	env := setupTestEnv(t)
	author, _ := env.registerUser(t, "author")
	seedRecipe(t, env, author.ID, "Pancakes")

	w := env.request(t, http.MethodGet, "/api/v1/recipes?author=not-a-uuid&limit=abc", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var body recipeListBody
	decodeJSON(t, w, &body)
	assert.Len(t, body.Recipes, 1)
}

func TestCreateRecipe(t *testing.T) {
	env := setupTestEnv(t)
	_, token := env.registerUser(t, "author")
	flour := env.createIngredient(t, "flour", "g")
	tag := env.createTag(t, "Breakfast", "#E26C2D", "breakfast")

	payload := map[string]interface{}{
		"name":         "Pancakes",
		"text":         "Mix and fry",
		"cooking_time": 20,
		"ingredients":  []map[string]interface{}{{"id": flour.ID.String(), "amount": 200}},
		"tags":         []string{tag.ID.String()},
	}
	w := env.request(t, http.MethodPost, "/api/v1/recipes", token, payload)

	assert.Equal(t, http.StatusCreated, w.Code)
	var body recipeBody
	decodeJSON(t, w, &body)
	assert.Equal(t, "Pancakes", body.Recipe.Name)
	assert.Equal(t, "author", body.Recipe.Author.Username)
	assert.Len(t, body.Recipe.Ingredients, 1)
	assert.Len(t, body.Recipe.Tags, 1)
	assert.False(t, body.Recipe.IsFavorited)
}

func TestCreateRecipeRequiresAuth(t *testing.T) {
	env := setupTestEnv(t)

	w := env.request(t, http.MethodPost, "/api/v1/recipes", "", map[string]interface{}{"name": "x"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateRecipeValidationErrors(t *testing.T) {
	env := setupTestEnv(t)
	_, token := env.registerUser(t, "author")
	tag := env.createTag(t, "Breakfast", "#E26C2D", "breakfast")

	payload := map[string]interface{}{
		"name":         "Pancakes",
		"text":         "Mix and fry",
		"cooking_time": 20,
		"ingredients":  []map[string]interface{}{},
		"tags":         []string{tag.ID.String()},
	}
	w := env.request(t, http.MethodPost, "/api/v1/recipes", token, payload)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"ingredients"`)
}

func TestUpdateRecipeForbiddenForNonAuthor(t *testing.T) {
	env := setupTestEnv(t)
	author, _ := env.registerUser(t, "author")
	_, otherToken := env.registerUser(t, "other")
	recipe := seedRecipe(t, env, author.ID, "Pancakes")

	payload := map[string]interface{}{
		"name":         "Hijacked",
		"text":         "x",
		"cooking_time": 1,
	}
	w := env.request(t, http.MethodPut, "/api/v1/recipes/"+recipe.ID.String(), otherToken, payload)

	assert.Equal(t, http.StatusForbidden, w.Code)

	// The recipe is untouched.
	got := env.request(t, http.MethodGet, "/api/v1/recipes/"+recipe.ID.String(), "", nil)
	assert.Equal(t, http.StatusOK, got.Code)
	assert.Contains(t, got.Body.String(), `"name":"Pancakes"`)
}

func TestFavoriteFlow(t *testing.T) {
	env := setupTestEnv(t)
	author, _ := env.registerUser(t, "author")
	_, fanToken := env.registerUser(t, "fan")
	recipe := seedRecipe(t, env, author.ID, "Pancakes")
	path := fmt.Sprintf("/api/v1/recipes/%s/favorite", recipe.ID)

	w := env.request(t, http.MethodPost, path, fanToken, nil)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Pancakes"`)

	// Adding twice converges on a conflict.
	w = env.request(t, http.MethodPost, path, fanToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// The list now annotates the recipe for the fan.
	list := env.request(t, http.MethodGet, "/api/v1/recipes", fanToken, nil)
	assert.Equal(t, http.StatusOK, list.Code)
	assert.Contains(t, list.Body.String(), `"is_favorited":true`)
	assert.Contains(t, list.Body.String(), `"is_in_shopping_cart":false`)

	w = env.request(t, http.MethodDelete, path, fanToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.request(t, http.MethodDelete, path, fanToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestShoppingCartFilter(t *testing.T) {
	env := setupTestEnv(t)
	author, _ := env.registerUser(t, "author")
	_, fanToken := env.registerUser(t, "fan")
	pancakes := seedRecipe(t, env, author.ID, "Pancakes")
	seedRecipe(t, env, author.ID, "Bread")

	w := env.request(t, http.MethodPost, fmt.Sprintf("/api/v1/recipes/%s/shopping_cart", pancakes.ID), fanToken, nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	list := env.request(t, http.MethodGet, "/api/v1/recipes?is_in_shopping_cart=1", fanToken, nil)
	assert.Equal(t, http.StatusOK, list.Code)
	var listBody recipeListBody
	decodeJSON(t, list, &listBody)
	if assert.Len(t, listBody.Recipes, 1) {
		assert.Equal(t, "Pancakes", listBody.Recipes[0].Name)
		assert.True(t, listBody.Recipes[0].IsInShoppingCart)
	}
}

func TestDeleteRecipeRemovesFromCarts(t *testing.T) {
	env := setupTestEnv(t)
	author, authorToken := env.registerUser(t, "author")
	_, fanToken := env.registerUser(t, "fan")
	recipe := seedRecipe(t, env, author.ID, "Pancakes")

	w := env.request(t, http.MethodPost, fmt.Sprintf("/api/v1/recipes/%s/shopping_cart", recipe.ID), fanToken, nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = env.request(t, http.MethodDelete, "/api/v1/recipes/"+recipe.ID.String(), authorToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	list := env.request(t, http.MethodGet, "/api/v1/recipes?is_in_shopping_cart=true", fanToken, nil)
	assert.Equal(t, http.StatusOK, list.Code)
	var listBody recipeListBody
	decodeJSON(t, list, &listBody)
	assert.Empty(t, listBody.Recipes)
}

func TestGetRecipeNotFound(t *testing.T) {
	env := setupTestEnv(t)

	w := env.request(t, http.MethodGet, "/api/v1/recipes/"+uuid.NewString(), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.request(t, http.MethodGet, "/api/v1/recipes/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDownloadShoppingCartMissingFont(t *testing.T) {
	env := setupTestEnv(t)
	author, _ := env.registerUser(t, "author")
	_, fanToken := env.registerUser(t, "fan")
	recipe := seedRecipe(t, env, author.ID, "Pancakes")

	w := env.request(t, http.MethodPost, fmt.Sprintf("/api/v1/recipes/%s/shopping_cart", recipe.ID), fanToken, nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	// The test stack points at a font path that does not exist, so the
	// renderer reports a server-side failure.
	w = env.request(t, http.MethodGet, "/api/v1/recipes/download_shopping_cart", fanToken, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"kind":"render"`)
}

func TestDownloadShoppingCartRequiresAuth(t *testing.T) {
	env := setupTestEnv(t)

	w := env.request(t, http.MethodGet, "/api/v1/recipes/download_shopping_cart", "", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
