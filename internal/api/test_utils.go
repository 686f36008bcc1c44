package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Eduard-Golovash/foodgram-project-react/internal/database"
	"github.com/Eduard-Golovash/foodgram-project-react/internal/models"
	"github.com/Eduard-Golovash/foodgram-project-react/internal/service"
)

// testEnv wires the full handler stack onto an in-memory database, the
// way main does, minus redis and object storage.
type testEnv struct {
	db          *gorm.DB
	router      *gin.Engine
	auth        *service.AuthService
	recipes     *service.RecipeService
	memberships *service.MembershipService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := database.RunMigrations(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	auth := service.NewAuthService(db, "test-secret")
	recipes := service.NewRecipeService(db)
	memberships := service.NewMembershipService(db)
	shopping := service.NewShoppingListService(db, "testdata/no-such-font.ttf")
	images := service.NewImageService(nil)
	catalog := service.NewCatalogService(db)

	router := gin.New()
	v1 := router.Group("/api/v1")
	NewAuthHandler(auth).RegisterRoutes(v1)
	NewUserHandler(auth, memberships, recipes).RegisterRoutes(v1)
	NewCatalogHandler(catalog).RegisterRoutes(v1)
	NewRecipeHandler(recipes, memberships, shopping, images, auth, nil).RegisterRoutes(v1)

	return &testEnv{
		db:          db,
		router:      router,
		auth:        auth,
		recipes:     recipes,
		memberships: memberships,
	}
}

// registerUser creates a user through the service and returns it with a
// valid bearer token.
func (e *testEnv) registerUser(t *testing.T, username string) (*models.User, string) {
	t.Helper()

	token, err := e.auth.Register(username+"@example.com", username, "Test", "User", "testpassword123")
	if err != nil {
		t.Fatalf("failed to register %s: %v", username, err)
	}
	claims, err := e.auth.ValidateToken(token)
	if err != nil {
		t.Fatalf("failed to validate token: %v", err)
	}
	user, err := e.auth.GetUser(claims.UserID)
	if err != nil {
		t.Fatalf("failed to load user: %v", err)
	}
	return user, token
}

func (e *testEnv) createIngredient(t *testing.T, name, unit string) *models.Ingredient {
	t.Helper()
	ingredient := models.Ingredient{ID: uuid.New(), Name: name, MeasurementUnit: unit}
	if err := e.db.Create(&ingredient).Error; err != nil {
		t.Fatalf("failed to create ingredient: %v", err)
	}
	return &ingredient
}

func (e *testEnv) createTag(t *testing.T, name, color, slug string) *models.Tag {
	t.Helper()
	tag := models.Tag{ID: uuid.New(), Name: name, Color: color, Slug: slug}
	if err := e.db.Create(&tag).Error; err != nil {
		t.Fatalf("failed to create tag: %v", err)
	}
	return &tag
}

func (e *testEnv) createRecipe(t *testing.T, authorID uuid.UUID, name string, ingredients []service.IngredientAmount, tagIDs []uuid.UUID) *models.Recipe {
	t.Helper()
	recipe, err := e.recipes.Create(testContext(), authorID, service.RecipeInput{
		Name:        name,
		Text:        "test recipe text",
		CookingTime: 15,
		Ingredients: ingredients,
		TagIDs:      tagIDs,
	})
	if err != nil {
		t.Fatalf("failed to create recipe: %v", err)
	}
	return recipe
}

// request performs an HTTP request against the test router. A non-empty
// token is sent as a bearer credential; a non-nil body is JSON-encoded.
func (e *testEnv) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func testContext() context.Context {
	return context.Background()
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
}
