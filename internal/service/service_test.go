package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Eduard-Golovash/foodgram-project-react/internal/database"
	"github.com/Eduard-Golovash/foodgram-project-react/internal/models"
)

// setupTestDB opens an isolated in-memory database with the production
// schema. TranslateError matches the production connection so duplicate
// keys surface the same way.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

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
	// A single connection keeps every query on the same :memory: database.
	sqlDB.SetMaxOpenConns(1)

	if err := database.RunMigrations(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte("testpassword123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := models.User{
		ID:           uuid.New(),
		Email:        username + "@example.com",
		Username:     username,
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: string(hashed),
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return &user
}

func createTestIngredient(t *testing.T, db *gorm.DB, name, unit string) *models.Ingredient {
	t.Helper()

	ingredient := models.Ingredient{
		ID:              uuid.New(),
		Name:            name,
		MeasurementUnit: unit,
	}
	if err := db.Create(&ingredient).Error; err != nil {
		t.Fatalf("failed to create test ingredient: %v", err)
	}
	return &ingredient
}

func createTestTag(t *testing.T, db *gorm.DB, name, color, slug string) *models.Tag {
	t.Helper()

	tag := models.Tag{
		ID:    uuid.New(),
		Name:  name,
		Color: color,
		Slug:  slug,
	}
	if err := db.Create(&tag).Error; err != nil {
		t.Fatalf("failed to create test tag: %v", err)
	}
	return &tag
}

// recipeTimestamp returns fixed, increasing creation times for ordering
// assertions.
func recipeTimestamp(i int) time.Time {
	return time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Hour)
}

func createTestRecipe(t *testing.T, recipes *RecipeService, authorID uuid.UUID, name string, ingredients []IngredientAmount, tagIDs []uuid.UUID) *models.Recipe {
	t.Helper()

	recipe, err := recipes.Create(context.Background(), authorID, RecipeInput{
		Name:        name,
		Text:        "test recipe text",
		CookingTime: 30,
		Ingredients: ingredients,
		TagIDs:      tagIDs,
	})
	if err != nil {
		t.Fatalf("failed to create test recipe: %v", err)
	}
	return recipe
}
