package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/Eduard-Golovash/foodgram-project-react/internal/apperror"
	"github.com/Eduard-Golovash/foodgram-project-react/internal/models"
)

func TestAddRecipeMembership(t *testing.T) {
	db := setupTestDB(t)
	recipes := NewRecipeService(db)
	memberships := NewMembershipService(db)
	author := createTestUser(t, db, "author")
	fan := createTestUser(t, db, "fan")
	flour := createTestIngredient(t, db, "flour", "g")
	tag := createTestTag(t, db, "Breakfast", "#E26C2D", "breakfast")
	recipe := createTestRecipe(t, recipes, author.ID, "Pancakes",
		[]IngredientAmount{{IngredientID: flour.ID, Amount: 200}},
		[]uuid.UUID{tag.ID},
	)
	ctx := context.Background()

	added, err := memberships.AddRecipe(ctx, models.MembershipFavorite, fan.ID, recipe.ID)
	assert.NoError(t, err)
	assert.Equal(t, recipe.ID, added.ID)

	// A second add of the same pair converges on a conflict, not a second row.
	_, err = memberships.AddRecipe(ctx, models.MembershipFavorite, fan.ID, recipe.ID)
	assert.True(t, apperror.IsKind(err, apperror.KindConflict), "expected conflict, got %v", err)

	var rows int64
	assert.NoError(t, db.Model(&models.Membership{}).
		Where("kind = ? AND user_id = ? AND recipe_id = ?", models.MembershipFavorite, fan.ID, recipe.ID).
		Count(&rows).Error)
	assert.EqualValues(t, 1, rows)

	// The shopping cart is a separate relation for the same pair.
	_, err = memberships.AddRecipe(ctx, models.MembershipShoppingCart, fan.ID, recipe.ID)
	assert.NoError(t, err)
}

func TestAddRecipeMembershipUnknownRecipe(t *testing.T) {
	db := setupTestDB(t)
	memberships := NewMembershipService(db)
	fan := createTestUser(t, db, "fan")

	_, err := memberships.AddRecipe(context.Background(), models.MembershipFavorite, fan.ID, uuid.New())

	assert.True(t, apperror.IsKind(err, apperror.KindNotFound), "expected not found, got %v", err)
}

func TestRemoveRecipeMembership(t *testing.T) {
	db := setupTestDB(t)
	recipes := NewRecipeService(db)
	memberships := NewMembershipService(db)
	author := createTestUser(t, db, "author")
	fan := createTestUser(t, db, "fan")
	flour := createTestIngredient(t, db, "flour", "g")
	tag := createTestTag(t, db, "Breakfast", "#E26C2D", "breakfast")
	recipe := createTestRecipe(t, recipes, author.ID, "Pancakes",
		[]IngredientAmount{{IngredientID: flour.ID, Amount: 200}},
		[]uuid.UUID{tag.ID},
	)
	ctx := context.Background()

	// Removing a recipe that was never added is a conflict.
	err := memberships.RemoveRecipe(ctx, models.MembershipFavorite, fan.ID, recipe.ID)
	assert.True(t, apperror.IsKind(err, apperror.KindConflict), "expected conflict, got %v", err)

	_, err = memberships.AddRecipe(ctx, models.MembershipFavorite, fan.ID, recipe.ID)
	assert.NoError(t, err)
	assert.NoError(t, memberships.RemoveRecipe(ctx, models.MembershipFavorite, fan.ID, recipe.ID))

	err = memberships.RemoveRecipe(ctx, models.MembershipFavorite, fan.ID, recipe.ID)
	assert.True(t, apperror.IsKind(err, apperror.KindConflict), "expected conflict, got %v", err)
}

func TestMembershipFlags(t *testing.T) {
	db := setupTestDB(t)
	recipes := NewRecipeService(db)
	memberships := NewMembershipService(db)
	author := createTestUser(t, db, "author")
	fan := createTestUser(t, db, "fan")
	flour := createTestIngredient(t, db, "flour", "g")
	tag := createTestTag(t, db, "Breakfast", "#E26C2D", "breakfast")
	base := []IngredientAmount{{IngredientID: flour.ID, Amount: 100}}
	first := createTestRecipe(t, recipes, author.ID, "First", base, []uuid.UUID{tag.ID})
	second := createTestRecipe(t, recipes, author.ID, "Second", base, []uuid.UUID{tag.ID})
	ctx := context.Background()

	_, err := memberships.AddRecipe(ctx, models.MembershipFavorite, fan.ID, first.ID)
	assert.NoError(t, err)
	_, err = memberships.AddRecipe(ctx, models.MembershipShoppingCart, fan.ID, second.ID)
	assert.NoError(t, err)

	flags, err := memberships.Flags(ctx, &fan.ID, []uuid.UUID{first.ID, second.ID})
	assert.NoError(t, err)
	assert.True(t, flags[first.ID].IsFavorited)
	assert.False(t, flags[first.ID].IsInShoppingCart)
	assert.False(t, flags[second.ID].IsFavorited)
	assert.True(t, flags[second.ID].IsInShoppingCart)

	// Anonymous callers see no flags at all.
	anon, err := memberships.Flags(ctx, nil, []uuid.UUID{first.ID, second.ID})
	assert.NoError(t, err)
	assert.Empty(t, anon)
}

func TestSubscribe(t *testing.T) {
	db := setupTestDB(t)
	memberships := NewMembershipService(db)
	reader := createTestUser(t, db, "reader")
	writer := createTestUser(t, db, "writer")
	ctx := context.Background()

	author, err := memberships.Subscribe(ctx, reader.ID, writer.ID)
	assert.NoError(t, err)
	assert.Equal(t, "writer", author.Username)

	_, err = memberships.Subscribe(ctx, reader.ID, writer.ID)
	assert.True(t, apperror.IsKind(err, apperror.KindConflict), "expected conflict, got %v", err)

	_, err = memberships.Subscribe(ctx, reader.ID, reader.ID)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation), "expected validation, got %v", err)

	_, err = memberships.Subscribe(ctx, reader.ID, uuid.New())
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound), "expected not found, got %v", err)

	subscribed, err := memberships.IsSubscribed(ctx, &reader.ID, writer.ID)
	assert.NoError(t, err)
	assert.True(t, subscribed)

	anon, err := memberships.IsSubscribed(ctx, nil, writer.ID)
	assert.NoError(t, err)
	assert.False(t, anon)

	authors, err := memberships.SubscribedAuthors(ctx, reader.ID)
	assert.NoError(t, err)
	if assert.Len(t, authors, 1) {
		assert.Equal(t, "writer", authors[0].Username)
	}
}

func TestUnsubscribe(t *testing.T) {
	db := setupTestDB(t)
	memberships := NewMembershipService(db)
	reader := createTestUser(t, db, "reader")
	writer := createTestUser(t, db, "writer")
	ctx := context.Background()

	err := memberships.Unsubscribe(ctx, reader.ID, writer.ID)
	assert.True(t, apperror.IsKind(err, apperror.KindConflict), "expected conflict, got %v", err)

	_, err = memberships.Subscribe(ctx, reader.ID, writer.ID)
	assert.NoError(t, err)
	assert.NoError(t, memberships.Unsubscribe(ctx, reader.ID, writer.ID))

	subscribed, err := memberships.IsSubscribed(ctx, &reader.ID, writer.ID)
	assert.NoError(t, err)
	assert.False(t, subscribed)
}
