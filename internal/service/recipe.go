package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Eduard-Golovash/foodgram-project-react/internal/apperror"
	"github.com/Eduard-Golovash/foodgram-project-react/internal/models"
)

// IngredientAmount is one (ingredient, amount) pair of a create/update
// submission.
type IngredientAmount struct {
	IngredientID uuid.UUID `json:"id"`
	Amount       int       `json:"amount"`
}

// RecipeInput carries the writable recipe fields. For Update, a nil
// Ingredients or TagIDs slice means "keep the current set"; a non-nil one
// replaces the whole set.
type RecipeInput struct {
	Name        string
	Image       string
	Text        string
	CookingTime int
	Ingredients []IngredientAmount
	TagIDs      []uuid.UUID
}

// RecipeFilter narrows and scopes the recipe list. FavoritedBy and
// InCartBy are only set for authenticated callers; anonymous callers get
// the unfiltered set.
type RecipeFilter struct {
	TagSlugs    []string
	AuthorID    *uuid.UUID
	FavoritedBy *uuid.UUID
	InCartBy    *uuid.UUID
	Limit       int
	Offset      int
}

// RecipeService owns recipes, their ingredient associations and tag links.
type RecipeService struct {
	db *gorm.DB
}

func NewRecipeService(db *gorm.DB) *RecipeService {
	return &RecipeService{db: db}
}

// Create validates the submission and persists the recipe together with
// its ingredient rows and tag links in one transaction.
func (s *RecipeService) Create(ctx context.Context, authorID uuid.UUID, in RecipeInput) (*models.Recipe, error) {
	if in.Name == "" {
		return nil, apperror.Validation("name", "name is required")
	}
	if in.CookingTime < 1 {
		return nil, apperror.Validation("cooking_time", "cooking time must be at least 1 minute")
	}

	recipe := models.Recipe{
		ID:          uuid.New(),
		AuthorID:    authorID,
		Name:        in.Name,
		Image:       in.Image,
		Text:        in.Text,
		CookingTime: in.CookingTime,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags, err := s.resolveTags(tx, in.TagIDs)
		if err != nil {
			return err
		}
		rows, err := s.buildIngredientRows(tx, recipe.ID, in.Ingredients)
		if err != nil {
			return err
		}

		recipe.Tags = tags
		recipe.Ingredients = rows
		// Omit("Tags.*") keeps the create from touching the tags table
		// itself while still writing the join rows.
		return tx.Omit("Tags.*").Create(&recipe).Error
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, recipe.ID)
}

// Update applies field changes and, when provided, replaces the whole
// ingredient or tag set. Replacement is delete-all-then-insert inside the
// transaction, so readers never observe a recipe without ingredients.
func (s *RecipeService) Update(ctx context.Context, requesterID, recipeID uuid.UUID, in RecipeInput) (*models.Recipe, error) {
	recipe, err := s.Get(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if recipe.AuthorID != requesterID {
		return nil, apperror.Forbidden("only the author can modify this recipe")
	}
	if in.Name == "" {
		return nil, apperror.Validation("name", "name is required")
	}
	if in.CookingTime < 1 {
		return nil, apperror.Validation("cooking_time", "cooking time must be at least 1 minute")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"name":         in.Name,
			"text":         in.Text,
			"cooking_time": in.CookingTime,
		}
		if in.Image != "" {
			updates["image"] = in.Image
		}
		if err := tx.Model(&models.Recipe{}).Where("id = ?", recipeID).Updates(updates).Error; err != nil {
			return err
		}

		if in.Ingredients != nil {
			rows, err := s.buildIngredientRows(tx, recipeID, in.Ingredients)
			if err != nil {
				return err
			}
			if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
				return err
			}
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}

		if in.TagIDs != nil {
			tags, err := s.resolveTags(tx, in.TagIDs)
			if err != nil {
				return err
			}
			if err := tx.Model(&models.Recipe{ID: recipeID}).Association("Tags").Replace(tags); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, recipeID)
}

// Delete removes the recipe and cascades its ingredient rows, tag links
// and every favorite/shopping-cart row pointing at it.
func (s *RecipeService) Delete(ctx context.Context, requesterID, recipeID uuid.UUID) error {
	recipe, err := s.Get(ctx, recipeID)
	if err != nil {
		return err
	}
	if recipe.AuthorID != requesterID {
		return apperror.Forbidden("only the author can delete this recipe")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.Membership{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM recipe_tags WHERE recipe_id = ?", recipeID).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Recipe{}, "id = ?", recipeID).Error
	})
}

// Get returns the recipe with its author, tags and resolved ingredients.
func (s *RecipeService) Get(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).
		Preload("Author").
		Preload("Tags").
		Preload("Ingredients.Ingredient").
		First(&recipe, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("recipe not found")
		}
		return nil, err
	}
	return &recipe, nil
}

// List returns recipes matching the filter, newest first with a stable id
// tiebreak.
func (s *RecipeService) List(ctx context.Context, f RecipeFilter) ([]models.Recipe, error) {
	query := s.db.WithContext(ctx).Model(&models.Recipe{}).
		Preload("Author").
		Preload("Tags").
		Preload("Ingredients.Ingredient")

	if len(f.TagSlugs) > 0 {
		tagged := s.db.Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", f.TagSlugs)
		query = query.Where("recipes.id IN (?)", tagged)
	}
	if f.AuthorID != nil {
		query = query.Where("recipes.author_id = ?", *f.AuthorID)
	}
	if f.FavoritedBy != nil {
		query = query.Where("recipes.id IN (?)", s.membershipRecipeIDs(models.MembershipFavorite, *f.FavoritedBy))
	}
	if f.InCartBy != nil {
		query = query.Where("recipes.id IN (?)", s.membershipRecipeIDs(models.MembershipShoppingCart, *f.InCartBy))
	}
	if f.Limit > 0 {
		query = query.Limit(f.Limit).Offset(f.Offset)
	}

	var recipes []models.Recipe
	if err := query.Order("recipes.created_at DESC, recipes.id ASC").Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

func (s *RecipeService) membershipRecipeIDs(kind models.MembershipKind, userID uuid.UUID) *gorm.DB {
	return s.db.Table("memberships").
		Select("memberships.recipe_id").
		Where("memberships.kind = ? AND memberships.user_id = ?", kind, userID)
}

func (s *RecipeService) buildIngredientRows(tx *gorm.DB, recipeID uuid.UUID, items []IngredientAmount) ([]models.RecipeIngredient, error) {
	if len(items) == 0 {
		return nil, apperror.Validation("ingredients", "at least one ingredient is required")
	}

	ids := make([]uuid.UUID, 0, len(items))
	seen := make(map[uuid.UUID]bool, len(items))
	for _, item := range items {
		if item.Amount < 1 {
			return nil, apperror.Validation("ingredients", "ingredient amount must be at least 1")
		}
		if seen[item.IngredientID] {
			return nil, apperror.Validation("ingredients", "ingredients must be unique")
		}
		seen[item.IngredientID] = true
		ids = append(ids, item.IngredientID)
	}

	var count int64
	if err := tx.Model(&models.Ingredient{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return nil, err
	}
	if int(count) != len(ids) {
		return nil, apperror.Validation("ingredients", "ingredient does not exist")
	}

	rows := make([]models.RecipeIngredient, 0, len(items))
	for _, item := range items {
		rows = append(rows, models.RecipeIngredient{
			ID:           uuid.New(),
			RecipeID:     recipeID,
			IngredientID: item.IngredientID,
			Amount:       item.Amount,
		})
	}
	return rows, nil
}

func (s *RecipeService) resolveTags(tx *gorm.DB, ids []uuid.UUID) ([]models.Tag, error) {
	if len(ids) == 0 {
		return nil, apperror.Validation("tags", "at least one tag is required")
	}
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return nil, apperror.Validation("tags", "tags must be unique")
		}
		seen[id] = true
	}

	var tags []models.Tag
	if err := tx.Where("id IN ?", ids).Find(&tags).Error; err != nil {
		return nil, err
	}
	if len(tags) != len(ids) {
		return nil, apperror.Validation("tags", "tag does not exist")
	}
	return tags, nil
}
