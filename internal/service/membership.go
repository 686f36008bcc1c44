package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Eduard-Golovash/foodgram-project-react/internal/apperror"
	"github.com/Eduard-Golovash/foodgram-project-react/internal/models"
)

// RecipeFlags carries the per-caller membership annotations of one recipe.
type RecipeFlags struct {
	IsFavorited      bool
	IsInShoppingCart bool
}

// MembershipService maintains the favorite/shopping-cart ledger and author
// subscriptions. Uniqueness of a (kind, user, recipe) row is enforced by
// the store's unique index, so a racing double-add yields one winner and
// one conflict.
type MembershipService struct {
	db *gorm.DB
}

func NewMembershipService(db *gorm.DB) *MembershipService {
	return &MembershipService{db: db}
}

// AddRecipe records the recipe under the given relation for the user and
// returns the recipe for the response short form.
func (s *MembershipService) AddRecipe(ctx context.Context, kind models.MembershipKind, userID, recipeID uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("recipe not found")
		}
		return nil, err
	}

	membership := models.Membership{
		ID:       uuid.New(),
		Kind:     kind,
		UserID:   userID,
		RecipeID: recipeID,
	}
	if err := s.db.WithContext(ctx).Create(&membership).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("recipe is already in " + kind.Label())
		}
		return nil, err
	}
	return &recipe, nil
}

// RemoveRecipe deletes the membership row; removing a recipe that is not a
// member is a conflict, not a no-op.
func (s *MembershipService) RemoveRecipe(ctx context.Context, kind models.MembershipKind, userID, recipeID uuid.UUID) error {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("recipe not found")
		}
		return err
	}

	result := s.db.WithContext(ctx).
		Where("kind = ? AND user_id = ? AND recipe_id = ?", kind, userID, recipeID).
		Delete(&models.Membership{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperror.Conflict("recipe is not in " + kind.Label())
	}
	return nil
}

// Flags returns the favorite/shopping-cart annotations for the given
// recipes in one batched query. A nil userID (anonymous caller) yields all
// flags false without touching the store.
func (s *MembershipService) Flags(ctx context.Context, userID *uuid.UUID, recipeIDs []uuid.UUID) (map[uuid.UUID]RecipeFlags, error) {
	flags := make(map[uuid.UUID]RecipeFlags, len(recipeIDs))
	if userID == nil || len(recipeIDs) == 0 {
		return flags, nil
	}

	var rows []models.Membership
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id IN ?", *userID, recipeIDs).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		f := flags[row.RecipeID]
		switch row.Kind {
		case models.MembershipFavorite:
			f.IsFavorited = true
		case models.MembershipShoppingCart:
			f.IsInShoppingCart = true
		}
		flags[row.RecipeID] = f
	}
	return flags, nil
}

// Subscribe records that userID follows authorID.
func (s *MembershipService) Subscribe(ctx context.Context, userID, authorID uuid.UUID) (*models.User, error) {
	if userID == authorID {
		return nil, apperror.Validation("author", "cannot subscribe to yourself")
	}

	var author models.User
	if err := s.db.WithContext(ctx).First(&author, "id = ?", authorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("author not found")
		}
		return nil, err
	}

	subscription := models.Subscription{
		ID:       uuid.New(),
		UserID:   userID,
		AuthorID: authorID,
	}
	if err := s.db.WithContext(ctx).Create(&subscription).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("already subscribed to this author")
		}
		return nil, err
	}
	return &author, nil
}

func (s *MembershipService) Unsubscribe(ctx context.Context, userID, authorID uuid.UUID) error {
	var author models.User
	if err := s.db.WithContext(ctx).First(&author, "id = ?", authorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("author not found")
		}
		return err
	}

	result := s.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Delete(&models.Subscription{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperror.Conflict("not subscribed to this author")
	}
	return nil
}

// IsSubscribed is a pure existence check; anonymous callers evaluate false.
func (s *MembershipService) IsSubscribed(ctx context.Context, userID *uuid.UUID, authorID uuid.UUID) (bool, error) {
	if userID == nil || *userID == authorID {
		return false, nil
	}
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("user_id = ? AND author_id = ?", *userID, authorID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// SubscribedAuthors lists the authors the user follows, ordered by username.
func (s *MembershipService) SubscribedAuthors(ctx context.Context, userID uuid.UUID) ([]models.User, error) {
	var authors []models.User
	err := s.db.WithContext(ctx).
		Joins("JOIN subscriptions ON subscriptions.author_id = users.id").
		Where("subscriptions.user_id = ?", userID).
		Order("users.username").
		Find(&authors).Error
	if err != nil {
		return nil, err
	}
	return authors, nil
}
