package models

import (
	"time"

	"github.com/google/uuid"
)

// MembershipKind names a user↔recipe relation. Favorites and the shopping
// cart share one table and one uniqueness rule, keyed by kind.
type MembershipKind string

const (
	MembershipFavorite     MembershipKind = "favorite"
	MembershipShoppingCart MembershipKind = "shopping_cart"
)

// Label is the human-readable name used in conflict messages.
func (k MembershipKind) Label() string {
	if k == MembershipShoppingCart {
		return "shopping cart"
	}
	return "favorites"
}

type Membership struct {
	ID        uuid.UUID      `gorm:"type:varchar(36);primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	Kind      MembershipKind `gorm:"size:32;not null;uniqueIndex:idx_memberships_kind_user_recipe" json:"kind"`
	UserID    uuid.UUID      `gorm:"type:varchar(36);not null;uniqueIndex:idx_memberships_kind_user_recipe" json:"user_id"`
	RecipeID  uuid.UUID      `gorm:"type:varchar(36);not null;uniqueIndex:idx_memberships_kind_user_recipe;index" json:"recipe_id"`
}
