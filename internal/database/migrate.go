package database

import (
	"log"

	"gorm.io/gorm"

	"github.com/Eduard-Golovash/foodgram-project-react/internal/models"
)

// RunMigrations brings the schema up to date for every entity, including
// the unique indexes the membership and catalog invariants depend on.
func RunMigrations(db *gorm.DB) error {
	log.Printf("Running schema migrations")
	return db.AutoMigrate(
		&models.User{},
		&models.Subscription{},
		&models.Ingredient{},
		&models.Tag{},
		&models.Recipe{},
		&models.RecipeIngredient{},
		&models.Membership{},
	)
}
