package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Eduard-Golovash/foodgram-project-react/config"
	"github.com/Eduard-Golovash/foodgram-project-react/internal/database"
	"github.com/Eduard-Golovash/foodgram-project-react/internal/models"
)

// defaultTags is the fixed tag set a fresh installation starts with.
var defaultTags = []models.Tag{
	{Name: "Завтрак", Color: "#E26C2D", Slug: "breakfast"},
	{Name: "Обед", Color: "#49B64E", Slug: "lunch"},
	{Name: "Ужин", Color: "#8775D2", Slug: "dinner"},
}

type ingredientFixture struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

func main() {
	fixturePath := flag.String("ingredients", "fixtures/ingredients.json", "path to an ingredients fixture (.json or .csv)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	ingredients, err := loadIngredients(*fixturePath)
	if err != nil {
		log.Fatalf("Failed to read fixture: %v", err)
	}

	if err := seed(db, ingredients); err != nil {
		log.Fatalf("Failed to seed catalog: %v", err)
	}
	log.Printf("Seeded %d ingredients and %d tags", len(ingredients), len(defaultTags))
}

func loadIngredients(path string) ([]ingredientFixture, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return loadJSON(path)
	case ".csv":
		return loadCSV(path)
	}
	return nil, fmt.Errorf("unsupported fixture format: %s", path)
}

func loadJSON(path string) ([]ingredientFixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fixtures []ingredientFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return nil, err
	}
	return fixtures, nil
}

func loadCSV(path string) ([]ingredientFixture, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}

	fixtures := make([]ingredientFixture, 0, len(rows))
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		fixtures = append(fixtures, ingredientFixture{
			Name:            strings.TrimSpace(row[0]),
			MeasurementUnit: strings.TrimSpace(row[1]),
		})
	}
	return fixtures, nil
}

// seed inserts fixtures idempotently: rows that already exist under their
// unique keys are left alone.
func seed(db *gorm.DB, ingredients []ingredientFixture) error {
	for _, fixture := range ingredients {
		ingredient := models.Ingredient{
			ID:              uuid.New(),
			Name:            fixture.Name,
			MeasurementUnit: fixture.MeasurementUnit,
		}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&ingredient).Error; err != nil {
			return err
		}
	}

	for _, tag := range defaultTags {
		tag.ID = uuid.New()
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&tag).Error; err != nil {
			return err
		}
	}
	return nil
}
