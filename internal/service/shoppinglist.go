package service

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
	"gorm.io/gorm"

	"github.com/Eduard-Golovash/foodgram-project-react/internal/apperror"
	"github.com/Eduard-Golovash/foodgram-project-react/internal/models"
)

// Layout of the exported document, expressed in points.
const (
	exportFontSize   = 12
	exportLeftMargin = 100.0
	exportTopLine    = 90.0
	exportLineStep   = 15.0
	exportBottomLine = 780.0
)

// AggregateEntry is one grouped line of a shopping list: every occurrence
// of (name, unit) across the carted recipes summed into a single amount.
type AggregateEntry struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

// ShoppingListService aggregates the shopping cart of a user and renders
// it as a printable PDF.
type ShoppingListService struct {
	db       *gorm.DB
	fontPath string
}

func NewShoppingListService(db *gorm.DB, fontPath string) *ShoppingListService {
	return &ShoppingListService{db: db, fontPath: fontPath}
}

// Aggregate sums ingredient amounts across every recipe in the user's
// shopping cart, grouped by (name, measurement unit). The ordering by name
// then unit makes repeated exports byte-for-byte reproducible for the same
// cart. An empty cart yields an empty aggregate.
func (s *ShoppingListService) Aggregate(ctx context.Context, userID uuid.UUID) ([]AggregateEntry, error) {
	carted := s.db.Table("memberships").
		Select("memberships.recipe_id").
		Where("memberships.kind = ? AND memberships.user_id = ?", models.MembershipShoppingCart, userID)

	var entries []AggregateEntry
	err := s.db.WithContext(ctx).Table("recipe_ingredients").
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(recipe_ingredients.amount) AS amount").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Where("recipe_ingredients.recipe_id IN (?)", carted).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name, ingredients.measurement_unit").
		Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Export renders the aggregate as a PDF: a title line, then one line per
// entry, breaking to a new page when the vertical space runs out. The
// registered TTF font keeps non-Latin ingredient names intact; a missing
// font fails the export instead of producing a corrupt document.
func (s *ShoppingListService) Export(entries []AggregateEntry) ([]byte, error) {
	if _, err := os.Stat(s.fontPath); err != nil {
		return nil, apperror.Render("export font is not available: " + s.fontPath)
	}

	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.AddUTF8Font("shoppinglist", "", s.fontPath)
	pdf.AddPage()
	pdf.SetFont("shoppinglist", "", exportFontSize)

	pdf.Text(exportLeftMargin, exportTopLine-2*exportLineStep, "Список покупок:")

	y := exportTopLine
	for _, entry := range entries {
		pdf.Text(exportLeftMargin, y, fmt.Sprintf("%s - %d %s", entry.Name, entry.Amount, entry.MeasurementUnit))
		y += exportLineStep
		if y > exportBottomLine {
			pdf.AddPage()
			y = exportTopLine
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, apperror.Render("failed to render shopping list: " + err.Error())
	}
	return buf.Bytes(), nil
}
