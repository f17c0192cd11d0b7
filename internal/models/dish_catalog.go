package models

import (
	"github.com/jinzhu/gorm"
)

// DishCategories are the valid catalog categories (frontend dropdown order).
var DishCategories = []string{
	"soup",
	"protein_beef",
	"protein_chicken",
	"schnitzel",
	"chicken_breast",
	"fish",
	"vegan",
	"carbs",
	"legumes",
	"salads",
	"desserts",
	"side_dish",
	"other",
}

// DishCategoryLabels holds the bilingual display labels.
var DishCategoryLabels = map[string]string{
	"soup":            "Soup / מרק",
	"protein_beef":    "Protein - Beef / בקר",
	"protein_chicken": "Protein - Chicken / עוף",
	"schnitzel":       "Schnitzel / שניצל",
	"chicken_breast":  "Chicken Breast / חזה עוף",
	"fish":            "Fish / דג",
	"vegan":           "Vegan / טבעוני",
	"carbs":           "Carbs / פחמימות",
	"legumes":         "Legumes / קטניות",
	"salads":          "Salads / סלטים",
	"desserts":        "Desserts / קינוחים",
	"side_dish":       "Side Dish / תוספות",
	"other":           "Other / אחר",
}

// DishCatalog maps a dish name ever observed in a menu to an optional
// category and compliance rule. Uniqueness is enforced on the name so
// concurrent check runs racing on the same new dish resolve at the storage
// layer rather than in the engine.
type DishCatalog struct {
	gorm.Model
	DishName         string `gorm:"unique;not null;index"`
	Category         string // one of DishCategories, empty until assigned
	ComplianceRuleID uint
	Approved         bool
	// The check whose run first introduced this dish
	SourceCheckID uint
}

// TableName sets the table name for DishCatalog
func (DishCatalog) TableName() string {
	return "dish_catalog"
}
