package database

import (
	"fmt"

	"kakeibo/internal/models"

	"gorm.io/gorm"
)

type systemCategory struct {
	Name     string
	Type     models.CategoryType
	Icon     string
	Color    string
	Children []string
}

var systemCategories = []systemCategory{
	{Name: "Food", Type: models.CategoryTypeExpense, Icon: "utensils", Color: "#F97316", Children: []string{"Groceries", "Dining Out", "Cafe"}},
	{Name: "Daily Goods", Type: models.CategoryTypeExpense, Icon: "shopping-basket", Color: "#84CC16"},
	{Name: "Housing", Type: models.CategoryTypeExpense, Icon: "home", Color: "#0EA5E9", Children: []string{"Rent", "Furniture"}},
	{Name: "Utilities", Type: models.CategoryTypeExpense, Icon: "bolt", Color: "#EAB308", Children: []string{"Electricity", "Gas", "Water"}},
	{Name: "Communication", Type: models.CategoryTypeExpense, Icon: "phone", Color: "#6366F1"},
	{Name: "Transportation", Type: models.CategoryTypeExpense, Icon: "train", Color: "#14B8A6"},
	{Name: "Medical", Type: models.CategoryTypeExpense, Icon: "heart-pulse", Color: "#EF4444"},
	{Name: "Entertainment", Type: models.CategoryTypeExpense, Icon: "gamepad", Color: "#A855F7"},
	{Name: "Education", Type: models.CategoryTypeExpense, Icon: "book", Color: "#3B82F6"},
	{Name: "Clothing", Type: models.CategoryTypeExpense, Icon: "shirt", Color: "#EC4899"},
	{Name: "Insurance", Type: models.CategoryTypeExpense, Icon: "shield", Color: "#64748B"},
	{Name: "Other Expense", Type: models.CategoryTypeExpense, Icon: "ellipsis", Color: "#9CA3AF"},
	{Name: "Salary", Type: models.CategoryTypeIncome, Icon: "briefcase", Color: "#22C55E"},
	{Name: "Bonus", Type: models.CategoryTypeIncome, Icon: "gift", Color: "#10B981"},
	{Name: "Side Income", Type: models.CategoryTypeIncome, Icon: "laptop", Color: "#06B6D4"},
	{Name: "Investment Income", Type: models.CategoryTypeIncome, Icon: "chart-line", Color: "#8B5CF6"},
	{Name: "Other Income", Type: models.CategoryTypeIncome, Icon: "ellipsis", Color: "#9CA3AF"},
}

// SeedSystemCategories inserts the shared category tree. It is safe to call repeatedly.
func SeedSystemCategories(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, sc := range systemCategories {
			parent, err := ensureSystemCategory(tx, sc.Name, sc.Type, sc.Icon, sc.Color, nil)
			if err != nil {
				return err
			}
			for _, child := range sc.Children {
				if _, err := ensureSystemCategory(tx, child, sc.Type, sc.Icon, sc.Color, &parent.ID); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func ensureSystemCategory(tx *gorm.DB, name string, typ models.CategoryType, icon, color string, parentID *string) (*models.Category, error) {
	var existing models.Category
	err := tx.Where("user_id IS NULL AND is_system = ? AND name = ? AND type = ?", true, name, typ).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("lookup system category %q: %w", name, err)
	}

	cat := &models.Category{
		Name:     name,
		Type:     typ,
		Icon:     icon,
		Color:    color,
		ParentID: parentID,
		IsSystem: true,
	}
	if err := tx.Create(cat).Error; err != nil {
		return nil, fmt.Errorf("create system category %q: %w", name, err)
	}
	return cat, nil
}
