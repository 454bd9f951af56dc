package analytics

import (
	"kakeibo/internal/models"
	"kakeibo/internal/money"
)

// UncategorizedLabel names the slice of transactions that have no category.
const UncategorizedLabel = "Uncategorized"

// BreakdownOptions selects what a category breakdown groups.
type BreakdownOptions struct {
	// Type is income or expense; empty means expense.
	Type models.TransactionType
	// RollUpToParent folds subcategories into their top-level category.
	RollUpToParent bool
}

// CategorySlice is one group of a category breakdown.
type CategorySlice struct {
	CategoryID *string `json:"category_id"`
	Label      string  `json:"label"`
	Value      int64   `json:"value"`
	Color      string  `json:"color,omitempty"`
	Percentage float64 `json:"percentage"`
}

// CategoryBreakdown groups counted transactions of one type inside w by
// category. Slices keep the order in which their category was first seen
// and groups summing to zero are left out.
func CategoryBreakdown(txs []models.Transaction, categories []models.Category, w Window, opts BreakdownOptions) []CategorySlice {
	txType := opts.Type
	if txType == "" {
		txType = models.TransactionTypeExpense
	}
	byID := indexCategories(categories)

	var slices []CategorySlice
	position := make(map[string]int)
	var total int64

	for i := range txs {
		tx := &txs[i]
		if !counted(tx) || tx.Type != txType || !w.Contains(tx.Date) {
			continue
		}

		key, slice := groupFor(tx.CategoryID, byID, opts.RollUpToParent)
		idx, seen := position[key]
		if !seen {
			idx = len(slices)
			position[key] = idx
			slices = append(slices, slice)
		}
		slices[idx].Value += tx.Amount
		total += tx.Amount
	}

	out := make([]CategorySlice, 0, len(slices))
	for _, s := range slices {
		if s.Value == 0 {
			continue
		}
		s.Percentage = money.Percentage(s.Value, total)
		out = append(out, s)
	}
	return out
}

func groupFor(categoryID *string, byID map[string]*models.Category, rollUp bool) (string, CategorySlice) {
	if categoryID == nil {
		return "", CategorySlice{Label: UncategorizedLabel}
	}
	cat, ok := byID[*categoryID]
	if !ok {
		return "", CategorySlice{Label: UncategorizedLabel}
	}
	if rollUp {
		cat = rootOf(cat, byID)
	}
	id := cat.ID
	return id, CategorySlice{CategoryID: &id, Label: cat.Name, Color: cat.Color}
}

// rootOf walks parent links to the top-level category, stopping on a cycle.
func rootOf(cat *models.Category, byID map[string]*models.Category) *models.Category {
	visited := map[string]bool{cat.ID: true}
	for cat.ParentID != nil {
		parent, ok := byID[*cat.ParentID]
		if !ok || visited[parent.ID] {
			break
		}
		visited[parent.ID] = true
		cat = parent
	}
	return cat
}

func indexCategories(categories []models.Category) map[string]*models.Category {
	byID := make(map[string]*models.Category, len(categories))
	for i := range categories {
		byID[categories[i].ID] = &categories[i]
	}
	return byID
}
