package analytics

import (
	"time"

	"kakeibo/internal/models"
	"kakeibo/internal/money"
)

// BudgetLine is the consumption of one budget allocation.
type BudgetLine struct {
	CategoryID   string  `json:"category_id"`
	CategoryName string  `json:"category_name"`
	Color        string  `json:"color,omitempty"`
	Budgeted     int64   `json:"budgeted"`
	Spent        int64   `json:"spent"`
	Remaining    int64   `json:"remaining"`
	Percentage   float64 `json:"percentage"`
	Progress     float64 `json:"progress"`
	IsOverBudget bool    `json:"is_over_budget"`
}

// BudgetReport is the consumption of a whole budget and its lines.
// AllocatedTotal is reported as is and never reconciled with Amount.
type BudgetReport struct {
	BudgetID       string              `json:"budget_id"`
	Name           string              `json:"name"`
	Period         models.BudgetPeriod `json:"period"`
	StartDate      time.Time           `json:"start_date"`
	EndDate        time.Time           `json:"end_date"`
	Amount         int64               `json:"amount"`
	AllocatedTotal int64               `json:"allocated_total"`
	Spent          int64               `json:"spent"`
	Remaining      int64               `json:"remaining"`
	Percentage     float64             `json:"percentage"`
	Progress       float64             `json:"progress"`
	IsOverBudget   bool                `json:"is_over_budget"`
	Lines          []BudgetLine        `json:"lines"`
}

// ConsumptionPercentage is spent/budgeted*100, and 0 when nothing was budgeted.
func ConsumptionPercentage(spent, budgeted int64) float64 {
	return money.Percentage(spent, budgeted)
}

// IsOverBudget is true only when consumption strictly exceeds 100%.
func IsOverBudget(percentage float64) bool {
	return percentage > 100
}

// BudgetCategoryIDs returns the set a budget line matches: the target
// category and its direct children. Deeper descendants are not included;
// the category tree is at most two levels deep.
func BudgetCategoryIDs(target string, categories []models.Category) map[string]bool {
	ids := map[string]bool{target: true}
	for i := range categories {
		if p := categories[i].ParentID; p != nil && *p == target {
			ids[categories[i].ID] = true
		}
	}
	return ids
}

// BudgetConsumption measures how much of a budget was spent inside its date
// window. Only counted expense transactions take part. With allocations the
// budget-wide figure covers the union of the line category sets, each
// transaction once; without allocations it covers every expense in the window.
func BudgetConsumption(b *models.Budget, txs []models.Transaction, categories []models.Category) BudgetReport {
	w := NewWindow(b.StartDate, b.EndDate)
	byID := indexCategories(categories)

	report := BudgetReport{
		BudgetID:  b.ID,
		Name:      b.Name,
		Period:    b.Period,
		StartDate: b.StartDate,
		EndDate:   b.EndDate,
		Amount:    b.Amount,
		Lines:     make([]BudgetLine, 0, len(b.Categories)),
	}

	union := make(map[string]bool)
	for _, bc := range b.Categories {
		ids := BudgetCategoryIDs(bc.CategoryID, categories)
		for id := range ids {
			union[id] = true
		}

		spent := spentIn(txs, w, func(tx *models.Transaction) bool {
			return tx.CategoryID != nil && ids[*tx.CategoryID]
		})
		line := BudgetLine{
			CategoryID: bc.CategoryID,
			Budgeted:   bc.Amount,
			Spent:      spent,
			Remaining:  bc.Amount - spent,
		}
		if cat, ok := byID[bc.CategoryID]; ok {
			line.CategoryName = cat.Name
			line.Color = cat.Color
		}
		line.Percentage = ConsumptionPercentage(spent, bc.Amount)
		line.Progress = money.Clamp100(line.Percentage)
		line.IsOverBudget = IsOverBudget(line.Percentage)

		report.AllocatedTotal += bc.Amount
		report.Lines = append(report.Lines, line)
	}

	if len(b.Categories) == 0 {
		report.Spent = spentIn(txs, w, func(*models.Transaction) bool { return true })
	} else {
		report.Spent = spentIn(txs, w, func(tx *models.Transaction) bool {
			return tx.CategoryID != nil && union[*tx.CategoryID]
		})
	}
	report.Remaining = b.Amount - report.Spent
	report.Percentage = ConsumptionPercentage(report.Spent, b.Amount)
	report.Progress = money.Clamp100(report.Percentage)
	report.IsOverBudget = IsOverBudget(report.Percentage)
	return report
}

func spentIn(txs []models.Transaction, w Window, match func(*models.Transaction) bool) int64 {
	var spent int64
	for i := range txs {
		tx := &txs[i]
		if isExpense(tx) && w.Contains(tx.Date) && match(tx) {
			spent += tx.Amount
		}
	}
	return spent
}
