package analytics

import (
	"time"

	"kakeibo/internal/models"
	"kakeibo/internal/money"
)

// Totals are the income, expense and balance sums of one window.
// Balance is always Income minus Expense.
type Totals struct {
	Income  int64 `json:"income"`
	Expense int64 `json:"expense"`
	Balance int64 `json:"balance"`
}

func (t *Totals) add(tx *models.Transaction) {
	switch tx.Type {
	case models.TransactionTypeIncome:
		t.Income += tx.Amount
	case models.TransactionTypeExpense:
		t.Expense += tx.Amount
	}
	t.Balance = t.Income - t.Expense
}

// MonthlyPoint is one month of a trend series.
type MonthlyPoint struct {
	Month   string `json:"month"`
	Income  int64  `json:"income"`
	Expense int64  `json:"expense"`
	Balance int64  `json:"balance"`
}

// Summary is the headline card of a window.
type Summary struct {
	Totals
	Months                int     `json:"months"`
	AverageMonthlyIncome  float64 `json:"average_monthly_income"`
	AverageMonthlyExpense float64 `json:"average_monthly_expense"`
	AverageMonthlyBalance float64 `json:"average_monthly_balance"`
	SavingsRate           float64 `json:"savings_rate"`
}

// counted reports whether a transaction takes part in income/expense figures.
// Transfers move money between the user's own accounts and never count.
func counted(tx *models.Transaction) bool {
	if tx.IsExcludedFromCalculation {
		return false
	}
	return tx.Type == models.TransactionTypeIncome || tx.Type == models.TransactionTypeExpense
}

func isExpense(tx *models.Transaction) bool {
	return counted(tx) && tx.Type == models.TransactionTypeExpense
}

// PeriodTotals sums counted transactions that fall inside w.
func PeriodTotals(txs []models.Transaction, w Window) Totals {
	var t Totals
	for i := range txs {
		if counted(&txs[i]) && w.Contains(txs[i].Date) {
			t.add(&txs[i])
		}
	}
	return t
}

// MonthlyTrend returns one point per calendar month of w, oldest first.
// Months without activity are present with zero values.
func MonthlyTrend(txs []models.Transaction, w Window) []MonthlyPoint {
	months := w.Months()
	points := make([]MonthlyPoint, len(months))
	index := make(map[string]int, len(months))
	for i, m := range months {
		key := MonthKey(m)
		points[i] = MonthlyPoint{Month: key}
		index[key] = i
	}

	for i := range txs {
		tx := &txs[i]
		if !counted(tx) || !w.Contains(tx.Date) {
			continue
		}
		idx, ok := index[MonthKey(tx.Date)]
		if !ok {
			continue
		}
		p := &points[idx]
		if tx.Type == models.TransactionTypeIncome {
			p.Income += tx.Amount
		} else {
			p.Expense += tx.Amount
		}
		p.Balance = p.Income - p.Expense
	}
	return points
}

// Summarize computes window totals and per-month averages. The savings rate
// is average balance over average income, and 0 when there is no income.
func Summarize(txs []models.Transaction, w Window) Summary {
	totals := PeriodTotals(txs, w)
	months := w.MonthCount()

	avgIncome := money.Average(totals.Income, months)
	avgExpense := money.Average(totals.Expense, months)
	avgBalance := money.Average(totals.Balance, months)

	return Summary{
		Totals:                totals,
		Months:                months,
		AverageMonthlyIncome:  avgIncome.InexactFloat64(),
		AverageMonthlyExpense: avgExpense.InexactFloat64(),
		AverageMonthlyBalance: avgBalance.InexactFloat64(),
		SavingsRate:           money.Ratio(avgBalance, avgIncome),
	}
}

// Comparison relates a window's monthly averages to the month before it.
type Comparison struct {
	PreviousMonth   string  `json:"previous_month"`
	PreviousIncome  int64   `json:"previous_income"`
	PreviousExpense int64   `json:"previous_expense"`
	IncomeChange    float64 `json:"income_change"`
	ExpenseChange   float64 `json:"expense_change"`
}

// Compare measures the change of the window's average monthly income and
// expense against the calendar month immediately preceding the window.
// A zero baseline yields a 0% change.
func Compare(txs []models.Transaction, w Window) Comparison {
	if w.IsEmpty() || w.IsUnbounded() {
		return Comparison{}
	}
	prev := monthStart(w.Start).AddDate(0, -1, 0)
	prevTotals := PeriodTotals(txs, MonthWindow(prev.Year(), prev.Month()))

	months := w.MonthCount()
	totals := PeriodTotals(txs, w)
	return Comparison{
		PreviousMonth:   MonthKey(prev),
		PreviousIncome:  prevTotals.Income,
		PreviousExpense: prevTotals.Expense,
		IncomeChange:    money.PercentChange(money.Average(totals.Income, months), money.Average(prevTotals.Income, 1)),
		ExpenseChange:   money.PercentChange(money.Average(totals.Expense, months), money.Average(prevTotals.Expense, 1)),
	}
}

// WeekdayBucket is the expense total of one day of the week.
type WeekdayBucket struct {
	Weekday string `json:"weekday"`
	Amount  int64  `json:"amount"`
	Count   int    `json:"count"`
}

var weekdayOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// WeekdayIndex maps a weekday to its bucket; Monday is 0 and Sunday is 6.
func WeekdayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// WeekdayExpenses buckets counted expenses inside w by day of week, Monday first.
// The result always has seven entries.
func WeekdayExpenses(txs []models.Transaction, w Window) []WeekdayBucket {
	buckets := make([]WeekdayBucket, len(weekdayOrder))
	for i, d := range weekdayOrder {
		buckets[i].Weekday = d.String()
	}
	for i := range txs {
		tx := &txs[i]
		if !isExpense(tx) || !w.Contains(tx.Date) {
			continue
		}
		b := &buckets[WeekdayIndex(tx.Date.UTC().Weekday())]
		b.Amount += tx.Amount
		b.Count++
	}
	return buckets
}
