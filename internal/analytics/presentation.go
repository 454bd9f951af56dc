package analytics

import (
	"sort"

	"kakeibo/internal/models"
)

// LabelValue is a chart datum.
type LabelValue struct {
	Label string `json:"label"`
	Value int64  `json:"value"`
	Color string `json:"color,omitempty"`
}

// BudgetBar is the progress bar of one budget line.
type BudgetBar struct {
	Label        string  `json:"label"`
	Percentage   float64 `json:"percentage"`
	Progress     float64 `json:"progress"`
	IsOverBudget bool    `json:"is_over_budget"`
}

// AssetPoint is the closing balances of one month.
type AssetPoint struct {
	Month      string `json:"month"`
	NetWorth   int64  `json:"net_worth"`
	Bank       int64  `json:"bank"`
	Cash       int64  `json:"cash"`
	CreditCard int64  `json:"credit_card"`
	EMoney     int64  `json:"e_money"`
	Securities int64  `json:"securities"`
	Other      int64  `json:"other"`
}

// PieSeries turns a breakdown into chart data.
func PieSeries(slices []CategorySlice) []LabelValue {
	out := make([]LabelValue, 0, len(slices))
	for _, s := range slices {
		out = append(out, LabelValue{Label: s.Label, Value: s.Value, Color: s.Color})
	}
	return out
}

// WeekdaySeries turns weekday buckets into chart data.
func WeekdaySeries(buckets []WeekdayBucket) []LabelValue {
	out := make([]LabelValue, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, LabelValue{Label: b.Weekday, Value: b.Amount})
	}
	return out
}

// BudgetBars turns budget lines into progress bars.
func BudgetBars(r BudgetReport) []BudgetBar {
	bars := make([]BudgetBar, 0, len(r.Lines))
	for _, l := range r.Lines {
		bars = append(bars, BudgetBar{
			Label:        l.CategoryName,
			Percentage:   l.Percentage,
			Progress:     l.Progress,
			IsOverBudget: l.IsOverBudget,
		})
	}
	return bars
}

// AssetTrend keeps the latest snapshot of every month inside w, oldest first.
func AssetTrend(snapshots []models.BalanceSnapshot, w Window) []AssetPoint {
	latest := make(map[string]*models.BalanceSnapshot)
	var order []string
	for i := range snapshots {
		s := &snapshots[i]
		if !w.Contains(s.RecordedAt) {
			continue
		}
		key := MonthKey(s.RecordedAt)
		cur, ok := latest[key]
		if !ok {
			order = append(order, key)
		}
		if !ok || s.RecordedAt.After(cur.RecordedAt) {
			latest[key] = s
		}
	}

	points := make([]AssetPoint, 0, len(order))
	sort.Strings(order)
	for _, key := range order {
		s := latest[key]
		points = append(points, AssetPoint{
			Month:      key,
			NetWorth:   s.NetWorth,
			Bank:       s.Bank,
			Cash:       s.Cash,
			CreditCard: s.CreditCard,
			EMoney:     s.EMoney,
			Securities: s.Securities,
			Other:      s.Other,
		})
	}
	return points
}
