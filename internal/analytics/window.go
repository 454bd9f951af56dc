// Package analytics is the aggregation engine behind every report. Its
// functions are pure: they take transactions, budgets, categories and goals
// already scoped to one user and return fresh values. Nothing here touches
// the database or keeps state between calls.
package analytics

import (
	"fmt"
	"time"

	"kakeibo/internal/models"
)

// Window is an inclusive reporting range. A window whose End is before its
// Start is empty and aggregates to zero.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewWindow spans whole days from start through end, in UTC.
func NewWindow(start, end time.Time) Window {
	return Window{Start: startOfDay(start), End: endOfDay(end)}
}

// MonthWindow covers one calendar month.
func MonthWindow(year int, month time.Month) Window {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Window{Start: start, End: start.AddDate(0, 1, 0).Add(-time.Nanosecond)}
}

// IsEmpty reports whether the window contains no instant.
func (w Window) IsEmpty() bool {
	return w.End.Before(w.Start)
}

// IsUnbounded reports whether the window has no lower bound, as with PresetAll.
func (w Window) IsUnbounded() bool {
	return w.Start.IsZero()
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if w.IsEmpty() {
		return false
	}
	return !t.Before(w.Start) && !t.After(w.End)
}

// Months returns the first instant of every calendar month the window touches, oldest first.
func (w Window) Months() []time.Time {
	if w.IsEmpty() || w.IsUnbounded() {
		return nil
	}
	var months []time.Time
	cur := monthStart(w.Start)
	last := monthStart(w.End)
	for !cur.After(last) {
		months = append(months, cur)
		cur = cur.AddDate(0, 1, 0)
	}
	return months
}

// MonthCount is len(w.Months()).
func (w Window) MonthCount() int {
	if w.IsEmpty() || w.IsUnbounded() {
		return 0
	}
	return MonthsBetween(w.Start, w.End) + 1
}

// Preset names a window relative to the current date.
type Preset string

const (
	PresetCurrentMonth Preset = "current_month"
	PresetLastMonth    Preset = "last_month"
	Preset3Months      Preset = "3months"
	Preset6Months      Preset = "6months"
	Preset1Year        Preset = "1year"
	PresetCurrentYear  Preset = "current_year"
	PresetLastYear     Preset = "last_year"
	PresetAll          Preset = "all"
)

// Presets lists every supported preset.
var Presets = []Preset{
	PresetCurrentMonth, PresetLastMonth, Preset3Months, Preset6Months,
	Preset1Year, PresetCurrentYear, PresetLastYear, PresetAll,
}

// Valid reports whether p is a known preset.
func (p Preset) Valid() bool {
	for _, known := range Presets {
		if p == known {
			return true
		}
	}
	return false
}

// PresetWindow resolves a preset against now. Trailing presets (3months,
// 6months, 1year) include the current month. PresetAll returns an unbounded
// window ending today; narrow it with SpanOf once the data is loaded.
func PresetWindow(p Preset, now time.Time) (Window, error) {
	now = now.UTC()
	thisMonth := monthStart(now)
	trailing := func(n int) Window {
		return Window{Start: thisMonth.AddDate(0, -(n - 1), 0), End: thisMonth.AddDate(0, 1, 0).Add(-time.Nanosecond)}
	}

	switch p {
	case PresetCurrentMonth:
		return trailing(1), nil
	case PresetLastMonth:
		prev := thisMonth.AddDate(0, -1, 0)
		return MonthWindow(prev.Year(), prev.Month()), nil
	case Preset3Months:
		return trailing(3), nil
	case Preset6Months:
		return trailing(6), nil
	case Preset1Year:
		return trailing(12), nil
	case PresetCurrentYear:
		start := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
		return Window{Start: start, End: start.AddDate(1, 0, 0).Add(-time.Nanosecond)}, nil
	case PresetLastYear:
		start := time.Date(now.Year()-1, 1, 1, 0, 0, 0, 0, time.UTC)
		return Window{Start: start, End: start.AddDate(1, 0, 0).Add(-time.Nanosecond)}, nil
	case PresetAll:
		return Window{End: endOfDay(now)}, nil
	default:
		return Window{}, fmt.Errorf("unknown preset %q", p)
	}
}

// SpanOf returns the whole-month window covering every counted transaction.
// With no transactions it returns an empty window.
func SpanOf(txs []models.Transaction) Window {
	var first, last time.Time
	for i := range txs {
		d := txs[i].Date.UTC()
		if first.IsZero() || d.Before(first) {
			first = d
		}
		if last.IsZero() || d.After(last) {
			last = d
		}
	}
	if first.IsZero() {
		return Window{Start: time.Unix(0, 0).UTC(), End: time.Unix(0, 0).UTC().Add(-time.Nanosecond)}
	}
	return Window{Start: monthStart(first), End: monthStart(last).AddDate(0, 1, 0).Add(-time.Nanosecond)}
}

// MonthsBetween is the calendar-month difference from start to target using
// year*12+month arithmetic. It is never negative.
func MonthsBetween(start, target time.Time) int {
	start, target = start.UTC(), target.UTC()
	diff := (target.Year()*12 + int(target.Month())) - (start.Year()*12 + int(start.Month()))
	if diff < 0 {
		return 0
	}
	return diff
}

// MonthKey formats t as YYYY-MM.
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

func monthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}
