package services

import (
	"encoding/json"
	"errors"
	"time"

	"golang.org/x/text/currency"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"kakeibo/internal/analytics"
	apperrors "kakeibo/internal/errors"
	"kakeibo/internal/models"
)

// Chart types and themes accepted in display preferences.
const (
	ChartTypePie  = "pie"
	ChartTypeBar  = "bar"
	ChartTypeLine = "line"

	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

const preferencesKey = "preferences"

// CurrentPeriod is the month the user is looking at.
type CurrentPeriod struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// SavedFilter is the last transaction list filter the user applied.
type SavedFilter struct {
	Type       string `json:"type,omitempty"`
	CategoryID string `json:"category_id,omitempty"`
	AccountID  string `json:"account_id,omitempty"`
	TagID      string `json:"tag_id,omitempty"`
	Search     string `json:"search,omitempty"`
}

// DisplaySettings controls how reports are rendered. StartDayOfMonth is
// stored for clients; report windows always use calendar months.
type DisplaySettings struct {
	ShowSubcategories bool             `json:"show_subcategories"`
	StartDayOfMonth   int              `json:"start_day_of_month"`
	ChartType         string           `json:"chart_type"`
	Currency          string           `json:"currency"`
	Theme             string           `json:"theme"`
	ReportPreset      analytics.Preset `json:"report_preset"`
}

// Preferences are a user's persisted UI preferences.
type Preferences struct {
	CurrentPeriod     CurrentPeriod   `json:"current_period"`
	TransactionFilter SavedFilter     `json:"transaction_filter"`
	Display           DisplaySettings `json:"display"`
}

// DefaultPreferences returns the preferences of a user who saved none.
func DefaultPreferences(now time.Time) Preferences {
	now = now.UTC()
	return Preferences{
		CurrentPeriod: CurrentPeriod{Year: now.Year(), Month: int(now.Month())},
		Display: DisplaySettings{
			ShowSubcategories: true,
			StartDayOfMonth:   1,
			ChartType:         ChartTypePie,
			Currency:          "JPY",
			Theme:             ThemeSystem,
			ReportPreset:      analytics.PresetCurrentMonth,
		},
	}
}

// Validate checks every preference field.
func (p *Preferences) Validate() error {
	if p.CurrentPeriod.Month < 1 || p.CurrentPeriod.Month > 12 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "current period month must be between 1 and 12")
	}
	if p.CurrentPeriod.Year < 1970 || p.CurrentPeriod.Year > 9999 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "current period year is out of range")
	}
	d := p.Display
	if d.StartDayOfMonth < 1 || d.StartDayOfMonth > 28 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "start day of month must be between 1 and 28")
	}
	switch d.ChartType {
	case ChartTypePie, ChartTypeBar, ChartTypeLine:
	default:
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "chart type must be pie, bar or line")
	}
	switch d.Theme {
	case ThemeLight, ThemeDark, ThemeSystem:
	default:
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "theme must be light, dark or system")
	}
	if _, err := currency.ParseISO(d.Currency); err != nil {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "currency must be an ISO 4217 code")
	}
	if !d.ReportPreset.Valid() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown report preset")
	}
	if t := p.TransactionFilter.Type; t != "" && t != string(models.TransactionTypeIncome) &&
		t != string(models.TransactionTypeExpense) && t != string(models.TransactionTypeTransfer) {
		return apperrors.ErrInvalidTransactionType
	}
	return nil
}

// settingsService stores preferences as JSON in the user_settings table.
type settingsService struct {
	db *gorm.DB
}

// NewSettingsService creates a new SettingsServicer.
func NewSettingsService(db *gorm.DB) SettingsServicer {
	return &settingsService{db: db}
}

// GetPreferences returns the stored preferences, or the defaults.
func (s *settingsService) GetPreferences(userID string) (*Preferences, error) {
	prefs := DefaultPreferences(time.Now())

	var setting models.UserSetting
	err := s.db.Where("user_id = ? AND key = ?", userID, preferencesKey).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &prefs, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := json.Unmarshal([]byte(setting.Value), &prefs); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &prefs, nil
}

// UpdatePreferences validates and stores the preferences.
func (s *settingsService) UpdatePreferences(userID string, prefs Preferences) (*Preferences, error) {
	if err := prefs.Validate(); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(prefs)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	setting := &models.UserSetting{UserID: userID, Key: preferencesKey, Value: string(raw)}
	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(setting).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return &prefs, nil
}
