package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "kakeibo/internal/errors"
	"kakeibo/internal/services"
)

type mockSettingsService struct {
	stored              *services.Preferences
	updatePreferencesFn func(userID string, prefs services.Preferences) (*services.Preferences, error)
}

func (m *mockSettingsService) GetPreferences(string) (*services.Preferences, error) {
	if m.stored != nil {
		p := *m.stored
		return &p, nil
	}
	p := services.DefaultPreferences(time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC))
	return &p, nil
}

func (m *mockSettingsService) UpdatePreferences(userID string, prefs services.Preferences) (*services.Preferences, error) {
	if m.updatePreferencesFn != nil {
		return m.updatePreferencesFn(userID, prefs)
	}
	m.stored = &prefs
	return &prefs, nil
}

var _ services.SettingsServicer = (*mockSettingsService)(nil)

func setupSettingsRouter(handler *SettingsHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.GET("/settings/preferences", handler.GetPreferences)
	auth.PUT("/settings/preferences", handler.UpdatePreferences)
	return r
}

func TestSettingsHandler_GetPreferences(t *testing.T) {
	r := setupSettingsRouter(NewSettingsHandler(&mockSettingsService{}))

	rec := doRequest(r, "GET", "/settings/preferences", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	prefs := parseJSON(t, rec)["preferences"].(map[string]interface{})
	display := prefs["display"].(map[string]interface{})
	if display["currency"] != "JPY" {
		t.Errorf("expected JPY default, got %v", display["currency"])
	}
	period := prefs["current_period"].(map[string]interface{})
	if period["month"].(float64) != 4 {
		t.Errorf("expected month 4, got %v", period["month"])
	}
}

func TestSettingsHandler_UpdatePreferences(t *testing.T) {
	t.Run("merges partial body", func(t *testing.T) {
		svc := &mockSettingsService{}
		r := setupSettingsRouter(NewSettingsHandler(svc))

		rec := doRequest(r, "PUT", "/settings/preferences", `{"display":{"theme":"dark"}}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if svc.stored == nil {
			t.Fatal("expected preferences stored")
		}
		if svc.stored.Display.Theme != services.ThemeDark {
			t.Errorf("expected dark theme, got %q", svc.stored.Display.Theme)
		}
		if svc.stored.Display.Currency != "JPY" || svc.stored.CurrentPeriod.Year != 2025 {
			t.Errorf("expected untouched fields kept, got %+v", svc.stored)
		}
	})

	t.Run("returns 400 on invalid preferences", func(t *testing.T) {
		svc := &mockSettingsService{
			updatePreferencesFn: func(_ string, prefs services.Preferences) (*services.Preferences, error) {
				if err := prefs.Validate(); err != nil {
					return nil, err
				}
				return &prefs, nil
			},
		}
		r := setupSettingsRouter(NewSettingsHandler(svc))

		rec := doRequest(r, "PUT", "/settings/preferences", `{"current_period":{"year":2025,"month":13}}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), apperrors.ErrInvalidInput.Code)
	})

	t.Run("returns 400 on malformed json", func(t *testing.T) {
		r := setupSettingsRouter(NewSettingsHandler(&mockSettingsService{}))

		rec := doRequest(r, "PUT", "/settings/preferences", `{"display":`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
