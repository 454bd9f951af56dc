package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func (app *testApp) pipelineRequest(body, apiKey string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/api/v1/pipeline/snapshots", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func TestPipelineFlow_SnapshotsFeedAssetHistory(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "snap@test.com", "password123")
	app.createAccount(t, token, `{"name":"Bank","type":"bank","initial_balance":100000}`)
	app.createAccount(t, token, `{"name":"Card","type":"credit_card","initial_balance":20000}`)

	rec := app.pipelineRequest(`{"recorded_at":"2025-04-30T15:00:00Z"}`, testPipelineKey)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if parseJSON(t, rec)["snapshots_recorded"].(float64) != 1 {
		t.Errorf("expected 1 snapshot, got %s", rec.Body.String())
	}

	rec = app.request("GET", "/api/v1/snapshots?from_date=2025-04-01&to_date=2025-05-31", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	data := parseJSON(t, rec)["data"].([]interface{})
	if len(data) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(data))
	}
	snap := data[0].(map[string]interface{})
	if snap["net_worth"].(float64) != 80000 {
		t.Errorf("expected net worth 80000, got %v", snap["net_worth"])
	}
	if snap["credit_card"].(float64) != 20000 {
		t.Errorf("expected credit card 20000, got %v", snap["credit_card"])
	}
}

func TestPipelineFlow_RejectsWrongKey(t *testing.T) {
	app := setupApp(t)

	rec := app.pipelineRequest(`{}`, "wrong-key")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if errObj := parseJSON(t, rec)["error"].(map[string]interface{}); errObj["code"] != "INVALID_API_KEY" {
		t.Errorf("expected INVALID_API_KEY, got %v", errObj["code"])
	}
}
