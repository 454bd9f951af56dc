package router

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const statementCSV = `date,type,amount,description
2025-04-01,expense,1200,Lunch
2025-04-02,income,300000,Payroll
`

// upload posts a statement to the import endpoint.
func (app *testApp) upload(t *testing.T, token, accountID, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("account_id", accountID); err != nil {
		t.Fatalf("write field: %v", err)
	}
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest("POST", "/api/v1/data/import", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func TestDataFlow_ImportThenExport(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "data@test.com", "password123")
	accountID := app.createAccount(t, token, `{"name":"Bank","type":"bank"}`)

	rec := app.upload(t, token, accountID, "april.csv", statementCSV)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)["result"].(map[string]interface{})
	if result["imported"].(float64) != 2 {
		t.Fatalf("expected 2 imported, got %v", result)
	}
	if balance := app.accountBalance(t, token, accountID); balance != 298800 {
		t.Errorf("expected balance 298800, got %.0f", balance)
	}

	// A second upload of the same statement is skipped row by row.
	rec = app.upload(t, token, accountID, "april.csv", statementCSV)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result = parseJSON(t, rec)["result"].(map[string]interface{})
	if result["imported"].(float64) != 0 || result["skipped"].(float64) != 2 {
		t.Errorf("expected duplicates skipped, got %v", result)
	}

	rec = app.request("GET", "/api/v1/data/export?start_date=2025-04-01&end_date=2025-04-30", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="kakeibo_20250401_20250430.csv"` {
		t.Errorf("unexpected disposition %q", got)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Lunch") || !strings.Contains(body, "Payroll") {
		t.Errorf("expected both rows in export, got %q", body)
	}
	if strings.Index(body, "Lunch") > strings.Index(body, "Payroll") {
		t.Error("expected export in date order")
	}
}

func TestDataFlow_ImportRejectsForeignAccount(t *testing.T) {
	app := setupApp(t)
	ownerToken, _, _ := app.registerUser(t, "owner-data@test.com", "password123")
	otherToken, _, _ := app.registerUser(t, "other-data@test.com", "password123")
	accountID := app.createAccount(t, ownerToken, `{"name":"Bank"}`)

	rec := app.upload(t, otherToken, accountID, "april.csv", statementCSV)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}
