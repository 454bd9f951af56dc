package handlers

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"kakeibo/internal/models"
	"kakeibo/internal/pagination"
	"kakeibo/internal/services"
)

type mockSnapshotService struct {
	computeAndRecordSnapshotsFn func(recordedAt time.Time) (int, error)
	getSnapshotsFn              func(userID string, from, to time.Time, page pagination.PageRequest) (*pagination.PageResponse[models.BalanceSnapshot], error)
}

var _ services.SnapshotServicer = (*mockSnapshotService)(nil)

func (m *mockSnapshotService) ComputeAndRecordSnapshots(recordedAt time.Time) (int, error) {
	if m.computeAndRecordSnapshotsFn != nil {
		return m.computeAndRecordSnapshotsFn(recordedAt)
	}
	return 0, nil
}

func (m *mockSnapshotService) GetSnapshots(userID string, from, to time.Time, page pagination.PageRequest) (*pagination.PageResponse[models.BalanceSnapshot], error) {
	if m.getSnapshotsFn != nil {
		return m.getSnapshotsFn(userID, from, to, page)
	}
	resp := pagination.NewPageResponse([]models.BalanceSnapshot{}, 1, 20, 0)
	return &resp, nil
}

func setupSnapshotRouter(handler *SnapshotHandler) *gin.Engine {
	r := gin.New()
	r.POST("/pipeline/snapshots", handler.ComputeSnapshots)
	auth := r.Group("", injectUserID(testUserID))
	auth.GET("/snapshots", handler.GetSnapshots)
	return r
}

func TestSnapshotHandler_ComputeSnapshots(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		var gotAt time.Time
		svc := &mockSnapshotService{
			computeAndRecordSnapshotsFn: func(at time.Time) (int, error) {
				gotAt = at
				return 3, nil
			},
		}
		r := setupSnapshotRouter(NewSnapshotHandler(svc))

		rec := doRequest(r, "POST", "/pipeline/snapshots", `{"recorded_at":"2025-04-30T15:00:00Z"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if parseJSON(t, rec)["snapshots_recorded"].(float64) != 3 {
			t.Error("expected snapshots_recorded=3")
		}
		if !gotAt.Equal(time.Date(2025, 4, 30, 15, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected recorded_at %v", gotAt)
		}
	})

	t.Run("defaults to handler clock", func(t *testing.T) {
		now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
		var gotAt time.Time
		svc := &mockSnapshotService{
			computeAndRecordSnapshotsFn: func(at time.Time) (int, error) {
				gotAt = at
				return 1, nil
			},
		}
		handler := NewSnapshotHandler(svc)
		handler.now = func() time.Time { return now }
		r := setupSnapshotRouter(handler)

		rec := doRequest(r, "POST", "/pipeline/snapshots", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if !gotAt.Equal(now) {
			t.Errorf("expected %v, got %v", now, gotAt)
		}
	})

	t.Run("returns 400 on malformed body", func(t *testing.T) {
		r := setupSnapshotRouter(NewSnapshotHandler(&mockSnapshotService{}))

		rec := doRequest(r, "POST", "/pipeline/snapshots", `{"recorded_at":"yesterday"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 500 on service error", func(t *testing.T) {
		svc := &mockSnapshotService{
			computeAndRecordSnapshotsFn: func(time.Time) (int, error) {
				return 0, fmt.Errorf("database error")
			},
		}
		r := setupSnapshotRouter(NewSnapshotHandler(svc))

		rec := doRequest(r, "POST", "/pipeline/snapshots", `{}`)

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
	})
}

func TestSnapshotHandler_GetSnapshots(t *testing.T) {
	t.Run("returns 200 with data", func(t *testing.T) {
		var gotUserID string
		var gotPage pagination.PageRequest
		svc := &mockSnapshotService{
			getSnapshotsFn: func(userID string, _, _ time.Time, page pagination.PageRequest) (*pagination.PageResponse[models.BalanceSnapshot], error) {
				gotUserID, gotPage = userID, page
				resp := pagination.NewPageResponse([]models.BalanceSnapshot{
					{ID: testEntryID, UserID: testUserID, NetWorth: 1250000, Bank: 1000000, Cash: 300000, CreditCard: -50000},
				}, 2, 5, 6)
				return &resp, nil
			},
		}
		r := setupSnapshotRouter(NewSnapshotHandler(svc))

		rec := doRequest(r, "GET", "/snapshots?from_date=2025-01-01&to_date=2025-12-31&page=2&page_size=5", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotUserID != testUserID || gotPage.Page != 2 || gotPage.PageSize != 5 {
			t.Errorf("unexpected call: user=%q page=%+v", gotUserID, gotPage)
		}
		data := parseJSON(t, rec)["data"].([]interface{})
		if len(data) != 1 {
			t.Fatalf("expected 1 snapshot, got %d", len(data))
		}
		if data[0].(map[string]interface{})["net_worth"].(float64) != 1250000 {
			t.Errorf("unexpected snapshot %v", data[0])
		}
	})

	t.Run("returns 400 missing from_date", func(t *testing.T) {
		r := setupSnapshotRouter(NewSnapshotHandler(&mockSnapshotService{}))

		rec := doRequest(r, "GET", "/snapshots?to_date=2025-12-31", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on inverted range", func(t *testing.T) {
		r := setupSnapshotRouter(NewSnapshotHandler(&mockSnapshotService{}))

		rec := doRequest(r, "GET", "/snapshots?from_date=2025-12-31&to_date=2025-01-01", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_DATE_RANGE")
	})

	t.Run("returns 401 without auth", func(t *testing.T) {
		r := gin.New()
		r.GET("/snapshots", NewSnapshotHandler(&mockSnapshotService{}).GetSnapshots)

		rec := doRequest(r, "GET", "/snapshots?from_date=2025-01-01&to_date=2025-12-31", "")

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}
