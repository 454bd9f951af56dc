package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "kakeibo/internal/errors"
	"kakeibo/internal/models"
)

func setupAuthRouter() *gin.Engine {
	r := gin.New()
	r.Use(AuthMiddleware())
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString(ContextUserID)})
	})
	return r
}

func testUser() *models.User {
	user := &models.User{Email: "hanako@example.com"}
	user.ID = "0190a6f2-7c1e-7d3a-9b2f-1a2b3c4d5e6f"
	return user
}

func TestAuthMiddleware(t *testing.T) {
	access, err := GenerateAccessToken(testUser())
	if err != nil {
		t.Fatalf("failed to generate access token: %v", err)
	}
	refresh, err := GenerateRefreshToken(testUser())
	if err != nil {
		t.Fatalf("failed to generate refresh token: %v", err)
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "valid_access_token", header: "Bearer " + access, wantStatus: http.StatusOK},
		{name: "missing_header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong_scheme", header: "Token " + access, wantStatus: http.StatusUnauthorized},
		{name: "garbage_token", header: "Bearer not-a-jwt", wantStatus: http.StatusUnauthorized},
		{name: "refresh_token_rejected", header: "Bearer " + refresh, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", http.NoBody)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			setupAuthRouter().ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				body := parseBody(t, rec)
				if body["user_id"] != testUser().ID {
					t.Errorf("expected user id in context, got %v", body["user_id"])
				}
			}
		})
	}
}

func TestValidateRefreshToken(t *testing.T) {
	access, _ := GenerateAccessToken(testUser())
	refresh, _ := GenerateRefreshToken(testUser())

	claims, err := ValidateRefreshToken(refresh)
	if err != nil {
		t.Fatalf("expected refresh token to validate, got %v", err)
	}
	if claims.UserID != testUser().ID || claims.Subject != testUser().ID {
		t.Errorf("unexpected claims %+v", claims)
	}

	if _, err := ValidateRefreshToken(access); err == nil {
		t.Error("expected access token to be rejected as a refresh token")
	}
}

func TestHashToken(t *testing.T) {
	if HashToken("a") == HashToken("b") {
		t.Error("expected different digests")
	}
	if len(HashToken("a")) != 64 {
		t.Errorf("expected 64 hex characters, got %d", len(HashToken("a")))
	}
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "app_error", err: apperrors.ErrAccountNotFound, wantStatus: http.StatusNotFound, wantCode: "ACCOUNT_NOT_FOUND"},
		{name: "wrapped_app_error", err: apperrors.Wrap(apperrors.ErrDataUnavailable, errors.New("db down")), wantStatus: http.StatusServiceUnavailable, wantCode: "DATA_UNAVAILABLE"},
		{name: "unexpected_error", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantCode: "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(ErrorHandler())
			r.GET("/fail", func(c *gin.Context) {
				_ = c.Error(tt.err)
			})

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", http.NoBody))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			errObj, _ := parseBody(t, rec)["error"].(map[string]interface{})
			if code, _ := errObj["code"].(string); code != tt.wantCode {
				t.Errorf("error code = %q, want %q", code, tt.wantCode)
			}
		})
	}
}

func TestRequestLogging(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogging())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(requestIDKey))
	})

	t.Run("generates_id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", http.NoBody))
		id := rec.Header().Get("X-Request-ID")
		if id == "" || id != rec.Body.String() {
			t.Errorf("expected request id header to match context, got %q and %q", id, rec.Body.String())
		}
	})

	t.Run("keeps_incoming_id", func(t *testing.T) {
		const incoming = "0190a6f2-7c1e-7d3a-9b2f-1a2b3c4d5e6f"
		req := httptest.NewRequest(http.MethodGet, "/ping", http.NoBody)
		req.Header.Set("X-Request-ID", incoming)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Header().Get("X-Request-ID") != incoming {
			t.Errorf("expected incoming id kept, got %q", rec.Header().Get("X-Request-ID"))
		}
	})
}
