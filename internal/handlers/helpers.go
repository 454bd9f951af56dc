package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"kakeibo/internal/analytics"
	apperrors "kakeibo/internal/errors"
	"kakeibo/internal/logger"
	"kakeibo/internal/middleware"
	"kakeibo/internal/models"
	"kakeibo/internal/services"
	"kakeibo/internal/uuid"
)

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// MessageResponse represents a simple message response
type MessageResponse struct {
	Message string `json:"message"`
}

// getUserID extracts the authenticated user ID from the Gin context.
// Returns ErrUnauthorized if not present.
func getUserID(c *gin.Context) (string, error) {
	userID := c.GetString(middleware.ContextUserID)
	if userID == "" {
		return "", apperrors.ErrUnauthorized
	}
	return userID, nil
}

// parsePathID reads a UUID path parameter.
// Returns ErrInvalidInput if the parameter is not a valid UUID.
func parsePathID(c *gin.Context, param string) (string, error) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid "+param)
	}
	return id, nil
}

// parseQueryID reads an optional UUID query parameter.
func parseQueryID(c *gin.Context, param string) (*string, error) {
	v := c.Query(param)
	if v == "" {
		return nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid "+param)
	}
	return &id, nil
}

// parseFlexibleTime accepts RFC3339 timestamps and plain YYYY-MM-DD dates.
func parseFlexibleTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, errors.New("invalid date format, use RFC3339 or YYYY-MM-DD")
	}
	return t, nil
}

// parseOptionalTime parses a date field that may be absent.
func parseOptionalTime(s *string, field string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := parseFlexibleTime(*s)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid "+field+" format, use RFC3339 or YYYY-MM-DD")
	}
	return &t, nil
}

// parseReportConfig reads the report window and options shared by the
// report, dashboard and export endpoints. An explicit start_date/end_date
// pair wins over a preset.
func parseReportConfig(c *gin.Context) (services.ReportConfig, error) {
	var cfg services.ReportConfig

	if v := c.Query("preset"); v != "" {
		preset := analytics.Preset(v)
		if !preset.Valid() {
			return cfg, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown preset "+v)
		}
		cfg.Preset = preset
	}

	start, end := c.Query("start_date"), c.Query("end_date")
	if (start == "") != (end == "") {
		return cfg, apperrors.WithMessage(apperrors.ErrInvalidInput, "start_date and end_date must be given together")
	}
	if start != "" {
		from, err := parseOptionalTime(&start, "start_date")
		if err != nil {
			return cfg, err
		}
		to, err := parseOptionalTime(&end, "end_date")
		if err != nil {
			return cfg, err
		}
		// An end before the start is an empty window, not an error.
		cfg.Start, cfg.End = from, to
	}

	if v := c.Query("type"); v != "" {
		cfg.Type = models.TransactionType(v)
	}

	if v := c.Query("show_subcategories"); v != "" {
		show, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid show_subcategories")
		}
		cfg.ShowSubcategories = show
	}
	return cfg, nil
}

// bindInvalid wraps a binding error as ErrInvalidInput.
func bindInvalid(err error) error {
	return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
}

// respondWithError writes a consistent JSON error response. If the error is an
// *AppError it uses the error's status code, code, and message. Otherwise it
// logs the unexpected error and returns a generic internal server error.
func respondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			logger.Get().Errorw("app error",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"path", c.Request.URL.Path,
			)
		}
		c.JSON(appErr.StatusCode, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
		return
	}

	logger.Get().Errorw("unexpected error",
		"error", err.Error(),
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
	)
	c.JSON(apperrors.ErrInternalServer.StatusCode, gin.H{
		"error": gin.H{
			"code":    apperrors.ErrInternalServer.Code,
			"message": apperrors.ErrInternalServer.Message,
		},
	})
}
