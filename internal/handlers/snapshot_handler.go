package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "kakeibo/internal/errors"
	"kakeibo/internal/pagination"
	"kakeibo/internal/services"
)

// SnapshotHandler handles balance snapshot requests.
type SnapshotHandler struct {
	snapshotService services.SnapshotServicer
	now             func() time.Time
}

// NewSnapshotHandler creates a new SnapshotHandler.
func NewSnapshotHandler(snapshotService services.SnapshotServicer) *SnapshotHandler {
	return &SnapshotHandler{snapshotService: snapshotService, now: time.Now}
}

// ComputeSnapshotsRequest represents the request payload for computing snapshots.
// RecordedAt defaults to the current time.
type ComputeSnapshotsRequest struct {
	RecordedAt *time.Time `json:"recorded_at"`
}

// ComputeSnapshots handles computing and recording balance snapshots.
// @Summary     Compute balance snapshots
// @Description Compute and record balance snapshots for all users (pipeline endpoint)
// @Tags        pipeline
// @Accept      json
// @Produce     json
// @Param       X-API-Key header   string                  true  "Pipeline API key"
// @Param       request   body     ComputeSnapshotsRequest false "Snapshot parameters"
// @Success     200       {object} map[string]int          "Snapshots recorded count"
// @Failure     400       {object} ErrorResponse           "Invalid input"
// @Failure     401       {object} ErrorResponse           "Invalid API key"
// @Failure     503       {object} ErrorResponse           "Pipeline not configured"
// @Router      /pipeline/snapshots [post]
func (h *SnapshotHandler) ComputeSnapshots(c *gin.Context) {
	var req ComputeSnapshotsRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, bindInvalid(err))
			return
		}
	}

	recordedAt := h.now()
	if req.RecordedAt != nil {
		recordedAt = *req.RecordedAt
	}

	count, err := h.snapshotService.ComputeAndRecordSnapshots(recordedAt)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"snapshots_recorded": count})
}

// GetSnapshots handles retrieving balance snapshots for the authenticated user.
// @Summary     Get balance snapshots
// @Description Get paginated balance snapshots for a date range, newest first
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       from_date query string true  "Start date (RFC3339 or YYYY-MM-DD)"
// @Param       to_date   query string true  "End date (RFC3339 or YYYY-MM-DD)"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.BalanceSnapshot] "Paginated snapshots"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /snapshots [get]
func (h *SnapshotHandler) GetSnapshots(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	fromStr := c.Query("from_date")
	if fromStr == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "from_date is required"))
		return
	}
	from, err := parseFlexibleTime(fromStr)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	toStr := c.Query("to_date")
	if toStr == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "to_date is required"))
		return
	}
	to, err := parseFlexibleTime(toStr)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	if to.Before(from) {
		respondWithError(c, apperrors.ErrInvalidDateRange)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindInvalid(err))
		return
	}

	result, err := h.snapshotService.GetSnapshots(userID, from, to, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
