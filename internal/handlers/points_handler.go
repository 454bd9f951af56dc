package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"kakeibo/internal/pagination"
	"kakeibo/internal/services"
)

// PointsHandler serves the reward points ledger, rewards and challenges.
type PointsHandler struct {
	pointsService services.PointsServicer
	now           func() time.Time
}

// NewPointsHandler creates a new PointsHandler.
func NewPointsHandler(pointsService services.PointsServicer) *PointsHandler {
	return &PointsHandler{pointsService: pointsService, now: time.Now}
}

// RedeemRequest names the reward to redeem.
type RedeemRequest struct {
	RewardCode string `json:"reward_code" binding:"required,max=50"`
}

// GetSummary returns the points balance.
// @Summary     Get points summary
// @Description Balance, points earned this month, lifetime totals and recent entries
// @Tags        points
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.PointsSummary "Points summary"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /points [get]
func (h *PointsHandler) GetSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.pointsService.GetSummary(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"points": summary})
}

// GetHistory lists ledger entries, newest first.
// @Summary     Get points history
// @Tags        points
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.PointEntry] "Paginated entries"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /points/history [get]
func (h *PointsHandler) GetHistory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindInvalid(err))
		return
	}

	result, err := h.pointsService.GetHistory(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListRewards returns the reward catalog.
// @Summary     List rewards
// @Tags        points
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} services.Reward "Reward catalog"
// @Router      /points/rewards [get]
func (h *PointsHandler) ListRewards(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rewards": h.pointsService.ListRewards()})
}

// Redeem exchanges points for a reward.
// @Summary     Redeem a reward
// @Tags        points
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body RedeemRequest true "Reward"
// @Success     200 {object} services.PointsSummary "Updated points summary"
// @Failure     400 {object} ErrorResponse "Not enough points"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Reward not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /points/redeem [post]
func (h *PointsHandler) Redeem(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindInvalid(err))
		return
	}

	summary, err := h.pointsService.Redeem(userID, req.RewardCode)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"points": summary})
}

// GetChallenges returns this month's challenge progress.
// @Summary     Get challenges
// @Tags        points
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  services.Challenge "Challenges"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /points/challenges [get]
func (h *PointsHandler) GetChallenges(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	challenges, err := h.pointsService.GetChallenges(userID, h.now())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"challenges": challenges})
}

// ClaimChallenge grants the reward of a completed challenge.
// @Summary     Claim a challenge
// @Description A completed challenge can be claimed once per calendar month
// @Tags        points
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Challenge ID"
// @Success     200 {object} services.Challenge "Claimed challenge"
// @Failure     400 {object} ErrorResponse "Not completed or already claimed"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Challenge not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /points/challenges/{id}/claim [post]
func (h *PointsHandler) ClaimChallenge(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	challenge, err := h.pointsService.ClaimChallenge(userID, c.Param("id"), h.now())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"challenge": challenge})
}
