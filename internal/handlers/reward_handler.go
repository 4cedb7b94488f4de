package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/issaclevi/wayzx-backend/internal/middleware"
	"github.com/issaclevi/wayzx-backend/internal/models"
	"github.com/issaclevi/wayzx-backend/internal/services"
	"github.com/sirupsen/logrus"
)

// RewardHandler serves reward balances, history and settings
type RewardHandler struct {
	rewardService *services.RewardService
	logger        *logrus.Logger
}

// NewRewardHandler creates a new reward handler
func NewRewardHandler(rewardService *services.RewardService, logger *logrus.Logger) *RewardHandler {
	return &RewardHandler{rewardService: rewardService, logger: logger}
}

// GetMyRewards handles GET /api/v1/rewards/me
func (h *RewardHandler) GetMyRewards(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	summary, err := h.rewardService.GetUserRewards(c.Request.Context(), userCtx.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetMyHistory handles GET /api/v1/rewards/me/history?limit=
func (h *RewardHandler) GetMyHistory(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	history, err := h.rewardService.History(c.Request.Context(), userCtx.UserID, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

// ListUserRewards handles GET /api/v1/rewards/users?userId=&page=&limit= (admin)
func (h *RewardHandler) ListUserRewards(c *gin.Context) {
	userID, ok := optionalUUIDQuery(c, "userId")
	if !ok {
		return
	}
	page, limit := pagination(c, 20, 100)

	rewards, total, err := h.rewardService.ListUserRewards(c.Request.Context(), userID, page, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"rewards": rewards,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}

// ModifyUserPoints handles POST /api/v1/rewards/users/points (admin)
func (h *RewardHandler) ModifyUserPoints(c *gin.Context) {
	var req models.ModifyUserPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		respondBadParam(c, "userId")
		return
	}

	reward, err := h.rewardService.ModifyUserPoints(c.Request.Context(), services.ModifyPointsInput{
		Actor:  actorFrom(c),
		UserID: userID,
		Points: req.Points,
		Add:    req.Action == "add",
		Note:   req.Note,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Points updated successfully",
		"data":    reward,
	})
}

// GetSettings handles GET /api/v1/rewards/settings
func (h *RewardHandler) GetSettings(c *gin.Context) {
	settings, err := h.rewardService.Settings(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// UpdateSettings handles PUT /api/v1/rewards/settings (admin)
func (h *RewardHandler) UpdateSettings(c *gin.Context) {
	var req models.UpdateRewardSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	settings, err := h.rewardService.UpdateSettings(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Reward settings updated",
		"data":    settings,
	})
}

// GetSettingLogs handles GET /api/v1/rewards/settings/logs (admin)
func (h *RewardHandler) GetSettingLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	logs, err := h.rewardService.SettingLogs(c.Request.Context(), limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}
