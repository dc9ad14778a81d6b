package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SunnyAureliusRichard/meditation-cogs/checkin"
	"github.com/SunnyAureliusRichard/meditation-cogs/utils"
)

// SettingsController exposes the admin configuration surface.
type SettingsController struct {
	settings *checkin.SettingsStore
}

// NewSettingsController creates a new controller instance.
func NewSettingsController(settings *checkin.SettingsStore) *SettingsController {
	return &SettingsController{settings: settings}
}

// GetSettings returns the current bot settings.
func (s *SettingsController) GetSettings(ctx *gin.Context) {
	st := s.settings.State()
	var lastPost *string
	if st.LastPostTime != nil {
		v := st.LastPostTime.UTC().Format(time.RFC3339)
		lastPost = &v
	}
	utils.Success(ctx, gin.H{
		"channel_id":     st.ChannelID,
		"daily_message":  st.DailyMessage,
		"last_post_time": lastPost,
		"was_first_post": st.WasFirstPost,
	})
}

type setChannelRequest struct {
	ChannelID string `json:"channel_id" binding:"required"`
}

// SetChannel configures the channel the daily prompt is posted to.
func (s *SettingsController) SetChannel(ctx *gin.Context) {
	var req setChannelRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "channel_id is required")
		return
	}
	if err := s.settings.SetChannel(req.ChannelID); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to save channel")
		return
	}
	utils.Success(ctx, gin.H{"channel_id": req.ChannelID})
}

type setMessageRequest struct {
	DailyMessage string `json:"daily_message" binding:"required"`
}

// SetMessage configures the daily prompt text.
func (s *SettingsController) SetMessage(ctx *gin.Context) {
	var req setMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40031, "daily_message is required")
		return
	}
	if err := s.settings.SetDailyMessage(req.DailyMessage); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to save message")
		return
	}
	utils.Success(ctx, gin.H{"daily_message": req.DailyMessage})
}
