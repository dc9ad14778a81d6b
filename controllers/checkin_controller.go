package controllers

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/SunnyAureliusRichard/meditation-cogs/checkin"
	"github.com/SunnyAureliusRichard/meditation-cogs/config"
	"github.com/SunnyAureliusRichard/meditation-cogs/platform"
	"github.com/SunnyAureliusRichard/meditation-cogs/utils"
)

// CheckinController handles reaction-event intake and streak queries.
type CheckinController struct {
	store     *checkin.Store
	processor *checkin.Processor
}

// NewCheckinController creates a new controller instance.
func NewCheckinController(store *checkin.Store, processor *checkin.Processor) *CheckinController {
	return &CheckinController{store: store, processor: processor}
}

type reactionEventRequest struct {
	EventID       string    `json:"event_id"`
	UserID        int64     `json:"user_id" binding:"required"`
	ChannelID     string    `json:"channel_id" binding:"required"`
	MessageID     string    `json:"message_id" binding:"required"`
	Marker        string    `json:"marker" binding:"required"`
	Removed       bool      `json:"removed"`
	MessageSentAt time.Time `json:"message_sent_at" binding:"required"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// ReactionWebhook accepts reaction add/remove notifications from the
// gateway and enqueues them for the single-threaded processor. The endpoint
// acknowledges as soon as the event is queued.
func (c *CheckinController) ReactionWebhook(ctx *gin.Context) {
	secret := ctx.GetHeader("X-Webhook-Secret")
	cfg := config.Get()
	if subtle.ConstantTimeCompare([]byte(secret), []byte(cfg.WebhookSecret)) != 1 {
		utils.Error(ctx, http.StatusUnauthorized, 40120, "invalid webhook secret")
		return
	}

	var req reactionEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid reaction event payload")
		return
	}

	ev := platform.ReactionEvent{
		UserID:        req.UserID,
		ChannelID:     req.ChannelID,
		MessageID:     req.MessageID,
		Marker:        req.Marker,
		Removed:       req.Removed,
		MessageSentAt: req.MessageSentAt,
		OccurredAt:    req.OccurredAt,
	}
	if id, err := uuid.Parse(req.EventID); err == nil {
		ev.ID = id
	} else {
		ev.ID = uuid.New()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	if !c.processor.Enqueue(ev) {
		utils.Error(ctx, http.StatusServiceUnavailable, 50320, "event queue full")
		return
	}

	utils.Success(ctx, gin.H{"queued": true, "event_id": ev.ID.String()})
}

// GetStreak returns a user's current consecutive-day streak.
func (c *CheckinController) GetStreak(ctx *gin.Context) {
	userID, err := strconv.ParseInt(ctx.Param("user_id"), 10, 64)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40021, "invalid user id")
		return
	}

	streak, err := c.store.Streak(userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to compute streak")
		return
	}

	utils.Success(ctx, gin.H{
		"user_id": userID,
		"streak":  streak,
	})
}

// GetLeaderboard returns all nonzero streaks, descending.
func (c *CheckinController) GetLeaderboard(ctx *gin.Context) {
	entries, err := c.store.Leaderboard()
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to build leaderboard")
		return
	}

	ranked := make([]gin.H, 0, len(entries))
	for i, e := range entries {
		ranked = append(ranked, gin.H{
			"rank":    i + 1,
			"user_id": e.UserID,
			"streak":  e.Streak,
		})
	}

	utils.Success(ctx, gin.H{"leaderboard": ranked})
}
