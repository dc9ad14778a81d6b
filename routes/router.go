package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/SunnyAureliusRichard/meditation-cogs/checkin"
	"github.com/SunnyAureliusRichard/meditation-cogs/config"
	"github.com/SunnyAureliusRichard/meditation-cogs/controllers"
	"github.com/SunnyAureliusRichard/meditation-cogs/middleware"
	"github.com/SunnyAureliusRichard/meditation-cogs/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(store *checkin.Store, settings *checkin.SettingsStore, processor *checkin.Processor) *gin.Engine {
	// Load config and set Gin mode from configuration
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		// fallback to default recovery if logger failed to init
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Webhook-Secret"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}

	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController()
	checkinController := controllers.NewCheckinController(store, processor)
	settingsController := controllers.NewSettingsController(settings)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/token", authController.Token)

	// Gateway webhook: authenticated by shared secret inside the handler
	api.POST("/events/reaction", checkinController.ReactionWebhook)

	// Public streak queries
	api.GET("/streaks/:user_id", checkinController.GetStreak)
	api.GET("/leaderboard", checkinController.GetLeaderboard)

	admin := api.Group("/settings")
	admin.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())
	admin.GET("", settingsController.GetSettings)
	admin.PUT("/channel", settingsController.SetChannel)
	admin.PUT("/message", settingsController.SetMessage)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
