package main

import (
	"context"
	"time"

	"github.com/SunnyAureliusRichard/meditation-cogs/checkin"
	"github.com/SunnyAureliusRichard/meditation-cogs/config"
	"github.com/SunnyAureliusRichard/meditation-cogs/models"
	"github.com/SunnyAureliusRichard/meditation-cogs/platform"
	"github.com/SunnyAureliusRichard/meditation-cogs/routes"
	"github.com/SunnyAureliusRichard/meditation-cogs/scheduler"
	"github.com/SunnyAureliusRichard/meditation-cogs/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(&models.CheckIn{}, &models.Settings{})

	store := checkin.NewStore(db)
	settings, err := checkin.LoadSettings(db, cfg.DefaultDailyMessage)
	if err != nil {
		utils.Sugar.Fatalf("settings initialization failed: %v", err)
	}

	messenger, err := platform.NewGatewayClient()
	if err != nil {
		utils.Sugar.Fatalf("gateway initialization failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	processor := checkin.NewProcessor(store, messenger, 256)
	go processor.Run(ctx)

	sched := scheduler.New(settings, messenger, scheduler.NewAttemptLimiter())
	go sched.Run(ctx, time.Duration(cfg.TickIntervalSec)*time.Second)

	r := routes.SetupRouter(store, settings, processor)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
