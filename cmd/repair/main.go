package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"masterboxer.com/project-instaclone/config"
	"masterboxer.com/project-instaclone/database"
	"masterboxer.com/project-instaclone/logger"
	"masterboxer.com/project-instaclone/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	if err := logger.Init(cfg.Env, cfg.LogLevel); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	st, closeStore, err := database.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatal("Repair: store connection failed", zap.Error(err))
	}
	defer closeStore()

	log.Info("Running consistency repair job")
	report, err := services.NewConsistencyService(st).Repair(ctx)
	if err != nil {
		log.Error("Repair job failed", zap.Error(err))
		return
	}
	log.Info("Repair job finished",
		zap.Int("restored_follows", report.RestoredFollows),
		zap.Int64("deleted_comments", report.DeletedComments),
	)
}
