package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"masterboxer.com/project-instaclone/auth"
	"masterboxer.com/project-instaclone/config"
	"masterboxer.com/project-instaclone/database"
	"masterboxer.com/project-instaclone/handlers"
	"masterboxer.com/project-instaclone/media"
	"masterboxer.com/project-instaclone/notify"
	"masterboxer.com/project-instaclone/routes"
	"masterboxer.com/project-instaclone/services"
)

const eventTimeout = 10 * time.Second

// app owns the long-lived dependencies built from the configuration
type app struct {
	handler    http.Handler
	closeStore func() error
	events     *notify.Async
}

func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*app, error) {
	st, closeStore, err := database.OpenStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	uploader, err := media.NewUploader(ctx, cfg)
	if err != nil {
		closeStore()
		return nil, fmt.Errorf("failed to create uploader: %w", err)
	}
	images := media.NewImageService(media.Transcoder{
		MaxDimension: cfg.ImageMaxDimension,
		Quality:      cfg.ImageJPEGQuality,
		MaxPixels:    cfg.ImageMaxPixels,
	}, uploader)

	hub := notify.NewHub(cfg.CORSOrigin)
	sinks := notify.Multi{notify.LogSink{}, hub}
	if cfg.FirebaseCredentialsPath != "" {
		client, err := services.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
		if err != nil {
			log.Warn("Push notifications disabled", zap.Error(err))
		} else {
			sinks = append(sinks, services.NewPushSink(client, st))
		}
	}
	events := notify.NewAsync(sinks, eventTimeout)

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	hasher := auth.NewPasswordHasher(0)

	var uploadDir string
	if cfg.StorageBackend == config.StorageLocal {
		uploadDir = cfg.UploadDir
	}

	handler := routes.NewHandler(routes.Deps{
		Users:          services.NewUserService(st, hasher, tokens, images, events),
		Posts:          services.NewPostService(st, images, events),
		Messages:       services.NewMessageService(st, events),
		Hub:            hub,
		Tokens:         tokens,
		Cookie:         handlers.CookieOptions{Secure: cfg.CookieSecure || cfg.IsProduction()},
		MaxUploadBytes: cfg.MaxUploadBytes,
		CORSOrigin:     cfg.CORSOrigin,
		UploadDir:      uploadDir,
		Logger:         log,
	})

	return &app{handler: handler, closeStore: closeStore, events: events}, nil
}

// close waits for queued events before releasing the store
func (a *app) close() error {
	a.events.Wait()
	return a.closeStore()
}
