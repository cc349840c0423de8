// Command sweep runs the expiration sweep and the notification cleanup once
// and exits. It is the container-cron alternative to the HTTP job endpoint.
package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/clubebeneficios/clube-api/internal/config"
	"github.com/clubebeneficios/clube-api/internal/domain/expiration"
	"github.com/clubebeneficios/clube-api/internal/domain/notification"
	"github.com/clubebeneficios/clube-api/internal/domain/plan"
	"github.com/clubebeneficios/clube-api/internal/domain/realtime"
	"github.com/clubebeneficios/clube-api/internal/domain/subscriber"
	"github.com/clubebeneficios/clube-api/internal/pkg/clock"
	"github.com/clubebeneficios/clube-api/internal/pkg/database"
	"github.com/clubebeneficios/clube-api/internal/pkg/email"
	"github.com/clubebeneficios/clube-api/internal/pkg/events"
	"github.com/clubebeneficios/clube-api/internal/pkg/logger"
	"github.com/clubebeneficios/clube-api/internal/pkg/push"
)

const runTimeout = 10 * time.Minute

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env, Service: "clube-sweep"})

	db, err := database.NewPostgres(cfg.DatabaseURL, database.DefaultPool)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	rdb, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(rdb)

	publisher := events.New(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer publisher.Close()
	mailer := email.NewService(email.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.EmailFrom,
		FromName:  cfg.EmailFromName,
	})
	defer mailer.Close()

	loc := cfg.SweepLocation()
	notificationRepo := notification.NewRepository(db)

	// Without a running hub, in-app delivery goes through Redis pub/sub only.
	hub := realtime.NewHub(rdb)
	defer hub.Stop()
	notifier := notification.NewService(notificationRepo, notification.Channels{
		Realtime:    hub,
		Mailer:      mailer,
		Pusher:      push.NewClient(push.FCMConfig{ServerKey: cfg.FCMServerKey, ProjectID: cfg.FCMProjectID}),
		Clock:       clock.System{},
		Location:    loc,
		FrontendURL: cfg.FrontendURL,
	})

	sweep := expiration.NewSweep(subscriber.NewRepository(db), notifier, expiration.Config{
		Plans:    plan.NewService(plan.NewRepository(db), db),
		Events:   publisher,
		Locker:   expiration.NewRedisLocker(rdb, cfg.SweepLockTTL),
		Location: loc,
	})
	cleanup := notification.NewCleanupJob(notificationRepo, clock.System{}, cfg.NotificationRetentionDays)

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	exitCode := 0
	report, err := sweep.Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Expiration sweep failed")
		exitCode = 1
	} else {
		log.Info().
			Int("expiring_soon", report.ExpiringSoon).
			Int("expiring_today", report.ExpiringToday).
			Int("expired", report.Expired).
			Int("failed", report.Failed).
			Msg("Expiration sweep finished")
	}

	deleted, err := cleanup.RunOnce(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Notification cleanup failed")
		exitCode = 1
	} else {
		log.Info().Int64("deleted", deleted).Msg("Notification cleanup finished")
	}

	return exitCode
}
