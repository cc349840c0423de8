package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/clubebeneficios/clube-api/internal/config"
	"github.com/clubebeneficios/clube-api/internal/domain/auth"
	"github.com/clubebeneficios/clube-api/internal/domain/balance"
	"github.com/clubebeneficios/clube-api/internal/domain/expiration"
	"github.com/clubebeneficios/clube-api/internal/domain/notification"
	"github.com/clubebeneficios/clube-api/internal/domain/partner"
	"github.com/clubebeneficios/clube-api/internal/domain/payment"
	"github.com/clubebeneficios/clube-api/internal/domain/plan"
	"github.com/clubebeneficios/clube-api/internal/domain/realtime"
	"github.com/clubebeneficios/clube-api/internal/domain/report"
	"github.com/clubebeneficios/clube-api/internal/domain/sale"
	"github.com/clubebeneficios/clube-api/internal/domain/subscriber"
	"github.com/clubebeneficios/clube-api/internal/domain/transaction"
	"github.com/clubebeneficios/clube-api/internal/domain/user"
	"github.com/clubebeneficios/clube-api/internal/middleware"
	"github.com/clubebeneficios/clube-api/internal/pkg/clock"
	"github.com/clubebeneficios/clube-api/internal/pkg/database"
	"github.com/clubebeneficios/clube-api/internal/pkg/email"
	"github.com/clubebeneficios/clube-api/internal/pkg/events"
	"github.com/clubebeneficios/clube-api/internal/pkg/jwt"
	"github.com/clubebeneficios/clube-api/internal/pkg/kaspi"
	"github.com/clubebeneficios/clube-api/internal/pkg/logger"
	gateway "github.com/clubebeneficios/clube-api/internal/pkg/payment"
	"github.com/clubebeneficios/clube-api/internal/pkg/push"
	"github.com/clubebeneficios/clube-api/internal/pkg/robokassa"
	"github.com/clubebeneficios/clube-api/internal/pkg/storage"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env, Service: "clube-api"})

	// Monetary fields are emitted as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting Clube API")

	db, err := database.NewPostgres(cfg.DatabaseURL, database.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLife,
		ConnMaxIdleTime: time.Minute,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	store, err := storage.New(context.Background(), storage.Config{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
		Bucket:          cfg.S3Bucket,
		PublicURL:       cfg.S3PublicURL,
		LocalPath:       cfg.LocalStoragePath,
		LocalBaseURL:    cfg.BackendURL + "/files",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create report storage")
	}

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)
	publisher := events.New(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer publisher.Close()

	mailer := email.NewService(email.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.EmailFrom,
		FromName:  cfg.EmailFromName,
	})
	defer mailer.Close()
	pusher := push.NewClient(push.FCMConfig{ServerKey: cfg.FCMServerKey, ProjectID: cfg.FCMProjectID})

	loc := cfg.SweepLocation()
	withTx := database.Runner(db)

	// ---------- WebSocket hub ----------
	hub := realtime.NewHub(redis)
	go hub.Run()
	defer hub.Stop()

	// ---------- Repositories ----------
	userRepo := user.NewRepository(db)
	planRepo := plan.NewRepository(db)
	partnerRepo := partner.NewRepository(db)
	subscriberRepo := subscriber.NewRepository(db)
	balanceRepo := balance.NewRepository(db)
	transactionRepo := transaction.NewRepository(db)
	notificationRepo := notification.NewRepository(db)
	paymentRepo := payment.NewRepository(db)

	// ---------- Services ----------
	authService := auth.NewService(userRepo, jwtService)
	planService := plan.NewService(planRepo, db)
	partnerService := partner.NewService(partnerRepo)
	subscriberService := subscriber.NewService(subscriberRepo)
	balanceService := balance.NewService(balanceRepo, db, redis, cfg.BalanceCacheTTL)
	transactionService := transaction.NewService(transactionRepo, loc)
	notificationService := notification.NewService(notificationRepo, notification.Channels{
		Realtime:    hub,
		Mailer:      mailer,
		Pusher:      pusher,
		Clock:       clock.System{},
		Location:    loc,
		FrontendURL: cfg.FrontendURL,
	})

	saleService := sale.NewService(withTx, sale.Deps{
		Partners:    partnerService,
		Subscribers: subscriberService,
		Balances:    balanceService,
		Ledger:      transactionService,
		Notifier:    notificationService,
		Events:      publisher,
	})

	providers := gateway.NewRegistry(
		gateway.NewRoboKassaProvider(robokassa.NewClient(robokassa.Config{
			MerchantLogin: cfg.RoboKassaMerchantLogin,
			Password1:     cfg.RoboKassaPassword1,
			Password2:     cfg.RoboKassaPassword2,
			TestMode:      cfg.RoboKassaTestMode,
		})),
		gateway.NewKaspiProvider(kaspi.NewClient(kaspi.Config{
			BaseURL:    cfg.KaspiBaseURL,
			MerchantID: cfg.KaspiMerchantID,
			SecretKey:  cfg.KaspiSecretKey,
		}), cfg.KaspiSecretKey),
	)
	paymentService := payment.NewService(paymentRepo, withTx, payment.Config{
		Subscribers: subscriberService,
		Plans:       planService,
		Points:      saleService,
		Notifier:    notificationService,
		Events:      publisher,
		Providers:   providers,
		FrontendURL: cfg.FrontendURL,
		BackendURL:  cfg.BackendURL,
	})

	sweep := expiration.NewSweep(subscriberRepo, notificationService, expiration.Config{
		Plans:    planService,
		Events:   publisher,
		Locker:   expiration.NewRedisLocker(redis, cfg.SweepLockTTL),
		Location: loc,
	})
	reportService := report.NewService(transactionService, store, clock.System{}, loc)

	// ---------- Handlers ----------
	a := &app{
		auth:          auth.NewHandler(authService),
		plans:         plan.NewHandler(planService),
		partners:      partner.NewHandler(partnerService),
		subscribers:   subscriber.NewHandler(subscriberService),
		balances:      balance.NewHandler(balanceService, subscriberService),
		transactions:  transaction.NewHandler(transactionService, subscriberService, partnerService),
		sales:         sale.NewHandler(saleService, partnerService),
		payments:      payment.NewHandler(paymentService),
		notifications: notification.NewHandler(notificationService),
		reports:       report.NewHandler(reportService, partnerService, transactionService),
		sweep:         expiration.NewHandler(sweep),
		realtime:      realtime.NewHandler(hub, cfg.AllowedOrigins),

		authMiddleware: middleware.Auth(jwtService),
		cronSecret:     cfg.CronSecret,
		allowedOrigins: cfg.AllowedOrigins,
		filesDir:       cfg.LocalStoragePath,
		serveFiles:     cfg.S3Bucket == "",
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      a.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Let receipts and activation events of committed requests go out.
	saleService.Wait()
	paymentService.Wait()

	log.Info().Msg("Server exited properly")
}
