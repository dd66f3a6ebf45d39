package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/lms-backend/internal/cache"
	"github.com/iliyamo/lms-backend/internal/config"
	"github.com/iliyamo/lms-backend/internal/database"
	"github.com/iliyamo/lms-backend/internal/events"
	"github.com/iliyamo/lms-backend/internal/handler"
	"github.com/iliyamo/lms-backend/internal/logging"
	"github.com/iliyamo/lms-backend/internal/mail"
	"github.com/iliyamo/lms-backend/internal/middleware"
	"github.com/iliyamo/lms-backend/internal/payment"
	"github.com/iliyamo/lms-backend/internal/queue"
	"github.com/iliyamo/lms-backend/internal/repository"
	"github.com/iliyamo/lms-backend/internal/router"
	"github.com/iliyamo/lms-backend/internal/scheduler"
	"github.com/iliyamo/lms-backend/internal/search"
	"github.com/iliyamo/lms-backend/internal/service"
	"github.com/iliyamo/lms-backend/internal/session"
	"github.com/iliyamo/lms-backend/internal/token"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env wins

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, database.DSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName))
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	rdb, err := config.NewRedisClient(ctx)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	issuer, err := token.NewIssuer(
		token.Secrets{Access: cfg.AccessSecret, Refresh: cfg.RefreshSecret, Activation: cfg.ActivationSecret},
		token.TTLs{Access: cfg.AccessTTL, Refresh: cfg.RefreshTTL, Activation: cfg.ActivationTTL},
	)
	if err != nil {
		log.Fatalf("tokens: %v", err)
	}

	users := repository.NewUserRepo(db)
	courses := repository.NewCourseRepo(db)
	orders := repository.NewOrderRepo(db)
	notifications := repository.NewNotificationRepo(db)
	layouts := repository.NewLayoutRepo(db)
	sessions := session.NewCache(rdb, cfg.SessionPrefix)
	previews := cache.NewCourses(rdb)
	responses := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)

	sender, closeMail := mailer(ctx, cfg, logger)
	defer closeMail()

	publisher := eventPublisher(cfg, logger)
	defer publisher.Close()

	courseSvc := &service.CourseService{
		Courses: courses, Notifications: notifications, Mail: sender, Events: publisher,
		Cache: previews, Responses: responses,
	}
	if ix := courseIndex(ctx, cfg, logger); ix != nil {
		courseSvc.Index = ix
	}
	orderSvc := &service.OrderService{
		Users: users, Courses: courses, Orders: orders, Notifications: notifications,
		Sessions: sessions, Mail: sender, Events: publisher, Cache: previews, Responses: responses,
	}
	if cfg.StripeSecretKey != "" {
		orderSvc.Payments = payment.NewStripe(cfg.StripeSecretKey, cfg.StripePublishableKey)
	} else {
		logger.Warn("STRIPE_SECRET_KEY not set; payments disabled")
	}

	authSvc := &service.AuthService{
		Users: users, Sessions: sessions, Tokens: issuer, Mail: sender, Events: publisher,
		SessionTTL: cfg.SessionTTL, BcryptCost: cfg.BcryptCost,
	}
	userSvc := &service.UserService{Users: users, Sessions: sessions, BcryptCost: cfg.BcryptCost}

	jobs := scheduler.New(logger)
	if err := jobs.AddNotificationCleanup(cfg.CleanupSpec, notifications, cfg.CleanupMaxAge); err != nil {
		log.Fatalf("scheduler: %v", err)
	}
	jobs.Start()

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.ErrorHandler(logger)
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(
		echomw.Recover(),
		echomw.RequestID(),
		echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: cfg.Origins, AllowCredentials: true}),
		echomw.BodyLimit("50M"),
		middleware.RequestLogger(logger),
	)

	router.Register(e, router.Deps{
		Gate:      middleware.NewGate(issuer, sessions),
		RateLimit: middleware.RateLimit(config.LoadRateLimitConfig(), rdb),
		Cache:     responses.Middleware(),
		Health: handler.Health(map[string]handler.Pinger{
			"mysql": db,
			"redis": handler.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() }),
		}),
		Auth: handler.NewAuthHandler(authSvc, handler.Cookies{
			AccessTTL: cfg.AccessTTL, RefreshTTL: cfg.RefreshTTL, Secure: cfg.Production(),
		}),
		Users:         handler.NewUserHandler(userSvc),
		Courses:       handler.NewCourseHandler(courseSvc),
		Orders:        handler.NewOrderHandler(orderSvc),
		Notifications: handler.NewNotificationHandler(&service.NotificationService{Notifications: notifications}),
		Layouts:       handler.NewLayoutHandler(&service.LayoutService{Layouts: layouts, Responses: responses}),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("listening", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	jobs.Stop(shutdownCtx)
	logger.Info("shutdown complete")
}

// mailer returns the mail.Sender the services use. With RabbitMQ configured
// mail goes through the mail.outbox queue and a consumer in this process
// delivers it; otherwise it is sent over SMTP inline.
func mailer(ctx context.Context, cfg config.Config, logger *slog.Logger) (mail.Sender, func()) {
	smtp := mail.NewSMTPSender(mail.SMTPConfig{
		Host: cfg.SMTPHost, Port: cfg.SMTPPort, User: cfg.SMTPUser, Password: cfg.SMTPPassword, From: cfg.SMTPFrom,
	})
	if cfg.RabbitURL == "" {
		logger.Warn("RABBITMQ_URL not set; sending mail inline")
		return smtp, func() {}
	}

	pub := queue.NewPublisher(cfg.RabbitURL)
	consumer := queue.NewConsumer(cfg.RabbitURL, smtp, logger)
	go func() {
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("mail consumer stopped", "error", err)
		}
	}()
	return pub, func() {
		if err := pub.Close(); err != nil {
			logger.Warn("close mail publisher", "error", err)
		}
	}
}

type closingPublisher interface {
	events.Publisher
	Close() error
}

func eventPublisher(cfg config.Config, logger *slog.Logger) closingPublisher {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Warn("KAFKA_BROKERS not set; domain events disabled")
		return events.Noop{}
	}
	return events.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
}

// courseIndex returns nil when search is not configured or the cluster is
// unreachable at startup.
func courseIndex(ctx context.Context, cfg config.Config, logger *slog.Logger) *search.Index {
	if len(cfg.ElasticURLs) == 0 {
		logger.Warn("ES_URL not set; course search disabled")
		return nil
	}
	ix, err := search.NewIndex(search.Config{
		Addresses: cfg.ElasticURLs, Username: cfg.ElasticUser, Password: cfg.ElasticPass, Index: cfg.ElasticIndex,
	})
	if err != nil {
		logger.Error("elasticsearch client", "error", err)
		return nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := ix.Ping(pingCtx); err != nil {
		logger.Error("elasticsearch unreachable; course search disabled", "error", err)
		return nil
	}
	return ix
}
