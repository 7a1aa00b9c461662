package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/quillpress/quillpress/internal/app"
	"github.com/quillpress/quillpress/internal/auth"
	"github.com/quillpress/quillpress/internal/authz"
	"github.com/quillpress/quillpress/internal/comments"
	"github.com/quillpress/quillpress/internal/identity"
	"github.com/quillpress/quillpress/internal/live"
	"github.com/quillpress/quillpress/internal/media"
	"github.com/quillpress/quillpress/internal/notifications"
	"github.com/quillpress/quillpress/internal/observability"
	"github.com/quillpress/quillpress/internal/platform/cache"
	"github.com/quillpress/quillpress/internal/platform/db"
	"github.com/quillpress/quillpress/internal/posts"
	"github.com/quillpress/quillpress/internal/tags"
	"github.com/quillpress/quillpress/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	policy := authz.DefaultPolicy()

	hub := live.NewHub(cfg.LiveSendTimeout, metrics, logger)
	bridge := live.NewBridge(redisClient, hub, logger)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	codec := identity.NewTokenCodec(cfg.JWTSecret, cfg.JWTTTL)
	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, codec, jobClient, logger)
	authHandler := auth.NewHandler(logger, authService)
	authenticator := identity.Authenticator{Codec: codec, Lookup: authRepo, Logger: logger}

	notificationsRepo := notifications.NewRepository(dbpool)
	notificationsService := notifications.NewService(notificationsRepo, hub, jobClient, policy, logger, metrics)
	notificationsHandler := notifications.NewHandler(logger, notificationsService)

	mediaStore, err := media.NewDiskStore(cfg.MediaDir, cfg.MediaMaxSize)
	if err != nil {
		logger.Error("init media store", slog.Any("error", err))
		os.Exit(1)
	}

	postsRepo := posts.NewRepository(dbpool)
	postsService := posts.NewService(postsRepo, dbpool, notificationsService, mediaStore, policy, logger)
	postsHandler := posts.NewHandler(logger, postsService, cfg.MediaMaxSize)

	commentsRepo := comments.NewRepository(dbpool)
	commentsService := comments.NewService(commentsRepo, policy, logger)
	commentsHandler := comments.NewHandler(logger, commentsService)

	tagsRepo := tags.NewRepository(dbpool)
	tagsService := tags.NewService(tagsRepo, policy, logger)
	tagsHandler := tags.NewHandler(logger, tagsService)

	streamHandler := live.NewStreamHandler(hub, logger)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:               logger,
		Config:               cfg,
		Authenticator:        authenticator,
		AuthHandler:          authHandler,
		PostsHandler:         postsHandler,
		CommentsHandler:      commentsHandler,
		TagsHandler:          tagsHandler,
		NotificationsHandler: notificationsHandler,
		StreamHandler:        streamHandler,
		JobHandler:           jobHandler,
		Metrics:              metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		// WriteTimeout would sever long-lived event streams; per-request
		// deadlines are applied on the JSON API group instead.
		WriteTimeout: 0,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return bridge.Run(groupCtx)
	})

	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && err != context.Canceled {
		logger.Error("runtime", slog.Any("error", err))
		os.Exit(1)
	}
}
