package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	slogecho "github.com/samber/slog-echo"

	"github.com/meridian-social/aegis/moderation"
	"github.com/meridian-social/aegis/moderation/actions"
	"github.com/meridian-social/aegis/moderation/cachestore"
	"github.com/meridian-social/aegis/moderation/classify"
	"github.com/meridian-social/aegis/moderation/countstore"
	"github.com/meridian-social/aegis/moderation/engine"
	"github.com/meridian-social/aegis/moderation/eventlog"
	"github.com/meridian-social/aegis/moderation/flagstore"
	"github.com/meridian-social/aegis/moderation/notify"
	"github.com/meridian-social/aegis/moderation/pii"
	"github.com/meridian-social/aegis/moderation/queue"
	"github.com/meridian-social/aegis/moderation/reporting"
)

type Server struct {
	logger  *slog.Logger
	echo    *echo.Echo
	httpd   *http.Server
	engine  *engine.Engine
	queue   *queue.Queue
	reports *reporting.Service
	actions *actions.Service
	events  eventlog.Store
	rdb     *redis.Client
}

type Config struct {
	Logger              *slog.Logger
	RedisURL            string
	AuditDBPath         string
	ClassifierHost      string
	ClassifierToken     string
	ClassifierRateLimit int
	ClassifyTimeout     time.Duration
	SlackWebhookURL     string
	Bind                string
}

func NewServer(config Config) (*Server, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	var counters countstore.CountStore
	var cache cachestore.CacheStore
	var flags flagstore.FlagStore
	var rdb *redis.Client
	if config.RedisURL != "" {
		opt, err := redis.ParseURL(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis URL: %v", err)
		}
		rdb = redis.NewClient(opt)
		_, err = rdb.Ping(context.TODO()).Result()
		if err != nil {
			return nil, fmt.Errorf("redis ping failed: %v", err)
		}

		cnt, err := countstore.NewRedisCountStore(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("initializing redis countstore: %v", err)
		}
		counters = cnt

		csh, err := cachestore.NewRedisCacheStore(config.RedisURL, 30*time.Minute)
		if err != nil {
			return nil, fmt.Errorf("initializing redis cachestore: %v", err)
		}
		cache = csh

		flg, err := flagstore.NewRedisFlagStore(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("initializing redis flagstore: %v", err)
		}
		flags = flg
	} else {
		counters = countstore.NewMemCountStore()
		cache = cachestore.NewMemCacheStore(5_000, 30*time.Minute)
		flags = flagstore.NewMemFlagStore()
	}

	var events eventlog.Store
	if config.AuditDBPath != "" {
		es, err := eventlog.NewSQLiteStore(config.AuditDBPath)
		if err != nil {
			return nil, fmt.Errorf("initializing sqlite audit log: %v", err)
		}
		events = es
		logger.Info("audit log on sqlite", "path", config.AuditDBPath)
	} else {
		events = eventlog.NewMemStore()
	}

	var notifier notify.Notifier
	if config.SlackWebhookURL != "" {
		logger.Info("configuring slack queue alerts")
		notifier = &notify.SlackNotifier{SlackWebhookURL: config.SlackWebhookURL}
	} else {
		notifier = &notify.LogNotifier{Logger: logger}
	}

	pol := moderation.DefaultPolicy()
	authors := engine.NewAuthorRegistry()
	q := queue.New(pol, logger, notifier, events)
	acts := actions.NewService(pol, logger, q, notifier, events, authors.Resolve)
	reps := reporting.NewService(pol, logger, q, counters, flags, acts, authors.Resolve, events)

	textClassifier := classify.NewKeywordClassifier(classify.DefaultVocab(), pii.NewRegexDetector())
	var imageClassifier classify.Classifier
	if config.ClassifierHost != "" {
		logger.Info("configuring remote scoring API", "host", config.ClassifierHost)
		imageClassifier = classify.NewRemoteClassifier(config.ClassifierHost, config.ClassifierToken, config.ClassifierRateLimit)
	}

	eng := &engine.Engine{
		Logger:          logger,
		Policy:          pol,
		Classifier:      textClassifier,
		ImageClassifier: imageClassifier,
		Queue:           q,
		Reports:         reps,
		Actions:         acts,
		Authors:         authors,
		Cache:           cache,
		Counters:        counters,
		Notifier:        notifier,
		ClassifyTimeout: config.ClassifyTimeout,
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(slogecho.New(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("8M"))

	srv := &Server{
		logger:  logger,
		echo:    e,
		engine:  eng,
		queue:   q,
		reports: reps,
		actions: acts,
		events:  events,
		rdb:     rdb,
	}
	e.HTTPErrorHandler = srv.errorHandler
	srv.registerRoutes(e)

	srv.httpd = &http.Server{
		Handler:        e,
		Addr:           config.Bind,
		WriteTimeout:   time.Minute,
		ReadTimeout:    time.Minute,
		MaxHeaderBytes: 1 * (1024 * 1024),
	}

	return srv, nil
}

func (srv *Server) RunAPI() error {
	srv.logger.Info("starting server", "bind", srv.httpd.Addr)
	go func() {
		if err := srv.httpd.ListenAndServe(); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				srv.logger.Error("HTTP server shutting down unexpectedly", "err", err)
			}
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	go srv.RunPenaltySweep(ctx)

	quit := make(chan struct{})
	exitSignals := make(chan os.Signal, 1)
	signal.Notify(exitSignals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-exitSignals
		srv.logger.Info("received OS exit signal", "signal", sig)
		cancel()
		if err := srv.Shutdown(); err != nil {
			srv.logger.Error("HTTP server shutdown error", "err", err)
		}
		close(quit)
	}()
	<-quit
	srv.logger.Info("graceful shutdown complete")
	return nil
}

// RunPenaltySweep flips lapsed penalties to inactive once a minute, so reads
// of penalty state stay cheap.
func (srv *Server) RunPenaltySweep(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := srv.actions.ExpirePenalties(ctx); n > 0 {
				srv.logger.Info("expired penalties", "count", n)
			}
		}
	}
}

func (srv *Server) RunMetrics(listen string) error {
	http.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(listen, nil)
}

func (srv *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.httpd.Shutdown(ctx)
}
