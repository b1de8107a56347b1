package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"

	"github.com/cozyhive/backend-pos/internal/config"
	"github.com/cozyhive/backend-pos/internal/events"
	"github.com/cozyhive/backend-pos/internal/live"
	"github.com/cozyhive/backend-pos/internal/lock"
	"github.com/cozyhive/backend-pos/internal/obs"
	"github.com/cozyhive/backend-pos/internal/session"
	"github.com/cozyhive/backend-pos/internal/store"
	"github.com/cozyhive/backend-pos/internal/summary"
	"github.com/cozyhive/backend-pos/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(envOrDefault("OBS_LOG_FORMAT", "json"), envOrDefault("OBS_LOG_LEVEL", "info")).
		With().Str("env", cfg.AppEnv).Str("component", "worker").Logger()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "pos-worker"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() {
		_ = redisClient.Close()
	}()

	st := store.New(pool)
	bus := &events.Bus{
		Store: st,
		Notifiers: []events.Notifier{
			live.RedisNotifier{R: redisClient},
		},
	}

	sessionService, err := session.NewService(session.ServiceConfig{
		Repo:    st,
		Bus:     bus,
		Locker:  lock.Locker{R: redisClient},
		LockTTL: cfg.CheckoutLockTTL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise session service")
	}

	summaryService := &summary.Service{Repo: st, R: redisClient, TTL: cfg.SummaryCacheTTL}

	jobs := &worker.Jobs{
		Store:    st,
		Sessions: sessionService,
		Summary:  summaryService,
		Log:      logger,
	}

	redisConn, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis uri for task queue")
	}

	srv := asynq.NewServer(redisConn, asynq.Config{
		Concurrency: 4,
		Logger:      worker.AsynqLogger{Log: logger},
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(worker.TypeSessionReap, jobs.HandleSessionReap)
	mux.HandleFunc(worker.TypeSummaryWarm, jobs.HandleSummaryWarm)
	mux.HandleFunc(worker.TypeAuthSessionCleanup, jobs.HandleAuthSessionCleanup)

	scheduler := asynq.NewScheduler(redisConn, &asynq.SchedulerOpts{
		Logger: worker.AsynqLogger{Log: logger},
	})
	entries := []struct {
		cron string
		task *asynq.Task
	}{
		{"@every " + cfg.SessionReapInterval.String(), asynq.NewTask(worker.TypeSessionReap, nil)},
		{"@every " + cfg.SummaryWarmInterval.String(), asynq.NewTask(worker.TypeSummaryWarm, nil)},
		{"@every 1h", asynq.NewTask(worker.TypeAuthSessionCleanup, nil)},
	}
	for _, entry := range entries {
		if _, err := scheduler.Register(entry.cron, entry.task); err != nil {
			logger.Fatal().Err(err).Str("task", entry.task.Type()).Msg("register scheduled task")
		}
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- srv.Run(mux)
	}()
	go func() {
		errCh <- scheduler.Run()
	}()

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().
		Dur("session_reap_interval", cfg.SessionReapInterval).
		Dur("summary_warm_interval", cfg.SummaryWarmInterval).
		Msg("worker starting")

	select {
	case <-shutdownCtx.Done():
		logger.Info().Msg("worker shutting down")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("worker exited unexpectedly")
		}
	}
	scheduler.Shutdown()
	srv.Shutdown()
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
