package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/convivia/school-wellbeing-backend/internal/alerts"
	"github.com/convivia/school-wellbeing-backend/internal/api"
	"github.com/convivia/school-wellbeing-backend/internal/audit"
	"github.com/convivia/school-wellbeing-backend/internal/config"
	"github.com/convivia/school-wellbeing-backend/internal/db"
	"github.com/convivia/school-wellbeing-backend/internal/incidents"
	"github.com/convivia/school-wellbeing-backend/internal/jobs"
	"github.com/convivia/school-wellbeing-backend/internal/logging"
	"github.com/convivia/school-wellbeing-backend/internal/messaging"
	"github.com/convivia/school-wellbeing-backend/internal/metrics"
	"github.com/convivia/school-wellbeing-backend/internal/notify"
	"github.com/convivia/school-wellbeing-backend/internal/observability"
	"github.com/convivia/school-wellbeing-backend/internal/pulse"
	"github.com/convivia/school-wellbeing-backend/internal/reports"
)

var release = "dev"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer lg.Closer()
	sugar := lg.Sugar

	if cfg.SentryDSN != "" {
		flush, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, release)
		if err != nil {
			sugar.Warnw("sentry init failed", "err", err)
		} else {
			defer flush()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		sugar.Fatalw("db open failed", "err", err)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		sugar.Fatalw("migrations failed", "err", err)
	}

	bus, err := notify.NewRedisBus(cfg.RedisAddr, sugar)
	if err != nil {
		sugar.Fatalw("redis connect failed", "err", err)
	}
	defer bus.Close()

	hub := notify.NewHub(sugar)
	if err := bus.StartForwarder(ctx, hub.Route); err != nil {
		sugar.Fatalw("bus forwarder failed", "err", err)
	}

	evaluator := alerts.NewEvaluator(database, bus, sugar)
	messagingSvc := messaging.NewService(database, bus, sugar)
	pulseSvc := pulse.NewService(database, sugar)
	incidentsSvc := incidents.NewService(database, evaluator, sugar)
	reportsSvc := reports.NewService(database)
	auditor := audit.NewRecorder(database, sugar)

	srv := api.NewServer(&api.Options{
		Addr:      cfg.HTTPAddr,
		Env:       cfg.Env,
		JWTSecret: cfg.JWTSecret,
		TokenTTL:  cfg.TokenTTL,
		Location:  cfg.Location,
		DB:        database,
		Log:       sugar,
		Hub:       hub,
		Evaluator: evaluator,
		Messaging: messagingSvc,
		Pulse:     pulseSvc,
		Incidents: incidentsSvc,
		Reports:   reportsSvc,
		Audit:     auditor,
	})

	api.StartOps(ctx, cfg.MetricsAddr, database)

	sweeps := jobs.NewSweeps(database, pulseSvc, sugar, cfg.Location)
	scheduler := jobs.NewScheduler(sweeps, sugar, cfg.Location)
	if err := scheduler.Start(); err != nil {
		sugar.Fatalw("scheduler start failed", "err", err)
	}
	defer scheduler.Stop()

	runner := jobs.New(ctx)
	runner.Every(5*time.Minute, "db_ping", func(c context.Context) error {
		t0 := time.Now()
		if err := database.PingContext(c); err != nil {
			return err
		}
		metrics.ObserveDBPing(time.Since(t0))
		return nil
	})

	go func() {
		sugar.Infow("api listening", "addr", cfg.HTTPAddr)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("api server failed", "err", err)
		}
	}()

	<-ctx.Done()
	sugar.Infow("shutting down")

	shCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownWait)
	defer cancel()
	if err := srv.Stop(shCtx); err != nil {
		sugar.Errorw("api shutdown failed", "err", err)
	}
}
