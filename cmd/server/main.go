package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	conflictHandler "canvass/internal/conflict/handler"
	conflictMetrics "canvass/internal/conflict/metrics"
	conflictService "canvass/internal/conflict/service"
	conflictStore "canvass/internal/conflict/store/conflict"
	notificationStore "canvass/internal/conflict/store/notification"
	"canvass/internal/platform/config"
	"canvass/internal/platform/httpserver"
	"canvass/internal/platform/logger"
	platformMetrics "canvass/internal/platform/metrics"
	"canvass/internal/platform/postgres"
	platformRedis "canvass/internal/platform/redis"
	rosterHandler "canvass/internal/roster/handler"
	rosterService "canvass/internal/roster/service"
	actorStore "canvass/internal/roster/store/actor"
	memberStore "canvass/internal/roster/store/member"
	tallyHandler "canvass/internal/tally/handler"
	tallyMetrics "canvass/internal/tally/metrics"
	tallyService "canvass/internal/tally/service"
	assignmentStore "canvass/internal/tally/store/assignment"
	categoryStore "canvass/internal/tally/store/category"
	entryStore "canvass/internal/tally/store/entry"
	"canvass/internal/token"
)

// entryLog is the full status log surface; the tally and conflict services
// each consume their own slice of it but must share one implementation.
type entryLog interface {
	tallyService.EntryStore
	conflictService.EntryStore
}

// main wires stores, services and handlers and owns the process lifecycle.
// Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}

	var (
		actors        rosterService.ActorStore
		members       rosterService.MemberStore
		entries       entryLog
		assignments   tallyService.AssignmentStore
		categories    tallyService.CategoryStore
		conflicts     conflictService.ConflictStore
		notifications conflictService.NotificationStore
		txRunner      conflictService.TxRunner
	)
	if db != nil {
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Error("schema migration failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		actors = actorStore.NewPostgres(db)
		members = memberStore.NewPostgres(db)
		entries = entryStore.NewPostgres(db)
		assignments = assignmentStore.NewPostgres(db)
		categories = categoryStore.NewPostgres(db)
		conflicts = conflictStore.NewPostgres(db)
		txRunner = postgres.NewTxRunner(db)
		log.Info("using postgres stores")
	} else {
		actors = actorStore.NewInMemory()
		members = memberStore.NewInMemory()
		entries = entryStore.NewInMemory()
		assignments = assignmentStore.NewInMemory()
		categories = categoryStore.NewInMemory()
		conflicts = conflictStore.NewInMemory()
		log.Warn("no database configured, using in-memory stores")
	}

	notifications = notificationStore.NewInMemory()
	redisClient, err := platformRedis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		notifications = notificationStore.NewRedis(redisClient.Client)
		log.Info("using redis notification store")
	}

	roster := rosterService.New(actors, members)
	admin, err := roster.EnsureAdmin(ctx, "admin")
	if err != nil {
		log.Error("admin bootstrap failed", "error", err)
		os.Exit(1)
	}
	log.Info("admin actor ready", "actor_id", admin.ID.String())

	httpMetrics := platformMetrics.New()
	conflictSvc := conflictService.New(conflicts, notifications, entries, roster, txRunner, conflictMetrics.New())
	tallySvc := tallyService.New(entries, assignments, categories, roster, log)
	tallySvc.SetDetector(conflictSvc)

	validator := token.New(cfg.JWTSigningKey)

	router := chi.NewRouter()
	rosterHandler.New(roster, log, httpMetrics, validator).Register(router)
	tallyHandler.New(tallySvc, log, tallyMetrics.New(), httpMetrics, validator).Register(router)
	conflictHandler.New(conflictSvc, log, httpMetrics, validator).Register(router)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	worker := conflictService.NewWorker(conflictSvc, cfg.ReconcileInterval, log)
	go func() {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("reconciliation worker stopped", "error", err)
		}
	}()

	srv := httpserver.New(cfg.Addr, router)
	go func() {
		log.Info("starting canvass", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
