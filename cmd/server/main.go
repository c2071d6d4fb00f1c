package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"vendorflow/internal/audit"
	"vendorflow/internal/escalation"
	"vendorflow/internal/jwttoken"
	"vendorflow/internal/platform/config"
	"vendorflow/internal/platform/httpserver"
	"vendorflow/internal/platform/logger"
	"vendorflow/internal/platform/metrics"
	platformredis "vendorflow/internal/platform/redis"
	"vendorflow/internal/scoring"
	"vendorflow/internal/sla"
	httptransport "vendorflow/internal/transport/http"
	"vendorflow/internal/vendorstore"
	"vendorflow/internal/workflow"
)

const auditInboxSize = 256

// main wires dependencies and owns process lifecycle. All scheduling (the
// escalation ticker, the audit worker) lives here; the engine packages only
// expose Run methods.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	met := metrics.New()

	// Vendor store: Postgres when a DSN is configured, in-memory otherwise.
	var vendorStore store.Store = store.NewInMemoryStore()
	var auditStore audit.Store = audit.NewInMemoryStore()
	if cfg.PostgresDSN != "" {
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer pool.Close()
		vendorStore = store.NewPostgresStore(pool)

		auditDB, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer auditDB.Close()
		auditStore = audit.NewPostgresStore(auditDB)
	}

	redisClient, err := platformredis.New(cfg.Redis())
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var sink audit.Sink
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return err
		}
		defer kafkaSink.Close()
		sink = kafkaSink
	}

	inbox := make(chan audit.Event, auditInboxSize)
	publisher := audit.NewPublisher(inbox, log)
	auditWorker := audit.NewWorker(auditStore, sink, inbox, log)

	engine, err := workflow.New(vendorStore, scoring.NewScorer(),
		workflow.WithLogger(log),
		workflow.WithMetrics(met),
		workflow.WithAuditPublisher(publisher),
		workflow.WithLargeEnterpriseRevenue(cfg.LargeEnterpriseRevenue),
	)
	if err != nil {
		return err
	}

	monitorOpts := []sla.Option{sla.WithLogger(log), sla.WithMetrics(met)}
	if redisClient != nil {
		monitorOpts = append(monitorOpts, sla.WithCache(sla.NewReportCache(redisClient.Client, cfg.SLAReportTTL)))
	}
	monitor, err := sla.NewMonitor(vendorStore, monitorOpts...)
	if err != nil {
		return err
	}

	sweeper, err := escalation.New(monitor, vendorStore, cfg.SweepInterval,
		escalation.WithLogger(log),
		escalation.WithMetrics(met),
		escalation.WithAuditPublisher(publisher),
	)
	if err != nil {
		return err
	}

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "vendorflow")
	handler := httptransport.NewHandler(engine, monitor, sweeper, log)
	router := httptransport.NewRouter(handler, jwtService, log)
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return auditWorker.Run(gctx)
	})
	g.Go(func() error {
		return sweeper.Run(gctx)
	})
	g.Go(func() error {
		log.Info("starting vendorflow", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
