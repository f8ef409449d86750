package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"offboard/internal/deallocation"
	"offboard/internal/eligibility"
	"offboard/internal/integration"
	"offboard/internal/integration/accesscontrol"
	"offboard/internal/integration/identity"
	"offboard/internal/occupancy/store/delegated"
	"offboard/internal/occupancy/store/resident"
	"offboard/internal/occupancy/store/rolemapping"
	"offboard/internal/occupancy/store/terms"
	"offboard/internal/occupancy/store/unit"
	"offboard/internal/platform/config"
	"offboard/internal/platform/httpserver"
	"offboard/internal/platform/logger"
	"offboard/internal/platform/postgres"
	platformredis "offboard/internal/platform/redis"
	"offboard/internal/runguard"
	"offboard/internal/transport/ops"
	"offboard/pkg/platform/audit"
	auditkafka "offboard/pkg/platform/audit/publishers/kafka"
	auditmemory "offboard/pkg/platform/audit/store/memory"
	auditworker "offboard/pkg/platform/audit/worker"
)

// main wires the daily de-allocation worker: stores, downstream clients,
// the run guard and the cron trigger. Business logic lives in the internal
// packages; this file only assembles them.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}

	// Without a coordination store the guard degrades to process-local
	// exclusion; acceptable only for single-instance deployments.
	var lease runguard.Lease
	if redisClient != nil {
		defer redisClient.Close()
		lease = runguard.NewRedisLease(redisClient.Client)
	} else {
		log.Warn("no REDIS_URL configured, run guard is process-local")
		lease = runguard.NewMemoryLease()
	}
	guard := runguard.New(lease, runguard.WithLogger(log))

	publisher, closeAudit := buildAuditPipeline(ctx, cfg, log)
	defer closeAudit()

	unitStore := unit.NewPostgres(db)
	roleStore := rolemapping.NewPostgres(db)
	termStore := terms.NewPostgres(db)
	delegatedStore := delegated.NewPostgres(db)
	residentStore := resident.NewPostgres(db)

	accessClient := accesscontrol.New(cfg.AccessControl.BaseURL, cfg.AccessControl.SharedSecret)
	identityClient := identity.New(cfg.Identity.BaseURL, cfg.Identity.SharedSecret)
	minter := integration.NewTokenMinter([]byte(cfg.IntegrationSigningKey), cfg.IntegrationIssuer, 10*time.Minute)

	resolver := eligibility.New(eligibility.Sources(termStore), eligibility.WithLogger(log))
	revoker := deallocation.NewRevoker(
		unitStore, roleStore, delegatedStore, residentStore,
		accessClient, identityClient,
		deallocation.WithLogger(log),
		deallocation.WithAuditPublisher(publisher),
	)
	pipeline := deallocation.NewPipeline(
		guard, resolver, revoker, minter, cfg.SystemUserID,
		deallocation.WithPipelineLogger(log),
		deallocation.WithPipelineAuditPublisher(publisher),
		deallocation.WithWindow(cfg.GuardWindow),
	)

	c := cron.New()
	if _, err := c.AddFunc(cfg.CronSpec, func() {
		pipeline.RunDailyDeallocation(ctx)
	}); err != nil {
		log.Error("scheduling daily deallocation failed", "cron", cfg.CronSpec, "error", err)
		os.Exit(1)
	}
	c.Start()
	log.Info("daily deallocation scheduled", "cron", cfg.CronSpec, "window", cfg.GuardWindow)

	srv := httpserver.New(cfg.OpsAddr, ops.NewRouter(db, redisHealth(redisClient)))
	go func() {
		log.Info("ops server listening", "addr", cfg.OpsAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("ops server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	cronCtx := c.Stop()
	// Let an in-flight run finish its current pair loop; steps commit
	// individually so a hard kill is also recoverable.
	select {
	case <-cronCtx.Done():
	case <-time.After(30 * time.Second):
		log.Warn("in-flight run did not finish before shutdown deadline")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

// buildAuditPipeline returns the event publisher and a shutdown func.
// With brokers configured events go to kafka, otherwise they drain into an
// in-process store through the channel worker.
func buildAuditPipeline(ctx context.Context, cfg config.Worker, log *slog.Logger) (audit.Publisher, func()) {
	if len(cfg.KafkaBrokers) > 0 {
		pub, err := auditkafka.New(cfg.KafkaBrokers, cfg.AuditTopic)
		if err == nil {
			log.Info("audit events publishing to kafka", "topic", cfg.AuditTopic)
			return pub, pub.Close
		}
		log.Warn("kafka unavailable, falling back to in-process audit store", "error", err)
	}

	channel := auditworker.NewChannelPublisher(256)
	worker := auditworker.NewWorker(auditmemory.New(), channel.Inbox())
	workerCtx, cancel := context.WithCancel(ctx)
	go func() {
		_ = worker.Run(workerCtx)
	}()
	return channel, cancel
}

func redisHealth(c *platformredis.Client) ops.HealthChecker {
	if c == nil {
		return nil
	}
	return c
}
