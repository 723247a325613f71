package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dapurasri/backoffice/internal/config"
	"github.com/dapurasri/backoffice/internal/events"
	"github.com/dapurasri/backoffice/internal/processor"
	"github.com/dapurasri/backoffice/internal/repository"
	"github.com/dapurasri/backoffice/internal/services"
	"github.com/dapurasri/backoffice/pkg/logger"
	"github.com/dapurasri/backoffice/pkg/pg"
	"github.com/dapurasri/backoffice/pkg/prom"
	"github.com/dapurasri/backoffice/pkg/redis"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}
	cfg := config.Get()
	logger.Info("starting processor", "version", version, "commit", commit, "built", date)

	loc, _ := cfg.Location()

	db, err := pg.CreateReadWrite(cfg.ReadDB(), cfg.WriteDB(), cfg.IsDev())
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	redisAdap, err := redis.NewRedisAdapter("default", cfg.RedisUniversalKeyPrefix, &redis.Options{
		Addrs:      []string{cfg.RedisAddr},
		ClientName: cfg.AppName + "-processor",
		DB:         cfg.RedisDatabase,
		Username:   cfg.RedisUsername,
		Password:   cfg.RedisPassword,
	})
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	if err = prom.Create(hostname, cfg.AppEnv, cfg.PromNamespace); err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
		return
	}
	go prom.ListenAndServer(cfg.AppDebugMetricsAddr, cfg.AppDebugMetricsURI)

	dashboard := services.NewDashboardService(
		repository.NewSalesRepository(db),
		repository.NewPurchaseRepository(db),
		redisAdap,
		cfg.DashboardCacheTTL,
		services.DefaultClock(loc),
	)

	consumerName := cfg.EventsConsumerName
	if consumerName == "" {
		consumerName = fmt.Sprintf("%s-%d", hostname, os.Getpid())
	}
	consumer, err := events.NewConsumer(redisAdap, events.ConsumerConfig{
		Stream:     cfg.EventsStream,
		Group:      cfg.EventsConsumerGroup,
		Name:       consumerName,
		Block:      cfg.EventsPollBlock,
		ClaimIdle:  cfg.EventsClaimIdle,
		DeadLetter: cfg.EventsStream + ":dlq",
	})
	if err != nil {
		logger.Error("failed to create event consumer", "error", err)
		return
	}

	service, err := processor.NewProcessorService(
		consumer,
		dashboard,
		processor.NewIdempotencyService(redisAdap, processor.DefaultIdempotencyConfig()),
		processor.Config{
			Workers:   cfg.ProcessorWorkers,
			RefreshAt: cfg.DashboardRefreshAt,
			Location:  loc,
		},
	)
	if err != nil {
		logger.Error("failed to create processor", "error", err)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := service.Start(ctx); err != nil {
		logger.Error("failed to start processor", "error", err)
		return
	}
	if err := service.RefreshCurrentYear(ctx); err != nil {
		logger.Warn("initial dashboard refresh failed", "error", err)
	}

	<-ctx.Done()
	service.Stop()
	_ = logger.GetLogger().Sync()
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}
