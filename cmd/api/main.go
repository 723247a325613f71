package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/dapurasri/backoffice/internal/appctx"
	"github.com/dapurasri/backoffice/internal/config"
	"github.com/dapurasri/backoffice/internal/events"
	"github.com/dapurasri/backoffice/internal/handlers"
	"github.com/dapurasri/backoffice/internal/model"
	"github.com/dapurasri/backoffice/internal/numbering"
	"github.com/dapurasri/backoffice/internal/repository"
	"github.com/dapurasri/backoffice/internal/services"
	xhttp "github.com/dapurasri/backoffice/pkg/http"
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
	logger.Info("starting api", "version", version, "commit", commit, "built", date)

	loc, _ := cfg.Location()
	clock := services.DefaultClock(loc)

	if cfg.AuthJWTSecret == "" {
		logger.Error("AUTH_JWT_SECRET is required")
		return
	}

	db, err := pg.CreateReadWrite(cfg.ReadDB(), cfg.WriteDB(), cfg.IsDev())
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	redisAdap, err := redis.NewRedisAdapter("default", cfg.RedisUniversalKeyPrefix, &redis.Options{
		Addrs:      []string{cfg.RedisAddr},
		ClientName: cfg.AppName,
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

	// repositories
	productRepo := repository.NewProductRepository(db)
	categoryRepo := repository.NewLookupRepository(db, model.LookupPurchaseCategory)
	paymentMethodRepo := repository.NewLookupRepository(db, model.LookupPaymentMethod)
	customerRepo := repository.NewCustomerRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	salesRepo := repository.NewSalesRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)

	numbers, err := newAllocator(cfg, db, redisAdap, salesRepo, orderRepo)
	if err != nil {
		logger.Error("failed to create number allocator", "error", err)
		return
	}

	// services
	dashboardService := services.NewDashboardService(salesRepo, purchaseRepo, redisAdap, cfg.DashboardCacheTTL, clock)
	publisher := events.NewPublisher(redisAdap, events.PublisherConfig{
		Stream:   cfg.EventsStream,
		MaxLen:   cfg.EventsMaxLen,
		Location: loc,
	}, dashboardService)

	drafts := services.NewRedisDraftStore(redisAdap, cfg.DraftTTL)
	masterService := services.NewMasterService(productRepo, categoryRepo, paymentMethodRepo, customerRepo, publisher)
	orderService := services.NewOrderService(orderRepo, customerRepo, productRepo, numbers, publisher, clock)
	salesService := services.NewSalesService(salesRepo, productRepo, paymentMethodRepo, orderRepo, drafts, numbers, publisher, clock)
	purchaseService := services.NewPurchaseService(purchaseRepo, publisher)
	reportService := services.NewReportService(salesRepo, purchaseRepo, clock)
	healthService := services.NewHealthService(map[string]services.Pinger{
		"postgres": db,
		"redis":    redisAdap,
	})

	// transport
	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.Use(xhttp.RecoverMiddleware)
	s.Use(xhttp.RequestIDMiddleware)
	s.Use(xhttp.RequestLoggerMiddleware)
	if cfg.CorsAllowOrigin != "" {
		s.Use(xhttp.CORSMiddleware(cfg.CorsAllowOrigin))
	}
	s.Use(xhttp.TimeoutMiddleware(cfg.HttpRequestTimeout))
	s.Use(xhttp.CompressMiddleware(6))
	s.Use(appctx.Middleware(appctx.NewVerifier(cfg.AuthJWTSecret), appctx.NewRedisThemeStore(redisAdap), "/api/v1/health"))

	// v1 handlers
	g := s.Router.Group("/api/v1")
	handlers.RegisterHealthRoutes(g, handlers.NewHealthHandler(healthService))
	handlers.RegisterSessionRoutes(g, handlers.NewSessionHandler(appctx.NewRedisThemeStore(redisAdap)))
	handlers.RegisterMasterRoutes(g, handlers.NewMasterHandler(masterService))
	handlers.RegisterOrderRoutes(g, handlers.NewOrderHandler(orderService))
	handlers.RegisterSalesRoutes(g, handlers.NewSalesHandler(salesService))
	handlers.RegisterPurchaseRoutes(g, handlers.NewPurchaseHandler(purchaseService))
	handlers.RegisterReportRoutes(g, handlers.NewReportHandler(reportService, dashboardService))

	done := s.CloseOnSignal()
	go func() {
		if err := s.ListenAndServe(cfg.HttpListenAddr); err != nil {
			logger.Error("error in running http-server", "error", err)
		}
	}()
	<-done
	_ = logger.GetLogger().Sync()
}

// newAllocator picks the document number backend. "db" keeps counters in
// document_counters, "redis" in INCR keys.
func newAllocator(cfg *config.Config, db *pg.DB, r redis.RedisAdapter, sales, orders numbering.Seeder) (numbering.Allocator, error) {
	seeders := map[string]numbering.Seeder{
		numbering.ScopeSales.Name: sales,
		numbering.ScopeOrder.Name: orders,
	}
	switch cfg.NumberingBackend {
	case "", "db":
		return numbering.NewCounterAllocator(repository.NewCounterRepository(db), seeders), nil
	case "redis":
		return numbering.NewRedisAllocator(r, seeders), nil
	}
	return nil, fmt.Errorf("unknown NUMBERING_BACKEND %q", cfg.NumberingBackend)
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
