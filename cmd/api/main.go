package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hptourism/homestay-portal/api/controllers"
	"github.com/hptourism/homestay-portal/api/routes"
	"github.com/hptourism/homestay-portal/internal/actions"
	"github.com/hptourism/homestay-portal/internal/applications"
	authsvc "github.com/hptourism/homestay-portal/internal/auth"
	"github.com/hptourism/homestay-portal/internal/certificates"
	"github.com/hptourism/homestay-portal/internal/districts"
	"github.com/hptourism/homestay-portal/internal/documents"
	"github.com/hptourism/homestay-portal/internal/inspections"
	"github.com/hptourism/homestay-portal/internal/payments"
	"github.com/hptourism/homestay-portal/internal/users"
	"github.com/hptourism/homestay-portal/internal/workflow"
	"github.com/hptourism/homestay-portal/pkg/auth/session"
	"github.com/hptourism/homestay-portal/pkg/config"
	"github.com/hptourism/homestay-portal/pkg/db"
	"github.com/hptourism/homestay-portal/pkg/himkosh"
	"github.com/hptourism/homestay-portal/pkg/logger"
	"github.com/hptourism/homestay-portal/pkg/metrics"
	"github.com/hptourism/homestay-portal/pkg/migrate"
	"github.com/hptourism/homestay-portal/pkg/outbox"
	"github.com/hptourism/homestay-portal/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessions, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	himkoshClient, err := himkosh.NewClient(context.Background(), cfg.HimKosh, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap himkosh client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	matcher := districts.NewMatcher(cfg.Districts)
	gormDB := dbClient.DB()

	userRepo := users.NewRepository(gormDB)
	appRepo := applications.NewRepository(gormDB, matcher)
	docRepo := documents.NewRepository(gormDB)
	actionRepo := actions.NewRepository(gormDB)
	paymentRepo := payments.NewRepository(gormDB)
	inspectionRepo := inspections.NewRepository(gormDB)
	outboxSvc := outbox.NewService(outbox.NewRepository(gormDB), logg)

	engine, err := workflow.NewService(dbClient, actionRepo, outboxSvc, matcher, metrics.NewWorkflowMetrics(registry), logg)
	if err != nil {
		fatal(logg, "workflow engine", err)
	}

	userSvc, err := users.NewService(userRepo, matcher, cfg.Password)
	if err != nil {
		fatal(logg, "user service", err)
	}
	authService, err := authsvc.NewService(userRepo, sessions, cfg.JWT, logg)
	if err != nil {
		fatal(logg, "auth service", err)
	}
	docSvc, err := documents.NewService(docRepo, appRepo)
	if err != nil {
		fatal(logg, "document service", err)
	}
	appSvc, err := applications.NewService(appRepo, docSvc, engine, matcher)
	if err != nil {
		fatal(logg, "application service", err)
	}
	auditSvc, err := actions.NewService(actionRepo)
	if err != nil {
		fatal(logg, "audit service", err)
	}
	inspectionSvc, err := inspections.NewService(inspectionRepo, engine)
	if err != nil {
		fatal(logg, "inspection service", err)
	}
	feeSchedule, err := certificates.NewFeeSchedule(cfg.Fees)
	if err != nil {
		fatal(logg, "fee schedule", err)
	}
	certSvc, err := certificates.NewService(appRepo, engine)
	if err != nil {
		fatal(logg, "certificate service", err)
	}
	paymentSvc, err := payments.NewService(paymentRepo, appRepo, himkoshClient, engine, feeSchedule)
	if err != nil {
		fatal(logg, "payment service", err)
	}

	readiness := map[string]controllers.ReadinessCheck{
		"database": dbClient.Ping,
		"redis":    redisClient.Ping,
	}

	router := routes.NewRouter(cfg, logg, readiness, redisClient, sessions, registry, routes.Services{
		Auth:         authService,
		Users:        userSvc,
		Applications: appSvc,
		Documents:    docSvc,
		Audit:        auditSvc,
		Engine:       engine,
		Inspections:  inspectionSvc,
		Payments:     paymentSvc,
		Certificates: certSvc,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func fatal(logg *logger.Logger, resource string, err error) {
	logg.Error(context.Background(), "failed to create "+resource, err)
	os.Exit(1)
}
