package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	adminhandler "github.com/Aldorax/soo-ade/internal/admin/handler"
	apphandler "github.com/Aldorax/soo-ade/internal/application/handler"
	appservice "github.com/Aldorax/soo-ade/internal/application/service"
	appstore "github.com/Aldorax/soo-ade/internal/application/store"
	"github.com/Aldorax/soo-ade/internal/audit"
	authhandler "github.com/Aldorax/soo-ade/internal/auth/handler"
	authservice "github.com/Aldorax/soo-ade/internal/auth/service"
	userstore "github.com/Aldorax/soo-ade/internal/auth/store/user"
	"github.com/Aldorax/soo-ade/internal/dashboard"
	jwttoken "github.com/Aldorax/soo-ade/internal/jwt_token"
	"github.com/Aldorax/soo-ade/internal/payment/gateway"
	payhandler "github.com/Aldorax/soo-ade/internal/payment/handler"
	payservice "github.com/Aldorax/soo-ade/internal/payment/service"
	paystore "github.com/Aldorax/soo-ade/internal/payment/store"
	"github.com/Aldorax/soo-ade/internal/platform/config"
	"github.com/Aldorax/soo-ade/internal/platform/httpserver"
	"github.com/Aldorax/soo-ade/internal/platform/logger"
	"github.com/Aldorax/soo-ade/internal/platform/metrics"
	"github.com/Aldorax/soo-ade/internal/platform/middleware"
	"github.com/Aldorax/soo-ade/internal/platform/postgres"
	"github.com/Aldorax/soo-ade/internal/platform/redis"
)

const dashboardTTL = 5 * time.Minute

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to open postgres", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
	}

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	m := metrics.New()

	// Stores: postgres when configured, in-memory otherwise (dev mode).
	var (
		users        authservice.UserStore
		applications appservice.ApplicationStore
		transactions payservice.TransactionStore
		auditStore   audit.Store
	)
	if db != nil {
		users = userstore.NewPostgres(db)
		applications = appstore.NewPostgres(db)
		transactions = paystore.NewPostgres(db)
		auditStore = audit.NewPostgresStore(db)
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		users = userstore.New()
		applications = appstore.NewInMemory()
		transactions = paystore.NewInMemory()
		auditStore = audit.NewInMemoryStore()
	}

	auditPublisher := audit.NewPublisher(auditStore, audit.WithAsyncBuffer(256))
	defer auditPublisher.Close()

	cache := dashboard.NewCache(redisClient, dashboardTTL, log)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)

	appSvc := appservice.New(applications, users,
		appservice.WithLogger(log),
		appservice.WithMetrics(m),
		appservice.WithAuditPublisher(auditPublisher),
		appservice.WithDashboardInvalidator(cache),
	)
	authSvc := authservice.New(users, appSvc, jwtService, cfg.JWTTTL,
		authservice.WithLogger(log),
		authservice.WithMetrics(m),
		authservice.WithAuditPublisher(auditPublisher),
	)
	paystack := gateway.New(cfg.Paystack, gateway.WithMetrics(m))
	paySvc := payservice.New(transactions, users, applications, paystack, cfg.ApplicationFee,
		payservice.WithLogger(log),
		payservice.WithMetrics(m),
		payservice.WithAuditPublisher(auditPublisher),
		payservice.WithDashboardInvalidator(cache),
	)

	authH := authhandler.New(authSvc, log)
	appH := apphandler.New(appSvc, cache, log)
	payH := payhandler.New(paySvc, log)
	adminH := adminhandler.New(appSvc, paySvc, cache, log)

	r := chi.NewRouter()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.Latency(m))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	authH.Register(r)
	appH.Register(r)
	payH.Register(r)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(jwttoken.NewJWTServiceAdapter(jwtService), log))
		appH.RegisterProtected(r)
		payH.RegisterProtected(r)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAdminToken(cfg.AdminToken, log))
		adminH.Register(r)
	})

	srv := httpserver.New(cfg.Addr, r)

	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown failed", "error", err)
	}
}
