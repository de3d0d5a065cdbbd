// Command server runs the clinic management API. main wires dependencies and
// the server lifecycle; business logic lives in the internal packages.
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

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	operatorhandler "clinica/internal/operator/handler"
	operatorservice "clinica/internal/operator/service"
	"clinica/internal/platform/config"
	"clinica/internal/platform/httpserver"
	"clinica/internal/platform/logger"
	platformmetrics "clinica/internal/platform/metrics"
	"clinica/internal/platform/middleware"
	platformredis "clinica/internal/platform/redis"
	"clinica/internal/registry"
	"clinica/internal/storage"
	"clinica/internal/storage/session"
	"clinica/internal/tenant/cache"
	tenanthandler "clinica/internal/tenant/handler"
	tenantmetrics "clinica/internal/tenant/metrics"
	tenantservice "clinica/internal/tenant/service"
	appointmentstore "clinica/internal/tenant/store/appointment"
	catalogstore "clinica/internal/tenant/store/catalog"
	doctorstore "clinica/internal/tenant/store/doctor"
	patientstore "clinica/internal/tenant/store/patient"
	tenantstore "clinica/internal/tenant/store/tenant"
	userstore "clinica/internal/tenant/store/user"
	"clinica/internal/token"
	"clinica/pkg/platform/audit"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		return err
	}

	if os.Getenv("CLINICA_APPLY_SCHEMA") == "true" {
		if err := storage.ApplySchema(ctx, db); err != nil {
			return err
		}
		log.Info("schema applied")
	}

	// Refuse to serve with an incomplete isolation posture. A table missing
	// its policies would silently expose every tenant's rows.
	if err := registry.SelfCheck(ctx, db, registry.Entities()); err != nil {
		return err
	}
	log.Info("isolation self-check passed")

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var publisher tenantservice.AuditPublisher
	var kafkaPublisher *audit.KafkaPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, err = audit.NewKafkaPublisher(cfg.KafkaBrokers, cfg.AuditTopic, log)
		if err != nil {
			return err
		}
		publisher = audit.Fanout{audit.NewLogPublisher(log), kafkaPublisher}
	} else {
		publisher = audit.NewLogPublisher(log)
	}

	platformMetrics := platformmetrics.New()
	sessions := session.New(db,
		session.WithLogger(log),
		session.WithMetrics(platformMetrics),
	)

	tokens := token.New(cfg.JWTSigningKey, cfg.TokenTTL)

	stores := tenantservice.Stores{
		Tenants:      tenantstore.NewPostgres(db),
		Users:        userstore.NewPostgres(db),
		Doctors:      doctorstore.NewPostgres(db),
		Patients:     patientstore.NewPostgres(db),
		Appointments: appointmentstore.NewPostgres(db),
		Catalog:      catalogstore.NewPostgres(db),
	}

	clinicService := tenantservice.New(stores, sessions, tokens,
		tenantservice.WithLogger(log),
		tenantservice.WithAuditPublisher(publisher),
		tenantservice.WithMetrics(tenantmetrics.New()),
	)

	operatorService := operatorservice.New(
		tenantstore.NewPostgres(db),
		catalogstore.NewPostgres(db),
		sessions,
		operatorservice.WithLogger(log),
		operatorservice.WithAuditPublisher(publisher),
	)

	var rawRedis *redis.Client
	if redisClient != nil {
		rawRedis = redisClient.Client
	}
	gate := cache.New(rawRedis, operatorService, cache.WithLogger(log))
	// Lifecycle writes drop the cached status so suspensions bite right away.
	operatorservice.WithGateInvalidator(gate)(operatorService)

	clinicHandler := tenanthandler.New(clinicService, log)
	opsHandler := operatorhandler.New(operatorService, log)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestTime)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	clinicHandler.RegisterPublic(router)
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireTenant(tokens, gate, log))
		clinicHandler.Register(r)
	})
	router.Route("/ops", func(r chi.Router) {
		r.Use(middleware.RequireOperator(cfg.OperatorToken, log))
		opsHandler.Register(r)
	})

	srv := httpserver.New(cfg.Addr, router)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting clinica server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		// Flush queued audit records before the process exits; suspensions
		// and bypass events must not vanish on SIGTERM.
		closeAudit(shutdownCtx, kafkaPublisher, log)
		return err
	})
	return g.Wait()
}

func closeAudit(ctx context.Context, p *audit.KafkaPublisher, log *slog.Logger) {
	if p == nil {
		return
	}
	if err := p.Close(ctx); err != nil {
		log.Warn("audit flush on shutdown failed", "error", err)
	}
}
