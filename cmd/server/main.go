package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/sync/errgroup"

	"github.com/autodispatchai/platform/pkg/config"
	"github.com/autodispatchai/platform/pkg/email"
	"github.com/autodispatchai/platform/pkg/httpserver"
	"github.com/autodispatchai/platform/pkg/logger"
	"github.com/autodispatchai/platform/pkg/pg"
	redispkg "github.com/autodispatchai/platform/pkg/redis"
	"github.com/autodispatchai/platform/svc/auth"
	"github.com/autodispatchai/platform/svc/billing"
	"github.com/autodispatchai/platform/svc/company"
	"github.com/autodispatchai/platform/svc/funnel"
	"github.com/autodispatchai/platform/svc/subscription"
)

type appConfig struct {
	BillingProvider string `env:"BILLING_PROVIDER" envDefault:"stripe"`
	RedisEnabled    bool   `env:"REDIS_ENABLED" envDefault:"false"`
	CORSOrigin      string `env:"CORS_ORIGIN" envDefault:"*"`
	DevEmailDir     string `env:"DEV_EMAIL_DIR" envDefault:"./emails"`
}

func main() {
	var logCfg logger.Config
	config.MustLoad(&logCfg)
	log := logger.NewFromConfig(logCfg)
	logger.SetAsDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, log); err != nil {
		log.Error("server exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger) error {
	var (
		appCfg   appConfig
		dbCfg    pg.Config
		httpCfg  httpserver.Config
		authCfg  auth.Config
		subCfg   subscription.Config
		recCfg   subscription.ReconcilerConfig
		prices   billing.PriceTable
		emailCfg email.Config
	)
	config.MustLoad(&appCfg)
	config.MustLoad(&dbCfg)
	config.MustLoad(&httpCfg)
	config.MustLoad(&authCfg)
	config.MustLoad(&subCfg)
	config.MustLoad(&recCfg)
	config.MustLoad(&prices)
	config.MustLoad(&emailCfg)

	if subCfg.Enabled {
		if err := prices.Validate(); err != nil {
			return fmt.Errorf("price configuration incomplete: %w", err)
		}
	}

	pool, err := pg.Connect(ctx, dbCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, dbCfg, log); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	provider, err := buildProvider(appCfg.BillingProvider)
	if err != nil {
		return err
	}

	sender, err := buildEmailSender(emailCfg, appCfg.DevEmailDir, log)
	if err != nil {
		return err
	}

	probes := []func(context.Context) error{pg.Healthcheck(pool)}
	dedup, probe, err := buildDedup(ctx, appCfg.RedisEnabled, subCfg.DedupTTL, log)
	if err != nil {
		return err
	}
	if probe != nil {
		probes = append(probes, probe)
	}

	companyStore := company.NewPgStore(pool)
	companySvc := company.NewService(companyStore, log)

	subSvc := subscription.NewService(subCfg, prices, provider, subscription.NewPgStore(pool), companyStore,
		subscription.WithDeadLetterStore(subscription.NewPgDeadLetterStore(pool)),
		subscription.WithDedup(dedup),
		subscription.WithMailer(sender),
		subscription.WithLogger(log),
	)
	reconciler := subscription.NewReconciler(recCfg, subSvc, log)

	verifier := auth.NewVerifier(authCfg)
	guard := funnel.NewGuard(funnel.Lookups{
		Company:      companySvc.FindByOwner,
		Subscription: subSvc.ForCompany,
	}, log)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{appCfg.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "stripe-signature"},
		AllowCredentials: true,
	}))
	r.Use(verifier.Middleware)
	r.Use(guard.Middleware)

	r.Get("/healthz", httpserver.HealthCheckHandler(log, probes...))
	r.Route("/api", func(api chi.Router) {
		api.Get("/auth/redirect", funnel.RedirectHandler(guard))
		api.Mount("/companies", company.Router(companySvc, verifier.RequireAuth))
		api.Mount("/", subscription.Router(subSvc, verifier.RequireAuth))
	})

	server := httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return server.Run(ctx, r)
	})
	g.Go(func() error {
		if err := reconciler.Run(ctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	return g.Wait()
}

func buildProvider(name string) (billing.Provider, error) {
	switch name {
	case "stripe":
		var cfg billing.StripeConfig
		config.MustLoad(&cfg)
		return billing.NewStripeProvider(cfg)
	case "paddle":
		var cfg billing.PaddleConfig
		config.MustLoad(&cfg)
		return billing.NewPaddleProvider(cfg)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", billing.ErrProviderNotConfigured, name)
	}
}

func buildEmailSender(cfg email.Config, devDir string, log *slog.Logger) (email.Sender, error) {
	if cfg.PostmarkServerToken == "" {
		log.Warn("postmark is not configured, writing emails to disk", slog.String("dir", devDir))
		return email.NewDevSender(devDir), nil
	}
	return email.NewPostmarkSender(cfg)
}

func buildDedup(ctx context.Context, useRedis bool, ttl time.Duration, log *slog.Logger) (subscription.EventDedup, func(context.Context) error, error) {
	if !useRedis {
		return subscription.NewMemoryDedup(ttl), nil, nil
	}

	var cfg redispkg.Config
	config.MustLoad(&cfg)
	client, err := redispkg.Connect(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Info("redis connected for webhook dedup")
	return subscription.NewRedisDedup(client, ttl), redispkg.Healthcheck(client), nil
}
