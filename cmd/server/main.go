package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	"realtyvest/internal/audit"
	audithandler "realtyvest/internal/audit/handler"
	httpapi "realtyvest/internal/http"
	"realtyvest/internal/investment/catalog"
	investmenthandler "realtyvest/internal/investment/handler"
	investmentservice "realtyvest/internal/investment/service"
	investmentstore "realtyvest/internal/investment/store"
	jwttoken "realtyvest/internal/jwt_token"
	"realtyvest/internal/platform/config"
	"realtyvest/internal/platform/httpserver"
	"realtyvest/internal/platform/kafka"
	"realtyvest/internal/platform/logger"
	"realtyvest/internal/platform/metrics"
	"realtyvest/internal/platform/postgres"
	platformredis "realtyvest/internal/platform/redis"
	"realtyvest/internal/verification/blob"
	"realtyvest/internal/verification/checker"
	verificationhandler "realtyvest/internal/verification/handler"
	verificationservice "realtyvest/internal/verification/service"
	"realtyvest/internal/verification/state"
	"realtyvest/internal/verification/store"
	"realtyvest/internal/verification/wizard"
	"realtyvest/pkg/platform/circuit"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

// backends are the storage dependencies selected by configuration.
type backends struct {
	records verificationservice.Store
	blobs   verificationservice.BlobStore
	ready   func(ctx context.Context) error
	closers []func() error
}

func (b *backends) close(log *slog.Logger) {
	for _, c := range b.closers {
		if err := c(); err != nil {
			log.Warn("failed to close backend", "error", err)
		}
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	be, err := openBackends(ctx, cfg, reg, log)
	if err != nil {
		return err
	}
	defer be.close(log)

	publisher := audit.NewPublisher(cfg.Audit.BufferSize, audit.WithPublisherLogger(log))
	trail := audit.NewInMemoryStore(audit.WithMaxEventsPerUser(cfg.Audit.MaxEventsPerUser))
	sinks := []audit.Sink{trail}
	if len(cfg.Audit.KafkaBrokers) > 0 {
		client, err := openKafka(ctx, cfg.Audit)
		if err != nil {
			return err
		}
		defer client.Close()
		sinks = append(sinks, audit.NewKafkaSink(client, cfg.Audit.Topic))
	}
	worker := audit.NewWorker(publisher.Events(), log, sinks...)

	verificationCfg, err := verificationConfig(cfg.Verification)
	if err != nil {
		return err
	}
	verifications := verificationservice.New(be.records, be.blobs, newChecker(cfg.Verification, log), verificationCfg,
		verificationservice.WithLogger(log),
		verificationservice.WithMetrics(metrics.NewVerification(reg)),
		verificationservice.WithAuditPublisher(publisher),
	)

	properties, err := catalog.Default()
	if err != nil {
		return fmt.Errorf("load property catalog: %w", err)
	}
	investments := investmentservice.New(verifications, properties, investmentstore.NewInMemoryStore(),
		investmentservice.WithLogger(log),
		investmentservice.WithMetrics(metrics.NewInvestment(reg)),
		investmentservice.WithAuditPublisher(publisher),
	)

	vh := verificationhandler.New(verifications, log, verificationCfg.MaxUploadBytes)
	ih := investmenthandler.New(investments, log)
	ah := audithandler.New(trail, log)
	jwtService := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer, cfg.Server.JWTAudience)

	router := httpapi.NewRouter(httpapi.Config{
		Logger:        log,
		Metrics:       metrics.NewHTTP(reg),
		Gatherer:      reg,
		JWTValidator:  jwttoken.NewJWTServiceAdapter(jwtService),
		AdminToken:    cfg.Server.AdminToken,
		Public:        []func(r chi.Router){ih.RegisterPublic},
		Authenticated: []httpapi.FeatureHandler{vh, ih},
		Admin:         []func(r chi.Router){vh.RegisterAdmin, ah.RegisterAdmin},
		Ready:         be.ready,
	})
	srv := httpserver.New(cfg.Server.Addr, router)

	log.Info("starting realtyvest",
		"addr", cfg.Server.Addr,
		"storage", cfg.Storage.Backend,
		"checker", cfg.Verification.Checker,
		"variant", cfg.Verification.Variant,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.Run(gctx, srv, cfg.Server.ShutdownTimeout, log)
	})
	g.Go(func() error {
		return worker.Run(gctx)
	})
	return g.Wait()
}

func openBackends(ctx context.Context, cfg config.Config, reg prometheus.Registerer, log *slog.Logger) (*backends, error) {
	switch cfg.Storage.Backend {
	case "memory":
		return &backends{
			records: store.NewInMemoryStore(),
			blobs:   blob.NewInMemoryStore(),
		}, nil

	case "redis":
		client, err := platformredis.New(ctx, cfg.Storage.Redis)
		if err != nil {
			return nil, err
		}
		if client == nil {
			return nil, errors.New("redis backend selected but REDIS_URL is empty")
		}
		return &backends{
			records: store.NewRedis(client.Client, store.WithMetrics(metrics.NewStore(reg))),
			blobs:   blob.NewRedisStore(client.Client),
			ready:   client.Health,
			closers: []func() error{client.Close},
		}, nil

	case "postgres":
		db, err := postgres.Open(ctx, cfg.Storage.DatabaseURL)
		if err != nil {
			return nil, err
		}
		records := store.NewPostgres(db)
		if err := records.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate verification schema: %w", err)
		}
		be := &backends{
			records: records,
			blobs:   blob.NewInMemoryStore(),
			ready:   db.PingContext,
			closers: []func() error{db.Close},
		}
		// Upload content goes to redis when it is configured alongside
		// postgres, and stays in process otherwise.
		if cfg.Storage.Redis.URL != "" {
			client, err := platformredis.New(ctx, cfg.Storage.Redis)
			if err != nil {
				be.close(log)
				return nil, err
			}
			be.blobs = blob.NewRedisStore(client.Client)
			be.ready = readyAll(db, client)
			be.closers = append(be.closers, client.Close)
		}
		return be, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}

func readyAll(db *sql.DB, client *platformredis.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		if err := client.Health(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		return nil
	}
}

func openKafka(ctx context.Context, cfg config.Audit) (*kgo.Client, error) {
	client, err := kafka.NewClient(cfg.KafkaBrokers, cfg.Topic)
	if err != nil {
		return nil, err
	}
	if err := kafka.EnsureTopic(ctx, client, cfg.Topic, 1, 1); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func verificationConfig(cfg config.Verification) (verificationservice.Config, error) {
	variant, err := wizard.ParseVariant(cfg.Variant)
	if err != nil {
		return verificationservice.Config{}, err
	}
	policy, err := state.ParseResetPolicy(cfg.ResetPolicy)
	if err != nil {
		return verificationservice.Config{}, err
	}
	return verificationservice.Config{
		Variant:        variant,
		ResetPolicy:    policy,
		MaxUploadBytes: cfg.MaxUploadBytes,
		SubmitTimeout:  submitTimeout(cfg),
	}, nil
}

// submitTimeout leaves the check its full budget plus time to save the result.
func submitTimeout(cfg config.Verification) time.Duration {
	const saveBudget = 5 * time.Second
	if cfg.Checker == "http" {
		return cfg.CheckerTimeout + saveBudget
	}
	return cfg.SimulatedDelay + saveBudget
}

func newChecker(cfg config.Verification, log *slog.Logger) state.Checker {
	if cfg.Checker == "http" {
		return checker.NewHTTP(cfg.CheckerURL, cfg.CheckerTimeout,
			checker.WithBreaker(circuit.New("verification-checker")),
			checker.WithLogger(log),
		)
	}
	return checker.NewSimulated(checker.WithDelay(cfg.SimulatedDelay))
}
