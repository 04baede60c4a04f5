package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ticket-exchange/internal/api/http"
	"github.com/spec-kit/ticket-exchange/internal/api/http/handlers"
	"github.com/spec-kit/ticket-exchange/internal/audit"
	"github.com/spec-kit/ticket-exchange/internal/auth"
	"github.com/spec-kit/ticket-exchange/internal/clock"
	"github.com/spec-kit/ticket-exchange/internal/config"
	"github.com/spec-kit/ticket-exchange/internal/domain"
	"github.com/spec-kit/ticket-exchange/internal/ledger"
	"github.com/spec-kit/ticket-exchange/internal/modules"
	"github.com/spec-kit/ticket-exchange/internal/observability"
	"github.com/spec-kit/ticket-exchange/internal/persistence"
	"github.com/spec-kit/ticket-exchange/internal/registry"
	"github.com/spec-kit/ticket-exchange/internal/repository"
	"github.com/spec-kit/ticket-exchange/internal/state"
	"github.com/spec-kit/ticket-exchange/internal/token"
	"github.com/spec-kit/ticket-exchange/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	auditLog := audit.NewLog()
	auditLog.SubscribeAll(audit.ZapSink(logger))
	auditLog.SubscribeAll(audit.RedisSink(redis.Client, redis.AuditChannel))

	auditRepo := repository.NewAuditRepository(pg.PoolHandle())
	if pg.PoolHandle() != nil {
		auditLog.SubscribeAll(func(ctx context.Context, record audit.Record) error {
			if err := auditRepo.Insert(ctx, record); err != nil {
				logger.Warn("audit insert failed", zap.Error(err))
			}
			return nil
		})
	}

	platform := modules.Platform{
		SystemAccount:  domain.Identity(cfg.Platform.SystemAccount),
		Treasury:       domain.Identity(cfg.Platform.Treasury),
		MarketAccount:  domain.Identity(cfg.Platform.MarketAccount),
		PurchaseFeeBps: cfg.Platform.PurchaseFeeBps,
		ResaleFeeBps:   cfg.Platform.ResaleFeeBps,
	}
	bank := token.NewBank(nil)
	assets := token.NewRegistry()
	assetLedger := ledger.New(assets)

	initial := state.New()
	initial.Admin = domain.Identity(cfg.Auth.AdminIdentity)
	store := state.NewStore(initial)

	reg := registry.New(store, registry.Dependencies{
		Log:          auditLog,
		Logger:       logger,
		Clock:        clock.NewSystem(),
		Metrics:      metrics,
		Participants: []token.Transactional{bank, assets},
	})

	lifecycle := modules.NewLifecycle(logger)
	sales := modules.NewSales(platform, bank, assetLedger, logger)
	market := modules.NewMarket(platform, bank, assetLedger, logger)
	staff := modules.NewStaff(assetLedger, logger)
	catalog := map[string]registry.Module{
		lifecycle.Name(): lifecycle,
		sales.Name():     sales,
		market.Name():    market,
		staff.Name():     staff,
	}

	if err := registerDefaults(ctx, reg, initial.Admin, lifecycle, sales, market, staff); err != nil {
		logger.Fatal("failed to register modules", zap.Error(err))
	}

	worker.StartRefundWorker(auditLog, reg, initial.Admin, cfg.Platform.SweepBatchSize, logger)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewMiddleware(tokens)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Admin:          handlers.NewAdminHandler(cfg.Auth, tokens, reg, catalog, auditRepo),
		Events:         handlers.NewEventsHandler(reg),
		Tickets:        handlers.NewTicketsHandler(reg),
		Market:         handlers.NewMarketHandler(reg),
		Staff:          handlers.NewStaffHandler(reg),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

// registerDefaults installs the standard modules in one atomic batch.
func registerDefaults(ctx context.Context, reg *registry.Registry, admin domain.Identity, mods ...registry.Module) error {
	entries := make([]registry.BatchEntry, 0, len(mods))
	for _, mod := range mods {
		entry := registry.BatchEntry{Module: mod, Action: registry.ActionAdd}
		for op := range mod.Operations() {
			entry.Ops = append(entry.Ops, op)
		}
		entries = append(entries, entry)
	}
	return reg.ApplyBatch(ctx, admin, entries, nil)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
