package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"gitlab.ozon.dev/pupkingeorgij/dispatch/internal/assign"
	"gitlab.ozon.dev/pupkingeorgij/dispatch/internal/audit"
	"gitlab.ozon.dev/pupkingeorgij/dispatch/internal/config"
	"gitlab.ozon.dev/pupkingeorgij/dispatch/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/dispatch/internal/logger"
	"gitlab.ozon.dev/pupkingeorgij/dispatch/internal/registry"
	"gitlab.ozon.dev/pupkingeorgij/dispatch/internal/schedule"
	"gitlab.ozon.dev/pupkingeorgij/dispatch/internal/server"
	"gitlab.ozon.dev/pupkingeorgij/dispatch/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log := logger.New()
	defer log.Sync() //nolint:errcheck

	cfg := config.Load(log)

	st, err := newStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to initialize store", zap.Error(err))
	}
	defer st.Close()

	orders := registry.NewOrders(st, log, cfg.AllowReopen)
	employees := registry.NewEmployees(st, log)
	equipment := registry.NewEquipment(st, log)
	scheduler := schedule.NewEngine(st, orders, log)
	assigner := assign.NewEngine(orders, log)

	auditManager := audit.NewManager(
		newAuditProducer(cfg, log), log,
		cfg.AuditWorkers, cfg.AuditBatchSize, cfg.AuditFlushTimeout,
	)
	auditManager.Start(ctx)

	srv := server.New(orders, employees, equipment, scheduler, assigner, auditManager, log)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Run(cfg.HTTPPort)
	})

	// External edits to the shared data show up as store events; the
	// registries re-read current state instead of trusting cached identity.
	g.Go(func() error {
		events := st.Subscribe()
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return nil
				}
				orders.Refresh(ev.Collection)
				employees.Refresh(ev.Collection)
				equipment.Refresh(ev.Collection)
				scheduler.Refresh(ev.Collection)
			case <-gctx.Done():
				return nil
			}
		}
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", zap.Error(err))
		}
		auditManager.Shutdown(shutdownCtx)
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
	log.Info("server gracefully stopped")
}

func newStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (store.Store, error) {
	if cfg.PostgresDSN != "" {
		database, err := db.NewDb(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		pg := store.NewPostgresStore(ctx, database, log)
		if err := pg.Init(); err != nil {
			return nil, err
		}
		log.Info("using postgres store")
		return pg, nil
	}

	log.Info("using file store", zap.String("dir", cfg.DataDir))
	return store.NewFileStore(cfg.DataDir, log)
}

func newAuditProducer(cfg *config.Config, log *zap.Logger) audit.Producer {
	if len(cfg.KafkaBrokers) > 0 {
		log.Info("audit entries go to kafka",
			zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
		return audit.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	}
	return audit.NewConsoleProducer(log)
}
