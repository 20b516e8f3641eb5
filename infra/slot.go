package infra

import (
	"context"

	"go.uber.org/zap"

	"github.com/alextanhongpin/go-fitmate/config"
	"github.com/alextanhongpin/go-fitmate/domain"
	"github.com/alextanhongpin/go-fitmate/pkg/slot"
	"github.com/alextanhongpin/go-fitmate/usecase"
)

// OpenSlots connects the configured backend and returns an opener for
// per-owner slots plus a close func for the backend.
func OpenSlots(ctx context.Context, cfg config.SlotConfig, logger *zap.Logger) (usecase.SlotOpener, func() error, error) {
	namespace := cfg.Namespace
	logger = logger.With(zap.String("backend", cfg.Backend), zap.String("namespace", namespace))

	switch cfg.Backend {
	case config.BackendRedis:
		client, err := NewRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		rds := slot.NewRedis(client)
		logger.Info("slot: connected", zap.String("addr", cfg.Redis.Addr))

		return func(owner string) domain.Slot {
			return rds.Slot(slot.Key(namespace, owner))
		}, client.Close, nil

	case config.BackendSQLite:
		db, err := NewSQLite(ctx, cfg.SQLite)
		if err != nil {
			return nil, nil, err
		}
		lite, err := slot.NewSQLite(ctx, db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		logger.Info("slot: opened", zap.String("path", cfg.SQLite.Path))

		return func(owner string) domain.Slot {
			return lite.Slot(slot.Key(namespace, owner))
		}, db.Close, nil

	default:
		mem := slot.NewMemory()
		logger.Warn("slot: using memory backend, friend lists will not survive a restart")

		return func(owner string) domain.Slot {
			return mem.Slot(slot.Key(namespace, owner))
		}, func() error { return nil }, nil
	}
}
