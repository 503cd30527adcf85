package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/qurbani/share-reservations/internal/app"
	"github.com/qurbani/share-reservations/internal/config"
	"github.com/qurbani/share-reservations/internal/storage/memory"
	"github.com/qurbani/share-reservations/internal/storage/postgres"
	"github.com/qurbani/share-reservations/migrations"
)

type animalStore interface {
	app.AnimalStore
	app.AdminRepository
}

type bookingStore interface {
	app.BookingWriter
	app.BookingReader
	app.BookingRepository
}

type stores struct {
	animals     animalStore
	bookings    bookingStore
	submissions app.SubmissionStore
	close       func()
}

func openStores(ctx context.Context, cfg config.Config, logger *zap.Logger) (stores, error) {
	if cfg.StorageDriver == config.DriverMemory {
		logger.Warn("using in-memory storage; bookings are lost on restart")
		return stores{
			animals:     memory.NewAnimalStore(),
			bookings:    memory.NewBookingStore(),
			submissions: memory.NewSubmissionStore(),
			close:       func() {},
		}, nil
	}

	startupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return stores{}, fmt.Errorf("parse database url: %w", err)
	}
	poolCfg.MaxConns = cfg.DBMaxConns

	pool, err := pgxpool.NewWithConfig(startupCtx, poolCfg)
	if err != nil {
		return stores{}, fmt.Errorf("connect to db: %w", err)
	}
	if err := pool.Ping(startupCtx); err != nil {
		pool.Close()
		return stores{}, fmt.Errorf("db ping: %w", err)
	}
	applied, err := migrations.Apply(startupCtx, pool, logger.Named("migrations"))
	if err != nil {
		pool.Close()
		return stores{}, fmt.Errorf("apply migrations: %w", err)
	}
	logger.Info("connected to postgres",
		zap.Int32("max_conns", poolCfg.MaxConns),
		zap.Strings("migrations_applied", applied),
	)

	return stores{
		animals:     postgres.NewAnimalRepository(pool),
		bookings:    postgres.NewBookingRepository(pool),
		submissions: postgres.NewSubmissionRepository(pool),
		close:       pool.Close,
	}, nil
}
