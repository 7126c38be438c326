package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/md-rashed-zaman/barberbook/libs/config"
	"github.com/md-rashed-zaman/barberbook/libs/db"
	"github.com/md-rashed-zaman/barberbook/libs/runtime"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/storage"
)

var errNoDatabase = errors.New("DATABASE_URL is required for this command")

// openStore connects to Postgres, or falls back to the in-memory store when
// DATABASE_URL is empty and memoryOK is set.
func openStore(ctx context.Context, logger *slog.Logger, memoryOK bool) (storage.Store, []runtime.ReadyCheck, error) {
	url := config.String("DATABASE_URL", "")
	if url == "" {
		if !memoryOK {
			return nil, nil, errNoDatabase
		}
		logger.Warn("DATABASE_URL not set, using the in-memory store")
		return storage.NewMemory(), nil, nil
	}

	pool, err := db.Open(ctx, url, db.PoolConfig{
		MaxConns: int32(config.Int("DB_MAX_CONNS", 10)),
		MinConns: int32(config.Int("DB_MIN_CONNS", 1)),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect db: %w", err)
	}
	pg := storage.NewPostgres(pool)
	if config.Bool("DB_AUTO_MIGRATE", true) {
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, nil, err
		}
	}
	return pg, []runtime.ReadyCheck{{Name: "db", Check: db.ReadyCheck(pool)}}, nil
}
