package database

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	URL             string
	MaxRetries      int
	RetryInterval   time.Duration
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type pinger interface {
	PingContext(ctx context.Context) error
}

func NewPostgresDB(ctx context.Context, cfg Config, logger *log.Entry) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}

	if err := waitReady(ctx, db, cfg.MaxRetries, cfg.RetryInterval, logger); err != nil {
		db.Close()
		return nil, err
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return db, nil
}

func waitReady(ctx context.Context, db pinger, maxRetries int, interval time.Duration, logger *log.Entry) error {
	var err error
	for i := 1; i <= maxRetries; i++ {
		logger.WithFields(log.Fields{"attempt": i, "max": maxRetries}).Info("connecting to database")

		if err = db.PingContext(ctx); err == nil {
			logger.Info("database connected")
			return nil
		}

		if i == maxRetries {
			break
		}

		logger.WithError(err).Warnf("database not ready yet, waiting %s", interval)
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "waiting for database")
		case <-time.After(interval):
		}
	}

	return errors.Wrapf(err, "database unreachable after %d attempts", maxRetries)
}
