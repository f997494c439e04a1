package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ruby-kim/gov-status/internal/config"
	"github.com/ruby-kim/gov-status/models"
	"github.com/ruby-kim/gov-status/repository"
)

const schemaRetryInterval = 30 * time.Second

// openStore connects to Postgres when DATABASE_URL is set, SQLite
// otherwise. It never fails: a store that cannot be opened is replaced by
// one that reports the error on every read, so requests degrade to the
// cache and sample data instead of the server exiting.
func openStore(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (repository.StatusReader, func()) {
	if cfg.DatabaseURL != "" {
		pg, err := repository.NewPostgresStatusRepository(ctx, cfg.DatabaseURL)
		if err != nil {
			log.WithError(err).Error("Invalid PostgreSQL configuration, serving fallback data")
			return unavailableStore{err: err}, func() {}
		}

		schemaCtx, cancel := context.WithTimeout(ctx, cfg.StoreTimeout)
		err = pg.EnsureSchema(schemaCtx)
		cancel()
		if err != nil {
			log.WithError(err).Warn("PostgreSQL unreachable, serving fallback data until it recovers")
			go ensureSchemaLater(ctx, pg, cfg.StoreTimeout, log)
		} else {
			log.Info("PostgreSQL connection established")
		}
		return pg, pg.Close
	}

	log.WithField("path", cfg.SQLitePath).Info("Connecting to SQLite database")
	if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
		log.WithError(err).Error("Cannot create SQLite directory, serving fallback data")
		return unavailableStore{err: err}, func() {}
	}
	db, err := repository.NewSQLiteDB(cfg.SQLitePath)
	if err != nil {
		log.WithError(err).Error("Cannot open SQLite database, serving fallback data")
		return unavailableStore{err: err}, func() {}
	}
	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		log.WithError(err).Error("Cannot create SQLite schema, serving fallback data")
		return unavailableStore{err: err}, func() {}
	}
	log.Info("SQLite database connection established")
	return repository.NewSQLiteStatusRepository(db.GetDB()), func() { db.Close() }
}

// ensureSchemaLater retries schema creation until Postgres answers
func ensureSchemaLater(ctx context.Context, pg *repository.PostgresStatusRepository, timeout time.Duration, log logrus.FieldLogger) {
	ticker := time.NewTicker(schemaRetryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			attemptCtx, cancel := context.WithTimeout(ctx, timeout)
			err := pg.EnsureSchema(attemptCtx)
			cancel()
			if err == nil {
				log.Info("PostgreSQL connection established")
				return
			}
			log.WithError(err).Debug("PostgreSQL still unreachable")
		}
	}
}

// unavailableStore fails every read with the error that kept the store
// from opening
type unavailableStore struct {
	err error
}

func (s unavailableStore) unavailable() error {
	return fmt.Errorf("status store unavailable: %w", s.err)
}

func (s unavailableStore) Ping(ctx context.Context) error {
	return s.unavailable()
}

func (s unavailableStore) GetLatestOverallStat(ctx context.Context) (*models.OverallStat, error) {
	return nil, s.unavailable()
}

func (s unavailableStore) GetAgencies(ctx context.Context) ([]models.Agency, error) {
	return nil, s.unavailable()
}

func (s unavailableStore) GetHourlyHours(ctx context.Context) ([]time.Time, error) {
	return nil, s.unavailable()
}

func (s unavailableStore) GetHourlyStatsBetween(ctx context.Context, start, end time.Time) ([]models.HourlyStat, error) {
	return nil, s.unavailable()
}
