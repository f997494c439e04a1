package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ruby-kim/gov-status/internal/config"
	"github.com/ruby-kim/gov-status/internal/logging"
	"github.com/ruby-kim/gov-status/models"
	"github.com/ruby-kim/gov-status/repository"
)

// statusWriter is implemented by both the SQLite and the Postgres store
type statusWriter interface {
	SaveAgencies(ctx context.Context, agencies []models.Agency) error
	UpsertHourlyStats(ctx context.Context, rows []models.HourlyStat, mode repository.UpsertMode) error
	SaveOverallStat(ctx context.Context, stat models.OverallStat) (string, error)
	Cleanup(ctx context.Context, retention time.Duration, now time.Time) (int64, error)
}

type importResult struct {
	Agencies   int
	HourlyRows int
	SnapshotID string
}

func main() {
	config.LoadEnvFiles(".env", ".env.local")

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}

	// Command line flags
	dbPath := flag.String("db", cfg.SQLitePath, "Path to SQLite database")
	databaseURL := flag.String("database-url", cfg.DatabaseURL, "PostgreSQL URL; overrides -db when set")
	redisURL := flag.String("redis", cfg.RedisURL, "Redis URL to warm after import")
	days := flag.Int("days", repository.SampleDays, "Days of sample history to import")
	seed := flag.Uint64("seed", cfg.SampleSeed, "Sample data seed")
	cleanup := flag.Bool("cleanup", true, "Delete data older than RETENTION_DAYS after import")
	flag.Parse()

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logrus.Fatalf("Invalid logging configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	writer, closeWriter, err := openWriter(ctx, *dbPath, *databaseURL)
	if err != nil {
		log.WithError(err).Fatal("Failed to open database")
	}
	defer closeWriter()

	now := time.Now()
	sample := repository.NewSampleRepository(*seed, func() time.Time { return now })

	result, err := importSample(ctx, writer, sample, *days, log)
	if err != nil {
		log.WithError(err).Fatal("Import failed")
	}
	log.WithFields(logrus.Fields{
		"agencies":    result.Agencies,
		"hourly_rows": result.HourlyRows,
		"snapshot_id": result.SnapshotID,
	}).Info("Sample data imported")

	if *cleanup {
		deleted, err := writer.Cleanup(ctx, cfg.Retention(), now)
		if err != nil {
			log.WithError(err).Error("Cleanup failed")
		} else {
			log.WithField("deleted", deleted).Info("Cleanup complete")
		}
	}

	if *redisURL != "" {
		if err := warmCache(ctx, *redisURL, cfg, sample, *days, now); err != nil {
			log.WithError(err).Error("Cache warm-up failed")
		} else {
			log.Info("Redis cache warmed")
		}
	}
}

func openWriter(ctx context.Context, dbPath, databaseURL string) (statusWriter, func(), error) {
	if databaseURL != "" {
		pg, err := repository.NewPostgresStatusRepository(ctx, databaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, nil, err
		}
		return pg, pg.Close, nil
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, nil, err
	}
	db, err := repository.NewSQLiteDB(dbPath)
	if err != nil {
		return nil, nil, err
	}
	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, func() { db.Close() }, nil
}

// importSample copies days of sample history into w, one day per batch.
// Rows are replaced so the import can be rerun.
func importSample(ctx context.Context, w statusWriter, sample *repository.SampleRepository, days int, log logrus.FieldLogger) (importResult, error) {
	var result importResult
	if days < 1 || days > repository.SampleDays {
		return result, fmt.Errorf("days must be between 1 and %d", repository.SampleDays)
	}

	agencies, err := sample.GetAgencies(ctx)
	if err != nil {
		return result, err
	}
	if err := w.SaveAgencies(ctx, agencies); err != nil {
		return result, fmt.Errorf("save agencies: %w", err)
	}
	result.Agencies = len(agencies)

	latest, err := sample.GetLatestOverallStat(ctx)
	if err != nil {
		return result, err
	}

	end := latest.Timestamp.Add(time.Hour)
	for day := days; day > 0; day-- {
		start := end.Add(-time.Duration(day) * 24 * time.Hour)
		rows, err := sample.GetHourlyStatsBetween(ctx, start, start.Add(24*time.Hour))
		if err != nil {
			return result, err
		}
		if err := w.UpsertHourlyStats(ctx, rows, repository.UpsertReplace); err != nil {
			return result, fmt.Errorf("import hourly stats from %s: %w", start.Format(time.RFC3339), err)
		}
		result.HourlyRows += len(rows)
		log.WithFields(logrus.Fields{"from": start.Format(time.RFC3339), "rows": len(rows)}).Debug("imported day")
	}

	latest.SnapshotID = ""
	id, err := w.SaveOverallStat(ctx, *latest)
	if err != nil {
		return result, fmt.Errorf("save overall stat: %w", err)
	}
	result.SnapshotID = id
	return result, nil
}

// warmCache loads the same sample window into Redis and trims hours
// outside the retention window
func warmCache(ctx context.Context, redisURL string, cfg *config.Config, sample *repository.SampleRepository, days int, now time.Time) error {
	cache, err := repository.NewRedisCache(ctx, redisURL, cfg.CacheTTL)
	if err != nil {
		return err
	}
	defer cache.Close()

	agencies, err := sample.GetAgencies(ctx)
	if err != nil {
		return err
	}
	if err := cache.StoreAgencies(ctx, agencies); err != nil {
		return err
	}

	latest, err := sample.GetLatestOverallStat(ctx)
	if err != nil {
		return err
	}
	if err := cache.StoreOverallStat(ctx, latest); err != nil {
		return err
	}

	end := latest.Timestamp.Add(time.Hour)
	rows, err := sample.GetHourlyStatsBetween(ctx, end.Add(-time.Duration(days)*24*time.Hour), end)
	if err != nil {
		return err
	}
	if err := cache.StoreHourlyStats(ctx, rows); err != nil {
		return err
	}

	_, err = cache.TrimHourly(ctx, now.Add(-cfg.Retention()))
	return err
}
