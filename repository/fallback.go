package repository

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/ruby-kim/gov-status/models"
)

// FallbackRepository reads from primary and retries failed reads on
// secondary. ErrNotFound from primary is returned as is: an empty store is
// an answer, not an outage.
type FallbackRepository struct {
	primary   StatusReader
	secondary StatusReader
	log       logrus.FieldLogger
	fallbacks *prometheus.CounterVec
	// secondaryTimeout bounds a secondary read whose caller deadline was
	// used up by the primary
	secondaryTimeout time.Duration
}

// NewFallbackRepository chains primary to secondary. fallbacks, if not nil,
// is incremented with the operation name on every fallback.
func NewFallbackRepository(primary, secondary StatusReader, log logrus.FieldLogger, fallbacks *prometheus.CounterVec) *FallbackRepository {
	return &FallbackRepository{
		primary:          primary,
		secondary:        secondary,
		log:              log,
		fallbacks:        fallbacks,
		secondaryTimeout: time.Second,
	}
}

// secondaryContext returns ctx, or a fresh short deadline carrying ctx's
// values when ctx expired while the primary was hanging
func (r *FallbackRepository) secondaryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return context.WithTimeout(context.WithoutCancel(ctx), r.secondaryTimeout)
	}
	return context.WithCancel(ctx)
}

func (r *FallbackRepository) fellBack(op string, err error) bool {
	if err == nil || errors.Is(err, ErrNotFound) {
		return false
	}
	r.log.WithField("operation", op).WithError(err).Warn("primary store failed, reading from cache")
	if r.fallbacks != nil {
		r.fallbacks.WithLabelValues(op).Inc()
	}
	return true
}

func (r *FallbackRepository) Ping(ctx context.Context) error {
	err := r.primary.Ping(ctx)
	if r.fellBack("ping", err) {
		ctx, cancel := r.secondaryContext(ctx)
		defer cancel()
		return r.secondary.Ping(ctx)
	}
	return err
}

func (r *FallbackRepository) GetLatestOverallStat(ctx context.Context) (*models.OverallStat, error) {
	stat, err := r.primary.GetLatestOverallStat(ctx)
	if r.fellBack("latest_overall_stat", err) {
		ctx, cancel := r.secondaryContext(ctx)
		defer cancel()
		return r.secondary.GetLatestOverallStat(ctx)
	}
	return stat, err
}

func (r *FallbackRepository) GetAgencies(ctx context.Context) ([]models.Agency, error) {
	agencies, err := r.primary.GetAgencies(ctx)
	if r.fellBack("agencies", err) {
		ctx, cancel := r.secondaryContext(ctx)
		defer cancel()
		return r.secondary.GetAgencies(ctx)
	}
	return agencies, err
}

func (r *FallbackRepository) GetHourlyHours(ctx context.Context) ([]time.Time, error) {
	hours, err := r.primary.GetHourlyHours(ctx)
	if r.fellBack("hourly_hours", err) {
		ctx, cancel := r.secondaryContext(ctx)
		defer cancel()
		return r.secondary.GetHourlyHours(ctx)
	}
	return hours, err
}

func (r *FallbackRepository) GetHourlyStatsBetween(ctx context.Context, start, end time.Time) ([]models.HourlyStat, error) {
	rows, err := r.primary.GetHourlyStatsBetween(ctx, start, end)
	if r.fellBack("hourly_stats", err) {
		ctx, cancel := r.secondaryContext(ctx)
		defer cancel()
		return r.secondary.GetHourlyStatsBetween(ctx, start, end)
	}
	return rows, err
}

// CacheWriter is the write side of the cache
type CacheWriter interface {
	StoreAgencies(ctx context.Context, agencies []models.Agency) error
	StoreOverallStat(ctx context.Context, stat *models.OverallStat) error
	StoreHourlyStats(ctx context.Context, rows []models.HourlyStat) error
}

// WriteThroughRepository copies every successful read into the cache in
// the background
type WriteThroughRepository struct {
	StatusReader
	cache   CacheWriter
	log     logrus.FieldLogger
	timeout time.Duration
}

func NewWriteThroughRepository(primary StatusReader, cache CacheWriter, log logrus.FieldLogger) *WriteThroughRepository {
	return &WriteThroughRepository{StatusReader: primary, cache: cache, log: log, timeout: 2 * time.Second}
}

func (r *WriteThroughRepository) store(what string, fn func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			r.log.WithField("key", what).WithError(err).Debug("cache write-through failed")
		}
	}()
}

func (r *WriteThroughRepository) GetLatestOverallStat(ctx context.Context) (*models.OverallStat, error) {
	stat, err := r.StatusReader.GetLatestOverallStat(ctx)
	if err == nil {
		r.store("overall_stat", func(ctx context.Context) error { return r.cache.StoreOverallStat(ctx, stat) })
	}
	return stat, err
}

func (r *WriteThroughRepository) GetAgencies(ctx context.Context) ([]models.Agency, error) {
	agencies, err := r.StatusReader.GetAgencies(ctx)
	if err == nil {
		r.store("agencies", func(ctx context.Context) error { return r.cache.StoreAgencies(ctx, agencies) })
	}
	return agencies, err
}

func (r *WriteThroughRepository) GetHourlyStatsBetween(ctx context.Context, start, end time.Time) ([]models.HourlyStat, error) {
	rows, err := r.StatusReader.GetHourlyStatsBetween(ctx, start, end)
	if err == nil && len(rows) > 0 {
		r.store("hourly_stats", func(ctx context.Context) error { return r.cache.StoreHourlyStats(ctx, rows) })
	}
	return rows, err
}
