package repository

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"

	"github.com/ruby-kim/gov-status/models"
)

// stubReader returns fixed values, or err for every call when set
type stubReader struct {
	err      error
	latest   *models.OverallStat
	agencies []models.Agency
	hours    []time.Time
	rows     []models.HourlyStat
}

func (s *stubReader) Ping(ctx context.Context) error { return s.err }

func (s *stubReader) GetLatestOverallStat(ctx context.Context) (*models.OverallStat, error) {
	return s.latest, s.err
}

func (s *stubReader) GetAgencies(ctx context.Context) ([]models.Agency, error) {
	return s.agencies, s.err
}

func (s *stubReader) GetHourlyHours(ctx context.Context) ([]time.Time, error) {
	return s.hours, s.err
}

func (s *stubReader) GetHourlyStatsBetween(ctx context.Context, start, end time.Time) ([]models.HourlyStat, error) {
	return s.rows, s.err
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newFallbackCounter() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_fallbacks_total"}, []string{"operation"})
}

func TestFallbackRepositoryUsesSecondaryOnFailure(t *testing.T) {
	primary := &stubReader{err: errors.New("connection refused")}
	secondary := &stubReader{
		latest:   &models.OverallStat{SnapshotID: "cached"},
		agencies: []models.Agency{{AgencyID: "a", Name: "A"}},
	}
	counter := newFallbackCounter()
	repo := NewFallbackRepository(primary, secondary, quietLogger(), counter)
	ctx := context.Background()

	stat, err := repo.GetLatestOverallStat(ctx)
	if err != nil || stat.SnapshotID != "cached" {
		t.Errorf("GetLatestOverallStat = %+v, %v, expected cached stat", stat, err)
	}
	agencies, err := repo.GetAgencies(ctx)
	if err != nil || len(agencies) != 1 {
		t.Errorf("GetAgencies = %+v, %v, expected cached agencies", agencies, err)
	}

	if got := testutil.ToFloat64(counter.WithLabelValues("latest_overall_stat")); got != 1 {
		t.Errorf("latest_overall_stat fallbacks = %v, expected 1", got)
	}
	if got := testutil.ToFloat64(counter.WithLabelValues("agencies")); got != 1 {
		t.Errorf("agencies fallbacks = %v, expected 1", got)
	}
}

func TestFallbackRepositoryKeepsNotFound(t *testing.T) {
	primary := &stubReader{err: ErrNotFound}
	secondary := &stubReader{latest: &models.OverallStat{SnapshotID: "cached"}}
	counter := newFallbackCounter()
	repo := NewFallbackRepository(primary, secondary, quietLogger(), counter)

	if _, err := repo.GetLatestOverallStat(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, expected ErrNotFound", err)
	}
	if got := testutil.ToFloat64(counter.WithLabelValues("latest_overall_stat")); got != 0 {
		t.Errorf("fallbacks = %v, expected 0", got)
	}
}

func TestFallbackRepositoryBothDown(t *testing.T) {
	primary := &stubReader{err: errors.New("primary down")}
	secondary := &stubReader{err: ErrCacheMiss}
	repo := NewFallbackRepository(primary, secondary, quietLogger(), nil)

	_, err := repo.GetHourlyStatsBetween(context.Background(), time.Now(), time.Now())
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("error = %v, expected ErrCacheMiss", err)
	}
}

// hangingReader blocks every read until the caller gives up
type hangingReader struct{}

func (hangingReader) Ping(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func (hangingReader) GetLatestOverallStat(ctx context.Context) (*models.OverallStat, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (hangingReader) GetAgencies(ctx context.Context) ([]models.Agency, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (hangingReader) GetHourlyHours(ctx context.Context) ([]time.Time, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (hangingReader) GetHourlyStatsBetween(ctx context.Context, start, end time.Time) ([]models.HourlyStat, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// liveReader fails reads whose context is already done
type liveReader struct {
	stubReader
}

func (l *liveReader) GetLatestOverallStat(ctx context.Context) (*models.OverallStat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.stubReader.GetLatestOverallStat(ctx)
}

func (l *liveReader) GetHourlyHours(ctx context.Context) ([]time.Time, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.stubReader.GetHourlyHours(ctx)
}

func TestFallbackRepositoryAfterPrimaryTimeout(t *testing.T) {
	hour := time.Date(2025, 10, 3, 5, 0, 0, 0, time.UTC)
	secondary := &liveReader{stubReader{
		latest: &models.OverallStat{SnapshotID: "cached"},
		hours:  []time.Time{hour},
	}}
	counter := newFallbackCounter()
	repo := NewFallbackRepository(hangingReader{}, secondary, quietLogger(), counter)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	stat, err := repo.GetLatestOverallStat(ctx)
	if err != nil || stat.SnapshotID != "cached" {
		t.Fatalf("GetLatestOverallStat = %+v, %v, expected cached stat", stat, err)
	}
	// ctx is expired now; later reads in the same request still reach the cache
	hours, err := repo.GetHourlyHours(ctx)
	if err != nil || len(hours) != 1 {
		t.Errorf("GetHourlyHours = %v, %v, expected cached hours", hours, err)
	}
	if got := testutil.ToFloat64(counter.WithLabelValues("latest_overall_stat")); got != 1 {
		t.Errorf("latest_overall_stat fallbacks = %v, expected 1", got)
	}
}

func TestFallbackRepositoryKeepsCancellation(t *testing.T) {
	secondary := &liveReader{stubReader{latest: &models.OverallStat{SnapshotID: "cached"}}}
	repo := NewFallbackRepository(hangingReader{}, secondary, quietLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := repo.GetLatestOverallStat(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, expected context.Canceled", err)
	}
}

type recordingCache struct {
	mu       sync.Mutex
	done     chan string
	agencies []models.Agency
}

func (c *recordingCache) StoreAgencies(ctx context.Context, agencies []models.Agency) error {
	c.mu.Lock()
	c.agencies = agencies
	c.mu.Unlock()
	c.done <- "agencies"
	return nil
}

func (c *recordingCache) StoreOverallStat(ctx context.Context, stat *models.OverallStat) error {
	c.done <- "overall_stat"
	return nil
}

func (c *recordingCache) StoreHourlyStats(ctx context.Context, rows []models.HourlyStat) error {
	c.done <- "hourly_stats"
	return nil
}

func TestWriteThroughRepository(t *testing.T) {
	primary := &stubReader{
		latest:   &models.OverallStat{},
		agencies: []models.Agency{{AgencyID: "a", Name: "A"}},
		rows:     []models.HourlyStat{{AgencyID: "a"}},
	}
	cache := &recordingCache{done: make(chan string, 3)}
	repo := NewWriteThroughRepository(primary, cache, quietLogger())
	ctx := context.Background()

	if _, err := repo.GetAgencies(ctx); err != nil {
		t.Fatalf("GetAgencies failed: %v", err)
	}
	if _, err := repo.GetLatestOverallStat(ctx); err != nil {
		t.Fatalf("GetLatestOverallStat failed: %v", err)
	}
	if _, err := repo.GetHourlyStatsBetween(ctx, time.Now(), time.Now()); err != nil {
		t.Fatalf("GetHourlyStatsBetween failed: %v", err)
	}

	seen := make(map[string]bool)
	for i := 0; i < 3; i++ {
		select {
		case key := <-cache.done:
			seen[key] = true
		case <-time.After(2 * time.Second):
			t.Fatalf("write-through did not happen, saw %v", seen)
		}
	}
	for _, key := range []string{"agencies", "overall_stat", "hourly_stats"} {
		if !seen[key] {
			t.Errorf("%s was not written through", key)
		}
	}
}
