package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ruby-kim/gov-status/models"
)

// ErrNotFound is returned when the store is reachable but holds no data
// for the request
var ErrNotFound = errors.New("not found")

// ErrCacheMiss is returned by the cache when a key has never been written.
// It is treated like an unreachable store, not like ErrNotFound.
var ErrCacheMiss = errors.New("cache miss")

// StatusReader is the read side every status store implements
type StatusReader interface {
	Ping(ctx context.Context) error
	GetLatestOverallStat(ctx context.Context) (*models.OverallStat, error)
	GetAgencies(ctx context.Context) ([]models.Agency, error)
	GetHourlyHours(ctx context.Context) ([]time.Time, error)
	GetHourlyStatsBetween(ctx context.Context, start, end time.Time) ([]models.HourlyStat, error)
}

// formatHour is the canonical text form of a normalized hour. It sorts
// chronologically as a string.
func formatHour(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// parseTimeString converts an RFC3339 string to time.Time
func parseTimeString(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
