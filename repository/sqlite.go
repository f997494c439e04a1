package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ruby-kim/gov-status/models"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var sqliteSchema string

// SQLiteDB wraps a SQL database connection for SQLite
type SQLiteDB struct {
	db      *sql.DB
	writeMu sync.Mutex
}

// NewSQLiteDB opens dbPath with WAL journaling and foreign keys enabled
func NewSQLiteDB(dbPath string) (*SQLiteDB, error) {
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *SQLiteDB) GetDB() *sql.DB {
	return s.db
}

// EnsureSchema creates tables if they don't exist
func (s *SQLiteDB) EnsureSchema(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SQLiteStatusRepository reads dashboard data from SQLite
type SQLiteStatusRepository struct {
	db *sql.DB
}

// NewSQLiteStatusRepository creates a new SQLiteStatusRepository
func NewSQLiteStatusRepository(db *sql.DB) *SQLiteStatusRepository {
	return &SQLiteStatusRepository{db: db}
}

// Ping checks database connectivity
func (r *SQLiteStatusRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// GetLatestOverallStat returns the most recent polling cycle rollup
func (r *SQLiteStatusRepository) GetLatestOverallStat(ctx context.Context) (*models.OverallStat, error) {
	var (
		stat models.OverallStat
		ts   string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT snapshot_id, timestamp_utc, total, normal, maintenance, problem
		FROM overall_stats
		ORDER BY timestamp_utc DESC
		LIMIT 1
	`).Scan(&stat.SnapshotID, &ts, &stat.Overall.Total, &stat.Overall.Normal, &stat.Overall.Maintenance, &stat.Overall.Problem)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query overall stats: %w", err)
	}

	stat.Timestamp, err = parseTimeString(ts)
	if err != nil {
		return nil, fmt.Errorf("invalid overall stats timestamp %q: %w", ts, err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT agency_id, status, response_time_ms
		FROM overall_stat_agencies
		WHERE snapshot_id = ?
		ORDER BY position
	`, stat.SnapshotID)
	if err != nil {
		return nil, fmt.Errorf("failed to query overall stat agencies: %w", err)
	}
	defer rows.Close()

	stat.Agencies = make([]models.AgencyStatus, 0)
	for rows.Next() {
		var (
			a            models.AgencyStatus
			status       string
			responseTime sql.NullFloat64
		)
		if err := rows.Scan(&a.AgencyID, &status, &responseTime); err != nil {
			return nil, fmt.Errorf("failed to scan overall stat agency: %w", err)
		}
		a.Status = models.Status(status)
		if responseTime.Valid {
			v := responseTime.Float64
			a.ResponseTime = &v
		}
		stat.Agencies = append(stat.Agencies, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating overall stat agencies: %w", err)
	}

	return &stat, nil
}

// GetAgencies returns all agency metadata ordered by id
func (r *SQLiteStatusRepository) GetAgencies(ctx context.Context) ([]models.Agency, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT agency_id, name, url, main_category, sub_category, tags
		FROM agencies
		ORDER BY agency_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query agencies: %w", err)
	}
	defer rows.Close()

	agencies := make([]models.Agency, 0)
	for rows.Next() {
		var (
			a    models.Agency
			tags string
		)
		if err := rows.Scan(&a.AgencyID, &a.Name, &a.URL, &a.MainCategory, &a.SubCategory, &tags); err != nil {
			return nil, fmt.Errorf("failed to scan agency: %w", err)
		}
		if err := json.Unmarshal([]byte(tags), &a.Tags); err != nil {
			return nil, fmt.Errorf("invalid tags for agency %s: %w", a.AgencyID, err)
		}
		agencies = append(agencies, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating agencies: %w", err)
	}

	return agencies, nil
}

// GetHourlyHours returns the distinct hours that have hourly stats, ascending
func (r *SQLiteStatusRepository) GetHourlyHours(ctx context.Context) ([]time.Time, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT hour_utc FROM hourly_stats ORDER BY hour_utc`)
	if err != nil {
		return nil, fmt.Errorf("failed to query hourly stat hours: %w", err)
	}
	defer rows.Close()

	hours := make([]time.Time, 0)
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan hour: %w", err)
		}
		h, err := parseTimeString(s)
		if err != nil {
			return nil, fmt.Errorf("invalid hour %q: %w", s, err)
		}
		hours = append(hours, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating hours: %w", err)
	}

	return hours, nil
}

// GetHourlyStatsBetween returns hourly stats with start <= hour < end
func (r *SQLiteStatusRepository) GetHourlyStatsBetween(ctx context.Context, start, end time.Time) ([]models.HourlyStat, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT agency_id, timestamp_hour, hour_utc, total, normal, maintenance, problem
		FROM hourly_stats
		WHERE hour_utc >= ? AND hour_utc < ?
		ORDER BY hour_utc, agency_id
	`, formatHour(start), formatHour(end))
	if err != nil {
		return nil, fmt.Errorf("failed to query hourly stats: %w", err)
	}
	defer rows.Close()

	stats := make([]models.HourlyStat, 0)
	for rows.Next() {
		var (
			s    models.HourlyStat
			hour string
		)
		if err := rows.Scan(&s.AgencyID, &s.TimestampHour, &hour, &s.Stats.Total, &s.Stats.Normal, &s.Stats.Maintenance, &s.Stats.Problem); err != nil {
			return nil, fmt.Errorf("failed to scan hourly stat: %w", err)
		}
		if s.Hour, err = parseTimeString(hour); err != nil {
			return nil, fmt.Errorf("invalid hour %q: %w", hour, err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating hourly stats: %w", err)
	}

	return stats, nil
}
