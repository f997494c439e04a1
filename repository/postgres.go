package repository

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ruby-kim/gov-status/models"
)

//go:embed schema_postgres.sql
var postgresSchema string

// PostgresStatusRepository reads and writes dashboard data in PostgreSQL
type PostgresStatusRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresStatusRepository creates a pool for databaseURL. Connections
// are opened lazily, so an unreachable server surfaces on the first query
// or Ping rather than here.
func NewPostgresStatusRepository(ctx context.Context, databaseURL string) (*PostgresStatusRepository, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	return &PostgresStatusRepository{pool: pool}, nil
}

func (r *PostgresStatusRepository) Close() {
	r.pool.Close()
}

func (r *PostgresStatusRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (r *PostgresStatusRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *PostgresStatusRepository) GetLatestOverallStat(ctx context.Context) (*models.OverallStat, error) {
	var (
		stat       models.OverallStat
		snapshotID uuid.UUID
	)
	err := r.pool.QueryRow(ctx, `
		SELECT snapshot_id, timestamp_utc, total, normal, maintenance, problem
		FROM overall_stats
		ORDER BY timestamp_utc DESC
		LIMIT 1
	`).Scan(&snapshotID, &stat.Timestamp, &stat.Overall.Total, &stat.Overall.Normal, &stat.Overall.Maintenance, &stat.Overall.Problem)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query overall stats: %w", err)
	}
	stat.SnapshotID = snapshotID.String()
	stat.Timestamp = stat.Timestamp.UTC()

	rows, err := r.pool.Query(ctx, `
		SELECT agency_id, status, response_time_ms
		FROM overall_stat_agencies
		WHERE snapshot_id = $1
		ORDER BY position
	`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("failed to query overall stat agencies: %w", err)
	}
	defer rows.Close()

	stat.Agencies = make([]models.AgencyStatus, 0)
	for rows.Next() {
		var (
			a      models.AgencyStatus
			status string
		)
		if err := rows.Scan(&a.AgencyID, &status, &a.ResponseTime); err != nil {
			return nil, fmt.Errorf("failed to scan overall stat agency: %w", err)
		}
		a.Status = models.Status(status)
		stat.Agencies = append(stat.Agencies, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating overall stat agencies: %w", err)
	}

	return &stat, nil
}

func (r *PostgresStatusRepository) GetAgencies(ctx context.Context) ([]models.Agency, error) {
	rows, err := r.pool.Query(ctx, `
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
		var a models.Agency
		if err := rows.Scan(&a.AgencyID, &a.Name, &a.URL, &a.MainCategory, &a.SubCategory, &a.Tags); err != nil {
			return nil, fmt.Errorf("failed to scan agency: %w", err)
		}
		agencies = append(agencies, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating agencies: %w", err)
	}

	return agencies, nil
}

func (r *PostgresStatusRepository) GetHourlyHours(ctx context.Context) ([]time.Time, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT hour_utc FROM hourly_stats ORDER BY hour_utc`)
	if err != nil {
		return nil, fmt.Errorf("failed to query hourly stat hours: %w", err)
	}
	defer rows.Close()

	hours := make([]time.Time, 0)
	for rows.Next() {
		var h time.Time
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("failed to scan hour: %w", err)
		}
		hours = append(hours, h.UTC())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating hours: %w", err)
	}

	return hours, nil
}

func (r *PostgresStatusRepository) GetHourlyStatsBetween(ctx context.Context, start, end time.Time) ([]models.HourlyStat, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT agency_id, timestamp_hour, hour_utc, total, normal, maintenance, problem
		FROM hourly_stats
		WHERE hour_utc >= $1 AND hour_utc < $2
		ORDER BY hour_utc, agency_id
	`, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query hourly stats: %w", err)
	}
	defer rows.Close()

	stats := make([]models.HourlyStat, 0)
	for rows.Next() {
		var s models.HourlyStat
		if err := rows.Scan(&s.AgencyID, &s.TimestampHour, &s.Hour, &s.Stats.Total, &s.Stats.Normal, &s.Stats.Maintenance, &s.Stats.Problem); err != nil {
			return nil, fmt.Errorf("failed to scan hourly stat: %w", err)
		}
		s.Hour = s.Hour.UTC()
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating hourly stats: %w", err)
	}

	return stats, nil
}

// SaveAgencies inserts or updates agency metadata
func (r *PostgresStatusRepository) SaveAgencies(ctx context.Context, agencies []models.Agency) error {
	batch := &pgx.Batch{}
	for _, a := range agencies {
		if err := a.Validate(); err != nil {
			return err
		}
		tags := a.Tags
		if tags == nil {
			tags = []string{}
		}
		batch.Queue(`
			INSERT INTO agencies (agency_id, name, url, main_category, sub_category, tags)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (agency_id) DO UPDATE SET
				name = EXCLUDED.name,
				url = EXCLUDED.url,
				main_category = EXCLUDED.main_category,
				sub_category = EXCLUDED.sub_category,
				tags = EXCLUDED.tags
		`, a.AgencyID, a.Name, a.URL, a.MainCategory, a.SubCategory, tags)
	}

	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to upsert agencies: %w", err)
	}
	return nil
}

// UpsertHourlyStats writes hourly rows keyed by (agency, hour)
func (r *PostgresStatusRepository) UpsertHourlyStats(ctx context.Context, rows []models.HourlyStat, mode UpsertMode) error {
	query := `
		INSERT INTO hourly_stats (agency_id, timestamp_hour, hour_utc, total, normal, maintenance, problem)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (agency_id, hour_utc) DO UPDATE SET
			total = hourly_stats.total + EXCLUDED.total,
			normal = hourly_stats.normal + EXCLUDED.normal,
			maintenance = hourly_stats.maintenance + EXCLUDED.maintenance,
			problem = hourly_stats.problem + EXCLUDED.problem
	`
	if mode == UpsertReplace {
		query = `
		INSERT INTO hourly_stats (agency_id, timestamp_hour, hour_utc, total, normal, maintenance, problem)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (agency_id, hour_utc) DO UPDATE SET
			timestamp_hour = EXCLUDED.timestamp_hour,
			total = EXCLUDED.total,
			normal = EXCLUDED.normal,
			maintenance = EXCLUDED.maintenance,
			problem = EXCLUDED.problem
	`
	}

	batch := &pgx.Batch{}
	for _, row := range rows {
		hour, err := NormalizeHour(row)
		if err != nil {
			return fmt.Errorf("hourly stat for agency %s: %w", row.AgencyID, err)
		}
		raw := row.TimestampHour
		if raw == "" {
			raw = formatHour(hour)
		}
		batch.Queue(query, row.AgencyID, raw, hour,
			row.Stats.Total, row.Stats.Normal, row.Stats.Maintenance, row.Stats.Problem)
	}

	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to upsert hourly stats: %w", err)
	}
	return nil
}

// SaveOverallStat stores a polling cycle rollup and returns its snapshot id
func (r *PostgresStatusRepository) SaveOverallStat(ctx context.Context, stat models.OverallStat) (string, error) {
	if err := stat.Validate(); err != nil {
		return "", err
	}

	snapshotID := uuid.New()
	if stat.SnapshotID != "" {
		parsed, err := uuid.Parse(stat.SnapshotID)
		if err != nil {
			return "", fmt.Errorf("invalid snapshot id %q: %w", stat.SnapshotID, err)
		}
		snapshotID = parsed
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO overall_stats (snapshot_id, timestamp_utc, total, normal, maintenance, problem)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, snapshotID, stat.Timestamp.UTC(), stat.Overall.Total, stat.Overall.Normal, stat.Overall.Maintenance, stat.Overall.Problem)
	if err != nil {
		return "", fmt.Errorf("failed to insert overall stat: %w", err)
	}

	for i, a := range stat.Agencies {
		_, err := tx.Exec(ctx, `
			INSERT INTO overall_stat_agencies (snapshot_id, position, agency_id, status, response_time_ms)
			VALUES ($1, $2, $3, $4, $5)
		`, snapshotID, i, a.AgencyID, string(a.Status), a.ResponseTime)
		if err != nil {
			return "", fmt.Errorf("failed to insert overall stat agency %s: %w", a.AgencyID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("failed to commit overall stat: %w", err)
	}
	return snapshotID.String(), nil
}

// Cleanup deletes stats older than retention, keeping the latest overall stat
func (r *PostgresStatusRepository) Cleanup(ctx context.Context, retention time.Duration, now time.Time) (int64, error) {
	cutoff := now.Add(-retention).UTC()

	hourly, err := r.pool.Exec(ctx, `DELETE FROM hourly_stats WHERE hour_utc < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup hourly_stats: %w", err)
	}
	overall, err := r.pool.Exec(ctx, `
		DELETE FROM overall_stats
		WHERE timestamp_utc < $1
		  AND snapshot_id <> (SELECT snapshot_id FROM overall_stats ORDER BY timestamp_utc DESC LIMIT 1)
	`, cutoff)
	if err != nil {
		return hourly.RowsAffected(), fmt.Errorf("failed to cleanup overall_stats: %w", err)
	}

	return hourly.RowsAffected() + overall.RowsAffected(), nil
}
