package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ruby-kim/gov-status/internal/stats"
	"github.com/ruby-kim/gov-status/models"
)

// UpsertMode controls how a conflicting (agency, hour) row is written
type UpsertMode int

const (
	// UpsertAccumulate adds the new counts to the stored ones, the way the
	// collector records each check within an hour
	UpsertAccumulate UpsertMode = iota
	// UpsertReplace overwrites the stored counts
	UpsertReplace
)

// NormalizeHour returns the UTC hour bucket a row belongs to
func NormalizeHour(row models.HourlyStat) (time.Time, error) {
	if !row.Hour.IsZero() {
		return row.Hour.UTC().Truncate(time.Hour), nil
	}
	t, err := stats.ParseSnapshotTimestamp(row.TimestampHour)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC().Truncate(time.Hour), nil
}

// SaveAgencies inserts or updates agency metadata
func (s *SQLiteDB) SaveAgencies(ctx context.Context, agencies []models.Agency) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO agencies (agency_id, name, url, main_category, sub_category, tags)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (agency_id) DO UPDATE SET
			name = excluded.name,
			url = excluded.url,
			main_category = excluded.main_category,
			sub_category = excluded.sub_category,
			tags = excluded.tags
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare agency upsert: %w", err)
	}
	defer stmt.Close()

	for _, a := range agencies {
		if err := a.Validate(); err != nil {
			return err
		}
		tags := a.Tags
		if tags == nil {
			tags = []string{}
		}
		tagsJSON, err := json.Marshal(tags)
		if err != nil {
			return fmt.Errorf("failed to encode tags for agency %s: %w", a.AgencyID, err)
		}
		if _, err := stmt.ExecContext(ctx, a.AgencyID, a.Name, a.URL, a.MainCategory, a.SubCategory, string(tagsJSON)); err != nil {
			return fmt.Errorf("failed to upsert agency %s: %w", a.AgencyID, err)
		}
	}

	return tx.Commit()
}

// UpsertHourlyStats writes hourly rows keyed by (agency, hour)
func (s *SQLiteDB) UpsertHourlyStats(ctx context.Context, rows []models.HourlyStat, mode UpsertMode) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO hourly_stats (agency_id, timestamp_hour, hour_utc, total, normal, maintenance, problem)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (agency_id, hour_utc) DO UPDATE SET
			total = hourly_stats.total + excluded.total,
			normal = hourly_stats.normal + excluded.normal,
			maintenance = hourly_stats.maintenance + excluded.maintenance,
			problem = hourly_stats.problem + excluded.problem
	`
	if mode == UpsertReplace {
		query = `
		INSERT INTO hourly_stats (agency_id, timestamp_hour, hour_utc, total, normal, maintenance, problem)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (agency_id, hour_utc) DO UPDATE SET
			timestamp_hour = excluded.timestamp_hour,
			total = excluded.total,
			normal = excluded.normal,
			maintenance = excluded.maintenance,
			problem = excluded.problem
	`
	}

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare hourly stats upsert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		hour, err := NormalizeHour(row)
		if err != nil {
			return fmt.Errorf("hourly stat for agency %s: %w", row.AgencyID, err)
		}
		raw := row.TimestampHour
		if raw == "" {
			raw = formatHour(hour)
		}
		if _, err := stmt.ExecContext(ctx, row.AgencyID, raw, formatHour(hour),
			row.Stats.Total, row.Stats.Normal, row.Stats.Maintenance, row.Stats.Problem); err != nil {
			return fmt.Errorf("failed to upsert hourly stat for agency %s: %w", row.AgencyID, err)
		}
	}

	return tx.Commit()
}

// SaveOverallStat stores a polling cycle rollup and returns its snapshot id
func (s *SQLiteDB) SaveOverallStat(ctx context.Context, stat models.OverallStat) (string, error) {
	if err := stat.Validate(); err != nil {
		return "", err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	snapshotID := stat.SnapshotID
	if snapshotID == "" {
		snapshotID = uuid.New().String()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO overall_stats (snapshot_id, timestamp_utc, total, normal, maintenance, problem)
		VALUES (?, ?, ?, ?, ?, ?)
	`, snapshotID, stat.Timestamp.UTC().Format(time.RFC3339),
		stat.Overall.Total, stat.Overall.Normal, stat.Overall.Maintenance, stat.Overall.Problem)
	if err != nil {
		return "", fmt.Errorf("failed to insert overall stat: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO overall_stat_agencies (snapshot_id, position, agency_id, status, response_time_ms)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare overall stat agencies insert: %w", err)
	}
	defer stmt.Close()

	for i, a := range stat.Agencies {
		var responseTime sql.NullFloat64
		if a.ResponseTime != nil {
			responseTime = sql.NullFloat64{Float64: *a.ResponseTime, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, snapshotID, i, a.AgencyID, string(a.Status), responseTime); err != nil {
			return "", fmt.Errorf("failed to insert overall stat agency %s: %w", a.AgencyID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit overall stat: %w", err)
	}
	return snapshotID, nil
}
