package repository

import (
	"context"
	"fmt"
	"time"
)

// Cleanup deletes hourly and overall stats older than retention. The most
// recent overall stat is always kept.
func (s *SQLiteDB) Cleanup(ctx context.Context, retention time.Duration, now time.Time) (int64, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	cutoff := now.Add(-retention).UTC().Format(time.RFC3339)
	latest := `(SELECT snapshot_id FROM overall_stats ORDER BY timestamp_utc DESC LIMIT 1)`

	queries := []struct {
		name  string
		query string
	}{
		{
			name:  "hourly_stats",
			query: "DELETE FROM hourly_stats WHERE hour_utc < ?",
		},
		{
			name: "overall_stat_agencies",
			query: `DELETE FROM overall_stat_agencies WHERE snapshot_id IN (
				SELECT snapshot_id FROM overall_stats WHERE timestamp_utc < ? AND snapshot_id <> ` + latest + `)`,
		},
		{
			name:  "overall_stats",
			query: "DELETE FROM overall_stats WHERE timestamp_utc < ? AND snapshot_id <> " + latest,
		},
	}

	var totalDeleted int64
	for _, q := range queries {
		result, err := s.db.ExecContext(ctx, q.query, cutoff)
		if err != nil {
			return totalDeleted, fmt.Errorf("failed to cleanup %s: %w", q.name, err)
		}
		rows, _ := result.RowsAffected()
		totalDeleted += rows
	}

	return totalDeleted, nil
}
