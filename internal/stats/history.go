package stats

import (
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ruby-kim/gov-status/models"
)

// RecentHours returns the most recent days*24 distinct hours, oldest first
func RecentHours(hours []time.Time, days int) []time.Time {
	sorted := append([]time.Time(nil), hours...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].After(sorted[j]) })

	limit := days * 24
	if limit < len(sorted) {
		sorted = sorted[:limit]
	}
	for i, j := 0, len(sorted)-1; i < j; i, j = i+1, j-1 {
		sorted[i], sorted[j] = sorted[j], sorted[i]
	}
	return sorted
}

// rowHour returns the normalized hour of a row, parsing the raw timestamp
// when the store did not fill it in
func rowHour(row models.HourlyStat) (time.Time, error) {
	if !row.Hour.IsZero() {
		return row.Hour.UTC(), nil
	}
	t, err := ParseSnapshotTimestamp(row.TimestampHour)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC().Truncate(time.Hour), nil
}

// GroupHistory sums all agencies' counts per hour, oldest first
func GroupHistory(rows []models.HourlyStat, log logrus.FieldLogger) []models.HistoryPoint {
	sums := make(map[time.Time]*models.StatusCounts)
	for _, row := range rows {
		h, err := rowHour(row)
		if err != nil {
			log.WithField("timestamp_hour", row.TimestampHour).WithError(err).Warn("skipping hourly stat")
			continue
		}
		c, ok := sums[h]
		if !ok {
			c = &models.StatusCounts{}
			sums[h] = c
		}
		c.Add(row.Stats)
	}

	hours := make([]time.Time, 0, len(sums))
	for h := range sums {
		hours = append(hours, h)
	}
	sort.Slice(hours, func(i, j int) bool { return hours[i].Before(hours[j]) })

	points := make([]models.HistoryPoint, len(hours))
	for i, h := range hours {
		points[i] = models.HistoryPoint{
			Timestamp: h.Format(time.RFC3339),
			Overall:   *sums[h],
		}
	}
	return points
}

// BuildAgencyHistory splits rows into one hourly series per agency
func BuildAgencyHistory(rows []models.HourlyStat, log logrus.FieldLogger) []models.AgencyHistory {
	type entry struct {
		hour  time.Time
		point models.AgencyHistoryPoint
	}
	series := make(map[string][]entry)
	for _, row := range rows {
		h, err := rowHour(row)
		if err != nil {
			log.WithField("timestamp_hour", row.TimestampHour).WithError(err).Warn("skipping hourly stat")
			continue
		}
		series[row.AgencyID] = append(series[row.AgencyID], entry{
			hour: h,
			point: models.AgencyHistoryPoint{
				Timestamp:  h.Format(time.RFC3339),
				NormalRate: round2(NormalRate(row.Stats)),
				Stats:      row.Stats,
			},
		})
	}

	ids := make([]string, 0, len(series))
	for id := range series {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]models.AgencyHistory, 0, len(ids))
	for _, id := range ids {
		entries := series[id]
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].hour.Before(entries[j].hour) })
		history := make([]models.AgencyHistoryPoint, len(entries))
		for i, e := range entries {
			history[i] = e.point
		}
		out = append(out, models.AgencyHistory{AgencyID: id, History: history})
	}
	return out
}
