package stats

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ruby-kim/gov-status/models"
)

// TrendHours is the number of slots BuildHourlyTrend always returns
const TrendHours = 7

// BuildHourlyTrend buckets history into the seven hours ending with the
// hour containing now, oldest first, in loc. Entries inside a slot are
// averaged; an empty slot has rate 0. A slot carries an "M/D" date label
// when it is the first slot, starts at midnight, or begins a new date.
// Entries with unreadable timestamps are skipped and logged.
func BuildHourlyTrend(history []models.HistoryPoint, now time.Time, loc *time.Location, log logrus.FieldLogger) []models.TrendPoint {
	local := now.In(loc)
	currentHour := time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), 0, 0, 0, loc)
	first := currentHour.Add(-(TrendHours - 1) * time.Hour)

	var buckets [TrendHours]runningMean
	for _, p := range history {
		t, err := ParseSnapshotTimestamp(p.Timestamp)
		if err != nil {
			log.WithField("timestamp", p.Timestamp).WithError(err).Warn("skipping history entry")
			continue
		}
		if t.Before(first) || !t.Before(currentHour.Add(time.Hour)) {
			continue
		}
		idx := int(t.Sub(first) / time.Hour)
		buckets[idx].add(NormalRate(p.Overall))
	}

	points := make([]models.TrendPoint, TrendHours)
	prevDate := ""
	for i := range points {
		start := first.Add(time.Duration(i) * time.Hour)
		date := fmt.Sprintf("%d/%d", int(start.Month()), start.Day())

		label := ""
		if i == 0 || start.Hour() == 0 || date != prevDate {
			label = date
		}
		prevDate = date

		points[i] = models.TrendPoint{
			Hour:       start.Hour(),
			Date:       label,
			NormalRate: round2(buckets[i].value()),
			Timestamp:  start,
		}
	}
	return points
}
