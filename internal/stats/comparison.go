package stats

import (
	"sort"
	"time"

	"github.com/guregu/null/v5"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/ruby-kim/gov-status/models"
)

// Comparison offsets in days
const (
	Day1Offset   = 1
	Week1Offset  = 7
	Month1Offset = 30
)

type agencyDays struct {
	byDate     map[string]*models.StatusCounts
	latest     time.Time
	latestDate string
}

// BuildAgencyStats compares each agency's current normal rate with the
// rates on the dates 1, 7 and 30 days before now. A period with no rows
// (or only rows with total 0) is null. Rows with unreadable timestamps
// are skipped and logged. The result is ordered by current rate, highest
// first, agencies without data last.
func BuildAgencyStats(rows []models.HourlyStat, agencies []models.Agency, now time.Time, log logrus.FieldLogger) []models.AgencyStat {
	days := groupByDate(rows, log)

	day1 := targetDate(now, Day1Offset)
	week1 := targetDate(now, Week1Offset)
	month1 := targetDate(now, Month1Offset)

	out := make([]models.AgencyStat, 0, len(agencies))
	for _, a := range agencies {
		s := models.AgencyStat{
			AgencyID: a.AgencyID,
			Name:     a.Name,
			URL:      a.URL,
		}

		var current, d1, w1, m1 null.Float
		if d, ok := days[a.AgencyID]; ok {
			current = rateOn(d, d.latestDate)
			d1 = rateOn(d, day1)
			w1 = rateOn(d, week1)
			m1 = rateOn(d, month1)
		}

		s.Current = snapshot(current)
		s.Day1 = snapshot(d1)
		s.Week1 = snapshot(w1)
		s.Month1 = snapshot(m1)
		s.Average = meanOf(current, d1, w1, m1)
		if current.Valid && m1.Valid {
			s.Trend = null.FloatFrom(round2(current.Float64 - m1.Float64))
		}
		out = append(out, s)
	}

	sort.SliceStable(out, func(i, j int) bool {
		ci, cj := out[i].Current.NormalRate, out[j].Current.NormalRate
		if ci.Valid != cj.Valid {
			return ci.Valid
		}
		if ci.Float64 != cj.Float64 {
			return ci.Float64 > cj.Float64
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func groupByDate(rows []models.HourlyStat, log logrus.FieldLogger) map[string]*agencyDays {
	days := make(map[string]*agencyDays)
	for _, row := range rows {
		t, err := ParseSnapshotTimestamp(row.TimestampHour)
		if err != nil {
			log.WithFields(logrus.Fields{
				"agency_id":      row.AgencyID,
				"timestamp_hour": row.TimestampHour,
			}).WithError(err).Warn("skipping hourly stat")
			continue
		}
		date, _ := SnapshotDate(row.TimestampHour)

		d, ok := days[row.AgencyID]
		if !ok {
			d = &agencyDays{byDate: make(map[string]*models.StatusCounts)}
			days[row.AgencyID] = d
		}
		c, ok := d.byDate[date]
		if !ok {
			c = &models.StatusCounts{}
			d.byDate[date] = c
		}
		c.Add(row.Stats)

		if d.latestDate == "" || t.After(d.latest) {
			d.latest = t
			d.latestDate = date
		}
	}
	return days
}

func targetDate(now time.Time, offsetDays int) string {
	return now.Add(-time.Duration(offsetDays) * 24 * time.Hour).UTC().Format(time.DateOnly)
}

func rateOn(d *agencyDays, date string) null.Float {
	c, ok := d.byDate[date]
	if !ok || c.Total <= 0 {
		return null.Float{}
	}
	return null.FloatFrom(round2(NormalRate(*c)))
}

func snapshot(rate null.Float) models.RateSnapshot {
	return models.RateSnapshot{NormalRate: rate, Display: FormatRate(rate)}
}

// meanOf averages the valid rates, null when none is valid
func meanOf(rates ...null.Float) null.Float {
	values := make([]float64, 0, len(rates))
	for _, r := range rates {
		if r.Valid {
			values = append(values, r.Float64)
		}
	}
	if len(values) == 0 {
		return null.Float{}
	}
	return null.FloatFrom(round2(stat.Mean(values, nil)))
}
