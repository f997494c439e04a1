package stats

import (
	"testing"
	"time"

	"github.com/ruby-kim/gov-status/models"
)

func TestBuildAgencyStats(t *testing.T) {
	now := time.Date(2025, 10, 3, 12, 0, 0, 0, time.UTC)
	rows := []models.HourlyStat{
		hourly("A", "2025-10-02T10:00:00Z", counts(10, 10, 0, 0)),
		hourly("A", "2025-10-03T09:00:00Z", counts(10, 5, 5, 0)),
		hourly("A", "Fri Sep 26 2025 10:00:00 GMT+0900 (Korean Standard Time)", counts(4, 3, 1, 0)),
		hourly("A", "garbage", counts(10, 0, 0, 10)),
		hourly("B", "2025-10-03T08:00:00Z", counts(0, 0, 0, 0)),
	}
	agencies := []models.Agency{
		{AgencyID: "C", Name: "Charlie"},
		{AgencyID: "B", Name: "Bravo"},
		{AgencyID: "A", Name: "Alpha", URL: "https://a.go.kr"},
	}

	got := BuildAgencyStats(rows, agencies, now, testLogger())
	if len(got) != 3 {
		t.Fatalf("len = %d, expected 3", len(got))
	}

	a := got[0]
	if a.AgencyID != "A" {
		t.Fatalf("first agency = %q, expected A", a.AgencyID)
	}
	if !a.Current.NormalRate.Valid || a.Current.NormalRate.Float64 != 50 || a.Current.Display != "50%" {
		t.Errorf("current = %+v, expected 50%%", a.Current)
	}
	if !a.Day1.NormalRate.Valid || a.Day1.NormalRate.Float64 != 100 || a.Day1.Display != "100%" {
		t.Errorf("day1 = %+v, expected 100%%", a.Day1)
	}
	if !a.Week1.NormalRate.Valid || a.Week1.NormalRate.Float64 != 75 {
		t.Errorf("week1 = %+v, expected 75%%", a.Week1)
	}
	if a.Month1.NormalRate.Valid || a.Month1.Display != "N/A" {
		t.Errorf("month1 = %+v, expected null", a.Month1)
	}
	if !a.Average.Valid || a.Average.Float64 != 75 {
		t.Errorf("average = %+v, expected 75", a.Average)
	}
	if a.Trend.Valid {
		t.Errorf("trend = %+v, expected null without month1", a.Trend)
	}

	// B only has a zero-total row, C has nothing: both null, ordered by name
	if got[1].AgencyID != "B" || got[2].AgencyID != "C" {
		t.Errorf("order = %s, %s, expected B, C", got[1].AgencyID, got[2].AgencyID)
	}
	for _, s := range got[1:] {
		if s.Current.NormalRate.Valid || s.Day1.NormalRate.Valid || s.Average.Valid {
			t.Errorf("%s: expected all null, got %+v", s.AgencyID, s)
		}
		if s.Current.Display != "N/A" {
			t.Errorf("%s: display = %q, expected N/A", s.AgencyID, s.Current.Display)
		}
	}
}

func TestBuildAgencyStatsTrend(t *testing.T) {
	now := time.Date(2025, 10, 31, 12, 0, 0, 0, time.UTC)
	rows := []models.HourlyStat{
		hourly("A", "2025-10-01T10:00:00Z", counts(10, 6, 4, 0)),
		hourly("A", "2025-10-31T10:00:00Z", counts(10, 9, 1, 0)),
	}
	got := BuildAgencyStats(rows, []models.Agency{{AgencyID: "A", Name: "Alpha"}}, now, testLogger())

	if !got[0].Month1.NormalRate.Valid || got[0].Month1.NormalRate.Float64 != 60 {
		t.Errorf("month1 = %+v, expected 60", got[0].Month1)
	}
	if !got[0].Trend.Valid || got[0].Trend.Float64 != 30 {
		t.Errorf("trend = %+v, expected 30", got[0].Trend)
	}
}
