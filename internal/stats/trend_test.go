package stats

import (
	"testing"
	"time"

	"github.com/ruby-kim/gov-status/models"
)

func TestBuildHourlyTrend(t *testing.T) {
	now := time.Date(2025, 10, 3, 0, 30, 0, 0, kst)
	history := []models.HistoryPoint{
		{Timestamp: "2025-10-02T20:15:00+09:00", Overall: counts(10, 8, 2, 0)},
		{Timestamp: "2025-10-02T20:45:00+09:00", Overall: counts(10, 6, 2, 2)},
		{Timestamp: "2025-10-02T17:59:00+09:00", Overall: counts(10, 10, 0, 0)},
		{Timestamp: "Fri Oct 03 2025 00:00:00 GMT+0900 (Korean Standard Time)", Overall: counts(4, 1, 3, 0)},
		{Timestamp: "2025-10-03T01:00:00+09:00", Overall: counts(10, 10, 0, 0)},
		{Timestamp: "bad", Overall: counts(10, 10, 0, 0)},
	}

	got := BuildHourlyTrend(history, now, kst, testLogger())
	if len(got) != TrendHours {
		t.Fatalf("len = %d, expected %d", len(got), TrendHours)
	}

	expected := []struct {
		hour int
		date string
		rate float64
	}{
		{18, "10/2", 0},
		{19, "", 0},
		{20, "", 70},
		{21, "", 0},
		{22, "", 0},
		{23, "", 0},
		{0, "10/3", 25},
	}
	for i, e := range expected {
		p := got[i]
		if p.Hour != e.hour || p.Date != e.date || p.NormalRate != e.rate {
			t.Errorf("point %d = {hour:%d date:%q rate:%v}, expected {hour:%d date:%q rate:%v}",
				i, p.Hour, p.Date, p.NormalRate, e.hour, e.date, e.rate)
		}
	}
}

func TestBuildHourlyTrendEmpty(t *testing.T) {
	now := time.Date(2025, 10, 3, 15, 10, 0, 0, kst)
	got := BuildHourlyTrend(nil, now, kst, testLogger())
	if len(got) != TrendHours {
		t.Fatalf("len = %d, expected %d", len(got), TrendHours)
	}
	for i, p := range got {
		if p.NormalRate != 0 {
			t.Errorf("point %d rate = %v, expected 0", i, p.NormalRate)
		}
		if want := 9 + i; p.Hour != want {
			t.Errorf("point %d hour = %d, expected %d", i, p.Hour, want)
		}
	}
	if got[0].Date != "10/3" {
		t.Errorf("first date = %q, expected 10/3", got[0].Date)
	}
	for _, p := range got[1:] {
		if p.Date != "" {
			t.Errorf("hour %d date = %q, expected empty", p.Hour, p.Date)
		}
	}
}
