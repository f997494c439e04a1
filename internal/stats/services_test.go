package stats

import (
	"testing"
	"time"

	"github.com/ruby-kim/gov-status/models"
)

func TestServiceStatus(t *testing.T) {
	tests := []struct {
		name     string
		counts   models.StatusCounts
		expected models.Status
	}{
		{"all normal", counts(3, 3, 0, 0), models.StatusNormal},
		{"maintenance", counts(3, 2, 1, 0), models.StatusMaintenance},
		{"problem wins", counts(3, 1, 1, 1), models.StatusProblem},
		{"empty", counts(0, 0, 0, 0), models.StatusNormal},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ServiceStatus(tc.counts); got != tc.expected {
				t.Errorf("ServiceStatus(%+v) = %q, expected %q", tc.counts, got, tc.expected)
			}
		})
	}
}

func TestBuildServices(t *testing.T) {
	ts := time.Date(2025, 10, 3, 5, 0, 0, 0, time.UTC)
	latest := &models.OverallStat{
		Timestamp: ts,
		Agencies:  []models.AgencyStatus{{AgencyID: "A", Status: models.StatusNormal, ResponseTime: ms(150)}},
	}
	rows := []models.HourlyStat{
		hourly("A", "2025-10-03T05:00:00Z", counts(2, 2, 0, 0)),
		hourly("B", "2025-10-03T05:00:00Z", counts(2, 1, 0, 1)),
		hourly("X", "2025-10-03T05:00:00Z", counts(2, 2, 0, 0)),
	}

	got := BuildServices(rows, latest, testAgencies("A", "B"))
	if len(got) != 2 {
		t.Fatalf("len = %d, expected 2", len(got))
	}
	if got[0].Status != models.StatusNormal || got[0].ResponseTime == nil || *got[0].ResponseTime != 150 {
		t.Errorf("A = %+v", got[0])
	}
	if got[1].Status != models.StatusProblem || got[1].ResponseTime != nil {
		t.Errorf("B = %+v", got[1])
	}
	if !got[1].LastChecked.Equal(ts) {
		t.Errorf("LastChecked = %v, expected %v", got[1].LastChecked, ts)
	}
	if got[0].ID != "A-0" || got[1].ID != "B-1" {
		t.Errorf("ids = %q, %q", got[0].ID, got[1].ID)
	}
}
