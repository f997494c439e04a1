package stats

import (
	"testing"
	"time"

	"github.com/ruby-kim/gov-status/models"
)

func TestBuildOverview(t *testing.T) {
	ts := time.Date(2025, 10, 3, 5, 0, 0, 0, time.UTC)
	latest := &models.OverallStat{
		Timestamp: ts,
		Overall:   counts(10, 8, 1, 1),
		Agencies: []models.AgencyStatus{
			{AgencyID: "A", Status: models.StatusNormal, ResponseTime: ms(120)},
			{AgencyID: "B", Status: models.StatusMaintenance, ResponseTime: ms(80)},
			{AgencyID: "C", Status: models.StatusProblem},
			{AgencyID: "D", Status: models.StatusNormal, ResponseTime: ms(0)},
		},
	}
	agencies := []models.Agency{
		{AgencyID: "A", Name: "Alpha"},
		{AgencyID: "B", Name: "Beta"},
		{AgencyID: "C", Name: "Gamma"},
	}
	dayRows := []models.HourlyStat{
		hourly("A", "2025-10-03T01:00:00Z", counts(10, 10, 0, 0)),
		hourly("B", "2025-10-03T01:00:00Z", counts(10, 5, 5, 0)),
	}

	got := BuildOverview(OverviewInput{Latest: latest, Agencies: agencies, DayRows: dayRows}, NewRandomChooser(1))

	if got.OverallNormalRate != 80 {
		t.Errorf("OverallNormalRate = %v, expected 80", got.OverallNormalRate)
	}
	if got.TotalServices != 10 || got.NormalServices != 8 || got.MaintenanceServices != 1 || got.ProblemServices != 1 {
		t.Errorf("service counts = %+v", got)
	}
	if got.TotalAgencies != 3 {
		t.Errorf("TotalAgencies = %d, expected 3", got.TotalAgencies)
	}
	if got.WarningAgencies != 2 {
		t.Errorf("WarningAgencies = %d, expected 2", got.WarningAgencies)
	}
	if got.AvgResponseTime != 100 {
		t.Errorf("AvgResponseTime = %d, expected 100", got.AvgResponseTime)
	}
	if got.FastestAgency == nil || got.FastestAgency.Name != "Beta" || got.FastestAgency.ResponseTime != 80 {
		t.Errorf("FastestAgency = %+v, expected Beta at 80", got.FastestAgency)
	}
	if got.BestAgency == nil || got.BestAgency.Name != "Alpha" || got.BestAgency.Rate != 100 {
		t.Errorf("BestAgency = %+v, expected Alpha at 100", got.BestAgency)
	}
	if !got.LastUpdated.Equal(ts) {
		t.Errorf("LastUpdated = %v, expected %v", got.LastUpdated, ts)
	}
}

func TestBuildOverviewZeroTotals(t *testing.T) {
	latest := &models.OverallStat{Timestamp: time.Now()}
	got := BuildOverview(OverviewInput{Latest: latest}, NewRandomChooser(1))

	if got.OverallNormalRate != 0 {
		t.Errorf("OverallNormalRate = %v, expected 0", got.OverallNormalRate)
	}
	if got.FastestAgency != nil {
		t.Errorf("FastestAgency = %+v, expected nil", got.FastestAgency)
	}
	if got.AvgResponseTime != 0 {
		t.Errorf("AvgResponseTime = %d, expected 0", got.AvgResponseTime)
	}
	if got.BestAgency == nil || got.BestAgency.Name != NoDataName {
		t.Errorf("BestAgency = %+v, expected %q", got.BestAgency, NoDataName)
	}
}

func TestBuildOverviewFallsBackToNormalAgency(t *testing.T) {
	latest := &models.OverallStat{
		Overall:  counts(1, 1, 0, 0),
		Agencies: []models.AgencyStatus{{AgencyID: "A", Status: models.StatusNormal}},
	}
	got := BuildOverview(OverviewInput{
		Latest:   latest,
		Agencies: []models.Agency{{AgencyID: "A", Name: "Alpha"}},
	}, NewRandomChooser(7))

	if got.BestAgency.Name != "Alpha" || got.BestAgency.Rate != 100 {
		t.Errorf("BestAgency = %+v, expected Alpha at 100", got.BestAgency)
	}
}

func TestFastestAgencyUnknownMetadata(t *testing.T) {
	latest := &models.OverallStat{Agencies: []models.AgencyStatus{
		{AgencyID: "X", Status: models.StatusNormal, ResponseTime: ms(10)},
		{AgencyID: "A", Status: models.StatusNormal, ResponseTime: ms(20)},
	}}
	if got := FastestAgency(latest, testAgencies("A")); got != nil {
		t.Errorf("FastestAgency = %+v, expected nil for unknown fastest agency", got)
	}
}
