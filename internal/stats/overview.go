package stats

import (
	"math"
	"sort"

	"github.com/ruby-kim/gov-status/models"
)

// OverviewInput is everything BuildOverview reads from the store
type OverviewInput struct {
	Latest   *models.OverallStat
	Agencies []models.Agency
	// DayRows are the hourly rows of the latest day, see LatestDayWindow
	DayRows []models.HourlyStat
}

// BuildOverview derives the dashboard summary. Latest must not be nil.
func BuildOverview(in OverviewInput, c Chooser) models.Overview {
	byID := AgencyIndex(in.Agencies)
	overall := in.Latest.Overall

	best, ties := SelectBestAgency(in.DayRows, in.Latest, byID, c)

	return models.Overview{
		TotalServices:       overall.Total,
		NormalServices:      overall.Normal,
		MaintenanceServices: overall.Maintenance,
		ProblemServices:     overall.Problem,
		TotalAgencies:       len(in.Agencies),
		OverallNormalRate:   round2(NormalRate(overall)),
		LastUpdated:         in.Latest.Timestamp,
		BestAgency:          best,
		BestAgencyTies:      ties,
		WarningAgencies:     WarningAgencies(in.Latest),
		AvgResponseTime:     AvgResponseTime(in.Latest),
		FastestAgency:       FastestAgency(in.Latest, byID),
		StatusDistribution:  overall,
	}
}

// BuildStats derives the light counts summary
func BuildStats(latest *models.OverallStat, totalAgencies int) models.Stats {
	return models.Stats{
		TotalServices:       latest.Overall.Total,
		NormalServices:      latest.Overall.Normal,
		MaintenanceServices: latest.Overall.Maintenance,
		ProblemServices:     latest.Overall.Problem,
		TotalAgencies:       totalAgencies,
		LastUpdated:         latest.Timestamp,
	}
}

// AgencyIndex maps agencies by id
func AgencyIndex(agencies []models.Agency) map[string]models.Agency {
	byID := make(map[string]models.Agency, len(agencies))
	for _, a := range agencies {
		byID[a.AgencyID] = a
	}
	return byID
}

// WarningAgencies counts agencies in maintenance or problem state
func WarningAgencies(latest *models.OverallStat) int {
	n := 0
	for _, a := range latest.Agencies {
		if a.Status.IsWarning() {
			n++
		}
	}
	return n
}

// AvgResponseTime is the mean positive response time in ms, 0 if none
func AvgResponseTime(latest *models.OverallStat) int {
	var m runningMean
	for _, a := range latest.Agencies {
		if a.ResponseTime != nil && *a.ResponseTime > 0 {
			m.add(*a.ResponseTime)
		}
	}
	return int(math.Round(m.value()))
}

// FastestAgency returns the known agency with the lowest positive response
// time, nil when no agency reported one
func FastestAgency(latest *models.OverallStat, agencies map[string]models.Agency) *models.FastestAgency {
	candidates := make([]models.AgencyStatus, 0, len(latest.Agencies))
	for _, a := range latest.Agencies {
		if a.ResponseTime != nil && *a.ResponseTime > 0 {
			candidates = append(candidates, a)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return *candidates[i].ResponseTime < *candidates[j].ResponseTime
	})

	fastest := candidates[0]
	agency, ok := agencies[fastest.AgencyID]
	if !ok {
		return nil
	}
	return &models.FastestAgency{
		AgencyID:     fastest.AgencyID,
		Name:         agency.Name,
		ResponseTime: *fastest.ResponseTime,
	}
}
