package models

import (
	"time"

	"github.com/guregu/null/v5"
)

// BestAgency is the agency with the highest normal rate on the latest day
type BestAgency struct {
	AgencyID string  `json:"agencyId,omitempty"`
	Name     string  `json:"name"`
	Rate     float64 `json:"rate"`
	Label    string  `json:"label"`
}

// FastestAgency is the agency with the lowest positive response time
type FastestAgency struct {
	AgencyID     string  `json:"agencyId"`
	Name         string  `json:"name"`
	ResponseTime float64 `json:"responseTime"`
}

// Overview is the dashboard summary derived per request
type Overview struct {
	TotalServices       int            `json:"totalServices"`
	NormalServices      int            `json:"normalServices"`
	MaintenanceServices int            `json:"maintenanceServices"`
	ProblemServices     int            `json:"problemServices"`
	TotalAgencies       int            `json:"totalAgencies"`
	OverallNormalRate   float64        `json:"overallNormalRate"`
	LastUpdated         time.Time      `json:"lastUpdated"`
	BestAgency          *BestAgency    `json:"bestAgency"`
	BestAgencyTies      int            `json:"bestAgencyTies"`
	WarningAgencies     int            `json:"warningAgencies"`
	AvgResponseTime     int            `json:"avgResponseTime"`
	FastestAgency       *FastestAgency `json:"fastestAgency"`
	StatusDistribution  StatusCounts   `json:"statusDistribution"`
}

// RateSnapshot is a normal rate for one period. NormalRate is null when the
// period has no data, which is distinct from a 0% rate.
type RateSnapshot struct {
	NormalRate null.Float `json:"normalRate"`
	Display    string     `json:"display"`
}

// AgencyStat compares an agency's current normal rate with past periods
type AgencyStat struct {
	AgencyID string       `json:"agencyId"`
	Name     string       `json:"name"`
	URL      string       `json:"url"`
	Current  RateSnapshot `json:"current"`
	Day1     RateSnapshot `json:"day1"`
	Week1    RateSnapshot `json:"week1"`
	Month1   RateSnapshot `json:"month1"`
	Average  null.Float   `json:"average"`
	Trend    null.Float   `json:"trend"`
}

// HistoryPoint is the sum of all agencies' counts for one hour
type HistoryPoint struct {
	Timestamp string       `json:"timestamp"`
	Overall   StatusCounts `json:"overall"`
}

// TrendPoint is one slot of the 7-hour trend. Date is empty unless the
// slot starts a new day in the sequence.
type TrendPoint struct {
	Hour       int       `json:"hour"`
	Date       string    `json:"date"`
	NormalRate float64   `json:"normalRate"`
	Timestamp  time.Time `json:"timestamp"`
}

// AgencyHistoryPoint is one hour of one agency's history
type AgencyHistoryPoint struct {
	Timestamp  string       `json:"timestamp"`
	NormalRate float64      `json:"normalRate"`
	Stats      StatusCounts `json:"stats"`
}

// AgencyHistory is the hourly series of one agency
type AgencyHistory struct {
	AgencyID string               `json:"agencyId"`
	History  []AgencyHistoryPoint `json:"history"`
}

// ServiceAgency is the agency block embedded in a Service
type ServiceAgency struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	URL          string `json:"url"`
	MainCategory string `json:"mainCategory"`
	SubCategory  string `json:"subCategory"`
}

// Service is the per-agency website entry of the latest hour
type Service struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	URL          string        `json:"url"`
	Status       Status        `json:"status"`
	ResponseTime *float64      `json:"responseTime"`
	Agency       ServiceAgency `json:"agency"`
	LastChecked  time.Time     `json:"lastChecked"`
	Tags         []string      `json:"tags"`
}

// Stats is the light summary served by /api/stats
type Stats struct {
	TotalServices       int       `json:"totalServices"`
	NormalServices      int       `json:"normalServices"`
	MaintenanceServices int       `json:"maintenanceServices"`
	ProblemServices     int       `json:"problemServices"`
	TotalAgencies       int       `json:"totalAgencies"`
	LastUpdated         time.Time `json:"lastUpdated"`
}
