package models

import (
	"fmt"
	"time"
)

// Status is the health state a checker assigns to a website in one polling cycle
type Status string

const (
	StatusNormal      Status = "normal"
	StatusMaintenance Status = "maintenance"
	StatusProblem     Status = "problem"
)

// IsWarning reports whether the status counts toward warningAgencies
func (s Status) IsWarning() bool {
	return s == StatusMaintenance || s == StatusProblem
}

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	switch s {
	case StatusNormal, StatusMaintenance, StatusProblem:
		return true
	}
	return false
}

// StatusCounts holds per-status service counts. Total is trusted as stored.
type StatusCounts struct {
	Total       int `json:"total"`
	Normal      int `json:"normal"`
	Maintenance int `json:"maintenance"`
	Problem     int `json:"problem"`
}

// Add accumulates other into c
func (c *StatusCounts) Add(other StatusCounts) {
	c.Total += other.Total
	c.Normal += other.Normal
	c.Maintenance += other.Maintenance
	c.Problem += other.Problem
}

// Agency is the metadata of one government agency
type Agency struct {
	AgencyID     string   `json:"agencyId"`
	Name         string   `json:"name"`
	URL          string   `json:"url"`
	MainCategory string   `json:"mainCategory"`
	SubCategory  string   `json:"subCategory"`
	Tags         []string `json:"tags"`
}

// Validate checks that the agency can be stored
func (a Agency) Validate() error {
	if a.AgencyID == "" {
		return fmt.Errorf("agency id is required")
	}
	if a.Name == "" {
		return fmt.Errorf("agency %s: name is required", a.AgencyID)
	}
	return nil
}

// HourlyStat is one agency's status counts within one hour bucket.
// TimestampHour is kept exactly as the collector wrote it; Hour is the
// normalized UTC bucket start filled in by the store.
type HourlyStat struct {
	AgencyID      string       `json:"agencyId"`
	TimestampHour string       `json:"timestampHour"`
	Hour          time.Time    `json:"-"`
	Stats         StatusCounts `json:"stats"`
}

// AgencyStatus is one agency's state in the latest polling cycle
type AgencyStatus struct {
	AgencyID     string   `json:"agencyId"`
	Status       Status   `json:"status"`
	ResponseTime *float64 `json:"responseTime,omitempty"`
}

// OverallStat is the rollup of the most recent polling cycle
type OverallStat struct {
	SnapshotID string         `json:"snapshotId,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
	Overall    StatusCounts   `json:"overall"`
	Agencies   []AgencyStatus `json:"agencies"`
}

// Validate checks the cycle before it is persisted
func (o OverallStat) Validate() error {
	if o.Timestamp.IsZero() {
		return fmt.Errorf("overall stat timestamp is required")
	}
	for _, a := range o.Agencies {
		if a.AgencyID == "" {
			return fmt.Errorf("overall stat contains agency without id")
		}
		if !a.Status.Valid() {
			return fmt.Errorf("agency %s: unknown status %q", a.AgencyID, a.Status)
		}
	}
	return nil
}
