package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ruby-kim/gov-status/internal/config"
	"github.com/ruby-kim/gov-status/internal/middleware"
	"github.com/ruby-kim/gov-status/internal/stats"
	"github.com/ruby-kim/gov-status/models"
	"github.com/ruby-kim/gov-status/repository"
)

// Query parameter bounds for ?days=
const (
	DefaultDays = 30
	MaxDays     = 90
)

// DataSourceHeader marks responses built from sample data
const DataSourceHeader = "X-Data-Source"

// StatusRepository defines the store reads the dashboard needs
type StatusRepository interface {
	GetLatestOverallStat(ctx context.Context) (*models.OverallStat, error)
	GetAgencies(ctx context.Context) ([]models.Agency, error)
	GetHourlyHours(ctx context.Context) ([]time.Time, error)
	GetHourlyStatsBetween(ctx context.Context, start, end time.Time) ([]models.HourlyStat, error)
}

// SampleRecorder is told whenever a response falls back to sample data
type SampleRecorder interface {
	SampleServed(endpoint string)
}

// DashboardOptions configures a DashboardHandler. Zero values get defaults.
type DashboardOptions struct {
	// Sample answers when the store cannot, on endpoints whose policy allows it
	Sample   StatusRepository
	Policies *PolicyStore
	Chooser  stats.Chooser
	Location *time.Location
	Timeout  time.Duration
	Now      func() time.Time
	Logger   logrus.FieldLogger
	Samples  SampleRecorder
}

// DashboardHandler handles HTTP requests for dashboard data
type DashboardHandler struct {
	repo     StatusRepository
	sample   StatusRepository
	policies *PolicyStore
	chooser  stats.Chooser
	loc      *time.Location
	timeout  time.Duration
	now      func() time.Time
	log      logrus.FieldLogger
	samples  SampleRecorder
}

// NewDashboardHandler creates a new handler with the given repository
func NewDashboardHandler(repo StatusRepository, opts DashboardOptions) *DashboardHandler {
	h := &DashboardHandler{
		repo:     repo,
		sample:   opts.Sample,
		policies: opts.Policies,
		chooser:  opts.Chooser,
		loc:      opts.Location,
		timeout:  opts.Timeout,
		now:      opts.Now,
		log:      opts.Logger,
		samples:  opts.Samples,
	}
	if h.policies == nil {
		h.policies = NewPolicyStore(nil)
	}
	if h.chooser == nil {
		h.chooser = stats.NewRandomChooser(uint64(time.Now().UnixNano()))
	}
	if h.loc == nil {
		h.loc = time.UTC
	}
	if h.timeout <= 0 {
		h.timeout = 5 * time.Second
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.log == nil {
		h.log = logrus.StandardLogger()
	}
	return h
}

// endpoint describes how one route reports failures
type endpoint struct {
	name     string
	failure  string
	notFound string
	// sampleOnEmpty also serves sample data when the store is empty
	sampleOnEmpty bool
}

type buildFunc func(ctx context.Context, repo StatusRepository) (interface{}, error)

// serve runs build against the store, falls back to sample data when the
// endpoint's policy allows it, and writes the response
func (h *DashboardHandler) serve(w http.ResponseWriter, r *http.Request, ep endpoint, build buildFunc) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	policy := h.policies.For(ep.name)
	log := h.log.WithFields(logrus.Fields{
		"endpoint":   ep.name,
		"request_id": middleware.RequestIDFromContext(r.Context()),
	})

	body, err := build(ctx, h.repo)
	if err != nil && h.useSample(ep, policy, err) {
		log.WithError(err).Warn("store unavailable, serving sample data")
		sampleCtx, cancelSample := context.WithTimeout(r.Context(), h.timeout)
		defer cancelSample()
		body, err = build(sampleCtx, h.sample)
		if err == nil {
			w.Header().Set(DataSourceHeader, "sample")
			if h.samples != nil {
				h.samples.SampleServed(ep.name)
			}
		}
	}

	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, ep.notFound, nil)
			return
		}
		log.WithError(err).Error(ep.failure)
		writeError(w, http.StatusInternalServerError, ep.failure, map[string]interface{}{
			"requestId": middleware.RequestIDFromContext(r.Context()),
		})
		return
	}

	setCachePolicy(w, policy)
	writeJSON(w, http.StatusOK, body)
}

func (h *DashboardHandler) useSample(ep endpoint, policy config.EndpointPolicy, err error) bool {
	if h.sample == nil || !policy.SampleFallback {
		return false
	}
	if errors.Is(err, repository.ErrNotFound) {
		return ep.sampleOnEmpty
	}
	return true
}

// parseDays reads ?days=, using DefaultDays for missing, malformed or
// non-positive values and capping at MaxDays
func parseDays(r *http.Request) int {
	days, err := strconv.Atoi(r.URL.Query().Get("days"))
	if err != nil || days <= 0 {
		return DefaultDays
	}
	if days > MaxDays {
		return MaxDays
	}
	return days
}

// GetOverview handles GET /api/overview
// Returns overall counts, best/fastest agency and warning count
func (h *DashboardHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, endpoint{
		name:     config.EndpointOverview,
		failure:  "Failed to fetch dashboard data",
		notFound: "No overall stats found",
	}, h.buildOverview)
}

func (h *DashboardHandler) buildOverview(ctx context.Context, repo StatusRepository) (interface{}, error) {
	var (
		latest   *models.OverallStat
		agencies []models.Agency
		hours    []time.Time
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		latest, err = repo.GetLatestOverallStat(gctx)
		return err
	})
	g.Go(func() (err error) {
		agencies, err = repo.GetAgencies(gctx)
		return err
	})
	g.Go(func() (err error) {
		hours, err = repo.GetHourlyHours(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var dayRows []models.HourlyStat
	if start, end, ok := stats.LatestDayWindow(hours, h.loc); ok {
		rows, err := repo.GetHourlyStatsBetween(ctx, start, end)
		if err != nil {
			return nil, err
		}
		dayRows = rows
	}

	return stats.BuildOverview(stats.OverviewInput{
		Latest:   latest,
		Agencies: agencies,
		DayRows:  dayRows,
	}, h.chooser), nil
}

// GetAgencyStats handles GET /api/agency-stats?days=N
// Returns per-agency current rate compared with 1, 7 and 30 days ago
func (h *DashboardHandler) GetAgencyStats(w http.ResponseWriter, r *http.Request) {
	days := parseDays(r)
	h.serve(w, r, endpoint{
		name:     config.EndpointAgencyStats,
		failure:  "Failed to fetch agency stats",
		notFound: "No agency stats found",
	}, func(ctx context.Context, repo StatusRepository) (interface{}, error) {
		return h.buildAgencyStats(ctx, repo, days)
	})
}

func (h *DashboardHandler) buildAgencyStats(ctx context.Context, repo StatusRepository, days int) (interface{}, error) {
	now := h.now()
	// Legacy rows are grouped by the date they were written with, which for
	// positive offsets is stored under the previous UTC day. Start one day
	// before the UTC midnight of the oldest compared date.
	oldest := now.Add(-time.Duration(days) * 24 * time.Hour).UTC()
	start := time.Date(oldest.Year(), oldest.Month(), oldest.Day(), 0, 0, 0, 0, time.UTC).Add(-24 * time.Hour)
	end := now.UTC().Truncate(time.Hour).Add(time.Hour)

	var (
		agencies []models.Agency
		rows     []models.HourlyStat
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		agencies, err = repo.GetAgencies(gctx)
		return err
	})
	g.Go(func() (err error) {
		rows, err = repo.GetHourlyStatsBetween(gctx, start, end)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return stats.BuildAgencyStats(rows, agencies, now, h.log), nil
}

// recentRows loads the rows of the most recent days*24 hours
func recentRows(ctx context.Context, repo StatusRepository, days int) ([]models.HourlyStat, error) {
	hours, err := repo.GetHourlyHours(ctx)
	if err != nil {
		return nil, err
	}
	recent := stats.RecentHours(hours, days)
	if len(recent) == 0 {
		return nil, repository.ErrNotFound
	}
	return repo.GetHourlyStatsBetween(ctx, recent[0], recent[len(recent)-1].Add(time.Hour))
}

// GetHistory handles GET /api/history?days=N
// Returns hourly totals across all agencies, oldest first
func (h *DashboardHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	days := parseDays(r)
	h.serve(w, r, endpoint{
		name:     config.EndpointHistory,
		failure:  "Failed to fetch history data",
		notFound: "No hourly stats data found",
	}, func(ctx context.Context, repo StatusRepository) (interface{}, error) {
		rows, err := recentRows(ctx, repo, days)
		if err != nil {
			return nil, err
		}
		return stats.GroupHistory(rows, h.log), nil
	})
}

// GetAgencyHistory handles GET /api/agency-history?days=N
// Returns one hourly series per agency
func (h *DashboardHandler) GetAgencyHistory(w http.ResponseWriter, r *http.Request) {
	days := parseDays(r)
	h.serve(w, r, endpoint{
		name:     config.EndpointAgencyHistory,
		failure:  "Failed to fetch agency history data",
		notFound: "No hourly stats data found",
	}, func(ctx context.Context, repo StatusRepository) (interface{}, error) {
		rows, err := recentRows(ctx, repo, days)
		if err != nil {
			return nil, err
		}
		return stats.BuildAgencyHistory(rows, h.log), nil
	})
}

// GetTrend handles GET /api/trend
// Returns the normal rate of the last seven hours, always seven points
func (h *DashboardHandler) GetTrend(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, endpoint{
		name:     config.EndpointTrend,
		failure:  "Failed to fetch trend data",
		notFound: "No hourly stats data found",
	}, func(ctx context.Context, repo StatusRepository) (interface{}, error) {
		now := h.now()
		end := now.UTC().Truncate(time.Hour).Add(time.Hour)
		rows, err := repo.GetHourlyStatsBetween(ctx, end.Add(-(stats.TrendHours+1)*time.Hour), end)
		if err != nil {
			return nil, err
		}
		return stats.BuildHourlyTrend(stats.GroupHistory(rows, h.log), now, h.loc, h.log), nil
	})
}

// ServicesResponse is the JSON response for GET /api/services
type ServicesResponse struct {
	Services    []models.Service `json:"services"`
	Total       int              `json:"total"`
	LastUpdated time.Time        `json:"lastUpdated"`
}

// GetServices handles GET /api/services
// Returns one entry per agency for the latest hour
func (h *DashboardHandler) GetServices(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, endpoint{
		name:          config.EndpointServices,
		failure:       "Failed to fetch services",
		notFound:      "No services found",
		sampleOnEmpty: true,
	}, h.buildServices)
}

func (h *DashboardHandler) buildServices(ctx context.Context, repo StatusRepository) (interface{}, error) {
	var (
		latest   *models.OverallStat
		agencies []models.Agency
		hours    []time.Time
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		latest, err = repo.GetLatestOverallStat(gctx)
		return err
	})
	g.Go(func() (err error) {
		agencies, err = repo.GetAgencies(gctx)
		return err
	})
	g.Go(func() (err error) {
		hours, err = repo.GetHourlyHours(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	recent := stats.RecentHours(hours, 1)
	if len(recent) == 0 {
		return nil, repository.ErrNotFound
	}
	latestHour := recent[len(recent)-1]
	rows, err := repo.GetHourlyStatsBetween(ctx, latestHour, latestHour.Add(time.Hour))
	if err != nil {
		return nil, err
	}

	services := stats.BuildServices(rows, latest, stats.AgencyIndex(agencies))
	if len(services) == 0 {
		return nil, repository.ErrNotFound
	}
	return ServicesResponse{
		Services:    services,
		Total:       len(services),
		LastUpdated: latest.Timestamp,
	}, nil
}

// GetStats handles GET /api/stats
// Returns the service counts of the latest cycle
func (h *DashboardHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, endpoint{
		name:     config.EndpointStats,
		failure:  "Failed to fetch stats",
		notFound: "No overall stats found",
	}, func(ctx context.Context, repo StatusRepository) (interface{}, error) {
		var (
			latest   *models.OverallStat
			agencies []models.Agency
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			latest, err = repo.GetLatestOverallStat(gctx)
			return err
		})
		g.Go(func() (err error) {
			agencies, err = repo.GetAgencies(gctx)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return stats.BuildStats(latest, len(agencies)), nil
	})
}
