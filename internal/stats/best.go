package stats

import (
	"math"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/ruby-kim/gov-status/models"
)

// NoDataName names the best agency when nothing can be ranked
const NoDataName = "no data"

// TieEpsilon is the tolerance bestAgencyTies uses when counting agencies
// level with the best rate. Selection itself uses exact equality.
const TieEpsilon = 0.01

// Chooser picks an index in [0, n) for n > 0
type Chooser interface {
	Choose(n int) int
}

// ChooserFunc adapts a function to Chooser
type ChooserFunc func(n int) int

func (f ChooserFunc) Choose(n int) int { return f(n) }

type randomChooser struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomChooser returns a uniform Chooser safe for concurrent use.
// The same seed yields the same sequence of picks.
func NewRandomChooser(seed uint64) Chooser {
	return &randomChooser{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (c *randomChooser) Choose(n int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rng.IntN(n)
}

// LatestDayWindow returns the calendar day, in loc, holding the most recent
// hour. ok is false when hours is empty.
func LatestDayWindow(hours []time.Time, loc *time.Location) (start, end time.Time, ok bool) {
	if len(hours) == 0 {
		return time.Time{}, time.Time{}, false
	}
	latest := hours[0]
	for _, h := range hours[1:] {
		if h.After(latest) {
			latest = h
		}
	}
	local := latest.In(loc)
	start = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1), true
}

type agencyRate struct {
	agencyID string
	rate     float64
}

// rankAgencies sums each agency's rows and orders them by rate, best first
func rankAgencies(rows []models.HourlyStat) []agencyRate {
	sums := make(map[string]*models.StatusCounts)
	for _, row := range rows {
		c, ok := sums[row.AgencyID]
		if !ok {
			c = &models.StatusCounts{}
			sums[row.AgencyID] = c
		}
		c.Add(row.Stats)
	}

	ranked := make([]agencyRate, 0, len(sums))
	for id, c := range sums {
		ranked = append(ranked, agencyRate{agencyID: id, rate: NormalRate(*c)})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].rate != ranked[j].rate {
			return ranked[i].rate > ranked[j].rate
		}
		return ranked[i].agencyID < ranked[j].agencyID
	})
	return ranked
}

// countNearBest counts ranked rates within epsilon of best
func countNearBest(ranked []agencyRate, best, epsilon float64) int {
	n := 0
	for _, r := range ranked {
		if math.Abs(r.rate-best) < epsilon {
			n++
		}
	}
	return n
}

// SelectBestAgency picks the agency with the highest normal rate over
// dayRows. Agencies tied exactly at the top are chosen between with c.
// When no ranked agency has metadata it falls back, in order, to a random
// agency reported normal in latest (rate 100), the top ranked agency id,
// and finally NoDataName with rate 0. The second result is the number of
// agencies within TieEpsilon of the chosen rate.
func SelectBestAgency(dayRows []models.HourlyStat, latest *models.OverallStat, agencies map[string]models.Agency, c Chooser) (*models.BestAgency, int) {
	ranked := rankAgencies(dayRows)

	known := make([]agencyRate, 0, len(ranked))
	for _, r := range ranked {
		if _, ok := agencies[r.agencyID]; ok {
			known = append(known, r)
		}
	}

	if len(known) > 0 {
		top := known[0].rate
		var tied []agencyRate
		for _, r := range known {
			if r.rate != top {
				break
			}
			tied = append(tied, r)
		}
		pick := tied[c.Choose(len(tied))]
		return newBestAgency(pick.agencyID, agencies[pick.agencyID].Name, pick.rate), countNearBest(known, top, TieEpsilon)
	}

	if latest != nil {
		var normal []string
		for _, a := range latest.Agencies {
			if a.Status != models.StatusNormal {
				continue
			}
			if _, ok := agencies[a.AgencyID]; ok {
				normal = append(normal, a.AgencyID)
			}
		}
		if len(normal) > 0 {
			id := normal[c.Choose(len(normal))]
			return newBestAgency(id, agencies[id].Name, 100), len(normal)
		}
	}

	if len(ranked) > 0 {
		top := ranked[0]
		return newBestAgency(top.agencyID, top.agencyID, top.rate), countNearBest(ranked, top.rate, TieEpsilon)
	}

	return newBestAgency("", NoDataName, 0), 0
}

func newBestAgency(id, name string, rate float64) *models.BestAgency {
	return &models.BestAgency{
		AgencyID: id,
		Name:     name,
		Rate:     round2(rate),
		Label:    FormatAgencyWithRate(name, rate),
	}
}
