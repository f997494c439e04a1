package repository

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/ruby-kim/gov-status/internal/stats"
	"github.com/ruby-kim/gov-status/models"
)

// SampleDays is how far back the sample dataset reaches
const SampleDays = 30

var sampleAgencies = []models.Agency{
	{AgencyID: "mois", Name: "행정안전부", URL: "https://www.gov.kr", MainCategory: "중앙행정기관", SubCategory: "행정안전부", Tags: []string{"포털", "통합서비스", "민원"}},
	{AgencyID: "nts", Name: "국세청", URL: "https://hometax.go.kr", MainCategory: "중앙행정기관", SubCategory: "기획재정부", Tags: []string{"세금", "신고", "전자계산서"}},
	{AgencyID: "nhis", Name: "건강보험공단", URL: "https://www.nhis.or.kr", MainCategory: "중앙행정기관", SubCategory: "보건복지부", Tags: []string{"건강보험", "의료", "보험"}},
	{AgencyID: "nps", Name: "국민연금공단", URL: "https://www.nps.or.kr", MainCategory: "중앙행정기관", SubCategory: "보건복지부", Tags: []string{"연금", "노후", "보험"}},
	{AgencyID: "seoul", Name: "서울특별시", URL: "https://www.seoul.go.kr", MainCategory: "지방자치단체", SubCategory: "서울특별시", Tags: []string{"지방자치", "서울", "시정"}},
	{AgencyID: "gg", Name: "경기도", URL: "https://www.gg.go.kr", MainCategory: "지방자치단체", SubCategory: "경기도", Tags: []string{"지방자치", "경기", "도정"}},
	{AgencyID: "mpm", Name: "인사혁신처", URL: "https://www.mpm.go.kr", MainCategory: "중앙행정기관", SubCategory: "인사혁신처", Tags: []string{"인사", "공무원", "채용"}},
	{AgencyID: "ccourt", Name: "헌법재판소", URL: "https://www.ccourt.go.kr", MainCategory: "중앙행정기관", SubCategory: "헌법기관", Tags: []string{"헌법", "재판", "사법"}},
	{AgencyID: "busan", Name: "부산광역시", URL: "https://www.busan.go.kr", MainCategory: "지방자치단체", SubCategory: "부산광역시", Tags: []string{"지방자치", "부산", "시정"}},
	{AgencyID: "moe", Name: "교육부", URL: "https://www.moe.go.kr", MainCategory: "중앙행정기관", SubCategory: "교육부", Tags: []string{"교육", "학교", "정책"}},
}

// SampleRepository serves a generated dataset when no store can answer.
// Counts are derived from the seed and the hour, so the same hour always
// yields the same numbers and no state is shared between requests.
type SampleRepository struct {
	seed uint64
	now  func() time.Time
}

func NewSampleRepository(seed uint64, now func() time.Time) *SampleRepository {
	if now == nil {
		now = time.Now
	}
	return &SampleRepository{seed: seed, now: now}
}

func (r *SampleRepository) currentHour() time.Time {
	return r.now().UTC().Truncate(time.Hour)
}

func (r *SampleRepository) firstHour() time.Time {
	return r.currentHour().Add(-SampleDays * 24 * time.Hour)
}

func (r *SampleRepository) Ping(ctx context.Context) error {
	return nil
}

func (r *SampleRepository) GetAgencies(ctx context.Context) ([]models.Agency, error) {
	out := make([]models.Agency, len(sampleAgencies))
	copy(out, sampleAgencies)
	return out, nil
}

// sampleServices is the number of websites checked per agency
func sampleServices(idx int) int {
	return 2 + idx%4
}

// sampleHour generates one agency's checks for one hour. It also returns
// a response time for the agency, nil when the agency had a problem.
func (r *SampleRepository) sampleHour(idx int, hour time.Time) (models.StatusCounts, *float64) {
	rng := rand.New(rand.NewPCG(r.seed, uint64(hour.Unix())*31+uint64(idx)))

	var c models.StatusCounts
	for i := 0; i < sampleServices(idx); i++ {
		c.Total++
		switch p := rng.Float64(); {
		case p < 0.8:
			c.Normal++
		case p < 0.9:
			c.Maintenance++
		default:
			c.Problem++
		}
	}
	if c.Problem > 0 {
		return c, nil
	}
	rt := float64(50 + rng.IntN(200))
	return c, &rt
}

func (r *SampleRepository) GetLatestOverallStat(ctx context.Context) (*models.OverallStat, error) {
	hour := r.currentHour()
	stat := &models.OverallStat{
		SnapshotID: "sample",
		Timestamp:  hour,
		Agencies:   make([]models.AgencyStatus, 0, len(sampleAgencies)),
	}
	for i, a := range sampleAgencies {
		c, rt := r.sampleHour(i, hour)
		stat.Overall.Add(c)
		stat.Agencies = append(stat.Agencies, models.AgencyStatus{
			AgencyID:     a.AgencyID,
			Status:       stats.ServiceStatus(c),
			ResponseTime: rt,
		})
	}
	return stat, nil
}

func (r *SampleRepository) GetHourlyHours(ctx context.Context) ([]time.Time, error) {
	first, last := r.firstHour(), r.currentHour()
	hours := make([]time.Time, 0, SampleDays*24+1)
	for h := first; !h.After(last); h = h.Add(time.Hour) {
		hours = append(hours, h)
	}
	return hours, nil
}

func (r *SampleRepository) GetHourlyStatsBetween(ctx context.Context, start, end time.Time) ([]models.HourlyStat, error) {
	first, last := r.firstHour(), r.currentHour()
	h := start.UTC().Truncate(time.Hour)
	if h.Before(start) {
		h = h.Add(time.Hour)
	}
	if h.Before(first) {
		h = first
	}

	rows := make([]models.HourlyStat, 0)
	for ; h.Before(end) && !h.After(last); h = h.Add(time.Hour) {
		for i, a := range sampleAgencies {
			c, _ := r.sampleHour(i, h)
			rows = append(rows, models.HourlyStat{
				AgencyID:      a.AgencyID,
				TimestampHour: formatHour(h),
				Hour:          h,
				Stats:         c,
			})
		}
	}
	return rows, nil
}
