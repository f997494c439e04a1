package stats

import (
	"fmt"
	"sort"

	"github.com/ruby-kim/gov-status/models"
)

// ServiceStatus derives a status from one hour's counts: any problem wins,
// then any maintenance, otherwise normal
func ServiceStatus(c models.StatusCounts) models.Status {
	switch {
	case c.Problem > 0:
		return models.StatusProblem
	case c.Maintenance > 0:
		return models.StatusMaintenance
	default:
		return models.StatusNormal
	}
}

// BuildServices turns the latest hour's rows into service entries. Rows
// whose agency has no metadata are dropped.
func BuildServices(rows []models.HourlyStat, latest *models.OverallStat, agencies map[string]models.Agency) []models.Service {
	responseTimes := make(map[string]*float64)
	if latest != nil {
		for _, a := range latest.Agencies {
			responseTimes[a.AgencyID] = a.ResponseTime
		}
	}

	services := make([]models.Service, 0, len(rows))
	for i, row := range rows {
		agency, ok := agencies[row.AgencyID]
		if !ok {
			continue
		}
		s := models.Service{
			ID:           fmt.Sprintf("%s-%d", row.AgencyID, i),
			Name:         agency.Name,
			URL:          agency.URL,
			Status:       ServiceStatus(row.Stats),
			ResponseTime: responseTimes[row.AgencyID],
			Agency: models.ServiceAgency{
				ID:           agency.AgencyID,
				Name:         agency.Name,
				URL:          agency.URL,
				MainCategory: agency.MainCategory,
				SubCategory:  agency.SubCategory,
			},
			Tags: agency.Tags,
		}
		if latest != nil {
			s.LastChecked = latest.Timestamp
		}
		if s.Tags == nil {
			s.Tags = []string{}
		}
		services = append(services, s)
	}

	sort.SliceStable(services, func(i, j int) bool { return services[i].Agency.ID < services[j].Agency.ID })
	return services
}
