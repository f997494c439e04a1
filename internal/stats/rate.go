package stats

import "github.com/ruby-kim/gov-status/models"

// NormalRate returns normal/total as a percentage, 0 when total is 0
func NormalRate(c models.StatusCounts) float64 {
	if c.Total <= 0 {
		return 0
	}
	return float64(c.Normal) / float64(c.Total) * 100
}
