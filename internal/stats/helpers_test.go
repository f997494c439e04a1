package stats

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ruby-kim/gov-status/models"
)

var kst = time.FixedZone("KST", 9*3600)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func counts(total, normal, maintenance, problem int) models.StatusCounts {
	return models.StatusCounts{Total: total, Normal: normal, Maintenance: maintenance, Problem: problem}
}

func ms(v float64) *float64 {
	return &v
}
