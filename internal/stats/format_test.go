package stats

import (
	"testing"

	"github.com/guregu/null/v5"
)

func TestFormatPercentage(t *testing.T) {
	tests := []struct {
		value    float64
		expected string
	}{
		{0, "0%"},
		{100, "100%"},
		{87, "87%"},
		{87.0, "87%"},
		{87.3, "87.3%"},
		{87.34, "87.3%"},
		{87.35001, "87.4%"},
		{50, "50%"},
		{66.666, "66.7%"},
		{99.96, "100%"},
		{0.04, "0%"},
	}

	for _, tc := range tests {
		got := FormatPercentage(tc.value)
		if got != tc.expected {
			t.Errorf("FormatPercentage(%v) = %q, expected %q", tc.value, got, tc.expected)
		}
	}
}

func TestFormatRate(t *testing.T) {
	if got := FormatRate(null.Float{}); got != "N/A" {
		t.Errorf("FormatRate(null) = %q, expected %q", got, "N/A")
	}
	if got := FormatRate(null.FloatFrom(0)); got != "0%" {
		t.Errorf("FormatRate(0) = %q, expected %q", got, "0%")
	}
}

func TestFormatAgencyWithRate(t *testing.T) {
	got := FormatAgencyWithRate("국세청", 95.56)
	if got != "국세청 (95.6%)" {
		t.Errorf("FormatAgencyWithRate = %q, expected %q", got, "국세청 (95.6%)")
	}
}
