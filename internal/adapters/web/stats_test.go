package web

import "testing"

func TestChartPeriod(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"", "week"},
		{"week", "week"},
		{"month", "month"},
		{"year", "year"},
	}
	for _, tt := range tests {
		if got := chartPeriod(tt.raw); got != tt.want {
			t.Errorf("chartPeriod(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestIntQuery(t *testing.T) {
	tests := []struct {
		raw      string
		fallback int
		want     int
	}{
		{"", 10, 10},
		{"25", 10, 25},
		{"abc", 10, 10},
		{"-3", 0, -3},
	}
	for _, tt := range tests {
		if got := intQuery(tt.raw, tt.fallback); got != tt.want {
			t.Errorf("intQuery(%q, %d) = %d, want %d", tt.raw, tt.fallback, got, tt.want)
		}
	}
}
