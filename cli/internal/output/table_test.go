package output

import (
	"testing"

	"github.com/yijiawu/genstudio/internal/model"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{7, "7"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-2500, "-2,500"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGroupByDate(t *testing.T) {
	rollups := []model.DailyFeatureRollup{
		{Date: "2026-07-01", Feature: model.FeatureText},
		{Date: "2026-07-01", Feature: model.FeatureImage},
		{Date: "2026-07-01", Feature: model.FeatureVideo},
		{Date: "2026-07-02", Feature: model.FeatureText},
		{Date: "2026-07-02", Feature: model.FeatureImage},
		{Date: "2026-07-02", Feature: model.FeatureVideo},
	}

	groups := groupByDate(rollups)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].date != "2026-07-01" || len(groups[0].rollups) != 3 {
		t.Errorf("first group: %q with %d rollups", groups[0].date, len(groups[0].rollups))
	}
	if groups[1].date != "2026-07-02" || len(groups[1].rollups) != 3 {
		t.Errorf("second group: %q with %d rollups", groups[1].date, len(groups[1].rollups))
	}
}
