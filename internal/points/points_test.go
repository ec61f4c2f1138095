package points

import (
	"testing"

	"github.com/yijiawu/genstudio/internal/model"
)

func TestDefaults(t *testing.T) {
	costs := Defaults()

	tests := []struct {
		feature model.FeatureKind
		want    int64
	}{
		{model.FeatureText, 500},
		{model.FeatureImage, 2500},
		{model.FeatureVideo, 5000},
	}
	for _, tt := range tests {
		if got := costs.For(tt.feature); got != tt.want {
			t.Errorf("For(%s) = %d, want %d", tt.feature, got, tt.want)
		}
	}
}

func TestMerge(t *testing.T) {
	merged := Defaults().Merge(Costs{Image: 1000})

	if got := merged.For(model.FeatureImage); got != 1000 {
		t.Errorf("image cost = %d, want override 1000", got)
	}
	if got := merged.For(model.FeatureText); got != 500 {
		t.Errorf("text cost = %d, want default 500", got)
	}
	if got := merged.For(model.FeatureVideo); got != 5000 {
		t.Errorf("video cost = %d, want default 5000", got)
	}
}

func TestMergeIgnoresNonPositive(t *testing.T) {
	merged := Defaults().Merge(Costs{Text: -1, Image: 0})
	if merged != Defaults() {
		t.Errorf("non-positive overrides should be ignored, got %+v", merged)
	}
}
