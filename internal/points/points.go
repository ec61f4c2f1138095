// Package points maps feature kinds to the point cost charged per completed
// generation. Costs are product configuration, not invariants.
package points

import "github.com/yijiawu/genstudio/internal/model"

// Costs holds the per-feature point cost of one completed generation.
type Costs struct {
	Text  int64 `yaml:"text" json:"text"`
	Image int64 `yaml:"image" json:"image"`
	Video int64 `yaml:"video" json:"video"`
}

// Defaults returns the shipped cost table.
func Defaults() Costs {
	return Costs{
		Text:  500,
		Image: 2500,
		Video: 5000,
	}
}

// For returns the cost for a feature. Unknown kinds cost nothing.
func (c Costs) For(feature model.FeatureKind) int64 {
	switch feature {
	case model.FeatureText:
		return c.Text
	case model.FeatureImage:
		return c.Image
	case model.FeatureVideo:
		return c.Video
	}
	return 0
}

// Merge overlays any positive values from override onto c.
func (c Costs) Merge(override Costs) Costs {
	if override.Text > 0 {
		c.Text = override.Text
	}
	if override.Image > 0 {
		c.Image = override.Image
	}
	if override.Video > 0 {
		c.Video = override.Video
	}
	return c
}
