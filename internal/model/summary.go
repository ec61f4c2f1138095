package model

// MonthlySummary is the aggregated view of one calendar month, computed from
// the log store on demand. It is read-only derived data.
type MonthlySummary struct {
	Month              string               `json:"month"` // YYYY-MM
	TotalPageViews     int64                `json:"total_pv"`
	TotalPoints        int64                `json:"total_points"`
	UniqueVisitors     int                  `json:"unique_visitors"`
	VisitorIDs         []string             `json:"visitor_ids"` // sorted
	MonthlyActiveCount int                  `json:"monthly_active_count"`
	DailyRollups       []DailyFeatureRollup `json:"daily_rollups"`
	UserRollups        []UserDayRollup      `json:"user_rollups"`
}

// DailyFeatureRollup sums one (date, feature) cell. Dates with no activity are
// present with zero values so chart axes stay continuous.
type DailyFeatureRollup struct {
	Date        string      `json:"date"`
	Feature     FeatureKind `json:"feature"`
	PageViews   int64       `json:"pv"`
	Points      int64       `json:"points"`
	ActiveUsers int         `json:"active_users"`
}

// UserDayRollup is the audit drill-down for one (date, user) pair with any
// activity, carrying the full per-feature breakdown plus pair totals.
type UserDayRollup struct {
	Date      string          `json:"date"`
	UserID    string          `json:"user_id"`
	Features  UserDailyRecord `json:"features"`
	PageViews int64           `json:"pv"`
	Points    int64           `json:"points"`
}
