package model

import (
	"encoding/json"
	"fmt"
	"sort"
)

// FeatureKind identifies one of the product's generation modes.
type FeatureKind int

const (
	FeatureText FeatureKind = iota
	FeatureImage
	FeatureVideo

	// FeatureCount is the number of feature kinds; UserDailyRecord is sized by it.
	FeatureCount = 3
)

var featureNames = [FeatureCount]string{"text", "image", "video"}

// Features lists all feature kinds in declaration order.
func Features() [FeatureCount]FeatureKind {
	return [FeatureCount]FeatureKind{FeatureText, FeatureImage, FeatureVideo}
}

func (f FeatureKind) String() string {
	if !f.Valid() {
		return fmt.Sprintf("FeatureKind(%d)", int(f))
	}
	return featureNames[f]
}

// Valid reports whether f is one of the declared feature kinds.
func (f FeatureKind) Valid() bool {
	return f >= 0 && f < FeatureCount
}

// ParseFeature converts a feature name ("text", "image", "video") to its kind.
func ParseFeature(name string) (FeatureKind, error) {
	for i, n := range featureNames {
		if n == name {
			return FeatureKind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown feature %q", ErrInvalidArgument, name)
}

func (f FeatureKind) MarshalJSON() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: feature kind %d", ErrInvalidArgument, int(f))
	}
	return json.Marshal(f.String())
}

func (f *FeatureKind) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseFeature(name)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// UsageCounter is the accumulated activity for one user, one feature, one day.
// Counters only ever grow; a new day starts from the zero value.
type UsageCounter struct {
	PageViews int64 `json:"pv"`
	Points    int64 `json:"points"`
}

// IsZero reports whether the counter has seen no activity.
func (c UsageCounter) IsZero() bool {
	return c.PageViews == 0 && c.Points == 0
}

// UserDailyRecord holds one counter per feature kind for one user on one day.
// The array form guarantees every feature is present; the zero value is a fully
// populated record of zeroed counters.
type UserDailyRecord [FeatureCount]UsageCounter

// Counter returns the counter for the given feature.
func (r *UserDailyRecord) Counter(f FeatureKind) *UsageCounter {
	return &r[f]
}

// Active reports whether any counter on any feature is non-zero.
func (r *UserDailyRecord) Active() bool {
	for _, c := range r {
		if !c.IsZero() {
			return true
		}
	}
	return false
}

// Totals sums page views and points across all features.
func (r *UserDailyRecord) Totals() (pageViews, points int64) {
	for _, c := range r {
		pageViews += c.PageViews
		points += c.Points
	}
	return pageViews, points
}

func (r *UserDailyRecord) add(other *UserDailyRecord) {
	for i := range r {
		r[i].PageViews += other[i].PageViews
		r[i].Points += other[i].Points
	}
}

// MarshalJSON writes the record as an object keyed by feature name, the shape
// the log document has always used.
func (r UserDailyRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]UsageCounter, FeatureCount)
	for i, c := range r {
		out[featureNames[i]] = c
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts an object keyed by feature name. Missing features stay
// zeroed; unknown keys are ignored rather than rejected.
func (r *UserDailyRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]UsageCounter
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = UserDailyRecord{}
	for name, c := range raw {
		f, err := ParseFeature(name)
		if err != nil {
			continue
		}
		r[f] = c
	}
	return nil
}

// DayLog records all user activity for one calendar date.
type DayLog struct {
	Date  string                      `json:"date"`
	Users map[string]*UserDailyRecord `json:"users"`
}

// User returns the record for userID, creating a zeroed one on first use.
func (d *DayLog) User(userID string) *UserDailyRecord {
	if d.Users == nil {
		d.Users = make(map[string]*UserDailyRecord)
	}
	rec, ok := d.Users[userID]
	if !ok {
		rec = &UserDailyRecord{}
		d.Users[userID] = rec
	}
	return rec
}

// LogStore is the full collection of recorded days, at most one per date,
// kept sorted ascending by date.
type LogStore struct {
	days []*DayLog
}

// NewLogStore returns an empty store.
func NewLogStore() *LogStore {
	return &LogStore{}
}

// Len returns the number of recorded days.
func (s *LogStore) Len() int {
	return len(s.days)
}

// All returns the recorded days in ascending date order. The slice is shared;
// callers must not reorder it.
func (s *LogStore) All() []*DayLog {
	return s.days
}

// Find returns the DayLog for date, or nil if the date has no activity.
func (s *LogStore) Find(date string) *DayLog {
	i := sort.Search(len(s.days), func(i int) bool { return s.days[i].Date >= date })
	if i < len(s.days) && s.days[i].Date == date {
		return s.days[i]
	}
	return nil
}

// Day returns the DayLog for date, creating it in place on first use.
func (s *LogStore) Day(date string) *DayLog {
	i := sort.Search(len(s.days), func(i int) bool { return s.days[i].Date >= date })
	if i < len(s.days) && s.days[i].Date == date {
		return s.days[i]
	}
	day := &DayLog{Date: date, Users: make(map[string]*UserDailyRecord)}
	s.days = append(s.days, nil)
	copy(s.days[i+1:], s.days[i:])
	s.days[i] = day
	return day
}

// MarshalJSON writes the store as a date-sorted array of day logs, which keeps
// the persisted bytes deterministic for a given state.
func (s *LogStore) MarshalJSON() ([]byte, error) {
	if s.days == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.days)
}

// UnmarshalJSON reads an array of day logs. Days are re-sorted and duplicate
// dates are merged additively so the one-log-per-date invariant holds even for
// documents written by older builds.
func (s *LogStore) UnmarshalJSON(data []byte) error {
	var days []*DayLog
	if err := json.Unmarshal(data, &days); err != nil {
		return err
	}
	s.days = nil
	for _, day := range days {
		if day == nil || day.Date == "" {
			continue
		}
		dst := s.Day(day.Date)
		for userID, rec := range day.Users {
			dst.User(userID).add(rec)
		}
	}
	return nil
}
