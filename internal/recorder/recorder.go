// Package recorder appends usage events to the log store. Every event is a
// full read-modify-write of the log document: either the increment and the
// save both land, or the prior persisted state stays authoritative.
package recorder

import (
	"fmt"
	"time"

	"github.com/yijiawu/genstudio/internal/logstore"
	"github.com/yijiawu/genstudio/internal/model"
)

// Metric names the counter an event increments.
type Metric int

const (
	MetricPageView Metric = iota
	MetricPoints

	metricCount = 2
)

var metricNames = [metricCount]string{"pageView", "points"}

func (m Metric) String() string {
	if m < 0 || m >= metricCount {
		return fmt.Sprintf("Metric(%d)", int(m))
	}
	return metricNames[m]
}

// ParseMetric converts a metric name ("pageView", "points") to its Metric.
func ParseMetric(name string) (Metric, error) {
	for i, n := range metricNames {
		if n == name {
			return Metric(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown metric %q", model.ErrInvalidArgument, name)
}

// Recorder records events for one stable user identifier.
type Recorder struct {
	store  *logstore.Store
	userID string
	now    func() time.Time
}

// New returns a recorder writing through store on behalf of userID.
func New(store *logstore.Store, userID string) *Recorder {
	return &Recorder{store: store, userID: userID, now: time.Now}
}

// UserID returns the identifier events are attributed to.
func (r *Recorder) UserID() string {
	return r.userID
}

// Record adds amount to the named metric for feature on today's counter for
// the recorder's user, creating the day and user records as needed, then
// persists the full log. amount must be non-negative; validation happens
// before any state is touched.
func (r *Recorder) Record(feature model.FeatureKind, metric Metric, amount int64) error {
	if !feature.Valid() {
		return fmt.Errorf("%w: feature kind %d", model.ErrInvalidArgument, int(feature))
	}
	if metric < 0 || metric >= metricCount {
		return fmt.Errorf("%w: metric %d", model.ErrInvalidArgument, int(metric))
	}
	if amount < 0 {
		return fmt.Errorf("%w: negative amount %d", model.ErrInvalidArgument, amount)
	}

	store, err := r.store.LoadAll()
	if err != nil {
		return err
	}

	today := r.now().Format("2006-01-02")
	counter := store.Day(today).User(r.userID).Counter(feature)
	switch metric {
	case MetricPageView:
		counter.PageViews += amount
	case MetricPoints:
		counter.Points += amount
	}

	return r.store.SaveAll(store)
}

// RecordPageView records one page view of feature.
func (r *Recorder) RecordPageView(feature model.FeatureKind) error {
	return r.Record(feature, MetricPageView, 1)
}

// RecordPoints records a completed generation that consumed cost points.
func (r *Recorder) RecordPoints(feature model.FeatureKind, cost int64) error {
	return r.Record(feature, MetricPoints, cost)
}
