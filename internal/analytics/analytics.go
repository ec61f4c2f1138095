// Package analytics derives monthly overview and audit views from the usage
// log. It holds no state: Summarize is a pure function of the log contents,
// the month key, and the reference time.
package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/yijiawu/genstudio/internal/model"
)

// activeDayThreshold is the MAU cutoff: a user counts as monthly-active when
// their number of distinct active days strictly exceeds it.
const activeDayThreshold = 9

// Options adjust how a month is summarized.
type Options struct {
	// Now anchors the back-fill range when the selected month is the current
	// one; zero means time.Now(). Dates are resolved in Now's location.
	Now time.Time
}

// Summarize aggregates every day of the given month ("YYYY-MM") into a
// MonthlySummary. A month with no recorded activity yields zero totals and
// zero-filled daily rollups, not an error.
func Summarize(store *model.LogStore, monthKey string, opts Options) (*model.MonthlySummary, error) {
	month, err := time.Parse("2006-01", monthKey)
	if err != nil {
		return nil, fmt.Errorf("%w: month key %q", model.ErrInvalidArgument, monthKey)
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	// Back-fill covers the full calendar month, capped at today when the
	// selected month is the current one. No future dates.
	lastDay := daysIn(month.Year(), month.Month())
	if now.Format("2006-01") == monthKey && now.Day() < lastDay {
		lastDay = now.Day()
	}

	summary := &model.MonthlySummary{Month: monthKey}

	visitors := make(map[string]bool)
	activeDays := make(map[string]int) // userID -> distinct active days

	type cell struct {
		pageViews int64
		points    int64
		users     map[string]bool
	}
	cells := make(map[string]*[model.FeatureCount]cell) // date -> per-feature sums

	for _, day := range store.All() {
		if len(day.Date) < 7 || day.Date[:7] != monthKey {
			continue
		}

		dayCells, ok := cells[day.Date]
		if !ok {
			dayCells = &[model.FeatureCount]cell{}
			for f := range dayCells {
				dayCells[f].users = make(map[string]bool)
			}
			cells[day.Date] = dayCells
		}

		for userID, rec := range day.Users {
			visitors[userID] = true
			if rec.Active() {
				activeDays[userID]++
			}

			pv, points := rec.Totals()
			summary.TotalPageViews += pv
			summary.TotalPoints += points

			for f, counter := range rec {
				dayCells[f].pageViews += counter.PageViews
				dayCells[f].points += counter.Points
				if !counter.IsZero() {
					dayCells[f].users[userID] = true
				}
			}

			if pv > 0 || points > 0 {
				summary.UserRollups = append(summary.UserRollups, model.UserDayRollup{
					Date:      day.Date,
					UserID:    userID,
					Features:  *rec,
					PageViews: pv,
					Points:    points,
				})
			}
		}
	}

	summary.UniqueVisitors = len(visitors)
	summary.VisitorIDs = make([]string, 0, len(visitors))
	for id := range visitors {
		summary.VisitorIDs = append(summary.VisitorIDs, id)
	}
	sort.Strings(summary.VisitorIDs)

	for _, days := range activeDays {
		if days > activeDayThreshold {
			summary.MonthlyActiveCount++
		}
	}

	for dayNum := 1; dayNum <= lastDay; dayNum++ {
		date := fmt.Sprintf("%s-%02d", monthKey, dayNum)
		dayCells := cells[date]
		for _, f := range model.Features() {
			rollup := model.DailyFeatureRollup{Date: date, Feature: f}
			if dayCells != nil {
				rollup.PageViews = dayCells[f].pageViews
				rollup.Points = dayCells[f].points
				rollup.ActiveUsers = len(dayCells[f].users)
			}
			summary.DailyRollups = append(summary.DailyRollups, rollup)
		}
	}

	sort.Slice(summary.UserRollups, func(i, j int) bool {
		a, b := summary.UserRollups[i], summary.UserRollups[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return a.UserID < b.UserID
	})

	return summary, nil
}

// daysIn returns the number of days in the given month.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
