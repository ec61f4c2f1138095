package output

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/yijiawu/genstudio/internal/model"
)

const (
	compactThreshold = 90 // Terminal width below which compact mode kicks in
	defaultWidth     = 120
)

// TableOptions controls table display behavior
type TableOptions struct {
	ForceCompact bool
}

// shouldUseCompact determines if compact mode should be used
func shouldUseCompact(opts TableOptions) bool {
	if opts.ForceCompact {
		return true
	}
	return getTerminalWidth() < compactThreshold
}

// FormatNumber formats a number with thousand separators
func FormatNumber(n int64) string {
	if n == 0 {
		return "0"
	}

	str := fmt.Sprintf("%d", n)
	negative := n < 0
	if negative {
		str = str[1:]
	}

	result := ""
	for i, c := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result += ","
		}
		result += string(c)
	}

	if negative {
		return "-" + result
	}
	return result
}

// PrintJSON writes v to stdout as indented JSON.
func PrintJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
	}
}

// PrintOverview prints the monthly totals followed by the per-day
// per-feature table.
func PrintOverview(summary *model.MonthlySummary, opts TableOptions) {
	fmt.Println()
	fmt.Printf("Month:            %s\n", summary.Month)
	fmt.Printf("Page views:       %s\n", FormatNumber(summary.TotalPageViews))
	fmt.Printf("Points used:      %s\n", FormatNumber(summary.TotalPoints))
	fmt.Printf("Unique visitors:  %d\n", summary.UniqueVisitors)
	fmt.Printf("Monthly active:   %d\n", summary.MonthlyActiveCount)
	fmt.Println()

	if shouldUseCompact(opts) {
		printOverviewCompact(summary)
		return
	}

	// One row per date, feature columns side by side.
	fmt.Printf("%-10s  %18s  %18s  %18s  %7s\n",
		"Date", "Text pv/pts", "Image pv/pts", "Video pv/pts", "Users")
	fmt.Println(strings.Repeat("─", 10+2+18+2+18+2+18+2+7))

	for _, day := range groupByDate(summary.DailyRollups) {
		users := make(map[string]bool)
		cells := make([]string, 0, model.FeatureCount)
		for _, r := range day.rollups {
			cells = append(cells, fmt.Sprintf("%s / %s", FormatNumber(r.PageViews), FormatNumber(r.Points)))
		}
		for _, u := range summary.UserRollups {
			if u.Date == day.date {
				users[u.UserID] = true
			}
		}
		fmt.Printf("%-10s  %18s  %18s  %18s  %7d\n",
			day.date, cells[0], cells[1], cells[2], len(users))
	}
	fmt.Println()
}

func printOverviewCompact(summary *model.MonthlySummary) {
	fmt.Printf("%-10s  %10s  %12s\n", "Date", "PV", "Points")
	fmt.Println(strings.Repeat("─", 10+2+10+2+12))

	for _, day := range groupByDate(summary.DailyRollups) {
		var pv, pts int64
		for _, r := range day.rollups {
			pv += r.PageViews
			pts += r.Points
		}
		fmt.Printf("%-10s  %10s  %12s\n", day.date, FormatNumber(pv), FormatNumber(pts))
	}

	fmt.Println()
	fmt.Println("(Compact mode - expand terminal for per-feature view)")
}

// PrintAudit prints the per-user per-day drill-down.
func PrintAudit(summary *model.MonthlySummary, opts TableOptions) {
	if len(summary.UserRollups) == 0 {
		fmt.Println("No activity recorded for this month.")
		return
	}

	compact := shouldUseCompact(opts)

	userWidth := 10
	for _, u := range summary.UserRollups {
		if len(u.UserID) > userWidth {
			userWidth = len(u.UserID)
		}
	}
	if compact && userWidth > 14 {
		userWidth = 14
	}

	fmt.Println()
	if compact {
		fmt.Printf("%-10s  %-*s  %10s  %12s\n", "Date", userWidth, "User", "PV", "Points")
		fmt.Println(strings.Repeat("─", 10+2+userWidth+2+10+2+12))
		for _, u := range summary.UserRollups {
			id := u.UserID
			if len(id) > userWidth {
				id = id[:userWidth]
			}
			fmt.Printf("%-10s  %-*s  %10s  %12s\n",
				u.Date, userWidth, id, FormatNumber(u.PageViews), FormatNumber(u.Points))
		}
		fmt.Println()
		return
	}

	fmt.Printf("%-10s  %-*s  %16s  %16s  %16s  %10s  %12s\n",
		"Date", userWidth, "User", "Text pv/pts", "Image pv/pts", "Video pv/pts", "Total PV", "Total pts")
	fmt.Println(strings.Repeat("─", 10+2+userWidth+2+16+2+16+2+16+2+10+2+12))

	for _, u := range summary.UserRollups {
		cells := make([]string, 0, model.FeatureCount)
		for _, f := range model.Features() {
			c := u.Features.Counter(f)
			cells = append(cells, fmt.Sprintf("%s / %s", FormatNumber(c.PageViews), FormatNumber(c.Points)))
		}
		fmt.Printf("%-10s  %-*s  %16s  %16s  %16s  %10s  %12s\n",
			u.Date, userWidth, u.UserID, cells[0], cells[1], cells[2],
			FormatNumber(u.PageViews), FormatNumber(u.Points))
	}
	fmt.Println()
}

type dateGroup struct {
	date    string
	rollups []model.DailyFeatureRollup
}

// groupByDate folds the flat rollup list into per-date groups, relying on the
// aggregator's date-then-feature ordering.
func groupByDate(rollups []model.DailyFeatureRollup) []dateGroup {
	var groups []dateGroup
	for _, r := range rollups {
		if len(groups) == 0 || groups[len(groups)-1].date != r.Date {
			groups = append(groups, dateGroup{date: r.Date})
		}
		g := &groups[len(groups)-1]
		g.rollups = append(g.rollups, r)
	}
	return groups
}
