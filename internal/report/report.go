// Package report aggregates stored error reports into the shapes the
// admin dashboard consumes: a per-tool leaderboard and day/user breakdowns.
// All functions are pure over slices the store already fetched.
package report

import (
	"sort"
	"time"

	"github.com/lumora-ai/alertsink/pkg/models"
)

const unclassified = "unclassified"

// ToolCount is one leaderboard row.
type ToolCount struct {
	Tool  string `json:"tool"`
	Count int    `json:"count"`
}

// DayCount is the number of errors ingested on one UTC day.
type DayCount struct {
	Day   string `json:"day"` // YYYY-MM-DD
	Count int    `json:"count"`
}

// UserCount is the number of errors attributed to one user email.
type UserCount struct {
	Email string `json:"email"`
	Count int    `json:"count"`
}

// Breakdown groups errors by day and by reporting user. DailyAverage is
// the mean of per-day counts after IQR outlier trimming, so a single
// incident spike does not distort the baseline.
type Breakdown struct {
	ByDay        []DayCount  `json:"by_day"`
	ByUser       []UserCount `json:"by_user"`
	DailyAverage float64     `json:"daily_average"`
}

// Leaderboard counts errors per tool, sorted by count descending with
// label as the tiebreak. An unclassified report falls back to its
// reported error type, then to a fixed label.
func Leaderboard(reports []*models.ErrorReport) []ToolCount {
	counts := make(map[string]int)
	for _, r := range reports {
		counts[toolLabel(r)]++
	}

	out := make([]ToolCount, 0, len(counts))
	for tool, count := range counts {
		out = append(out, ToolCount{Tool: tool, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tool < out[j].Tool
	})
	return out
}

// BuildBreakdown groups reports by ingestion day and by user email.
func BuildBreakdown(reports []*models.ErrorReport) Breakdown {
	byDay := make(map[string]int)
	byUser := make(map[string]int)
	for _, r := range reports {
		byDay[r.CreatedAt.UTC().Format(time.DateOnly)]++
		if r.UserEmail != nil {
			byUser[*r.UserEmail]++
		}
	}

	days := make([]DayCount, 0, len(byDay))
	for day, count := range byDay {
		days = append(days, DayCount{Day: day, Count: count})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Day < days[j].Day })

	users := make([]UserCount, 0, len(byUser))
	for email, count := range byUser {
		users = append(users, UserCount{Email: email, Count: count})
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].Count != users[j].Count {
			return users[i].Count > users[j].Count
		}
		return users[i].Email < users[j].Email
	})

	dailyCounts := make([]float64, 0, len(days))
	for _, d := range days {
		dailyCounts = append(dailyCounts, float64(d.Count))
	}

	return Breakdown{
		ByDay:        days,
		ByUser:       users,
		DailyAverage: TrimmedMean(dailyCounts),
	}
}

func toolLabel(r *models.ErrorReport) string {
	if r.ToolName != nil && *r.ToolName != "" {
		return *r.ToolName
	}
	if r.ErrorType != nil && *r.ErrorType != "" {
		return *r.ErrorType
	}
	return unclassified
}
