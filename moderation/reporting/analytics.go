package reporting

import (
	"sort"
	"time"

	"github.com/meridian-social/aegis/moderation"
)

// TimeRange selects the rolling window analytics cover.
type TimeRange string

const (
	RangeDay     TimeRange = "day"
	RangeWeek    TimeRange = "week"
	RangeMonth   TimeRange = "month"
	RangeQuarter TimeRange = "quarter"
	RangeYear    TimeRange = "year"
)

// windows are rolling periods ending now, not calendar boundaries
func (r TimeRange) cutoff(now time.Time) (time.Time, bool) {
	switch r {
	case RangeDay:
		return now.Add(-24 * time.Hour), true
	case RangeWeek:
		return now.AddDate(0, 0, -7), true
	case RangeMonth:
		return now.AddDate(0, 0, -30), true
	case RangeQuarter:
		return now.AddDate(0, 0, -90), true
	case RangeYear:
		return now.AddDate(0, 0, -365), true
	}
	return time.Time{}, false
}

// ReportedContent is one entry of the most-reported leaderboard.
type ReportedContent struct {
	ContentID   string `json:"contentId"`
	ReportCount int    `json:"reportCount"`
}

// Analytics summarizes reporting activity inside one time range.
type Analytics struct {
	Range               TimeRange            `json:"range"`
	TotalReports        int                  `json:"totalReports"`
	ByReason            map[Reason]int       `json:"byReason"`
	ByStatus            map[ReportStatus]int `json:"byStatus"`
	ByResolution        map[Resolution]int   `json:"byResolution"`
	DistinctContent     int                  `json:"distinctContent"`
	DistinctReporters   int                  `json:"distinctReporters"`
	AnonymousRatio      float64              `json:"anonymousRatio"`
	TopReported         []ReportedContent    `json:"topReported"`
	FalseReportRate     float64              `json:"falseReportRate"`
	AverageResolveHours float64              `json:"averageResolveHours"`
}

// Analytics aggregates report activity over a rolling window. Dismissed
// reports are included in status counts but excluded from the leaderboard
// and rate calculations.
func (s *Service) Analytics(r TimeRange) (Analytics, error) {
	cutoff, ok := r.cutoff(s.Clock())
	if !ok {
		return Analytics{}, moderation.Validationf("unknown time range %q", r)
	}

	out := Analytics{
		Range:        r,
		ByReason:     make(map[Reason]int),
		ByStatus:     make(map[ReportStatus]int),
		ByResolution: make(map[Resolution]int),
	}
	perContent := make(map[string]int)
	reporters := make(map[string]bool)
	anonymous := 0
	resolved := 0
	falseCt := 0
	var resolveSum time.Duration

	s.mu.Lock()
	for _, rep := range s.reports {
		if rep.SubmittedAt.Before(cutoff) {
			continue
		}
		out.TotalReports++
		out.ByReason[rep.Reason]++
		out.ByStatus[rep.Status]++
		if rep.IsAnonymous {
			anonymous++
		} else {
			reporters[rep.ReporterID] = true
		}
		if rep.Status == ReportDismissed {
			continue
		}
		perContent[rep.ContentID]++
		if rep.Status == ReportReviewed {
			resolved++
			out.ByResolution[rep.Resolution]++
			if rep.Resolution == ResolutionFalseReport {
				falseCt++
			}
			if rep.ReviewedAt != nil {
				resolveSum += rep.ReviewedAt.Sub(rep.SubmittedAt)
			}
		}
	}
	s.mu.Unlock()

	out.DistinctContent = len(perContent)
	out.DistinctReporters = len(reporters)
	if out.TotalReports > 0 {
		out.AnonymousRatio = float64(anonymous) / float64(out.TotalReports)
	}
	if resolved > 0 {
		out.FalseReportRate = float64(falseCt) / float64(resolved)
		out.AverageResolveHours = resolveSum.Hours() / float64(resolved)
	}

	for id, n := range perContent {
		out.TopReported = append(out.TopReported, ReportedContent{ContentID: id, ReportCount: n})
	}
	sort.Slice(out.TopReported, func(i, j int) bool {
		if out.TopReported[i].ReportCount != out.TopReported[j].ReportCount {
			return out.TopReported[i].ReportCount > out.TopReported[j].ReportCount
		}
		return out.TopReported[i].ContentID < out.TopReported[j].ContentID
	})
	if len(out.TopReported) > 10 {
		out.TopReported = out.TopReported[:10]
	}
	return out, nil
}
