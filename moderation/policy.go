package moderation

// Policy collects the fixed business rules of the pipeline in one place, so
// deployments (and tests) can tune them instead of patching magic numbers.
type Policy struct {
	// Minimum classifier confidence required before an automatic action is
	// taken for content of a given severity. Strictly increases with
	// severity: being confident enough to auto-reject critical content is a
	// higher bar than auto-approving low severity content.
	AutoActionThresholds map[Severity]float64

	// Confidence assigned to results synthesized from user reports.
	ReportConfidence float64

	// Report counts at which a queue item's priority is raised.
	MediumReportCount   int
	HighReportCount     int
	CriticalReportCount int

	// Cumulative report counts that trigger automatic protective actions.
	HideReportCount         int
	CriticalEscalationCount int
	TargetedReportCount     int // harassment / hate-speech reports only
	TargetedRestrictDays    int

	// Reporting limits and abuse gating.
	DailyReportCap         int
	AbuseMinReports        int
	AbuseFalseRate         float64
	FalseReportStrikes     int
	FalseReportPenaltyDays int

	// Automatic penalty durations, in days.
	SevereViolationBanDays     int
	HighSeverityBanDays        int
	MediumSeverityRestrictDays int
}

// DefaultPolicy returns the production rule set.
func DefaultPolicy() Policy {
	return Policy{
		AutoActionThresholds: map[Severity]float64{
			SeverityLow:      0.70,
			SeverityMedium:   0.80,
			SeverityHigh:     0.90,
			SeverityCritical: 0.95,
		},
		ReportConfidence:           0.8,
		MediumReportCount:          1,
		HighReportCount:            3,
		CriticalReportCount:        5,
		HideReportCount:            5,
		CriticalEscalationCount:    10,
		TargetedReportCount:        3,
		TargetedRestrictDays:       7,
		DailyReportCap:             10,
		AbuseMinReports:            5,
		AbuseFalseRate:             0.5,
		FalseReportStrikes:         3,
		FalseReportPenaltyDays:     7,
		SevereViolationBanDays:     7,
		HighSeverityBanDays:        3,
		MediumSeverityRestrictDays: 1,
	}
}

// AutoActionThreshold returns the configured threshold for a severity,
// falling back to a bar nothing clears when unconfigured.
func (p Policy) AutoActionThreshold(s Severity) float64 {
	if t, ok := p.AutoActionThresholds[s]; ok {
		return t
	}
	return 1.01
}
