package reporting

import (
	"time"

	"github.com/meridian-social/aegis/moderation"
)

// ReportStatus tracks a report through review. Dismissed is reached when the
// submitter withdraws the report before a moderator looks at it.
type ReportStatus string

const (
	ReportPending   ReportStatus = "pending"
	ReportReviewed  ReportStatus = "reviewed"
	ReportDismissed ReportStatus = "dismissed"
)

// Resolution records what a moderator concluded about a reviewed report.
type Resolution string

const (
	ResolutionActionTaken    Resolution = "action-taken"
	ResolutionNoActionNeeded Resolution = "no-action-needed"
	ResolutionFalseReport    Resolution = "false-report"
	ResolutionDuplicate      Resolution = "duplicate"
)

// Report is one user's complaint about a piece of content. Immutable after
// submission except for the review fields, which are set exactly once.
type Report struct {
	ID                string                 `json:"id"`
	ContentID         string                 `json:"contentId"`
	ContentType       moderation.ContentType `json:"contentType"`
	ReporterID        string                 `json:"reporterId,omitempty"`
	Reason            Reason                 `json:"reason"`
	AdditionalDetails string                 `json:"additionalDetails,omitempty"`
	Status            ReportStatus           `json:"status"`
	Resolution        Resolution             `json:"resolution,omitempty"`
	SubmittedAt       time.Time              `json:"submittedAt"`
	ReviewedAt        *time.Time             `json:"reviewedAt,omitempty"`
	ReviewedBy        string                 `json:"reviewedBy,omitempty"`
	IsAnonymous       bool                   `json:"isAnonymous"`
}
