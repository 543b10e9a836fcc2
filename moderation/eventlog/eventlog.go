// Append-only audit log of moderation activity. Every moderator action,
// penalty, appeal decision, and report submission lands here; the history is
// never mutated or pruned by the core.
package eventlog

import (
	"context"
	"time"
)

// Event kinds written by the core.
const (
	KindQueueAction     = "queue_action"
	KindReportSubmitted = "report_submitted"
	KindReportFailed    = "report_submit_failed"
	KindReportReviewed  = "report_reviewed"
	KindPenaltyApplied  = "penalty_applied"
	KindPenaltyReversed = "penalty_reversed"
	KindAppealResolved  = "appeal_resolved"
)

type Event struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Kind      string    `gorm:"index" json:"kind"`
	Subject   string    `gorm:"index" json:"subject"`
	Actor     string    `json:"actor,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Store interface {
	Append(ctx context.Context, evt Event) error
	ListBySubject(ctx context.Context, subject string) ([]Event, error)
}
