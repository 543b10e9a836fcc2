package actions

import (
	"time"
)

// AppealStatus is the appeal state machine: pending -> approved | rejected,
// terminal and one-shot.
type AppealStatus string

const (
	AppealPending  AppealStatus = "pending"
	AppealApproved AppealStatus = "approved"
	AppealRejected AppealStatus = "rejected"
)

// Appeal is a user's request to reverse a moderation outcome. The referenced
// penalty is located transitively through (UserID, ContentID).
type Appeal struct {
	ID             string       `json:"id"`
	UserID         string       `json:"userId"`
	ContentID      string       `json:"contentId"`
	ActionID       string       `json:"actionId"`
	Status         AppealStatus `json:"status"`
	DecisionReason string       `json:"decisionReason,omitempty"`
	SubmittedAt    time.Time    `json:"submittedAt"`
	DecidedAt      *time.Time   `json:"decidedAt,omitempty"`
	DecidedBy      string       `json:"decidedBy,omitempty"`
}
