package queue

import (
	"github.com/meridian-social/aegis/moderation"
)

// Priority is the queue ordering class. Higher sorts first.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ParsePriority maps the wire name back to a Priority. The boolean is false
// for unknown names.
func ParsePriority(s string) (Priority, bool) {
	switch s {
	case "low":
		return PriorityLow, true
	case "medium":
		return PriorityMedium, true
	case "high":
		return PriorityHigh, true
	case "critical":
		return PriorityCritical, true
	}
	return PriorityLow, false
}

// PriorityFor computes an item's priority from its severity and how many
// times the content has been reported. Either axis alone can push the item
// up; the thresholds are ordered so the result is monotonic in both.
func PriorityFor(severity moderation.Severity, reportCount int, pol moderation.Policy) Priority {
	switch {
	case severity == moderation.SeverityCritical || reportCount >= pol.CriticalReportCount:
		return PriorityCritical
	case severity == moderation.SeverityHigh || reportCount >= pol.HighReportCount:
		return PriorityHigh
	case severity == moderation.SeverityMedium || reportCount >= pol.MediumReportCount:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// Action is a moderator decision applied to a queue item.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionDelete  Action = "delete"
	ActionFlag    Action = "flag"
	ActionEdit    Action = "edit"
	ActionBan     Action = "ban"
	ActionWarn    Action = "warn"
)

// Terminal actions resolve the item and remove it from the queue.
func (a Action) Terminal() bool {
	return a == ActionApprove || a == ActionReject || a == ActionDelete
}

// Status maps the action onto the content's new moderation status. The
// boolean is false for unknown actions.
func (a Action) Status() (moderation.ModerationStatus, bool) {
	switch a {
	case ActionApprove:
		return moderation.StatusApproved, true
	case ActionReject, ActionDelete, ActionBan, ActionWarn:
		return moderation.StatusRejected, true
	case ActionFlag:
		return moderation.StatusFlagged, true
	case ActionEdit:
		return moderation.StatusUnderReview, true
	}
	return "", false
}
