package actions

import (
	"github.com/meridian-social/aegis/moderation/queue"
)

// Role gates which actions a moderator may apply.
type Role string

const (
	RoleStandard Role = "standard"
	RoleSenior   Role = "senior"
	RoleAdmin    Role = "admin"
)

type Moderator struct {
	ID            string  `json:"id"`
	Role          Role    `json:"role"`
	IsActive      bool    `json:"isActive"`
	TotalReviews  int     `json:"totalReviews"`
	AccuracyScore float64 `json:"accuracyScore"`
}

// elevated actions are reserved for senior moderators and admins
func actionNeedsSenior(a queue.Action) bool {
	return a == queue.ActionBan || a == queue.ActionDelete
}

// CanPerform checks the permission matrix for one action.
func (m *Moderator) CanPerform(a queue.Action) bool {
	if !m.IsActive {
		return false
	}
	if actionNeedsSenior(a) {
		return m.Role == RoleSenior || m.Role == RoleAdmin
	}
	return true
}
