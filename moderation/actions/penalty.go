package actions

import (
	"time"
)

// PenaltyKind discriminates the penalty union.
type PenaltyKind string

const (
	PenaltyWarning           PenaltyKind = "warning"
	PenaltyTemporaryBan      PenaltyKind = "temporary-ban"
	PenaltyPermanentBan      PenaltyKind = "permanent-ban"
	PenaltyRestrictedPosting PenaltyKind = "restricted-posting"
	PenaltyShadowBan         PenaltyKind = "shadow-ban"
)

// PenaltyType is the "kind plus optional duration" shape: warnings and
// permanent bans carry no duration, everything else runs for Days days.
type PenaltyType struct {
	Kind PenaltyKind `json:"kind"`
	Days int         `json:"days,omitempty"`
}

func Warning() PenaltyType                 { return PenaltyType{Kind: PenaltyWarning} }
func TemporaryBan(days int) PenaltyType    { return PenaltyType{Kind: PenaltyTemporaryBan, Days: days} }
func PermanentBan() PenaltyType            { return PenaltyType{Kind: PenaltyPermanentBan} }
func RestrictedPosting(days int) PenaltyType {
	return PenaltyType{Kind: PenaltyRestrictedPosting, Days: days}
}
func ShadowBan(days int) PenaltyType { return PenaltyType{Kind: PenaltyShadowBan, Days: days} }

// ExpiresAt computes the expiry instant for a penalty issued now. Nil means
// the penalty never expires on its own.
func (pt PenaltyType) ExpiresAt(now time.Time) *time.Time {
	switch pt.Kind {
	case PenaltyWarning, PenaltyPermanentBan:
		return nil
	default:
		t := now.AddDate(0, 0, pt.Days)
		return &t
	}
}

// UserPenalty is one penalty applied to a user. IsActive flips to false on
// expiry, appeal approval, or admin reversal; the record itself is kept for
// audit.
type UserPenalty struct {
	ID          string      `json:"id"`
	UserID      string      `json:"userId"`
	Type        PenaltyType `json:"type"`
	Reason      string      `json:"reason"`
	ModeratorID string      `json:"moderatorId"`
	ContentID   string      `json:"contentId,omitempty"`
	IssuedAt    time.Time   `json:"issuedAt"`
	ExpiresAt   *time.Time  `json:"expiresAt,omitempty"`
	IsActive    bool        `json:"isActive"`
}

// Expired reports whether the penalty has lapsed as of now.
func (p *UserPenalty) Expired(now time.Time) bool {
	return p.ExpiresAt != nil && !now.Before(*p.ExpiresAt)
}
