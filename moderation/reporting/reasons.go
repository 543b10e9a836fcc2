package reporting

import (
	"github.com/meridian-social/aegis/moderation"
	"github.com/meridian-social/aegis/moderation/queue"
)

// Reason is the closed set of report reasons users can pick from.
type Reason string

const (
	ReasonHarassment           Reason = "harassment"
	ReasonSpam                 Reason = "spam"
	ReasonInappropriateContent Reason = "inappropriate-content"
	ReasonHateSpeech           Reason = "hate-speech"
	ReasonPersonalInformation  Reason = "personal-information"
	ReasonViolentContent       Reason = "violent-content"
	ReasonSexualContent        Reason = "sexual-content"
	ReasonMisinformation       Reason = "misinformation"
	ReasonCopyrightViolation   Reason = "copyright-violation"
	ReasonImpersonation        Reason = "impersonation"
	ReasonOther                Reason = "other"
)

// reasonInfo fixes the routing priority, severity, and violation flag for
// each reason. The mapping is policy, not user input.
type reasonInfo struct {
	Priority queue.Priority
	Severity moderation.Severity
	Flag     moderation.ViolationFlag
}

var reasonTable = map[Reason]reasonInfo{
	ReasonHateSpeech:           {queue.PriorityCritical, moderation.SeverityCritical, moderation.FlagHateSpeech},
	ReasonViolentContent:       {queue.PriorityCritical, moderation.SeverityCritical, moderation.FlagViolentContent},
	ReasonHarassment:           {queue.PriorityHigh, moderation.SeverityHigh, moderation.FlagHarassment},
	ReasonPersonalInformation:  {queue.PriorityHigh, moderation.SeverityHigh, moderation.FlagPersonalInformation},
	ReasonSexualContent:        {queue.PriorityHigh, moderation.SeverityHigh, moderation.FlagSexualContent},
	ReasonImpersonation:        {queue.PriorityHigh, moderation.SeverityHigh, moderation.FlagOther},
	ReasonInappropriateContent: {queue.PriorityMedium, moderation.SeverityMedium, moderation.FlagInappropriateContent},
	ReasonMisinformation:       {queue.PriorityMedium, moderation.SeverityMedium, moderation.FlagMisinformation},
	ReasonCopyrightViolation:   {queue.PriorityMedium, moderation.SeverityMedium, moderation.FlagCopyrightViolation},
	ReasonSpam:                 {queue.PriorityLow, moderation.SeverityLow, moderation.FlagSpam},
	ReasonOther:                {queue.PriorityLow, moderation.SeverityLow, moderation.FlagOther},
}

// ValidReason reports whether the reason is part of the closed set.
func ValidReason(r Reason) bool {
	_, ok := reasonTable[r]
	return ok
}

// targeted reasons count toward the automatic author-restriction threshold
func targetedReason(r Reason) bool {
	return r == ReasonHarassment || r == ReasonHateSpeech
}
