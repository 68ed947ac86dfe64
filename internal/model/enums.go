package model

// SessionStatus is the lifecycle state of a generation session.
// Transitions only move forward: pending -> generating -> completed | failed.
type SessionStatus string

const (
	SessionStatusPending    SessionStatus = "pending"
	SessionStatusGenerating SessionStatus = "generating"
	SessionStatusCompleted  SessionStatus = "completed"
	SessionStatusFailed     SessionStatus = "failed"
)

// IsTerminal reports whether a status is final for a pipeline run.
func (s SessionStatus) IsTerminal() bool {
	return s == SessionStatusCompleted || s == SessionStatusFailed
}

// Subscription tiers
type SubscriptionTier string

const (
	TierFree    SubscriptionTier = "free"
	TierPremium SubscriptionTier = "premium"
	TierExpert  SubscriptionTier = "expert"
)

// Subscription status as reported by the billing provider
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)
