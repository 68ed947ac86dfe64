package model

import "time"

// User is the account record billing state is synced onto.
type User struct {
	ID                    string             `json:"id"`
	Email                 string             `json:"email"`
	SubscriptionTier      SubscriptionTier   `json:"subscriptionTier"`
	SubscriptionStatus    SubscriptionStatus `json:"subscriptionStatus,omitempty"`
	StripeCustomerID      string             `json:"stripeCustomerId,omitempty"`
	StripeSubscriptionID  string             `json:"stripeSubscriptionId,omitempty"`
	AnalysesUsedThisMonth int                `json:"analysesUsedThisMonth"`
	CreatedAt             time.Time          `json:"createdAt"`
	UpdatedAt             time.Time          `json:"updatedAt"`
}

// TierLimits caps usage per subscription tier. -1 means unlimited.
type TierLimits struct {
	AnalysesPerMonth int
	MaxIdeas         int
}

// LimitsForTier returns the usage caps for a tier. Unknown tiers get free limits.
func LimitsForTier(tier SubscriptionTier) TierLimits {
	switch tier {
	case TierPremium:
		return TierLimits{AnalysesPerMonth: 10, MaxIdeas: 20}
	case TierExpert:
		return TierLimits{AnalysesPerMonth: -1, MaxIdeas: -1}
	default:
		return TierLimits{AnalysesPerMonth: 1, MaxIdeas: 2}
	}
}
