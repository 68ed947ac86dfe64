package model

import "testing"

func TestLimitsForTier(t *testing.T) {
	tests := []struct {
		tier     SubscriptionTier
		analyses int
		ideas    int
	}{
		{TierFree, 1, 2},
		{TierPremium, 10, 20},
		{TierExpert, -1, -1},
		{SubscriptionTier("unknown"), 1, 2},
	}

	for _, tt := range tests {
		limits := LimitsForTier(tt.tier)
		if limits.AnalysesPerMonth != tt.analyses {
			t.Errorf("tier %q: expected %d analyses, got %d", tt.tier, tt.analyses, limits.AnalysesPerMonth)
		}
		if limits.MaxIdeas != tt.ideas {
			t.Errorf("tier %q: expected %d ideas, got %d", tt.tier, tt.ideas, limits.MaxIdeas)
		}
	}
}

func TestSessionStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status   SessionStatus
		terminal bool
	}{
		{SessionStatusPending, false},
		{SessionStatusGenerating, false},
		{SessionStatusCompleted, true},
		{SessionStatusFailed, true},
	}

	for _, tt := range tests {
		if got := tt.status.IsTerminal(); got != tt.terminal {
			t.Errorf("status %q: expected IsTerminal %v, got %v", tt.status, tt.terminal, got)
		}
	}
}
