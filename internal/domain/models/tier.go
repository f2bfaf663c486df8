package models

import "fmt"

// Tier represents a subscription level gating data access depth.
type Tier string

const (
	TierStarter  Tier = "starter"
	TierStandard Tier = "standard"
	TierPremium  Tier = "premium"
)

// AllTiers lists tiers in ascending order of access.
func AllTiers() []Tier {
	return []Tier{TierStarter, TierStandard, TierPremium}
}

// IsValidTier returns true if t is a supported tier.
func IsValidTier(t Tier) bool {
	switch t {
	case TierStarter, TierStandard, TierPremium:
		return true
	default:
		return false
	}
}

// ParseTier converts a raw string into a Tier. Invalid values are a
// programmer/caller error and fail fast.
func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	if !IsValidTier(t) {
		return "", fmt.Errorf("invalid tier %q", s)
	}
	return t, nil
}
