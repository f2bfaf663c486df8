package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTier(t *testing.T) {
	for _, in := range []string{"starter", "standard", "premium"} {
		tier, err := ParseTier(in)
		require.NoError(t, err)
		assert.Equal(t, Tier(in), tier)
	}

	for _, in := range []string{"", "gold", "STARTER", "Premium "} {
		_, err := ParseTier(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestIsValidTier(t *testing.T) {
	assert.True(t, IsValidTier(TierStarter))
	assert.True(t, IsValidTier(TierStandard))
	assert.True(t, IsValidTier(TierPremium))
	assert.False(t, IsValidTier(Tier("enterprise")))
}

func TestServesTier(t *testing.T) {
	row := &MarketNewsContext{
		Tier:           TierStandard,
		AvailableTiers: []Tier{TierStandard, TierPremium},
	}
	assert.True(t, row.ServesTier(TierStandard))
	assert.True(t, row.ServesTier(TierPremium))
	assert.False(t, row.ServesTier(TierStarter))
}

func TestSearchOutcomeContext(t *testing.T) {
	sc := &SearchContext{Query: "rates"}

	assert.Nil(t, SearchOutcome{Status: SearchDenied}.Context())
	assert.Nil(t, SearchOutcome{Status: SearchUnavailable}.Context())
	// a stale Result on a non-OK outcome must stay hidden
	assert.Nil(t, SearchOutcome{Status: SearchDenied, Result: sc}.Context())
	assert.Equal(t, sc, SearchOutcome{Status: SearchOK, Result: sc}.Context())
}

func TestContextRowID(t *testing.T) {
	row := &MarketNewsContext{Tier: TierPremium, Origin: OriginManual}
	assert.Equal(t, "manual-premium", row.ID())
}
