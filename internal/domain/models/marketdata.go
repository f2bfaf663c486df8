package models

import "time"

// CDRate is a certificate-of-deposit offer.
type CDRate struct {
	Term        string
	Rate        float64
	Institution string
	LastUpdated time.Time
}

// TreasuryYield is a treasury yield by maturity.
type TreasuryYield struct {
	Maturity    string
	Yield       float64
	LastUpdated time.Time
}

// MortgageRate is a mortgage rate by loan type.
type MortgageRate struct {
	Type        string
	Rate        float64
	LastUpdated time.Time
}

// LiveMarketData is one snapshot of premium-only live rate data.
// Categories may be empty when a provider does not carry them; a snapshot is
// either fully resolved by the adapter or not returned at all.
type LiveMarketData struct {
	CDRates        []CDRate
	TreasuryYields []TreasuryYield
	MortgageRates  []MortgageRate
}
