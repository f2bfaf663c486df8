package models

import "time"

// IndicatorPoint is a single observed economic data point.
type IndicatorPoint struct {
	Value           float64
	ObservationDate string
	Source          string
	LastUpdated     time.Time
}

// EconomicIndicators is one immutable snapshot of headline economic series.
// CPIYoY is a year-over-year percentage; CPIIndex is the raw index level.
// The two scales feed two independent threshold rule sets and must not be
// merged.
type EconomicIndicators struct {
	CPIYoY        IndicatorPoint
	CPIIndex      IndicatorPoint
	FedRate       IndicatorPoint
	MortgageRate  IndicatorPoint
	CreditCardAPR IndicatorPoint
}
