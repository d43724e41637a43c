package domain

import (
	"time"
)

// IndexPoint represents one dated observation of one or more index levels
// in wide layout: one column per series, keyed by series name.
type IndexPoint struct {
	Date   time.Time          `json:"date"`
	Values map[string]float64 `json:"values"`
}

// Observation represents one long-layout row: a single (date, series, value)
// triple. WideToLong and LongToWide convert between the two layouts.
type Observation struct {
	Date   time.Time `json:"date"`
	Series string    `json:"series"`
	Value  float64   `json:"value"`
}

// CorrelationPoint represents one rolling-window correlation observation,
// dated at the window's trailing end.
type CorrelationPoint struct {
	Date        time.Time `json:"date"`
	Correlation float64   `json:"correlation"`
}

// TurnoverPoint represents the membership churn for one monthly snapshot:
// how many symbols joined and left relative to the previous month.
type TurnoverPoint struct {
	Month  time.Time `json:"month"`
	Joined int       `json:"joined"`
	Left   int       `json:"left"`
}
