package models

import "time"

// PriceBar is one daily close for a symbol. Series are sparse: weekends and
// holidays are simply absent, and consumers must not assume contiguous dates.
type PriceBar struct {
	Symbol   string    `json:"symbol"`
	Date     time.Time `json:"date"`
	Close    float64   `json:"close"`
	AdjClose float64   `json:"adj_close"`
	Volume   int64     `json:"volume"`
}

// FrontierInputs are the mean-variance optimiser inputs over a symbol
// universe: expected returns and covariance are annualised and aligned to
// Symbols order.
type FrontierInputs struct {
	Symbols         []string    `json:"symbols"`
	ExpectedReturns []float64   `json:"returns"`
	Covariance      [][]float64 `json:"covariance"`
	RiskFreeRate    float64     `json:"risk_free_rate"`
}
