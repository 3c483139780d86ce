package models

import "time"

// HoldingTerm classifies a matched sale for tax purposes.
type HoldingTerm string

const (
	TermShort HoldingTerm = "SHORT"
	TermLong  HoldingTerm = "LONG"
)

// TaxEvent is one FIFO match between a sale and a purchase lot.
// A sale that drains several lots produces several events.
type TaxEvent struct {
	Symbol     string      `json:"symbol"`
	Quantity   float64     `json:"qty"`
	Proceeds   float64     `json:"proceeds"`
	CostBasis  float64     `json:"cost_basis"`
	Gain       float64     `json:"gain"`
	Term       HoldingTerm `json:"term"`
	HeldDays   int         `json:"held_days"`
	AcquiredAt time.Time   `json:"acquired_at"`
	SoldAt     time.Time   `json:"sold_at"`
}

// Date returns the sale date formatted as YYYY-MM-DD.
func (e TaxEvent) Date() string {
	return e.SoldAt.Format("2006-01-02")
}

// TaxYearSummary holds realized gains for one calendar year of sales.
type TaxYearSummary struct {
	Year          int     `json:"year"`
	ShortTermGain float64 `json:"short_term_gain"`
	LongTermGain  float64 `json:"long_term_gain"`
	EstimatedTax  float64 `json:"estimated_tax"`
}

// TaxReport is the result of replaying a ledger through the FIFO engine.
type TaxReport struct {
	RealizedPnL   float64          `json:"realized_pnl"`
	ShortTermGain float64          `json:"short_term_gain"`
	LongTermGain  float64          `json:"long_term_gain"`
	EstimatedTax  float64          `json:"estimated_tax"`
	Years         []TaxYearSummary `json:"years"`
	Events        []TaxEvent       `json:"events"`
}
