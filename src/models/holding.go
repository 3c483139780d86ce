package models

import "time"

// Holding is a position as stored by the holdings store, keyed by (user, symbol).
type Holding struct {
	UserID    string    `json:"-"`
	Symbol    string    `json:"symbol"`
	Amount    float64   `json:"amount"`
	AvgCost   float64   `json:"avg_buy_price"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Where the price of a HoldingValue came from.
const (
	PriceFromMarket    = "market"
	PriceFromCostBasis = "cost_basis"
)

// HoldingValue is a Holding enriched with its current valuation.
type HoldingValue struct {
	Symbol       string  `json:"symbol"`
	Amount       float64 `json:"amount"`
	AvgCost      float64 `json:"avg_buy_price"`
	CurrentPrice float64 `json:"current_price"`
	PriceSource  string  `json:"price_source"`
	Value        float64 `json:"current_value"`
	PnL          float64 `json:"pnl"`
	PnLPercent   float64 `json:"pnl_percent"`
}

// PortfolioSummary aggregates a set of valued holdings.
type PortfolioSummary struct {
	Holdings        []HoldingValue `json:"holdings"`
	TotalValue      float64        `json:"total_value"`
	TotalCost       float64        `json:"total_cost"`
	TotalPnL        float64        `json:"total_pnl"`
	TotalPnLPercent float64        `json:"total_pnl_percent"`
	NetWorthGoal    float64        `json:"net_worth_goal"`
	GoalProgress    float64        `json:"goal_progress_percent"`
}
