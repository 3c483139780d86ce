package models

import (
	"fmt"
	"strings"
	"time"
)

// Side is the direction of a ledger row.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// ParseSide accepts buy/sell in any case.
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToUpper(strings.TrimSpace(s))) {
	case SideBuy:
		return SideBuy, nil
	case SideSell:
		return SideSell, nil
	}
	return "", fmt.Errorf("unknown transaction side %q", s)
}

// Transaction is one row of the append-only ledger.
type Transaction struct {
	ID        int64     `json:"id,omitempty"`
	UserID    string    `json:"-"`
	Exchange  string    `json:"exchange"`
	TradeID   string    `json:"trade_id"`
	Symbol    string    `json:"symbol"`
	Side      Side      `json:"type"`
	Quantity  float64   `json:"quantity"`
	Price     float64   `json:"price"` // unit price
	Fee       float64   `json:"fee"`
	Timestamp time.Time `json:"timestamp"`
}
