package services

import (
	"context"
	"errors"

	"github.com/kathytingcheng-oss/crypto-quant-os/src/models"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = models.ErrNotFound
)

// PriceLookup is the read side of the price cache.
type PriceLookup interface {
	GetPrice(ctx context.Context, symbol string) float64
}

// HoldingsStore persists the (user, symbol) keyed positions.
type HoldingsStore interface {
	GetHoldings(ctx context.Context, userID string) ([]models.Holding, error)
	// UpsertHolding deletes the row when Amount is zero.
	UpsertHolding(ctx context.Context, h models.Holding) error
	DeleteHolding(ctx context.Context, userID, symbol string) error
	ResetHoldings(ctx context.Context, userID string) error
	// UpdateAvgCost reports false when the user holds no such symbol.
	UpdateAvgCost(ctx context.Context, userID, symbol string, avgCost float64) (bool, error)
}

// LedgerStore is the append-only transaction ledger.
type LedgerStore interface {
	InsertTransaction(ctx context.Context, tx models.Transaction) (int64, error)
	// UpsertTransaction ignores rows whose (user, exchange, trade id) already
	// exists and reports whether tx was inserted.
	UpsertTransaction(ctx context.Context, tx models.Transaction) (bool, error)
	ListTransactions(ctx context.Context, userID string) ([]models.Transaction, error)
	ListBuys(ctx context.Context, userID, symbol string) ([]models.Transaction, error)
	DeleteTransaction(ctx context.Context, userID string, id int64) error
	ClearTransactions(ctx context.Context, userID string) (int64, error)
}

// SettingsStore holds per-user preferences.
type SettingsStore interface {
	// GetNetWorthGoal reports false when the user never stored a goal.
	GetNetWorthGoal(ctx context.Context, userID string) (float64, bool, error)
	UpsertNetWorthGoal(ctx context.Context, userID string, goal float64) error
}

var _ PriceLookup = (*PriceCache)(nil)
