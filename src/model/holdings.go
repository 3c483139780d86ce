package model

import (
	"context"
	"fmt"

	"github.com/kathytingcheng-oss/crypto-quant-os/src/models"
)

// GetHoldings returns the user's holdings ordered by symbol.
func (r *Repository) GetHoldings(ctx context.Context, userID string) ([]models.Holding, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT symbol, amount, avg_buy_price, updated_at FROM holdings WHERE user_id = ? ORDER BY symbol`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	holdings := []models.Holding{}
	for rows.Next() {
		h := models.Holding{UserID: userID}
		var updated string
		if err := rows.Scan(&h.Symbol, &h.Amount, &h.AvgCost, &updated); err != nil {
			return nil, err
		}
		if h.UpdatedAt, err = parseTimestamp(updated); err != nil {
			return nil, fmt.Errorf("invalid updated_at for holding %s: %w", h.Symbol, err)
		}
		holdings = append(holdings, h)
	}
	return holdings, rows.Err()
}

// UpsertHolding inserts or replaces the (user, symbol) row. A zero amount
// removes the holding.
func (r *Repository) UpsertHolding(ctx context.Context, h models.Holding) error {
	if h.Amount == 0 {
		_, err := r.db.ExecContext(ctx, `DELETE FROM holdings WHERE user_id = ? AND symbol = ?`, h.UserID, h.Symbol)
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO holdings (user_id, symbol, amount, avg_buy_price, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, symbol) DO UPDATE SET
			amount = excluded.amount,
			avg_buy_price = excluded.avg_buy_price,
			updated_at = excluded.updated_at`,
		h.UserID, h.Symbol, h.Amount, h.AvgCost, formatTimestamp(h.UpdatedAt))
	return err
}

func (r *Repository) DeleteHolding(ctx context.Context, userID, symbol string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM holdings WHERE user_id = ? AND symbol = ?`, userID, symbol)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("holding %s: %w", symbol, models.ErrNotFound)
	}
	return nil
}

func (r *Repository) ResetHoldings(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM holdings WHERE user_id = ?`, userID)
	return err
}

// UpdateAvgCost reports false when the user has no holding for symbol.
func (r *Repository) UpdateAvgCost(ctx context.Context, userID, symbol string, avgCost float64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE holdings SET avg_buy_price = ? WHERE user_id = ? AND symbol = ?`, avgCost, userID, symbol)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
