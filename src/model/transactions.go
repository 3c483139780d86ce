package model

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/kathytingcheng-oss/crypto-quant-os/src/models"
)

const transactionColumns = `id, user_id, exchange, trade_id, symbol, type, quantity, price, fee, timestamp`

func (r *Repository) InsertTransaction(ctx context.Context, tx models.Transaction) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (user_id, exchange, trade_id, symbol, type, quantity, price, fee, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.UserID, tx.Exchange, tx.TradeID, tx.Symbol, string(tx.Side), tx.Quantity, tx.Price, tx.Fee, formatTimestamp(tx.Timestamp))
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique constraint failed") {
			return 0, fmt.Errorf("trade %s/%s: %w", tx.Exchange, tx.TradeID, models.ErrDuplicate)
		}
		return 0, err
	}
	return res.LastInsertId()
}

// UpsertTransaction inserts tx unless the same exchange trade id is already
// recorded for the user.
func (r *Repository) UpsertTransaction(ctx context.Context, tx models.Transaction) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (user_id, exchange, trade_id, symbol, type, quantity, price, fee, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, exchange, trade_id) DO NOTHING`,
		tx.UserID, tx.Exchange, tx.TradeID, tx.Symbol, string(tx.Side), tx.Quantity, tx.Price, tx.Fee, formatTimestamp(tx.Timestamp))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ListTransactions returns the user's ledger in timestamp order, ties broken
// by insertion order.
func (r *Repository) ListTransactions(ctx context.Context, userID string) ([]models.Transaction, error) {
	return r.queryTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? ORDER BY timestamp, id`, userID)
}

func (r *Repository) ListBuys(ctx context.Context, userID, symbol string) ([]models.Transaction, error) {
	return r.queryTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? AND symbol = ? AND type = 'BUY' ORDER BY timestamp, id`,
		userID, symbol)
}

func (r *Repository) DeleteTransaction(ctx context.Context, userID string, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("transaction %d: %w", id, models.ErrNotFound)
	}
	return nil
}

func (r *Repository) ClearTransactions(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE user_id = ?`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *Repository) queryTransactions(ctx context.Context, query string, args ...any) ([]models.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txs := []models.Transaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func scanTransaction(rows *sql.Rows) (models.Transaction, error) {
	var tx models.Transaction
	var side, ts string
	if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Exchange, &tx.TradeID, &tx.Symbol, &side, &tx.Quantity, &tx.Price, &tx.Fee, &ts); err != nil {
		return tx, err
	}
	tx.Side = models.Side(side)
	t, err := parseTimestamp(ts)
	if err != nil {
		return tx, fmt.Errorf("invalid timestamp for transaction %d: %w", tx.ID, err)
	}
	tx.Timestamp = t
	return tx, nil
}
