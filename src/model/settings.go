package model

import (
	"context"
	"database/sql"
	"errors"
)

func (r *Repository) GetNetWorthGoal(ctx context.Context, userID string) (float64, bool, error) {
	var goal float64
	err := r.db.QueryRowContext(ctx, `SELECT net_worth_goal FROM user_settings WHERE user_id = ?`, userID).Scan(&goal)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return goal, true, nil
}

func (r *Repository) UpsertNetWorthGoal(ctx context.Context, userID string, goal float64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_settings (user_id, net_worth_goal) VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET net_worth_goal = excluded.net_worth_goal`, userID, goal)
	return err
}
