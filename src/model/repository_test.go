package model

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kathytingcheng-oss/crypto-quant-os/src/database"
	"github.com/kathytingcheng-oss/crypto-quant-os/src/models"
	"github.com/kathytingcheng-oss/crypto-quant-os/src/services"
)

var (
	_ services.HoldingsStore = (*Repository)(nil)
	_ services.LedgerStore   = (*Repository)(nil)
	_ services.SettingsStore = (*Repository)(nil)
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewRepository(db)
}

func TestHoldingsCRUD(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for _, h := range []models.Holding{
		{UserID: "u1", Symbol: "ETH", Amount: 2, AvgCost: 1500, UpdatedAt: now},
		{UserID: "u1", Symbol: "BTC", Amount: 0.5, AvgCost: 30000, UpdatedAt: now},
		{UserID: "u2", Symbol: "BTC", Amount: 9, AvgCost: 1, UpdatedAt: now},
	} {
		if err := repo.UpsertHolding(ctx, h); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}
	}

	holdings, err := repo.GetHoldings(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(holdings) != 2 || holdings[0].Symbol != "BTC" || holdings[1].Symbol != "ETH" {
		t.Fatalf("unexpected holdings %+v", holdings)
	}
	if !holdings[0].UpdatedAt.Equal(now) {
		t.Fatalf("unexpected updated_at %v", holdings[0].UpdatedAt)
	}

	if err := repo.UpsertHolding(ctx, models.Holding{UserID: "u1", Symbol: "ETH", Amount: 3, AvgCost: 1600, UpdatedAt: now}); err != nil {
		t.Fatal(err)
	}
	ok, err := repo.UpdateAvgCost(ctx, "u1", "ETH", 1700)
	if err != nil || !ok {
		t.Fatalf("expected avg cost update, got %v %v", ok, err)
	}
	if ok, _ := repo.UpdateAvgCost(ctx, "u1", "DOGE", 1); ok {
		t.Fatal("expected no update for a symbol the user does not hold")
	}

	holdings, _ = repo.GetHoldings(ctx, "u1")
	if holdings[1].Amount != 3 || holdings[1].AvgCost != 1700 {
		t.Fatalf("unexpected ETH row %+v", holdings[1])
	}

	// Zero amount removes the row.
	if err := repo.UpsertHolding(ctx, models.Holding{UserID: "u1", Symbol: "ETH", Amount: 0, UpdatedAt: now}); err != nil {
		t.Fatal(err)
	}
	holdings, _ = repo.GetHoldings(ctx, "u1")
	if len(holdings) != 1 {
		t.Fatalf("expected ETH to be removed, got %+v", holdings)
	}

	if err := repo.DeleteHolding(ctx, "u1", "ETH"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.ResetHoldings(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	if holdings, _ = repo.GetHoldings(ctx, "u1"); len(holdings) != 0 {
		t.Fatalf("expected no holdings after reset, got %+v", holdings)
	}
	if other, _ := repo.GetHoldings(ctx, "u2"); len(other) != 1 {
		t.Fatal("reset must not touch other users")
	}
}

func TestLedger(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tx := func(id string, side models.Side, day int) models.Transaction {
		return models.Transaction{
			UserID: "u1", Exchange: "kraken", TradeID: id, Symbol: "BTC", Side: side,
			Quantity: 1, Price: 100, Fee: 0.5, Timestamp: base.AddDate(0, 0, day),
		}
	}

	if _, err := repo.InsertTransaction(ctx, tx("T3", models.SideSell, 3)); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.InsertTransaction(ctx, tx("T1", models.SideBuy, 1)); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.InsertTransaction(ctx, tx("T1", models.SideBuy, 1)); !errors.Is(err, models.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	inserted, err := repo.UpsertTransaction(ctx, tx("T2", models.SideBuy, 2))
	if err != nil || !inserted {
		t.Fatalf("expected insert, got %v %v", inserted, err)
	}
	inserted, err = repo.UpsertTransaction(ctx, tx("T2", models.SideBuy, 2))
	if err != nil || inserted {
		t.Fatalf("expected duplicate to be ignored, got %v %v", inserted, err)
	}

	txs, err := repo.ListTransactions(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != 3 || txs[0].TradeID != "T1" || txs[1].TradeID != "T2" || txs[2].TradeID != "T3" {
		t.Fatalf("expected timestamp order, got %+v", txs)
	}
	if txs[0].Fee != 0.5 || !txs[0].Timestamp.Equal(base.AddDate(0, 0, 1)) || txs[2].Side != models.SideSell {
		t.Fatalf("unexpected round trip %+v", txs[0])
	}

	buys, err := repo.ListBuys(ctx, "u1", "BTC")
	if err != nil || len(buys) != 2 {
		t.Fatalf("expected 2 buys, got %d (%v)", len(buys), err)
	}

	if err := repo.DeleteTransaction(ctx, "u2", txs[0].ID); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("deleting another user's row must fail with ErrNotFound, got %v", err)
	}
	if err := repo.DeleteTransaction(ctx, "u1", txs[0].ID); err != nil {
		t.Fatal(err)
	}
	n, err := repo.ClearTransactions(ctx, "u1")
	if err != nil || n != 2 {
		t.Fatalf("expected 2 cleared rows, got %d (%v)", n, err)
	}
}

func TestNetWorthGoal(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if _, ok, err := repo.GetNetWorthGoal(ctx, "u1"); err != nil || ok {
		t.Fatalf("expected no stored goal, got ok=%v err=%v", ok, err)
	}
	if err := repo.UpsertNetWorthGoal(ctx, "u1", 50000); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpsertNetWorthGoal(ctx, "u1", 75000); err != nil {
		t.Fatal(err)
	}
	goal, ok, err := repo.GetNetWorthGoal(ctx, "u1")
	if err != nil || !ok || goal != 75000 {
		t.Fatalf("expected 75000, got %v %v %v", goal, ok, err)
	}
}
