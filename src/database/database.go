package database

import (
	"database/sql"
	"fmt"
	stdlog "log"

	"github.com/kathytingcheng-oss/crypto-quant-os/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

const schema = `
CREATE TABLE IF NOT EXISTS holdings (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	amount REAL NOT NULL CHECK (amount >= 0),
	avg_buy_price REAL NOT NULL DEFAULT 0 CHECK (avg_buy_price >= 0),
	updated_at TEXT NOT NULL,
	UNIQUE(user_id, symbol)
);

CREATE TABLE IF NOT EXISTS transactions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id TEXT NOT NULL,
	exchange TEXT NOT NULL,
	trade_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	type TEXT NOT NULL CHECK (type IN ('BUY', 'SELL')),
	quantity REAL NOT NULL,
	price REAL NOT NULL,
	timestamp TEXT NOT NULL,
	UNIQUE(user_id, exchange, trade_id)
);

CREATE INDEX IF NOT EXISTS idx_transactions_user_ts ON transactions(user_id, timestamp, id);

CREATE TABLE IF NOT EXISTS user_settings (
	user_id TEXT PRIMARY KEY,
	net_worth_goal REAL NOT NULL
);
`

// Open opens the SQLite database at path and brings its schema up to date.
// A single connection is kept so ":memory:" databases survive between calls.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// InitDB opens the process-wide database or exits.
func InitDB(databasePath string) {
	logger.L.Info("Checking database migrations", "databasePath", databasePath)
	db, err := Open(databasePath)
	if err != nil {
		logger.L.Error("Failed to initialize database", "error", err)
		stdlog.Fatalf("failed to initialize database: %v", err)
	}
	DB = db
	logger.L.Info("Database tables ensured/created.")
}

// Migrate creates missing tables and adds columns introduced after a table
// was first created.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return migrateTransactionsTable(db)
}

func migrateTransactionsTable(db *sql.DB) error {
	columns, err := tableColumns(db, "transactions")
	if err != nil {
		return err
	}
	if !columns["fee"] {
		if _, err := db.Exec("ALTER TABLE transactions ADD COLUMN fee REAL NOT NULL DEFAULT 0"); err != nil {
			return fmt.Errorf("error adding fee column to transactions: %w", err)
		}
		logger.L.Info("Added 'fee' column to 'transactions' table")
	}
	return nil
}

func tableColumns(db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.Query("SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return nil, fmt.Errorf("error querying table schema for %s: %w", table, err)
	}
	defer rows.Close()

	columns := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("error scanning column info for %s: %w", table, err)
		}
		columns[name] = true
	}
	return columns, rows.Err()
}
