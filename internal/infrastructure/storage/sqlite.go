package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vitos/futures_risk_guard/internal/domain"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS journal (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			kind TEXT NOT NULL,
			symbol TEXT NOT NULL,
			side TEXT NOT NULL DEFAULT '',
			amount REAL NOT NULL DEFAULT 0,
			price REAL NOT NULL DEFAULT 0,
			stop_loss REAL NOT NULL DEFAULT 0,
			take_profit REAL NOT NULL DEFAULT 0,
			leverage INTEGER NOT NULL DEFAULT 0,
			margin_mode TEXT NOT NULL DEFAULT '',
			message TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_journal_symbol ON journal(symbol);`,
		`CREATE INDEX IF NOT EXISTS idx_journal_kind ON journal(kind);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to exec query %s: %w", q, err)
		}
	}

	return nil
}

// JournalRepository implementation

func (s *SQLiteStore) SaveEntry(ctx context.Context, entry *domain.JournalEntry) error {
	query := `INSERT INTO journal (kind, symbol, side, amount, price, stop_loss, take_profit, leverage, margin_mode, message, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, query,
		entry.Kind, entry.Symbol, entry.Side, entry.Amount, entry.Price,
		entry.StopLoss, entry.TakeProfit, entry.Leverage, entry.MarginMode, entry.Message, entry.CreatedAt)
	if err != nil {
		return err
	}
	if id, err := res.LastInsertId(); err == nil {
		entry.ID = id
	}
	return nil
}

func (s *SQLiteStore) ListEntries(ctx context.Context, limit int) ([]*domain.JournalEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT id, kind, symbol, side, amount, price, stop_loss, take_profit, leverage, margin_mode, message, created_at
			  FROM journal ORDER BY id DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.JournalEntry
	for rows.Next() {
		var e domain.JournalEntry
		if err := rows.Scan(&e.ID, &e.Kind, &e.Symbol, &e.Side, &e.Amount, &e.Price,
			&e.StopLoss, &e.TakeProfit, &e.Leverage, &e.MarginMode, &e.Message, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
