package domain

import (
	"context"
	"time"
)

type JournalKind string

const (
	JournalKindOrder           JournalKind = "order"
	JournalKindClose           JournalKind = "close"
	JournalKindAutoLiquidation JournalKind = "auto_liquidation"
)

// JournalEntry is an audit record of an action the guard issued against the
// panel. The risk loop never reads the journal back; it exists for the
// trade-history view only.
type JournalEntry struct {
	ID         int64       `json:"id"`
	Kind       JournalKind `json:"kind"`
	Symbol     string      `json:"symbol"`
	Side       string      `json:"side"`
	Amount     float64     `json:"amount"`
	Price      float64     `json:"price"`
	StopLoss   float64     `json:"stop_loss"`
	TakeProfit float64     `json:"take_profit"`
	Leverage   int         `json:"leverage"`
	MarginMode string      `json:"margin_mode"`
	Message    string      `json:"message"`
	CreatedAt  time.Time   `json:"created_at"`
}

// JournalRepository defines storage operations for the session journal.
type JournalRepository interface {
	SaveEntry(ctx context.Context, entry *JournalEntry) error
	ListEntries(ctx context.Context, limit int) ([]*JournalEntry, error)
}
