package domain

import (
	"context"
	"time"
)

// PanelAPI is the REST boundary to the trading-panel backend. All server
// state (positions, cooldown) is polled through it; there is no push
// channel.
type PanelAPI interface {
	GetTicker(ctx context.Context, symbol string) (float64, error)
	GetPositions(ctx context.Context) ([]*Position, error)
	GetPositionDetails(ctx context.Context, symbol string) (*ProtectiveOrders, error)
	GetStatus(ctx context.Context) (*TradingStatus, error)
	PlaceTrade(ctx context.Context, req *OrderRequest) (*OrderResult, error)
	ClosePosition(ctx context.Context, symbol string, autoLiquidation bool) (*OrderResult, error)
	SetPositionOrders(ctx context.Context, upd ProtectiveUpdate) (*OrderResult, error)
}

// TradingStatus is the subset of /api/status the guard cares about.
type TradingStatus struct {
	CooldownEnds *time.Time
}

// ProtectiveOrders holds a position's current stop-loss / take-profit as
// reported by /api/position_details.
type ProtectiveOrders struct {
	StopLoss   *float64 `json:"stopLoss"`
	TakeProfit *float64 `json:"takeProfit"`
}

// ProtectiveUpdate mutates one position's protective orders. StopLoss and
// TakeProfit are independently nullable: per the panel contract a nil field
// clears that order server-side, it is not a no-op.
type ProtectiveUpdate struct {
	Symbol     string   `json:"symbol"`
	Side       Side     `json:"side"`
	Quantity   float64  `json:"quantity"`
	StopLoss   *float64 `json:"stop_loss"`
	TakeProfit *float64 `json:"take_profit"`
}

// Severity matches the flash categories the dashboard renders.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

// Notifier is the sink for ephemeral user-facing messages. The core only
// calls into it and never owns its lifecycle.
type Notifier interface {
	Notify(message string, severity Severity)
}
