package domain

import "strings"

type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// ParseSide normalizes the side strings the panel API returns ("long",
// "Long", "LONG") into a Side. Unknown values map to an empty Side.
func ParseSide(s string) Side {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LONG", "BUY":
		return SideLong
	case "SHORT", "SELL":
		return SideShort
	}
	return ""
}

// Position is a transient snapshot of an open position as reported by the
// panel API. The server owns the lifecycle; the client never mutates a
// snapshot, it only reflects a just-issued close optimistically on the next
// refresh.
type Position struct {
	Symbol        string  `json:"symbol"`
	Side          Side    `json:"side"`
	Size          float64 `json:"size"`
	EntryPrice    float64 `json:"entryPrice"`
	Leverage      int     `json:"leverage"`
	UnrealizedPnl float64 `json:"unrealizedPnl"` // quote currency; absent -> 0
	StopLoss      float64 `json:"stopLoss"`
	TakeProfit    float64 `json:"takeProfit"`
}

// PnLClass is the display classification of a position's unrealized PnL.
type PnLClass string

const (
	PnLProfit  PnLClass = "profit"
	PnLLoss    PnLClass = "loss"
	PnLWarning PnLClass = "warning" // approaching the hard loss cap
)

// PositionView is what the monitor hands to the rendering layer: a copy of
// the snapshot plus its PnL classification. Always passed by value.
type PositionView struct {
	Symbol        string   `json:"symbol"`
	Side          Side     `json:"side"`
	Size          float64  `json:"size"`
	EntryPrice    float64  `json:"entry_price"`
	Leverage      int      `json:"leverage"`
	UnrealizedPnl float64  `json:"unrealized_pnl"`
	StopLoss      float64  `json:"stop_loss"`
	TakeProfit    float64  `json:"take_profit"`
	Class         PnLClass `json:"class"`
}
