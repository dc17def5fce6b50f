package domain

type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

type OrderType string

const (
	OrderTypeMarket OrderType = "market"
	OrderTypeLimit  OrderType = "limit"
)

type MarginMode string

const (
	MarginIsolated MarginMode = "isolated"
	MarginCross    MarginMode = "cross"
)

// OrderRequest is a client-constructed, single-use order. It is marshaled
// as-is into the /place_trade body (snake_case, per the panel contract) and
// discarded after one submission attempt.
type OrderRequest struct {
	Symbol     string     `json:"symbol"`
	Side       OrderSide  `json:"side"`
	Amount     float64    `json:"amount"`
	OrderType  OrderType  `json:"order_type"`
	Price      float64    `json:"price,omitempty"` // required iff limit
	StopLoss   float64    `json:"stop_loss,omitempty"`
	TakeProfit float64    `json:"take_profit,omitempty"`
	Leverage   int        `json:"leverage"`
	MarginMode MarginMode `json:"margin_mode"`
	PostOnly   bool       `json:"post_only,omitempty"`
}

// Validate checks the request before any network call is made. Each failure
// is a distinct ValidationError.
func (r *OrderRequest) Validate() error {
	if r.Symbol == "" {
		return &ValidationError{Field: "symbol", Reason: "symbol is required"}
	}
	switch r.Side {
	case OrderSideBuy, OrderSideSell:
	default:
		return &ValidationError{Field: "side", Reason: "side must be buy or sell"}
	}
	if r.Amount <= 0 {
		return &ValidationError{Field: "amount", Reason: "amount must be a positive number"}
	}
	switch r.OrderType {
	case OrderTypeMarket:
	case OrderTypeLimit:
		if r.Price <= 0 {
			return &ValidationError{Field: "price", Reason: "limit orders require a price"}
		}
	default:
		return &ValidationError{Field: "order_type", Reason: "order type must be market or limit"}
	}
	return nil
}

// ApplyDefaults fills the server-side defaults the original order form used.
func (r *OrderRequest) ApplyDefaults() {
	if r.Leverage == 0 {
		r.Leverage = 5
	}
	if r.MarginMode == "" {
		r.MarginMode = MarginIsolated
	}
}

// OrderResult is the panel's answer to a trade, close or protective-order
// request.
type OrderResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	OrderID string `json:"order_id,omitempty"`
}
