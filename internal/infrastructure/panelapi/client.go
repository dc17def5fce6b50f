package panelapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/vitos/futures_risk_guard/internal/domain"
)

const DefaultBaseURL = "http://127.0.0.1:5000"

// Client talks to the trading-panel backend. The panel owns exchange
// credentials and order execution; this client treats every endpoint as an
// opaque JSON RPC.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &domain.TransportError{Op: "GET " + path, Err: err}
	}
	return c.do(req, path, out)
}

func (c *Client) postJSON(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &domain.TransportError{Op: "POST " + path, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return &domain.TransportError{Op: "POST " + path, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, path, out)
}

func (c *Client) do(req *http.Request, path string, out interface{}) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return &domain.TransportError{Op: req.Method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.TransportError{Op: req.Method + " " + path, Err: err}
	}

	// The panel reports failures in the body ({"error": ...} or
	// {"success": false}), sometimes with a 4xx/5xx status, sometimes with
	// 200. Decode the body first and only fall back to the status code.
	var errBody struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(respBody, &errBody) == nil && errBody.Error != "" {
		return &domain.BusinessError{Message: errBody.Error}
	}

	if resp.StatusCode >= 400 {
		return &domain.TransportError{
			Op:  req.Method + " " + path,
			Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode, respBody),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &domain.TransportError{Op: req.Method + " " + path, Err: err}
	}
	return nil
}

func (c *Client) GetTicker(ctx context.Context, symbol string) (float64, error) {
	var result struct {
		Last float64 `json:"last"`
	}
	path := "/api/ticker/" + url.PathEscape(symbol)
	if err := c.getJSON(ctx, path, &result); err != nil {
		return 0, err
	}
	if result.Last <= 0 {
		return 0, &domain.BusinessError{Message: "no price available for " + symbol}
	}
	return result.Last, nil
}

func (c *Client) GetPositions(ctx context.Context) ([]*domain.Position, error) {
	var result struct {
		Positions []*domain.Position `json:"positions"`
	}
	if err := c.getJSON(ctx, "/api/positions", &result); err != nil {
		return nil, err
	}
	for _, p := range result.Positions {
		p.Side = domain.ParseSide(string(p.Side))
	}
	return result.Positions, nil
}

func (c *Client) GetPositionDetails(ctx context.Context, symbol string) (*domain.ProtectiveOrders, error) {
	var result domain.ProtectiveOrders
	path := "/api/position_details/" + url.PathEscape(symbol)
	if err := c.getJSON(ctx, path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetStatus(ctx context.Context) (*domain.TradingStatus, error) {
	var result struct {
		CooldownEnds string `json:"cooldown_ends"`
	}
	if err := c.getJSON(ctx, "/api/status", &result); err != nil {
		return nil, err
	}

	status := &domain.TradingStatus{}
	if result.CooldownEnds != "" {
		end, err := parseServerTime(result.CooldownEnds)
		if err != nil {
			return nil, &domain.TransportError{Op: "GET /api/status", Err: err}
		}
		status.CooldownEnds = &end
	}
	return status, nil
}

func (c *Client) PlaceTrade(ctx context.Context, req *domain.OrderRequest) (*domain.OrderResult, error) {
	var result domain.OrderResult
	if err := c.postJSON(ctx, "/place_trade", req, &result); err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, &domain.BusinessError{Message: result.Message}
	}
	return &result, nil
}

func (c *Client) ClosePosition(ctx context.Context, symbol string, autoLiquidation bool) (*domain.OrderResult, error) {
	payload := map[string]interface{}{
		"symbol":           symbol,
		"auto_liquidation": autoLiquidation,
	}
	var result domain.OrderResult
	if err := c.postJSON(ctx, "/close_position", payload, &result); err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, &domain.BusinessError{Message: result.Message}
	}
	return &result, nil
}

func (c *Client) SetPositionOrders(ctx context.Context, upd domain.ProtectiveUpdate) (*domain.OrderResult, error) {
	var result domain.OrderResult
	if err := c.postJSON(ctx, "/api/set_position_orders", upd, &result); err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, &domain.BusinessError{Message: result.Message}
	}
	return &result, nil
}

// parseServerTime handles the timestamp flavors the panel emits: RFC3339
// with zone, or a naive isoformat with or without fractional seconds
// (interpreted as local time, matching the server host).
func parseServerTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
