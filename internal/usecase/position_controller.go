package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vitos/futures_risk_guard/internal/domain"
	"go.uber.org/zap"
)

// PositionController mutates open positions: protective-order updates and
// closes. It is the single close path, shared by the user-facing handler and
// the monitor's auto-liquidation.
type PositionController struct {
	api      domain.PanelAPI
	journal  domain.JournalRepository
	notifier domain.Notifier
	logger   *zap.Logger

	// Fired after any successful mutation so the monitor refreshes ahead
	// of its next interval.
	onChange func()
}

func NewPositionController(api domain.PanelAPI, journal domain.JournalRepository, notifier domain.Notifier, logger *zap.Logger) *PositionController {
	return &PositionController{
		api:      api,
		journal:  journal,
		notifier: notifier,
		logger:   logger,
	}
}

func (c *PositionController) SetOnChange(fn func()) {
	c.onChange = fn
}

// UpdateProtectiveOrders replaces a position's stop-loss / take-profit. A
// nil StopLoss or TakeProfit clears that order server-side.
func (c *PositionController) UpdateProtectiveOrders(ctx context.Context, upd domain.ProtectiveUpdate) error {
	if upd.Symbol == "" {
		err := &domain.ValidationError{Field: "symbol", Reason: "symbol is required"}
		c.notify(err.Reason, domain.SeverityDanger)
		return err
	}

	result, err := c.api.SetPositionOrders(ctx, upd)
	if err != nil {
		c.notifyError(err, "Protective orders could not be updated, please retry")
		c.logger.Error("protective order update failed",
			zap.String("symbol", upd.Symbol), zap.Error(err))
		return err
	}

	msg := result.Message
	if msg == "" {
		msg = fmt.Sprintf("Protective orders updated for %s", upd.Symbol)
	}
	c.notify(msg, domain.SeveritySuccess)
	c.logger.Info("protective orders updated",
		zap.String("symbol", upd.Symbol),
		zap.Float64p("stop_loss", upd.StopLoss),
		zap.Float64p("take_profit", upd.TakeProfit))

	if c.onChange != nil {
		c.onChange()
	}
	return nil
}

// ClosePosition closes the full position for symbol. autoLiquidation marks
// the request as monitor-initiated; the panel and the notifications both
// distinguish the two.
func (c *PositionController) ClosePosition(ctx context.Context, symbol string, autoLiquidation bool) error {
	if symbol == "" {
		err := &domain.ValidationError{Field: "symbol", Reason: "symbol is required"}
		if !autoLiquidation {
			c.notify(err.Reason, domain.SeverityDanger)
		}
		return err
	}

	result, err := c.api.ClosePosition(ctx, symbol, autoLiquidation)
	if err != nil {
		c.notifyError(err, fmt.Sprintf("Close request for %s failed, please retry", symbol))
		c.logger.Error("position close failed",
			zap.String("symbol", symbol),
			zap.Bool("auto_liquidation", autoLiquidation),
			zap.Error(err))
		return err
	}

	if autoLiquidation {
		c.notify(fmt.Sprintf("%s was auto-liquidated at the loss cap", symbol), domain.SeverityDanger)
	} else {
		msg := result.Message
		if msg == "" {
			msg = fmt.Sprintf("Position %s closed", symbol)
		}
		c.notify(msg, domain.SeveritySuccess)
	}
	c.logger.Info("position closed",
		zap.String("symbol", symbol),
		zap.Bool("auto_liquidation", autoLiquidation))

	c.recordClose(ctx, symbol, autoLiquidation, result.Message)

	if c.onChange != nil {
		c.onChange()
	}
	return nil
}

func (c *PositionController) recordClose(ctx context.Context, symbol string, autoLiquidation bool, msg string) {
	if c.journal == nil {
		return
	}
	kind := domain.JournalKindClose
	if autoLiquidation {
		kind = domain.JournalKindAutoLiquidation
	}
	entry := &domain.JournalEntry{
		Kind:      kind,
		Symbol:    symbol,
		Message:   msg,
		CreatedAt: time.Now(),
	}
	if err := c.journal.SaveEntry(ctx, entry); err != nil {
		c.logger.Warn("journal write failed", zap.Error(err))
	}
}

func (c *PositionController) notifyError(err error, fallback string) {
	var bizErr *domain.BusinessError
	if errors.As(err, &bizErr) {
		c.notify(bizErr.Message, domain.SeverityDanger)
		return
	}
	c.notify(fallback, domain.SeverityDanger)
}

func (c *PositionController) notify(msg string, sev domain.Severity) {
	if c.notifier != nil {
		c.notifier.Notify(msg, sev)
	}
}
