package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/vitos/futures_risk_guard/internal/domain"
	"go.uber.org/zap"
)

// SubmissionGate is how the submitter asks whether new orders are allowed
// and re-syncs the cooldown after a fill. Satisfied by CooldownController.
type SubmissionGate interface {
	SubmissionAllowed() bool
	Sync(ctx context.Context) error
}

// OrderSubmitter pushes a validated order to the panel. At most one
// submission is in flight at a time; a second attempt while the first is
// pending is rejected locally without touching the network.
type OrderSubmitter struct {
	api      domain.PanelAPI
	gate     SubmissionGate
	journal  domain.JournalRepository
	notifier domain.Notifier
	logger   *zap.Logger

	// Set when an order was accepted; the monitor picks it up for an early
	// refresh.
	onSuccess func()

	submitting atomic.Bool
}

func NewOrderSubmitter(api domain.PanelAPI, gate SubmissionGate, journal domain.JournalRepository, notifier domain.Notifier, logger *zap.Logger) *OrderSubmitter {
	return &OrderSubmitter{
		api:      api,
		gate:     gate,
		journal:  journal,
		notifier: notifier,
		logger:   logger,
	}
}

// SetOnSuccess registers the post-fill hook, typically the position
// monitor's RefreshNow.
func (s *OrderSubmitter) SetOnSuccess(fn func()) {
	s.onSuccess = fn
}

// Submit validates, gates and sends one order. The returned error is one of
// the domain error types; the user-facing notification has already been
// emitted by the time Submit returns.
func (s *OrderSubmitter) Submit(ctx context.Context, req *domain.OrderRequest) (*domain.OrderResult, error) {
	if err := req.Validate(); err != nil {
		ordersSubmitted.WithLabelValues("rejected").Inc()
		s.notify(err.Error(), domain.SeverityDanger)
		return nil, err
	}
	req.ApplyDefaults()

	if !s.gate.SubmissionAllowed() {
		ordersSubmitted.WithLabelValues("rejected").Inc()
		err := &domain.ValidationError{Field: "cooldown", Reason: "trading cooldown is active, please wait"}
		s.notify(err.Reason, domain.SeverityWarning)
		return nil, err
	}

	if !s.submitting.CompareAndSwap(false, true) {
		ordersSubmitted.WithLabelValues("rejected").Inc()
		err := &domain.ValidationError{Field: "submission", Reason: "an order is already being submitted"}
		s.notify(err.Reason, domain.SeverityWarning)
		return nil, err
	}
	defer s.submitting.Store(false)

	s.logger.Info("submitting order",
		zap.String("symbol", req.Symbol),
		zap.String("side", string(req.Side)),
		zap.Float64("amount", req.Amount),
		zap.String("order_type", string(req.OrderType)))

	result, err := s.api.PlaceTrade(ctx, req)
	if err != nil {
		ordersSubmitted.WithLabelValues("failed").Inc()
		s.notifyError(err)
		s.logger.Error("order submission failed", zap.String("symbol", req.Symbol), zap.Error(err))
		return nil, err
	}

	ordersSubmitted.WithLabelValues("success").Inc()
	msg := result.Message
	if msg == "" {
		msg = fmt.Sprintf("Order placed: %s %s %g", req.Symbol, req.Side, req.Amount)
	}
	s.notify(msg, domain.SeveritySuccess)
	s.logger.Info("order accepted",
		zap.String("symbol", req.Symbol),
		zap.String("order_id", result.OrderID))

	s.recordJournal(ctx, req, msg)

	if s.onSuccess != nil {
		s.onSuccess()
	}
	// A fill may have started a new cooldown server-side.
	if err := s.gate.Sync(ctx); err != nil {
		s.logger.Warn("post-order cooldown sync failed", zap.Error(err))
	}

	return result, nil
}

func (s *OrderSubmitter) recordJournal(ctx context.Context, req *domain.OrderRequest, msg string) {
	if s.journal == nil {
		return
	}
	entry := &domain.JournalEntry{
		Kind:       domain.JournalKindOrder,
		Symbol:     req.Symbol,
		Side:       string(req.Side),
		Amount:     req.Amount,
		Price:      req.Price,
		StopLoss:   req.StopLoss,
		TakeProfit: req.TakeProfit,
		Leverage:   req.Leverage,
		MarginMode: string(req.MarginMode),
		Message:    msg,
		CreatedAt:  time.Now(),
	}
	if err := s.journal.SaveEntry(ctx, entry); err != nil {
		s.logger.Warn("journal write failed", zap.Error(err))
	}
}

// notifyError maps the domain error taxonomy onto user-facing messages. The
// server's own message is shown verbatim; transport failures get a generic
// retry hint.
func (s *OrderSubmitter) notifyError(err error) {
	var bizErr *domain.BusinessError
	if errors.As(err, &bizErr) {
		s.notify(bizErr.Message, domain.SeverityDanger)
		return
	}
	s.notify("Order could not be sent, please retry", domain.SeverityDanger)
}

func (s *OrderSubmitter) notify(msg string, sev domain.Severity) {
	if s.notifier != nil {
		s.notifier.Notify(msg, sev)
	}
}
