package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vitos/futures_risk_guard/internal/domain"
	"go.uber.org/zap"
)

// PositionCloser issues the actual close request. In production this is the
// PositionController, so an automated close goes through exactly the same
// path as a user-initiated one.
type PositionCloser interface {
	ClosePosition(ctx context.Context, symbol string, autoLiquidation bool) error
}

type MonitorConfig struct {
	// PollInterval is the auto-liquidation check cadence. Independent of
	// the slower full-display refresh the UI runs on its own.
	PollInterval time.Duration

	// WarnThreshold is the boundary between "loss" and "warning". A PnL
	// exactly at the threshold classifies as warning.
	WarnThreshold float64

	// LiquidationThreshold is the hard cap. At or below it the position is
	// closed automatically regardless of user action.
	LiquidationThreshold float64
}

func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		PollInterval:         5 * time.Second,
		WarnThreshold:        -4.5,
		LiquidationThreshold: -5.0,
	}
}

// ClassifyPnL maps an unrealized PnL to its display class. warnThreshold
// itself classifies as warning.
func ClassifyPnL(pnl, warnThreshold float64) domain.PnLClass {
	switch {
	case pnl >= 0:
		return domain.PnLProfit
	case pnl <= warnThreshold:
		return domain.PnLWarning
	default:
		return domain.PnLLoss
	}
}

// PositionMonitor polls the open-position set and enforces the hard loss
// cap. Each tick is split into a pure decision step (classify, pick
// liquidations) and an effect step (issue closes, emit warnings), so the
// decision logic tests without any network.
type PositionMonitor struct {
	api      domain.PanelAPI
	closer   PositionCloser
	notifier domain.Notifier
	logger   *zap.Logger
	cfg      MonitorConfig

	mu       sync.Mutex
	cancel   context.CancelFunc
	inFlight map[string]bool // symbols with an outstanding liquidation request
	warned   map[string]bool // symbols already warned for the current band visit

	refresh chan struct{}

	snapMu   sync.RWMutex
	snapshot []domain.PositionView
}

func NewPositionMonitor(cfg MonitorConfig, api domain.PanelAPI, closer PositionCloser, notifier domain.Notifier, logger *zap.Logger) *PositionMonitor {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultMonitorConfig().PollInterval
	}
	return &PositionMonitor{
		api:      api,
		closer:   closer,
		notifier: notifier,
		logger:   logger,
		cfg:      cfg,
		inFlight: make(map[string]bool),
		warned:   make(map[string]bool),
		refresh:  make(chan struct{}, 1),
	}
}

// Start launches the poll loop. Starting again cancels the previous session
// first, so two loops never double-trigger liquidation for the same
// account.
func (m *PositionMonitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.mu.Unlock()

	go m.loop(ctx)
}

// Stop cancels the running session, if any.
func (m *PositionMonitor) Stop() {
	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.mu.Unlock()
}

// RefreshNow forces a tick ahead of the next interval, e.g. right after an
// order or close went through.
func (m *PositionMonitor) RefreshNow() {
	select {
	case m.refresh <- struct{}{}:
	default:
	}
}

// Snapshot returns a copy of the latest classified positions for the
// rendering layer.
func (m *PositionMonitor) Snapshot() []domain.PositionView {
	m.snapMu.RLock()
	defer m.snapMu.RUnlock()
	out := make([]domain.PositionView, len(m.snapshot))
	copy(out, m.snapshot)
	return out
}

func (m *PositionMonitor) loop(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()

	m.ProcessTick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.ProcessTick(ctx)
		case <-m.refresh:
			m.ProcessTick(ctx)
		}
	}
}

// ProcessTick runs one poll cycle. Any fetch failure logs, counts and skips
// the cycle; the loop survives an unbounded run of failures.
func (m *PositionMonitor) ProcessTick(ctx context.Context) {
	monitorTicks.Inc()

	positions, err := m.api.GetPositions(ctx)
	if err != nil {
		positionFetchFailures.Inc()
		m.logger.Warn("position poll failed, skipping tick", zap.Error(err))
		return
	}

	m.mu.Lock()
	inFlight := make(map[string]bool, len(m.inFlight))
	for sym := range m.inFlight {
		inFlight[sym] = true
	}
	m.mu.Unlock()

	d := decideTick(positions, inFlight, m.cfg)

	m.snapMu.Lock()
	m.snapshot = d.views
	m.snapMu.Unlock()

	m.emitWarnings(d.warnings)

	m.mu.Lock()
	for _, view := range d.liquidations {
		m.inFlight[view.Symbol] = true
	}
	m.mu.Unlock()

	for _, view := range d.liquidations {
		go m.liquidate(ctx, view)
	}
}

type tickDecision struct {
	views        []domain.PositionView
	warnings     []domain.PositionView
	liquidations []domain.PositionView
}

// decideTick is the pure half of a tick: classify every position and decide
// which ones to liquidate or warn about. inFlight suppresses symbols whose
// close request is still outstanding.
func decideTick(positions []*domain.Position, inFlight map[string]bool, cfg MonitorConfig) tickDecision {
	var d tickDecision
	d.views = make([]domain.PositionView, 0, len(positions))

	for _, p := range positions {
		view := domain.PositionView{
			Symbol:        p.Symbol,
			Side:          p.Side,
			Size:          p.Size,
			EntryPrice:    p.EntryPrice,
			Leverage:      p.Leverage,
			UnrealizedPnl: p.UnrealizedPnl,
			StopLoss:      p.StopLoss,
			TakeProfit:    p.TakeProfit,
			Class:         ClassifyPnL(p.UnrealizedPnl, cfg.WarnThreshold),
		}
		d.views = append(d.views, view)

		switch {
		case p.UnrealizedPnl <= cfg.LiquidationThreshold:
			if !inFlight[p.Symbol] {
				d.liquidations = append(d.liquidations, view)
			}
		case view.Class == domain.PnLWarning:
			// Between the hard cap and the warning threshold: advance
			// notice before the forced close.
			d.warnings = append(d.warnings, view)
		}
	}
	return d
}

// emitWarnings notifies once per band visit so a position sitting at -4.7
// does not alert on every 5s tick.
func (m *PositionMonitor) emitWarnings(warnings []domain.PositionView) {
	inBand := make(map[string]bool, len(warnings))

	for _, w := range warnings {
		inBand[w.Symbol] = true

		m.mu.Lock()
		already := m.warned[w.Symbol]
		m.warned[w.Symbol] = true
		m.mu.Unlock()
		if already {
			continue
		}

		lossWarnings.WithLabelValues(w.Symbol).Inc()
		m.logger.Warn("position approaching loss cap",
			zap.String("symbol", w.Symbol),
			zap.Float64("unrealized_pnl", w.UnrealizedPnl))
		if m.notifier != nil {
			m.notifier.Notify(
				fmt.Sprintf("%s is approaching the loss cap (%.2f)", w.Symbol, w.UnrealizedPnl),
				domain.SeverityWarning)
		}
	}

	m.mu.Lock()
	for sym := range m.warned {
		if !inBand[sym] {
			delete(m.warned, sym)
		}
	}
	m.mu.Unlock()
}

// liquidate issues the forced close and releases the in-flight mark when the
// request completes, so a still-losing position is retried on the next tick
// if this attempt failed.
func (m *PositionMonitor) liquidate(ctx context.Context, view domain.PositionView) {
	defer func() {
		m.mu.Lock()
		delete(m.inFlight, view.Symbol)
		m.mu.Unlock()
	}()

	m.logger.Warn("loss cap breached, auto-liquidating",
		zap.String("symbol", view.Symbol),
		zap.Float64("unrealized_pnl", view.UnrealizedPnl))

	if err := m.closer.ClosePosition(ctx, view.Symbol, true); err != nil {
		autoLiquidations.WithLabelValues(view.Symbol, "failed").Inc()
		m.logger.Error("auto-liquidation request failed",
			zap.String("symbol", view.Symbol), zap.Error(err))
		return
	}
	autoLiquidations.WithLabelValues(view.Symbol, "success").Inc()
}
