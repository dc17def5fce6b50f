package usecase

import (
	"context"
	"sync"

	"github.com/vitos/futures_risk_guard/internal/domain"
)

// fakePanelAPI lets each test override just the calls it cares about.
type fakePanelAPI struct {
	mu sync.Mutex

	getTickerFn    func(ctx context.Context, symbol string) (float64, error)
	getPositionsFn func(ctx context.Context) ([]*domain.Position, error)
	getDetailsFn   func(ctx context.Context, symbol string) (*domain.ProtectiveOrders, error)
	getStatusFn    func(ctx context.Context) (*domain.TradingStatus, error)
	placeTradeFn   func(ctx context.Context, req *domain.OrderRequest) (*domain.OrderResult, error)
	closeFn        func(ctx context.Context, symbol string, autoLiquidation bool) (*domain.OrderResult, error)
	setOrdersFn    func(ctx context.Context, upd domain.ProtectiveUpdate) (*domain.OrderResult, error)

	placeTradeCalls int
	closeCalls      []string
}

func (f *fakePanelAPI) GetTicker(ctx context.Context, symbol string) (float64, error) {
	if f.getTickerFn != nil {
		return f.getTickerFn(ctx, symbol)
	}
	return 0, nil
}

func (f *fakePanelAPI) GetPositions(ctx context.Context) ([]*domain.Position, error) {
	if f.getPositionsFn != nil {
		return f.getPositionsFn(ctx)
	}
	return nil, nil
}

func (f *fakePanelAPI) GetPositionDetails(ctx context.Context, symbol string) (*domain.ProtectiveOrders, error) {
	if f.getDetailsFn != nil {
		return f.getDetailsFn(ctx, symbol)
	}
	return &domain.ProtectiveOrders{}, nil
}

func (f *fakePanelAPI) GetStatus(ctx context.Context) (*domain.TradingStatus, error) {
	if f.getStatusFn != nil {
		return f.getStatusFn(ctx)
	}
	return &domain.TradingStatus{}, nil
}

func (f *fakePanelAPI) PlaceTrade(ctx context.Context, req *domain.OrderRequest) (*domain.OrderResult, error) {
	f.mu.Lock()
	f.placeTradeCalls++
	f.mu.Unlock()
	if f.placeTradeFn != nil {
		return f.placeTradeFn(ctx, req)
	}
	return &domain.OrderResult{Success: true}, nil
}

func (f *fakePanelAPI) ClosePosition(ctx context.Context, symbol string, autoLiquidation bool) (*domain.OrderResult, error) {
	f.mu.Lock()
	f.closeCalls = append(f.closeCalls, symbol)
	f.mu.Unlock()
	if f.closeFn != nil {
		return f.closeFn(ctx, symbol, autoLiquidation)
	}
	return &domain.OrderResult{Success: true}, nil
}

func (f *fakePanelAPI) SetPositionOrders(ctx context.Context, upd domain.ProtectiveUpdate) (*domain.OrderResult, error) {
	if f.setOrdersFn != nil {
		return f.setOrdersFn(ctx, upd)
	}
	return &domain.OrderResult{Success: true}, nil
}

func (f *fakePanelAPI) tradeCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.placeTradeCalls
}

func (f *fakePanelAPI) closedSymbols() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.closeCalls))
	copy(out, f.closeCalls)
	return out
}

type notification struct {
	message  string
	severity domain.Severity
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (f *fakeNotifier) Notify(message string, severity domain.Severity) {
	f.mu.Lock()
	f.sent = append(f.sent, notification{message: message, severity: severity})
	f.mu.Unlock()
}

func (f *fakeNotifier) all() []notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]notification, len(f.sent))
	copy(out, f.sent)
	return out
}

type fakeJournal struct {
	mu      sync.Mutex
	entries []*domain.JournalEntry
	saveErr error
}

func (f *fakeJournal) SaveEntry(ctx context.Context, entry *domain.JournalEntry) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.mu.Lock()
	f.entries = append(f.entries, entry)
	f.mu.Unlock()
	return nil
}

func (f *fakeJournal) ListEntries(ctx context.Context, limit int) ([]*domain.JournalEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.JournalEntry, len(f.entries))
	copy(out, f.entries)
	return out, nil
}

func (f *fakeJournal) saved() []*domain.JournalEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.JournalEntry, len(f.entries))
	copy(out, f.entries)
	return out
}

// fakeGate is a SubmissionGate with a settable answer.
type fakeGate struct {
	allowed   bool
	syncCalls int
}

func (f *fakeGate) SubmissionAllowed() bool { return f.allowed }

func (f *fakeGate) Sync(ctx context.Context) error {
	f.syncCalls++
	return nil
}

// fakeCloser records close requests and can fail on demand.
type fakeCloser struct {
	mu      sync.Mutex
	calls   []string
	failFor map[string]error
	block   chan struct{} // when set, ClosePosition waits on it
}

func (f *fakeCloser) ClosePosition(ctx context.Context, symbol string, autoLiquidation bool) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	f.calls = append(f.calls, symbol)
	f.mu.Unlock()
	if f.failFor != nil {
		if err, ok := f.failFor[symbol]; ok {
			return err
		}
	}
	return nil
}

func (f *fakeCloser) closed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}
