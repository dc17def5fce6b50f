package usecase

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/futures_risk_guard/internal/domain"
	"go.uber.org/zap"
)

func validOrder() *domain.OrderRequest {
	return &domain.OrderRequest{
		Symbol:    "BTCUSDT",
		Side:      domain.OrderSideBuy,
		Amount:    0.01,
		OrderType: domain.OrderTypeMarket,
	}
}

func newSubmitter(api *fakePanelAPI, gate *fakeGate, journal *fakeJournal, notifier *fakeNotifier) *OrderSubmitter {
	return NewOrderSubmitter(api, gate, journal, notifier, zap.NewNop())
}

func TestSubmitRejectsInvalidWithoutNetwork(t *testing.T) {
	cases := []struct {
		name string
		req  *domain.OrderRequest
	}{
		{name: "missing symbol", req: &domain.OrderRequest{Side: domain.OrderSideBuy, Amount: 1, OrderType: domain.OrderTypeMarket}},
		{name: "bad side", req: &domain.OrderRequest{Symbol: "BTCUSDT", Side: "hold", Amount: 1, OrderType: domain.OrderTypeMarket}},
		{name: "zero amount", req: &domain.OrderRequest{Symbol: "BTCUSDT", Side: domain.OrderSideBuy, OrderType: domain.OrderTypeMarket}},
		{name: "limit without price", req: &domain.OrderRequest{Symbol: "BTCUSDT", Side: domain.OrderSideBuy, Amount: 1, OrderType: domain.OrderTypeLimit}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := &fakePanelAPI{}
			s := newSubmitter(api, &fakeGate{allowed: true}, &fakeJournal{}, &fakeNotifier{})

			_, err := s.Submit(context.Background(), tc.req)

			var vErr *domain.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Zero(t, api.tradeCalls(), "validation failure must not reach the network")
		})
	}
}

func TestSubmitBlockedDuringCooldown(t *testing.T) {
	api := &fakePanelAPI{}
	notifier := &fakeNotifier{}
	s := newSubmitter(api, &fakeGate{allowed: false}, &fakeJournal{}, notifier)

	_, err := s.Submit(context.Background(), validOrder())

	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "cooldown", vErr.Field)
	assert.Zero(t, api.tradeCalls())

	sent := notifier.all()
	require.Len(t, sent, 1)
	assert.Equal(t, domain.SeverityWarning, sent[0].severity)
}

func TestSubmitSuccessNotifiesJournalsAndSyncs(t *testing.T) {
	api := &fakePanelAPI{
		placeTradeFn: func(ctx context.Context, req *domain.OrderRequest) (*domain.OrderResult, error) {
			return &domain.OrderResult{Success: true, Message: "Trade placed successfully", OrderID: "42"}, nil
		},
	}
	gate := &fakeGate{allowed: true}
	journal := &fakeJournal{}
	notifier := &fakeNotifier{}
	s := newSubmitter(api, gate, journal, notifier)

	refreshed := false
	s.SetOnSuccess(func() { refreshed = true })

	req := validOrder()
	result, err := s.Submit(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "42", result.OrderID)

	// Defaults are filled in before the request goes out.
	assert.Equal(t, 5, req.Leverage)
	assert.Equal(t, domain.MarginIsolated, req.MarginMode)

	sent := notifier.all()
	require.Len(t, sent, 1)
	assert.Equal(t, domain.SeveritySuccess, sent[0].severity)
	assert.Equal(t, "Trade placed successfully", sent[0].message)

	entries := journal.saved()
	require.Len(t, entries, 1)
	assert.Equal(t, domain.JournalKindOrder, entries[0].Kind)
	assert.Equal(t, "BTCUSDT", entries[0].Symbol)

	assert.True(t, refreshed)
	assert.Equal(t, 1, gate.syncCalls)
}

func TestSubmitShowsServerMessageVerbatim(t *testing.T) {
	api := &fakePanelAPI{
		placeTradeFn: func(ctx context.Context, req *domain.OrderRequest) (*domain.OrderResult, error) {
			return nil, &domain.BusinessError{Message: "Insufficient margin for BTCUSDT"}
		},
	}
	notifier := &fakeNotifier{}
	s := newSubmitter(api, &fakeGate{allowed: true}, &fakeJournal{}, notifier)

	_, err := s.Submit(context.Background(), validOrder())

	var bizErr *domain.BusinessError
	require.ErrorAs(t, err, &bizErr)

	sent := notifier.all()
	require.Len(t, sent, 1)
	assert.Equal(t, "Insufficient margin for BTCUSDT", sent[0].message)
	assert.Equal(t, domain.SeverityDanger, sent[0].severity)
}

func TestSubmitHidesTransportDetail(t *testing.T) {
	api := &fakePanelAPI{
		placeTradeFn: func(ctx context.Context, req *domain.OrderRequest) (*domain.OrderResult, error) {
			return nil, &domain.TransportError{Op: "place trade", Err: context.DeadlineExceeded}
		},
	}
	notifier := &fakeNotifier{}
	s := newSubmitter(api, &fakeGate{allowed: true}, &fakeJournal{}, notifier)

	_, err := s.Submit(context.Background(), validOrder())
	require.Error(t, err)

	sent := notifier.all()
	require.Len(t, sent, 1)
	assert.Equal(t, "Order could not be sent, please retry", sent[0].message)
}

func TestSubmitSingleInFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	api := &fakePanelAPI{
		placeTradeFn: func(ctx context.Context, req *domain.OrderRequest) (*domain.OrderResult, error) {
			once.Do(func() {
				close(started)
				<-release
			})
			return &domain.OrderResult{Success: true}, nil
		},
	}
	s := newSubmitter(api, &fakeGate{allowed: true}, &fakeJournal{}, &fakeNotifier{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := s.Submit(context.Background(), validOrder())
		assert.NoError(t, err)
	}()

	<-started
	// Second attempt while the first hangs: rejected locally.
	_, err := s.Submit(context.Background(), validOrder())
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "submission", vErr.Field)
	assert.Equal(t, 1, api.tradeCalls())

	close(release)
	wg.Wait()

	// The guard is released, a new submission goes through.
	_, err = s.Submit(context.Background(), validOrder())
	require.NoError(t, err)
	assert.Equal(t, 2, api.tradeCalls())
}

func TestSubmitReleasesGuardAfterFailure(t *testing.T) {
	fail := true
	api := &fakePanelAPI{
		placeTradeFn: func(ctx context.Context, req *domain.OrderRequest) (*domain.OrderResult, error) {
			if fail {
				return nil, &domain.BusinessError{Message: "rejected"}
			}
			return &domain.OrderResult{Success: true}, nil
		},
	}
	s := newSubmitter(api, &fakeGate{allowed: true}, &fakeJournal{}, &fakeNotifier{})

	_, err := s.Submit(context.Background(), validOrder())
	require.Error(t, err)

	fail = false
	_, err = s.Submit(context.Background(), validOrder())
	require.NoError(t, err)
}
