package action

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lending_go/internal/cache"
	"lending_go/internal/domain"
	"lending_go/internal/infra/lendingapi"
)

type fakeWallet struct {
	connected, network bool
}

func (w fakeWallet) Connected() bool      { return w.connected }
func (w fakeWallet) CorrectNetwork() bool { return w.network }
func (w fakeWallet) Address() string      { return operator }

type staticMarkets []domain.Market

func (s staticMarkets) Markets(context.Context) ([]domain.Market, error) { return s, nil }

type recordingCache struct {
	mu   sync.Mutex
	keys []string
}

func (r *recordingCache) Invalidate(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, key)
	return nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	items []Notification
}

func (r *recordingNotifier) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

func (r *recordingNotifier) last() Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[len(r.items)-1]
}

type memJournal struct {
	mu   sync.Mutex
	recs []domain.ActionRecord
}

func (m *memJournal) RecordAction(_ context.Context, rec domain.ActionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, rec)
	return nil
}

// fakeGateway answers every call with the configured result or error.
type fakeGateway struct {
	mu    sync.Mutex
	calls int
	err   error
	block chan struct{}

	supply domain.SupplyRequest
	borrow domain.BorrowRequest
}

func (g *fakeGateway) enter() error {
	g.mu.Lock()
	g.calls++
	block := g.block
	g.mu.Unlock()
	if block != nil {
		<-block
	}
	return g.err
}

func (g *fakeGateway) Supply(_ context.Context, req domain.SupplyRequest) (*domain.SupplyResult, error) {
	g.supply = req
	if err := g.enter(); err != nil {
		return nil, err
	}
	var r domain.SupplyResult
	r.Supply.SuppliedAmount = req.Amount
	r.Supply.AssetSymbol = "USDT"
	return &r, nil
}

func (g *fakeGateway) Withdraw(_ context.Context, req domain.WithdrawRequest) (*domain.WithdrawResult, error) {
	if err := g.enter(); err != nil {
		return nil, err
	}
	var r domain.WithdrawResult
	r.Withdraw.WithdrawnAmount = req.Amount
	r.Withdraw.AssetSymbol = "USDT"
	return &r, nil
}

func (g *fakeGateway) Borrow(_ context.Context, req domain.BorrowRequest) (*domain.BorrowResult, error) {
	g.borrow = req
	if err := g.enter(); err != nil {
		return nil, err
	}
	var r domain.BorrowResult
	r.Borrow.BorrowedAmount = req.Amount
	r.Borrow.AssetSymbol = "USDT"
	r.Borrow.RateMode = req.RateMode
	return &r, nil
}

func (g *fakeGateway) Repay(_ context.Context, req domain.RepayRequest) (*domain.RepayResult, error) {
	if err := g.enter(); err != nil {
		return nil, err
	}
	var r domain.RepayResult
	r.Repay.RepaidAmount = req.Amount
	r.Repay.AssetSymbol = "USDT"
	return &r, nil
}

func (g *fakeGateway) Liquidate(_ context.Context, req domain.LiquidateRequest) (*domain.LiquidateResult, error) {
	if err := g.enter(); err != nil {
		return nil, err
	}
	var r domain.LiquidateResult
	r.Liquidation.DebtRepaid = req.DebtToCover
	r.Liquidation.DebtSymbol = "USDT"
	r.Liquidation.CollateralSeized = "105000000000000000"
	r.Liquidation.CollateralSymbol = "WETH"
	return &r, nil
}

func (g *fakeGateway) Close() error { return nil }

func (g *fakeGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type harness struct {
	ctrl     *Controller
	gw       *fakeGateway
	cache    *recordingCache
	notifier *recordingNotifier
	journal  *memJournal
}

func newHarness(w fakeWallet, markets []domain.Market) *harness {
	h := &harness{
		gw:       &fakeGateway{},
		cache:    &recordingCache{},
		notifier: &recordingNotifier{},
		journal:  &memJournal{},
	}
	h.ctrl = NewController(Deps{
		Wallet:   w,
		Markets:  staticMarkets(markets),
		Gateway:  h.gw,
		Cache:    h.cache,
		Notifier: h.notifier,
		Journal:  h.journal,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return h
}

var ready = fakeWallet{connected: true, network: true}

func TestController_SupplyEndToEnd(t *testing.T) {
	h := newHarness(ready, fixtureMarkets())
	d := &Dialog{}
	d.Open(domain.PendingAction{Kind: domain.ActionSupply, TargetMarket: "usdt", UseAsCollateral: true})
	require.True(t, d.SetAmount("10.5"))

	res, err := d.Submit(context.Background(), h.ctrl)
	require.NoError(t, err)

	assert.Equal(t, "10500000", h.gw.supply.Amount)
	assert.Equal(t, []string{cache.KeyMarkets, cache.KeyPositions, cache.KeyStats}, h.cache.keys)

	_, open := d.Pending()
	assert.False(t, open, "dialog must close on success")

	assert.Equal(t, LevelSuccess, res.Notification.Level)
	assert.Equal(t, "Supply Successful", res.Notification.Title)
	assert.Equal(t, "Supplied 10.5000 USDT", res.Notification.Description)
	assert.Equal(t, StatusSucceeded, h.ctrl.State(domain.ActionSupply).Status)

	require.Len(t, h.journal.recs, 1)
	assert.Equal(t, domain.ActionSucceeded, h.journal.recs[0].Status)
	assert.Equal(t, "10500000", h.journal.recs[0].Amount)
}

func TestController_BorrowNotAllowed(t *testing.T) {
	markets := fixtureMarkets()
	markets[0].CanBeBorrowed = false
	h := newHarness(ready, markets)

	_, err := h.ctrl.Borrow(context.Background(), "usdt", "5", domain.RateVariable)
	require.ErrorIs(t, err, ErrPreconditionFailed)
	assert.Equal(t, 0, h.gw.callCount())
	assert.Empty(t, h.cache.keys)
	assert.Equal(t, StatusIdle, h.ctrl.State(domain.ActionBorrow).Status)
	assert.Equal(t, LevelWarning, h.notifier.last().Level)
}

func TestController_LiquidateMissingCollateral(t *testing.T) {
	h := newHarness(ready, fixtureMarkets())

	_, err := h.ctrl.Liquidate(context.Background(), "0x00000000000000000000000000000000000000b0", "usdt", "", "10")
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, 0, h.gw.callCount())
	assert.Empty(t, h.journal.recs)
}

func TestController_WalletPreconditions(t *testing.T) {
	for name, w := range map[string]fakeWallet{
		"disconnected":  {connected: false, network: true},
		"wrong network": {connected: true, network: false},
	} {
		t.Run(name, func(t *testing.T) {
			h := newHarness(w, fixtureMarkets())
			_, err := h.ctrl.Withdraw(context.Background(), "usdt", "1")
			require.ErrorIs(t, err, ErrPreconditionFailed)
			assert.Equal(t, 0, h.gw.callCount())
			assert.Equal(t, StatusIdle, h.ctrl.State(domain.ActionWithdraw).Status)
		})
	}
}

func TestController_WithdrawIgnoresMarketFlags(t *testing.T) {
	markets := fixtureMarkets()
	markets[0].IsActive = false
	markets[0].IsPaused = true
	markets[0].IsFrozen = true
	h := newHarness(ready, markets)

	_, err := h.ctrl.Withdraw(context.Background(), "usdt", "1")
	require.NoError(t, err)

	_, err = h.ctrl.Repay(context.Background(), "usdt", "1")
	require.NoError(t, err)

	_, err = h.ctrl.Supply(context.Background(), "usdt", "1", false)
	assert.ErrorIs(t, err, ErrPreconditionFailed)
}

func TestController_ServerErrorMessage(t *testing.T) {
	h := newHarness(ready, fixtureMarkets())
	h.gw.err = &lendingapi.APIError{Status: 400, Message: "Borrow would put position below liquidation threshold"}

	_, err := h.ctrl.Borrow(context.Background(), "usdt", "5", domain.RateStable)
	require.ErrorIs(t, err, ErrRequestFailed)

	var ae *Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "Borrow would put position below liquidation threshold", ae.Message)
	assert.Equal(t, "Borrow Failed", h.notifier.last().Title)
	assert.Equal(t, StatusIdle, h.ctrl.State(domain.ActionBorrow).Status)
	assert.Empty(t, h.cache.keys, "failures must not invalidate")

	require.Len(t, h.journal.recs, 1)
	assert.Equal(t, domain.ActionFailed, h.journal.recs[0].Status)
}

func TestController_TransportErrorUsesFallback(t *testing.T) {
	h := newHarness(ready, fixtureMarkets())
	h.gw.err = errors.New("dial tcp: connection refused")

	_, err := h.ctrl.Supply(context.Background(), "usdt", "1", true)
	var ae *Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "Failed to supply assets", ae.Message)
	assert.NotContains(t, h.notifier.last().Description, "dial tcp")
}

func TestController_RejectsSecondSubmitWhilePending(t *testing.T) {
	h := newHarness(ready, fixtureMarkets())
	h.gw.block = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := h.ctrl.Repay(context.Background(), "usdt", "1")
		done <- err
	}()

	require.Eventually(t, func() bool {
		return h.ctrl.State(domain.ActionRepay).Status == StatusPending
	}, time.Second, 5*time.Millisecond)

	_, err := h.ctrl.Repay(context.Background(), "usdt", "2")
	assert.ErrorIs(t, err, ErrPreconditionFailed)

	// Other kinds are independent.
	assert.Equal(t, StatusIdle, h.ctrl.State(domain.ActionSupply).Status)

	close(h.gw.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, h.gw.callCount())
	assert.Equal(t, StatusSucceeded, h.ctrl.State(domain.ActionRepay).Status)
}

func TestController_LiquidateFormatsBothLegs(t *testing.T) {
	h := newHarness(ready, fixtureMarkets())

	res, err := h.ctrl.Liquidate(context.Background(), "0x00000000000000000000000000000000000000b0", "usdt", "weth", "100")
	require.NoError(t, err)
	assert.Equal(t, "Liquidation Successful", res.Notification.Title)
	assert.Equal(t, "Repaid 100.0000 USDT and seized 0.105000 WETH", res.Notification.Description)
	assert.Len(t, h.cache.keys, 3)
}

func TestController_BorrowDefaultsToVariable(t *testing.T) {
	h := newHarness(ready, fixtureMarkets())
	res, err := h.ctrl.Borrow(context.Background(), "usdt", "2", "")
	require.NoError(t, err)
	assert.Equal(t, domain.RateVariable, h.gw.borrow.RateMode)
	assert.Equal(t, "Borrowed 2.0000 USDT at variable rate", res.Notification.Description)
}

// downMarkets counts fetches and always fails.
type downMarkets struct {
	mu    sync.Mutex
	calls int
}

func (d *downMarkets) Markets(context.Context) ([]domain.Market, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	return nil, errors.New("GET /api/lending/markets: connection refused")
}

func (d *downMarkets) fetches() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func TestController_InputCheckedBeforeMarketFetch(t *testing.T) {
	h := newHarness(ready, nil)
	src := &downMarkets{}
	h.ctrl.deps.Markets = src
	ctx := context.Background()

	_, err := h.ctrl.Liquidate(ctx, "0x00000000000000000000000000000000000000b0", "usdt", "", "5")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = h.ctrl.Liquidate(ctx, "0x1234", "usdt", "weth", "5")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = h.ctrl.Supply(ctx, "usdt", "abc", false)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = h.ctrl.Repay(ctx, "usdt", "-1")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = h.ctrl.Borrow(ctx, "usdt", "1", domain.RateMode("fixed"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.Equal(t, 0, src.fetches(), "invalid input must not reach the market list")
	assert.Equal(t, 0, h.gw.callCount())
	assert.Equal(t, StatusIdle, h.ctrl.State(domain.ActionLiquidate).Status)
}

func TestController_MarketFetchFailureIsRequestFailed(t *testing.T) {
	h := newHarness(ready, nil)
	src := &downMarkets{}
	h.ctrl.deps.Markets = src

	_, err := h.ctrl.Supply(context.Background(), "usdt", "10", false)
	require.ErrorIs(t, err, ErrRequestFailed)

	var ae *Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "Failed to supply assets", ae.Message)
	assert.Equal(t, 1, src.fetches())
	assert.Equal(t, 0, h.gw.callCount())
}
