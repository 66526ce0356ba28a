package action

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"lending_go/internal/cache"
	"lending_go/internal/domain"
	"lending_go/internal/execution"
	"lending_go/internal/infra/lendingapi"
	"lending_go/pkg/quant"
)

// Status is the per-kind request state.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
)

// KindState is the last known state of one action kind.
type KindState struct {
	Status       Status        `json:"status"`
	LastOutcome  *Notification `json:"lastOutcome,omitempty"`
	UpdatedUnixM int64         `json:"updatedUnixM,string"`
}

// MarketSource supplies the market list used for decimals and gating.
type MarketSource interface {
	Markets(ctx context.Context) ([]domain.Market, error)
}

// Journal persists submitted outcomes.
type Journal interface {
	RecordAction(ctx context.Context, rec domain.ActionRecord) error
}

// Metrics is implemented by *infra.Metrics.
type Metrics interface {
	RecordAction(kind, outcome string, took time.Duration)
	RecordInvalidation(key string)
}

// Deps wires a Controller. Journal and Metrics are optional.
type Deps struct {
	Wallet   Wallet
	Markets  MarketSource
	Gateway  execution.Gateway
	Cache    cache.Invalidator
	Notifier Notifier
	Journal  Journal
	Metrics  Metrics
	Logger   *slog.Logger
}

// Result is a successful submission as reported by the server.
type Result struct {
	Kind         domain.ActionKind `json:"kind"`
	Request      *Request          `json:"-"`
	Notification Notification      `json:"notification"`
	Receipt      any               `json:"receipt"`
}

// Controller runs the five mutation flows. At most one request per kind is in flight.
type Controller struct {
	deps   Deps
	logger *slog.Logger
	now    func() time.Time

	mu     sync.Mutex
	states map[domain.ActionKind]*KindState
}

func NewController(deps Deps) *Controller {
	states := make(map[domain.ActionKind]*KindState, len(domain.ActionKinds))
	for _, k := range domain.ActionKinds {
		states[k] = &KindState{Status: StatusIdle}
	}
	return &Controller{
		deps:   deps,
		logger: deps.Logger.With("component", "action_controller"),
		now:    time.Now,
		states: states,
	}
}

func (c *Controller) Supply(ctx context.Context, marketID, amount string, useAsCollateral bool) (*Result, error) {
	return c.Submit(ctx, domain.PendingAction{
		Kind: domain.ActionSupply, TargetMarket: marketID, RawDecimalAmount: amount, UseAsCollateral: useAsCollateral,
	})
}

func (c *Controller) Withdraw(ctx context.Context, marketID, shares string) (*Result, error) {
	return c.Submit(ctx, domain.PendingAction{
		Kind: domain.ActionWithdraw, TargetMarket: marketID, RawDecimalAmount: shares,
	})
}

func (c *Controller) Borrow(ctx context.Context, marketID, amount string, mode domain.RateMode) (*Result, error) {
	return c.Submit(ctx, domain.PendingAction{
		Kind: domain.ActionBorrow, TargetMarket: marketID, RawDecimalAmount: amount, RateMode: mode,
	})
}

func (c *Controller) Repay(ctx context.Context, marketID, amount string) (*Result, error) {
	return c.Submit(ctx, domain.PendingAction{
		Kind: domain.ActionRepay, TargetMarket: marketID, RawDecimalAmount: amount,
	})
}

func (c *Controller) Liquidate(ctx context.Context, borrower, debtMarketID, collateralMarketID, debtToCover string) (*Result, error) {
	return c.Submit(ctx, domain.PendingAction{
		Kind:               domain.ActionLiquidate,
		TargetMarket:       debtMarketID,
		RawDecimalAmount:   debtToCover,
		BorrowerAddress:    borrower,
		CollateralMarketID: collateralMarketID,
	})
}

// State returns a copy of the state of kind.
func (c *Controller) State(kind domain.ActionKind) KindState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if st, ok := c.states[kind]; ok {
		return *st
	}
	return KindState{Status: StatusIdle}
}

// States returns a copy of every kind's state.
func (c *Controller) States() map[domain.ActionKind]KindState {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[domain.ActionKind]KindState, len(c.states))
	for k, st := range c.states {
		out[k] = *st
	}
	return out
}

// Submit validates pa and, when every precondition holds, sends it.
// Failures before the network call never enter the pending state.
func (c *Controller) Submit(ctx context.Context, pa domain.PendingAction) (*Result, error) {
	kind := pa.Kind
	if _, ok := c.states[kind]; !ok {
		return nil, c.reject(newError(ErrInvalidInput, kind, fmt.Sprintf("Unknown action %q", kind)))
	}

	if !c.deps.Wallet.Connected() {
		return nil, c.reject(newError(ErrPreconditionFailed, kind, "Please connect your wallet"))
	}
	if !c.deps.Wallet.CorrectNetwork() {
		return nil, c.reject(newError(ErrPreconditionFailed, kind, "Please switch to the lending network"))
	}

	if err := Validate(pa); err != nil {
		var ae *Error
		if errors.As(err, &ae) {
			return nil, c.reject(ae)
		}
		return nil, err
	}

	markets, err := c.deps.Markets.Markets(ctx)
	if err != nil {
		e := newError(ErrRequestFailed, kind, fallbackMessage(kind))
		e.Err = err
		return nil, c.reject(e)
	}

	req, err := Build(c.deps.Wallet.Address(), pa, markets)
	if err != nil {
		var ae *Error
		if errors.As(err, &ae) {
			return nil, c.reject(ae)
		}
		return nil, err
	}
	if !req.Market.Allows(kind) {
		return nil, c.reject(newError(ErrPreconditionFailed, kind, gateMessage(req.Market, kind)))
	}

	if !c.begin(kind) {
		return nil, c.reject(newError(ErrPreconditionFailed, kind, fmt.Sprintf("A %s request is already pending", kind)))
	}

	start := c.now()
	receipt, n, err := c.dispatch(ctx, req)
	took := c.now().Sub(start)

	if err != nil {
		msg := fallbackMessage(kind)
		if serverMsg, ok := lendingapi.ServerMessage(err); ok {
			msg = serverMsg
		}
		e := &Error{Kind: ErrRequestFailed, Action: kind, Message: msg, Err: err}
		fail := c.failure(e)
		c.finish(kind, StatusIdle, fail)
		c.record(ctx, req, domain.ActionFailed, msg)
		c.metric(kind, "failed", took)
		c.logger.Warn("action failed", slog.String("kind", string(kind)), slog.Any("error", err))
		c.deps.Notifier.Notify(fail)
		return nil, e
	}

	c.finish(kind, StatusSucceeded, n)
	c.invalidate(ctx)
	c.record(ctx, req, domain.ActionSucceeded, n.Description)
	c.metric(kind, "succeeded", took)
	c.deps.Notifier.Notify(n)

	return &Result{Kind: kind, Request: req, Notification: n, Receipt: receipt}, nil
}

func (c *Controller) begin(kind domain.ActionKind) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.states[kind]
	if st.Status == StatusPending {
		return false
	}
	st.Status = StatusPending
	st.UpdatedUnixM = c.now().UnixMicro()
	return true
}

func (c *Controller) finish(kind domain.ActionKind, to Status, n Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.states[kind]
	st.Status = to
	st.LastOutcome = &n
	st.UpdatedUnixM = c.now().UnixMicro()
}

// reject surfaces a failure detected before any mutation request.
func (c *Controller) reject(e *Error) error {
	c.deps.Notifier.Notify(c.failure(e))
	c.metric(e.Action, "rejected", 0)
	return e
}

func (c *Controller) failure(e *Error) Notification {
	level := LevelError
	if e.Kind == ErrPreconditionFailed {
		level = LevelWarning
	}
	return Notification{Kind: e.Action, Level: level, Title: e.Action.Title() + " Failed", Description: e.Message}
}

func (c *Controller) dispatch(ctx context.Context, req *Request) (any, Notification, error) {
	n := Notification{Kind: req.Kind, Level: LevelSuccess, Title: req.Kind.Title() + " Successful"}
	decimals := req.Market.AssetDecimals

	switch req.Kind {
	case domain.ActionSupply:
		res, err := c.deps.Gateway.Supply(ctx, *req.Supply)
		if err != nil {
			return nil, n, err
		}
		n.Description = fmt.Sprintf("Supplied %s %s", quant.TokenAmountToDisplay(res.Supply.SuppliedAmount, decimals), res.Supply.AssetSymbol)
		return res, n, nil

	case domain.ActionWithdraw:
		res, err := c.deps.Gateway.Withdraw(ctx, *req.Withdraw)
		if err != nil {
			return nil, n, err
		}
		n.Description = fmt.Sprintf("Withdrew %s %s", quant.TokenAmountToDisplay(res.Withdraw.WithdrawnAmount, decimals), res.Withdraw.AssetSymbol)
		return res, n, nil

	case domain.ActionBorrow:
		res, err := c.deps.Gateway.Borrow(ctx, *req.Borrow)
		if err != nil {
			return nil, n, err
		}
		n.Description = fmt.Sprintf("Borrowed %s %s at %s rate", quant.TokenAmountToDisplay(res.Borrow.BorrowedAmount, decimals), res.Borrow.AssetSymbol, res.Borrow.RateMode)
		return res, n, nil

	case domain.ActionRepay:
		res, err := c.deps.Gateway.Repay(ctx, *req.Repay)
		if err != nil {
			return nil, n, err
		}
		n.Description = fmt.Sprintf("Repaid %s %s", quant.TokenAmountToDisplay(res.Repay.RepaidAmount, decimals), res.Repay.AssetSymbol)
		return res, n, nil

	case domain.ActionLiquidate:
		res, err := c.deps.Gateway.Liquidate(ctx, *req.Liquidate)
		if err != nil {
			return nil, n, err
		}
		l := res.Liquidation
		n.Description = fmt.Sprintf("Repaid %s %s and seized %s %s",
			quant.TokenAmountToDisplay(l.DebtRepaid, decimals), l.DebtSymbol,
			quant.TokenAmountToDisplay(l.CollateralSeized, req.Collateral.AssetDecimals), l.CollateralSymbol)
		return res, n, nil
	}
	return nil, n, fmt.Errorf("unsupported action %q", req.Kind)
}

// invalidate drops markets, positions and stats after every success.
func (c *Controller) invalidate(ctx context.Context) {
	for _, key := range cache.MutationKeys {
		if c.deps.Metrics != nil {
			c.deps.Metrics.RecordInvalidation(key)
		}
		if err := c.deps.Cache.Invalidate(ctx, key); err != nil {
			c.logger.Warn("cache invalidation failed", slog.String("key", key), slog.Any("error", err))
		}
	}
}

func (c *Controller) record(ctx context.Context, req *Request, status domain.ActionStatus, msg string) {
	if c.deps.Journal == nil {
		return
	}
	rec := domain.ActionRecord{
		ID:           uuid.NewString(),
		Kind:         req.Kind,
		MarketID:     req.Market.ID,
		Amount:       req.Amount(),
		Status:       status,
		Message:      msg,
		CreatedUnixM: c.now().UnixMicro(),
	}
	if err := c.deps.Journal.RecordAction(ctx, rec); err != nil {
		c.logger.Warn("journal write failed", slog.String("id", rec.ID), slog.Any("error", err))
	}
}

func (c *Controller) metric(kind domain.ActionKind, outcome string, took time.Duration) {
	if c.deps.Metrics != nil {
		c.deps.Metrics.RecordAction(string(kind), outcome, took)
	}
}

func fallbackMessage(kind domain.ActionKind) string {
	switch kind {
	case domain.ActionSupply:
		return "Failed to supply assets"
	case domain.ActionWithdraw:
		return "Failed to withdraw assets"
	case domain.ActionBorrow:
		return "Failed to borrow assets"
	case domain.ActionRepay:
		return "Failed to repay debt"
	case domain.ActionLiquidate:
		return "Failed to liquidate position"
	default:
		return "Request failed"
	}
}

func gateMessage(m *domain.Market, kind domain.ActionKind) string {
	switch {
	case !m.IsActive:
		return "Market is not active"
	case kind == domain.ActionSupply && m.IsPaused:
		return "Market is paused"
	case kind == domain.ActionBorrow && !m.CanBeBorrowed:
		return "Borrowing is not enabled for this market"
	case kind == domain.ActionBorrow && m.IsFrozen:
		return "Market is frozen"
	default:
		return "Action not allowed on this market"
	}
}
