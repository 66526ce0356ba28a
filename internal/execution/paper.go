package execution

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/holiman/uint256"

	"lending_go/internal/domain"
	"lending_go/internal/infra/lendingapi"
	"lending_go/pkg/quant"
	"lending_go/pkg/safe"
)

const basisPoints = 10_000

// PaperGateway simulates mutations against in-memory balances.
// Prices are not modelled: liquidations convert debt to collateral 1:1 by unit before the penalty.
type PaperGateway struct {
	markets MarketSource

	mu       sync.Mutex
	supplied map[string]*uint256.Int // wallet|market
	debt     map[string]*uint256.Int
}

// NewPaperGateway creates a new paper executor backed by live market metadata.
func NewPaperGateway(markets MarketSource) *PaperGateway {
	return &PaperGateway{
		markets:  markets,
		supplied: make(map[string]*uint256.Int),
		debt:     make(map[string]*uint256.Int),
	}
}

func bookKey(wallet, marketID string) string {
	return strings.ToLower(wallet) + "|" + marketID
}

func rejected(status int, msg string) error {
	return &lendingapi.APIError{Status: status, Message: msg, Endpoint: "paper"}
}

func balanceOf(book map[string]*uint256.Int, key string) *uint256.Int {
	if v, ok := book[key]; ok {
		return v
	}
	return new(uint256.Int)
}

func (p *PaperGateway) market(ctx context.Context, id string) (*domain.Market, error) {
	markets, err := p.markets.Markets(ctx)
	if err != nil {
		return nil, fmt.Errorf("paper: load markets: %w", err)
	}
	m := domain.FindMarket(markets, id)
	if m == nil {
		return nil, rejected(http.StatusNotFound, "Market not found")
	}
	return m, nil
}

func parseAmount(s string) (*uint256.Int, error) {
	v, err := quant.ParseBaseUnits(s)
	if err != nil || v.IsZero() {
		return nil, rejected(http.StatusBadRequest, "Amount must be a positive integer")
	}
	return v, nil
}

func (p *PaperGateway) Supply(ctx context.Context, req domain.SupplyRequest) (*domain.SupplyResult, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	m, err := p.market(ctx, req.MarketID)
	if err != nil {
		return nil, err
	}
	if !m.CanSupply() {
		return nil, rejected(http.StatusBadRequest, "Market is not active")
	}

	p.mu.Lock()
	key := bookKey(req.UserAddress, m.ID)
	total, overflow := new(uint256.Int).AddOverflow(balanceOf(p.supplied, key), amount)
	if !overflow {
		p.supplied[key] = total
	}
	p.mu.Unlock()
	if overflow {
		return nil, rejected(http.StatusBadRequest, "Supply amount overflows")
	}

	var res domain.SupplyResult
	res.Supply.SuppliedAmount = amount.Dec()
	res.Supply.AssetSymbol = m.AssetSymbol
	return &res, nil
}

func (p *PaperGateway) Withdraw(ctx context.Context, req domain.WithdrawRequest) (*domain.WithdrawResult, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	m, err := p.market(ctx, req.MarketID)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	key := bookKey(req.UserAddress, m.ID)
	bal := balanceOf(p.supplied, key)
	if bal.Lt(amount) {
		return nil, rejected(http.StatusBadRequest, "Insufficient supplied balance")
	}
	p.supplied[key] = safe.SafeSub(bal, amount)

	var res domain.WithdrawResult
	res.Withdraw.WithdrawnAmount = amount.Dec()
	res.Withdraw.AssetSymbol = m.AssetSymbol
	return &res, nil
}

func (p *PaperGateway) Borrow(ctx context.Context, req domain.BorrowRequest) (*domain.BorrowResult, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	m, err := p.market(ctx, req.MarketID)
	if err != nil {
		return nil, err
	}
	if !m.CanBorrow() {
		return nil, rejected(http.StatusBadRequest, "Market does not allow borrowing")
	}
	if liquidity, err := quant.ParseBaseUnits(m.AvailableLiquidity); err == nil && liquidity.Lt(amount) {
		return nil, rejected(http.StatusBadRequest, "Insufficient liquidity")
	}

	p.mu.Lock()
	key := bookKey(req.UserAddress, m.ID)
	total, overflow := new(uint256.Int).AddOverflow(balanceOf(p.debt, key), amount)
	if !overflow {
		p.debt[key] = total
	}
	p.mu.Unlock()
	if overflow {
		return nil, rejected(http.StatusBadRequest, "Borrow amount overflows")
	}

	var res domain.BorrowResult
	res.Borrow.BorrowedAmount = amount.Dec()
	res.Borrow.AssetSymbol = m.AssetSymbol
	res.Borrow.RateMode = req.RateMode
	return &res, nil
}

// Repay caps the repayment at the outstanding debt.
func (p *PaperGateway) Repay(ctx context.Context, req domain.RepayRequest) (*domain.RepayResult, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	m, err := p.market(ctx, req.MarketID)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	key := bookKey(req.UserAddress, m.ID)
	owed := balanceOf(p.debt, key)
	if owed.IsZero() {
		return nil, rejected(http.StatusBadRequest, "No outstanding debt to repay")
	}
	repaid := amount
	if repaid.Gt(owed) {
		repaid = owed
	}
	p.debt[key] = safe.SafeSub(owed, repaid)

	var res domain.RepayResult
	res.Repay.RepaidAmount = repaid.Dec()
	res.Repay.AssetSymbol = m.AssetSymbol
	return &res, nil
}

func (p *PaperGateway) Liquidate(ctx context.Context, req domain.LiquidateRequest) (*domain.LiquidateResult, error) {
	amount, err := parseAmount(req.DebtToCover)
	if err != nil {
		return nil, err
	}
	debtMarket, err := p.market(ctx, req.DebtMarketID)
	if err != nil {
		return nil, err
	}
	collMarket, err := p.market(ctx, req.CollateralMarketID)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	debtKey := bookKey(req.BorrowerAddress, debtMarket.ID)
	owed := balanceOf(p.debt, debtKey)
	if owed.IsZero() {
		return nil, rejected(http.StatusBadRequest, "Borrower not eligible for liquidation")
	}
	repaid := amount
	if repaid.Gt(owed) {
		repaid = owed
	}

	seized, ok := seizeAmount(repaid, debtMarket.AssetDecimals, collMarket.AssetDecimals, collMarket.LiquidationPenalty)
	if !ok {
		return nil, rejected(http.StatusBadRequest, "Liquidation amount overflows")
	}
	collKey := bookKey(req.BorrowerAddress, collMarket.ID)
	if coll := balanceOf(p.supplied, collKey); seized.Gt(coll) {
		seized = coll
	}

	p.debt[debtKey] = safe.SafeSub(owed, repaid)
	p.supplied[collKey] = safe.SafeSub(balanceOf(p.supplied, collKey), seized)

	var res domain.LiquidateResult
	res.Liquidation.DebtRepaid = repaid.Dec()
	res.Liquidation.DebtSymbol = debtMarket.AssetSymbol
	res.Liquidation.CollateralSeized = seized.Dec()
	res.Liquidation.CollateralSymbol = collMarket.AssetSymbol
	return &res, nil
}

// seizeAmount rescales repaid from debt to collateral decimals and adds the penalty in bps.
func seizeAmount(repaid *uint256.Int, debtDecimals, collDecimals int, penaltyBps int64) (*uint256.Int, bool) {
	out := new(uint256.Int).Set(repaid)
	switch {
	case collDecimals > debtDecimals:
		scale, ok := safe.Pow10(collDecimals - debtDecimals)
		if !ok {
			return nil, false
		}
		if _, overflow := out.MulOverflow(out, scale); overflow {
			return nil, false
		}
	case collDecimals < debtDecimals:
		scale, ok := safe.Pow10(debtDecimals - collDecimals)
		if !ok {
			return nil, false
		}
		out.Div(out, scale)
	}

	if penaltyBps < 0 {
		penaltyBps = 0
	}
	factor := uint256.NewInt(uint64(basisPoints + penaltyBps))
	if _, overflow := out.MulOverflow(out, factor); overflow {
		return nil, false
	}
	return out.Div(out, uint256.NewInt(basisPoints)), true
}

// Balances returns the simulated supplied and borrowed base units of wallet in marketID.
func (p *PaperGateway) Balances(wallet, marketID string) (supplied, borrowed string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := bookKey(wallet, marketID)
	return balanceOf(p.supplied, key).Dec(), balanceOf(p.debt, key).Dec()
}

func (p *PaperGateway) Close() error { return nil }
