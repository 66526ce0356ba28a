package execution

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lending_go/internal/domain"
	"lending_go/internal/infra/lendingapi"
)

const wallet = "0x742d35Cc6634C0532925a3b844Bc9e7595f1e1E1"

type staticMarkets []domain.Market

func (s staticMarkets) Markets(context.Context) ([]domain.Market, error) { return s, nil }

func testMarkets() staticMarkets {
	return staticMarkets{
		{ID: "usdt", AssetSymbol: "USDT", AssetDecimals: 6, IsActive: true, CanBeBorrowed: true, AvailableLiquidity: "1000000000"},
		{ID: "weth", AssetSymbol: "WETH", AssetDecimals: 18, IsActive: true, CanBeCollateral: true, LiquidationPenalty: 500},
		{ID: "dead", AssetSymbol: "DEAD", AssetDecimals: 18},
	}
}

func serverMessage(t *testing.T, err error) string {
	t.Helper()
	msg, ok := lendingapi.ServerMessage(err)
	require.True(t, ok, "expected APIError, got %v", err)
	return msg
}

func TestPaperGateway_SupplyWithdraw(t *testing.T) {
	ctx := context.Background()
	p := NewPaperGateway(testMarkets())

	res, err := p.Supply(ctx, domain.SupplyRequest{UserAddress: wallet, MarketID: "usdt", Amount: "10500000"})
	require.NoError(t, err)
	assert.Equal(t, "10500000", res.Supply.SuppliedAmount)
	assert.Equal(t, "USDT", res.Supply.AssetSymbol)

	_, err = p.Withdraw(ctx, domain.WithdrawRequest{UserAddress: wallet, MarketID: "usdt", Amount: "20000000"})
	assert.Equal(t, "Insufficient supplied balance", serverMessage(t, err))

	w, err := p.Withdraw(ctx, domain.WithdrawRequest{UserAddress: wallet, MarketID: "usdt", Amount: "500000"})
	require.NoError(t, err)
	assert.Equal(t, "500000", w.Withdraw.WithdrawnAmount)

	supplied, _ := p.Balances(wallet, "usdt")
	assert.Equal(t, "10000000", supplied)
}

func TestPaperGateway_Rejections(t *testing.T) {
	ctx := context.Background()
	p := NewPaperGateway(testMarkets())

	_, err := p.Supply(ctx, domain.SupplyRequest{UserAddress: wallet, MarketID: "dead", Amount: "1"})
	assert.Equal(t, "Market is not active", serverMessage(t, err))

	_, err = p.Borrow(ctx, domain.BorrowRequest{UserAddress: wallet, MarketID: "weth", Amount: "1", RateMode: domain.RateVariable})
	assert.Equal(t, "Market does not allow borrowing", serverMessage(t, err))

	_, err = p.Borrow(ctx, domain.BorrowRequest{UserAddress: wallet, MarketID: "usdt", Amount: "1000000001", RateMode: domain.RateVariable})
	assert.Equal(t, "Insufficient liquidity", serverMessage(t, err))

	_, err = p.Repay(ctx, domain.RepayRequest{UserAddress: wallet, MarketID: "usdt", Amount: "1"})
	assert.Equal(t, "No outstanding debt to repay", serverMessage(t, err))

	_, err = p.Supply(ctx, domain.SupplyRequest{UserAddress: wallet, MarketID: "missing", Amount: "1"})
	var apiErr *lendingapi.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 404, apiErr.Status)

	_, err = p.Supply(ctx, domain.SupplyRequest{UserAddress: wallet, MarketID: "usdt", Amount: "0"})
	assert.Error(t, err)
}

func TestPaperGateway_RepayCapsAtDebt(t *testing.T) {
	ctx := context.Background()
	p := NewPaperGateway(testMarkets())

	b, err := p.Borrow(ctx, domain.BorrowRequest{UserAddress: wallet, MarketID: "usdt", Amount: "300", RateMode: domain.RateStable})
	require.NoError(t, err)
	assert.Equal(t, domain.RateStable, b.Borrow.RateMode)

	r, err := p.Repay(ctx, domain.RepayRequest{UserAddress: wallet, MarketID: "usdt", Amount: "1000"})
	require.NoError(t, err)
	assert.Equal(t, "300", r.Repay.RepaidAmount)

	_, borrowed := p.Balances(wallet, "usdt")
	assert.Equal(t, "0", borrowed)
}

func TestPaperGateway_Liquidate(t *testing.T) {
	ctx := context.Background()
	p := NewPaperGateway(testMarkets())
	borrower := "0x00000000000000000000000000000000000000b0"

	_, err := p.Supply(ctx, domain.SupplyRequest{UserAddress: borrower, MarketID: "weth", Amount: "5000000000000000000"})
	require.NoError(t, err)
	_, err = p.Borrow(ctx, domain.BorrowRequest{UserAddress: borrower, MarketID: "usdt", Amount: "2000000", RateMode: domain.RateVariable})
	require.NoError(t, err)

	res, err := p.Liquidate(ctx, domain.LiquidateRequest{
		LiquidatorAddress:  wallet,
		BorrowerAddress:    borrower,
		DebtMarketID:       "usdt",
		CollateralMarketID: "weth",
		DebtToCover:        "1000000",
	})
	require.NoError(t, err)
	assert.Equal(t, "1000000", res.Liquidation.DebtRepaid)
	assert.Equal(t, "USDT", res.Liquidation.DebtSymbol)
	// 1 unit of debt rescaled to 18 decimals plus 5%
	assert.Equal(t, "1050000000000000000", res.Liquidation.CollateralSeized)
	assert.Equal(t, "WETH", res.Liquidation.CollateralSymbol)

	_, debt := p.Balances(borrower, "usdt")
	assert.Equal(t, "1000000", debt)
	coll, _ := p.Balances(borrower, "weth")
	assert.Equal(t, "3950000000000000000", coll)
}

func TestSeizeAmount_DownscaleAndOverflow(t *testing.T) {
	v, ok := seizeAmount(mustBase(t, "1000000000000000000"), 18, 6, 0)
	require.True(t, ok)
	assert.Equal(t, "1000000", v.Dec())

	max := "115792089237316195423570985008687907853269984665640564039457584007913129639935"
	_, ok = seizeAmount(mustBase(t, max), 6, 18, 0)
	assert.False(t, ok)
}
