package action

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"lending_go/internal/domain"
	"lending_go/pkg/quant"
)

// Request is a validated, base-unit denominated submission.
// Exactly one body field is set, matching Kind.
type Request struct {
	Kind   domain.ActionKind
	Market *domain.Market // debt market for liquidations

	Collateral *domain.Market // liquidation only

	Supply    *domain.SupplyRequest
	Withdraw  *domain.WithdrawRequest
	Borrow    *domain.BorrowRequest
	Repay     *domain.RepayRequest
	Liquidate *domain.LiquidateRequest
}

// Amount returns the base-unit amount carried by the body.
func (r *Request) Amount() string {
	switch {
	case r.Supply != nil:
		return r.Supply.Amount
	case r.Withdraw != nil:
		return r.Withdraw.Amount
	case r.Borrow != nil:
		return r.Borrow.Amount
	case r.Repay != nil:
		return r.Repay.Amount
	case r.Liquidate != nil:
		return r.Liquidate.DebtToCover
	}
	return ""
}

// BaseUnits converts dialog text to a base-unit string for decimals.
func BaseUnits(kind domain.ActionKind, raw string, decimals int) (string, error) {
	amount := quant.DecimalStringToBaseUnits(raw, decimals)
	if amount == "0" {
		return "", newError(ErrInvalidAmount, kind, "Enter an amount greater than zero")
	}
	return amount, nil
}

// Validate runs every check that needs no market data: required fields,
// the borrower address, the rate mode and that the amount is a positive
// decimal. Scaling to base units happens in Build.
func Validate(pa domain.PendingAction) error {
	kind := pa.Kind
	raw := strings.TrimSpace(pa.RawDecimalAmount)

	switch kind {
	case domain.ActionLiquidate:
		borrower := strings.TrimSpace(pa.BorrowerAddress)
		if borrower == "" || strings.TrimSpace(pa.TargetMarket) == "" ||
			strings.TrimSpace(pa.CollateralMarketID) == "" || raw == "" {
			return newError(ErrInvalidInput, kind, "Please fill in all fields")
		}
		if !common.IsHexAddress(borrower) {
			return newError(ErrInvalidInput, kind, "Invalid borrower address")
		}
	case domain.ActionSupply, domain.ActionWithdraw, domain.ActionBorrow, domain.ActionRepay:
		if strings.TrimSpace(pa.TargetMarket) == "" {
			return newError(ErrInvalidInput, kind, "Select a market")
		}
		if kind == domain.ActionBorrow && pa.RateMode != "" && !pa.RateMode.Valid() {
			return newError(ErrInvalidInput, kind, "Rate mode must be variable or stable")
		}
	default:
		return newError(ErrInvalidInput, kind, "Unknown action")
	}

	if d, err := decimal.NewFromString(raw); err != nil || !d.IsPositive() {
		return newError(ErrInvalidAmount, kind, "Enter an amount greater than zero")
	}
	return nil
}

// Build validates a pending action against the market list and produces the request body
// for the operating wallet. Liquidation amounts use the debt market's decimals.
func Build(operator string, pa domain.PendingAction, markets []domain.Market) (*Request, error) {
	if err := Validate(pa); err != nil {
		return nil, err
	}
	kind := pa.Kind
	if kind == domain.ActionLiquidate {
		return buildLiquidation(operator, pa, markets)
	}

	m := domain.FindMarket(markets, strings.TrimSpace(pa.TargetMarket))
	if m == nil {
		return nil, newError(ErrPreconditionFailed, kind, "Market not found")
	}
	amount, err := BaseUnits(kind, pa.RawDecimalAmount, m.AssetDecimals)
	if err != nil {
		return nil, err
	}

	req := &Request{Kind: kind, Market: m}
	switch kind {
	case domain.ActionSupply:
		req.Supply = &domain.SupplyRequest{
			UserAddress:     operator,
			MarketID:        m.ID,
			Amount:          amount,
			UseAsCollateral: pa.UseAsCollateral && m.CanBeCollateral,
		}
	case domain.ActionWithdraw:
		req.Withdraw = &domain.WithdrawRequest{UserAddress: operator, MarketID: m.ID, Amount: amount}
	case domain.ActionBorrow:
		mode := pa.RateMode
		if mode == "" {
			mode = domain.RateVariable
		}
		req.Borrow = &domain.BorrowRequest{UserAddress: operator, MarketID: m.ID, Amount: amount, RateMode: mode}
	case domain.ActionRepay:
		req.Repay = &domain.RepayRequest{UserAddress: operator, MarketID: m.ID, Amount: amount}
	default:
		return nil, newError(ErrInvalidInput, kind, "Unknown action")
	}
	return req, nil
}

func buildLiquidation(operator string, pa domain.PendingAction, markets []domain.Market) (*Request, error) {
	const kind = domain.ActionLiquidate

	debt := domain.FindMarket(markets, strings.TrimSpace(pa.TargetMarket))
	coll := domain.FindMarket(markets, strings.TrimSpace(pa.CollateralMarketID))
	if debt == nil || coll == nil {
		return nil, newError(ErrPreconditionFailed, kind, "Market not found")
	}

	amount, err := BaseUnits(kind, pa.RawDecimalAmount, debt.AssetDecimals)
	if err != nil {
		return nil, err
	}

	return &Request{
		Kind:       kind,
		Market:     debt,
		Collateral: coll,
		Liquidate: &domain.LiquidateRequest{
			LiquidatorAddress:  operator,
			BorrowerAddress:    common.HexToAddress(strings.TrimSpace(pa.BorrowerAddress)).Hex(),
			DebtMarketID:       debt.ID,
			CollateralMarketID: coll.ID,
			DebtToCover:        amount,
		},
	}, nil
}
