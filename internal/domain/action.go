package domain

import "fmt"

// ActionKind names one of the five mutation flows.
type ActionKind string

const (
	ActionSupply    ActionKind = "supply"
	ActionWithdraw  ActionKind = "withdraw"
	ActionBorrow    ActionKind = "borrow"
	ActionRepay     ActionKind = "repay"
	ActionLiquidate ActionKind = "liquidate"
)

// ActionKinds lists every kind in dashboard order.
var ActionKinds = []ActionKind{ActionSupply, ActionWithdraw, ActionBorrow, ActionRepay, ActionLiquidate}

// ParseActionKind validates a kind received from an outer surface.
func ParseActionKind(s string) (ActionKind, error) {
	for _, k := range ActionKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown action kind %q", s)
}

// Title returns the capitalised kind used in notifications.
func (k ActionKind) Title() string {
	switch k {
	case ActionSupply:
		return "Supply"
	case ActionWithdraw:
		return "Withdraw"
	case ActionBorrow:
		return "Borrow"
	case ActionRepay:
		return "Repay"
	case ActionLiquidate:
		return "Liquidation"
	default:
		return string(k)
	}
}

// RateMode is the borrow interest accrual scheme.
type RateMode string

const (
	RateVariable RateMode = "variable"
	RateStable   RateMode = "stable"
)

// Valid reports whether m is a known rate mode.
func (m RateMode) Valid() bool {
	return m == RateVariable || m == RateStable
}

// PendingAction is the transient state of an open action dialog.
// For liquidations TargetMarket is the debt market.
type PendingAction struct {
	Kind             ActionKind `json:"action"`
	TargetMarket     string     `json:"targetMarket"`
	RawDecimalAmount string     `json:"amount"`
	UseAsCollateral  bool       `json:"useAsCollateral,omitempty"`
	RateMode         RateMode   `json:"rateMode,omitempty"`

	// Liquidation only
	BorrowerAddress    string `json:"borrowerAddress,omitempty"`
	CollateralMarketID string `json:"collateralMarketId,omitempty"`
}

// Request bodies. All amounts are base-unit decimal-integer strings.

type SupplyRequest struct {
	UserAddress     string `json:"userAddress"`
	MarketID        string `json:"marketId"`
	Amount          string `json:"amount"`
	UseAsCollateral bool   `json:"useAsCollateral"`
}

type WithdrawRequest struct {
	UserAddress string `json:"userAddress"`
	MarketID    string `json:"marketId"`
	Amount      string `json:"amount"`
}

type BorrowRequest struct {
	UserAddress string   `json:"userAddress"`
	MarketID    string   `json:"marketId"`
	Amount      string   `json:"amount"`
	RateMode    RateMode `json:"rateMode"`
}

type RepayRequest struct {
	UserAddress string `json:"userAddress"`
	MarketID    string `json:"marketId"`
	Amount      string `json:"amount"`
}

type LiquidateRequest struct {
	LiquidatorAddress  string `json:"liquidatorAddress"`
	BorrowerAddress    string `json:"borrowerAddress"`
	DebtMarketID       string `json:"debtMarketId"`
	CollateralMarketID string `json:"collateralMarketId"`
	DebtToCover        string `json:"debtToCover"`
}

// Success payloads.

type SupplyResult struct {
	Supply struct {
		SuppliedAmount string `json:"suppliedAmount"`
		AssetSymbol    string `json:"assetSymbol"`
	} `json:"supply"`
}

type WithdrawResult struct {
	Withdraw struct {
		WithdrawnAmount string `json:"withdrawnAmount"`
		AssetSymbol     string `json:"assetSymbol"`
	} `json:"withdraw"`
}

type BorrowResult struct {
	Borrow struct {
		BorrowedAmount string   `json:"borrowedAmount"`
		AssetSymbol    string   `json:"assetSymbol"`
		RateMode       RateMode `json:"rateMode"`
	} `json:"borrow"`
}

type RepayResult struct {
	Repay struct {
		RepaidAmount string `json:"repaidAmount"`
		AssetSymbol  string `json:"assetSymbol"`
	} `json:"repay"`
}

type LiquidateResult struct {
	Liquidation struct {
		DebtRepaid       string `json:"debtRepaid"`
		DebtSymbol       string `json:"debtSymbol"`
		CollateralSeized string `json:"collateralSeized"`
		CollateralSymbol string `json:"collateralSymbol"`
	} `json:"liquidation"`
}
