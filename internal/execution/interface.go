package execution

import (
	"context"

	"lending_go/internal/domain"
)

// Gateway submits lending mutations. Amounts are base-unit strings.
type Gateway interface {
	Supply(ctx context.Context, req domain.SupplyRequest) (*domain.SupplyResult, error)
	Withdraw(ctx context.Context, req domain.WithdrawRequest) (*domain.WithdrawResult, error)
	Borrow(ctx context.Context, req domain.BorrowRequest) (*domain.BorrowResult, error)
	Repay(ctx context.Context, req domain.RepayRequest) (*domain.RepayResult, error)
	Liquidate(ctx context.Context, req domain.LiquidateRequest) (*domain.LiquidateResult, error)

	// Close cleans up resources.
	Close() error
}

// MarketSource resolves market metadata for simulated execution.
type MarketSource interface {
	Markets(ctx context.Context) ([]domain.Market, error)
}
