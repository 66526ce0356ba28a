package execution

import (
	"context"
	"log/slog"
	"time"

	"lending_go/internal/domain"
)

// LoggingGateway logs every mutation and its outcome before delegating.
type LoggingGateway struct {
	next   Gateway
	logger *slog.Logger
}

func NewLoggingGateway(next Gateway, mode string, logger *slog.Logger) *LoggingGateway {
	return &LoggingGateway{
		next:   next,
		logger: logger.With("component", "gateway", "mode", mode),
	}
}

func (g *LoggingGateway) log(kind domain.ActionKind, market, amount string, start time.Time, err error) {
	attrs := []any{
		slog.String("kind", string(kind)),
		slog.String("market", market),
		slog.String("amount", amount),
		slog.Int64("latency_ms", time.Since(start).Milliseconds()),
	}
	if err != nil {
		g.logger.Warn("EXECUTION: request failed", append(attrs, slog.Any("error", err))...)
		return
	}
	g.logger.Info("EXECUTION: request accepted", attrs...)
}

func (g *LoggingGateway) Supply(ctx context.Context, req domain.SupplyRequest) (*domain.SupplyResult, error) {
	start := time.Now()
	res, err := g.next.Supply(ctx, req)
	g.log(domain.ActionSupply, req.MarketID, req.Amount, start, err)
	return res, err
}

func (g *LoggingGateway) Withdraw(ctx context.Context, req domain.WithdrawRequest) (*domain.WithdrawResult, error) {
	start := time.Now()
	res, err := g.next.Withdraw(ctx, req)
	g.log(domain.ActionWithdraw, req.MarketID, req.Amount, start, err)
	return res, err
}

func (g *LoggingGateway) Borrow(ctx context.Context, req domain.BorrowRequest) (*domain.BorrowResult, error) {
	start := time.Now()
	res, err := g.next.Borrow(ctx, req)
	g.log(domain.ActionBorrow, req.MarketID, req.Amount, start, err)
	return res, err
}

func (g *LoggingGateway) Repay(ctx context.Context, req domain.RepayRequest) (*domain.RepayResult, error) {
	start := time.Now()
	res, err := g.next.Repay(ctx, req)
	g.log(domain.ActionRepay, req.MarketID, req.Amount, start, err)
	return res, err
}

func (g *LoggingGateway) Liquidate(ctx context.Context, req domain.LiquidateRequest) (*domain.LiquidateResult, error) {
	start := time.Now()
	res, err := g.next.Liquidate(ctx, req)
	g.log(domain.ActionLiquidate, req.DebtMarketID, req.DebtToCover, start, err)
	return res, err
}

func (g *LoggingGateway) Close() error {
	return g.next.Close()
}
