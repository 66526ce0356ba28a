package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"lending_go/internal/domain"
	"lending_go/internal/infra"
	"lending_go/internal/infra/lendingapi"
	"lending_go/internal/view"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	address := flag.String("address", "", "wallet to inspect (default: wallet.address)")
	flag.Parse()

	cfg, err := infra.LoadConfig(infra.ResolveConfigPath(*configPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ 설정 로드 실패: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.ApplySecrets(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ 시크릿 로드 실패: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	client := lendingapi.New(lendingapi.ConfigFrom(cfg.API, cfg.API.BaseURL, infra.UserAgent(cfg.App.Version)), nil, logger)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	wallet := *address
	if wallet == "" {
		wallet = cfg.Wallet.Address
	}
	if err := run(ctx, os.Stdout, client, wallet); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

// reader is the read side of the lending API used by the check.
type reader interface {
	Markets(ctx context.Context) ([]domain.Market, error)
	Stats(ctx context.Context) (*domain.LendingStats, error)
	Position(ctx context.Context, address string) (*domain.LendingPosition, error)
}

func run(ctx context.Context, w io.Writer, api reader, wallet string) error {
	fmt.Fprintln(w, "=== Lending Market Check ===")
	fmt.Fprintln(w)

	// 1. 프로토콜 통계
	stats, err := api.Stats(ctx)
	if err != nil {
		return fmt.Errorf("stats 조회 실패: %w", err)
	}
	sv := view.Stats(*stats)
	fmt.Fprintf(w, "📊 프로토콜 통계\n")
	fmt.Fprintf(w, "   마켓:       %d (활성 %d)\n", sv.TotalMarkets, sv.ActiveMarkets)
	fmt.Fprintf(w, "   총 예치:    %s\n", sv.TotalSupply)
	fmt.Fprintf(w, "   총 대출:    %s\n", sv.TotalBorrow)
	fmt.Fprintf(w, "   평균 APY:   예치 %s / 대출 %s\n", sv.AvgSupplyAPY, sv.AvgBorrowAPY)
	fmt.Fprintln(w)

	// 2. 마켓 목록
	markets, err := api.Markets(ctx)
	if err != nil {
		return fmt.Errorf("markets 조회 실패: %w", err)
	}
	fmt.Fprintf(w, "🏦 마켓 %d개\n", len(markets))
	for _, mv := range view.Markets(markets) {
		fmt.Fprintf(w, "   %-6s %-8s 예치 %-10s 대출 %-10s 이용률 %-7s 예치APY %-7s 대출APY %s\n",
			mv.Symbol, mv.Status, mv.TotalSupply, mv.TotalBorrowed, mv.Utilization, mv.SupplyAPY, mv.BorrowAPYVariable)
	}
	fmt.Fprintln(w)

	if wallet == "" {
		fmt.Fprintln(w, "ℹ️  지갑 주소가 없어 포지션 조회를 건너뜁니다.")
		return nil
	}

	// 3. 포지션
	pos, err := api.Position(ctx, wallet)
	if err != nil {
		return fmt.Errorf("position 조회 실패: %w", err)
	}
	pv := view.Position(*pos, markets)
	fmt.Fprintf(w, "👛 포지션 %s\n", view.ShortAddress(wallet))
	fmt.Fprintf(w, "   담보 가치:  %s\n", pv.Collateral)
	fmt.Fprintf(w, "   대출 가치:  %s\n", pv.Borrowed)
	fmt.Fprintf(w, "   헬스 팩터:  %s (%s)\n", pv.HealthFactor, pv.HealthColor)
	for _, s := range pv.Supplies {
		fmt.Fprintf(w, "   + %-6s %s\n", s.Symbol, s.Amount)
	}
	for _, b := range pv.Borrows {
		fmt.Fprintf(w, "   - %-6s %s (%s)\n", b.Symbol, b.Amount, b.RateMode)
	}
	return nil
}
