package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lending_go/internal/domain"
)

type stubReader struct {
	markets  []domain.Market
	stats    *domain.LendingStats
	position *domain.LendingPosition
	err      error
	asked    string
}

func (s *stubReader) Markets(context.Context) ([]domain.Market, error) { return s.markets, s.err }

func (s *stubReader) Stats(context.Context) (*domain.LendingStats, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.stats, nil
}

func (s *stubReader) Position(_ context.Context, address string) (*domain.LendingPosition, error) {
	s.asked = address
	return s.position, nil
}

func newStub() *stubReader {
	return &stubReader{
		markets: []domain.Market{{
			ID: "usdt", AssetSymbol: "USDT", AssetDecimals: 6, IsActive: true,
			TotalSupply: "1000000000", TotalBorrowed: "0", AvailableLiquidity: "1000000000",
			UtilizationRate: 1000, SupplyRate: 250, BorrowRateVariable: 400,
		}},
		stats: &domain.LendingStats{TotalMarkets: 1, ActiveMarkets: 1, TotalSupplyUsd: "0", TotalBorrowUsd: "0"},
		position: &domain.LendingPosition{
			UserAddress: "0x742d35Cc6634C0532925a3b844Bc9e7595f1e1E1", HealthFactor: 15000,
			TotalCollateralValueUsd: "0", TotalBorrowedValueUsd: "0",
		},
	}
}

func TestRunPrintsMarketsAndPosition(t *testing.T) {
	api := newStub()
	var out bytes.Buffer

	require.NoError(t, run(context.Background(), &out, api, api.position.UserAddress))

	text := out.String()
	assert.Contains(t, text, "USDT")
	assert.Contains(t, text, "Active")
	assert.Contains(t, text, "10.00%")
	assert.Contains(t, text, "1.50")
	assert.Contains(t, text, "0x742d35...f1e1E1")
	assert.Equal(t, api.position.UserAddress, api.asked)
}

func TestRunSkipsPositionWithoutWallet(t *testing.T) {
	api := newStub()
	var out bytes.Buffer

	require.NoError(t, run(context.Background(), &out, api, ""))
	assert.Empty(t, api.asked)
	assert.Contains(t, out.String(), "건너뜁니다")
}

func TestRunReportsFetchError(t *testing.T) {
	api := newStub()
	api.err = errors.New("boom")

	err := run(context.Background(), &bytes.Buffer{}, api, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}
