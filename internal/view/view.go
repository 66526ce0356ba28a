// Package view turns lending domain values into display-ready structs.
package view

import (
	"lending_go/internal/domain"
	"lending_go/pkg/quant"
)

// wireDecimals is the scale assumed for feed amounts that carry no decimals.
const wireDecimals = 18

type MarketView struct {
	ID                   string `json:"id"`
	Symbol               string `json:"symbol"`
	Name                 string `json:"name"`
	Decimals             int    `json:"decimals"`
	TotalSupply          string `json:"totalSupply"`
	TotalBorrowed        string `json:"totalBorrowed"`
	AvailableLiquidity   string `json:"availableLiquidity"`
	Utilization          string `json:"utilization"`
	SupplyAPY            string `json:"supplyApy"`
	BorrowAPYVariable    string `json:"borrowApyVariable"`
	BorrowAPYStable      string `json:"borrowApyStable"`
	CollateralFactor     string `json:"collateralFactor"`
	LiquidationThreshold string `json:"liquidationThreshold"`
	LiquidationPenalty   string `json:"liquidationPenalty"`
	SupplyCap            string `json:"supplyCap"`
	BorrowCap            string `json:"borrowCap"`
	Status               string `json:"status"`
	CanSupply            bool   `json:"canSupply"`
	CanBorrow            bool   `json:"canBorrow"`
	CanBeCollateral      bool   `json:"canBeCollateral"`
}

// Market formats one market. Token amounts use the market's own decimals.
func Market(m domain.Market) MarketView {
	return MarketView{
		ID:                   m.ID,
		Symbol:               m.AssetSymbol,
		Name:                 m.AssetName,
		Decimals:             m.AssetDecimals,
		TotalSupply:          quant.TokenAmountToDisplay(m.TotalSupply, m.AssetDecimals),
		TotalBorrowed:        quant.TokenAmountToDisplay(m.TotalBorrowed, m.AssetDecimals),
		AvailableLiquidity:   quant.TokenAmountToDisplay(m.AvailableLiquidity, m.AssetDecimals),
		Utilization:          quant.BpsToPercentDisplay(m.UtilizationRate),
		SupplyAPY:            quant.BpsToPercentDisplay(m.SupplyRate),
		BorrowAPYVariable:    quant.BpsToPercentDisplay(m.BorrowRateVariable),
		BorrowAPYStable:      quant.BpsToPercentDisplay(m.BorrowRateStable),
		CollateralFactor:     quant.BpsToPercentDisplay(m.CollateralFactor),
		LiquidationThreshold: quant.BpsToPercentDisplay(m.LiquidationThreshold),
		LiquidationPenalty:   quant.BpsToPercentDisplay(m.LiquidationPenalty),
		SupplyCap:            capDisplay(m.SupplyCap, m.AssetDecimals),
		BorrowCap:            capDisplay(m.BorrowCap, m.AssetDecimals),
		Status:               marketStatus(m),
		CanSupply:            m.CanSupply(),
		CanBorrow:            m.CanBorrow(),
		CanBeCollateral:      m.CanBeCollateral,
	}
}

func Markets(ms []domain.Market) []MarketView {
	out := make([]MarketView, 0, len(ms))
	for _, m := range ms {
		out = append(out, Market(m))
	}
	return out
}

// BorrowRatePreview is the rate shown in the borrow dialog for mode.
func BorrowRatePreview(m domain.Market, mode domain.RateMode) string {
	if mode == "" {
		mode = domain.RateVariable
	}
	return quant.BpsToPercentDisplay(m.BorrowRate(mode))
}

func capDisplay(c *string, decimals int) string {
	if c == nil {
		return "No cap"
	}
	return quant.TokenAmountToDisplay(*c, decimals)
}

func marketStatus(m domain.Market) string {
	switch {
	case !m.IsActive:
		return "Inactive"
	case m.IsPaused:
		return "Paused"
	case m.IsFrozen:
		return "Frozen"
	default:
		return "Active"
	}
}

type StatsView struct {
	TotalMarkets   int    `json:"totalMarkets"`
	ActiveMarkets  int    `json:"activeMarkets"`
	TotalSupply    string `json:"totalSupply"`
	TotalBorrow    string `json:"totalBorrow"`
	AvgSupplyAPY   string `json:"avgSupplyApy"`
	AvgBorrowAPY   string `json:"avgBorrowApy"`
	AvgUtilization string `json:"avgUtilization"`
}

func Stats(s domain.LendingStats) StatsView {
	return StatsView{
		TotalMarkets:   s.TotalMarkets,
		ActiveMarkets:  s.ActiveMarkets,
		TotalSupply:    quant.USDAmountToDisplay(s.TotalSupplyUsd),
		TotalBorrow:    quant.USDAmountToDisplay(s.TotalBorrowUsd),
		AvgSupplyAPY:   quant.BpsToPercentDisplay(s.AvgSupplyRate),
		AvgBorrowAPY:   quant.BpsToPercentDisplay(s.AvgBorrowRate),
		AvgUtilization: quant.BpsToPercentDisplay(s.AvgUtilization),
	}
}
