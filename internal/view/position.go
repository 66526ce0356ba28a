package view

import (
	"lending_go/internal/domain"
	"lending_go/pkg/quant"
)

type SupplyRow struct {
	MarketID     string `json:"marketId"`
	Symbol       string `json:"symbol"`
	Amount       string `json:"amount"`
	Value        string `json:"value"`
	APY          string `json:"apy"`
	IsCollateral bool   `json:"isCollateral"`
}

type BorrowRow struct {
	MarketID        string `json:"marketId"`
	Symbol          string `json:"symbol"`
	Amount          string `json:"amount"`
	Value           string `json:"value"`
	APY             string `json:"apy"`
	RateMode        string `json:"rateMode"`
	AccruedInterest string `json:"accruedInterest"`
}

type PositionView struct {
	Address        string      `json:"address"`
	Collateral     string      `json:"collateral"`
	Borrowed       string      `json:"borrowed"`
	HealthFactor   string      `json:"healthFactor"`
	HealthColor    string      `json:"healthColor"`
	HealthStatus   string      `json:"healthStatus"`
	NetAPY         string      `json:"netApy"`
	BorrowCapacity string      `json:"borrowCapacity"`
	Supplies       []SupplyRow `json:"supplies"`
	Borrows        []BorrowRow `json:"borrows"`
}

// Position formats p. markets supplies per-asset decimals; unknown markets
// fall back to 18.
func Position(p domain.LendingPosition, markets []domain.Market) PositionView {
	v := PositionView{
		Address:        p.UserAddress,
		Collateral:     quant.USDAmountToDisplay(p.TotalCollateralValueUsd),
		Borrowed:       quant.USDAmountToDisplay(p.TotalBorrowedValueUsd),
		HealthFactor:   domain.DisplayHealthFactor(p.HealthFactor),
		HealthColor:    string(domain.ColorBucket(p.HealthFactor)),
		HealthStatus:   p.HealthStatus.Label(),
		NetAPY:         quant.BpsToPercentDisplay(p.NetApy),
		BorrowCapacity: quant.USDAmountToDisplay(p.BorrowCapacityRemaining),
		Supplies:       make([]SupplyRow, 0, len(p.SupplyDetails)),
		Borrows:        make([]BorrowRow, 0, len(p.BorrowDetails)),
	}
	for _, s := range p.SupplyDetails {
		dec := decimalsFor(markets, s.MarketID)
		v.Supplies = append(v.Supplies, SupplyRow{
			MarketID:     s.MarketID,
			Symbol:       s.AssetSymbol,
			Amount:       quant.TokenAmountToDisplay(s.SuppliedAmount, dec),
			Value:        quant.USDAmountToDisplay(s.ValueUsd),
			APY:          quant.BpsToPercentDisplay(s.SupplyRate),
			IsCollateral: s.IsCollateral,
		})
	}
	for _, b := range p.BorrowDetails {
		dec := decimalsFor(markets, b.MarketID)
		v.Borrows = append(v.Borrows, BorrowRow{
			MarketID:        b.MarketID,
			Symbol:          b.AssetSymbol,
			Amount:          quant.TokenAmountToDisplay(b.BorrowedAmount, dec),
			Value:           quant.USDAmountToDisplay(b.ValueUsd),
			APY:             quant.BpsToPercentDisplay(b.BorrowRate),
			RateMode:        string(b.RateMode),
			AccruedInterest: quant.TokenAmountToDisplay(b.AccruedInterest, dec),
		})
	}
	return v
}

func decimalsFor(markets []domain.Market, id string) int {
	if m := domain.FindMarket(markets, id); m != nil {
		return m.AssetDecimals
	}
	return wireDecimals
}
