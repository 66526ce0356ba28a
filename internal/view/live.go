package view

import (
	"lending_go/internal/domain"
	"lending_go/pkg/quant"
)

type TransactionRow struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Tone    string `json:"tone"`
	Symbol  string `json:"symbol"`
	User    string `json:"user"`
	Amount  string `json:"amount"`
	Value   string `json:"value"`
	Status  string `json:"status"`
	Settled bool   `json:"settled"`
}

type LiquidationRow struct {
	ID               string `json:"id"`
	Borrower         string `json:"borrower"`
	Liquidator       string `json:"liquidator"`
	DebtRepaid       string `json:"debtRepaid"`
	DebtSymbol       string `json:"debtSymbol"`
	CollateralSeized string `json:"collateralSeized"`
	CollateralSymbol string `json:"collateralSymbol"`
	Bonus            string `json:"bonus"`
}

type LiveView struct {
	Stats             *StatsView       `json:"stats"`
	Transactions      []TransactionRow `json:"transactions"`
	Liquidations      []LiquidationRow `json:"liquidations"`
	AtRiskCount       int              `json:"atRiskCount"`
	LiquidatableCount int              `json:"liquidatableCount"`
	UpdatedUnixM      int64            `json:"updatedUnixM,string"`
}

var txTones = map[string]string{
	"supply":      "green",
	"withdraw":    "orange",
	"borrow":      "blue",
	"repay":       "purple",
	"liquidation": "red",
}

// Live formats the push snapshot. Feed amounts carry no decimals and are
// shown at 18.
func Live(s domain.LiveSnapshot) LiveView {
	v := LiveView{
		Transactions:      make([]TransactionRow, 0, len(s.RecentTransactions)),
		Liquidations:      make([]LiquidationRow, 0, len(s.RecentLiquidations)),
		AtRiskCount:       s.RiskCounts.AtRiskCount,
		LiquidatableCount: s.RiskCounts.LiquidatableCount,
		UpdatedUnixM:      s.UpdatedUnixM,
	}
	if s.Stats != nil {
		st := Stats(*s.Stats)
		v.Stats = &st
	}
	for _, tx := range s.RecentTransactions {
		tone, ok := txTones[tx.TxType]
		if !ok {
			tone = "muted"
		}
		value := "-"
		if tx.AmountUsd != nil {
			value = quant.USDAmountToDisplay(*tx.AmountUsd)
		}
		v.Transactions = append(v.Transactions, TransactionRow{
			ID:      tx.ID,
			Type:    tx.TxType,
			Tone:    tone,
			Symbol:  tx.AssetSymbol,
			User:    ShortAddress(tx.UserAddress),
			Amount:  quant.TokenAmountToDisplay(tx.Amount, wireDecimals),
			Value:   value,
			Status:  tx.Status,
			Settled: tx.Status == "completed",
		})
	}
	for _, l := range s.RecentLiquidations {
		v.Liquidations = append(v.Liquidations, LiquidationRow{
			ID:               l.ID,
			Borrower:         ShortAddress(l.BorrowerAddress),
			Liquidator:       ShortAddress(l.LiquidatorAddress),
			DebtRepaid:       quant.TokenAmountToDisplay(l.DebtRepaid, wireDecimals),
			DebtSymbol:       l.DebtSymbol,
			CollateralSeized: quant.TokenAmountToDisplay(l.CollateralSeized, wireDecimals),
			CollateralSymbol: l.CollateralSymbol,
			Bonus:            quant.TokenAmountToDisplay(l.LiquidationBonus, wireDecimals),
		})
	}
	return v
}

// ShortAddress renders 0x1234ab...cdef12; short inputs are returned unchanged.
func ShortAddress(addr string) string {
	if len(addr) <= 14 {
		return addr
	}
	return addr[:8] + "..." + addr[len(addr)-6:]
}
