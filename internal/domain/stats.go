package domain

// LendingStats is the protocol-wide summary. It arrives both from GET /api/lending/stats
// and from the lending_markets push message.
type LendingStats struct {
	TotalMarkets   int             `json:"totalMarkets"`
	ActiveMarkets  int             `json:"activeMarkets"`
	TotalSupplyUsd string          `json:"totalSupplyUsd"`
	TotalBorrowUsd string          `json:"totalBorrowUsd"`
	AvgSupplyRate  int64           `json:"avgSupplyRate"`
	AvgBorrowRate  int64           `json:"avgBorrowRate"`
	AvgUtilization int64           `json:"avgUtilization"`
	Markets        []MarketSummary `json:"markets,omitempty"`
}

type MarketSummary struct {
	ID                 string  `json:"id"`
	AssetSymbol        string  `json:"assetSymbol"`
	AssetName          string  `json:"assetName"`
	TotalSupply        *string `json:"totalSupply"`
	TotalBorrowed      *string `json:"totalBorrowed"`
	SupplyRate         int64   `json:"supplyRate"`
	BorrowRateVariable int64   `json:"borrowRateVariable"`
	UtilizationRate    int64   `json:"utilizationRate"`
	CollateralFactor   int64   `json:"collateralFactor"`
	IsActive           bool    `json:"isActive"`
}

type LendingTransaction struct {
	ID          string  `json:"id"`
	TxHash      string  `json:"txHash"`
	UserAddress string  `json:"userAddress"`
	AssetSymbol string  `json:"assetSymbol"`
	TxType      string  `json:"txType"`
	Amount      string  `json:"amount"`
	AmountUsd   *string `json:"amountUsd"`
	Status      string  `json:"status"`
	CreatedAt   *string `json:"createdAt"`
}

type LendingLiquidation struct {
	ID                string  `json:"id"`
	BorrowerAddress   string  `json:"borrowerAddress"`
	LiquidatorAddress string  `json:"liquidatorAddress"`
	CollateralSymbol  string  `json:"collateralSymbol"`
	DebtSymbol        string  `json:"debtSymbol"`
	DebtRepaid        string  `json:"debtRepaid"`
	CollateralSeized  string  `json:"collateralSeized"`
	LiquidationBonus  string  `json:"liquidationBonus"`
	TxHash            string  `json:"txHash"`
	CreatedAt         *string `json:"createdAt"`
}

// RiskCounts is the risk-monitor snapshot.
type RiskCounts struct {
	AtRiskCount       int `json:"atRiskCount"`
	LiquidatableCount int `json:"liquidatableCount"`
}

// LiveSnapshot aggregates the latest push payload of each type.
// Each slice is replaced wholesale; nothing is merged.
type LiveSnapshot struct {
	Stats              *LendingStats        `json:"lendingStats"`
	RecentTransactions []LendingTransaction `json:"recentTransactions"`
	RecentLiquidations []LendingLiquidation `json:"recentLiquidations"`
	RiskCounts         RiskCounts           `json:"riskCounts"`
	UpdatedUnixM       int64                `json:"updatedUnixM,string"`
}

// Clone returns a deep copy safe to hand to another goroutine.
func (s LiveSnapshot) Clone() LiveSnapshot {
	out := s
	if s.Stats != nil {
		st := *s.Stats
		st.Markets = append([]MarketSummary(nil), s.Stats.Markets...)
		out.Stats = &st
	}
	out.RecentTransactions = append([]LendingTransaction(nil), s.RecentTransactions...)
	out.RecentLiquidations = append([]LendingLiquidation(nil), s.RecentLiquidations...)
	return out
}
