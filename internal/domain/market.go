package domain

// Market is one lending pool as served by GET /api/lending/markets.
// Amounts are base-unit decimal-integer strings, rates and risk parameters are bps.
type Market struct {
	ID            string `json:"id"`
	AssetAddress  string `json:"assetAddress"`
	AssetSymbol   string `json:"assetSymbol"`
	AssetName     string `json:"assetName"`
	AssetDecimals int    `json:"assetDecimals"`
	PriceFeedID   string `json:"priceFeedId,omitempty"`

	// Pool state
	TotalSupply        string `json:"totalSupply"`
	TotalBorrowed      string `json:"totalBorrowed"`
	TotalSupplyShares  string `json:"totalSupplyShares,omitempty"`
	TotalBorrowShares  string `json:"totalBorrowShares,omitempty"`
	AvailableLiquidity string `json:"availableLiquidity"`
	UtilizationRate    int64  `json:"utilizationRate"`

	// Rate model
	BaseRate           int64 `json:"baseRate"`
	OptimalUtilization int64 `json:"optimalUtilization"`
	Slope1             int64 `json:"slope1"`
	Slope2             int64 `json:"slope2"`
	SupplyRate         int64 `json:"supplyRate"`
	BorrowRateVariable int64 `json:"borrowRateVariable"`
	BorrowRateStable   int64 `json:"borrowRateStable"`

	// Risk parameters. Nil caps mean uncapped.
	CollateralFactor     int64   `json:"collateralFactor"`
	LiquidationThreshold int64   `json:"liquidationThreshold"`
	LiquidationPenalty   int64   `json:"liquidationPenalty"`
	ReserveFactor        int64   `json:"reserveFactor"`
	SupplyCap            *string `json:"supplyCap"`
	BorrowCap            *string `json:"borrowCap"`

	CanBeCollateral bool `json:"canBeCollateral"`
	CanBeBorrowed   bool `json:"canBeBorrowed"`
	IsActive        bool `json:"isActive"`
	IsFrozen        bool `json:"isFrozen"`
	IsPaused        bool `json:"isPaused"`
}

// CanSupply reports whether new deposits are accepted.
func (m *Market) CanSupply() bool {
	return m.IsActive && !m.IsPaused
}

// CanBorrow reports whether new debt may be opened.
func (m *Market) CanBorrow() bool {
	return m.IsActive && m.CanBeBorrowed && !m.IsFrozen
}

// Allows reports whether the market flags permit the given action.
// Withdraw, repay and liquidate are never blocked by market flags.
func (m *Market) Allows(kind ActionKind) bool {
	switch kind {
	case ActionSupply:
		return m.CanSupply()
	case ActionBorrow:
		return m.CanBorrow()
	default:
		return true
	}
}

// BorrowRate returns the borrow rate in bps for the given rate mode.
func (m *Market) BorrowRate(mode RateMode) int64 {
	if mode == RateStable {
		return m.BorrowRateStable
	}
	return m.BorrowRateVariable
}

// IsUncapped reports whether both caps are absent.
func (m *Market) IsUncapped() bool {
	return m.SupplyCap == nil && m.BorrowCap == nil
}

// FindMarket returns the market with the given id, or nil.
func FindMarket(markets []Market, id string) *Market {
	for i := range markets {
		if markets[i].ID == id {
			return &markets[i]
		}
	}
	return nil
}
