package domain

// HealthStatus is the server's authoritative classification of a position.
type HealthStatus string

const (
	HealthHealthy      HealthStatus = "healthy"
	HealthAtRisk       HealthStatus = "at_risk"
	HealthLiquidatable HealthStatus = "liquidatable"
)

// Label returns the dashboard label, or the raw value for unknown statuses.
func (s HealthStatus) Label() string {
	switch s {
	case HealthHealthy:
		return "Healthy"
	case HealthAtRisk:
		return "At Risk"
	case HealthLiquidatable:
		return "Liquidatable"
	default:
		return string(s)
	}
}

// LendingPosition is the per-wallet aggregate served by GET /api/lending/positions/{address}.
// USD values are 18-decimal base units. HealthFactor is scaled by 10,000.
type LendingPosition struct {
	UserAddress             string         `json:"userAddress"`
	TotalCollateralValueUsd string         `json:"totalCollateralValueUsd"`
	TotalBorrowedValueUsd   string         `json:"totalBorrowedValueUsd"`
	HealthFactor            int64          `json:"healthFactor"`
	HealthStatus            HealthStatus   `json:"healthStatus"`
	SuppliedAssetCount      int            `json:"suppliedAssetCount"`
	BorrowedAssetCount      int            `json:"borrowedAssetCount"`
	NetApy                  int64          `json:"netApy"`
	BorrowCapacityRemaining string         `json:"borrowCapacityRemaining"`
	SupplyDetails           []SupplyDetail `json:"supplyDetails"`
	BorrowDetails           []BorrowDetail `json:"borrowDetails"`
}

type SupplyDetail struct {
	MarketID       string `json:"marketId"`
	AssetSymbol    string `json:"assetSymbol"`
	SuppliedAmount string `json:"suppliedAmount"`
	SuppliedShares string `json:"suppliedShares"`
	ValueUsd       string `json:"valueUsd"`
	SupplyRate     int64  `json:"supplyRate"`
	IsCollateral   bool   `json:"isCollateral"`
}

type BorrowDetail struct {
	MarketID        string   `json:"marketId"`
	AssetSymbol     string   `json:"assetSymbol"`
	BorrowedAmount  string   `json:"borrowedAmount"`
	BorrowedShares  string   `json:"borrowedShares"`
	ValueUsd        string   `json:"valueUsd"`
	BorrowRate      int64    `json:"borrowRate"`
	RateMode        RateMode `json:"rateMode"`
	AccruedInterest string   `json:"accruedInterest"`
}

// Supply returns the supply entry for marketID, or nil.
func (p *LendingPosition) Supply(marketID string) *SupplyDetail {
	for i := range p.SupplyDetails {
		if p.SupplyDetails[i].MarketID == marketID {
			return &p.SupplyDetails[i]
		}
	}
	return nil
}

// Borrow returns the borrow entry for marketID, or nil.
func (p *LendingPosition) Borrow(marketID string) *BorrowDetail {
	for i := range p.BorrowDetails {
		if p.BorrowDetails[i].MarketID == marketID {
			return &p.BorrowDetails[i]
		}
	}
	return nil
}

// HasDebt reports whether the position carries any borrow entry.
func (p *LendingPosition) HasDebt() bool {
	return len(p.BorrowDetails) > 0
}

// Dedupe keeps the first entry per market on each side.
func (p *LendingPosition) Dedupe() {
	seen := make(map[string]struct{}, len(p.SupplyDetails))
	supplies := p.SupplyDetails[:0]
	for _, s := range p.SupplyDetails {
		if _, ok := seen[s.MarketID]; ok {
			continue
		}
		seen[s.MarketID] = struct{}{}
		supplies = append(supplies, s)
	}
	p.SupplyDetails = supplies

	seen = make(map[string]struct{}, len(p.BorrowDetails))
	borrows := p.BorrowDetails[:0]
	for _, b := range p.BorrowDetails {
		if _, ok := seen[b.MarketID]; ok {
			continue
		}
		seen[b.MarketID] = struct{}{}
		borrows = append(borrows, b)
	}
	p.BorrowDetails = borrows
}

// PositionHealth is the lightweight health read for one wallet.
type PositionHealth struct {
	UserAddress    string       `json:"userAddress"`
	HealthFactor   int64        `json:"healthFactor"`
	HealthStatus   HealthStatus `json:"healthStatus"`
	BorrowCapacity string       `json:"borrowCapacity"`
}
