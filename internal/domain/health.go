package domain

import "github.com/shopspring/decimal"

const (
	// HealthFactorScale is the fixed-point scale of LendingPosition.HealthFactor.
	HealthFactorScale = 10_000
	// HealthFactorCap is the raw value from which the display collapses to HealthFactorCapLabel.
	HealthFactorCap      = 100_000
	HealthFactorCapLabel = ">1000"

	warningThreshold = 15_000
)

// HealthColor is a presentation bucket. It is independent of HealthStatus.
type HealthColor string

const (
	HealthDanger  HealthColor = "danger"
	HealthWarning HealthColor = "warning"
	HealthSafe    HealthColor = "safe"
)

// DisplayHealthFactor renders a raw x10,000 health factor with two decimals, rounding half up.
func DisplayHealthFactor(raw int64) string {
	if raw >= HealthFactorCap {
		return HealthFactorCapLabel
	}
	return decimal.New(raw, -4).StringFixed(2)
}

// ColorBucket maps a raw health factor to danger (< 1.0), warning (< 1.5) or safe.
func ColorBucket(raw int64) HealthColor {
	switch {
	case raw < HealthFactorScale:
		return HealthDanger
	case raw < warningThreshold:
		return HealthWarning
	default:
		return HealthSafe
	}
}
