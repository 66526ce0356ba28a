package quant

import (
	"errors"
	"math/big"
	"strings"

	"lending_go/pkg/safe"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// USDDecimals is the fixed-point scale of every USD value on the wire.
const USDDecimals = 18

// MaxDecimals bounds the token precision we can scale into a uint256.
const MaxDecimals = safe.MaxPow10

var (
	ErrEmptyAmount    = errors.New("empty amount")
	ErrInvalidAmount  = errors.New("invalid base-unit amount")
	ErrNegativeAmount = errors.New("negative base-unit amount")
	ErrAmountOverflow = errors.New("amount exceeds 256 bits")
	ErrInvalidScale   = errors.New("invalid decimals")
)

// ParseBaseUnits parses a decimal-integer string ("wei") into a uint256.
// Base units never pass through float64.
func ParseBaseUnits(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return nil, ErrEmptyAmount
	}

	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, ErrInvalidAmount
	}
	if b.Sign() < 0 {
		return nil, ErrNegativeAmount
	}

	v, overflow := uint256.FromBig(b)
	if overflow {
		return nil, ErrAmountOverflow
	}
	return v, nil
}

// ToDecimal splits base units into whole and fractional parts by 10^decimals
// and rebuilds the exact human-unit value.
func ToDecimal(wei *uint256.Int, decimals int) (decimal.Decimal, error) {
	divisor, ok := safe.Pow10(decimals)
	if !ok {
		return decimal.Zero, ErrInvalidScale
	}

	whole, frac := safe.SafeDivMod(wei, divisor)
	wholeDec := decimal.NewFromBigInt(whole.ToBig(), 0)
	fracDec := decimal.NewFromBigInt(frac.ToBig(), -int32(decimals))
	return wholeDec.Add(fracDec), nil
}

// DecimalStringToBaseUnits converts user input such as "10.5" into base
// units for a token with the given decimals. Extra precision is truncated
// (floor), never rounded up. It returns "0" when the input does not parse,
// is not positive or does not fit in 256 bits; "0" is the validity gate
// used before any action is submitted.
func DecimalStringToBaseUnits(input string, decimals int) string {
	if decimals < 0 || decimals > MaxDecimals {
		return "0"
	}

	d, err := decimal.NewFromString(strings.TrimSpace(input))
	if err != nil || !d.IsPositive() {
		return "0"
	}
	// Integer digits after scaling; anything past 78 cannot fit in 256 bits.
	if d.NumDigits()+int(d.Exponent())+decimals > MaxDecimals+1 {
		return "0"
	}

	scaled := d.Shift(int32(decimals)).Truncate(0)
	if !scaled.IsPositive() {
		return "0"
	}

	v, overflow := uint256.FromBig(scaled.BigInt())
	if overflow {
		return "0"
	}
	return v.Dec()
}
