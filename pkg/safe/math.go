package safe

import (
	"github.com/holiman/uint256"
)

// MaxPow10 is the largest n for which 10^n fits in a uint256.
const MaxPow10 = 77

// SafeAdd performs uint256 addition and panics on overflow.
func SafeAdd(a, b *uint256.Int) *uint256.Int {
	z, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		panic("CORE_SAFE_ADD_OVERFLOW")
	}
	return z
}

// SafeSub performs uint256 subtraction and panics on underflow.
func SafeSub(a, b *uint256.Int) *uint256.Int {
	z, underflow := new(uint256.Int).SubOverflow(a, b)
	if underflow {
		panic("CORE_SAFE_SUB_UNDERFLOW")
	}
	return z
}

// SafeMul performs uint256 multiplication and panics on overflow.
func SafeMul(a, b *uint256.Int) *uint256.Int {
	z, overflow := new(uint256.Int).MulOverflow(a, b)
	if overflow {
		panic("CORE_SAFE_MUL_OVERFLOW")
	}
	return z
}

// SafeDivMod returns a/b and a%b and panics on division by zero.
func SafeDivMod(a, b *uint256.Int) (*uint256.Int, *uint256.Int) {
	if b.IsZero() {
		panic("CORE_SAFE_DIV_BY_ZERO")
	}
	return new(uint256.Int).DivMod(a, b, new(uint256.Int))
}

// Pow10 returns 10^n. ok is false when n is negative or the result
// would not fit in 256 bits.
func Pow10(n int) (*uint256.Int, bool) {
	if n < 0 || n > MaxPow10 {
		return nil, false
	}
	ten := uint256.NewInt(10)
	z := uint256.NewInt(1)
	for i := 0; i < n; i++ {
		z.Mul(z, ten)
	}
	return z, true
}
