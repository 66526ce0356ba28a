package safe

import (
	"testing"

	"github.com/holiman/uint256"
)

// FuzzSafeAdd tests SafeAdd with fuzzing.
func FuzzSafeAdd(f *testing.F) {
	f.Add(uint64(0), uint64(0))
	f.Add(uint64(1), uint64(2))
	f.Add(^uint64(0), uint64(1))

	f.Fuzz(func(t *testing.T, a, b uint64) {
		got := SafeAdd(uint256.NewInt(a), uint256.NewInt(b))
		want := new(uint256.Int).Add(uint256.NewInt(a), uint256.NewInt(b))
		if !got.Eq(want) {
			t.Errorf("SafeAdd(%d, %d) = %s, want %s", a, b, got.Dec(), want.Dec())
		}
	})
}

// FuzzSafeSub tests SafeSub with fuzzing.
func FuzzSafeSub(f *testing.F) {
	f.Add(uint64(10), uint64(5))
	f.Add(uint64(0), uint64(1))

	f.Fuzz(func(t *testing.T, a, b uint64) {
		defer func() { recover() }() // Underflow panic is expected behavior
		_ = SafeSub(uint256.NewInt(a), uint256.NewInt(b))
	})
}

// FuzzSafeDivMod tests SafeDivMod with fuzzing.
func FuzzSafeDivMod(f *testing.F) {
	f.Add(uint64(10), uint64(3))
	f.Add(uint64(100), uint64(0))

	f.Fuzz(func(t *testing.T, a, b uint64) {
		defer func() { recover() }() // Div by zero panic is expected
		q, r := SafeDivMod(uint256.NewInt(a), uint256.NewInt(b))
		back := SafeAdd(SafeMul(q, uint256.NewInt(b)), r)
		if back.Uint64() != a {
			t.Errorf("q*b+r = %s, want %d", back.Dec(), a)
		}
	})
}
