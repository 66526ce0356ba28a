package safe

import (
	"testing"

	"github.com/holiman/uint256"
)

func maxUint256() *uint256.Int {
	return new(uint256.Int).SetAllOne()
}

func TestSafeMath(t *testing.T) {
	a := uint256.NewInt(30)
	b := uint256.NewInt(4)

	if got := SafeAdd(a, b).Dec(); got != "34" {
		t.Errorf("SafeAdd = %s, want 34", got)
	}
	if got := SafeSub(a, b).Dec(); got != "26" {
		t.Errorf("SafeSub = %s, want 26", got)
	}
	if got := SafeMul(a, b).Dec(); got != "120" {
		t.Errorf("SafeMul = %s, want 120", got)
	}

	q, r := SafeDivMod(a, b)
	if q.Dec() != "7" || r.Dec() != "2" {
		t.Errorf("SafeDivMod = %s, %s, want 7, 2", q.Dec(), r.Dec())
	}

	// Operands must not be mutated.
	if a.Dec() != "30" || b.Dec() != "4" {
		t.Errorf("operands mutated: a=%s b=%s", a.Dec(), b.Dec())
	}
}

func TestMathPanic(t *testing.T) {
	tests := []struct {
		name string
		want string
		fn   func()
	}{
		{"Add Overflow", "CORE_SAFE_ADD_OVERFLOW", func() { SafeAdd(maxUint256(), uint256.NewInt(1)) }},
		{"Sub Underflow", "CORE_SAFE_SUB_UNDERFLOW", func() { SafeSub(uint256.NewInt(1), uint256.NewInt(2)) }},
		{"Mul Overflow", "CORE_SAFE_MUL_OVERFLOW", func() { SafeMul(maxUint256(), uint256.NewInt(2)) }},
		{"Div By Zero", "CORE_SAFE_DIV_BY_ZERO", func() { SafeDivMod(uint256.NewInt(10), new(uint256.Int)) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				r := recover()
				if r == nil {
					t.Errorf("expected panic %s", tt.want)
					return
				}
				if r != tt.want {
					t.Errorf("panic = %v, want %s", r, tt.want)
				}
			}()
			tt.fn()
		})
	}
}

func TestPow10(t *testing.T) {
	tests := []struct {
		n      int
		want   string
		wantOK bool
	}{
		{0, "1", true},
		{18, "1000000000000000000", true},
		{MaxPow10, "", true},
		{MaxPow10 + 1, "", false},
		{-1, "", false},
	}

	for _, tt := range tests {
		p, ok := Pow10(tt.n)
		if ok != tt.wantOK {
			t.Errorf("Pow10(%d) ok = %v, want %v", tt.n, ok, tt.wantOK)
			continue
		}
		if tt.want != "" && p.Dec() != tt.want {
			t.Errorf("Pow10(%d) = %s, want %s", tt.n, p.Dec(), tt.want)
		}
	}
}
