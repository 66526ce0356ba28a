package quant

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenAmountToDisplay(t *testing.T) {
	tests := []struct {
		name     string
		wei      string
		decimals int
		want     string
	}{
		{"billions", "2500000000000000000000000000", 18, "2.50B"},
		{"millions", "1234567000000", 6, "1.23M"},
		{"thousands", "1500000000000000000000", 18, "1.50K"},
		{"units", "10500000", 6, "10.5000"},
		{"exactly one", "1000000000000000000", 18, "1.0000"},
		{"sub unit", "123456000000000", 18, "0.000123"},
		{"dust", "12300000000000", 18, "1.23e-5"},
		{"zero", "0", 18, "0.00e+0"},
		{"zero decimals", "42", 0, "42.0000"},
		{"beyond float64 safe range", "123456789012345678901234567890", 18, "123.46B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TokenAmountToDisplay(tt.wei, tt.decimals))
		})
	}
}

func TestTokenAmountToDisplay_BadInput(t *testing.T) {
	for _, in := range []string{"", "null", "abc", "1.5", "-100", "0x10"} {
		assert.Equal(t, "0", TokenAmountToDisplay(in, 18), "input %q", in)
	}
	assert.Equal(t, "0", TokenAmountToDisplay("100", -1))
	assert.Equal(t, "0", TokenAmountToDisplay("100", MaxDecimals+1))
}

func TestUSDAmountToDisplay(t *testing.T) {
	tests := []struct {
		wei  string
		want string
	}{
		{"1500000000000000000000", "$1.50K"},
		{"2000000000000000000000000", "$2.00M"},
		{"3100000000000000000000000000", "$3.10B"},
		{"999990000000000000000", "$999.99"},
		{"1000000000000000", "$0.00"},
		{"5000000000000000", "$0.01"},
		{"0", "$0.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, USDAmountToDisplay(tt.wei), "wei %s", tt.wei)
	}

	assert.Equal(t, "$0.00", USDAmountToDisplay(""))
	assert.Equal(t, "$0.00", USDAmountToDisplay("not-a-number"))
}

func TestBpsToPercentDisplay(t *testing.T) {
	assert.Equal(t, "2.50%", BpsToPercentDisplay(250))
	assert.Equal(t, "-1.50%", BpsToPercentDisplay(-150))
	assert.Equal(t, "0.00%", BpsToPercentDisplay(0))
	assert.Equal(t, "100.00%", BpsToPercentDisplay(10000))
	assert.Equal(t, "0.01%", BpsToPercentDisplay(1))
}

var displayFormat = regexp.MustCompile(`^(\d+\.\d{2}[KMB]|\d+\.\d{4}|0\.\d{6}|\d\.\d{2}e[+-]\d+)$`)

func TestTokenAmountToDisplay_FormatProperty(t *testing.T) {
	samples := []string{"0", "1", "9", "99999", "100000000", "123456789123456789", "340282366920938463463374607431768211455"}
	for _, wei := range samples {
		for d := 0; d <= 18; d++ {
			got := TokenAmountToDisplay(wei, d)
			assert.Regexp(t, displayFormat, got, "wei=%s decimals=%d", wei, d)
		}
	}
}
