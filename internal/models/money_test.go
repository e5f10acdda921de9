package models

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestCheckMoney(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{"0", nil},
		{"500", nil},
		{"12.345", nil},
		{"1.500000000000000000000", nil},
		{"999999999999999999.9999999999999999", nil},
		{"100000000000000000000e-3", nil},
		{"-1", ErrNegativeMoney},
		{"1000000000000000000", ErrMoneyTooLarge},
		{"12345678901234567890.123456789012345", ErrMoneyTooLarge},
		{"1e5000000", ErrMoneyTooLarge},
		{"0.00000000000000001", ErrMoneyPrecision},
		{"1e-40", ErrMoneyPrecision},
		{"1." + strings.Repeat("0", 100), ErrMoneyPrecision},
		{"1" + strings.Repeat("0", 100), ErrMoneyTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.in[:min(len(tt.in), 40)], func(t *testing.T) {
			err := CheckMoney(decimal.RequireFromString(tt.in))
			if !errors.Is(err, tt.want) {
				t.Errorf("CheckMoney(%s) = %v, want %v", tt.in, err, tt.want)
			}
		})
	}
}
