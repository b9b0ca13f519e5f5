package format

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestEuro(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0,00 €"},
		{"12.5", "12,50 €"},
		{"12345.67", "12.345,67 €"},
		{"1234567.891", "1.234.567,89 €"},
		{"-20500", "-20.500,00 €"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Euro(decimal.RequireFromString(tt.in))
			if got != tt.want {
				t.Errorf("Euro(%s) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEuroOrMissing(t *testing.T) {
	if got := EuroOrMissing(decimal.Zero, false); got != Missing {
		t.Errorf("absent amount = %q, want %q", got, Missing)
	}
	if got := EuroOrMissing(decimal.Zero, true); got != "0,00 €" {
		t.Errorf("stored zero = %q", got)
	}
}

func TestProgress(t *testing.T) {
	if got := Progress(3, 14); got != "3 / 14" {
		t.Errorf("Progress = %q", got)
	}
}
