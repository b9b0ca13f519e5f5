package core

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a non-negative decimal salary value. The zero value is 0.
type Amount struct {
	d decimal.Decimal
}

// NewAmount wraps d, rejecting negative values and values outside the
// float64 range the remote file is read with.
func NewAmount(d decimal.Decimal) (Amount, error) {
	if d.IsNegative() {
		return Amount{}, ErrNegativeAmount
	}
	if d.IsZero() {
		return Amount{}, nil
	}
	if !finite(d) {
		return Amount{}, fmt.Errorf("%w: out of range", ErrInvalidAmount)
	}
	return Amount{d: d}, nil
}

// finite reports whether d is a finite, non-vanishing float64. The decimal
// magnitude is checked first so huge exponents are never expanded.
func finite(d decimal.Decimal) bool {
	mag := int64(d.NumDigits()) + int64(d.Exponent())
	switch {
	case mag > 309, mag < -323:
		return false
	case mag < 309:
		return true
	}
	f, _ := d.Float64()
	return !math.IsInf(f, 0)
}

// MustAmount is ParseAmount for literals; it panics on invalid input.
func MustAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// IsBlank reports whether raw user input should be treated as "remove".
func IsBlank(raw string) bool {
	return strings.TrimSpace(raw) == ""
}

// ParseAmount parses a user supplied decimal string.
//
// Both dot (1234.56) and comma (1234,56) decimal separators are accepted.
// Explicit signs are rejected and no rounding is applied.
//
// Examples:
//   ParseAmount("2500")    -> 2500, nil
//   ParseAmount("1850,75") -> 1850.75, nil
//   ParseAmount("-10")     -> ErrNegativeAmount
//   ParseAmount("12abc")   -> ErrInvalidAmount
//   ParseAmount("1e400")   -> ErrInvalidAmount
func ParseAmount(raw string) (Amount, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Amount{}, &ValidationError{Field: "amount", Value: raw, Err: ErrInvalidAmount}
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") {
		return Amount{}, &ValidationError{Field: "amount", Value: raw, Err: ErrInvalidAmount}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, &ValidationError{Field: "amount", Value: raw, Err: ErrInvalidAmount}
	}
	a, err := NewAmount(d)
	if err != nil {
		return Amount{}, &ValidationError{Field: "amount", Value: raw, Err: err}
	}
	return a, nil
}

func (a Amount) Decimal() decimal.Decimal { return a.d }

func (a Amount) String() string { return a.d.String() }

func (a Amount) Equal(b Amount) bool { return a.d.Equal(b.d) }

func (a Amount) IsZero() bool { return a.d.IsZero() }

// Float64 returns the value for chart feeds; calculations stay on Decimal.
func (a Amount) Float64() float64 {
	f, _ := a.d.Float64()
	return f
}

// MarshalJSON encodes the amount as a bare JSON number.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.d.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("%w: null", ErrInvalidAmount)
	}
	s := string(data)
	if len(data) > 0 && data[0] == '"' {
		unq, err := strconv.Unquote(s)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidAmount, err)
		}
		s = strings.ReplaceAll(strings.TrimSpace(unq), ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	v, err := NewAmount(d)
	if err != nil {
		return err
	}
	*a = v
	return nil
}
