package kernel

import (
	"bytes"
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Money is an amount in minor units (cents).
type Money int64

// ErrMoneyOutOfRange is returned when an amount does not fit in int64 cents.
var ErrMoneyOutOfRange = errors.New("money: amount out of range")

// maxUnits is the largest whole part that still leaves room for 99 cents.
const maxUnits = (math.MaxInt64 - 99) / 100

// MoneyFromDecimal converts a decimal amount to cents, rounding to the
// nearest cent. v must be within range; use MoneyFromFloat for untrusted input.
func MoneyFromDecimal(v float64) Money {
	return Money(math.Round(v * 100))
}

// MoneyFromFloat is MoneyFromDecimal with range checking.
func MoneyFromFloat(v float64) (Money, error) {
	c := math.Round(v * 100)
	// float64(math.MaxInt64) rounds up to 2^63, so >= excludes it.
	if math.IsNaN(c) || c >= float64(math.MaxInt64) || c < float64(math.MinInt64) {
		return 0, ErrMoneyOutOfRange
	}
	return Money(c), nil
}

// ParseMoney parses a decimal string such as "123.45" without going through
// float64. Digits beyond the second decimal are rounded half away from zero.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("money: empty amount")
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return 0, fmt.Errorf("money: invalid amount %q", s)
	}
	if whole == "" {
		whole = "0"
	}
	if !allDigits(whole) || !allDigits(frac) {
		return 0, fmt.Errorf("money: invalid amount %q", s)
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if errors.Is(err, strconv.ErrRange) || units > maxUnits {
		return 0, ErrMoneyOutOfRange
	}
	if err != nil {
		return 0, fmt.Errorf("money: %w", err)
	}

	cents := int64(0)
	for i := 0; i < 2; i++ {
		cents *= 10
		if i < len(frac) {
			cents += int64(frac[i] - '0')
		}
	}
	if len(frac) > 2 && frac[2] >= '5' {
		cents++
	}

	total := units*100 + cents
	if neg {
		total = -total
	}
	return Money(total), nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Decimal returns the amount in major units.
func (m Money) Decimal() float64 {
	return float64(m) / 100
}

func (m Money) String() string {
	sign := ""
	v := uint64(m)
	if m < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON writes the amount as a decimal number, e.g. 123.45
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts 123.45 as well as "123.45".
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	raw := strings.Trim(string(data), `"`)
	if strings.ContainsAny(raw, "eE") {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("money: %w", err)
		}
		v, err := MoneyFromFloat(f)
		if err != nil {
			return err
		}
		*m = v
		return nil
	}
	v, err := ParseMoney(raw)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Value stores cents as bigint
func (m Money) Value() (driver.Value, error) {
	return int64(m), nil
}

// Scan reads a bigint column
func (m *Money) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*m = 0
	case int64:
		*m = Money(v)
	case []byte:
		n, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return fmt.Errorf("money: scan: %w", err)
		}
		*m = Money(n)
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("money: scan: %w", err)
		}
		*m = Money(n)
	default:
		return fmt.Errorf("money: cannot scan %T", src)
	}
	return nil
}
