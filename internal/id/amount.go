package id

import (
	"fmt"
	"strings"

	clierr "github.com/ggonzalez94/awaken-cli/internal/errors"
	"github.com/shopspring/decimal"
)

// ToRaw scales a human amount to integer base units, truncating anything
// below the token's smallest unit.
func ToRaw(human string, decimals int) (string, error) {
	d, err := parseNonNegative(human, decimals)
	if err != nil {
		return "", err
	}
	return d.Shift(int32(decimals)).Truncate(0).String(), nil
}

// ToHuman converts integer base units to a decimal string at full precision.
func ToHuman(raw string, decimals int) (string, error) {
	d, err := parseNonNegative(raw, decimals)
	if err != nil {
		return "", err
	}
	return d.Shift(-int32(decimals)).String(), nil
}

// MustHuman is ToHuman for values already validated upstream; malformed
// input is returned unchanged.
func MustHuman(raw string, decimals int) string {
	out, err := ToHuman(raw, decimals)
	if err != nil {
		return raw
	}
	return out
}

// RequirePositive validates a human amount without knowing its token's
// decimals, so callers can reject bad input before any network read.
func RequirePositive(human, label string) error {
	d, err := parseNonNegative(human, 0)
	if err != nil {
		return err
	}
	if d.IsZero() {
		return clierr.Newf(clierr.CodeUsage, "%s must be greater than zero", label)
	}
	return nil
}

// ScaleRaw multiplies a raw amount by an integer factor.
func ScaleRaw(raw string, factor int64) (string, error) {
	d, err := parseNonNegative(raw, 0)
	if err != nil {
		return "", err
	}
	return d.Mul(decimal.NewFromInt(factor)).Truncate(0).String(), nil
}

// CompareRaw returns -1, 0 or 1 like decimal.Cmp. Empty strings read as zero.
func CompareRaw(a, b string) (int, error) {
	left, err := parseNonNegative(orZero(a), 0)
	if err != nil {
		return 0, err
	}
	right, err := parseNonNegative(orZero(b), 0)
	if err != nil {
		return 0, err
	}
	return left.Cmp(right), nil
}

// NormalizeAmount accepts either a base-unit amount or a human amount and
// returns both forms.
func NormalizeAmount(baseUnits, human string, decimals int) (string, string, error) {
	baseUnits = strings.TrimSpace(baseUnits)
	human = strings.TrimSpace(human)
	if baseUnits != "" && human != "" {
		return "", "", clierr.New(clierr.CodeUsage, "use either --amount or --amount-raw, not both")
	}
	if baseUnits == "" && human == "" {
		return "", "", clierr.New(clierr.CodeUsage, "amount is required")
	}
	if baseUnits != "" {
		d, err := parseNonNegative(baseUnits, decimals)
		if err != nil {
			return "", "", err
		}
		if !d.IsInteger() {
			return "", "", clierr.New(clierr.CodeUsage, "--amount-raw must be an integer string")
		}
		out, err := ToHuman(baseUnits, decimals)
		if err != nil {
			return "", "", err
		}
		return d.String(), out, nil
	}
	base, err := ToRaw(human, decimals)
	if err != nil {
		return "", "", err
	}
	out, err := ToHuman(base, decimals)
	if err != nil {
		return "", "", err
	}
	return base, out, nil
}

func parseNonNegative(v string, decimals int) (decimal.Decimal, error) {
	if decimals < 0 {
		return decimal.Zero, clierr.New(clierr.CodeUsage, "decimals must be >= 0")
	}
	clean := strings.TrimSpace(v)
	if clean == "" {
		return decimal.Zero, clierr.New(clierr.CodeUsage, "amount is required")
	}
	// An unbounded exponent expands into a digit string of arbitrary size.
	if strings.ContainsAny(clean, "eE") {
		return decimal.Zero, clierr.New(clierr.CodeUsage, fmt.Sprintf("invalid amount %q: exponent notation is not supported", v))
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, clierr.Wrap(clierr.CodeUsage, fmt.Sprintf("invalid amount %q", v), err)
	}
	if d.IsNegative() {
		return decimal.Zero, clierr.New(clierr.CodeUsage, fmt.Sprintf("amount must be non-negative: %s", v))
	}
	return d, nil
}

func orZero(v string) string {
	if strings.TrimSpace(v) == "" {
		return "0"
	}
	return v
}
