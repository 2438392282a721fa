package registry

import (
	"fmt"
	"strings"

	clierr "github.com/ggonzalez94/awaken-cli/internal/errors"
	"github.com/shopspring/decimal"
)

// DefaultFeeTier is the pool tier used when a command does not pass one.
const DefaultFeeTier = "0.3"

var hundred = decimal.NewFromInt(100)

// NormalizeFeeTier renders a percent fee tier ("0.30", "0.3") canonically.
func NormalizeFeeTier(input string) (string, error) {
	raw := strings.TrimSuffix(strings.TrimSpace(input), "%")
	if raw == "" {
		return DefaultFeeTier, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return "", clierr.New(clierr.CodeUsage, fmt.Sprintf("invalid fee rate: %s", input))
	}
	return d.String(), nil
}

// FeeTierFromFraction maps an index fee fraction (0.003) to its tier key ("0.3").
func FeeTierFromFraction(fraction float64) string {
	return decimal.NewFromFloat(fraction).Mul(hundred).String()
}

// FeeTierToFraction maps a tier key ("0.3") to the fraction the index
// expects ("0.003").
func FeeTierToFraction(tier string) (string, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(tier))
	if err != nil {
		return "", clierr.New(clierr.CodeUsage, fmt.Sprintf("invalid fee rate: %s", tier))
	}
	return d.Div(hundred).String(), nil
}

// HopFeeRate converts a route fee fraction to the integer the swap hook
// contract takes (fraction x 10000, rounded).
func HopFeeRate(fraction float64) int64 {
	return decimal.NewFromFloat(fraction).Mul(decimal.NewFromInt(10000)).Round(0).IntPart()
}

func compareTiers(a, b string) int {
	left, errA := decimal.NewFromString(a)
	right, errB := decimal.NewFromString(b)
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}
	return left.Cmp(right)
}
