package planner

import (
	"strings"

	clierr "github.com/ggonzalez94/awaken-cli/internal/errors"
	"github.com/ggonzalez94/awaken-cli/internal/model"
	"github.com/shopspring/decimal"
)

// DefaultSlippage is applied when the caller passes none.
const DefaultSlippage = "0.005"

var one = decimal.NewFromInt(1)

// ParseSlippage parses a slippage fraction. Empty input selects
// DefaultSlippage; values outside [0, 1) are usage errors.
func ParseSlippage(input string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		raw = DefaultSlippage
	}
	s, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, clierr.Newf(clierr.CodeUsage, "invalid slippage %q", input)
	}
	if s.IsNegative() || s.GreaterThanOrEqual(one) {
		return decimal.Decimal{}, clierr.Newf(clierr.CodeUsage, "slippage must satisfy 0 <= s < 1, got %s", raw)
	}
	return s, nil
}

// MinOut returns floor(amountOut x (1 - s)) for a raw integer amount.
func MinOut(amountOut string, s decimal.Decimal) (string, error) {
	raw := strings.TrimSpace(amountOut)
	out, err := decimal.NewFromString(raw)
	if err != nil || out.IsNegative() {
		return "", clierr.Newf(clierr.CodeUsage, "invalid raw amount %q", amountOut)
	}
	if s.IsNegative() || s.GreaterThanOrEqual(one) {
		return "", clierr.Newf(clierr.CodeUsage, "slippage must satisfy 0 <= s < 1, got %s", s)
	}
	return out.Mul(one.Sub(s)).Floor().String(), nil
}

// LegBound is one distribution with its own minimum output.
type LegBound struct {
	Distribution model.Distribution
	MinAmountOut string
}

// RouteBounds holds the aggregate bound and one bound per leg. Each leg
// executes as a separate path, so each carries its own floor.
type RouteBounds struct {
	AmountOut    string
	MinAmountOut string
	Legs         []LegBound
}

func BoundRoute(route model.Route, s decimal.Decimal) (RouteBounds, error) {
	total, err := MinOut(route.AmountOut, s)
	if err != nil {
		return RouteBounds{}, err
	}
	legs := make([]LegBound, 0, len(route.Distributions))
	for _, dist := range route.Distributions {
		minOut, err := MinOut(dist.AmountOut, s)
		if err != nil {
			return RouteBounds{}, err
		}
		legs = append(legs, LegBound{Distribution: dist, MinAmountOut: minOut})
	}
	return RouteBounds{AmountOut: route.AmountOut, MinAmountOut: total, Legs: legs}, nil
}

// BoundPair applies the same bound to both sides of a liquidity operation.
func BoundPair(amountA, amountB string, s decimal.Decimal) (string, string, error) {
	minA, err := MinOut(amountA, s)
	if err != nil {
		return "", "", err
	}
	minB, err := MinOut(amountB, s)
	if err != nil {
		return "", "", err
	}
	return minA, minB, nil
}
