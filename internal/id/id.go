package id

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	clierr "github.com/ggonzalez94/awaken-cli/internal/errors"
)

var (
	symbolPattern  = regexp.MustCompile(`^[A-Z0-9][A-Z0-9-]{0,63}$`)
	base58Pattern  = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{40,60}$`)
	chainIDPattern = regexp.MustCompile(`^[A-Za-z0-9]{3,8}$`)
)

// LPSymbolPrefix prefixes every Awaken LP token symbol.
const LPSymbolPrefix = "ALP "

// ParseSymbol normalizes a token symbol to its canonical upper-case form.
func ParseSymbol(input string) (string, error) {
	raw := strings.ToUpper(strings.TrimSpace(input))
	if raw == "" {
		return "", clierr.New(clierr.CodeUsage, "token symbol is required")
	}
	if !symbolPattern.MatchString(raw) {
		return "", clierr.New(clierr.CodeUsage, fmt.Sprintf("invalid token symbol: %s", input))
	}
	return raw, nil
}

// ParsePair parses two distinct symbols.
func ParsePair(a, b string) (string, string, error) {
	left, err := ParseSymbol(a)
	if err != nil {
		return "", "", err
	}
	right, err := ParseSymbol(b)
	if err != nil {
		return "", "", err
	}
	if left == right {
		return "", "", clierr.New(clierr.CodeUsage, fmt.Sprintf("pair needs two different tokens, got %s twice", left))
	}
	return left, right, nil
}

// SortedPair orders two symbols lexicographically.
func SortedPair(a, b string) (string, string) {
	pair := []string{a, b}
	sort.Strings(pair)
	return pair[0], pair[1]
}

// LPSymbol is the LP token symbol the pair's factory mints.
func LPSymbol(a, b string) string {
	first, second := SortedPair(a, b)
	return LPSymbolPrefix + first + "-" + second
}

// NormalizeAddress strips the ELF_ prefix and _<chain> suffix aelf wallets
// display and checks the remaining base58 body.
func NormalizeAddress(input string) (string, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return "", clierr.New(clierr.CodeUsage, "address is required")
	}
	parts := strings.Split(raw, "_")
	switch len(parts) {
	case 1:
	case 3:
		if parts[0] != "ELF" || !chainIDPattern.MatchString(parts[2]) {
			return "", clierr.New(clierr.CodeUsage, fmt.Sprintf("invalid address: %s", input))
		}
		raw = parts[1]
	default:
		return "", clierr.New(clierr.CodeUsage, fmt.Sprintf("invalid address: %s", input))
	}
	if !base58Pattern.MatchString(raw) {
		return "", clierr.New(clierr.CodeUsage, fmt.Sprintf("invalid address: %s", input))
	}
	return raw, nil
}
