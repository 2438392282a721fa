package chain

import (
	"context"
	"strings"

	clierr "github.com/ggonzalez94/awaken-cli/internal/errors"
	"github.com/ggonzalez94/awaken-cli/internal/model"
)

// DefaultTokenDecimals applies when a token-info view omits decimals.
const DefaultTokenDecimals = 8

type symbolArgs struct {
	Symbol string `json:"symbol"`
}

type balanceArgs struct {
	Symbol string `json:"symbol"`
	Owner  string `json:"owner"`
}

type allowanceArgs struct {
	Symbol  string `json:"symbol"`
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
}

// ApproveArgs is the Approve input shared by the token and LP factory
// contracts.
type ApproveArgs struct {
	Spender string `json:"spender"`
	Symbol  string `json:"symbol"`
	Amount  string `json:"amount"`
}

// TokenInfo reads symbol metadata from the token contract.
func TokenInfo(ctx context.Context, c Client, tokenContract, symbol string) (model.TokenInfo, error) {
	view, err := c.ReadView(ctx, tokenContract, "GetTokenInfo", symbolArgs{Symbol: symbol})
	if err != nil {
		return model.TokenInfo{}, err
	}
	decimals := view.Int("decimals", DefaultTokenDecimals)
	if decimals < 0 {
		return model.TokenInfo{}, clierr.Newf(clierr.CodeUnavailable, "token %s reports negative decimals %d", symbol, decimals)
	}
	out := model.TokenInfo{
		Symbol:   view.StringOr(symbol, "symbol"),
		Decimals: decimals,
	}
	if strings.TrimSpace(out.Symbol) == "" {
		out.Symbol = symbol
	}
	return out, nil
}

// Balance returns the raw balance of owner; a response without a balance
// field reads as "0".
func Balance(ctx context.Context, c Client, tokenContract, symbol, owner string) (string, error) {
	view, err := c.ReadView(ctx, tokenContract, "GetBalance", balanceArgs{Symbol: symbol, Owner: owner})
	if err != nil {
		return "", err
	}
	return view.StringOr("0", "balance", "amount"), nil
}

// Allowance returns the raw allowance granted by owner to spender.
func Allowance(ctx context.Context, c Client, contract, symbol, owner, spender string) (string, error) {
	view, err := c.ReadView(ctx, contract, "GetAllowance", allowanceArgs{Symbol: symbol, Owner: owner, Spender: spender})
	if err != nil {
		return "", err
	}
	return view.StringOr("0", "allowance"), nil
}

// LPBalance reads an LP token balance from a pool factory contract.
func LPBalance(ctx context.Context, c Client, factory, lpSymbol, owner string) (string, error) {
	view, err := c.ReadView(ctx, factory, "GetBalance", balanceArgs{Symbol: lpSymbol, Owner: owner})
	if err != nil {
		return "", err
	}
	return view.StringOr("0", "amount", "balance"), nil
}
