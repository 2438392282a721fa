package chain

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ggonzalez94/awaken-cli/internal/model"
)

type viewClient struct {
	views map[string]View
	err   error
	calls []string
	args  []any
}

func (c *viewClient) ReadView(_ context.Context, contract, method string, args any) (View, error) {
	c.calls = append(c.calls, contract+"."+method)
	c.args = append(c.args, args)
	if c.err != nil {
		return nil, c.err
	}
	return c.views[method], nil
}

func (c *viewClient) Submit(context.Context, string, string, any, Signer) (string, error) {
	return "", errors.New("not implemented")
}

func (c *viewClient) TxStatus(context.Context, string) (model.TxStatus, error) {
	return model.TxStatus{}, errors.New("not implemented")
}

func TestViewAccessors(t *testing.T) {
	v := View{"a": "12", "b": float64(6), "c": json.Number("7"), "d": nil}
	if v.String("a") != "12" || v.String("b") != "6" || v.String("c") != "7" {
		t.Fatalf("unexpected string rendering: %q %q %q", v.String("a"), v.String("b"), v.String("c"))
	}
	if v.String("d") != "" || v.String("missing") != "" {
		t.Fatal("expected absent fields to render empty")
	}
	if v.StringOr("0", "missing", "a") != "12" {
		t.Fatal("expected fallback key to be used")
	}
	if v.Int("b", 8) != 6 || v.Int("missing", 8) != 8 {
		t.Fatal("unexpected int accessor result")
	}
}

func TestTokenInfoDefaultsDecimals(t *testing.T) {
	c := &viewClient{views: map[string]View{"GetTokenInfo": {"symbol": "ELF"}}}
	info, err := TokenInfo(context.Background(), c, "token", "ELF")
	if err != nil {
		t.Fatalf("TokenInfo failed: %v", err)
	}
	if info.Decimals != DefaultTokenDecimals || info.Symbol != "ELF" {
		t.Fatalf("unexpected token info %+v", info)
	}
	if c.calls[0] != "token.GetTokenInfo" {
		t.Fatalf("unexpected call %s", c.calls[0])
	}

	c.views["GetTokenInfo"] = View{"symbol": "USDT", "decimals": float64(6)}
	info, err = TokenInfo(context.Background(), c, "token", "USDT")
	if err != nil || info.Decimals != 6 {
		t.Fatalf("unexpected token info %+v err=%v", info, err)
	}
}

func TestBalanceFallbacks(t *testing.T) {
	c := &viewClient{views: map[string]View{"GetBalance": {"amount": "55"}}}
	got, err := Balance(context.Background(), c, "token", "ELF", "owner")
	if err != nil || got != "55" {
		t.Fatalf("expected amount fallback, got %q err=%v", got, err)
	}
	c.views["GetBalance"] = View{}
	got, _ = Balance(context.Background(), c, "token", "ELF", "owner")
	if got != "0" {
		t.Fatalf("expected zero default, got %q", got)
	}
	c.views["GetBalance"] = View{"balance": "9", "amount": "1"}
	got, _ = Balance(context.Background(), c, "token", "ELF", "owner")
	if got != "9" {
		t.Fatalf("expected balance to win, got %q", got)
	}
}

func TestAllowanceAndLPBalance(t *testing.T) {
	c := &viewClient{views: map[string]View{"GetAllowance": {}, "GetBalance": {"amount": "42"}}}
	allowance, err := Allowance(context.Background(), c, "token", "ELF", "owner", "spender")
	if err != nil || allowance != "0" {
		t.Fatalf("unexpected allowance %q err=%v", allowance, err)
	}
	args := c.args[0].(allowanceArgs)
	if args.Spender != "spender" || args.Owner != "owner" {
		t.Fatalf("unexpected allowance args %+v", args)
	}
	lp, err := LPBalance(context.Background(), c, "factory", "ALP ELF-USDT", "owner")
	if err != nil || lp != "42" {
		t.Fatalf("unexpected lp balance %q err=%v", lp, err)
	}
	if c.calls[1] != "factory.GetBalance" {
		t.Fatalf("unexpected call %s", c.calls[1])
	}
}
