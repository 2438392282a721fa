package registry

import (
	"strings"
	"testing"

	clierr "github.com/ggonzalez94/awaken-cli/internal/errors"
)

func TestResolveNetworkDefaults(t *testing.T) {
	n, err := ResolveNetwork("", Overrides{})
	if err != nil {
		t.Fatalf("ResolveNetwork failed: %v", err)
	}
	if n.ChainID != "tDVV" || n.Name != NetworkMainnet {
		t.Fatalf("expected mainnet tDVV, got %s %s", n.Name, n.ChainID)
	}
	testnet, err := ResolveNetwork("testnet", Overrides{})
	if err != nil || testnet.ChainID != "tDVW" {
		t.Fatalf("expected testnet tDVW, got %+v %v", testnet.ChainID, err)
	}
}

func TestResolveNetworkUnknown(t *testing.T) {
	_, err := ResolveNetwork("devnet", Overrides{})
	if err == nil {
		t.Fatal("expected unknown network error")
	}
	if !clierr.Is(err, clierr.CodeUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if !strings.Contains(err.Error(), `Unknown network: devnet. Use "mainnet" or "testnet".`) {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestResolveNetworkOverridesDoNotLeak(t *testing.T) {
	n, err := ResolveNetwork("mainnet", Overrides{RPCURL: "http://127.0.0.1:8000/", TokenContract: "custom"})
	if err != nil {
		t.Fatalf("ResolveNetwork failed: %v", err)
	}
	if n.RPCURL != "http://127.0.0.1:8000" || n.TokenContract != "custom" {
		t.Fatalf("overrides not applied: %+v", n)
	}
	n.Router["0.3"] = "mutated"
	again, _ := ResolveNetwork("mainnet", Overrides{})
	if again.Router["0.3"] == "mutated" || again.RPCURL != "https://tdvv-public-node.aelf.io" {
		t.Fatal("resolved network must not share state with the built-in table")
	}
	if _, err := ResolveNetwork("mainnet", Overrides{APIBaseURL: "http://example.com"}); err == nil {
		t.Fatal("expected plain http override for a remote host to be rejected")
	}
}

func TestRouterAndFactoryLookup(t *testing.T) {
	n, _ := ResolveNetwork("mainnet", Overrides{})
	if _, err := n.RouterAddress("0.3"); err != nil {
		t.Fatalf("expected router for 0.3: %v", err)
	}
	_, err := n.RouterAddress("0.2")
	if err == nil || !strings.Contains(err.Error(), "Available: 0.05, 0.1, 0.3, 3, 5") {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := n.FactoryAddress("1"); ok {
		t.Fatal("did not expect factory for tier 1")
	}
	if got := n.ExplorerTxURL("abc"); got != "https://aelfscan.io/tDVV/tx/abc" {
		t.Fatalf("unexpected explorer url %s", got)
	}
}

func TestFeeTierConversions(t *testing.T) {
	cases := map[float64]string{0.003: "0.3", 0.0005: "0.05", 0.001: "0.1", 0.03: "3", 0.05: "5"}
	for fraction, want := range cases {
		if got := FeeTierFromFraction(fraction); got != want {
			t.Fatalf("FeeTierFromFraction(%v) = %s, want %s", fraction, got, want)
		}
	}
	if got, _ := FeeTierToFraction("0.3"); got != "0.003" {
		t.Fatalf("FeeTierToFraction(0.3) = %s", got)
	}
	if got, _ := NormalizeFeeTier("0.30%"); got != "0.3" {
		t.Fatalf("NormalizeFeeTier = %s", got)
	}
	if got, _ := NormalizeFeeTier(""); got != DefaultFeeTier {
		t.Fatalf("expected default tier, got %s", got)
	}
	if HopFeeRate(0.003) != 30 || HopFeeRate(0.0005) != 5 {
		t.Fatal("unexpected hop fee rate")
	}
}
