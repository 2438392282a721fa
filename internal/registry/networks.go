package registry

import (
	"fmt"
	"sort"
	"strings"

	clierr "github.com/ggonzalez94/awaken-cli/internal/errors"
	"github.com/samber/lo"
)

const (
	NetworkMainnet = "mainnet"
	NetworkTestnet = "testnet"

	DefaultNetwork = NetworkMainnet
)

// Network is the immutable per-invocation view of one Awaken deployment.
type Network struct {
	Name             string            `json:"name"`
	ChainID          string            `json:"chain_id"`
	RPCURL           string            `json:"rpc_url"`
	APIBaseURL       string            `json:"api_base_url"`
	SocketURL        string            `json:"socket_url"`
	ExplorerURL      string            `json:"explorer_url"`
	TokenContract    string            `json:"token_contract"`
	SwapHookContract string            `json:"swap_hook_contract"`
	Router           map[string]string `json:"router"`
	Factory          map[string]string `json:"factory"`
}

// Overrides replace individual endpoint and contract fields. Empty values
// keep the built-in default.
type Overrides struct {
	RPCURL           string
	APIBaseURL       string
	SocketURL        string
	ExplorerURL      string
	TokenContract    string
	SwapHookContract string
}

var networks = map[string]Network{
	NetworkMainnet: {
		Name:             NetworkMainnet,
		ChainID:          "tDVV",
		RPCURL:           "https://tdvv-public-node.aelf.io",
		APIBaseURL:       "https://app.awaken.finance",
		SocketURL:        "https://app.awaken.finance/signalr-hubs/trade",
		ExplorerURL:      "https://aelfscan.io/tDVV",
		TokenContract:    "7RzVGiuVWkvL4VfVHdZfQF2Tri3sgLe9U991bohHFfSRZXuGX",
		SwapHookContract: "T3mdFC35CQSatUXQ5bQ886pULo2TnzS9rfXxmsoZSGnTq2a2S",
		Router: map[string]string{
			"0.05": "83ju3fGGnvQzCmtjApUTwvBpuLQLQvt5biNMv4FXCvWKdZgJf",
			"0.1":  "hyiwdsbDnyoG1uZiw2JabQ4tLiWT6yAuDfNBFbHhCZwAqU1os",
			"0.3":  "JvDB3rguLJtpFsovre8udJeXJLhsV1EPScGz2u1FFneahjBQm",
			"3":    "2q7NLAr6eqF4CTsnNeXnBZ9k4XcmiUeM61CLWYaym6WsUmbg1k",
			"5":    "UYdd84gLMsVdHrgkr3ogqe1ukhKwen8oj32Ks4J1dg6KH9PYC",
		},
		Factory: map[string]string{
			"0.05": "2b7Gf7YqVmjhZXir7uehmZoRwsYo1KNFTo9JDZiiByxPBQS1d8",
			"0.1":  "25CkLPA8qwDRGQci2kFg77i6pZXVivvX4DHW78i1B7rPHdBkoK",
			"0.3":  "2AJXAXSwyHbKTHQhKFiaYozakUUQDeh3xrHW9FGi3vYDMBjtiS",
			"3":    "2PwfVguYDmYcpJVPmoH9doEpBgd8L28NCcUDiuq77CzvEWzuKZ",
			"5":    "2eJ4MnRWFo7YJXB92qj2AF3NWoB3umBggzNLhbGeahkwDYYLAD",
		},
	},
	NetworkTestnet: {
		Name:             NetworkTestnet,
		ChainID:          "tDVW",
		RPCURL:           "https://tdvw-test-node.aelf.io",
		APIBaseURL:       "https://test-app.awaken.finance",
		SocketURL:        "https://test-app.awaken.finance/signalr-hubs/trade",
		ExplorerURL:      "https://testnet.aelfscan.io/tDVW",
		TokenContract:    "ASh2Wt7nSEmYqnGxPPzp4pnVDU4uhj1XW9Se5VeZcX2UDdyjx",
		SwapHookContract: "2vahJs5WeWVJruzd1DuTAu3TwK8jktpJ2NNeALJJWEbPQCUW4Y",
		Router: map[string]string{
			"0.05": "fGa81UPViGsVvTM13zuAAwk1QHovL3oSqTrCznitS4hAawPpk",
			"0.1":  "LzkrbEK2zweeuE4P8Y23BMiFY2oiKMWyHuy5hBBbF1pAPD2hh",
			"0.3":  "2YnkipJ9mty5r6tpTWQAwnomeeKUT7qCWLHKaSeV1fejYEyCdX",
			"3":    "EG73zzQqC8JencoFEgCtrEUvMBS2zT22xoRse72XkyhuuhyTC",
			"5":    "23dh2s1mXnswi4yNW7eWNKWy7iac8KrXJYitECgUctgfwjeZwP",
		},
		Factory: map[string]string{
			"0.05": "pVHzzPLV8U3XEAb3utFPnuFL7p6AZtxemgX1yX4tCvKQDQNud",
			"0.1":  "5KN5uqSC1vz521Lpfh9H1ZLWpU96x6ypEdHrTZF8WdjMmQFQ5",
			"0.3":  "2L8uLZRJDUNdmeoA7RT6QbB7TZvu2xHra2gTz2bGrv9Wxs7KPS",
			"3":    "2iFrdeaSKHwpNGWviSMVacjHjdgtZbfrkNeoV1opRzsfBrPVsm",
			"5":    "T25QvHLdWsyHaAeLKu9hvk33MTZrkWD1M7D4cZyU58JfPwhTh",
		},
	},
}

func NetworkNames() []string {
	names := lo.Keys(networks)
	sort.Strings(names)
	return names
}

// ResolveNetwork returns a copy of the named network with overrides applied.
func ResolveNetwork(name string, overrides Overrides) (Network, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultNetwork
	}
	base, ok := networks[name]
	if !ok {
		return Network{}, clierr.New(clierr.CodeUsage, fmt.Sprintf("Unknown network: %s. Use %q or %q.", name, NetworkMainnet, NetworkTestnet))
	}
	out := base
	out.Router = lo.Assign(base.Router)
	out.Factory = lo.Assign(base.Factory)

	urls := []struct {
		field *string
		value string
		label string
	}{
		{&out.RPCURL, overrides.RPCURL, "rpc url"},
		{&out.APIBaseURL, overrides.APIBaseURL, "api base url"},
		{&out.SocketURL, overrides.SocketURL, "socket url"},
		{&out.ExplorerURL, overrides.ExplorerURL, "explorer url"},
	}
	for _, u := range urls {
		v := strings.TrimSpace(u.value)
		if v == "" {
			continue
		}
		if !IsAllowedEndpoint(v) {
			return Network{}, clierr.New(clierr.CodeUsage, fmt.Sprintf("invalid %s override: %s", u.label, v))
		}
		*u.field = strings.TrimSuffix(v, "/")
	}
	if v := strings.TrimSpace(overrides.TokenContract); v != "" {
		out.TokenContract = v
	}
	if v := strings.TrimSpace(overrides.SwapHookContract); v != "" {
		out.SwapHookContract = v
	}
	return out, nil
}

// RouterAddress returns the router for a fee tier or a usage error listing
// the registered tiers.
func (n Network) RouterAddress(feeTier string) (string, error) {
	addr, ok := n.Router[feeTier]
	if !ok || addr == "" {
		return "", clierr.New(clierr.CodeUsage, fmt.Sprintf("No router for feeRate=%s. Available: %s", feeTier, strings.Join(n.FeeTiers(), ", ")))
	}
	return addr, nil
}

func (n Network) FactoryAddress(feeTier string) (string, bool) {
	addr, ok := n.Factory[feeTier]
	return addr, ok && addr != ""
}

// FeeTiers lists the router tiers in ascending numeric order.
func (n Network) FeeTiers() []string {
	tiers := lo.Keys(n.Router)
	sort.Slice(tiers, func(i, j int) bool {
		return compareTiers(tiers[i], tiers[j]) < 0
	})
	return tiers
}

func (n Network) ExplorerTxURL(txID string) string {
	return strings.TrimSuffix(n.ExplorerURL, "/") + "/tx/" + txID
}
