package registry

import (
	"net"
	"net/url"
	"strings"
)

// Awaken index API paths, relative to Network.APIBaseURL.
const (
	PathBestSwapRoutes  = "/api/app/route/best-swap-routes"
	PathTradePairs      = "/api/app/trade-pairs"
	PathUserLiquidity   = "/api/app/liquidity/user-liquidity"
	PathUserPositions   = "/api/app/liquidity/user-positions"
	SignalRKlineRequest = "RequestKline"
	SignalRKlineReceive = "ReceiveKlines"
)

// IsAllowedEndpoint accepts https URLs, and plain http only for loopback hosts.
func IsAllowedEndpoint(endpoint string) bool {
	parsed, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil {
		return false
	}
	if strings.TrimSpace(parsed.Hostname()) == "" {
		return false
	}
	scheme := strings.ToLower(strings.TrimSpace(parsed.Scheme))
	if isLoopbackHost(parsed.Hostname()) {
		return scheme == "http" || scheme == "https" || scheme == "ws" || scheme == "wss"
	}
	return scheme == "https" || scheme == "wss"
}

func isLoopbackHost(host string) bool {
	h := strings.TrimSpace(strings.ToLower(host))
	if h == "localhost" {
		return true
	}
	ip := net.ParseIP(h)
	return ip != nil && ip.IsLoopback()
}
