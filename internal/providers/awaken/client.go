package awaken

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/ggonzalez94/awaken-cli/internal/httpx"
	"github.com/ggonzalez94/awaken-cli/internal/model"
	"github.com/ggonzalez94/awaken-cli/internal/providers"
	"github.com/ggonzalez94/awaken-cli/internal/registry"
)

// Client reads the Awaken off-chain index: routes, trade pairs and
// per-user liquidity.
type Client struct {
	http    *httpx.Client
	baseURL string
}

func New(httpClient *httpx.Client, baseURL string) *Client {
	return &Client{http: httpClient, baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (c *Client) Info() model.ProviderInfo {
	return model.ProviderInfo{
		Name:        "awaken",
		Type:        "index",
		Endpoint:    c.baseURL,
		RequiresKey: false,
		Capabilities: []string{
			"route.best",
			"pair.lookup",
			"liquidity.user",
			"liquidity.positions",
		},
	}
}

var (
	_ providers.RouteProvider         = (*Client)(nil)
	_ providers.PairProvider          = (*Client)(nil)
	_ providers.PositionIndexProvider = (*Client)(nil)
)

type routesResponse struct {
	Data *struct {
		Routes []apiRoute `json:"routes"`
	} `json:"data"`
}

// BestRoutes returns the index's ranked routes. An empty slice means the
// index found none; callers decide whether that is an error.
func (c *Client) BestRoutes(ctx context.Context, req providers.RouteRequest) ([]model.Route, error) {
	q := url.Values{}
	q.Set("ChainId", req.ChainID)
	q.Set("symbolIn", req.SymbolIn)
	q.Set("symbolOut", req.SymbolOut)
	q.Set("routeType", strconv.Itoa(int(req.RouteType)))
	if req.AmountIn != "" {
		q.Set("amountIn", req.AmountIn)
	}
	if req.AmountOut != "" {
		q.Set("amountOut", req.AmountOut)
	}
	var resp routesResponse
	if err := httpx.GetJSON(ctx, c.http, c.baseURL+registry.PathBestSwapRoutes, q, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, nil
	}
	routes := make([]model.Route, 0, len(resp.Data.Routes))
	for _, r := range resp.Data.Routes {
		routes = append(routes, r.model())
	}
	return routes, nil
}

func (c *Client) TradePairs(ctx context.Context, req providers.PairRequest) ([]model.TradePair, error) {
	q := url.Values{}
	q.Set("ChainId", req.ChainID)
	q.Set("Token0Symbol", req.Token0)
	q.Set("Token1Symbol", req.Token1)
	if req.FeeRate != "" {
		q.Set("FeeRate", req.FeeRate)
	}
	var resp listEnvelope[apiPair]
	if err := httpx.GetJSON(ctx, c.http, c.baseURL+registry.PathTradePairs, q, &resp); err != nil {
		return nil, err
	}
	items := resp.items()
	out := make([]model.TradePair, 0, len(items))
	for _, p := range items {
		out = append(out, p.model())
	}
	return out, nil
}

func (c *Client) UserLiquidity(ctx context.Context, req providers.PositionRequest) ([]model.IndexedPosition, error) {
	var resp listEnvelope[apiLiquidity]
	if err := httpx.GetJSON(ctx, c.http, c.baseURL+registry.PathUserLiquidity, positionQuery(req), &resp); err != nil {
		return nil, err
	}
	items := resp.items()
	out := make([]model.IndexedPosition, 0, len(items))
	for _, item := range items {
		out = append(out, item.model())
	}
	return out, nil
}

func (c *Client) UserPortfolio(ctx context.Context, req providers.PositionRequest) ([]model.LiquidityPortfolioItem, error) {
	var resp listEnvelope[apiPortfolioPosition]
	if err := httpx.GetJSON(ctx, c.http, c.baseURL+registry.PathUserPositions, positionQuery(req), &resp); err != nil {
		return nil, err
	}
	items := resp.items()
	out := make([]model.LiquidityPortfolioItem, 0, len(items))
	for _, item := range items {
		out = append(out, item.model())
	}
	return out, nil
}

func positionQuery(req providers.PositionRequest) url.Values {
	q := url.Values{}
	q.Set("chainId", req.ChainID)
	q.Set("address", req.Address)
	q.Set("skipCount", strconv.Itoa(req.SkipCount))
	q.Set("maxResultCount", strconv.Itoa(req.MaxResultCount))
	return q
}
