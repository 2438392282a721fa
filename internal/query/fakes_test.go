package query

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/ggonzalez94/awaken-cli/internal/chain"
	"github.com/ggonzalez94/awaken-cli/internal/model"
	"github.com/ggonzalez94/awaken-cli/internal/providers"
	"github.com/ggonzalez94/awaken-cli/internal/registry"
)

const (
	testOwner   = "2YnkipJ9mty5r6tpTWQAwnomeeKUT7qCWLHKaSeV1fejYEyCdX"
	testSpender = "JvDB3rguLJtpFsovre8udJeXJLhsV1EPScGz2u1FFneahjBQm"
)

func testNetwork() registry.Network {
	n, err := registry.ResolveNetwork(registry.NetworkMainnet, registry.Overrides{})
	if err != nil {
		panic(err)
	}
	return n
}

// fakeChain answers views keyed by "contract/method/symbol".
type fakeChain struct {
	mu    sync.Mutex
	views map[string]chain.View
	errs  map[string]error
	calls []string
}

func newFakeChain() *fakeChain {
	return &fakeChain{views: map[string]chain.View{}, errs: map[string]error{}}
}

func (f *fakeChain) ReadView(_ context.Context, contract, method string, args any) (chain.View, error) {
	buf, _ := json.Marshal(args)
	var fields struct {
		Symbol string `json:"symbol"`
	}
	_ = json.Unmarshal(buf, &fields)
	key := contract + "/" + method + "/" + fields.Symbol

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, key)
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	if v, ok := f.views[key]; ok {
		return v, nil
	}
	return chain.View{}, nil
}

func (f *fakeChain) Submit(context.Context, string, string, any, chain.Signer) (string, error) {
	return "", errors.New("read-only fake")
}

func (f *fakeChain) TxStatus(context.Context, string) (model.TxStatus, error) {
	return model.TxStatus{}, errors.New("read-only fake")
}

func (f *fakeChain) setToken(contract, symbol string, decimals int) {
	f.views[contract+"/GetTokenInfo/"+symbol] = chain.View{"symbol": symbol, "decimals": float64(decimals)}
}

type fakeIndex struct {
	mu           sync.Mutex
	routes       []model.Route
	routeErr     error
	routeReqs    []providers.RouteRequest
	pairs        map[string][]model.TradePair
	pairErr      error
	pairReqs     []providers.PairRequest
	liquidity    []model.IndexedPosition
	liquidityErr error
	portfolio    []model.LiquidityPortfolioItem
	portfolioErr error
}

func (f *fakeIndex) Info() model.ProviderInfo { return model.ProviderInfo{Name: "fake"} }

func (f *fakeIndex) BestRoutes(_ context.Context, req providers.RouteRequest) ([]model.Route, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routeReqs = append(f.routeReqs, req)
	return f.routes, f.routeErr
}

func (f *fakeIndex) TradePairs(_ context.Context, req providers.PairRequest) ([]model.TradePair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pairReqs = append(f.pairReqs, req)
	if f.pairErr != nil {
		return nil, f.pairErr
	}
	return f.pairs[req.Token0+"/"+req.Token1+"@"+req.FeeRate], nil
}

func (f *fakeIndex) UserLiquidity(context.Context, providers.PositionRequest) ([]model.IndexedPosition, error) {
	return f.liquidity, f.liquidityErr
}

func (f *fakeIndex) UserPortfolio(context.Context, providers.PositionRequest) ([]model.LiquidityPortfolioItem, error) {
	return f.portfolio, f.portfolioErr
}

type fakeKlines struct {
	bars  []model.KlineBar
	err   error
	block bool
	last  providers.KlineRequest
}

func (f *fakeKlines) Info() model.ProviderInfo { return model.ProviderInfo{Name: "fake-klines"} }

func (f *fakeKlines) Klines(ctx context.Context, req providers.KlineRequest) ([]model.KlineBar, error) {
	f.last = req
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.bars, f.err
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
