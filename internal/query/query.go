// Package query answers read-only questions about one Awaken deployment:
// routes, pairs, balances, allowances, liquidity positions and candles.
package query

import (
	"context"
	"time"

	"github.com/ggonzalez94/awaken-cli/internal/chain"
	clierr "github.com/ggonzalez94/awaken-cli/internal/errors"
	"github.com/ggonzalez94/awaken-cli/internal/id"
	"github.com/ggonzalez94/awaken-cli/internal/model"
	"github.com/ggonzalez94/awaken-cli/internal/providers"
	"github.com/ggonzalez94/awaken-cli/internal/registry"
	"golang.org/x/sync/errgroup"
)

// Deps are the capabilities a Service reads from. Any of them may be nil
// when the caller only needs a subset of operations.
type Deps struct {
	Chain     chain.Client
	Routes    providers.RouteProvider
	Pairs     providers.PairProvider
	Positions providers.PositionIndexProvider
	Klines    providers.KlineProvider
}

type Service struct {
	network   registry.Network
	chain     chain.Client
	routes    providers.RouteProvider
	pairs     providers.PairProvider
	positions providers.PositionIndexProvider
	klines    providers.KlineProvider
	now       func() time.Time
}

func New(network registry.Network, deps Deps) *Service {
	return &Service{
		network:   network,
		chain:     deps.Chain,
		routes:    deps.Routes,
		pairs:     deps.Pairs,
		positions: deps.Positions,
		klines:    deps.Klines,
		now:       time.Now,
	}
}

func (s *Service) Network() registry.Network {
	return s.network
}

// WithClock replaces the time source used for kline windows.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) requireChain() error {
	if s.chain == nil {
		return clierr.New(clierr.CodeInternal, "chain client is not configured")
	}
	return nil
}

// TokenInfo reads symbol metadata from the network's token contract.
func (s *Service) TokenInfo(ctx context.Context, symbol string) (model.TokenInfo, error) {
	if err := s.requireChain(); err != nil {
		return model.TokenInfo{}, err
	}
	return chain.TokenInfo(ctx, s.chain, s.network.TokenContract, symbol)
}

// TokenPair reads metadata for two symbols concurrently.
func (s *Service) TokenPair(ctx context.Context, a, b string) (model.TokenInfo, model.TokenInfo, error) {
	var left, right model.TokenInfo
	var g errgroup.Group
	g.Go(func() error {
		info, err := s.TokenInfo(ctx, a)
		left = info
		return err
	})
	g.Go(func() error {
		info, err := s.TokenInfo(ctx, b)
		right = info
		return err
	})
	if err := g.Wait(); err != nil {
		return model.TokenInfo{}, model.TokenInfo{}, err
	}
	return left, right, nil
}

// GetTokenBalance returns owner's balance in human units.
func (s *Service) GetTokenBalance(ctx context.Context, symbol, owner string) (model.BalanceResult, error) {
	if err := s.requireChain(); err != nil {
		return model.BalanceResult{}, err
	}
	sym, err := id.ParseSymbol(symbol)
	if err != nil {
		return model.BalanceResult{}, err
	}
	addr, err := id.NormalizeAddress(owner)
	if err != nil {
		return model.BalanceResult{}, err
	}

	var info model.TokenInfo
	var raw string
	var g errgroup.Group
	g.Go(func() error {
		v, err := s.TokenInfo(ctx, sym)
		info = v
		return err
	})
	g.Go(func() error {
		v, err := chain.Balance(ctx, s.chain, s.network.TokenContract, sym, addr)
		raw = v
		return err
	})
	if err := g.Wait(); err != nil {
		return model.BalanceResult{}, err
	}
	human, err := id.ToHuman(raw, info.Decimals)
	if err != nil {
		return model.BalanceResult{}, clierr.Wrap(clierr.CodeUnavailable, "node returned a malformed balance", err)
	}
	return model.BalanceResult{Symbol: sym, Owner: addr, Balance: human}, nil
}

// GetTokenAllowance returns the token-contract allowance owner granted
// spender, in human units.
func (s *Service) GetTokenAllowance(ctx context.Context, symbol, owner, spender string) (model.AllowanceResult, error) {
	if err := s.requireChain(); err != nil {
		return model.AllowanceResult{}, err
	}
	sym, err := id.ParseSymbol(symbol)
	if err != nil {
		return model.AllowanceResult{}, err
	}
	ownerAddr, err := id.NormalizeAddress(owner)
	if err != nil {
		return model.AllowanceResult{}, err
	}
	spenderAddr, err := id.NormalizeAddress(spender)
	if err != nil {
		return model.AllowanceResult{}, err
	}

	var info model.TokenInfo
	var raw string
	var g errgroup.Group
	g.Go(func() error {
		v, err := s.TokenInfo(ctx, sym)
		info = v
		return err
	})
	g.Go(func() error {
		v, err := chain.Allowance(ctx, s.chain, s.network.TokenContract, sym, ownerAddr, spenderAddr)
		raw = v
		return err
	})
	if err := g.Wait(); err != nil {
		return model.AllowanceResult{}, err
	}
	human, err := id.ToHuman(raw, info.Decimals)
	if err != nil {
		return model.AllowanceResult{}, clierr.Wrap(clierr.CodeUnavailable, "node returned a malformed allowance", err)
	}
	return model.AllowanceResult{Symbol: sym, Owner: ownerAddr, Spender: spenderAddr, Allowance: human}, nil
}
