package query

import (
	"context"

	"github.com/ggonzalez94/awaken-cli/internal/chain"
	clierr "github.com/ggonzalez94/awaken-cli/internal/errors"
	"github.com/ggonzalez94/awaken-cli/internal/id"
	"github.com/ggonzalez94/awaken-cli/internal/model"
	"github.com/ggonzalez94/awaken-cli/internal/providers"
	"github.com/ggonzalez94/awaken-cli/internal/registry"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Index page requested from the liquidity endpoints.
const (
	positionsSkipCount      = 0
	positionsMaxResultCount = 100
	enrichmentConcurrency   = 8
)

type LiquidityQuery struct {
	Address string
	// Token0 and Token1 filter positions that hold the symbol on either side.
	Token0 string
	Token1 string
}

// LiquidityPositions merges the index view of a wallet's positions with
// on-chain LP balances and current pair prices. Only the index fetch can
// fail the call; enrichment failures degrade to "0" or a null price, and
// the portfolio detail is omitted when its endpoint fails.
func (s *Service) LiquidityPositions(ctx context.Context, q LiquidityQuery) (model.LiquidityReport, error) {
	if s.positions == nil {
		return model.LiquidityReport{}, clierr.New(clierr.CodeInternal, "position index is not configured")
	}
	addr, err := id.NormalizeAddress(q.Address)
	if err != nil {
		return model.LiquidityReport{}, err
	}
	filters := make([]string, 0, 2)
	for _, raw := range []string{q.Token0, q.Token1} {
		if raw == "" {
			continue
		}
		sym, err := id.ParseSymbol(raw)
		if err != nil {
			return model.LiquidityReport{}, err
		}
		filters = append(filters, sym)
	}

	req := providers.PositionRequest{
		ChainID:        s.network.ChainID,
		Address:        addr,
		SkipCount:      positionsSkipCount,
		MaxResultCount: positionsMaxResultCount,
	}

	portfolio := make(chan []model.LiquidityPortfolioItem, 1)
	go func() {
		items, err := s.positions.UserPortfolio(ctx, req)
		if err != nil {
			items = nil
		}
		portfolio <- items
	}()

	indexed, err := s.positions.UserLiquidity(ctx, req)
	if err != nil {
		<-portfolio
		return model.LiquidityReport{}, err
	}
	for _, sym := range filters {
		indexed = lo.Filter(indexed, func(p model.IndexedPosition, _ int) bool {
			return p.Pair.Token0.Symbol == sym || p.Pair.Token1.Symbol == sym
		})
	}

	positions := make([]model.LiquidityPosition, len(indexed))
	var g errgroup.Group
	g.SetLimit(enrichmentConcurrency)
	for i, item := range indexed {
		g.Go(func() error {
			positions[i] = s.enrichPosition(ctx, addr, item)
			return nil
		})
	}
	_ = g.Wait()

	report := model.LiquidityReport{
		Address:        addr,
		TotalPositions: len(positions),
		Positions:      positions,
	}
	if detail := <-portfolio; len(detail) > 0 {
		report.PortfolioDetail = detail
	}
	return report, nil
}

func (s *Service) enrichPosition(ctx context.Context, owner string, item model.IndexedPosition) model.LiquidityPosition {
	pair := item.Pair
	t0, t1 := pair.Token0.Symbol, pair.Token1.Symbol
	tier := registry.FeeTierFromFraction(pair.FeeRate)
	lpSymbol := id.LPSymbol(t0, t1)

	out := model.LiquidityPosition{
		PairID:               pair.ID,
		Token0:               model.TokenInfo{Symbol: t0, Decimals: pair.Token0.Decimals},
		Token1:               model.TokenInfo{Symbol: t1, Decimals: pair.Token1.Decimals},
		FeeRate:              tier + "%",
		LPSymbol:             lpSymbol,
		LPTokenAmount:        item.LPTokenAmount,
		LPTokenAmountOnChain: "0",
		Token0Amount:         item.Token0Amount,
		Token1Amount:         item.Token1Amount,
		AssetUSD:             item.AssetUSD,
	}

	var g errgroup.Group
	g.Go(func() error {
		factory, ok := s.network.FactoryAddress(tier)
		if !ok || s.chain == nil {
			return nil
		}
		if amount, err := chain.LPBalance(ctx, s.chain, factory, lpSymbol, owner); err == nil {
			out.LPTokenAmountOnChain = amount
		}
		return nil
	})
	g.Go(func() error {
		if s.pairs == nil {
			return nil
		}
		items, err := s.pairs.TradePairs(ctx, providers.PairRequest{
			ChainID: s.network.ChainID,
			Token0:  t0,
			Token1:  t1,
			FeeRate: decimal.NewFromFloat(pair.FeeRate).String(),
		})
		if err == nil && len(items) > 0 {
			price := items[0].Price
			out.PairPrice = &price
		}
		return nil
	})
	_ = g.Wait()
	return out
}
