package query

import (
	"context"
	"fmt"
	"strings"

	clierr "github.com/ggonzalez94/awaken-cli/internal/errors"
	"github.com/ggonzalez94/awaken-cli/internal/id"
	"github.com/ggonzalez94/awaken-cli/internal/model"
	"github.com/ggonzalez94/awaken-cli/internal/providers"
	"github.com/ggonzalez94/awaken-cli/internal/registry"
)

// QuoteRequest takes human amounts. When AmountIn is set the quote is
// exact-in, otherwise exact-out.
type QuoteRequest struct {
	SymbolIn  string
	SymbolOut string
	AmountIn  string
	AmountOut string
}

// RoutePlan is the best route in raw base units together with the token
// metadata needed to convert or execute it.
type RoutePlan struct {
	TokenIn   model.TokenInfo
	TokenOut  model.TokenInfo
	RouteType model.RouteType
	Route     model.Route
}

// FindRoute asks the index for the best route and returns its first entry.
func (s *Service) FindRoute(ctx context.Context, req QuoteRequest) (RoutePlan, error) {
	if s.routes == nil {
		return RoutePlan{}, clierr.New(clierr.CodeInternal, "route provider is not configured")
	}
	symIn, symOut, err := id.ParsePair(req.SymbolIn, req.SymbolOut)
	if err != nil {
		return RoutePlan{}, err
	}
	amountIn := strings.TrimSpace(req.AmountIn)
	amountOut := strings.TrimSpace(req.AmountOut)
	if amountIn == "" && amountOut == "" {
		return RoutePlan{}, clierr.New(clierr.CodeUsage, "Either amountIn or amountOut is required")
	}

	tokenIn, tokenOut, err := s.TokenPair(ctx, symIn, symOut)
	if err != nil {
		return RoutePlan{}, err
	}

	routeReq := providers.RouteRequest{
		ChainID:   s.network.ChainID,
		SymbolIn:  symIn,
		SymbolOut: symOut,
		RouteType: model.RouteExactOut,
	}
	if amountIn != "" {
		routeReq.RouteType = model.RouteExactIn
		if routeReq.AmountIn, err = id.ToRaw(amountIn, tokenIn.Decimals); err != nil {
			return RoutePlan{}, err
		}
	}
	if amountOut != "" {
		if routeReq.AmountOut, err = id.ToRaw(amountOut, tokenOut.Decimals); err != nil {
			return RoutePlan{}, err
		}
	}

	routes, err := s.routes.BestRoutes(ctx, routeReq)
	if err != nil {
		return RoutePlan{}, err
	}
	if len(routes) == 0 {
		return RoutePlan{}, clierr.New(clierr.CodeNotFound, "No swap route found")
	}
	return RoutePlan{TokenIn: tokenIn, TokenOut: tokenOut, RouteType: routeReq.RouteType, Route: routes[0]}, nil
}

// GetQuote is FindRoute with every amount converted to human units.
func (s *Service) GetQuote(ctx context.Context, req QuoteRequest) (model.QuoteResult, error) {
	plan, err := s.FindRoute(ctx, req)
	if err != nil {
		return model.QuoteResult{}, err
	}
	return plan.Human(), nil
}

// Human converts the raw route to display units using the input token's
// decimals for inputs and the output token's for outputs.
func (p RoutePlan) Human() model.QuoteResult {
	out := model.QuoteResult{
		SymbolIn:      p.TokenIn.Symbol,
		SymbolOut:     p.TokenOut.Symbol,
		RouteType:     p.RouteType.String(),
		AmountIn:      id.MustHuman(p.Route.AmountIn, p.TokenIn.Decimals),
		AmountOut:     id.MustHuman(p.Route.AmountOut, p.TokenOut.Decimals),
		Splits:        p.Route.Splits,
		Distributions: make([]model.Distribution, 0, len(p.Route.Distributions)),
	}
	for _, d := range p.Route.Distributions {
		d.AmountIn = id.MustHuman(d.AmountIn, p.TokenIn.Decimals)
		d.AmountOut = id.MustHuman(d.AmountOut, p.TokenOut.Decimals)
		out.Distributions = append(out.Distributions, d)
	}
	return out
}

type PairQuery struct {
	Token0 string
	Token1 string
	// FeeTier is the pool fee in percent ("0.3"); empty selects the default.
	FeeTier string
}

// GetPair returns the first index match for the pair at a fee tier.
func (s *Service) GetPair(ctx context.Context, q PairQuery) (model.TradePair, error) {
	if s.pairs == nil {
		return model.TradePair{}, clierr.New(clierr.CodeInternal, "pair provider is not configured")
	}
	t0, t1, err := id.ParsePair(q.Token0, q.Token1)
	if err != nil {
		return model.TradePair{}, err
	}
	tier, err := registry.NormalizeFeeTier(q.FeeTier)
	if err != nil {
		return model.TradePair{}, err
	}
	fraction, err := registry.FeeTierToFraction(tier)
	if err != nil {
		return model.TradePair{}, err
	}
	items, err := s.pairs.TradePairs(ctx, providers.PairRequest{
		ChainID: s.network.ChainID,
		Token0:  t0,
		Token1:  t1,
		FeeRate: fraction,
	})
	if err != nil {
		return model.TradePair{}, err
	}
	if len(items) == 0 {
		return model.TradePair{}, clierr.New(clierr.CodeNotFound, fmt.Sprintf("No trade pair found for %s/%s @ %s%%", t0, t1, tier))
	}
	return items[0], nil
}
