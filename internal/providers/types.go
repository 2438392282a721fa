package providers

import (
	"context"

	"github.com/ggonzalez94/awaken-cli/internal/model"
)

type Provider interface {
	Info() model.ProviderInfo
}

type RouteRequest struct {
	ChainID   string
	SymbolIn  string
	SymbolOut string
	RouteType model.RouteType
	// Raw base-unit amounts; exactly one is set according to RouteType.
	AmountIn  string
	AmountOut string
}

type RouteProvider interface {
	Provider
	BestRoutes(ctx context.Context, req RouteRequest) ([]model.Route, error)
}

type PairRequest struct {
	ChainID string
	Token0  string
	Token1  string
	// FeeRate is the pool fee as a fraction ("0.003").
	FeeRate string
}

type PairProvider interface {
	Provider
	TradePairs(ctx context.Context, req PairRequest) ([]model.TradePair, error)
}

type PositionRequest struct {
	ChainID        string
	Address        string
	SkipCount      int
	MaxResultCount int
}

type PositionIndexProvider interface {
	Provider
	UserLiquidity(ctx context.Context, req PositionRequest) ([]model.IndexedPosition, error)
	UserPortfolio(ctx context.Context, req PositionRequest) ([]model.LiquidityPortfolioItem, error)
}

type KlineRequest struct {
	ChainID       string
	PairID        string
	PeriodSeconds int64
	// FromMS and ToMS are unix milliseconds.
	FromMS int64
	ToMS   int64
}

type KlineProvider interface {
	Provider
	Klines(ctx context.Context, req KlineRequest) ([]model.KlineBar, error)
}
