package app

import (
	"context"
	"time"

	"github.com/ggonzalez94/awaken-cli/internal/id"
	"github.com/ggonzalez94/awaken-cli/internal/model"
	"github.com/ggonzalez94/awaken-cli/internal/query"
	"github.com/ggonzalez94/awaken-cli/internal/registry"
	"github.com/spf13/cobra"
)

const (
	quoteCacheTTL = 15 * time.Second
	pairCacheTTL  = 60 * time.Second
	klineCacheTTL = 30 * time.Second
)

func (s *runtimeState) newQuoteCommand() *cobra.Command {
	var tokenIn, tokenOut, amountIn, amountOut string
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Best swap route for an exact input or exact output amount",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := query.QuoteRequest{SymbolIn: tokenIn, SymbolOut: tokenOut, AmountIn: amountIn, AmountOut: amountOut}
			symIn, symOut, err := id.ParsePair(tokenIn, tokenOut)
			if err != nil {
				return err
			}
			path := trimRootPath(cmd.CommandPath())
			key := cacheKey(path, map[string]any{
				"network":    s.network.Name,
				"token_in":   symIn,
				"token_out":  symOut,
				"amount_in":  amountIn,
				"amount_out": amountOut,
			})
			return s.runCachedCommand(path, key, quoteCacheTTL, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				start := time.Now()
				data, err := s.query.GetQuote(ctx, req)
				status := []model.ProviderStatus{{Name: s.index.Info().Name, Status: statusFromErr(err), LatencyMS: time.Since(start).Milliseconds()}}
				return data, status, nil, false, err
			})
		},
	}
	cmd.Flags().StringVar(&tokenIn, "token-in", "", "Input token symbol")
	cmd.Flags().StringVar(&tokenOut, "token-out", "", "Output token symbol")
	cmd.Flags().StringVar(&amountIn, "amount-in", "", "Exact input amount in human units")
	cmd.Flags().StringVar(&amountOut, "amount-out", "", "Exact output amount in human units")
	_ = cmd.MarkFlagRequired("token-in")
	_ = cmd.MarkFlagRequired("token-out")
	return cmd
}

func (s *runtimeState) newPairCommand() *cobra.Command {
	var token0, token1, feeRate string
	cmd := &cobra.Command{
		Use:   "pair",
		Short: "Trade pair details for two tokens at a fee tier",
		RunE: func(cmd *cobra.Command, args []string) error {
			tier, err := registry.NormalizeFeeTier(feeRate)
			if err != nil {
				return err
			}
			sym0, sym1, err := id.ParsePair(token0, token1)
			if err != nil {
				return err
			}
			q := query.PairQuery{Token0: sym0, Token1: sym1, FeeTier: tier}
			path := trimRootPath(cmd.CommandPath())
			key := cacheKey(path, map[string]any{
				"network": s.network.Name,
				"token0":  sym0,
				"token1":  sym1,
				"fee":     tier,
			})
			return s.runCachedCommand(path, key, pairCacheTTL, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				start := time.Now()
				data, err := s.query.GetPair(ctx, q)
				status := []model.ProviderStatus{{Name: s.index.Info().Name, Status: statusFromErr(err), LatencyMS: time.Since(start).Milliseconds()}}
				return data, status, nil, false, err
			})
		},
	}
	cmd.Flags().StringVar(&token0, "token0", "", "First token symbol")
	cmd.Flags().StringVar(&token1, "token1", "", "Second token symbol")
	cmd.Flags().StringVar(&feeRate, "fee-rate", registry.DefaultFeeTier, "Fee tier in percent (0.05|0.1|0.3|3|5)")
	_ = cmd.MarkFlagRequired("token0")
	_ = cmd.MarkFlagRequired("token1")
	return cmd
}

func (s *runtimeState) newBalanceCommand() *cobra.Command {
	var symbol, address string
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Token balance of an address",
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.runUncached(trimRootPath(cmd.CommandPath()), nodeProviderInfo(s.network).Name, func(ctx context.Context) (any, error) {
				return s.query.GetTokenBalance(ctx, symbol, address)
			})
		},
	}
	cmd.Flags().StringVar(&symbol, "symbol", "", "Token symbol")
	cmd.Flags().StringVar(&address, "address", "", "Owner address")
	_ = cmd.MarkFlagRequired("symbol")
	_ = cmd.MarkFlagRequired("address")
	return cmd
}

func (s *runtimeState) newAllowanceCommand() *cobra.Command {
	var symbol, owner, spender string
	cmd := &cobra.Command{
		Use:   "allowance",
		Short: "Token allowance granted by an owner to a spender",
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.runUncached(trimRootPath(cmd.CommandPath()), nodeProviderInfo(s.network).Name, func(ctx context.Context) (any, error) {
				return s.query.GetTokenAllowance(ctx, symbol, owner, spender)
			})
		},
	}
	cmd.Flags().StringVar(&symbol, "symbol", "", "Token symbol")
	cmd.Flags().StringVar(&owner, "owner", "", "Owner address")
	cmd.Flags().StringVar(&spender, "spender", "", "Spender address")
	_ = cmd.MarkFlagRequired("symbol")
	_ = cmd.MarkFlagRequired("owner")
	_ = cmd.MarkFlagRequired("spender")
	return cmd
}

func (s *runtimeState) newLiquidityCommand() *cobra.Command {
	root := &cobra.Command{Use: "liquidity", Short: "Liquidity positions and pool deposits"}

	var address, token0, token1 string
	positions := &cobra.Command{
		Use:   "positions",
		Short: "Liquidity positions of an address with on-chain LP balances",
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.runUncached(trimRootPath(cmd.CommandPath()), s.index.Info().Name, func(ctx context.Context) (any, error) {
				return s.query.LiquidityPositions(ctx, query.LiquidityQuery{Address: address, Token0: token0, Token1: token1})
			})
		},
	}
	positions.Flags().StringVar(&address, "address", "", "Wallet address")
	positions.Flags().StringVar(&token0, "token0", "", "Only positions holding this token")
	positions.Flags().StringVar(&token1, "token1", "", "Only positions holding this token")
	_ = positions.MarkFlagRequired("address")

	root.AddCommand(positions)
	root.AddCommand(s.newLiquidityAddCommand())
	root.AddCommand(s.newLiquidityRemoveCommand())
	return root
}

func (s *runtimeState) newKlineCommand() *cobra.Command {
	root := &cobra.Command{Use: "kline", Short: "Candlestick data"}

	var pairID, interval, from, to string
	var timeout time.Duration
	fetch := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch OHLCV bars for a trade pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := query.KlineQuery{PairID: pairID, Interval: interval, From: from, To: to, Timeout: timeout}
			path := trimRootPath(cmd.CommandPath())
			key := cacheKey(path, map[string]any{
				"network":  s.network.Name,
				"pair_id":  pairID,
				"interval": interval,
				"from":     from,
				"to":       to,
			})
			// The feed enforces its own timeout; the outer budget only has
			// to outlast it.
			budget := s.settings.Timeout
			if timeout+time.Second > budget {
				budget = timeout + time.Second
			}
			return s.runCachedCommandWithTimeout(path, key, klineCacheTTL, budget, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				start := time.Now()
				data, err := s.query.FetchKline(ctx, q)
				status := []model.ProviderStatus{{Name: s.klineFeed.Info().Name, Status: statusFromErr(err), LatencyMS: time.Since(start).Milliseconds()}}
				return data, status, nil, false, err
			})
		},
	}
	fetch.Flags().StringVar(&pairID, "pair-id", "", "Trade pair id from the index")
	fetch.Flags().StringVar(&interval, "interval", query.DefaultKlineInterval, "Bar interval (1m|15m|30m|1h|4h|1D|1W)")
	fetch.Flags().StringVar(&from, "from", "", "Window start (unix seconds, unix ms or date); default 7 days ago")
	fetch.Flags().StringVar(&to, "to", "", "Window end (unix seconds, unix ms or date); default now")
	fetch.Flags().DurationVar(&timeout, "fetch-timeout", query.DefaultKlineTimeout, "Socket fetch timeout")
	_ = fetch.MarkFlagRequired("pair-id")

	intervals := &cobra.Command{
		Use:   "intervals",
		Short: "List supported bar intervals",
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), query.KlineIntervals(), nil, cacheMetaBypass(), nil, false)
		},
	}

	root.AddCommand(fetch)
	root.AddCommand(intervals)
	return root
}
