package model

// IndexedPosition is one row of the off-chain liquidity index.
type IndexedPosition struct {
	Pair          TradePair `json:"trade_pair"`
	LPTokenAmount string    `json:"lp_token_amount"`
	Token0Amount  string    `json:"token0_amount"`
	Token1Amount  string    `json:"token1_amount"`
	AssetUSD      *float64  `json:"asset_usd"`
}

type LiquidityPosition struct {
	PairID               string    `json:"pair_id"`
	Token0               TokenInfo `json:"token0"`
	Token1               TokenInfo `json:"token1"`
	FeeRate              string    `json:"fee_rate"`
	LPSymbol             string    `json:"lp_symbol"`
	LPTokenAmount        string    `json:"lp_token_amount"`
	LPTokenAmountOnChain string    `json:"lp_token_amount_on_chain"`
	Token0Amount         string    `json:"token0_amount"`
	Token1Amount         string    `json:"token1_amount"`
	AssetUSD             *float64  `json:"asset_usd"`
	PairPrice            *float64  `json:"pair_price"`
}

type LiquidityPortfolioItem struct {
	PairID             string `json:"pair_id"`
	Pair               string `json:"pair"`
	FeeRate            string `json:"fee_rate"`
	LPTokenAmount      string `json:"lp_token_amount"`
	LPTokenPercent     string `json:"lp_token_percent"`
	PositionValueUSD   string `json:"position_value_usd"`
	Token0Amount       string `json:"token0_amount"`
	Token0ValueUSD     string `json:"token0_value_usd"`
	Token1Amount       string `json:"token1_amount"`
	Token1ValueUSD     string `json:"token1_value_usd"`
	FeeEarnedUSD       string `json:"fee_earned_usd"`
	ImpermanentLossUSD string `json:"impermanent_loss_usd"`
	EstimatedAPR       any    `json:"estimated_apr,omitempty"`
	DynamicAPR         string `json:"dynamic_apr"`
}

type LiquidityReport struct {
	Address         string                   `json:"address"`
	TotalPositions  int                      `json:"total_positions"`
	Positions       []LiquidityPosition      `json:"positions"`
	PortfolioDetail []LiquidityPortfolioItem `json:"portfolio_detail,omitempty"`
}
