package model

import "time"

const EnvelopeVersion = "v1"

type Envelope struct {
	Version  string       `json:"version"`
	Success  bool         `json:"success"`
	Data     any          `json:"data,omitempty"`
	Error    *ErrorBody   `json:"error"`
	Warnings []string     `json:"warnings,omitempty"`
	Meta     EnvelopeMeta `json:"meta"`
}

type ErrorBody struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

type EnvelopeMeta struct {
	RequestID string           `json:"request_id"`
	Timestamp time.Time        `json:"timestamp"`
	Command   string           `json:"command"`
	Network   string           `json:"network,omitempty"`
	Providers []ProviderStatus `json:"providers,omitempty"`
	Cache     CacheStatus      `json:"cache"`
	Partial   bool             `json:"partial"`
}

type ProviderStatus struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
}

type CacheStatus struct {
	Status string `json:"status"`
	AgeMS  int64  `json:"age_ms"`
	Stale  bool   `json:"stale"`
}

type ProviderInfo struct {
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Endpoint     string   `json:"endpoint,omitempty"`
	RequiresKey  bool     `json:"requires_key"`
	Capabilities []string `json:"capabilities"`
}

type TokenInfo struct {
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
	Address  string `json:"address,omitempty"`
	ID       string `json:"id,omitempty"`
}

type AmountInfo struct {
	AmountBaseUnits string `json:"amount_base_units"`
	AmountDecimal   string `json:"amount_decimal"`
	Decimals        int    `json:"decimals"`
}

type BalanceResult struct {
	Symbol  string `json:"symbol"`
	Owner   string `json:"owner"`
	Balance string `json:"balance"`
}

type AllowanceResult struct {
	Symbol    string `json:"symbol"`
	Owner     string `json:"owner"`
	Spender   string `json:"spender"`
	Allowance string `json:"allowance"`
}

type TradePair struct {
	ID           string    `json:"id"`
	Address      string    `json:"address"`
	Token0       TokenInfo `json:"token0"`
	Token1       TokenInfo `json:"token1"`
	FeeRate      float64   `json:"fee_rate"`
	Price        float64   `json:"price"`
	PriceUSD     float64   `json:"price_usd"`
	TVL          float64   `json:"tvl"`
	Volume24h    float64   `json:"volume_24h"`
	ValueLocked0 string    `json:"value_locked0"`
	ValueLocked1 string    `json:"value_locked1"`
}

// TxState is the lifecycle of a submitted transaction.
type TxState string

const (
	TxStatePending TxState = "pending"
	TxStateMined   TxState = "mined"
	TxStateFailed  TxState = "failed"
)

// TxStatus is a single node report for a transaction id.
type TxStatus struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	Error         string `json:"error,omitempty"`
	BlockNumber   int64  `json:"block_number,omitempty"`
}

type TxResult struct {
	TransactionID string  `json:"transaction_id"`
	Status        TxState `json:"status"`
	Attempts      int     `json:"attempts,omitempty"`
}

type SwapResult struct {
	TransactionID      string `json:"transaction_id"`
	Status             string `json:"status"`
	SymbolIn           string `json:"symbol_in"`
	SymbolOut          string `json:"symbol_out"`
	AmountIn           string `json:"amount_in"`
	EstimatedAmountOut string `json:"estimated_amount_out"`
	MinAmountOut       string `json:"min_amount_out"`
	Slippage           string `json:"slippage"`
	ExplorerURL        string `json:"explorer_url"`
	ActionID           string `json:"action_id,omitempty"`
}

type LiquidityAddResult struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	TokenA        string `json:"token_a"`
	TokenB        string `json:"token_b"`
	AmountA       string `json:"amount_a"`
	AmountB       string `json:"amount_b"`
	MinAmountA    string `json:"min_amount_a"`
	MinAmountB    string `json:"min_amount_b"`
	FeeRate       string `json:"fee_rate"`
	ExplorerURL   string `json:"explorer_url"`
	ActionID      string `json:"action_id,omitempty"`
}

type LiquidityRemoveResult struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	TokenA        string `json:"token_a"`
	TokenB        string `json:"token_b"`
	LPSymbol      string `json:"lp_symbol"`
	LPAmount      string `json:"lp_amount"`
	MinAmountA    string `json:"min_amount_a"`
	MinAmountB    string `json:"min_amount_b"`
	FeeRate       string `json:"fee_rate"`
	ExplorerURL   string `json:"explorer_url"`
	ActionID      string `json:"action_id,omitempty"`
}

type ApproveResult struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	Symbol        string `json:"symbol"`
	Spender       string `json:"spender"`
	Amount        string `json:"amount"`
	ExplorerURL   string `json:"explorer_url"`
	ActionID      string `json:"action_id,omitempty"`
}

type KlineBar struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

type KlineResult struct {
	PairID        string     `json:"pair_id"`
	Interval      string     `json:"interval"`
	PeriodSeconds int64      `json:"period_seconds"`
	From          string     `json:"from"`
	To            string     `json:"to"`
	Count         int        `json:"count"`
	Bars          []KlineBar `json:"bars"`
}

type KlineInterval struct {
	Name    string `json:"name"`
	Seconds int64  `json:"seconds"`
}
