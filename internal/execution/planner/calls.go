package planner

import (
	"time"

	clierr "github.com/ggonzalez94/awaken-cli/internal/errors"
	"github.com/ggonzalez94/awaken-cli/internal/registry"
)

const (
	// SwapLabsFeeRate is the labs fee passed to the swap hook, in basis points.
	SwapLabsFeeRate = 15
	// DeadlineWindow is how long a submitted trade stays valid.
	DeadlineWindow = 20 * time.Minute
	// Channel is the referral channel tag sent with trades.
	Channel = ""
	// LPDecimals is the precision of every Awaken LP token.
	LPDecimals = 8
	// RemoveLiquidityFloor is the per-token minimum when no expected amounts
	// are supplied.
	RemoveLiquidityFloor = "1"
)

type Timestamp struct {
	Seconds int64 `json:"seconds"`
	Nanos   int32 `json:"nanos"`
}

func DeadlineFrom(now time.Time) Timestamp {
	return Timestamp{Seconds: now.Add(DeadlineWindow).Unix()}
}

type SwapToken struct {
	AmountIn     string    `json:"amountIn"`
	AmountOutMin string    `json:"amountOutMin"`
	Path         []string  `json:"path"`
	To           string    `json:"to"`
	Deadline     Timestamp `json:"deadline"`
	Channel      string    `json:"channel"`
	FeeRates     []int64   `json:"feeRates"`
}

// SwapArgs is the SwapExactTokensForTokens input of the swap hook contract.
type SwapArgs struct {
	SwapTokens  []SwapToken `json:"swapTokens"`
	LabsFeeRate int64       `json:"labsFeeRate"`
}

type AddLiquidityArgs struct {
	SymbolA        string    `json:"symbolA"`
	SymbolB        string    `json:"symbolB"`
	AmountADesired string    `json:"amountADesired"`
	AmountBDesired string    `json:"amountBDesired"`
	AmountAMin     string    `json:"amountAMin"`
	AmountBMin     string    `json:"amountBMin"`
	To             string    `json:"to"`
	Deadline       Timestamp `json:"deadline"`
	Channel        string    `json:"channel"`
}

type RemoveLiquidityArgs struct {
	SymbolA         string    `json:"symbolA"`
	SymbolB         string    `json:"symbolB"`
	AmountAMin      string    `json:"amountAMin"`
	AmountBMin      string    `json:"amountBMin"`
	LiquidityRemove string    `json:"liquidityRemove"`
	To              string    `json:"to"`
	Deadline        Timestamp `json:"deadline"`
}

// BuildSwapArgs turns bounded route legs into swap hook input. Every leg
// carries its own floor, path and per-hop fee rates.
func BuildSwapArgs(bounds RouteBounds, to string, deadline Timestamp) (SwapArgs, error) {
	if len(bounds.Legs) == 0 {
		return SwapArgs{}, clierr.New(clierr.CodeActionPlan, "route has no distributions")
	}
	tokens := make([]SwapToken, 0, len(bounds.Legs))
	for i, leg := range bounds.Legs {
		path := leg.Distribution.Path()
		if len(path) < 2 {
			return SwapArgs{}, clierr.Newf(clierr.CodeActionPlan, "route distribution %d has a path shorter than two tokens", i)
		}
		feeRates := make([]int64, 0, len(leg.Distribution.FeeRates))
		for _, f := range leg.Distribution.FeeRates {
			feeRates = append(feeRates, registry.HopFeeRate(f))
		}
		tokens = append(tokens, SwapToken{
			AmountIn:     leg.Distribution.AmountIn,
			AmountOutMin: leg.MinAmountOut,
			Path:         path,
			To:           to,
			Deadline:     deadline,
			Channel:      Channel,
			FeeRates:     feeRates,
		})
	}
	return SwapArgs{SwapTokens: tokens, LabsFeeRate: SwapLabsFeeRate}, nil
}
