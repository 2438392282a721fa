package awaken

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/ggonzalez94/awaken-cli/internal/model"
	"github.com/ggonzalez94/awaken-cli/internal/registry"
	"github.com/shopspring/decimal"
)

// number accepts both JSON numbers and numeric strings. The index is not
// consistent about which one it sends.
type number string

func (n *number) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*n = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = number(strings.TrimSpace(s))
		return nil
	}
	*n = number(raw)
	return nil
}

// Amount renders the value as a plain decimal string, expanding exponents.
func (n number) Amount() string {
	if n == "" {
		return ""
	}
	d, err := decimal.NewFromString(string(n))
	if err != nil {
		return string(n)
	}
	return d.String()
}

func (n number) AmountOr(def string) string {
	if v := n.Amount(); v != "" {
		return v
	}
	return def
}

func (n number) Float() float64 {
	f, _ := strconv.ParseFloat(string(n), 64)
	return f
}

func (n number) FloatPtr() *float64 {
	if n == "" {
		return nil
	}
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		return nil
	}
	return &f
}

// listEnvelope reads `{data: {items}}` and falls back to a bare `{items}`.
type listEnvelope[T any] struct {
	Data *struct {
		Items []T `json:"items"`
	} `json:"data"`
	Items []T `json:"items"`
}

func (e listEnvelope[T]) items() []T {
	if e.Data != nil && len(e.Data.Items) > 0 {
		return e.Data.Items
	}
	return e.Items
}

type apiToken struct {
	ID       string `json:"id"`
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

func (t apiToken) model() model.TokenInfo {
	return model.TokenInfo{Symbol: t.Symbol, Decimals: t.Decimals, Address: t.Address, ID: t.ID}
}

type apiPair struct {
	ID           string   `json:"id"`
	Address      string   `json:"address"`
	Token0       apiToken `json:"token0"`
	Token1       apiToken `json:"token1"`
	FeeRate      number   `json:"feeRate"`
	Price        number   `json:"price"`
	PriceUSD     number   `json:"priceUSD"`
	TVL          number   `json:"tvl"`
	Volume24h    number   `json:"volume24h"`
	ValueLocked0 number   `json:"valueLocked0"`
	ValueLocked1 number   `json:"valueLocked1"`
}

func (p apiPair) model() model.TradePair {
	return model.TradePair{
		ID:           p.ID,
		Address:      p.Address,
		Token0:       p.Token0.model(),
		Token1:       p.Token1.model(),
		FeeRate:      p.FeeRate.Float(),
		Price:        p.Price.Float(),
		PriceUSD:     p.PriceUSD.Float(),
		TVL:          p.TVL.Float(),
		Volume24h:    p.Volume24h.Float(),
		ValueLocked0: p.ValueLocked0.Amount(),
		ValueLocked1: p.ValueLocked1.Amount(),
	}
}

type apiDistribution struct {
	Percent   number     `json:"percent"`
	AmountIn  number     `json:"amountIn"`
	AmountOut number     `json:"amountOut"`
	Tokens    []apiToken `json:"tokens"`
	FeeRates  []number   `json:"feeRates"`
}

type apiRoute struct {
	AmountIn      number            `json:"amountIn"`
	AmountOut     number            `json:"amountOut"`
	Splits        int               `json:"splits"`
	Distributions []apiDistribution `json:"distributions"`
}

func (r apiRoute) model() model.Route {
	out := model.Route{
		AmountIn:      r.AmountIn.Amount(),
		AmountOut:     r.AmountOut.Amount(),
		Splits:        r.Splits,
		Distributions: make([]model.Distribution, 0, len(r.Distributions)),
	}
	for _, d := range r.Distributions {
		dist := model.Distribution{
			Percent:   d.Percent.Float(),
			AmountIn:  d.AmountIn.Amount(),
			AmountOut: d.AmountOut.Amount(),
			Tokens:    make([]model.TokenInfo, 0, len(d.Tokens)),
			FeeRates:  make([]float64, 0, len(d.FeeRates)),
		}
		for _, tok := range d.Tokens {
			dist.Tokens = append(dist.Tokens, tok.model())
		}
		for _, f := range d.FeeRates {
			dist.FeeRates = append(dist.FeeRates, f.Float())
		}
		out.Distributions = append(out.Distributions, dist)
	}
	return out
}

type apiLiquidity struct {
	TradePair     apiPair `json:"tradePair"`
	LPTokenAmount number  `json:"lpTokenAmount"`
	Token0Amount  number  `json:"token0Amount"`
	Token1Amount  number  `json:"token1Amount"`
	AssetUSD      number  `json:"assetUSD"`
}

func (l apiLiquidity) model() model.IndexedPosition {
	return model.IndexedPosition{
		Pair:          l.TradePair.model(),
		LPTokenAmount: l.LPTokenAmount.AmountOr("0"),
		Token0Amount:  l.Token0Amount.AmountOr("0"),
		Token1Amount:  l.Token1Amount.AmountOr("0"),
		AssetUSD:      l.AssetUSD.FloatPtr(),
	}
}

type apiPortfolioPosition struct {
	TradePairInfo        apiPair `json:"tradePairInfo"`
	LPTokenAmount        number  `json:"lpTokenAmount"`
	LPTokenPercent       number  `json:"lpTokenPercent"`
	ImpermanentLossInUSD number  `json:"impermanentLossInUSD"`
	EstimatedAPR         any     `json:"estimatedAPR"`
	DynamicAPR           number  `json:"dynamicAPR"`
	Position             struct {
		ValueInUSD        number `json:"valueInUsd"`
		Token0Amount      number `json:"token0Amount"`
		Token0AmountInUSD number `json:"token0AmountInUsd"`
		Token1Amount      number `json:"token1Amount"`
		Token1AmountInUSD number `json:"token1AmountInUsd"`
	} `json:"position"`
	Fee struct {
		ValueInUSD number `json:"valueInUsd"`
	} `json:"fee"`
}

func (p apiPortfolioPosition) model() model.LiquidityPortfolioItem {
	pair := p.TradePairInfo
	return model.LiquidityPortfolioItem{
		PairID:             pair.ID,
		Pair:               pair.Token0.Symbol + "/" + pair.Token1.Symbol,
		FeeRate:            registry.FeeTierFromFraction(pair.FeeRate.Float()) + "%",
		LPTokenAmount:      p.LPTokenAmount.Amount(),
		LPTokenPercent:     p.LPTokenPercent.Amount(),
		PositionValueUSD:   p.Position.ValueInUSD.Amount(),
		Token0Amount:       p.Position.Token0Amount.Amount(),
		Token0ValueUSD:     p.Position.Token0AmountInUSD.Amount(),
		Token1Amount:       p.Position.Token1Amount.Amount(),
		Token1ValueUSD:     p.Position.Token1AmountInUSD.Amount(),
		FeeEarnedUSD:       p.Fee.ValueInUSD.Amount(),
		ImpermanentLossUSD: p.ImpermanentLossInUSD.Amount(),
		EstimatedAPR:       p.EstimatedAPR,
		DynamicAPR:         p.DynamicAPR.Amount(),
	}
}
