package model

// Distribution is one execution leg of a route. Amounts are raw integer
// strings unless the value came out of a quote conversion.
type Distribution struct {
	Percent   float64     `json:"percent"`
	AmountIn  string      `json:"amount_in"`
	AmountOut string      `json:"amount_out"`
	Tokens    []TokenInfo `json:"tokens"`
	FeeRates  []float64   `json:"fee_rates"`
}

// Path returns the hop symbols in execution order.
func (d Distribution) Path() []string {
	out := make([]string, 0, len(d.Tokens))
	for _, token := range d.Tokens {
		out = append(out, token.Symbol)
	}
	return out
}

// Route is a best-execution plan split across weighted distributions.
type Route struct {
	AmountIn      string         `json:"amount_in"`
	AmountOut     string         `json:"amount_out"`
	Splits        int            `json:"splits"`
	Distributions []Distribution `json:"distributions"`
}

type RouteType int

const (
	RouteExactIn  RouteType = 0
	RouteExactOut RouteType = 1
)

func (t RouteType) String() string {
	if t == RouteExactOut {
		return "exact_out"
	}
	return "exact_in"
}

// QuoteResult is a route converted to human amounts.
type QuoteResult struct {
	SymbolIn      string         `json:"symbol_in"`
	SymbolOut     string         `json:"symbol_out"`
	RouteType     string         `json:"route_type"`
	AmountIn      string         `json:"amount_in"`
	AmountOut     string         `json:"amount_out"`
	Splits        int            `json:"splits"`
	Distributions []Distribution `json:"distributions"`
}
