package query

import (
	"context"
	"strings"
	"testing"

	"github.com/ggonzalez94/awaken-cli/internal/chain"
	clierr "github.com/ggonzalez94/awaken-cli/internal/errors"
	"github.com/ggonzalez94/awaken-cli/internal/model"
)

func indexedPosition(id, t0, t1 string, fee float64, lp string) model.IndexedPosition {
	usd := 10.0
	return model.IndexedPosition{
		Pair: model.TradePair{
			ID:      id,
			Token0:  model.TokenInfo{Symbol: t0, Decimals: 8},
			Token1:  model.TokenInfo{Symbol: t1, Decimals: 6},
			FeeRate: fee,
		},
		LPTokenAmount: lp,
		Token0Amount:  "1",
		Token1Amount:  "2",
		AssetUSD:      &usd,
	}
}

func TestLiquidityPositionsEnrichesEachPosition(t *testing.T) {
	net := testNetwork()
	factory, _ := net.FactoryAddress("0.3")
	fc := newFakeChain()
	fc.views[factory+"/GetBalance/ALP ELF-USDT"] = chain.View{"symbol": "ALP ELF-USDT", "amount": "777"}
	fc.errs[factory+"/GetBalance/ALP BTC-USDT"] = clierr.New(clierr.CodeUnavailable, "node down")

	idx := &fakeIndex{
		liquidity: []model.IndexedPosition{
			indexedPosition("p1", "USDT", "ELF", 0.003, "100"),
			indexedPosition("p2", "BTC", "USDT", 0.003, "50"),
			indexedPosition("p3", "ELF", "SGR", 0.007, "5"),
		},
		pairs: map[string][]model.TradePair{
			"USDT/ELF@0.003": {{ID: "p1", Price: 2.5}},
		},
		portfolio: []model.LiquidityPortfolioItem{{PairID: "p1", Pair: "USDT/ELF"}},
	}
	svc := New(net, Deps{Chain: fc, Pairs: idx, Positions: idx})

	report, err := svc.LiquidityPositions(context.Background(), LiquidityQuery{Address: testOwner})
	if err != nil {
		t.Fatalf("LiquidityPositions failed: %v", err)
	}
	if report.TotalPositions != 3 || len(report.Positions) != 3 {
		t.Fatalf("unexpected position count %+v", report)
	}

	first := report.Positions[0]
	if first.LPSymbol != "ALP ELF-USDT" || first.LPTokenAmountOnChain != "777" || first.FeeRate != "0.3%" {
		t.Fatalf("unexpected first position %+v", first)
	}
	if first.PairPrice == nil || *first.PairPrice != 2.5 {
		t.Fatalf("expected pair price 2.5, got %v", first.PairPrice)
	}

	second := report.Positions[1]
	if second.LPTokenAmountOnChain != "0" || second.PairPrice != nil {
		t.Fatalf("failed enrichment must degrade, got %+v", second)
	}

	third := report.Positions[2]
	if third.FeeRate != "0.7%" || third.LPTokenAmountOnChain != "0" {
		t.Fatalf("unregistered tier must report zero on-chain balance, got %+v", third)
	}
	for _, call := range fc.calls {
		if strings.HasSuffix(call, "/GetBalance/ALP ELF-SGR") {
			t.Fatal("no factory read expected for an unregistered tier")
		}
	}

	if len(report.PortfolioDetail) != 1 {
		t.Fatalf("expected portfolio detail, got %+v", report.PortfolioDetail)
	}
}

func TestLiquidityPositionsFilters(t *testing.T) {
	net := testNetwork()
	idx := &fakeIndex{
		liquidity: []model.IndexedPosition{
			indexedPosition("p1", "ELF", "USDT", 0.003, "1"),
			indexedPosition("p2", "BTC", "USDT", 0.003, "1"),
			indexedPosition("p3", "ELF", "BTC", 0.003, "1"),
		},
	}
	svc := New(net, Deps{Chain: newFakeChain(), Pairs: idx, Positions: idx})

	report, err := svc.LiquidityPositions(context.Background(), LiquidityQuery{Address: testOwner, Token0: "usdt"})
	if err != nil {
		t.Fatalf("LiquidityPositions failed: %v", err)
	}
	if report.TotalPositions != 2 || report.Positions[0].PairID != "p1" || report.Positions[1].PairID != "p2" {
		t.Fatalf("token0 filter must match either side, got %+v", report.Positions)
	}

	report, err = svc.LiquidityPositions(context.Background(), LiquidityQuery{Address: testOwner, Token0: "USDT", Token1: "BTC"})
	if err != nil {
		t.Fatalf("LiquidityPositions failed: %v", err)
	}
	if report.TotalPositions != 1 || report.Positions[0].PairID != "p2" {
		t.Fatalf("both filters must apply, got %+v", report.Positions)
	}
	if report.PortfolioDetail != nil {
		t.Fatalf("empty portfolio must be omitted, got %+v", report.PortfolioDetail)
	}
}

func TestLiquidityPositionsIndexFailureIsFatal(t *testing.T) {
	idx := &fakeIndex{liquidityErr: clierr.New(clierr.CodeUnavailable, "index down")}
	svc := New(testNetwork(), Deps{Positions: idx})
	if _, err := svc.LiquidityPositions(context.Background(), LiquidityQuery{Address: testOwner}); !clierr.Is(err, clierr.CodeUnavailable) {
		t.Fatalf("expected index failure, got %v", err)
	}
}

func TestLiquidityPositionsPortfolioFailureIsOptional(t *testing.T) {
	idx := &fakeIndex{
		liquidity:    []model.IndexedPosition{indexedPosition("p1", "ELF", "USDT", 0.003, "1")},
		portfolioErr: clierr.New(clierr.CodeUnavailable, "portfolio down"),
	}
	svc := New(testNetwork(), Deps{Chain: newFakeChain(), Pairs: idx, Positions: idx})
	report, err := svc.LiquidityPositions(context.Background(), LiquidityQuery{Address: testOwner})
	if err != nil {
		t.Fatalf("LiquidityPositions failed: %v", err)
	}
	if report.TotalPositions != 1 || report.PortfolioDetail != nil {
		t.Fatalf("unexpected report %+v", report)
	}
}
