package trade

import (
	"context"
	"fmt"
	"strings"

	clierr "github.com/ggonzalez94/awaken-cli/internal/errors"
	"github.com/ggonzalez94/awaken-cli/internal/execution"
	"github.com/ggonzalez94/awaken-cli/internal/execution/planner"
	"github.com/ggonzalez94/awaken-cli/internal/id"
	"github.com/ggonzalez94/awaken-cli/internal/model"
	"github.com/ggonzalez94/awaken-cli/internal/registry"
	"golang.org/x/sync/errgroup"
)

type AddLiquidityRequest struct {
	TokenA   string
	TokenB   string
	AmountA  string
	AmountB  string
	FeeTier  string
	Slippage string
}

// AddLiquidity approves both tokens to the tier's router concurrently and
// then deposits them.
func (s *Service) AddLiquidity(ctx context.Context, req AddLiquidityRequest) (model.LiquidityAddResult, error) {
	if err := s.requireSigner(); err != nil {
		return model.LiquidityAddResult{}, err
	}
	symA, symB, err := id.ParsePair(req.TokenA, req.TokenB)
	if err != nil {
		return model.LiquidityAddResult{}, err
	}
	tier, err := registry.NormalizeFeeTier(req.FeeTier)
	if err != nil {
		return model.LiquidityAddResult{}, err
	}
	router, err := s.network.RouterAddress(tier)
	if err != nil {
		return model.LiquidityAddResult{}, err
	}
	slippage, err := s.parseSlippage(req.Slippage)
	if err != nil {
		return model.LiquidityAddResult{}, err
	}
	infoA, infoB, err := s.query.TokenPair(ctx, symA, symB)
	if err != nil {
		return model.LiquidityAddResult{}, err
	}
	rawA, err := id.ToRaw(req.AmountA, infoA.Decimals)
	if err != nil {
		return model.LiquidityAddResult{}, err
	}
	rawB, err := id.ToRaw(req.AmountB, infoB.Decimals)
	if err != nil {
		return model.LiquidityAddResult{}, err
	}
	if err := requirePositive(rawA, "amount A"); err != nil {
		return model.LiquidityAddResult{}, err
	}
	if err := requirePositive(rawB, "amount B"); err != nil {
		return model.LiquidityAddResult{}, err
	}
	minA, minB, err := planner.BoundPair(rawA, rawB, slippage)
	if err != nil {
		return model.LiquidityAddResult{}, err
	}

	deadline := planner.DeadlineFrom(s.now())
	action := s.newAction(execution.IntentAddLiquidity, slippage, deadline)
	action.Metadata["token_a"] = symA
	action.Metadata["token_b"] = symB
	action.Metadata["fee_tier"] = tier
	action.Metadata["router"] = router

	result, err := s.run(&action, func(sender string) (model.TxResult, error) {
		g, gctx := errgroup.WithContext(ctx)
		for _, leg := range []struct{ symbol, raw string }{{symA, rawA}, {symB, rawB}} {
			g.Go(func() error {
				_, err := s.reconciler.Ensure(gctx, &action, execution.ApprovalRequest{
					Contract: s.network.TokenContract,
					Symbol:   leg.symbol,
					Owner:    sender,
					Spender:  router,
					Required: leg.raw,
				})
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return model.TxResult{}, err
		}
		return s.executor.Run(ctx, &action, execution.ActionStep{
			Type:        execution.StepTypeAddLiquidity,
			Description: fmt.Sprintf("Add %s/%s liquidity at %s%%", symA, symB, tier),
			Contract:    router,
			Method:      methodAddLiquidity,
			Args: planner.AddLiquidityArgs{
				SymbolA:        symA,
				SymbolB:        symB,
				AmountADesired: rawA,
				AmountBDesired: rawB,
				AmountAMin:     minA,
				AmountBMin:     minB,
				To:             sender,
				Deadline:       deadline,
				Channel:        planner.Channel,
			},
		})
	})
	if err != nil {
		return model.LiquidityAddResult{}, err
	}
	return model.LiquidityAddResult{
		TransactionID: result.TransactionID,
		Status:        string(result.Status),
		TokenA:        symA,
		TokenB:        symB,
		AmountA:       id.MustHuman(rawA, infoA.Decimals),
		AmountB:       id.MustHuman(rawB, infoB.Decimals),
		MinAmountA:    id.MustHuman(minA, infoA.Decimals),
		MinAmountB:    id.MustHuman(minB, infoB.Decimals),
		FeeRate:       tier,
		ExplorerURL:   s.network.ExplorerTxURL(result.TransactionID),
		ActionID:      action.ActionID,
	}, nil
}

type RemoveLiquidityRequest struct {
	TokenA   string
	TokenB   string
	LPAmount string
	FeeTier  string
	Slippage string
	// ExpectedAmountA and ExpectedAmountB are optional human amounts. When
	// both are set the slippage bound replaces the minimal floors.
	ExpectedAmountA string
	ExpectedAmountB string
}

// RemoveLiquidity approves the LP token on the tier's factory to the
// router and burns LPAmount.
func (s *Service) RemoveLiquidity(ctx context.Context, req RemoveLiquidityRequest) (model.LiquidityRemoveResult, error) {
	if err := s.requireSigner(); err != nil {
		return model.LiquidityRemoveResult{}, err
	}
	symA, symB, err := id.ParsePair(req.TokenA, req.TokenB)
	if err != nil {
		return model.LiquidityRemoveResult{}, err
	}
	tier, err := registry.NormalizeFeeTier(req.FeeTier)
	if err != nil {
		return model.LiquidityRemoveResult{}, err
	}
	router, err := s.network.RouterAddress(tier)
	if err != nil {
		return model.LiquidityRemoveResult{}, err
	}
	factory, ok := s.network.FactoryAddress(tier)
	if !ok {
		return model.LiquidityRemoveResult{}, clierr.Newf(clierr.CodeUsage, "No factory for feeRate=%s", tier)
	}
	slippage, err := s.parseSlippage(req.Slippage)
	if err != nil {
		return model.LiquidityRemoveResult{}, err
	}
	rawLP, err := id.ToRaw(req.LPAmount, planner.LPDecimals)
	if err != nil {
		return model.LiquidityRemoveResult{}, err
	}
	if err := requirePositive(rawLP, "LP amount"); err != nil {
		return model.LiquidityRemoveResult{}, err
	}

	expectedA := strings.TrimSpace(req.ExpectedAmountA)
	expectedB := strings.TrimSpace(req.ExpectedAmountB)
	if (expectedA == "") != (expectedB == "") {
		return model.LiquidityRemoveResult{}, clierr.New(clierr.CodeUsage, "expected amounts must be given for both tokens or neither")
	}
	infoA, infoB, err := s.query.TokenPair(ctx, symA, symB)
	if err != nil {
		return model.LiquidityRemoveResult{}, err
	}
	minA, minB := planner.RemoveLiquidityFloor, planner.RemoveLiquidityFloor
	if expectedA != "" {
		rawA, err := id.ToRaw(expectedA, infoA.Decimals)
		if err != nil {
			return model.LiquidityRemoveResult{}, err
		}
		rawB, err := id.ToRaw(expectedB, infoB.Decimals)
		if err != nil {
			return model.LiquidityRemoveResult{}, err
		}
		if minA, minB, err = planner.BoundPair(rawA, rawB, slippage); err != nil {
			return model.LiquidityRemoveResult{}, err
		}
	}

	lpSymbol := id.LPSymbol(symA, symB)
	deadline := planner.DeadlineFrom(s.now())
	action := s.newAction(execution.IntentRemoveLiquidity, slippage, deadline)
	action.InputAmount = rawLP
	action.Metadata["lp_symbol"] = lpSymbol
	action.Metadata["fee_tier"] = tier
	action.Metadata["router"] = router
	action.Metadata["factory"] = factory

	result, err := s.run(&action, func(sender string) (model.TxResult, error) {
		if _, err := s.reconciler.Ensure(ctx, &action, execution.ApprovalRequest{
			Contract: factory,
			Symbol:   lpSymbol,
			Owner:    sender,
			Spender:  router,
			Required: rawLP,
		}); err != nil {
			return model.TxResult{}, err
		}
		return s.executor.Run(ctx, &action, execution.ActionStep{
			Type:        execution.StepTypeRemoveLiquidity,
			Description: fmt.Sprintf("Remove %s %s at %s%%", req.LPAmount, lpSymbol, tier),
			Contract:    router,
			Method:      methodRemoveLiquidity,
			Args: planner.RemoveLiquidityArgs{
				SymbolA:         symA,
				SymbolB:         symB,
				AmountAMin:      minA,
				AmountBMin:      minB,
				LiquidityRemove: rawLP,
				To:              sender,
				Deadline:        deadline,
			},
		})
	})
	if err != nil {
		return model.LiquidityRemoveResult{}, err
	}
	return model.LiquidityRemoveResult{
		TransactionID: result.TransactionID,
		Status:        string(result.Status),
		TokenA:        symA,
		TokenB:        symB,
		LPSymbol:      lpSymbol,
		LPAmount:      id.MustHuman(rawLP, planner.LPDecimals),
		MinAmountA:    id.MustHuman(minA, infoA.Decimals),
		MinAmountB:    id.MustHuman(minB, infoB.Decimals),
		FeeRate:       tier,
		ExplorerURL:   s.network.ExplorerTxURL(result.TransactionID),
		ActionID:      action.ActionID,
	}, nil
}
