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
	"github.com/ggonzalez94/awaken-cli/internal/query"
)

type SwapRequest struct {
	SymbolIn  string
	SymbolOut string
	// AmountIn is a human amount of SymbolIn.
	AmountIn string
	Slippage string
}

// ExecuteSwap routes an exact-in swap through the swap hook contract.
// Each route distribution becomes its own swap leg with its own floor.
func (s *Service) ExecuteSwap(ctx context.Context, req SwapRequest) (model.SwapResult, error) {
	if err := s.requireSigner(); err != nil {
		return model.SwapResult{}, err
	}
	if strings.TrimSpace(req.AmountIn) == "" {
		return model.SwapResult{}, clierr.New(clierr.CodeUsage, "swap amount is required")
	}
	if err := id.RequirePositive(req.AmountIn, "swap amount"); err != nil {
		return model.SwapResult{}, err
	}
	slippage, err := s.parseSlippage(req.Slippage)
	if err != nil {
		return model.SwapResult{}, err
	}
	plan, err := s.query.FindRoute(ctx, query.QuoteRequest{SymbolIn: req.SymbolIn, SymbolOut: req.SymbolOut, AmountIn: req.AmountIn})
	if err != nil {
		return model.SwapResult{}, err
	}
	rawIn, err := id.ToRaw(req.AmountIn, plan.TokenIn.Decimals)
	if err != nil {
		return model.SwapResult{}, err
	}
	if err := requirePositive(rawIn, "swap amount"); err != nil {
		return model.SwapResult{}, err
	}
	bounds, err := planner.BoundRoute(plan.Route, slippage)
	if err != nil {
		return model.SwapResult{}, err
	}

	hook := s.network.SwapHookContract
	deadline := planner.DeadlineFrom(s.now())
	action := s.newAction(execution.IntentSwap, slippage, deadline)
	action.InputAmount = rawIn
	action.Metadata["symbol_in"] = plan.TokenIn.Symbol
	action.Metadata["symbol_out"] = plan.TokenOut.Symbol
	action.Metadata["estimated_amount_out"] = bounds.AmountOut
	action.Metadata["min_amount_out"] = bounds.MinAmountOut

	result, err := s.run(&action, func(sender string) (model.TxResult, error) {
		if _, err := s.reconciler.Ensure(ctx, &action, execution.ApprovalRequest{
			Contract: s.network.TokenContract,
			Symbol:   plan.TokenIn.Symbol,
			Owner:    sender,
			Spender:  hook,
			Required: rawIn,
		}); err != nil {
			return model.TxResult{}, err
		}
		args, err := planner.BuildSwapArgs(bounds, sender, deadline)
		if err != nil {
			return model.TxResult{}, err
		}
		return s.executor.Run(ctx, &action, execution.ActionStep{
			Type:        execution.StepTypeSwap,
			Description: fmt.Sprintf("Swap %s %s for %s", req.AmountIn, plan.TokenIn.Symbol, plan.TokenOut.Symbol),
			Contract:    hook,
			Method:      methodSwap,
			Args:        args,
			ExpectedOutputs: map[string]string{
				"amount_out":     bounds.AmountOut,
				"min_amount_out": bounds.MinAmountOut,
			},
		})
	})
	if err != nil {
		return model.SwapResult{}, err
	}
	return model.SwapResult{
		TransactionID:      result.TransactionID,
		Status:             string(result.Status),
		SymbolIn:           plan.TokenIn.Symbol,
		SymbolOut:          plan.TokenOut.Symbol,
		AmountIn:           id.MustHuman(rawIn, plan.TokenIn.Decimals),
		EstimatedAmountOut: id.MustHuman(bounds.AmountOut, plan.TokenOut.Decimals),
		MinAmountOut:       id.MustHuman(bounds.MinAmountOut, plan.TokenOut.Decimals),
		Slippage:           slippage.String(),
		ExplorerURL:        s.network.ExplorerTxURL(result.TransactionID),
		ActionID:           action.ActionID,
	}, nil
}
