package trade

import (
	"context"

	"github.com/ggonzalez94/awaken-cli/internal/execution/planner"
	"github.com/ggonzalez94/awaken-cli/internal/id"
	"github.com/ggonzalez94/awaken-cli/internal/model"
)

type ApproveRequest struct {
	Symbol  string
	Spender string
	// Amount is a human amount and AmountRaw a base-unit integer. Exactly one
	// is set; it is approved as given, without a multiple.
	Amount    string
	AmountRaw string
}

func (s *Service) ApproveTokenSpending(ctx context.Context, req ApproveRequest) (model.ApproveResult, error) {
	if err := s.requireSigner(); err != nil {
		return model.ApproveResult{}, err
	}
	symbol, err := id.ParseSymbol(req.Symbol)
	if err != nil {
		return model.ApproveResult{}, err
	}
	spender, err := id.NormalizeAddress(req.Spender)
	if err != nil {
		return model.ApproveResult{}, err
	}
	info, err := s.query.TokenInfo(ctx, symbol)
	if err != nil {
		return model.ApproveResult{}, err
	}
	raw, _, err := id.NormalizeAmount(req.AmountRaw, req.Amount, info.Decimals)
	if err != nil {
		return model.ApproveResult{}, err
	}
	action, step, err := planner.BuildApprovalAction(planner.ApprovalRequest{
		Network:         s.network.Name,
		ChainID:         s.network.ChainID,
		TokenContract:   s.network.TokenContract,
		Symbol:          symbol,
		Spender:         spender,
		AmountBaseUnits: raw,
	})
	if err != nil {
		return model.ApproveResult{}, err
	}
	action.Constraints.ApprovalMultiple = 1

	result, err := s.run(&action, func(string) (model.TxResult, error) {
		return s.executor.Run(ctx, &action, step)
	})
	if err != nil {
		return model.ApproveResult{}, err
	}
	return model.ApproveResult{
		TransactionID: result.TransactionID,
		Status:        string(result.Status),
		Symbol:        symbol,
		Spender:       spender,
		Amount:        id.MustHuman(raw, info.Decimals),
		ExplorerURL:   s.network.ExplorerTxURL(result.TransactionID),
		ActionID:      action.ActionID,
	}, nil
}
