package planner

import (
	"fmt"
	"strings"

	"github.com/ggonzalez94/awaken-cli/internal/chain"
	clierr "github.com/ggonzalez94/awaken-cli/internal/errors"
	"github.com/ggonzalez94/awaken-cli/internal/execution"
	"github.com/ggonzalez94/awaken-cli/internal/id"
)

type ApprovalRequest struct {
	Network         string
	ChainID         string
	TokenContract   string
	Symbol          string
	Spender         string
	AmountBaseUnits string
}

// BuildApprovalAction plans a manual approval of an exact amount.
func BuildApprovalAction(req ApprovalRequest) (execution.Action, execution.ActionStep, error) {
	spender := strings.TrimSpace(req.Spender)
	if spender == "" {
		return execution.Action{}, execution.ActionStep{}, clierr.New(clierr.CodeUsage, "approval requires spender address")
	}
	if _, err := id.NormalizeAddress(spender); err != nil {
		return execution.Action{}, execution.ActionStep{}, err
	}
	symbol, err := id.ParseSymbol(req.Symbol)
	if err != nil {
		return execution.Action{}, execution.ActionStep{}, err
	}
	cmp, err := id.CompareRaw(req.AmountBaseUnits, "0")
	if err != nil || cmp <= 0 {
		return execution.Action{}, execution.ActionStep{}, clierr.New(clierr.CodeUsage, "approval amount must be a positive integer in base units")
	}
	if strings.TrimSpace(req.TokenContract) == "" {
		return execution.Action{}, execution.ActionStep{}, clierr.New(clierr.CodeActionPlan, "approval requires token contract")
	}

	action := execution.NewAction(execution.NewActionID(), execution.IntentApprove, req.Network, req.ChainID, execution.Constraints{})
	action.InputAmount = req.AmountBaseUnits
	action.Metadata["symbol"] = symbol
	action.Metadata["spender"] = spender
	step := execution.ActionStep{
		StepID:      "approve-token",
		Type:        execution.StepTypeApproval,
		Description: fmt.Sprintf("Approve %s for spender", symbol),
		Contract:    req.TokenContract,
		Method:      "Approve",
		Args:        chain.ApproveArgs{Spender: spender, Symbol: symbol, Amount: req.AmountBaseUnits},
	}
	return action, step, nil
}
