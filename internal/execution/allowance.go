package execution

import (
	"context"
	"fmt"

	"github.com/ggonzalez94/awaken-cli/internal/chain"
	clierr "github.com/ggonzalez94/awaken-cli/internal/errors"
	"github.com/ggonzalez94/awaken-cli/internal/id"
)

const DefaultApprovalMultiple = 10

// ApprovalRequest names the allowance a spend needs. Contract is the token
// contract for fungible tokens and the pool factory for LP tokens.
type ApprovalRequest struct {
	Contract string
	Symbol   string
	Owner    string
	Spender  string
	Required string
}

type ApprovalOutcome struct {
	Allowance      string `json:"allowance"`
	Approved       bool   `json:"approved"`
	ApprovedAmount string `json:"approved_amount,omitempty"`
	TransactionID  string `json:"transaction_id,omitempty"`
}

// Reconciler makes sure an allowance covers a pending spend.
type Reconciler struct {
	executor *Executor
	multiple int64
}

func NewReconciler(executor *Executor, multiple int64) (*Reconciler, error) {
	if multiple == 0 {
		multiple = DefaultApprovalMultiple
	}
	if multiple < 2 {
		return nil, clierr.Newf(clierr.CodeUsage, "approval multiple must be at least 2, got %d", multiple)
	}
	return &Reconciler{executor: executor, multiple: multiple}, nil
}

// Ensure reads the current allowance and, when it is below Required,
// approves Required times the multiple and waits for that approval to
// confirm. The allowance is always read fresh.
func (r *Reconciler) Ensure(ctx context.Context, action *Action, req ApprovalRequest) (ApprovalOutcome, error) {
	current, err := chain.Allowance(ctx, r.executor.Client(), req.Contract, req.Symbol, req.Owner, req.Spender)
	if err != nil {
		return ApprovalOutcome{}, err
	}
	cmp, err := id.CompareRaw(current, req.Required)
	if err != nil {
		return ApprovalOutcome{}, err
	}
	if cmp >= 0 {
		return ApprovalOutcome{Allowance: current}, nil
	}

	amount, err := id.ScaleRaw(req.Required, r.multiple)
	if err != nil {
		return ApprovalOutcome{}, err
	}
	result, err := r.executor.Run(ctx, action, ActionStep{
		Type:        StepTypeApproval,
		Description: fmt.Sprintf("Approve %s for %s", req.Symbol, req.Spender),
		Contract:    req.Contract,
		Method:      "Approve",
		Args:        chain.ApproveArgs{Spender: req.Spender, Symbol: req.Symbol, Amount: amount},
		ExpectedOutputs: map[string]string{
			"allowance": amount,
		},
	})
	if err != nil {
		return ApprovalOutcome{Allowance: current}, err
	}
	return ApprovalOutcome{
		Allowance:      current,
		Approved:       true,
		ApprovedAmount: amount,
		TransactionID:  result.TransactionID,
	}, nil
}
