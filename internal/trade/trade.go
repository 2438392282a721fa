// Package trade runs the signed Awaken workflows. Every workflow is
// journaled as an execution.Action whose steps record each approval and
// the final contract call.
package trade

import (
	"strings"
	"time"

	clierr "github.com/ggonzalez94/awaken-cli/internal/errors"
	"github.com/ggonzalez94/awaken-cli/internal/execution"
	"github.com/ggonzalez94/awaken-cli/internal/execution/planner"
	"github.com/ggonzalez94/awaken-cli/internal/model"
	"github.com/ggonzalez94/awaken-cli/internal/query"
	"github.com/ggonzalez94/awaken-cli/internal/registry"
	"github.com/shopspring/decimal"
)

const (
	methodSwap            = "SwapExactTokensForTokens"
	methodAddLiquidity    = "AddLiquidity"
	methodRemoveLiquidity = "RemoveLiquidity"
)

type Options struct {
	// ApprovalMultiple scales approvals above the amount a trade spends.
	// Zero selects execution.DefaultApprovalMultiple.
	ApprovalMultiple int64
	// DefaultSlippage applies when a request leaves Slippage empty.
	DefaultSlippage string
	Now             func() time.Time
}

type Service struct {
	network    registry.Network
	query      *query.Service
	executor   *execution.Executor
	reconciler *execution.Reconciler
	multiple   int64
	slippage   string
	now        func() time.Time
}

func New(network registry.Network, q *query.Service, executor *execution.Executor, opts Options) (*Service, error) {
	reconciler, err := execution.NewReconciler(executor, opts.ApprovalMultiple)
	if err != nil {
		return nil, err
	}
	multiple := opts.ApprovalMultiple
	if multiple == 0 {
		multiple = execution.DefaultApprovalMultiple
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	slippage := strings.TrimSpace(opts.DefaultSlippage)
	if slippage == "" {
		slippage = planner.DefaultSlippage
	}
	return &Service{
		network:    network,
		query:      q,
		executor:   executor,
		reconciler: reconciler,
		multiple:   multiple,
		slippage:   slippage,
		now:        now,
	}, nil
}

func (s *Service) requireSigner() error {
	if s.executor.Sender() == "" {
		return clierr.New(clierr.CodeSigner, "a signer is required for this command")
	}
	return nil
}

func (s *Service) parseSlippage(input string) (decimal.Decimal, error) {
	if strings.TrimSpace(input) == "" {
		input = s.slippage
	}
	return planner.ParseSlippage(input)
}

func (s *Service) newAction(intent string, slippage decimal.Decimal, deadline planner.Timestamp) execution.Action {
	constraints := execution.Constraints{ApprovalMultiple: s.multiple}
	if intent != execution.IntentApprove {
		constraints.Slippage = slippage.String()
		constraints.Deadline = time.Unix(deadline.Seconds, 0).UTC().Format(time.RFC3339)
	}
	return execution.NewAction(execution.NewActionID(), intent, s.network.Name, s.network.ChainID, constraints)
}

// run marks the action running, executes fn and records the outcome.
func (s *Service) run(action *execution.Action, fn func(sender string) (model.TxResult, error)) (model.TxResult, error) {
	if err := s.executor.Begin(action); err != nil {
		return model.TxResult{}, err
	}
	result, err := fn(action.FromAddress)
	s.executor.Finish(action, err)
	return result, err
}

func requirePositive(raw, label string) error {
	if raw == "" || strings.TrimLeft(raw, "0") == "" {
		return clierr.Newf(clierr.CodeUsage, "%s must be greater than zero", label)
	}
	return nil
}
