package execution

import (
	"context"
	"errors"
	"testing"

	clierr "github.com/ggonzalez94/awaken-cli/internal/errors"
	"github.com/ggonzalez94/awaken-cli/internal/model"
)

func TestExecutorRunJournalsTransitions(t *testing.T) {
	f := &fakeChain{txID: "tx-swap", statuses: []model.TxStatus{mined()}}
	journal := &memoryJournal{}
	exec := NewExecutor(f, fakeSigner{}, NewPoller(f, 3, 0).WithSleep(noSleep), journal)
	action := NewAction("act_1", IntentSwap, "mainnet", "tDVV", Constraints{Slippage: "0.005"})
	if err := exec.Begin(&action); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	res, err := exec.Run(context.Background(), &action, ActionStep{Type: StepTypeSwap, Contract: "hook", Method: "SwapExactTokensForTokens"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	exec.Finish(&action, nil)

	if res.TransactionID != "tx-swap" || res.Status != model.TxStateMined {
		t.Fatalf("unexpected result %+v", res)
	}
	statuses := []StepStatus{}
	for _, saved := range journal.saves {
		if len(saved.Steps) == 1 {
			statuses = append(statuses, saved.Steps[0].Status)
		}
	}
	want := []StepStatus{StepStatusPending, StepStatusSubmitted, StepStatusConfirmed, StepStatusConfirmed}
	if len(statuses) != len(want) {
		t.Fatalf("unexpected journal transitions %v", statuses)
	}
	for i := range want {
		if statuses[i] != want[i] {
			t.Fatalf("unexpected journal transitions %v", statuses)
		}
	}
	last := journal.last()
	if last.Status != ActionStatusCompleted || last.FromAddress != "owner" || last.Steps[0].StepID != "swap-1" {
		t.Fatalf("unexpected final action %+v", last)
	}
}

func TestExecutorRunSubmitError(t *testing.T) {
	f := &fakeChain{submitErr: clierr.New(clierr.CodeActionRejected, "node rejected")}
	exec := NewExecutor(f, fakeSigner{}, NewPoller(f, 3, 0).WithSleep(noSleep), nil)
	action := NewAction("act_2", IntentSwap, "mainnet", "tDVV", Constraints{})
	_, err := exec.Run(context.Background(), &action, ActionStep{Type: StepTypeSwap, Contract: "hook", Method: "Swap"})
	if !clierr.Is(err, clierr.CodeActionRejected) {
		t.Fatalf("expected rejection, got %v", err)
	}
	exec.Finish(&action, err)
	if action.Status != ActionStatusFailed || action.Steps[0].Status != StepStatusFailed {
		t.Fatalf("expected failed action, got %+v", action)
	}
}

func TestExecutorRequiresSignerAndPlan(t *testing.T) {
	f := &fakeChain{}
	action := NewAction("act_3", IntentApprove, "mainnet", "tDVV", Constraints{})
	if err := NewExecutor(f, nil, nil, nil).Begin(&action); !clierr.Is(err, clierr.CodeSigner) {
		t.Fatalf("expected signer error, got %v", err)
	}
	_, err := NewExecutor(f, fakeSigner{}, nil, nil).Run(context.Background(), &action, ActionStep{Type: StepTypeApproval, Method: "Approve"})
	if !clierr.Is(err, clierr.CodeActionPlan) {
		t.Fatalf("expected plan error, got %v", err)
	}
	if errors.Is(err, context.Canceled) {
		t.Fatal("unexpected cancellation")
	}
}
