package execution

import (
	"context"
	"errors"
	"testing"

	"github.com/ggonzalez94/awaken-cli/internal/chain"
	clierr "github.com/ggonzalez94/awaken-cli/internal/errors"
	"github.com/ggonzalez94/awaken-cli/internal/model"
)

func newTestReconciler(t *testing.T, f *fakeChain, journal Journal) (*Reconciler, *Action) {
	t.Helper()
	exec := NewExecutor(f, fakeSigner{}, NewPoller(f, 3, 0).WithSleep(noSleep), journal)
	r, err := NewReconciler(exec, 10)
	if err != nil {
		t.Fatalf("NewReconciler failed: %v", err)
	}
	action := NewAction("act_test", IntentSwap, "testnet", "tDVW", Constraints{})
	if err := exec.Begin(&action); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	return r, &action
}

func TestEnsureNoopWhenAllowanceSufficient(t *testing.T) {
	f := &fakeChain{allowances: map[string]string{"token": "500"}}
	r, action := newTestReconciler(t, f, nil)
	out, err := r.Ensure(context.Background(), action, ApprovalRequest{Contract: "token", Symbol: "ELF", Owner: "owner", Spender: "router", Required: "500"})
	if err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	if out.Approved || len(f.submitted) != 0 || len(action.Steps) != 0 {
		t.Fatalf("expected no approval, got %+v submitted=%d", out, len(f.submitted))
	}
}

func TestEnsureApprovesMultipleAndConfirms(t *testing.T) {
	f := &fakeChain{allowances: map[string]string{"token": "100"}, txID: "tx-approve", statuses: []model.TxStatus{pending(), mined()}}
	journal := &memoryJournal{}
	r, action := newTestReconciler(t, f, journal)
	out, err := r.Ensure(context.Background(), action, ApprovalRequest{Contract: "token", Symbol: "ELF", Owner: "owner", Spender: "router", Required: "500"})
	if err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	if !out.Approved || out.ApprovedAmount != "5000" || out.TransactionID != "tx-approve" {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if len(f.submitted) != 1 || f.submitted[0].method != "Approve" || f.submitted[0].contract != "token" {
		t.Fatalf("unexpected submissions %+v", f.submitted)
	}
	args := f.submitted[0].args.(chain.ApproveArgs)
	if args.Amount != "5000" || args.Spender != "router" || args.Symbol != "ELF" {
		t.Fatalf("unexpected approve args %+v", args)
	}
	if f.reads != 2 {
		t.Fatalf("expected approval to be confirmed before returning, reads=%d", f.reads)
	}
	last := journal.last()
	if len(last.Steps) != 1 || last.Steps[0].Status != StepStatusConfirmed || last.Steps[0].TxID != "tx-approve" {
		t.Fatalf("unexpected journaled step %+v", last.Steps)
	}
}

func TestEnsureFailsWithoutTransactionID(t *testing.T) {
	f := &fakeChain{allowances: map[string]string{}, txID: ""}
	r, action := newTestReconciler(t, f, nil)
	_, err := r.Ensure(context.Background(), action, ApprovalRequest{Contract: "token", Symbol: "ELF", Owner: "owner", Spender: "router", Required: "1"})
	if err == nil {
		t.Fatal("expected missing tx id to be fatal")
	}
	if f.reads != 0 {
		t.Fatal("no status polling should happen without a tx id")
	}
	if action.Steps[0].Status != StepStatusFailed {
		t.Fatalf("expected failed step, got %s", action.Steps[0].Status)
	}
}

func TestEnsurePropagatesRejectionAndReadErrors(t *testing.T) {
	f := &fakeChain{allowances: map[string]string{}, txID: "tx", statuses: []model.TxStatus{{Status: "FAILED", Error: "denied"}}}
	r, action := newTestReconciler(t, f, nil)
	_, err := r.Ensure(context.Background(), action, ApprovalRequest{Contract: "token", Symbol: "ELF", Owner: "owner", Spender: "router", Required: "1"})
	if !clierr.Is(err, clierr.CodeActionRejected) {
		t.Fatalf("expected rejection, got %v", err)
	}

	f = &fakeChain{readErr: errors.New("rpc down")}
	r, action = newTestReconciler(t, f, nil)
	if _, err := r.Ensure(context.Background(), action, ApprovalRequest{Contract: "token", Symbol: "ELF", Required: "1"}); err == nil {
		t.Fatal("expected allowance read error")
	}
}

func TestNewReconcilerValidatesMultiple(t *testing.T) {
	if _, err := NewReconciler(NewExecutor(&fakeChain{}, fakeSigner{}, nil, nil), 1); !clierr.Is(err, clierr.CodeUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
}
