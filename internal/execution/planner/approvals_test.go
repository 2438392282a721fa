package planner

import (
	"testing"

	"github.com/ggonzalez94/awaken-cli/internal/chain"
	"github.com/ggonzalez94/awaken-cli/internal/execution"
)

const testSpender = "2YnkipJ9mty5r6tpTWQAwnomeeKUT7qCWLHKaSeV1fejYEyCdX"

func TestBuildApprovalAction(t *testing.T) {
	action, step, err := BuildApprovalAction(ApprovalRequest{
		Network:         "testnet",
		ChainID:         "tDVW",
		TokenContract:   "token",
		Symbol:          "elf",
		Spender:         testSpender,
		AmountBaseUnits: "1000000",
	})
	if err != nil {
		t.Fatalf("BuildApprovalAction failed: %v", err)
	}
	if action.IntentType != execution.IntentApprove || action.Network != "testnet" {
		t.Fatalf("unexpected action %+v", action)
	}
	if step.Type != execution.StepTypeApproval || step.Method != "Approve" || step.Contract != "token" {
		t.Fatalf("unexpected step %+v", step)
	}
	args := step.Args.(chain.ApproveArgs)
	if args.Symbol != "ELF" || args.Amount != "1000000" || args.Spender != testSpender {
		t.Fatalf("unexpected args %+v", args)
	}
}

func TestBuildApprovalActionRejectsInvalidInput(t *testing.T) {
	base := ApprovalRequest{TokenContract: "token", Symbol: "ELF", Spender: testSpender, AmountBaseUnits: "1"}

	zero := base
	zero.AmountBaseUnits = "0"
	if _, _, err := BuildApprovalAction(zero); err == nil {
		t.Fatal("expected zero amount error")
	}
	noSpender := base
	noSpender.Spender = ""
	if _, _, err := BuildApprovalAction(noSpender); err == nil {
		t.Fatal("expected missing spender error")
	}
	badSymbol := base
	badSymbol.Symbol = "el f"
	if _, _, err := BuildApprovalAction(badSymbol); err == nil {
		t.Fatal("expected bad symbol error")
	}
}
