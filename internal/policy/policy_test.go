package policy

import (
	"testing"

	clierr "github.com/ggonzalez94/awaken-cli/internal/errors"
)

func TestCheckCommandAllowed(t *testing.T) {
	if err := CheckCommandAllowed(nil, "swap"); err != nil {
		t.Fatalf("unexpected error with empty allowlist: %v", err)
	}
	if err := CheckCommandAllowed([]string{"quote"}, "quote"); err != nil {
		t.Fatalf("expected command to be allowed: %v", err)
	}
	if err := CheckCommandAllowed([]string{"Liquidity"}, "liquidity positions"); err != nil {
		t.Fatalf("expected group entry to allow subcommand: %v", err)
	}
	err := CheckCommandAllowed([]string{"quote", "liquidity positions"}, "liquidity add")
	if err == nil {
		t.Fatal("expected command to be blocked")
	}
	if clierr.ExitCode(err) != int(clierr.CodeBlocked) {
		t.Fatalf("unexpected exit code %d", clierr.ExitCode(err))
	}
	if err := CheckCommandAllowed([]string{"swa"}, "swap"); err == nil {
		t.Fatal("partial word must not match")
	}
}
