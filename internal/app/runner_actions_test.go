package app

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	clierr "github.com/ggonzalez94/awaken-cli/internal/errors"
	"github.com/ggonzalez94/awaken-cli/internal/execution"
)

func TestResolveActionID(t *testing.T) {
	id, err := resolveActionID(" act_123 ")
	if err != nil {
		t.Fatalf("resolveActionID failed: %v", err)
	}
	if id != "act_123" {
		t.Fatalf("unexpected action id: %s", id)
	}
	if _, err := resolveActionID(""); err == nil {
		t.Fatal("expected error for empty action id")
	}
	if _, err := resolveActionID("plan_1"); err == nil {
		t.Fatal("expected error for foreign id prefix")
	}
}

func TestShouldOpenActionStore(t *testing.T) {
	for _, path := range []string{"swap", "approve", "liquidity add", "liquidity remove", "actions list", "actions show"} {
		if !shouldOpenActionStore(path) {
			t.Fatalf("expected %q to require action store", path)
		}
	}
	for _, path := range []string{"quote", "pair", "liquidity positions", "kline fetch", "balance"} {
		if shouldOpenActionStore(path) {
			t.Fatalf("did not expect %q to require action store", path)
		}
	}
}

func TestShouldOpenCacheOnlyForTTLReads(t *testing.T) {
	for _, path := range []string{"quote", "pair", "kline  fetch"} {
		if !shouldOpenCache(path) {
			t.Fatalf("expected %q to open cache", path)
		}
	}
	for _, path := range []string{"swap", "balance", "allowance", "liquidity positions", "liquidity add", "actions list", "providers list"} {
		if shouldOpenCache(path) {
			t.Fatalf("did not expect %q to open cache", path)
		}
	}
}

func TestRunnerMutatingCommandsInSchema(t *testing.T) {
	isolateRunnerEnv(t)
	for _, path := range []string{"swap", "approve", "liquidity add", "liquidity remove"} {
		t.Run(path, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, "schema", path, "--results-only")
			if code != 0 {
				t.Fatalf("expected exit 0 for %q, got %d stderr=%s", path, code, stderr.String())
			}
			var doc map[string]any
			if err := json.Unmarshal(stdout.Bytes(), &doc); err != nil {
				t.Fatalf("failed to parse schema output for %q: %v output=%s", path, err, stdout.String())
			}
			if got, _ := doc["path"].(string); got != "awaken "+path {
				t.Fatalf("unexpected schema path for %q: got %q", path, got)
			}
			if doc["mutating"] != true {
				t.Fatalf("expected %q to be marked mutating: %+v", path, doc)
			}
		})
	}
}

func TestRunnerSwapRequiresFlags(t *testing.T) {
	isolateRunnerEnv(t)
	code, _, stderr := runCLI(t, "swap", "--token-in", "ELF", "--token-out", "USDT")
	if code != 2 {
		t.Fatalf("expected usage exit code 2, got %d stderr=%s", code, stderr.String())
	}
}

func TestRunnerSwapWithoutKeyIsSignerError(t *testing.T) {
	isolateRunnerEnv(t)
	code, _, stderr := runCLI(t, "swap", "--token-in", "ELF", "--token-out", "USDT", "--amount-in", "1", "--key-source", "env")
	if code != int(clierr.CodeSigner) {
		t.Fatalf("expected signer exit code, got %d stderr=%s", code, stderr.String())
	}
	env := decodeRunnerEnvelope(t, stderr)
	if env.Error.Type != "signer_error" || env.Meta.Command != "swap" {
		t.Fatalf("unexpected error envelope %+v", env)
	}
}

func TestRunnerActionsListBypassesCacheOpen(t *testing.T) {
	isolateRunnerEnv(t)
	setUnopenableCacheEnv(t)

	code, stdout, stderr := runCLI(t, "actions", "list", "--results-only")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d stderr=%s", code, stderr.String())
	}
	var out []map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("failed to parse actions output json: %v output=%s", err, stdout.String())
	}
	if len(out) != 0 {
		t.Fatalf("expected empty journal, got %+v", out)
	}
}

func TestRunnerActionsShowReadsJournal(t *testing.T) {
	isolateRunnerEnv(t)
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "actions.db")
	lockPath := filepath.Join(dir, "actions.lock")
	t.Setenv("AWAKEN_ACTIONS_PATH", dbPath)
	t.Setenv("AWAKEN_ACTIONS_LOCK_PATH", lockPath)

	store, err := execution.OpenStore(dbPath, lockPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	action := execution.NewAction("act_seeded", execution.IntentSwap, "mainnet", "tDVV", execution.Constraints{Slippage: "0.005"})
	action.Status = execution.ActionStatusCompleted
	if err := store.Save(action); err != nil {
		t.Fatalf("seed action: %v", err)
	}
	_ = store.Close()

	code, stdout, stderr := runCLI(t, "actions", "show", "--action-id", "act_seeded", "--results-only")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d stderr=%s", code, stderr.String())
	}
	var got execution.Action
	if err := json.Unmarshal(stdout.Bytes(), &got); err != nil {
		t.Fatalf("decode action: %v", err)
	}
	if got.ActionID != "act_seeded" || got.Status != execution.ActionStatusCompleted || got.Constraints.Slippage != "0.005" {
		t.Fatalf("unexpected action %+v", got)
	}

	code, _, stderr = runCLI(t, "actions", "show", "--action-id", "act_missing")
	if code != int(clierr.CodeNotFound) {
		t.Fatalf("expected not found exit, got %d stderr=%s", code, stderr.String())
	}

	code, _, stderr = runCLI(t, "actions", "list", "--status", "sideways")
	if code != 2 {
		t.Fatalf("expected usage exit for bad status, got %d stderr=%s", code, stderr.String())
	}
}

func TestRunnerActionsFiltersByNetworkAndTxID(t *testing.T) {
	isolateRunnerEnv(t)
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "actions.db")
	lockPath := filepath.Join(dir, "actions.lock")
	t.Setenv("AWAKEN_ACTIONS_PATH", dbPath)
	t.Setenv("AWAKEN_ACTIONS_LOCK_PATH", lockPath)

	store, err := execution.OpenStore(dbPath, lockPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	mainnet := execution.NewAction("act_main", execution.IntentSwap, "mainnet", "tDVV", execution.Constraints{})
	mainnet.Steps = []execution.ActionStep{{StepID: "swap-1", Type: execution.StepTypeSwap, Status: execution.StepStatusConfirmed, TxID: "f00d"}}
	testnet := execution.NewAction("act_test", execution.IntentApprove, "testnet", "tDVW", execution.Constraints{})
	for _, a := range []execution.Action{mainnet, testnet} {
		if err := store.Save(a); err != nil {
			t.Fatalf("seed action: %v", err)
		}
	}
	_ = store.Close()

	listIDs := func(args ...string) []string {
		t.Helper()
		code, stdout, stderr := runCLI(t, append([]string{"actions", "list", "--results-only"}, args...)...)
		if code != 0 {
			t.Fatalf("expected exit 0, got %d stderr=%s", code, stderr.String())
		}
		var items []execution.Action
		if err := json.Unmarshal(stdout.Bytes(), &items); err != nil {
			t.Fatalf("decode list: %v", err)
		}
		ids := make([]string, 0, len(items))
		for _, item := range items {
			ids = append(ids, item.ActionID)
		}
		return ids
	}
	if ids := listIDs(); len(ids) != 1 || ids[0] != "act_main" {
		t.Fatalf("expected only mainnet action, got %v", ids)
	}
	if ids := listIDs("--network", "testnet"); len(ids) != 1 || ids[0] != "act_test" {
		t.Fatalf("expected only testnet action, got %v", ids)
	}
	if ids := listIDs("--all-networks", "--intent", "approve"); len(ids) != 1 || ids[0] != "act_test" {
		t.Fatalf("expected approve action across networks, got %v", ids)
	}

	code, stdout, stderr := runCLI(t, "actions", "show", "--tx-id", "f00d", "--results-only")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d stderr=%s", code, stderr.String())
	}
	var got execution.Action
	if err := json.Unmarshal(stdout.Bytes(), &got); err != nil {
		t.Fatalf("decode action: %v", err)
	}
	if got.ActionID != "act_main" {
		t.Fatalf("unexpected action for tx: %+v", got)
	}

	code, _, stderr = runCLI(t, "actions", "show", "--tx-id", "f00d", "--action-id", "act_main")
	if code != 2 {
		t.Fatalf("expected usage exit for conflicting selectors, got %d stderr=%s", code, stderr.String())
	}
	code, _, stderr = runCLI(t, "actions", "list", "--intent", "bridge")
	if code != 2 {
		t.Fatalf("expected usage exit for bad intent, got %d stderr=%s", code, stderr.String())
	}
}

// setUnopenableCacheEnv points the query cache below a regular file so any
// attempt to open it fails.
func setUnopenableCacheEnv(t *testing.T) {
	t.Helper()
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	t.Setenv("AWAKEN_CACHE_PATH", filepath.Join(blocker, "cache.db"))
	t.Setenv("AWAKEN_CACHE_LOCK_PATH", filepath.Join(blocker, "cache.lock"))
}
