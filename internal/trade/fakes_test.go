package trade

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ggonzalez94/awaken-cli/internal/chain"
	"github.com/ggonzalez94/awaken-cli/internal/execution"
	"github.com/ggonzalez94/awaken-cli/internal/model"
	"github.com/ggonzalez94/awaken-cli/internal/providers"
	"github.com/ggonzalez94/awaken-cli/internal/query"
	"github.com/ggonzalez94/awaken-cli/internal/registry"
)

const testSender = "2YnkipJ9mty5r6tpTWQAwnomeeKUT7qCWLHKaSeV1fejYEyCdX"

type call struct {
	contract string
	method   string
	args     any
}

// fakeChain serves token metadata and allowances, records submissions and
// reports every transaction as mined unless told otherwise.
type fakeChain struct {
	mu         sync.Mutex
	decimals   map[string]int
	allowances map[string]string
	submitted  []call
	views      int
	status     string
	nextTx     int
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		decimals:   map[string]int{"ELF": 8, "USDT": 6},
		allowances: map[string]string{},
		status:     "MINED",
	}
}

func (f *fakeChain) ReadView(_ context.Context, contract, method string, args any) (chain.View, error) {
	buf, _ := json.Marshal(args)
	var fields struct {
		Symbol string `json:"symbol"`
	}
	_ = json.Unmarshal(buf, &fields)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.views++
	switch method {
	case "GetTokenInfo":
		dec, ok := f.decimals[fields.Symbol]
		if !ok {
			return chain.View{"symbol": fields.Symbol}, nil
		}
		return chain.View{"symbol": fields.Symbol, "decimals": float64(dec)}, nil
	case "GetAllowance":
		return chain.View{"allowance": f.allowances[contract+"/"+fields.Symbol]}, nil
	}
	return chain.View{}, nil
}

func (f *fakeChain) Submit(_ context.Context, contract, method string, args any, _ chain.Signer) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, call{contract: contract, method: method, args: args})
	f.nextTx++
	return fmt.Sprintf("tx%d", f.nextTx), nil
}

func (f *fakeChain) TxStatus(_ context.Context, txID string) (model.TxStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return model.TxStatus{TransactionID: txID, Status: f.status, Error: "insufficient balance"}, nil
}

func (f *fakeChain) calls(method string) []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []call
	for _, c := range f.submitted {
		if c.method == method {
			out = append(out, c)
		}
	}
	return out
}

type fakeSigner struct{}

func (fakeSigner) Address() string             { return testSender }
func (fakeSigner) Sign([]byte) ([]byte, error) { return make([]byte, 65), nil }

type memoryJournal struct {
	mu      sync.Mutex
	actions map[string]execution.Action
}

func (j *memoryJournal) Save(a execution.Action) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.actions == nil {
		j.actions = map[string]execution.Action{}
	}
	buf, _ := json.Marshal(a)
	var copied execution.Action
	_ = json.Unmarshal(buf, &copied)
	j.actions[a.ActionID] = copied
	return nil
}

func (j *memoryJournal) get(id string) execution.Action {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.actions[id]
}

type fakeRoutes struct {
	routes []model.Route
	calls  int
}

func (f *fakeRoutes) Info() model.ProviderInfo { return model.ProviderInfo{Name: "fake"} }

func (f *fakeRoutes) BestRoutes(context.Context, providers.RouteRequest) ([]model.Route, error) {
	f.calls++
	return f.routes, nil
}

type harness struct {
	network registry.Network
	chain   *fakeChain
	routes  *fakeRoutes
	journal *memoryJournal
	service *Service
}

var testNow = time.Unix(1_700_000_000, 0)

func newHarness(t *testing.T, routes []model.Route, signer chain.Signer) *harness {
	t.Helper()
	network, err := registry.ResolveNetwork(registry.NetworkTestnet, registry.Overrides{})
	if err != nil {
		t.Fatalf("resolve network: %v", err)
	}
	fc := newFakeChain()
	journal := &memoryJournal{}
	fr := &fakeRoutes{routes: routes}
	q := query.New(network, query.Deps{Chain: fc, Routes: fr})
	poller := execution.NewPoller(fc, 3, time.Millisecond).WithSleep(func(context.Context, time.Duration) error { return nil })
	executor := execution.NewExecutor(fc, signer, poller, journal)
	svc, err := New(network, q, executor, Options{Now: func() time.Time { return testNow }})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &harness{network: network, chain: fc, routes: fr, journal: journal, service: svc}
}
