package execution

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ggonzalez94/awaken-cli/internal/chain"
	"github.com/ggonzalez94/awaken-cli/internal/model"
)

type submission struct {
	contract string
	method   string
	args     any
}

// fakeChain scripts allowance reads, submissions and status sequences.
type fakeChain struct {
	mu         sync.Mutex
	allowances map[string]string
	readErr    error
	submitted  []submission
	txID       string
	submitErr  error
	statuses   []model.TxStatus
	statusErrs []error
	reads      int
}

func (f *fakeChain) ReadView(_ context.Context, contract, method string, args any) (chain.View, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	if method == "GetAllowance" {
		return chain.View{"allowance": f.allowances[contract]}, nil
	}
	return chain.View{}, nil
}

func (f *fakeChain) Submit(_ context.Context, contract, method string, args any, _ chain.Signer) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, submission{contract: contract, method: method, args: args})
	if f.submitErr != nil {
		return "", f.submitErr
	}
	return f.txID, nil
}

func (f *fakeChain) TxStatus(_ context.Context, txID string) (model.TxStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.reads
	f.reads++
	if i < len(f.statusErrs) && f.statusErrs[i] != nil {
		return model.TxStatus{}, f.statusErrs[i]
	}
	if i < len(f.statuses) {
		s := f.statuses[i]
		s.TransactionID = txID
		return s, nil
	}
	if len(f.statuses) > 0 {
		s := f.statuses[len(f.statuses)-1]
		s.TransactionID = txID
		return s, nil
	}
	return model.TxStatus{TransactionID: txID, Status: "PENDING"}, nil
}

type fakeSigner struct{}

func (fakeSigner) Address() string               { return "owner" }
func (fakeSigner) Sign(d []byte) ([]byte, error) { return nil, errors.New("unused") }

type memoryJournal struct {
	mu    sync.Mutex
	saves []Action
}

func (j *memoryJournal) Save(a Action) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	cp := a
	cp.Steps = append([]ActionStep(nil), a.Steps...)
	j.saves = append(j.saves, cp)
	return nil
}

func (j *memoryJournal) last() Action {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.saves[len(j.saves)-1]
}

func noSleep(context.Context, time.Duration) error { return nil }

func mined() model.TxStatus   { return model.TxStatus{Status: "MINED"} }
func pending() model.TxStatus { return model.TxStatus{Status: "PENDING"} }
