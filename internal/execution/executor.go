package execution

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ggonzalez94/awaken-cli/internal/chain"
	clierr "github.com/ggonzalez94/awaken-cli/internal/errors"
	"github.com/ggonzalez94/awaken-cli/internal/model"
)

// Executor submits action steps, waits for their confirmation and journals
// every transition. It is safe to run steps of the same action concurrently.
type Executor struct {
	client  chain.Client
	signer  chain.Signer
	poller  *Poller
	journal Journal

	mu sync.Mutex
}

func NewExecutor(client chain.Client, signer chain.Signer, poller *Poller, journal Journal) *Executor {
	if poller == nil {
		poller = NewPoller(client, DefaultConfirmAttempts, DefaultConfirmInterval)
	}
	return &Executor{client: client, signer: signer, poller: poller, journal: journal}
}

func (e *Executor) Client() chain.Client { return e.client }

// Sender is the address that signs submitted steps.
func (e *Executor) Sender() string {
	if e.signer == nil {
		return ""
	}
	return e.signer.Address()
}

// Begin marks the action running.
func (e *Executor) Begin(action *Action) error {
	if e.signer == nil {
		return clierr.New(clierr.CodeSigner, "missing signer")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	action.Status = ActionStatusRunning
	action.FromAddress = e.signer.Address()
	action.Touch()
	e.save(action)
	return nil
}

// Finish records the terminal state of the action.
func (e *Executor) Finish(action *Action, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		action.Status = ActionStatusFailed
		action.Error = err.Error()
	} else {
		action.Status = ActionStatusCompleted
	}
	action.Touch()
	e.save(action)
}

// Run appends step to the action, submits it and waits for confirmation.
// A submission that yields no transaction id is fatal.
func (e *Executor) Run(ctx context.Context, action *Action, step ActionStep) (model.TxResult, error) {
	if e.signer == nil {
		return model.TxResult{}, clierr.New(clierr.CodeSigner, "missing signer")
	}
	if strings.TrimSpace(step.Contract) == "" {
		return model.TxResult{}, clierr.New(clierr.CodeActionPlan, "missing contract for action step")
	}
	if strings.TrimSpace(step.Method) == "" {
		return model.TxResult{}, clierr.New(clierr.CodeActionPlan, "missing method for action step")
	}
	idx := e.appendStep(action, step)

	txID, err := e.client.Submit(ctx, step.Contract, step.Method, step.Args, e.signer)
	if err != nil {
		e.failStep(action, idx, err)
		return model.TxResult{}, err
	}
	if strings.TrimSpace(txID) == "" {
		err := clierr.Newf(clierr.CodeUnavailable, "%s submission on %s returned no transaction id", step.Method, step.Contract)
		e.failStep(action, idx, err)
		return model.TxResult{}, err
	}
	e.updateStep(action, idx, func(s *ActionStep) {
		s.Status = StepStatusSubmitted
		s.TxID = txID
	})

	result, err := e.poller.Wait(ctx, txID)
	e.updateStep(action, idx, func(s *ActionStep) {
		s.Attempts = result.Attempts
		if err != nil {
			s.Status = StepStatusFailed
			s.Error = err.Error()
			return
		}
		s.Status = StepStatusConfirmed
	})
	if err != nil {
		return result, err
	}
	return result, nil
}

func (e *Executor) appendStep(action *Action, step ActionStep) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if step.StepID == "" {
		step.StepID = fmt.Sprintf("%s-%d", step.Type, len(action.Steps)+1)
	}
	step.Status = StepStatusPending
	action.Steps = append(action.Steps, step)
	action.Touch()
	e.save(action)
	return len(action.Steps) - 1
}

func (e *Executor) updateStep(action *Action, idx int, fn func(*ActionStep)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&action.Steps[idx])
	action.Touch()
	e.save(action)
}

func (e *Executor) failStep(action *Action, idx int, err error) {
	e.updateStep(action, idx, func(s *ActionStep) {
		s.Status = StepStatusFailed
		s.Error = err.Error()
	})
}

// save must be called with mu held.
func (e *Executor) save(action *Action) {
	if e.journal == nil {
		return
	}
	_ = e.journal.Save(*action)
}
