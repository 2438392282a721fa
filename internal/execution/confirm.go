package execution

import (
	"context"
	"errors"
	"strings"
	"time"

	clierr "github.com/ggonzalez94/awaken-cli/internal/errors"
	"github.com/ggonzalez94/awaken-cli/internal/model"
)

const (
	DefaultConfirmAttempts = 30
	DefaultConfirmInterval = time.Second
)

// StatusReader reports the node's view of a transaction.
type StatusReader interface {
	TxStatus(ctx context.Context, txID string) (model.TxStatus, error)
}

// Poller waits for a submitted transaction to be mined or rejected.
type Poller struct {
	reader StatusReader
	policy RetryPolicy
}

func NewPoller(reader StatusReader, attempts int, interval time.Duration) *Poller {
	if attempts <= 0 {
		attempts = DefaultConfirmAttempts
	}
	if interval <= 0 {
		interval = DefaultConfirmInterval
	}
	return &Poller{reader: reader, policy: RetryPolicy{MaxAttempts: attempts, Interval: interval}}
}

// WithSleep replaces the wait between attempts.
func (p *Poller) WithSleep(sleep func(ctx context.Context, d time.Duration) error) *Poller {
	cp := *p
	cp.policy.Sleep = sleep
	return &cp
}

// Wait polls txID until it is mined (success), failed (ActionRejected
// carrying the node error) or the attempt budget runs out (ActionTimeout).
// Status read errors count as pending.
func (p *Poller) Wait(ctx context.Context, txID string) (model.TxResult, error) {
	result, attempts, err := RetryUntil(ctx, p.policy, func(ctx context.Context, n int) (model.TxResult, Outcome, error) {
		status, err := p.reader.TxStatus(ctx, txID)
		if err != nil {
			return model.TxResult{TransactionID: txID, Status: model.TxStatePending, Attempts: n}, Retry, err
		}
		switch normalizeStatus(status.Status) {
		case "mined":
			return model.TxResult{TransactionID: txID, Status: model.TxStateMined, Attempts: n}, Done, nil
		case "failed", "nodevalidationfailed":
			return model.TxResult{TransactionID: txID, Status: model.TxStateFailed, Attempts: n}, Fatal,
				clierr.Newf(clierr.CodeActionRejected, "Transaction %s failed: %s", txID, nodeError(status))
		default:
			return model.TxResult{TransactionID: txID, Status: model.TxStatePending, Attempts: n}, Retry, nil
		}
	})
	result.Attempts = attempts
	if err == nil {
		return result, nil
	}
	if errors.Is(err, ErrRetryExhausted) {
		return result, clierr.Newf(clierr.CodeActionTimeout, "Transaction %s not confirmed after %d attempts", txID, attempts)
	}
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return result, clierr.Wrap(clierr.CodeActionTimeout, "confirmation wait cancelled for transaction "+txID, err)
	}
	return result, err
}

func normalizeStatus(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func nodeError(status model.TxStatus) string {
	if msg := strings.TrimSpace(status.Error); msg != "" {
		return msg
	}
	return status.Status
}
