// Package chain defines the contract-access capability the query and trade
// layers depend on, plus typed helpers over the token and factory contracts.
package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ggonzalez94/awaken-cli/internal/model"
)

// Signer signs transaction digests for one account.
type Signer interface {
	Address() string
	Sign(digest []byte) ([]byte, error)
}

// Client reads contract views, submits signed calls and reports transaction
// status. Implementations must be safe for concurrent use.
type Client interface {
	ReadView(ctx context.Context, contract, method string, args any) (View, error)
	Submit(ctx context.Context, contract, method string, args any, s Signer) (string, error)
	TxStatus(ctx context.Context, txID string) (model.TxStatus, error)
}

// View is a decoded view-call result keyed by JSON field name. 64-bit
// integers arrive as decimal strings.
type View map[string]any

// String returns the field rendered as a string, or "" when absent.
func (v View) String(key string) string {
	raw, ok := v[key]
	if !ok || raw == nil {
		return ""
	}
	switch t := raw.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint32:
		return strconv.FormatUint(uint64(t), 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// StringOr returns the first present, non-empty field among keys, else def.
func (v View) StringOr(def string, keys ...string) string {
	for _, key := range keys {
		if s := v.String(key); s != "" {
			return s
		}
	}
	return def
}

// Int returns the field parsed as an integer, or def when absent or
// malformed.
func (v View) Int(key string, def int) int {
	s := v.String(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
