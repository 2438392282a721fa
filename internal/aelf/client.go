// Package aelf talks to aelf nodes: transaction encoding and signing,
// contract descriptor driven parameter codecs, and a chain.Client
// implementation on top of the node REST API.
package aelf

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto"
	gocache "github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	rstore "github.com/eko/gocache/store/ristretto/v4"
	"github.com/ggonzalez94/awaken-cli/internal/chain"
	clierr "github.com/ggonzalez94/awaken-cli/internal/errors"
	"github.com/ggonzalez94/awaken-cli/internal/httpx"
	"github.com/ggonzalez94/awaken-cli/internal/model"
	"go.uber.org/zap"
)

// Views whose results never change for the same arguments.
var immutableViews = map[string]bool{
	"GetTokenInfo": true,
}

type Options struct {
	HTTP    *httpx.Client
	Handles *HandleCache
	Logger  *zap.Logger
	// Viewer signs read-only calls. A random wallet is used when nil.
	Viewer chain.Signer
}

// Client implements chain.Client against one aelf node.
type Client struct {
	node    *Node
	handles *HandleCache
	viewer  chain.Signer
	views   *gocache.Cache[[]byte]
	log     *zap.Logger
}

var _ chain.Client = (*Client)(nil)

func NewClient(endpoint string, opts Options) (*Client, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, clierr.New(clierr.CodeUsage, "aelf rpc endpoint is required")
	}
	if opts.HTTP == nil {
		opts.HTTP = httpx.New(10*time.Second, 2)
	}
	if opts.Handles == nil {
		opts.Handles = NewHandleCache()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Viewer == nil {
		w, err := NewRandomWallet()
		if err != nil {
			return nil, clierr.Wrap(clierr.CodeInternal, "create view wallet", err)
		}
		opts.Viewer = w
	}
	views, err := newViewCache()
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeInternal, "create view cache", err)
	}
	node := opts.Handles.Node(endpoint, opts.HTTP)
	return &Client{
		node:    node,
		handles: opts.Handles,
		viewer:  opts.Viewer,
		views:   views,
		log:     opts.Logger.With(zap.String("endpoint", node.Endpoint())),
	}, nil
}

func newViewCache() (*gocache.Cache[[]byte], error) {
	rcache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10000,
		MaxCost:     1000,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return gocache.New[[]byte](rstore.NewRistretto(rcache)), nil
}

func (c *Client) ReadView(ctx context.Context, contract, method string, args any) (chain.View, error) {
	cacheKey := ""
	if immutableViews[method] {
		argKey, _ := json.Marshal(args)
		cacheKey = contract + ":" + method + ":" + string(argKey)
		if buf, err := c.views.Get(ctx, cacheKey); err == nil {
			var view chain.View
			if json.Unmarshal(buf, &view) == nil {
				c.log.Debug("view cache hit", zap.String("contract", contract), zap.String("method", method))
				return view, nil
			}
		}
	}

	codec, err := c.handles.Codec(ctx, c.node, contract)
	if err != nil {
		return nil, err
	}
	params, err := codec.EncodeInput(method, args)
	if err != nil {
		return nil, err
	}
	rawTx, _, err := c.signedTx(ctx, c.viewer, contract, method, params)
	if err != nil {
		return nil, err
	}
	started := time.Now()
	out, err := c.node.ExecuteTransaction(ctx, rawTx)
	if err != nil {
		c.log.Debug("view call failed", zap.String("contract", contract), zap.String("method", method), zap.Error(err))
		return nil, err
	}
	decoded, err := codec.DecodeOutput(method, out)
	if err != nil {
		return nil, err
	}
	c.log.Debug("view call", zap.String("contract", contract), zap.String("method", method), zap.Duration("took", time.Since(started)))

	view := chain.View(decoded)
	if cacheKey != "" {
		if buf, err := json.Marshal(view); err == nil {
			_ = c.views.Set(ctx, cacheKey, buf, store.WithCost(1))
		}
	}
	return view, nil
}

func (c *Client) Submit(ctx context.Context, contract, method string, args any, s chain.Signer) (string, error) {
	if s == nil {
		return "", clierr.New(clierr.CodeSigner, "a signer is required to submit transactions")
	}
	codec, err := c.handles.Codec(ctx, c.node, contract)
	if err != nil {
		return "", err
	}
	params, err := codec.EncodeInput(method, args)
	if err != nil {
		return "", err
	}
	rawTx, localID, err := c.signedTx(ctx, s, contract, method, params)
	if err != nil {
		return "", err
	}
	txID, err := c.node.SendTransaction(ctx, rawTx)
	if err != nil {
		if clierr.Is(err, clierr.CodeUnsupported) {
			return "", clierr.Wrap(clierr.CodeActionRejected, fmt.Sprintf("node rejected %s on %s", method, contract), err)
		}
		return "", err
	}
	c.log.Info("transaction submitted",
		zap.String("contract", contract),
		zap.String("method", method),
		zap.String("from", s.Address()),
		zap.String("tx_id", txID),
	)
	if txID != "" && txID != localID {
		c.log.Warn("node transaction id differs from local digest", zap.String("local", localID), zap.String("node", txID))
	}
	return txID, nil
}

func (c *Client) TxStatus(ctx context.Context, txID string) (model.TxStatus, error) {
	return c.node.TransactionResult(ctx, txID)
}

func (c *Client) signedTx(ctx context.Context, s chain.Signer, contract, method string, params []byte) (string, string, error) {
	status, err := c.node.ChainStatus(ctx)
	if err != nil {
		return "", "", err
	}
	tx, err := NewTransaction(s.Address(), contract, method, params, status)
	if err != nil {
		return "", "", clierr.Wrap(clierr.CodeUnavailable, "build transaction", err)
	}
	id, err := tx.ID()
	if err != nil {
		return "", "", clierr.Wrap(clierr.CodeUsage, "encode transaction", err)
	}
	if err := tx.Sign(s); err != nil {
		return "", "", clierr.Wrap(clierr.CodeSigner, "sign transaction", err)
	}
	rawTx, err := tx.Hex()
	if err != nil {
		return "", "", clierr.Wrap(clierr.CodeUsage, "encode transaction", err)
	}
	return rawTx, id, nil
}
