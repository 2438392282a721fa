package aelf

import (
	"context"
	"sync"

	"github.com/ggonzalez94/awaken-cli/internal/httpx"
	"golang.org/x/sync/singleflight"
)

// HandleCache memoizes node clients by endpoint and contract codecs by
// endpoint and contract address. Entries are never evicted; they are
// read-mostly handles shared by every caller in the process.
type HandleCache struct {
	mu     sync.Mutex
	nodes  map[string]*Node
	codecs map[string]*Codec
	group  singleflight.Group
}

func NewHandleCache() *HandleCache {
	return &HandleCache{
		nodes:  map[string]*Node{},
		codecs: map[string]*Codec{},
	}
}

// Node returns the memoized node for endpoint, creating it with client on
// first use.
func (h *HandleCache) Node(endpoint string, client *httpx.Client) *Node {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n, ok := h.nodes[endpoint]; ok {
		return n
	}
	n := NewNode(endpoint, client)
	h.nodes[endpoint] = n
	return n
}

// Codec returns the memoized codec for contract, fetching its descriptor
// set at most once even under concurrent callers.
func (h *HandleCache) Codec(ctx context.Context, node *Node, contract string) (*Codec, error) {
	key := node.Endpoint() + ":" + contract
	h.mu.Lock()
	codec, ok := h.codecs[key]
	h.mu.Unlock()
	if ok {
		return codec, nil
	}

	v, err, _ := h.group.Do(key, func() (any, error) {
		h.mu.Lock()
		if existing, ok := h.codecs[key]; ok {
			h.mu.Unlock()
			return existing, nil
		}
		h.mu.Unlock()

		set, err := node.FileDescriptorSet(ctx, contract)
		if err != nil {
			return nil, err
		}
		codec, err := NewCodec(set)
		if err != nil {
			return nil, err
		}
		h.mu.Lock()
		h.codecs[key] = codec
		h.mu.Unlock()
		return codec, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Codec), nil
}

// Len reports the number of memoized nodes and codecs.
func (h *HandleCache) Len() (nodes, codecs int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.nodes), len(h.codecs)
}
