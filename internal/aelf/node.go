package aelf

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	clierr "github.com/ggonzalez94/awaken-cli/internal/errors"
	"github.com/ggonzalez94/awaken-cli/internal/httpx"
	"github.com/ggonzalez94/awaken-cli/internal/model"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"
)

// ChainStatus is the subset of /api/blockChain/chainStatus used to build
// transaction references.
type ChainStatus struct {
	ChainID         string `json:"ChainId"`
	BestChainHash   string `json:"BestChainHash"`
	BestChainHeight int64  `json:"BestChainHeight"`
}

type transactionResult struct {
	TransactionID string          `json:"TransactionId"`
	Status        string          `json:"Status"`
	Error         string          `json:"Error"`
	BlockNumber   int64           `json:"BlockNumber"`
	Logs          json.RawMessage `json:"Logs"`
}

type rawTransactionInput struct {
	RawTransaction string `json:"RawTransaction"`
}

type sendTransactionOutput struct {
	TransactionID string `json:"TransactionId"`
}

// Node is a thin REST client for one aelf node.
type Node struct {
	endpoint string
	http     *httpx.Client
}

func NewNode(endpoint string, client *httpx.Client) *Node {
	return &Node{endpoint: strings.TrimSuffix(endpoint, "/"), http: client}
}

func (n *Node) Endpoint() string { return n.endpoint }

func (n *Node) ChainStatus(ctx context.Context) (ChainStatus, error) {
	var out ChainStatus
	if err := httpx.GetJSON(ctx, n.http, n.endpoint+"/api/blockChain/chainStatus", nil, &out); err != nil {
		return ChainStatus{}, err
	}
	if out.BestChainHash == "" {
		return ChainStatus{}, clierr.New(clierr.CodeUnavailable, "node returned no best chain hash")
	}
	return out, nil
}

func (n *Node) TransactionResult(ctx context.Context, txID string) (model.TxStatus, error) {
	var out transactionResult
	query := url.Values{"transactionId": {txID}}
	if err := httpx.GetJSON(ctx, n.http, n.endpoint+"/api/blockChain/transactionResult", query, &out); err != nil {
		return model.TxStatus{}, err
	}
	id := out.TransactionID
	if id == "" {
		id = txID
	}
	return model.TxStatus{
		TransactionID: id,
		Status:        out.Status,
		Error:         out.Error,
		BlockNumber:   out.BlockNumber,
	}, nil
}

// ExecuteTransaction runs a signed read-only transaction and returns the
// raw protobuf output.
func (n *Node) ExecuteTransaction(ctx context.Context, rawTx string) ([]byte, error) {
	body, err := json.Marshal(rawTransactionInput{RawTransaction: rawTx})
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeInternal, "encode execute request", err)
	}
	buf, err := httpx.DoBodyRaw(ctx, n.http, http.MethodPost, n.endpoint+"/api/blockChain/executeTransaction", body, nil)
	if err != nil {
		return nil, err
	}
	return decodeHexBody(buf)
}

func (n *Node) SendTransaction(ctx context.Context, rawTx string) (string, error) {
	body, err := json.Marshal(rawTransactionInput{RawTransaction: rawTx})
	if err != nil {
		return "", clierr.Wrap(clierr.CodeInternal, "encode send request", err)
	}
	var out sendTransactionOutput
	if _, err := httpx.DoBodyJSON(ctx, n.http, http.MethodPost, n.endpoint+"/api/blockChain/sendTransaction", body, nil, &out); err != nil {
		return "", err
	}
	return out.TransactionID, nil
}

// FileDescriptorSet fetches the protobuf descriptors a contract exposes.
func (n *Node) FileDescriptorSet(ctx context.Context, contract string) (*descriptorpb.FileDescriptorSet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.endpoint+"/api/blockChain/contractFileDescriptorSet?"+url.Values{"address": {contract}}.Encode(), nil)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeInternal, "build request", err)
	}
	buf, err := n.http.DoRaw(ctx, req)
	if err != nil {
		return nil, err
	}
	encoded := unquote(buf)
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeUnavailable, fmt.Sprintf("decode descriptor set for %s", contract), err)
	}
	set := &descriptorpb.FileDescriptorSet{}
	if err := proto.Unmarshal(raw, set); err != nil {
		return nil, clierr.Wrap(clierr.CodeUnavailable, fmt.Sprintf("parse descriptor set for %s", contract), err)
	}
	return set, nil
}

// decodeHexBody accepts both a bare and a JSON-quoted hex payload.
func decodeHexBody(buf []byte) ([]byte, error) {
	out, err := hex.DecodeString(unquote(buf))
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeUnavailable, "decode view result", err)
	}
	return out, nil
}

func unquote(buf []byte) string {
	text := strings.TrimSpace(string(buf))
	var s string
	if strings.HasPrefix(text, `"`) && json.Unmarshal([]byte(text), &s) == nil {
		return s
	}
	return text
}
