package aelf

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/ggonzalez94/awaken-cli/internal/chain"
	"google.golang.org/protobuf/encoding/protowire"
)

const (
	txFieldFrom           protowire.Number = 1
	txFieldTo             protowire.Number = 2
	txFieldRefBlockNumber protowire.Number = 3
	txFieldRefBlockPrefix protowire.Number = 4
	txFieldMethodName     protowire.Number = 5
	txFieldParams         protowire.Number = 6
	txFieldSignature      protowire.Number = 10000
)

// Transaction is an aelf transaction before or after signing.
type Transaction struct {
	From           string
	To             string
	RefBlockNumber int64
	RefBlockPrefix []byte
	MethodName     string
	Params         []byte
	Signature      []byte
}

// NewTransaction builds an unsigned transaction referencing the given block.
// The reference prefix is the first four bytes of the block hash.
func NewTransaction(from, to, method string, params []byte, ref ChainStatus) (*Transaction, error) {
	hash, err := hex.DecodeString(ref.BestChainHash)
	if err != nil || len(hash) < 4 {
		return nil, fmt.Errorf("invalid reference block hash %q", ref.BestChainHash)
	}
	return &Transaction{
		From:           from,
		To:             to,
		RefBlockNumber: ref.BestChainHeight,
		RefBlockPrefix: hash[:4],
		MethodName:     method,
		Params:         params,
	}, nil
}

func (t *Transaction) marshal(withSignature bool) ([]byte, error) {
	from, err := DecodeAddress(t.From)
	if err != nil {
		return nil, err
	}
	to, err := DecodeAddress(t.To)
	if err != nil {
		return nil, err
	}
	var b []byte
	b = appendAddress(b, txFieldFrom, from)
	b = appendAddress(b, txFieldTo, to)
	if t.RefBlockNumber != 0 {
		b = protowire.AppendTag(b, txFieldRefBlockNumber, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(t.RefBlockNumber))
	}
	if len(t.RefBlockPrefix) > 0 {
		b = protowire.AppendTag(b, txFieldRefBlockPrefix, protowire.BytesType)
		b = protowire.AppendBytes(b, t.RefBlockPrefix)
	}
	if t.MethodName != "" {
		b = protowire.AppendTag(b, txFieldMethodName, protowire.BytesType)
		b = protowire.AppendString(b, t.MethodName)
	}
	if len(t.Params) > 0 {
		b = protowire.AppendTag(b, txFieldParams, protowire.BytesType)
		b = protowire.AppendBytes(b, t.Params)
	}
	if withSignature && len(t.Signature) > 0 {
		b = protowire.AppendTag(b, txFieldSignature, protowire.BytesType)
		b = protowire.AppendBytes(b, t.Signature)
	}
	return b, nil
}

// appendAddress writes an aelf.Address message (bytes value = 1).
func appendAddress(b []byte, num protowire.Number, raw []byte) []byte {
	var inner []byte
	inner = protowire.AppendTag(inner, 1, protowire.BytesType)
	inner = protowire.AppendBytes(inner, raw)
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, inner)
}

// ID is the hex sha256 of the unsigned transaction bytes.
func (t *Transaction) ID() (string, error) {
	digest, err := t.digest()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(digest), nil
}

func (t *Transaction) digest() ([]byte, error) {
	raw, err := t.marshal(false)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(raw)
	return sum[:], nil
}

// Sign attaches s's signature over the transaction digest.
func (t *Transaction) Sign(s chain.Signer) error {
	digest, err := t.digest()
	if err != nil {
		return err
	}
	sig, err := s.Sign(digest)
	if err != nil {
		return fmt.Errorf("sign transaction: %w", err)
	}
	t.Signature = sig
	return nil
}

// Hex returns the signed wire encoding as hex, the node's RawTransaction.
func (t *Transaction) Hex() (string, error) {
	raw, err := t.marshal(true)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}
