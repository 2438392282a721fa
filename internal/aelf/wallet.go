package aelf

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

// Wallet is an in-memory secp256k1 key. It satisfies chain.Signer.
type Wallet struct {
	key     *ecdsa.PrivateKey
	address string
}

func NewWallet(key *ecdsa.PrivateKey) *Wallet {
	return &Wallet{key: key, address: AddressFromPublicKey(&key.PublicKey)}
}

// NewRandomWallet creates a throwaway key used as the sender of view calls.
func NewRandomWallet() (*Wallet, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate view wallet: %w", err)
	}
	return NewWallet(key), nil
}

func (w *Wallet) Address() string { return w.address }

// Sign returns the 65-byte recoverable signature [R || S || V] of digest.
func (w *Wallet) Sign(digest []byte) ([]byte, error) {
	return crypto.Sign(digest, w.key)
}
