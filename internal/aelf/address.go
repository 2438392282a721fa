package aelf

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/sha256"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mr-tron/base58"
)

const addressLength = 32

func doubleSHA256(b []byte) []byte {
	first := sha256.Sum256(b)
	second := sha256.Sum256(first[:])
	return second[:]
}

// AddressBytesFromPublicKey returns the 32-byte account address of pub.
func AddressBytesFromPublicKey(pub *ecdsa.PublicKey) []byte {
	return doubleSHA256(crypto.FromECDSAPub(pub))
}

// AddressFromPublicKey returns the base58check account address of pub.
func AddressFromPublicKey(pub *ecdsa.PublicKey) string {
	return EncodeAddress(AddressBytesFromPublicKey(pub))
}

// EncodeAddress renders raw address bytes as base58check.
func EncodeAddress(raw []byte) string {
	checksum := doubleSHA256(raw)[:4]
	buf := make([]byte, 0, len(raw)+4)
	buf = append(buf, raw...)
	buf = append(buf, checksum...)
	return base58.Encode(buf)
}

// DecodeAddress parses a base58check address and verifies its checksum.
func DecodeAddress(addr string) ([]byte, error) {
	buf, err := base58.Decode(addr)
	if err != nil {
		return nil, fmt.Errorf("decode address %q: %w", addr, err)
	}
	if len(buf) != addressLength+4 {
		return nil, fmt.Errorf("decode address %q: unexpected length %d", addr, len(buf))
	}
	raw, checksum := buf[:addressLength], buf[addressLength:]
	if !bytes.Equal(doubleSHA256(raw)[:4], checksum) {
		return nil, fmt.Errorf("decode address %q: checksum mismatch", addr)
	}
	return raw, nil
}
