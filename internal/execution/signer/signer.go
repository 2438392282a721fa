package signer

import "github.com/ggonzalez94/awaken-cli/internal/chain"

// Signer is the account that signs submitted transactions.
type Signer = chain.Signer
