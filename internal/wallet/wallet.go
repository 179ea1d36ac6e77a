// ==================================
// File: internal/wallet/wallet.go
// ==================================
package wallet

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Wallet is a named Solana keypair. The private key is never logged or
// displayed in full; use MaskedKey for anything user-visible.
type Wallet struct {
	Name       string
	PrivateKey solana.PrivateKey
	PublicKey  solana.PublicKey
}

// Record is the persisted form of a wallet.
type Record struct {
	Name       string `json:"name"`
	PrivateKey string `json:"private_key"`
}

// Generate creates a wallet with a fresh random keypair.
func Generate(name string) (*Wallet, error) {
	privateKey, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate keypair: %w", err)
	}

	return &Wallet{
		Name:       name,
		PrivateKey: privateKey,
		PublicKey:  privateKey.PublicKey(),
	}, nil
}

// FromBase58 builds a wallet from a base58-encoded private key.
func FromBase58(name, privateKeyBase58 string) (*Wallet, error) {
	privateKey, err := solana.PrivateKeyFromBase58(privateKeyBase58)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	return &Wallet{
		Name:       name,
		PrivateKey: privateKey,
		PublicKey:  privateKey.PublicKey(),
	}, nil
}

// FromRecord restores a wallet from its persisted form.
func FromRecord(r Record) (*Wallet, error) {
	return FromBase58(r.Name, r.PrivateKey)
}

// ToRecord returns the persisted form of the wallet.
func (w *Wallet) ToRecord() Record {
	return Record{
		Name:       w.Name,
		PrivateKey: w.PrivateKey.String(),
	}
}

// MaskedKey returns the private key with everything but a short prefix
// and suffix redacted, safe for notifications and logs.
func (w *Wallet) MaskedKey() string {
	key := w.PrivateKey.String()
	if len(key) <= 10 {
		return "*****"
	}
	return key[:5] + "..." + key[len(key)-5:]
}

// String returns the wallet's public key.
func (w *Wallet) String() string {
	return w.PublicKey.String()
}
