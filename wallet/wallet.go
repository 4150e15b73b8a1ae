// Package wallet implements a node's own keypair and transaction history
// view. It is ported from original_source/src/wallet.py, with the
// parent-node back-reference replaced by the LedgerView capability
// interface (Design Note: "represent this as a capability interface ...
// not as a pointer cycle").
package wallet

import (
	"crypto/rsa"
	"fmt"
	"sync"

	"github.com/tos-network/blockchat/chain"
	"github.com/tos-network/blockchat/crypto"
)

// Status is the confirmation state of a wallet history entry.
type Status string

const (
	Unconfirmed Status = "Unconfirmed"
	Confirmed   Status = "Confirmed"
)

// Entry is one [transaction, validator, status] history record
// (spec.md §9 / wallet.py's list-of-lists), keyed by TransactionID so a
// later Confirm call can find and update it in place.
type Entry struct {
	Transaction *chain.Transaction
	Validator   string // "None" until confirmed
	Status      Status
}

// LedgerView is the read-only capability a Wallet uses to report balance
// and stake, implemented by *node.Node without the wallet ever holding a
// pointer back to it directly.
type LedgerView interface {
	SoftBalance() uint64
	SoftStake() uint64
}

// Wallet holds a node's RSA keypair and the history of transactions it
// has sent or received.
type Wallet struct {
	PrivateKey *rsa.PrivateKey
	PublicKey  string

	mu      sync.Mutex
	history []*Entry
	byTxID  map[string]*Entry
}

// Generate produces a fresh RSA-1024 keypair wallet, mirroring
// Wallet.__init__'s RSA.generate(1024).
func Generate() (*Wallet, error) {
	priv, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("wallet: generate: %w", err)
	}
	pub, err := crypto.EncodePublicKey(&priv.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("wallet: generate: %w", err)
	}
	return &Wallet{
		PrivateKey: priv,
		PublicKey:  pub,
		byTxID:     make(map[string]*Entry),
	}, nil
}

// Record adds a new, unconfirmed history entry for t, called when a
// transaction involving this wallet (as sender or receiver) is first
// validated and pooled (spec.md §4.3 / endpoints.py's validate_transaction
// handler appending [new_transaction, "None", "Unconfirmed"]).
func (w *Wallet) Record(t *chain.Transaction) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.byTxID[t.TransactionID]; ok {
		return
	}
	e := &Entry{Transaction: t, Validator: "None", Status: Unconfirmed}
	w.history = append(w.history, e)
	w.byTxID[t.TransactionID] = e
}

// Confirm updates a recorded entry to Confirmed with the minting
// validator's address, on block commit (spec.md §4.7: "update its wallet
// entry from (t, 'None', 'Unconfirmed') to (t, b.validator, 'Confirmed')").
// If the transaction was never recorded (this wallet wasn't involved), it
// is a no-op.
func (w *Wallet) Confirm(transactionID, validator string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.byTxID[transactionID]
	if !ok {
		return
	}
	e.Validator = validator
	e.Status = Confirmed
}

// History returns a snapshot of the wallet's recorded entries in
// insertion order, for /api/get_my_transactions.
func (w *Wallet) History() []*Entry {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]*Entry, len(w.history))
	copy(out, w.history)
	return out
}

// Involves reports whether t's sender or receiver is this wallet's
// public key, the condition endpoints.py checks before recording history.
func (w *Wallet) Involves(t *chain.Transaction) bool {
	return t.SenderAddress == w.PublicKey || t.ReceiverAddress == w.PublicKey
}
