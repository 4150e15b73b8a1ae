// Package chain defines BlockChat's core value types: Transaction, Block
// and Chain. Field lists and hash scope are ported directly from
// original_source/src/transaction.py, block.py and blockchain.py; the
// canonical encoding and signing primitives come from packages wire and
// crypto.
package chain

import (
	"crypto/rsa"
	"fmt"

	"github.com/tos-network/blockchat/crypto"
	"github.com/tos-network/blockchat/wire"
)

// CoinbaseAddress is the reserved sender/receiver sentinel: "0" as the
// sender marks the genesis coinbase transaction; "0" as the receiver marks
// a self-stake update. It is never resolved against the ring.
const CoinbaseAddress = crypto.CoinbaseAddress

// Transaction is an immutable, signed value-or-stake transfer.
//
// Equality is by TransactionID; TTL and Signature are intentionally
// excluded from the hashed payload so identity survives re-broadcast
// (spec.md §4.1).
type Transaction struct {
	SenderAddress   string
	ReceiverAddress string
	Amount          int64
	Message         string
	Nonce           uint64
	TTL             uint64
	TransactionID   string
	Signature       string
}

// NewTransaction builds and hashes (but does not sign) a transaction.
func NewTransaction(sender, receiver string, amount int64, message string, nonce uint64, ttl uint64) *Transaction {
	t := &Transaction{
		SenderAddress:   sender,
		ReceiverAddress: receiver,
		Amount:          amount,
		Message:         message,
		Nonce:           nonce,
		TTL:             ttl,
	}
	t.TransactionID = t.computeHash()
	return t
}

// computeHash returns the canonical SHA-256 hash over
// [sender, receiver, amount, message, nonce], the exact field set and
// order of transaction.py's get_hash (TTL and signature excluded).
func (t *Transaction) computeHash() string {
	w := wire.NewWriter()
	w.WriteString(t.SenderAddress)
	w.WriteString(t.ReceiverAddress)
	w.WriteInt64(t.Amount)
	w.WriteString(t.Message)
	w.WriteUint64(t.Nonce)
	return crypto.Hash256(w.Bytes())
}

// IsStakeUpdate reports whether this transaction is a self-stake change
// (receiver == "0"); such transactions pay no fee, and a message they
// carry is not charged.
func (t *Transaction) IsStakeUpdate() bool { return t.ReceiverAddress == CoinbaseAddress }

// IsCoinbase reports whether this transaction is the genesis grant
// (sender == "0"); coinbase transactions are never looked up in the ring
// as a sender.
func (t *Transaction) IsCoinbase() bool { return t.SenderAddress == CoinbaseAddress }

// Sign computes the signature over TransactionID under priv and sets
// Signature. It also re-derives TransactionID first so a caller can't sign
// a stale hash after mutating fields by hand.
func (t *Transaction) Sign(priv *rsa.PrivateKey) error {
	t.TransactionID = t.computeHash()
	sig, err := crypto.Sign(priv, t.TransactionID)
	if err != nil {
		return fmt.Errorf("chain: sign transaction: %w", err)
	}
	t.Signature = sig
	return nil
}

// VerifySignature checks the transaction's signature under its own
// SenderAddress, and that TransactionID matches the recomputed hash (a
// tampered, unsigned field would otherwise pass signature verification
// against a stale id).
func (t *Transaction) VerifySignature() bool {
	if t.IsCoinbase() {
		// Coinbase transactions are never signed; they are only ever
		// constructed locally during genesis/replay, never accepted over
		// the wire as a peer submission (consensus enforces this).
		return false
	}
	if t.TransactionID != t.computeHash() {
		return false
	}
	pub, err := crypto.DecodePublicKey(t.SenderAddress)
	if err != nil {
		return false
	}
	return crypto.Verify(pub, t.TransactionID, t.Signature)
}

// Equal compares transactions by TransactionID, per spec.md §3.
func (t *Transaction) Equal(other *Transaction) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.TransactionID == other.TransactionID
}

// MarshalWire encodes every field, in declaration order, for peer
// transmission and block embedding.
func (t *Transaction) MarshalWire(w *wire.Writer) error {
	w.WriteString(t.SenderAddress)
	w.WriteString(t.ReceiverAddress)
	w.WriteInt64(t.Amount)
	w.WriteString(t.Message)
	w.WriteUint64(t.Nonce)
	w.WriteUint64(t.TTL)
	w.WriteString(t.TransactionID)
	w.WriteString(t.Signature)
	return nil
}

// UnmarshalWire decodes a transaction previously written by MarshalWire.
func (t *Transaction) UnmarshalWire(r *wire.Reader) error {
	var err error
	if t.SenderAddress, err = r.ReadString(); err != nil {
		return err
	}
	if t.ReceiverAddress, err = r.ReadString(); err != nil {
		return err
	}
	if t.Amount, err = r.ReadInt64(); err != nil {
		return err
	}
	if t.Message, err = r.ReadString(); err != nil {
		return err
	}
	if t.Nonce, err = r.ReadUint64(); err != nil {
		return err
	}
	if t.TTL, err = r.ReadUint64(); err != nil {
		return err
	}
	if t.TransactionID, err = r.ReadString(); err != nil {
		return err
	}
	if t.Signature, err = r.ReadString(); err != nil {
		return err
	}
	return nil
}

// EncodeWire wraps MarshalWire in a versioned envelope for HTTP transport.
func (t *Transaction) EncodeWire() ([]byte, error) { return wire.Encode(wire.KindTransaction, t) }

// DecodeTransaction decodes a transaction envelope produced by EncodeWire.
func DecodeTransaction(data []byte) (*Transaction, error) {
	t := &Transaction{}
	if err := wire.Decode(data, wire.KindTransaction, t); err != nil {
		return nil, err
	}
	return t, nil
}
