package chain

import (
	"fmt"

	"github.com/tos-network/blockchat/crypto"
	"github.com/tos-network/blockchat/wire"
)

// GenesisPreviousHash is the literal sentinel genesis blocks carry in
// PreviousHash, mirroring block.py's previous_hash=1 for the index-0
// block (an integer, not a hash, by construction).
const GenesisPreviousHash = "1"

// GenesisValidator is the validator field used on the genesis block; no
// node actually mints it. The bootstrap node constructs block 0 and sends
// it to joining nodes inside the chain they replay and validate.
const GenesisValidator = CoinbaseAddress

// Block is an ordered batch of transactions chained to its predecessor by
// hash. Equality is by CurrentHash (spec.md §3).
type Block struct {
	Index         uint64
	Timestamp     int64 // unix nanoseconds, informational only
	Transactions  []*Transaction
	Validator     string // public key of the minter, or "0"/genesis key for block 0
	PreviousHash  string
	CurrentHash   string
}

// NewBlock constructs a block with the given transactions and computes its
// CurrentHash. Callers are responsible for supplying exactly CAPACITY
// transactions for non-genesis blocks (checked by pos.ValidateBlock, not here).
func NewBlock(index uint64, previousHash, validator string, timestamp int64, txs []*Transaction) *Block {
	b := &Block{
		Index:        index,
		Timestamp:    timestamp,
		Transactions: txs,
		Validator:    validator,
		PreviousHash: previousHash,
	}
	b.CurrentHash = b.computeHash()
	return b
}

// computeHash returns the canonical SHA-256 hash over
// [index, timestamp, [tx_ids...], validator, previous_hash], the exact
// field set block.py's get_hash uses (computed without CurrentHash).
func (b *Block) computeHash() string {
	w := wire.NewWriter()
	w.WriteUint64(b.Index)
	w.WriteInt64(b.Timestamp)
	w.WriteUint64(uint64(len(b.Transactions)))
	for _, t := range b.Transactions {
		w.WriteString(t.TransactionID)
	}
	w.WriteString(b.Validator)
	w.WriteString(b.PreviousHash)
	return crypto.Hash256(w.Bytes())
}

// SelfConsistent reports whether CurrentHash matches a fresh recomputation
// (spec.md §4.6 step 1).
func (b *Block) SelfConsistent() bool { return b.CurrentHash == b.computeHash() }

// IsGenesis reports whether this is the index-0 block.
func (b *Block) IsGenesis() bool { return b.Index == 0 }

// Equal compares blocks by CurrentHash, per spec.md §3.
func (b *Block) Equal(other *Block) bool {
	if b == nil || other == nil {
		return b == other
	}
	return b.CurrentHash == other.CurrentHash
}

// MarshalWire encodes every field, in declaration order.
func (b *Block) MarshalWire(w *wire.Writer) error {
	w.WriteUint64(b.Index)
	w.WriteInt64(b.Timestamp)
	w.WriteUint64(uint64(len(b.Transactions)))
	for _, t := range b.Transactions {
		if err := t.MarshalWire(w); err != nil {
			return err
		}
	}
	w.WriteString(b.Validator)
	w.WriteString(b.PreviousHash)
	w.WriteString(b.CurrentHash)
	return nil
}

// UnmarshalWire decodes a block previously written by MarshalWire.
func (b *Block) UnmarshalWire(r *wire.Reader) error {
	var err error
	if b.Index, err = r.ReadUint64(); err != nil {
		return err
	}
	if b.Timestamp, err = r.ReadInt64(); err != nil {
		return err
	}
	n, err := r.ReadUint64()
	if err != nil {
		return err
	}
	const maxBlockTxs = 1 << 20 // guards against a corrupt/hostile count
	if n > maxBlockTxs {
		return fmt.Errorf("chain: block transaction count %d exceeds maximum %d", n, maxBlockTxs)
	}
	b.Transactions = make([]*Transaction, n)
	for i := range b.Transactions {
		t := &Transaction{}
		if err := t.UnmarshalWire(r); err != nil {
			return err
		}
		b.Transactions[i] = t
	}
	if b.Validator, err = r.ReadString(); err != nil {
		return err
	}
	if b.PreviousHash, err = r.ReadString(); err != nil {
		return err
	}
	if b.CurrentHash, err = r.ReadString(); err != nil {
		return err
	}
	return nil
}

// EncodeWire wraps MarshalWire in a versioned envelope for HTTP transport.
func (b *Block) EncodeWire() ([]byte, error) { return wire.Encode(wire.KindBlock, b) }

// DecodeBlock decodes a block envelope produced by EncodeWire.
func DecodeBlock(data []byte) (*Block, error) {
	b := &Block{}
	if err := wire.Decode(data, wire.KindBlock, b); err != nil {
		return nil, err
	}
	return b, nil
}
