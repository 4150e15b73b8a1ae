package chain

import (
	"fmt"

	"github.com/tos-network/blockchat/wire"
)

// Chain is an append-only ordered sequence of blocks. Block 0 is always
// the genesis block; for all i>0, Blocks[i].PreviousHash must equal
// Blocks[i-1].CurrentHash and Blocks[i].Index must equal
// Blocks[i-1].Index+1 (spec.md §3).
type Chain struct {
	Blocks []*Block
}

// New returns an empty chain.
func New() *Chain { return &Chain{} }

// Tip returns the last block, or nil if the chain is empty.
func (c *Chain) Tip() *Block {
	if len(c.Blocks) == 0 {
		return nil
	}
	return c.Blocks[len(c.Blocks)-1]
}

// Len reports the number of blocks.
func (c *Chain) Len() int { return len(c.Blocks) }

// Append adds a block to the end of the chain without re-validating
// linkage; callers must have validated the block first (consensus
// package's responsibility).
func (c *Chain) Append(b *Block) { c.Blocks = append(c.Blocks, b) }

// CheckLinkage verifies the structural chain invariant across every
// adjacent pair of blocks: index continuity and hash chaining. Used by
// chain replay (spec.md §4.9) as a structural pass before per-block
// validation runs.
func (c *Chain) CheckLinkage() error {
	for i := 1; i < len(c.Blocks); i++ {
		prev, cur := c.Blocks[i-1], c.Blocks[i]
		if cur.PreviousHash != prev.CurrentHash {
			return fmt.Errorf("chain: block %d previous_hash does not match block %d current_hash", cur.Index, prev.Index)
		}
		if cur.Index != prev.Index+1 {
			return fmt.Errorf("chain: block %d index is not block %d index + 1", cur.Index, prev.Index)
		}
	}
	return nil
}

// MarshalWire encodes the chain as a length-prefixed sequence of blocks.
func (c *Chain) MarshalWire(w *wire.Writer) error {
	w.WriteUint64(uint64(len(c.Blocks)))
	for _, b := range c.Blocks {
		if err := b.MarshalWire(w); err != nil {
			return err
		}
	}
	return nil
}

// UnmarshalWire decodes a chain previously written by MarshalWire.
func (c *Chain) UnmarshalWire(r *wire.Reader) error {
	n, err := r.ReadUint64()
	if err != nil {
		return err
	}
	const maxChainBlocks = 1 << 20
	if n > maxChainBlocks {
		return fmt.Errorf("chain: block count %d exceeds maximum %d", n, maxChainBlocks)
	}
	c.Blocks = make([]*Block, n)
	for i := range c.Blocks {
		b := &Block{}
		if err := b.UnmarshalWire(r); err != nil {
			return err
		}
		c.Blocks[i] = b
	}
	return nil
}

// EncodeWire wraps MarshalWire in a versioned envelope for HTTP transport.
func (c *Chain) EncodeWire() ([]byte, error) { return wire.Encode(wire.KindChain, c) }

// DecodeChain decodes a chain envelope produced by EncodeWire.
func DecodeChain(data []byte) (*Chain, error) {
	c := &Chain{}
	if err := wire.Decode(data, wire.KindChain, c); err != nil {
		return nil, err
	}
	return c, nil
}
