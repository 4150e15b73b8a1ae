package pos

import (
	"fmt"

	"github.com/tos-network/blockchat/chain"
	"github.com/tos-network/blockchat/ledger"
)

// CapacityPerBlock is the fixed number of transactions every non-genesis
// block must carry (spec.md §3, §4.5). Like TTLLimit this is a package
// variable set once at startup from CLI/config, never mutated after.
var CapacityPerBlock uint64 = 3

// ValidateBlock runs spec.md §4.6 against a candidate block b, given the
// current chain tip and the ledger to fold transactions over (the chain
// ledger for an incoming block, or a temporary replay ledger during
// §4.9 chain replay).
//
// ErrPrevHashMismatch is special: per spec.md, "if linkage fails but hash
// self-consistency passed, buffer b ... and return 'pending'". Callers
// distinguish this case with errors.Is(err, ErrPrevHashMismatch) and
// route the block to the out-of-order buffer instead of dropping it.
func ValidateBlock(b *chain.Block, tip *chain.Block, ring *ledger.Ring) (*ledger.Ring, error) {
	if !b.SelfConsistent() {
		return nil, fmt.Errorf("%w: block %d", ErrHashMismatch, b.Index)
	}
	if b.PreviousHash != tip.CurrentHash {
		return nil, fmt.Errorf("%w: block %d", ErrPrevHashMismatch, b.Index)
	}
	if uint64(len(b.Transactions)) != CapacityPerBlock {
		return nil, fmt.Errorf("%w: block %d carries %d transactions, want %d",
			ErrWrongTransactionCount, b.Index, len(b.Transactions), CapacityPerBlock)
	}

	validatorID, ok := ring.KeyToID(b.Validator)
	if !ok {
		return nil, fmt.Errorf("%w: block %d validator key unregistered", ErrWrongValidator, b.Index)
	}
	selected, err := SelectValidator(b.PreviousHash, ring)
	if err != nil {
		return nil, fmt.Errorf("pos: select validator for block %d: %w", b.Index, err)
	}
	if selected != validatorID {
		return nil, fmt.Errorf("%w: block %d selected %d, got %d", ErrWrongValidator, b.Index, selected, validatorID)
	}

	current := ring
	ctx := TxContext{BlockIndex: b.Index, ValidatorID: validatorID}
	for _, t := range b.Transactions {
		next, err := ValidateTransaction(t, current, ctx)
		if err != nil {
			return nil, fmt.Errorf("pos: block %d transaction %s: %w", b.Index, t.TransactionID, err)
		}
		current = next
	}
	return current, nil
}

// ValidateGenesis checks the single-transaction genesis block against
// spec.md §4.9: previous_hash sentinel, coinbase sender, node-0 receiver,
// amount exactly 1000*N, empty message, nonce 0. It returns a ring with
// node 0 credited the grant, built from a zero-balance/stake-1/no-nonces
// starting ring, the "temporary ledger" spec.md §4.9 describes.
func ValidateGenesis(b *chain.Block, ring *ledger.Ring) (*ledger.Ring, error) {
	if b.Index != 0 || b.PreviousHash != chain.GenesisPreviousHash {
		return nil, fmt.Errorf("%w: block 0 previous_hash must be the genesis sentinel", ErrGenesisInvalid)
	}
	if !b.SelfConsistent() {
		return nil, fmt.Errorf("%w: hash mismatch", ErrGenesisInvalid)
	}
	if len(b.Transactions) != 1 {
		return nil, fmt.Errorf("%w: must carry exactly one transaction", ErrGenesisInvalid)
	}
	node0Key, ok := ring.IDToKey(0)
	if !ok {
		return nil, fmt.Errorf("%w: ring has no node 0", ErrGenesisInvalid)
	}
	t := b.Transactions[0]
	n := uint64(ring.Len())
	if t.SenderAddress != chain.CoinbaseAddress ||
		t.ReceiverAddress != node0Key ||
		t.Amount != int64(1000*n) ||
		t.Message != "" ||
		t.Nonce != 0 {
		return nil, fmt.Errorf("%w: coinbase transaction fields do not match the genesis grant", ErrGenesisInvalid)
	}

	next := ring.Snapshot()
	node0, err := next.Lookup(0)
	if err != nil {
		return nil, err
	}
	node0.Balance.Add(node0.Balance, ledger.ToMilli(t.Amount))
	return next, nil
}

// ReplayChain validates an entire chain from empty state for a joining
// node (spec.md §4.9): a fresh ring with balance 0, stake 1, no nonces per
// entry; block 0 checked by ValidateGenesis; blocks 1..len-1 folded
// through ValidateBlock in order. It returns the resulting chain ledger,
// or the first error encountered (the whole chain is rejected on any
// failure, no partial acceptance).
func ReplayChain(c *chain.Chain, baseRing *ledger.Ring) (*ledger.Ring, error) {
	if c.Len() == 0 {
		return nil, fmt.Errorf("%w: empty chain", ErrGenesisInvalid)
	}
	fresh := NewReplayRing(baseRing)
	current, err := ValidateGenesis(c.Blocks[0], fresh)
	if err != nil {
		return nil, err
	}
	for i := 1; i < c.Len(); i++ {
		tip := c.Blocks[i-1]
		next, err := ValidateBlock(c.Blocks[i], tip, current)
		if err != nil {
			return nil, fmt.Errorf("pos: replay block %d: %w", c.Blocks[i].Index, err)
		}
		current = next
	}
	return current, nil
}

// NewReplayRing returns a ring with the same membership as baseRing
// (id/ip/port/public_key) but balance reset to 0, stake reset to the
// bootstrap default, and nonces cleared — the "initialize a temporary
// ledger" starting point spec.md §4.9 describes.
func NewReplayRing(baseRing *ledger.Ring) *ledger.Ring {
	fresh := ledger.NewRing()
	baseRing.Each(func(a *ledger.Account) {
		_, _ = fresh.Register(a.ID, a.IP, a.Port, a.PublicKey)
	})
	return fresh
}
