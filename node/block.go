package node

import (
	"errors"
	"fmt"

	"github.com/tos-network/blockchat/chain"
	"github.com/tos-network/blockchat/consensus/pos"
	"github.com/tos-network/blockchat/ledger"
	"github.com/tos-network/blockchat/log"
)

// tryMint attempts to mint a block from the front of the mempool if this
// node is the validator selected for the chain tip (spec.md §4.5). It is
// called with the mempool lock already released (mempool.Add returns
// before the caller re-enters the pool), matching spec.md §5's "it must be
// released before calling the minter".
func (n *Node) tryMint() {
	n.chainLock.Lock()
	tip := n.tip()
	chainLedger := n.chainLdg
	n.chainLock.Unlock()
	if tip == nil {
		return
	}

	validatorID, err := pos.SelectValidator(tip.CurrentHash, chainLedger)
	if err != nil {
		log.Warn("mint: select validator", "err", err)
		return
	}
	if validatorID != n.id {
		return
	}

	capacity := uint64(pos.CapacityPerBlock)
	if uint64(n.pool.Len()) < capacity {
		return
	}
	txs := n.pool.DequeueN(int(capacity))

	current := chainLedger
	ctx := pos.TxContext{BlockIndex: tip.Index + 1, ValidatorID: validatorID}
	for _, t := range txs {
		next, err := pos.ValidateTransaction(t, current, ctx)
		if err != nil {
			// A transaction that passed soft-ledger validation at pool time
			// can still fail here if it raced with another transaction
			// from the same sender between pooling and minting; drop it
			// and keep the mempool's FIFO order for survivors.
			log.Warn("mint: dropping transaction", "id", t.TransactionID, "err", err)
			continue
		}
		current = next
	}

	b := chain.NewBlock(tip.Index+1, tip.CurrentHash, n.Wallet.PublicKey, now(), txs)
	n.commitBlock(b, current)
	if n.broadcaster != nil {
		n.broadcaster.BroadcastBlock(b)
	}
}

// HandleIncomingBlock validates and, if linked to the current tip,
// commits a block received from a peer (spec.md §4.6). If the block is
// internally consistent but does not link to the tip, it is buffered for
// later reconsideration (spec.md §4.8) rather than rejected outright.
func (n *Node) HandleIncomingBlock(b *chain.Block) error {
	if _, seen := n.seen.Get(b.CurrentHash); seen {
		return nil
	}
	n.seen.Add(b.CurrentHash, struct{}{})

	n.chainLock.Lock()
	tip := n.tip()
	chainLedger := n.chainLdg
	n.chainLock.Unlock()
	if tip == nil {
		return fmt.Errorf("node: no chain installed")
	}

	next, err := pos.ValidateBlock(b, tip, chainLedger)
	if err != nil {
		if errors.Is(err, pos.ErrPrevHashMismatch) {
			n.buffer(b)
			return nil
		}
		return err
	}

	n.commitBlock(b, next)
	n.drainBuffer()
	return nil
}

// commitBlock appends b to the chain under chainLock, installs the
// resulting ledger as the new chain ledger, re-derives the soft ledger
// by replaying the surviving mempool against it, and confirms wallet
// history for every transaction b carries (spec.md §4.7).
func (n *Node) commitBlock(b *chain.Block, chainLedger *ledger.Ring) {
	n.chainLock.Lock()
	n.chainVal.Append(b)
	n.chainLdg = chainLedger
	n.chainLock.Unlock()

	n.pool.Remove(b.Transactions)
	n.reconcileSoftLedger()
	n.Metrics.SetNumBlocks(uint64(n.chainVal.Len()))
	n.Metrics.SetMempoolSize(uint64(n.pool.Len()))

	if n.Wallet != nil {
		for _, t := range b.Transactions {
			if n.Wallet.Involves(t) {
				n.Wallet.Confirm(t.TransactionID, b.Validator)
			}
		}
	}
	log.Info("block committed", "index", b.Index, "validator", b.Validator, "txs", len(b.Transactions))
}

// reconcileSoftLedger rebuilds the soft ledger from the chain ledger by
// replaying the surviving mempool in FIFO order, dropping (without
// re-queueing) any transaction that no longer validates — e.g. one whose
// TTL has now expired, or that has become a duplicate nonce because a
// conflicting transaction from the same sender was just committed
// (spec.md §4.7, §8 "Mempool filtering must preserve FIFO order of
// survivors").
func (n *Node) reconcileSoftLedger() {
	n.chainLock.Lock()
	tip := n.tip()
	chainLedger := n.chainLdg
	n.chainLock.Unlock()

	current := chainLedger.Snapshot()
	pending := n.pool.Snapshot()
	survivors := make([]*chain.Transaction, 0, len(pending))

	validatorID, err := pos.SelectValidator(tip.CurrentHash, current)
	if err != nil {
		validatorID = 0
	}
	ctx := pos.TxContext{BlockIndex: tip.Index + 1, ValidatorID: validatorID}
	for _, t := range pending {
		next, err := pos.ValidateTransaction(t, current, ctx)
		if err != nil {
			log.Warn("reconcile: dropping stale transaction", "id", t.TransactionID, "err", err)
			continue
		}
		current = next
		survivors = append(survivors, t)
	}
	n.pool.Replace(survivors)
	n.Metrics.SetMempoolSize(uint64(len(survivors)))

	n.softLock.Lock()
	n.softLdg = current
	n.softLock.Unlock()
}

// buffer adds an out-of-order block to the pending set, bounded by
// outOfOrderLimit via the oob slice's own cap discipline (the dedup
// side is handled by n.seen; this slice just needs to not grow without
// bound if many unrelated forks arrive).
func (n *Node) buffer(b *chain.Block) {
	n.oobMu.Lock()
	defer n.oobMu.Unlock()
	if len(n.oob) >= outOfOrderLimit {
		n.oob = n.oob[1:]
	}
	n.oob = append(n.oob, b)
}

// drainBuffer retries every buffered block against the new tip after a
// commit, in case one of them now links (spec.md §4.8). It repeats until
// a full pass makes no progress, so a short run of buffered blocks
// arriving out of order can all be applied in one commit.
func (n *Node) drainBuffer() {
	for {
		n.oobMu.Lock()
		candidates := n.oob
		n.oob = nil
		n.oobMu.Unlock()

		if len(candidates) == 0 {
			return
		}

		progressed := false
		var stillPending []*chain.Block
		for _, b := range candidates {
			n.chainLock.Lock()
			tip := n.tip()
			chainLedger := n.chainLdg
			n.chainLock.Unlock()

			next, err := pos.ValidateBlock(b, tip, chainLedger)
			if err != nil {
				if errors.Is(err, pos.ErrPrevHashMismatch) {
					stillPending = append(stillPending, b)
					continue
				}
				log.Warn("drain buffer: discarding invalid block", "index", b.Index, "err", err)
				continue
			}
			n.commitBlock(b, next)
			progressed = true
		}

		n.oobMu.Lock()
		n.oob = append(stillPending, n.oob...)
		n.oobMu.Unlock()

		if !progressed {
			return
		}
	}
}
