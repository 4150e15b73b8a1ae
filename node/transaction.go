package node

import (
	"fmt"

	"github.com/tos-network/blockchat/chain"
	"github.com/tos-network/blockchat/consensus/pos"
	"github.com/tos-network/blockchat/ledger"
	"github.com/tos-network/blockchat/log"
)

// CreateTransaction builds, signs, pools and broadcasts a new transaction
// from this node (spec.md §4.1/§4.3, endpoints.py's create_transaction).
// It returns the signed transaction so the caller (the client-facing API)
// can report its id back to the caller immediately.
//
// TTL is never caller-supplied (spec.md §3: "index of the sender's last
// chain block at creation time"); it is stamped here from this node's own
// chain state.
func (n *Node) CreateTransaction(receiver string, amount int64, message string) (*chain.Transaction, error) {
	nonce := n.nextNonce()
	ttl := n.nextBlockIndex()
	if ttl > 0 {
		ttl-- // index of the chain tip
	}
	t := chain.NewTransaction(n.Wallet.PublicKey, receiver, amount, message, nonce, ttl)
	if err := t.Sign(n.Wallet.PrivateKey); err != nil {
		return nil, fmt.Errorf("node: create transaction: %w", err)
	}
	if err := n.acceptTransaction(t); err != nil {
		return nil, err
	}
	if n.broadcaster != nil {
		n.broadcaster.BroadcastTransaction(t)
	}
	return t, nil
}

// nextNonce picks the smallest nonce not yet recorded for this node's own
// account in the soft ledger, scanning up from 0 (mirrors node.py's
// len(sender_account['nonces']) convention: nonces are assigned densely
// from 0, so with no gap the result equals the number already recorded).
func (n *Node) nextNonce() uint64 {
	ring := n.SoftLedger()
	a, err := ring.Lookup(n.id)
	if err != nil {
		return 0
	}
	nonce := uint64(0)
	for a.HasNonce(nonce) {
		nonce++
	}
	return nonce
}

// nextBlockIndex is the index the next block would carry, one past the
// chain tip's index that new transactions' TTLs are stamped with and that
// soft-state freshness is measured against.
func (n *Node) nextBlockIndex() uint64 {
	n.chainLock.Lock()
	defer n.chainLock.Unlock()
	if n.chainVal == nil {
		return 0
	}
	return uint64(n.chainVal.Len())
}

// HandleIncomingTransaction validates a transaction received from a peer
// against the soft ledger and, if it passes, pools it and attempts
// minting if the pool has reached capacity (spec.md §4.3). It is the
// BlockChat analogue of endpoints.py's /validate_transaction handler.
func (n *Node) HandleIncomingTransaction(t *chain.Transaction) error {
	return n.acceptTransaction(t)
}

// acceptTransaction is the shared body of CreateTransaction and
// HandleIncomingTransaction: validate against the soft ledger, update the
// soft ledger and mempool together, record wallet history, and trigger
// minting if the pool is now full.
func (n *Node) acceptTransaction(t *chain.Transaction) error {
	n.softLock.Lock()
	ring := n.softLdg
	blockIdx := n.nextBlockIndex()
	if blockIdx > 0 {
		blockIdx-- // freshness is measured against the chain tip
	}
	validatorID, err := n.prospectiveValidator(ring)
	if err != nil {
		n.softLock.Unlock()
		return fmt.Errorf("node: prospective validator: %w", err)
	}
	next, err := pos.ValidateTransaction(t, ring, pos.TxContext{BlockIndex: blockIdx, ValidatorID: validatorID})
	if err != nil {
		n.softLock.Unlock()
		return err
	}
	n.softLdg = next
	n.softLock.Unlock()

	if n.Wallet != nil && n.Wallet.Involves(t) {
		n.Wallet.Record(t)
	}

	atCapacity := n.pool.Add(t)
	n.Metrics.SetMempoolSize(uint64(n.pool.Len()))
	log.Info("transaction pooled", "id", t.TransactionID, "pool_len", n.pool.Len())
	if atCapacity {
		n.tryMint()
	}
	return nil
}

// prospectiveValidator computes the id that would mint the next block,
// from the current chain tip hash and ring (spec.md §4.4: validator
// selection depends only on committed chain state, never on mempool
// contents, so it can be computed eagerly for soft-ledger fee projection).
func (n *Node) prospectiveValidator(ring *ledger.Ring) (uint32, error) {
	n.chainLock.Lock()
	tip := n.tip()
	n.chainLock.Unlock()
	if tip == nil {
		return 0, fmt.Errorf("node: no chain installed")
	}
	return pos.SelectValidator(tip.CurrentHash, ring)
}
