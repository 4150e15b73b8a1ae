// Package mempool implements the FIFO queue of validated, unconfirmed
// transactions every node maintains (spec.md §3 "Mempool", §4.3).
package mempool

import (
	"sync"

	"github.com/tos-network/blockchat/chain"
)

// Mempool is a thread-safe FIFO queue of transactions that have passed
// individual validation but are not yet in any committed block.
//
// Ported from the original's collections.deque transaction_pool; Go's
// slice re-slicing gives the same amortized O(1) dequeue-from-front
// behavior without pulling in a container/list dependency (no pack
// example ships a deque library — see DESIGN.md).
type Mempool struct {
	mu       sync.Mutex
	capacity int
	queue    []*chain.Transaction
}

// New returns an empty mempool that drains at capacity transactions.
func New(capacity int) *Mempool {
	return &Mempool{capacity: capacity}
}

// Capacity returns the configured drain threshold.
func (m *Mempool) Capacity() int { return m.capacity }

// Len reports the current queue length.
func (m *Mempool) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Add appends t to the back of the queue and reports whether the queue has
// now reached capacity (the caller's cue to attempt minting, per spec.md
// §4.3: "When the mempool reaches CAPACITY, initiate minting").
//
// The mempool's own mutex is exactly the "mempool_lock" of spec.md §5: it
// is held for the append-and-length-check and released before the caller
// invokes the minter, avoiding reentrant locking (spec.md "it must be
// released before calling the minter").
func (m *Mempool) Add(t *chain.Transaction) (atCapacity bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, t)
	return len(m.queue) >= m.capacity
}

// DequeueN removes and returns the first n transactions in FIFO order,
// for block construction (spec.md §4.5 step 1). If n exceeds the current
// length, every queued transaction is returned. The pool lock is held
// only for this call, not across a caller's earlier Len check.
func (m *Mempool) DequeueN(n int) []*chain.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n > len(m.queue) {
		n = len(m.queue)
	}
	out := make([]*chain.Transaction, n)
	copy(out, m.queue[:n])
	m.queue = m.queue[n:]
	return out
}

// Remove drops every transaction in mined (by TransactionID) from the
// queue, preserving the relative order of survivors (spec.md §4.3: "drop
// from the mempool any transaction contained in the block").
func (m *Mempool) Remove(mined []*chain.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(mined) == 0 {
		return
	}
	minedIDs := make(map[string]struct{}, len(mined))
	for _, t := range mined {
		minedIDs[t.TransactionID] = struct{}{}
	}
	survivors := m.queue[:0:0]
	for _, t := range m.queue {
		if _, dropped := minedIDs[t.TransactionID]; !dropped {
			survivors = append(survivors, t)
		}
	}
	m.queue = survivors
}

// Snapshot returns a copy of the queue's current contents in FIFO order,
// for re-validation against a freshly derived chain ledger (spec.md §4.3).
func (m *Mempool) Snapshot() []*chain.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*chain.Transaction, len(m.queue))
	copy(out, m.queue)
	return out
}

// Replace atomically swaps the queue contents, used after a filter pass
// has computed the surviving, order-preserving subset (spec.md §4.3 /
// §8 "Mempool filtering must preserve FIFO order of survivors").
func (m *Mempool) Replace(survivors []*chain.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = survivors
}
