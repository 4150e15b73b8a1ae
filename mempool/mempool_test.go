package mempool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tos-network/blockchat/chain"
)

func txWithID(id string) *chain.Transaction {
	return &chain.Transaction{TransactionID: id}
}

func TestMempoolAddReportsCapacityReached(t *testing.T) {
	m := New(2)
	assert.False(t, m.Add(txWithID("a")))
	assert.True(t, m.Add(txWithID("b")))
	assert.Equal(t, 2, m.Len())
}

func TestMempoolDequeueNPreservesFIFOOrder(t *testing.T) {
	m := New(3)
	m.Add(txWithID("a"))
	m.Add(txWithID("b"))
	m.Add(txWithID("c"))

	out := m.DequeueN(2)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].TransactionID)
	assert.Equal(t, "b", out[1].TransactionID)
	assert.Equal(t, 1, m.Len())
}

func TestMempoolDequeueNClampsToLength(t *testing.T) {
	m := New(5)
	m.Add(txWithID("a"))
	out := m.DequeueN(10)
	assert.Len(t, out, 1)
	assert.Equal(t, 0, m.Len())
}

func TestMempoolRemoveDropsMinedPreservingOrder(t *testing.T) {
	m := New(5)
	m.Add(txWithID("a"))
	m.Add(txWithID("b"))
	m.Add(txWithID("c"))

	m.Remove([]*chain.Transaction{txWithID("b")})
	snap := m.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "a", snap[0].TransactionID)
	assert.Equal(t, "c", snap[1].TransactionID)
}

func TestMempoolReplaceSwapsQueue(t *testing.T) {
	m := New(5)
	m.Add(txWithID("a"))
	m.Replace([]*chain.Transaction{txWithID("x"), txWithID("y")})
	snap := m.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "x", snap[0].TransactionID)
}

func TestMempoolSnapshotIsIndependentCopy(t *testing.T) {
	m := New(5)
	m.Add(txWithID("a"))
	snap := m.Snapshot()
	snap[0] = txWithID("mutated")
	assert.Equal(t, "a", m.Snapshot()[0].TransactionID)
}
