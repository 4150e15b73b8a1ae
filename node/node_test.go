package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tos-network/blockchat/chain"
	"github.com/tos-network/blockchat/consensus/pos"
	"github.com/tos-network/blockchat/ledger"
	"github.com/tos-network/blockchat/wallet"
)

// setupTwoAccountRing registers two accounts — the node under test always
// takes id 0, since ValidateGenesis requires the genesis grant's receiver
// to be the ring's id-0 key — and returns both wallets plus the resulting
// membership ring.
func setupTwoAccountRing(t *testing.T) (w0, w1 *wallet.Wallet, membership *ledger.Ring) {
	t.Helper()
	w0, err := wallet.Generate()
	require.NoError(t, err)
	w1, err = wallet.Generate()
	require.NoError(t, err)

	membership = ledger.NewRing()
	_, err = membership.Register(0, "127.0.0.1", "5000", w0.PublicKey)
	require.NoError(t, err)
	_, err = membership.Register(1, "127.0.0.1", "5001", w1.PublicKey)
	require.NoError(t, err)
	return w0, w1, membership
}

func installGenesisNode(t *testing.T, w0 *wallet.Wallet, membership *ledger.Ring, capacity int) *Node {
	t.Helper()
	n, err := New(w0, capacity)
	require.NoError(t, err)
	n.SetID(0)

	grant := chain.NewTransaction(chain.CoinbaseAddress, w0.PublicKey, int64(1000*membership.Len()), "", 0, 0)
	genesis := chain.NewBlock(0, chain.GenesisPreviousHash, chain.GenesisValidator, 0, []*chain.Transaction{grant})
	require.NoError(t, n.InstallGenesis(membership, genesis))
	return n
}

func TestInstallGenesisCreditsNodeZero(t *testing.T) {
	w0, _, membership := setupTwoAccountRing(t)
	n := installGenesisNode(t, w0, membership, 5)

	assert.Equal(t, uint64(2000), n.SoftBalance())
	assert.Equal(t, uint64(1), n.SoftStake())
	assert.Equal(t, 1, n.Chain().Len())
}

func TestCreateTransactionPoolsAndMintsAtCapacity(t *testing.T) {
	pos.CapacityPerBlock = 1
	defer func() { pos.CapacityPerBlock = 3 }()

	w0, w1, membership := setupTwoAccountRing(t)
	n := installGenesisNode(t, w0, membership, 1)

	genesisHash := n.Chain().Tip().CurrentHash
	selected, err := pos.SelectValidator(genesisHash, n.ChainLedger())
	require.NoError(t, err)

	tx, err := n.CreateTransaction(w1.PublicKey, 10, "hi")
	require.NoError(t, err)
	assert.True(t, tx.VerifySignature())

	if selected == n.ID() {
		assert.Equal(t, 2, n.Chain().Len(), "this node was the validator for the next block and should have self-minted")
		assert.Equal(t, 0, n.Mempool().Len())
		hist := n.Wallet.History()
		require.Len(t, hist, 1)
		assert.Equal(t, wallet.Confirmed, hist[0].Status)
	} else {
		assert.Equal(t, 1, n.Chain().Len(), "a different node was selected validator; this node cannot mint")
		assert.Equal(t, 1, n.Mempool().Len())
		hist := n.Wallet.History()
		require.Len(t, hist, 1)
		assert.Equal(t, wallet.Unconfirmed, hist[0].Status)
	}
}

func TestCreateTransactionRejectsInsufficientBalance(t *testing.T) {
	w0, w1, membership := setupTwoAccountRing(t)
	n := installGenesisNode(t, w0, membership, 5)

	_, err := n.CreateTransaction(w1.PublicKey, 1_000_000_000, "")
	assert.ErrorIs(t, err, pos.ErrInsufficientBalance)
}

func TestHandleIncomingBlockBuffersOutOfOrderBlock(t *testing.T) {
	w0, _, membership := setupTwoAccountRing(t)
	n := installGenesisNode(t, w0, membership, 5)

	orphan := chain.NewBlock(5, "not-the-real-tip-hash", w0.PublicKey, 0, nil)
	err := n.HandleIncomingBlock(orphan)
	assert.NoError(t, err, "a self-consistent but unlinked block is buffered, not rejected")
	assert.Equal(t, 1, n.Chain().Len(), "the orphan must not be appended until it links")
}

func TestHandleIncomingBlockDedupsBySeenHash(t *testing.T) {
	w0, _, membership := setupTwoAccountRing(t)
	n := installGenesisNode(t, w0, membership, 5)

	b := chain.NewBlock(7, "some-hash", w0.PublicKey, 0, nil)
	require.NoError(t, n.HandleIncomingBlock(b))
	require.NoError(t, n.HandleIncomingBlock(b), "a second delivery of the same block hash must be a no-op, not re-validated")
}

func TestRegisterMemberGrowsRing(t *testing.T) {
	w0, _, membership := setupTwoAccountRing(t)
	n := installGenesisNode(t, w0, membership, 5)

	w2, err := wallet.Generate()
	require.NoError(t, err)
	id, err := n.RegisterMember("127.0.0.1", "5002", w2.PublicKey)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), id)

	acct, err := n.ChainLedger().Lookup(2)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), acct.BalanceBCC())
	assert.Equal(t, uint64(1), acct.StakeBCC())
}
