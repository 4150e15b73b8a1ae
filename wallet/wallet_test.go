package wallet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tos-network/blockchat/chain"
)

func TestGenerateProducesUsablePublicKey(t *testing.T) {
	w, err := Generate()
	require.NoError(t, err)
	assert.NotEmpty(t, w.PublicKey)
	assert.NotNil(t, w.PrivateKey)
}

func TestWalletInvolves(t *testing.T) {
	w, err := Generate()
	require.NoError(t, err)

	mine := &chain.Transaction{SenderAddress: w.PublicKey, ReceiverAddress: "someone-else"}
	assert.True(t, w.Involves(mine))

	other := &chain.Transaction{SenderAddress: "a", ReceiverAddress: "b"}
	assert.False(t, w.Involves(other))
}

func TestWalletRecordThenConfirm(t *testing.T) {
	w, err := Generate()
	require.NoError(t, err)

	tx := &chain.Transaction{TransactionID: "tx-1"}
	w.Record(tx)

	hist := w.History()
	require.Len(t, hist, 1)
	assert.Equal(t, Unconfirmed, hist[0].Status)
	assert.Equal(t, "None", hist[0].Validator)

	w.Confirm("tx-1", "validator-pub")
	hist = w.History()
	require.Len(t, hist, 1)
	assert.Equal(t, Confirmed, hist[0].Status)
	assert.Equal(t, "validator-pub", hist[0].Validator)
}

func TestWalletRecordIsIdempotent(t *testing.T) {
	w, err := Generate()
	require.NoError(t, err)

	tx := &chain.Transaction{TransactionID: "tx-1"}
	w.Record(tx)
	w.Record(tx)
	assert.Len(t, w.History(), 1)
}

func TestWalletConfirmUnknownTransactionIsNoOp(t *testing.T) {
	w, err := Generate()
	require.NoError(t, err)
	w.Confirm("never-recorded", "validator-pub")
	assert.Empty(t, w.History())
}

func TestWalletHistorySnapshotSliceIsIndependent(t *testing.T) {
	w, err := Generate()
	require.NoError(t, err)
	w.Record(&chain.Transaction{TransactionID: "tx-1"})

	snap := w.History()
	snap[0] = &Entry{Transaction: &chain.Transaction{TransactionID: "tx-2"}}

	fresh := w.History()
	assert.Equal(t, "tx-1", fresh[0].Transaction.TransactionID, "replacing an element in the returned slice must not affect the wallet's own history")
}
