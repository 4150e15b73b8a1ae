package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainTipOnEmptyChain(t *testing.T) {
	c := New()
	assert.Nil(t, c.Tip())
	assert.Equal(t, 0, c.Len())
}

func TestChainAppendAndTip(t *testing.T) {
	c := New()
	genesis := NewBlock(0, GenesisPreviousHash, GenesisValidator, 0, nil)
	c.Append(genesis)
	b1 := NewBlock(1, genesis.CurrentHash, "validator-pub", 1, nil)
	c.Append(b1)

	assert.Equal(t, 2, c.Len())
	assert.True(t, c.Tip().Equal(b1))
}

func TestChainCheckLinkageAcceptsWellFormedChain(t *testing.T) {
	c := New()
	genesis := NewBlock(0, GenesisPreviousHash, GenesisValidator, 0, nil)
	c.Append(genesis)
	c.Append(NewBlock(1, genesis.CurrentHash, "validator-pub", 1, nil))
	assert.NoError(t, c.CheckLinkage())
}

func TestChainCheckLinkageRejectsBrokenHashChain(t *testing.T) {
	c := New()
	genesis := NewBlock(0, GenesisPreviousHash, GenesisValidator, 0, nil)
	c.Append(genesis)
	c.Append(NewBlock(1, "not-the-genesis-hash", "validator-pub", 1, nil))
	assert.Error(t, c.CheckLinkage())
}

func TestChainCheckLinkageRejectsIndexGap(t *testing.T) {
	c := New()
	genesis := NewBlock(0, GenesisPreviousHash, GenesisValidator, 0, nil)
	c.Append(genesis)
	c.Append(NewBlock(2, genesis.CurrentHash, "validator-pub", 1, nil))
	assert.Error(t, c.CheckLinkage())
}

func TestChainWireRoundTrip(t *testing.T) {
	senderKey, senderPub := mustKey(t)
	_, receiverPub := mustKey(t)

	c := New()
	genesis := NewBlock(0, GenesisPreviousHash, GenesisValidator, 0, nil)
	c.Append(genesis)

	tx := NewTransaction(senderPub, receiverPub, 10, "hi", 0, 1)
	require.NoError(t, tx.Sign(senderKey))
	c.Append(NewBlock(1, genesis.CurrentHash, senderPub, 1, []*Transaction{tx}))

	encoded, err := c.EncodeWire()
	require.NoError(t, err)

	decoded, err := DecodeChain(encoded)
	require.NoError(t, err)
	require.Equal(t, 2, decoded.Len())
	assert.True(t, decoded.Tip().Equal(c.Tip()))
	assert.Equal(t, tx.TransactionID, decoded.Blocks[1].Transactions[0].TransactionID)
}
