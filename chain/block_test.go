package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBlockIsSelfConsistent(t *testing.T) {
	b := NewBlock(1, "prev-hash", "validator-pub", 100, nil)
	assert.True(t, b.SelfConsistent())
}

func TestBlockSelfConsistentDetectsTamperedHash(t *testing.T) {
	b := NewBlock(1, "prev-hash", "validator-pub", 100, nil)
	b.Validator = "different-validator"
	assert.False(t, b.SelfConsistent())
}

func TestBlockEqualComparesByHash(t *testing.T) {
	a := NewBlock(1, "prev-hash", "validator-pub", 100, nil)
	b := NewBlock(1, "prev-hash", "validator-pub", 100, nil)
	assert.True(t, a.Equal(b), "identical fields must hash identically")

	c := NewBlock(1, "prev-hash", "other-validator", 100, nil)
	assert.False(t, a.Equal(c))
}

func TestBlockEqualHandlesNil(t *testing.T) {
	var b *Block
	assert.True(t, b.Equal(nil))
	assert.False(t, b.Equal(NewBlock(0, GenesisPreviousHash, GenesisValidator, 0, nil)))
}

func TestBlockIsGenesis(t *testing.T) {
	g := NewBlock(0, GenesisPreviousHash, GenesisValidator, 0, nil)
	assert.True(t, g.IsGenesis())

	other := NewBlock(1, g.CurrentHash, "validator-pub", 0, nil)
	assert.False(t, other.IsGenesis())
}

func TestBlockWireRoundTrip(t *testing.T) {
	senderKey, senderPub := mustKey(t)
	_, receiverPub := mustKey(t)

	tx := NewTransaction(senderPub, receiverPub, 20, "msg", 1, 2)
	require.NoError(t, tx.Sign(senderKey))

	b := NewBlock(1, "prev-hash", senderPub, 42, []*Transaction{tx})
	encoded, err := b.EncodeWire()
	require.NoError(t, err)

	decoded, err := DecodeBlock(encoded)
	require.NoError(t, err)

	assert.Equal(t, b.CurrentHash, decoded.CurrentHash)
	assert.Equal(t, b.Index, decoded.Index)
	assert.Equal(t, b.Validator, decoded.Validator)
	require.Len(t, decoded.Transactions, 1)
}
