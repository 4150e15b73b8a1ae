package chain

import (
	"crypto/rsa"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tos-network/blockchat/crypto"
)

func mustKey(t *testing.T) (priv *rsa.PrivateKey, pub string) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	pubStr, err := crypto.EncodePublicKey(&key.PublicKey)
	require.NoError(t, err)
	return key, pubStr
}

func TestTransactionSignVerifyRoundTrip(t *testing.T) {
	senderKey, senderPub := mustKey(t)
	_, receiverPub := mustKey(t)

	tx := NewTransaction(senderPub, receiverPub, 100, "hi", 0, 10)
	require.NoError(t, tx.Sign(senderKey))
	assert.True(t, tx.VerifySignature())

	encoded, err := tx.EncodeWire()
	require.NoError(t, err)
	decoded, err := DecodeTransaction(encoded)
	require.NoError(t, err)

	assert.Equal(t, tx.TransactionID, decoded.TransactionID)
	assert.True(t, decoded.VerifySignature())
}

func TestTransactionTamperedFieldFailsVerification(t *testing.T) {
	senderKey, senderPub := mustKey(t)
	_, receiverPub := mustKey(t)

	tx := NewTransaction(senderPub, receiverPub, 100, "hi", 0, 10)
	require.NoError(t, tx.Sign(senderKey))

	tx.Amount = 999999
	assert.False(t, tx.VerifySignature(), "mutating amount after signing must invalidate the signature")
}

func TestCoinbaseTransactionNeverVerifies(t *testing.T) {
	_, receiverPub := mustKey(t)
	tx := NewTransaction(CoinbaseAddress, receiverPub, 4000, "", 0, 0)
	assert.False(t, tx.VerifySignature())
	assert.True(t, tx.IsCoinbase())
}

func TestIsStakeUpdate(t *testing.T) {
	_, senderPub := mustKey(t)
	tx := NewTransaction(senderPub, CoinbaseAddress, 50, "", 0, 5)
	assert.True(t, tx.IsStakeUpdate())
}
