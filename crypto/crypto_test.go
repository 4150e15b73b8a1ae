package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKeyEncodeDecodeRoundTrip(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	pem, err := EncodePublicKey(&key.PublicKey)
	require.NoError(t, err)
	assert.NotEmpty(t, pem)

	decoded, err := DecodePublicKey(pem)
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey.N, decoded.N)
	assert.Equal(t, key.PublicKey.E, decoded.E)
}

func TestDecodePublicKeyRejectsCoinbaseSentinel(t *testing.T) {
	_, err := DecodePublicKey(CoinbaseAddress)
	assert.ErrorIs(t, err, ErrInvalidPEM)
}

func TestDecodePublicKeyRejectsGarbage(t *testing.T) {
	_, err := DecodePublicKey("not a pem block")
	assert.ErrorIs(t, err, ErrInvalidPEM)
}

func TestHash256IsDeterministic(t *testing.T) {
	a := Hash256([]byte("blockchat"))
	b := Hash256([]byte("blockchat"))
	assert.Equal(t, a, b)
	assert.Len(t, a, 64) // hex-encoded SHA-256 is 32 bytes == 64 hex chars
}

func TestSignVerifyRoundTrip(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	digest := Hash256([]byte("a transaction id's worth of bytes"))
	sig, err := Sign(key, digest)
	require.NoError(t, err)

	assert.True(t, Verify(&key.PublicKey, digest, sig))
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	otherKey, err := GenerateKey()
	require.NoError(t, err)

	digest := Hash256([]byte("payload"))
	sig, err := Sign(key, digest)
	require.NoError(t, err)

	assert.False(t, Verify(&otherKey.PublicKey, digest, sig))
}

func TestVerifyRejectsTamperedDigest(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	digest := Hash256([]byte("payload"))
	sig, err := Sign(key, digest)
	require.NoError(t, err)

	tampered := Hash256([]byte("different payload"))
	assert.False(t, Verify(&key.PublicKey, tampered, sig))
}

func TestVerifyRejectsMalformedHex(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	assert.False(t, Verify(&key.PublicKey, "not-hex", "also-not-hex"))
}
