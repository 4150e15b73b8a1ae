package ledger

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tos-network/blockchat/crypto"
)

func TestRingRegisterAssignsRequestedID(t *testing.T) {
	r := NewRing()
	a, err := r.Register(0, "127.0.0.1", "5000", "pub-0")
	require.NoError(t, err)
	assert.Equal(t, uint32(0), a.ID)
	assert.Equal(t, uint64(MilliPerBCC), a.Stake.Uint64())
	assert.Equal(t, uint64(0), a.Balance.Uint64())
	assert.Equal(t, 1, r.Len())
}

func TestRingRegisterRejectsDuplicates(t *testing.T) {
	r := NewRing()
	_, err := r.Register(0, "127.0.0.1", "5000", "pub-0")
	require.NoError(t, err)

	_, err = r.Register(0, "127.0.0.1", "5001", "pub-1")
	assert.ErrorIs(t, err, ErrDuplicateID)

	_, err = r.Register(1, "127.0.0.1", "5000", "pub-0")
	assert.ErrorIs(t, err, ErrDuplicatePublicKey)

	_, err = r.Register(1, "127.0.0.1", "5000", "pub-1")
	assert.ErrorIs(t, err, ErrDuplicateAddress)
}

func TestRingLookupKeyRejectsCoinbase(t *testing.T) {
	r := NewRing()
	_, err := r.LookupKey(crypto.CoinbaseAddress)
	assert.ErrorIs(t, err, ErrCoinbaseNotAnAccount)
}

func TestRingLookupUnknown(t *testing.T) {
	r := NewRing()
	_, err := r.Lookup(7)
	assert.ErrorIs(t, err, ErrUnknownAccount)

	_, err = r.LookupKey("nope")
	assert.ErrorIs(t, err, ErrUnknownPublicKey)

	_, ok := r.KeyToID("nope")
	assert.False(t, ok)
}

func TestRingEachVisitsInAscendingIDOrder(t *testing.T) {
	r := NewRing()
	for _, id := range []uint32{2, 0, 1} {
		_, err := r.Register(id, "127.0.0.1", "500"+string(rune('0'+id)), "pub-"+string(rune('0'+id)))
		require.NoError(t, err)
	}
	var seen []uint32
	r.Each(func(a *Account) { seen = append(seen, a.ID) })
	assert.Equal(t, []uint32{0, 1, 2}, seen)
}

func TestRingSnapshotIsIndependentCopy(t *testing.T) {
	r := NewRing()
	a, err := r.Register(0, "127.0.0.1", "5000", "pub-0")
	require.NoError(t, err)
	a.Balance = uint256.NewInt(500)
	a.AddNonce(1)

	snap := r.Snapshot()
	live, err := snap.Lookup(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), live.Balance.Uint64())
	assert.True(t, live.HasNonce(1))

	live.Balance = uint256.NewInt(999)
	live.AddNonce(2)

	original, err := r.Lookup(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), original.Balance.Uint64(), "mutating the snapshot must not affect the original ring")
	assert.False(t, original.HasNonce(2))
}

func TestRingTotalStake(t *testing.T) {
	r := NewRing()
	_, err := r.Register(0, "127.0.0.1", "5000", "pub-0")
	require.NoError(t, err)
	_, err = r.Register(1, "127.0.0.1", "5001", "pub-1")
	require.NoError(t, err)
	assert.Equal(t, uint64(2*MilliPerBCC), r.TotalStake().Uint64())
}

func TestRingWireRoundTrip(t *testing.T) {
	r := NewRing()
	a0, err := r.Register(0, "127.0.0.1", "5000", "pub-0")
	require.NoError(t, err)
	a0.Balance = uint256.NewInt(1234)
	a0.AddNonce(42)
	_, err = r.Register(1, "127.0.0.1", "5001", "pub-1")
	require.NoError(t, err)

	encoded, err := r.EncodeWire()
	require.NoError(t, err)

	decoded, err := DecodeRing(encoded)
	require.NoError(t, err)
	assert.Equal(t, 2, decoded.Len())

	got0, err := decoded.Lookup(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1234), got0.Balance.Uint64())
	assert.True(t, got0.HasNonce(42))
	assert.False(t, got0.HasNonce(43))
}
