package bootstrap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tos-network/blockchat/node"
	"github.com/tos-network/blockchat/p2p"
	"github.com/tos-network/blockchat/wallet"
)

func mustNode(t *testing.T) *node.Node {
	t.Helper()
	w, err := wallet.Generate()
	require.NoError(t, err)
	n, err := node.New(w, 10)
	require.NoError(t, err)
	return n
}

func TestNewSeedsGenesisForSelf(t *testing.T) {
	n := mustNode(t)
	client := p2p.NewClient(4, time.Second)

	b, err := New(n, client, 3, "127.0.0.1", "5000")
	require.NoError(t, err)
	assert.NotNil(t, b)

	assert.Equal(t, uint32(0), n.ID())
	assert.Equal(t, 1, n.Chain().Len())
	assert.Equal(t, uint64(3000), n.SoftBalance(), "genesis grant is seedAmount * totalNodes")
}

func TestNewRejectsZeroTotalNodes(t *testing.T) {
	n := mustNode(t)
	client := p2p.NewClient(4, time.Second)
	_, err := New(n, client, 0, "127.0.0.1", "5000")
	assert.Error(t, err)
}

func TestRegisterAssignsSequentialIDs(t *testing.T) {
	n := mustNode(t)
	client := p2p.NewClient(4, time.Second)
	b, err := New(n, client, 3, "127.0.0.1", "5000")
	require.NoError(t, err)

	id1, err := b.Register(&p2p.Registration{PublicKey: "peer-1-pub", IP: "127.0.0.1", Port: "5001"})
	require.NoError(t, err)
	assert.Equal(t, uint32(1), id1)

	id2, err := b.Register(&p2p.Registration{PublicKey: "peer-2-pub", IP: "127.0.0.1", Port: "5002"})
	require.NoError(t, err)
	assert.Equal(t, uint32(2), id2)
}

func TestRegisterRejectsOnceSystemFull(t *testing.T) {
	n := mustNode(t)
	client := p2p.NewClient(4, time.Second)
	b, err := New(n, client, 2, "127.0.0.1", "5000")
	require.NoError(t, err)

	_, err = b.Register(&p2p.Registration{PublicKey: "peer-1-pub", IP: "127.0.0.1", Port: "5001"})
	require.NoError(t, err)

	// The ring is now full (node 0 + the one registrant == totalNodes), so a
	// further registration attempt must be rejected even though finalize()
	// runs in the background and may not yet have completed its pushes.
	_, err = b.Register(&p2p.Registration{PublicKey: "peer-2-pub", IP: "127.0.0.1", Port: "5002"})
	assert.ErrorIs(t, err, ErrSystemFull)
}

func TestRegisterRejectsDuplicatePublicKey(t *testing.T) {
	n := mustNode(t)
	client := p2p.NewClient(4, time.Second)
	b, err := New(n, client, 3, "127.0.0.1", "5000")
	require.NoError(t, err)

	reg := &p2p.Registration{PublicKey: "peer-1-pub", IP: "127.0.0.1", Port: "5001"}
	_, err = b.Register(reg)
	require.NoError(t, err)

	_, err = b.Register(&p2p.Registration{PublicKey: "peer-1-pub", IP: "127.0.0.1", Port: "5099"})
	assert.Error(t, err)
}
