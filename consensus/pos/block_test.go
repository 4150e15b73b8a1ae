package pos

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tos-network/blockchat/chain"
	"github.com/tos-network/blockchat/ledger"
)

func genesisRing(t *testing.T, n int) (*ledger.Ring, []keyedAccount, *chain.Block) {
	t.Helper()
	ring, accounts := newTestRing(t, n)
	grant := chain.NewTransaction(chain.CoinbaseAddress, accounts[0].pub, int64(1000*n), "", 0, 0)
	genesis := chain.NewBlock(0, chain.GenesisPreviousHash, chain.GenesisValidator, 0, []*chain.Transaction{grant})
	next, err := ValidateGenesis(genesis, ring)
	require.NoError(t, err)
	return next, accounts, genesis
}

func TestValidateGenesisGrantsNodeZero(t *testing.T) {
	ring, accounts, _ := genesisRing(t, 2)
	node0, err := ring.LookupKey(accounts[0].pub)
	require.NoError(t, err)
	assert.Equal(t, ledger.ToMilli(2000).Uint64(), node0.Balance.Uint64())
}

func TestValidateGenesisRejectsWrongGrantAmount(t *testing.T) {
	raw := ledger.NewRing()
	_, err := raw.Register(0, "127.0.0.1", "5000", "pub-0")
	require.NoError(t, err)
	_, err = raw.Register(1, "127.0.0.1", "5001", "pub-1")
	require.NoError(t, err)

	bad := chain.NewTransaction(chain.CoinbaseAddress, "pub-0", 1, "", 0, 0)
	genesis := chain.NewBlock(0, chain.GenesisPreviousHash, chain.GenesisValidator, 0, []*chain.Transaction{bad})
	_, err = ValidateGenesis(genesis, raw)
	assert.ErrorIs(t, err, ErrGenesisInvalid)
}

func TestValidateBlockAppendsOnCorrectValidator(t *testing.T) {
	ring, accounts, genesis := genesisRing(t, 2)
	CapacityPerBlock = 1
	defer func() { CapacityPerBlock = 3 }()

	selected, err := SelectValidator(genesis.CurrentHash, ring)
	require.NoError(t, err)

	tx := signedTx(t, accounts[0], accounts[1].pub, 10, "", 0, 0)
	validatorKey := accounts[selected].pub
	b := chain.NewBlock(1, genesis.CurrentHash, validatorKey, 0, []*chain.Transaction{tx})

	_, err = ValidateBlock(b, genesis, ring)
	require.NoError(t, err)
}

func TestValidateBlockRejectsWrongValidator(t *testing.T) {
	ring, accounts, genesis := genesisRing(t, 2)
	CapacityPerBlock = 1
	defer func() { CapacityPerBlock = 3 }()

	selected, err := SelectValidator(genesis.CurrentHash, ring)
	require.NoError(t, err)
	wrong := accounts[0]
	if selected == 0 {
		wrong = accounts[1]
	}

	tx := signedTx(t, accounts[0], accounts[1].pub, 10, "", 0, 0)
	b := chain.NewBlock(1, genesis.CurrentHash, wrong.pub, 0, []*chain.Transaction{tx})

	_, err = ValidateBlock(b, genesis, ring)
	assert.ErrorIs(t, err, ErrWrongValidator)
}

func TestValidateBlockRejectsBadLinkage(t *testing.T) {
	ring, accounts, genesis := genesisRing(t, 2)
	CapacityPerBlock = 1
	defer func() { CapacityPerBlock = 3 }()

	tx := signedTx(t, accounts[0], accounts[1].pub, 10, "", 0, 0)
	b := chain.NewBlock(1, "not-the-real-previous-hash", accounts[0].pub, 0, []*chain.Transaction{tx})

	_, err := ValidateBlock(b, genesis, ring)
	assert.ErrorIs(t, err, ErrPrevHashMismatch)
}

func TestValidateBlockRejectsTamperedHash(t *testing.T) {
	ring, accounts, genesis := genesisRing(t, 2)
	CapacityPerBlock = 1
	defer func() { CapacityPerBlock = 3 }()

	tx := signedTx(t, accounts[0], accounts[1].pub, 10, "", 0, 0)
	b := chain.NewBlock(1, genesis.CurrentHash, accounts[0].pub, 0, []*chain.Transaction{tx})
	b.CurrentHash = "tampered"

	_, err := ValidateBlock(b, genesis, ring)
	assert.ErrorIs(t, err, ErrHashMismatch)
}

func TestValidateBlockRejectsWrongTransactionCount(t *testing.T) {
	ring, accounts, genesis := genesisRing(t, 2)

	tx := signedTx(t, accounts[0], accounts[1].pub, 10, "", 0, 0)
	b := chain.NewBlock(1, genesis.CurrentHash, accounts[0].pub, 0, []*chain.Transaction{tx})

	_, err := ValidateBlock(b, genesis, ring)
	assert.ErrorIs(t, err, ErrWrongTransactionCount, "default CapacityPerBlock is 3, block carries 1")
}

func TestReplayChainRebuildsLedgerFromGenesis(t *testing.T) {
	ring, accounts := newTestRing(t, 2)
	grant := chain.NewTransaction(chain.CoinbaseAddress, accounts[0].pub, 2000, "", 0, 0)
	genesis := chain.NewBlock(0, chain.GenesisPreviousHash, chain.GenesisValidator, 0, []*chain.Transaction{grant})
	c := chain.New()
	c.Append(genesis)

	replayed, err := ReplayChain(c, ring)
	require.NoError(t, err)
	node0, err := replayed.LookupKey(accounts[0].pub)
	require.NoError(t, err)
	assert.Equal(t, ledger.ToMilli(2000).Uint64(), node0.Balance.Uint64())
}

func TestReplayChainRejectsEmptyChain(t *testing.T) {
	ring, _ := newTestRing(t, 1)
	_, err := ReplayChain(chain.New(), ring)
	assert.ErrorIs(t, err, ErrGenesisInvalid)
}
