// Package bootstrap implements node 0's genesis construction and
// registration bookkeeping (spec.md §4.10): seed the ring with itself,
// build and credit the genesis block, accept N-1 registrations, then ship
// the finalized ring and chain to every peer and issue the initial
// 1000-BCC seed transfers.
//
// Grounded on original_source/src/node.py's bootstrap branch of
// __init__/run, and the registration bookkeeping in
// original_source/src/endpoints.py's register_node handler.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tos-network/blockchat/chain"
	"github.com/tos-network/blockchat/ledger"
	"github.com/tos-network/blockchat/log"
	"github.com/tos-network/blockchat/node"
	"github.com/tos-network/blockchat/p2p"
)

// ErrSystemFull is returned by Register once N nodes are already seated
// (spec.md §7 "SystemFull (bootstrap, N reached)").
var ErrSystemFull = errors.New("bootstrap: registration already complete")

// seedAmount is the per-peer grant node 0 sends once the ring is full,
// spec.md §4.10 "N-1 'seed' transactions of amount 1000".
const seedAmount = 1000

// pushTimeout bounds how long ring/chain pushes to a single peer may take
// during finalization.
const pushTimeout = 5 * time.Second

// Bootstrap owns node 0's registration phase.
type Bootstrap struct {
	node       *node.Node
	client     *p2p.Client
	totalNodes uint32
}

// New constructs the bootstrap node's genesis state: node 0 registered
// at id 0 with ip/port, credited 1000*totalNodes via a coinbase
// transaction, and the resulting single-block chain installed.
func New(n *node.Node, client *p2p.Client, totalNodes uint32, ip, port string) (*Bootstrap, error) {
	if totalNodes == 0 {
		return nil, fmt.Errorf("bootstrap: totalNodes must be at least 1")
	}
	n.SetID(0)
	membership := ledger.NewRing()
	if _, err := membership.Register(0, ip, port, n.Wallet.PublicKey); err != nil {
		return nil, fmt.Errorf("bootstrap: register self: %w", err)
	}

	grant := int64(seedAmount) * int64(totalNodes)
	coinbase := chain.NewTransaction(chain.CoinbaseAddress, n.Wallet.PublicKey, grant, "", 0, 0)
	genesis := chain.NewBlock(0, chain.GenesisPreviousHash, chain.GenesisValidator, 0, []*chain.Transaction{coinbase})
	if err := n.InstallGenesis(membership, genesis); err != nil {
		return nil, fmt.Errorf("bootstrap: install genesis: %w", err)
	}

	return &Bootstrap{node: n, client: client, totalNodes: totalNodes}, nil
}

// Register implements p2p.Registrar. It assigns the next sequential id,
// registers the new member in the chain ledger, and — once the Nth
// registration completes — finalizes the ring in the background.
func (b *Bootstrap) Register(reg *p2p.Registration) (uint32, error) {
	if uint32(b.node.ChainLedger().Len()) >= b.totalNodes {
		return 0, ErrSystemFull
	}
	id, err := b.node.RegisterMember(reg.IP, reg.Port, reg.PublicKey)
	if err != nil {
		return 0, fmt.Errorf("bootstrap: register %s: %w", reg.PublicKey, err)
	}
	b.client.SetPeers(p2p.PeersFromRing(0, b.node.ChainLedger()))

	if uint32(b.node.ChainLedger().Len()) == b.totalNodes {
		go b.finalize()
	}
	return id, nil
}

// finalize pushes the completed ring and genesis chain to every peer and
// issues the N-1 seed transactions (spec.md §4.10). It runs off the
// HTTP goroutine that served the final /register_node so that registrant
// gets its response immediately.
func (b *Bootstrap) finalize() {
	ring := b.node.ChainLedger()
	chn := b.node.Chain()

	var recipients []*ledger.Account
	ring.Each(func(a *ledger.Account) {
		if a.ID == 0 {
			return
		}
		recipients = append(recipients, a)
	})

	for _, a := range recipients {
		peer := p2p.Peer{ID: a.ID, IP: a.IP, Port: a.Port}
		ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
		if err := b.client.PushRing(ctx, peer, ring); err != nil {
			log.Error("bootstrap: push ring", "peer_id", peer.ID, "err", err)
		}
		if err := b.client.PushChain(ctx, peer, chn); err != nil {
			log.Error("bootstrap: push chain", "peer_id", peer.ID, "err", err)
		}
		cancel()
	}

	for _, a := range recipients {
		t, err := b.node.CreateTransaction(a.PublicKey, seedAmount, "")
		if err != nil {
			log.Error("bootstrap: seed transaction", "peer_id", a.ID, "err", err)
			continue
		}
		log.Info("bootstrap: seed transaction issued", "peer_id", a.ID, "tx_id", t.TransactionID)
	}
}
