package node

import (
	"fmt"

	"github.com/tos-network/blockchat/chain"
	"github.com/tos-network/blockchat/consensus/pos"
	"github.com/tos-network/blockchat/ledger"
)

// LearnRing is the joining-node side of spec.md §6's POST /get_ring
// ("Overwrite ring, learn own id"): the bootstrap node pushes the
// just-finalized N-entry ring to every peer once registration completes,
// and each peer resolves its own id by looking up its public key in it.
// The chain itself arrives separately via a following POST /get_chain,
// consumed by InstallChainFromPeer below.
func (n *Node) LearnRing(ring *ledger.Ring) error {
	id, ok := ring.KeyToID(n.Wallet.PublicKey)
	if !ok {
		return fmt.Errorf("node: own public key not present in pushed ring")
	}
	n.id = id
	n.pendingMembership = ring
	return nil
}

// InstallChainFromPeer replays c against the membership most recently
// learned via LearnRing (spec.md §4.9), the second half of the join
// handshake started by LearnRing.
func (n *Node) InstallChainFromPeer(c *chain.Chain) error {
	if n.pendingMembership == nil {
		return fmt.Errorf("node: received chain before ring")
	}
	return n.ReplayChain(n.pendingMembership, c)
}

// InstallGenesis sets up a brand-new node at chain height 0 from a
// membership ring (no balances/stake history, as NewAccount establishes)
// and a freshly-minted genesis block. Used by the bootstrap node itself,
// which never needs to replay (spec.md §4.9's replay path is for nodes
// joining an already-running network). Callers must call n.SetID before
// calling InstallGenesis.
func (n *Node) InstallGenesis(membership *ledger.Ring, genesis *chain.Block) error {
	next, err := pos.ValidateGenesis(genesis, pos.NewReplayRing(membership))
	if err != nil {
		return fmt.Errorf("node: install genesis: %w", err)
	}
	c := chain.New()
	c.Append(genesis)
	n.installChain(c, next)
	return nil
}

// ReplayChain rebuilds chain and chain-ledger state from scratch by
// validating every block of c against membership, the path a node joining
// an already-running network takes after fetching /get_chain and
// /get_ring from its bootstrap peer (spec.md §4.9). Callers must call n.SetID
// before calling ReplayChain (e.g. from the bootstrap /register_node
// reply); id is not an argument here because this same method is called
// by the self-POST to /get_chain after the id is already known.
func (n *Node) ReplayChain(membership *ledger.Ring, c *chain.Chain) error {
	if err := c.CheckLinkage(); err != nil {
		return fmt.Errorf("node: replay: %w", err)
	}
	chainLedger, err := pos.ReplayChain(c, membership)
	if err != nil {
		return fmt.Errorf("node: replay: %w", err)
	}
	n.installChain(c, chainLedger)
	return nil
}
