package node

// RegisterMember adds a new account (balance 0, stake 1, no nonces) to
// the chain ledger under chainLock, and re-derives the soft ledger from
// it. Used by package bootstrap to answer /register_node: the new
// member's ledger entry exists before any block mentions it, exactly as
// original_source/src/node.py's bootstrap path appends directly to the
// in-memory ring.
func (n *Node) RegisterMember(ip, port, publicKey string) (uint32, error) {
	n.chainLock.Lock()
	id := uint32(n.chainLdg.Len())
	_, err := n.chainLdg.Register(id, ip, port, publicKey)
	n.chainLock.Unlock()
	if err != nil {
		return 0, err
	}
	n.reconcileSoftLedger()
	return id, nil
}
