// Package p2p implements the node-to-node transport: broadcasting
// transactions and blocks to every peer, and serving the handful of
// endpoints peers call on each other (validate_transaction, get_block,
// register_node, get_ring, get_chain, send_chain).
//
// It is the Go-native replacement for original_source/src/node.py's
// thread-per-peer requests.post broadcast and original_source/src/
// endpoints.py's peer-facing Flask routes, using a bounded errgroup fan-out
// in place of one goroutine-per-peer-per-broadcast.
package p2p

import "fmt"

// Peer is one other node's address, as registered in the ring.
type Peer struct {
	ID   uint32
	IP   string
	Port string
}

// URL returns the peer's base HTTP URL.
func (p Peer) URL() string { return fmt.Sprintf("http://%s:%s", p.IP, p.Port) }
