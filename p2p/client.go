package p2p

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tos-network/blockchat/chain"
	"github.com/tos-network/blockchat/ledger"
	"github.com/tos-network/blockchat/log"
)

// DefaultBroadcastTimeout is the per-peer deadline for a single broadcast
// RPC (spec.md §5 Design Note: "bounded worker pool ... per-peer timeouts").
const DefaultBroadcastTimeout = 3 * time.Second

// DefaultFanout bounds how many broadcast RPCs run concurrently, replacing
// the original's thread-per-peer fan-out with a fixed-size worker pool.
const DefaultFanout = 8

// Client broadcasts transactions and blocks to every other node in the
// ring, and fetches a peer's chain/ring during bootstrap/replay. It
// implements node.Broadcaster.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	fanout     int

	mu    sync.RWMutex
	peers []Peer
}

// NewClient returns a broadcaster with an empty peer set; SetPeers must be
// called once the ring is known (after bootstrap registration or replay),
// using fanout concurrent RPCs capped at timeout each.
func NewClient(fanout int, timeout time.Duration) *Client {
	if fanout <= 0 {
		fanout = DefaultFanout
	}
	if timeout <= 0 {
		timeout = DefaultBroadcastTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
		fanout:     fanout,
	}
}

// SetPeers replaces the broadcast peer set, called after registration and
// again after every ring-affecting replay.
func (c *Client) SetPeers(peers []Peer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.peers = peers
}

func (c *Client) currentPeers() []Peer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Peer, len(c.peers))
	copy(out, c.peers)
	return out
}

// PeersFromRing returns every other node's address, derived from a ring
// snapshot, in the shape SetPeers expects.
func PeersFromRing(self uint32, r *ledger.Ring) []Peer {
	var out []Peer
	r.Each(func(a *ledger.Account) {
		if a.ID == self {
			return
		}
		out = append(out, Peer{ID: a.ID, IP: a.IP, Port: a.Port})
	})
	return out
}

// BroadcastTransaction posts t to /validate_transaction on every peer,
// fanned out across at most c.fanout concurrent requests, logging
// (not failing) unreachable peers per spec.md §7 "PeerUnreachable ...
// logged, not fatal". It implements node.Broadcaster.
func (c *Client) BroadcastTransaction(t *chain.Transaction) {
	body, err := t.EncodeWire()
	if err != nil {
		log.Error("p2p: encode transaction for broadcast", "err", err)
		return
	}
	c.fanOut(c.currentPeers(), "/validate_transaction", body)
}

// BroadcastBlock posts b to /get_block on every peer. It implements
// node.Broadcaster.
func (c *Client) BroadcastBlock(b *chain.Block) {
	body, err := b.EncodeWire()
	if err != nil {
		log.Error("p2p: encode block for broadcast", "err", err)
		return
	}
	c.fanOut(c.currentPeers(), "/get_block", body)
}

func (c *Client) fanOut(peers []Peer, path string, body []byte) {
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(c.fanout)
	for _, peer := range peers {
		peer := peer
		g.Go(func() error {
			if err := c.post(ctx, peer, path, body); err != nil {
				log.Warn("p2p: peer unreachable", "peer_id", peer.ID, "path", path, "err", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (c *Client) post(ctx context.Context, peer Peer, path string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, peer.URL()+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("p2p: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("p2p: peer %d returned status %d", peer.ID, resp.StatusCode)
	}
	return nil
}

// FetchChain fetches a peer's full chain via GET /send_chain, used during
// join-time replay (spec.md §4.9).
func (c *Client) FetchChain(ctx context.Context, peer Peer) (*chain.Chain, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, peer.URL()+"/send_chain", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("p2p: fetch chain from peer %d: %w", peer.ID, err)
	}
	defer resp.Body.Close()
	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, err
	}
	return chain.DecodeChain(buf.Bytes())
}

// RegisterSelf posts {public_key, ip, port} to the bootstrap node's
// /register_node and returns the assigned id (spec.md §4.10). The ring
// and chain arrive later via PushRing/PushChain once the bootstrap node
// has seen all N registrations.
func (c *Client) RegisterSelf(ctx context.Context, bootstrap Peer, publicKey, ip, port string) (uint32, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reg := &Registration{PublicKey: publicKey, IP: ip, Port: port}
	body, err := reg.EncodeWire()
	if err != nil {
		return 0, fmt.Errorf("p2p: encode registration: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, bootstrap.URL()+"/register_node", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("p2p: register with bootstrap: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return 0, fmt.Errorf("p2p: register with bootstrap: status %d", resp.StatusCode)
	}
	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return 0, err
	}
	assignment, err := DecodeAssignment(buf.Bytes())
	if err != nil {
		return 0, fmt.Errorf("p2p: decode registration assignment: %w", err)
	}
	return assignment.ID, nil
}

// PushRing posts ring to peer's /get_ring, the bootstrap node's side of
// spec.md §4.10 ("ships the ring ... to every peer").
func (c *Client) PushRing(ctx context.Context, peer Peer, ring *ledger.Ring) error {
	body, err := ring.EncodeWire()
	if err != nil {
		return fmt.Errorf("p2p: encode ring: %w", err)
	}
	return c.post(ctx, peer, "/get_ring", body)
}

// PushChain posts c to peer's /get_chain, the bootstrap node's side of
// spec.md §4.10 ("ships ... the chain to every peer").
func (c *Client) PushChain(ctx context.Context, peer Peer, chn *chain.Chain) error {
	body, err := chn.EncodeWire()
	if err != nil {
		return fmt.Errorf("p2p: encode chain: %w", err)
	}
	return c.post(ctx, peer, "/get_chain", body)
}
