package p2p

import (
	"io"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/tos-network/blockchat/chain"
	"github.com/tos-network/blockchat/ledger"
	"github.com/tos-network/blockchat/log"
)

// NodeHandler is the subset of *node.Node the peer-facing server calls
// into. Declared here (rather than imported from package node) so p2p
// depends only on this interface, keeping node -> p2p free of a cycle in
// the other direction.
type NodeHandler interface {
	HandleIncomingTransaction(t *chain.Transaction) error
	HandleIncomingBlock(b *chain.Block) error
	Chain() *chain.Chain
	ChainLedger() *ledger.Ring
	LearnRing(ring *ledger.Ring) error
	InstallChainFromPeer(c *chain.Chain) error
}

// Registrar is implemented by the bootstrap node only; non-bootstrap
// nodes pass a nil Registrar and /register_node answers 404, matching
// spec.md §4.10 ("Bootstrap-only").
type Registrar interface {
	Register(reg *Registration) (id uint32, err error)
}

// Server serves the six peer-to-peer endpoints of spec.md §6.
type Server struct {
	node      NodeHandler
	registrar Registrar
	router    *httprouter.Router
}

// NewServer builds the peer HTTP server. registrar may be nil on every
// node except the bootstrap node.
func NewServer(n NodeHandler, registrar Registrar) *Server {
	s := &Server{node: n, registrar: registrar, router: httprouter.New()}
	s.router.POST("/validate_transaction", s.handleTransaction)
	s.router.POST("/get_block", s.handleBlock)
	s.router.POST("/register_node", s.handleRegister)
	s.router.POST("/get_ring", s.handleReceiveRing)
	s.router.POST("/get_chain", s.handleReceiveChain)
	s.router.GET("/send_chain", s.handleSendChain)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.router.ServeHTTP(w, r) }

func readBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}

func (s *Server) handleTransaction(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	body, err := readBody(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	t, err := chain.DecodeTransaction(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.node.HandleIncomingTransaction(t); err != nil {
		log.Debug("p2p: reject transaction", "id", t.TransactionID, "err", err)
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleBlock(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	body, err := readBody(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	b, err := chain.DecodeBlock(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.node.HandleIncomingBlock(b); err != nil {
		log.Debug("p2p: reject block", "index", b.Index, "err", err)
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if s.registrar == nil {
		http.Error(w, "not the bootstrap node", http.StatusNotFound)
		return
	}
	body, err := readBody(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	reg, err := DecodeRegistration(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	id, err := s.registrar.Register(reg)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	assignment := &Assignment{ID: id}
	out, err := assignment.EncodeWire()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Write(out)
}

// handleReceiveRing is the joining-node side of spec.md §6's
// POST /get_ring ("Overwrite ring, learn own id"): the bootstrap node
// pushes the finalized ring once all N registrations are in.
func (s *Server) handleReceiveRing(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	body, err := readBody(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ring, err := ledger.DecodeRing(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.node.LearnRing(ring); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleSendChain(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	c := s.node.Chain()
	out, err := c.EncodeWire()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Write(out)
}

// handleReceiveChain implements the joining-node side of spec.md §4.9: the
// bootstrap node pushes its chain after the ring, and this node replays it
// from empty state against the membership learned from the preceding
// POST /get_ring.
func (s *Server) handleReceiveChain(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	body, err := readBody(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	c, err := chain.DecodeChain(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.node.InstallChainFromPeer(c); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	w.WriteHeader(http.StatusOK)
}
