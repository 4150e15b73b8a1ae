// Package api implements the client-facing HTTP surface of spec.md §6
// ("Client-facing HTTP endpoints"): create_transaction, get_balance,
// get_stake, view_block, get_my_transactions, get_id, get_metrics.
//
// Grounded on original_source/src/endpoints.py's /api/* Flask blueprint,
// response shapes preserved verbatim; CORS and routing follow the
// teacher's use of github.com/rs/cors and
// github.com/julienschmidt/httprouter.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"

	"github.com/tos-network/blockchat/chain"
	"github.com/tos-network/blockchat/consensus/pos"
	"github.com/tos-network/blockchat/ledger"
	"github.com/tos-network/blockchat/metrics"
	"github.com/tos-network/blockchat/wallet"
)

// NodeView is the subset of *node.Node the client-facing API reads and
// mutates. Declared as an interface, not an import of package node, the
// same dependency-inversion the p2p package uses.
type NodeView interface {
	ID() uint32
	CreateTransaction(receiver string, amount int64, message string) (*chain.Transaction, error)
	SoftBalance() uint64
	SoftStake() uint64
	Chain() *chain.Chain
	ChainLedger() *ledger.Ring
	WalletView() *wallet.Wallet
	MetricsView() *metrics.Gauges
}

// Server serves the client-facing API on behalf of one node.
type Server struct {
	node    NodeView
	handler http.Handler
}

// New builds the client API server, wrapped in CORS the way the
// original's flask_cors middleware allows any origin (a local simulation
// tool, not a public-facing service).
func New(n NodeView) *Server {
	s := &Server{node: n}
	router := httprouter.New()
	router.POST("/api/create_transaction", s.handleCreateTransaction)
	router.GET("/api/get_balance", s.handleGetBalance)
	router.GET("/api/get_stake", s.handleGetStake)
	router.GET("/api/view_block", s.handleViewBlock)
	router.GET("/api/get_my_transactions", s.handleGetMyTransactions)
	router.GET("/api/get_id", s.handleGetID)
	router.GET("/api/get_metrics", s.handleGetMetrics)
	s.handler = cors.AllowAll().Handler(router)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.handler.ServeHTTP(w, r) }

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// transactionResponse is the {message, balance, stake} shape spec.md §6
// and §7 both describe, used for both success and user-visible failure.
type transactionResponse struct {
	Message string `json:"message"`
	Balance uint64 `json:"balance"`
	Stake   uint64 `json:"stake"`
}

func (s *Server) respond(w http.ResponseWriter, message string) {
	writeJSON(w, transactionResponse{
		Message: message,
		Balance: s.node.SoftBalance(),
		Stake:   s.node.SoftStake(),
	})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	receiverID, err := strconv.ParseUint(r.Form.Get("receiver"), 10, 32)
	if err != nil {
		s.respond(w, "Wrong receiver id")
		return
	}
	amount, err := strconv.ParseInt(r.Form.Get("amount"), 10, 64)
	if err != nil {
		s.respond(w, "Invalid amount")
		return
	}
	message := r.Form.Get("message")
	isStake := r.Form.Get("stake") == "true"

	receiver := "0"
	if !isStake {
		key, ok := s.node.ChainLedger().IDToKey(uint32(receiverID))
		if !ok {
			s.respond(w, "Wrong receiver id")
			return
		}
		receiver = key
	}

	if _, err := s.node.CreateTransaction(receiver, amount, message); err != nil {
		s.respond(w, errorMessage(err))
		return
	}
	s.respond(w, "Transaction submitted")
}

// errorMessage maps a validation error onto the machine-readable strings
// spec.md §7 names ("Not enough BCCs", "Wrong receiver id"); anything not
// specifically named falls back to the error's own text, still
// machine-readable but not one of the two canonical phrases.
//
// CreateTransaction's failures bottom out in consensus/pos.ValidateTransaction,
// which wraps the pos package's own sentinels (fmt.Errorf("%w: ...", ...))
// and folds ring lookup errors in with %v, so ledger.Err* values do not
// survive its wrapping. The receiver id is resolved above with IDToKey,
// which reports a miss as ok=false rather than as a ledger error.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, pos.ErrInsufficientBalance):
		return "Not enough BCCs"
	case errors.Is(err, pos.ErrUnknownReceiver), errors.Is(err, ledger.ErrUnknownPublicKey):
		return "Wrong receiver id"
	default:
		return err.Error()
	}
}

func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, map[string]uint64{"balance": s.node.SoftBalance()})
}

func (s *Server) handleGetStake(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, map[string]uint64{"stake": s.node.SoftStake()})
}

type transactionView struct {
	SenderAddress   string `json:"sender_address"`
	ReceiverAddress string `json:"receiver_address"`
	Amount          int64  `json:"amount"`
	Message         string `json:"message"`
	Nonce           uint64 `json:"nonce"`
	TransactionID   string `json:"transaction_id"`
}

func toView(t *chain.Transaction) transactionView {
	return transactionView{
		SenderAddress:   t.SenderAddress,
		ReceiverAddress: t.ReceiverAddress,
		Amount:          t.Amount,
		Message:         t.Message,
		Nonce:           t.Nonce,
		TransactionID:   t.TransactionID,
	}
}

func (s *Server) handleViewBlock(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	tip := s.node.Chain().Tip()
	if tip == nil {
		writeJSON(w, []transactionView{})
		return
	}
	out := make([]transactionView, len(tip.Transactions))
	for i, t := range tip.Transactions {
		out[i] = toView(t)
	}
	writeJSON(w, out)
}

type historyEntryView struct {
	Transaction transactionView `json:"transaction"`
	Validator   string          `json:"validator"`
	Status      string          `json:"status"`
}

func (s *Server) handleGetMyTransactions(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	history := s.node.WalletView().History()
	out := make([]historyEntryView, len(history))
	for i, e := range history {
		out[i] = historyEntryView{
			Transaction: toView(e.Transaction),
			Validator:   e.Validator,
			Status:      string(e.Status),
		}
	}
	writeJSON(w, out)
}

func (s *Server) handleGetID(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, map[string]uint32{"id": s.node.ID()})
}

func (s *Server) handleGetMetrics(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, s.node.MetricsView().Snapshot())
}
