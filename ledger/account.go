// Package ledger implements the per-account derived state (the "Ring"):
// balance, stake and seen-nonce bookkeeping, and the fixed-point fee
// arithmetic every transaction/block validation step applies.
//
// Balances and stakes are kept in uint256 "milli-BCC" (amount * 1000) so
// the 3% fee and per-character message cost are exact integer arithmetic,
// never float64 — see SPEC_FULL.md §3 and DESIGN.md's "Determinism risk in
// fee arithmetic" resolution.
package ledger

import (
	mapset "github.com/deckarep/golang-set"
	"github.com/holiman/uint256"
)

// MilliPerBCC is the fixed-point scale factor: one whole BCC is 1000
// milli-BCC, giving three decimal digits of headroom for fee rounding.
const MilliPerBCC = 1000

// Account is one ring entry: a node's membership info plus its derived
// chain-ledger or soft-ledger state (spec.md §3 "Ring entry").
type Account struct {
	ID        uint32
	IP        string
	Port      string
	PublicKey string
	Balance   *uint256.Int // milli-BCC, always >= 0
	Stake     *uint256.Int // milli-BCC, always >= 0
	Nonces    mapset.Set   // set of uint64 seen nonces
}

// NewAccount returns a freshly registered ring entry: zero balance, stake
// defaulted to one BCC (the bootstrap default from spec.md §3), empty
// nonce set.
func NewAccount(id uint32, ip, port, publicKey string) *Account {
	return &Account{
		ID:        id,
		IP:        ip,
		Port:      port,
		PublicKey: publicKey,
		Balance:   uint256.NewInt(0),
		Stake:     uint256.NewInt(MilliPerBCC),
		Nonces:    mapset.NewSet(),
	}
}

// Clone returns a deep copy suitable for copy-on-write validation paths
// (spec.md's temp_ring deepcopy pattern).
func (a *Account) Clone() *Account {
	return &Account{
		ID:        a.ID,
		IP:        a.IP,
		Port:      a.Port,
		PublicKey: a.PublicKey,
		Balance:   new(uint256.Int).Set(a.Balance),
		Stake:     new(uint256.Int).Set(a.Stake),
		Nonces:    a.Nonces.Clone(),
	}
}

// HasNonce reports whether nonce has already been seen for this account.
func (a *Account) HasNonce(nonce uint64) bool { return a.Nonces.Contains(nonce) }

// AddNonce records nonce as seen.
func (a *Account) AddNonce(nonce uint64) { a.Nonces.Add(nonce) }

// BalanceMilli returns the account's balance in milli-BCC.
func (a *Account) BalanceMilli() *uint256.Int { return a.Balance }

// StakeMilli returns the account's stake in milli-BCC.
func (a *Account) StakeMilli() *uint256.Int { return a.Stake }

// BalanceBCC returns the whole-BCC balance, truncating any fractional
// milli remainder (the 3% fee can leave one, e.g. 300 milli on 10 BCC).
func (a *Account) BalanceBCC() uint64 {
	return new(uint256.Int).Div(a.Balance, uint256.NewInt(MilliPerBCC)).Uint64()
}

// StakeBCC returns the whole-BCC stake.
func (a *Account) StakeBCC() uint64 {
	return new(uint256.Int).Div(a.Stake, uint256.NewInt(MilliPerBCC)).Uint64()
}
