// Package pos implements BlockChat's proof-of-stake consensus engine:
// deterministic stake-weighted validator selection and the transaction /
// block / chain validators that produce the next ledger.
//
// It lives alongside the teacher's consensus/dpos and consensus/bft
// engines as a third sibling algorithm under the shared consensus
// package — same role (turn a header/seed plus ledger state into "who may
// produce the next block, and is this block/transaction acceptable"), a
// different draw (stake-weighted PCG lottery instead of round-robin
// signer rotation or BFT voting).
package pos

import "errors"

// Sentinel error kinds, one per spec.md §7 entry this engine can produce.
// Wrapped with fmt.Errorf("%w: ...", ...) at call sites that have more
// context to add, following staking/handler.go's wrapping idiom.
var (
	ErrInvalidSignature     = errors.New("pos: invalid signature")
	ErrInsufficientBalance  = errors.New("pos: insufficient balance")
	ErrNonceReused          = errors.New("pos: nonce already seen")
	ErrStaleTTL             = errors.New("pos: transaction ttl expired")
	ErrNegativeNonStake     = errors.New("pos: negative amount on a non-stake transaction")
	ErrStakeRefundOverflow  = errors.New("pos: stake refund exceeds current stake")
	ErrHashMismatch         = errors.New("pos: block current_hash does not match recomputed hash")
	ErrPrevHashMismatch     = errors.New("pos: block previous_hash does not match chain tip")
	ErrWrongValidator       = errors.New("pos: block validator does not match the deterministic selection")
	ErrGenesisInvalid       = errors.New("pos: genesis block is malformed")
	ErrUndefinedSelection   = errors.New("pos: validator selection undefined, total stake is zero")
	ErrUnknownSender        = errors.New("pos: sender is not a registered ring account")
	ErrUnknownReceiver      = errors.New("pos: receiver is not a registered ring account")
	ErrWrongTransactionCount = errors.New("pos: block does not carry the expected transaction count")
)
