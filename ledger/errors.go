package ledger

import "errors"

// Sentinel errors returned by Ring mutation/lookup methods, matching the
// error kinds enumerated in spec.md §7. Balance/stake-sufficiency errors
// are consensus/pos's own sentinels (see that package's errors.go); the
// ring itself only ever rejects lookups and duplicate registrations.
var (
	ErrUnknownAccount       = errors.New("ledger: unknown account id")
	ErrUnknownPublicKey     = errors.New("ledger: public key not registered in ring")
	ErrDuplicateID          = errors.New("ledger: id already registered")
	ErrDuplicatePublicKey   = errors.New("ledger: public key already registered")
	ErrDuplicateAddress     = errors.New("ledger: ip:port already registered")
	ErrCoinbaseNotAnAccount = errors.New("ledger: coinbase sentinel is not a ring account")
)
