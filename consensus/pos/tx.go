package pos

import (
	"fmt"

	"github.com/tos-network/blockchat/chain"
	"github.com/tos-network/blockchat/ledger"
)

// TxContext carries the inputs to ValidateTransaction that aren't the
// ring itself: the block index freshness is measured against, and the
// validator id fees are credited to. Both default to the chain tip /
// eagerly-computed prospective validator when validating against live
// soft state (spec.md §4.2: "When validating against the live soft state,
// b defaults to the chain tip"); block validation supplies the actual
// block under consideration instead.
type TxContext struct {
	BlockIndex  uint64
	ValidatorID uint32
}

// TTLLimit bounds how many blocks a transaction may remain unconfirmed
// (spec.md §3, §8 boundary: "accepted at exactly TTL_LIMIT blocks behind
// tip, rejected one older").
//
// Kept as a package variable rather than a compile-time constant so a
// single process can run scenario tests at the spec's example TTL_LIMIT
// (10) without a build-time flag; production wiring sets it once from
// config at startup and never mutates it afterwards.
var TTLLimit uint64 = 10

// ValidateTransaction applies the five checks of spec.md §4.2, in order,
// against ring, and returns the ring with t applied. ring is never
// mutated in place; the returned ring is an independent snapshot copy.
func ValidateTransaction(t *chain.Transaction, ring *ledger.Ring, ctx TxContext) (*ledger.Ring, error) {
	if !t.VerifySignature() {
		return nil, fmt.Errorf("%w: transaction %s", ErrInvalidSignature, t.TransactionID)
	}

	if ctx.BlockIndex < t.TTL || ctx.BlockIndex-t.TTL > TTLLimit {
		return nil, fmt.Errorf("%w: transaction %s ttl %d, block index %d, limit %d",
			ErrStaleTTL, t.TransactionID, t.TTL, ctx.BlockIndex, TTLLimit)
	}

	sender, err := ring.LookupKey(t.SenderAddress)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownSender, err)
	}

	isStake := t.IsStakeUpdate()

	if t.Amount < 0 {
		if !isStake {
			return nil, fmt.Errorf("%w: transaction %s", ErrNegativeNonStake, t.TransactionID)
		}
		refund := ledger.ToMilli(t.Amount)
		if refund.Cmp(sender.Stake) > 0 {
			return nil, fmt.Errorf("%w: transaction %s", ErrStakeRefundOverflow, t.TransactionID)
		}
	}

	amountMilli := ledger.ToMilli(t.Amount)
	totalCharge, fee := ledger.TotalCharge(amountMilli, len(t.Message), isStake)
	if t.Amount >= 0 {
		if totalCharge.Cmp(sender.Balance) > 0 {
			return nil, fmt.Errorf("%w: transaction %s", ErrInsufficientBalance, t.TransactionID)
		}
	}

	if sender.HasNonce(t.Nonce) {
		return nil, fmt.Errorf("%w: sender %s nonce %d", ErrNonceReused, t.SenderAddress, t.Nonce)
	}

	next := ring.Snapshot()
	nextSender, _ := next.LookupKey(t.SenderAddress)
	nextSender.AddNonce(t.Nonce)

	if isStake {
		if t.Amount >= 0 {
			nextSender.Balance.Sub(nextSender.Balance, amountMilli)
			nextSender.Stake.Add(nextSender.Stake, amountMilli)
		} else {
			nextSender.Stake.Sub(nextSender.Stake, amountMilli)
			nextSender.Balance.Add(nextSender.Balance, amountMilli)
		}
		return next, nil
	}

	nextSender.Balance.Sub(nextSender.Balance, totalCharge)

	receiver, err := next.LookupKey(t.ReceiverAddress)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownReceiver, err)
	}
	receiver.Balance.Add(receiver.Balance, amountMilli)

	validator, err := next.Lookup(ctx.ValidatorID)
	if err != nil {
		return nil, fmt.Errorf("pos: validator lookup: %w", err)
	}
	validator.Balance.Add(validator.Balance, fee)

	return next, nil
}
