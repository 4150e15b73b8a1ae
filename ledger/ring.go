package ledger

import (
	"fmt"
	"sort"

	"github.com/holiman/uint256"
	"github.com/tos-network/blockchat/crypto"
	"github.com/tos-network/blockchat/wire"
)

// Ring is the per-node replica of ring membership plus derived account
// state. Accounts are stored by id; ids are assigned contiguously
// 0..N-1 during bootstrap, which doubles as the deterministic iteration
// order validator selection's cumulative distribution requires
// (spec.md §4.4 step 2: "in the ring's id order").
//
// Re-modeled from the original's list-of-dicts (Design Note): a Ring is an
// explicit type with methods, and validation paths take an explicit
// Snapshot rather than relying on ad hoc deepcopy.
type Ring struct {
	byID  map[uint32]*Account
	byKey map[string]uint32
	byAddr map[string]uint32
}

// NewRing returns an empty ring.
func NewRing() *Ring {
	return &Ring{
		byID:   make(map[uint32]*Account),
		byKey:  make(map[string]uint32),
		byAddr: make(map[string]uint32),
	}
}

// Len reports the number of registered accounts.
func (r *Ring) Len() int { return len(r.byID) }

// Register adds a new account to the ring. id must not already be taken,
// and public key / (ip,port) must each be unique across the ring
// (spec.md §3 "Ring entry" uniqueness invariant).
func (r *Ring) Register(id uint32, ip, port, publicKey string) (*Account, error) {
	if _, ok := r.byID[id]; ok {
		return nil, fmt.Errorf("%w: %d", ErrDuplicateID, id)
	}
	if _, ok := r.byKey[publicKey]; ok {
		return nil, ErrDuplicatePublicKey
	}
	addr := ip + ":" + port
	if _, ok := r.byAddr[addr]; ok {
		return nil, ErrDuplicateAddress
	}
	a := NewAccount(id, ip, port, publicKey)
	r.byID[id] = a
	r.byKey[publicKey] = id
	r.byAddr[addr] = id
	return a, nil
}

// Lookup returns the account for id.
func (r *Ring) Lookup(id uint32) (*Account, error) {
	a, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAccount, id)
	}
	return a, nil
}

// LookupKey resolves a public-key address to its account, rejecting the
// coinbase sentinel explicitly (Design Note: "ensure the validation path
// treats '0' as a reserved non-account that is never looked up in the
// ring").
func (r *Ring) LookupKey(publicKey string) (*Account, error) {
	if publicKey == crypto.CoinbaseAddress {
		return nil, ErrCoinbaseNotAnAccount
	}
	id, ok := r.byKey[publicKey]
	if !ok {
		return nil, ErrUnknownPublicKey
	}
	return r.byID[id], nil
}

// KeyToID resolves a public key to an id, returning ok=false (not an
// error) for the coinbase sentinel or an unknown key — mirroring
// node.py's key_to_ID, which defaults to 0 on a miss. Callers that must
// distinguish "address 0" from "unknown" should use LookupKey instead.
func (r *Ring) KeyToID(publicKey string) (uint32, bool) {
	id, ok := r.byKey[publicKey]
	return id, ok
}

// IDToKey returns the public key registered for id.
func (r *Ring) IDToKey(id uint32) (string, bool) {
	a, ok := r.byID[id]
	if !ok {
		return "", false
	}
	return a.PublicKey, true
}

// TotalStake sums Stake across every account, in milli-BCC.
func (r *Ring) TotalStake() *uint256.Int {
	total := uint256.NewInt(0)
	for _, a := range r.byID {
		total.Add(total, a.Stake)
	}
	return total
}

// Each calls fn for every account in ascending id order (0..N-1), the
// order spec.md §4.4 step 2 requires for the cumulative stake
// distribution. Ids are assumed contiguous from bootstrap; any gap (which
// bootstrap never produces) is simply skipped.
func (r *Ring) Each(fn func(a *Account)) {
	ids := make([]uint32, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		fn(r.byID[id])
	}
}

// Snapshot returns a deep, independent copy of the ring, the persistent-
// map style copy-on-write validation paths operate against instead of the
// original's ad hoc deepcopy(ring) (Design Note).
func (r *Ring) Snapshot() *Ring {
	out := NewRing()
	r.Each(func(a *Account) {
		clone := a.Clone()
		out.byID[clone.ID] = clone
		out.byKey[clone.PublicKey] = clone.ID
		out.byAddr[clone.IP+":"+clone.Port] = clone.ID
	})
	return out
}

// MarshalWire encodes the ring as a length-prefixed sequence of accounts
// in ascending id order.
func (r *Ring) MarshalWire(w *wire.Writer) error {
	w.WriteUint64(uint64(len(r.byID)))
	var encErr error
	r.Each(func(a *Account) {
		if encErr != nil {
			return
		}
		w.WriteUint64(uint64(a.ID))
		w.WriteString(a.IP)
		w.WriteString(a.Port)
		w.WriteString(a.PublicKey)
		balBytes := a.Balance.Bytes32()
		w.WriteBytes(balBytes[:])
		stakeBytes := a.Stake.Bytes32()
		w.WriteBytes(stakeBytes[:])
		nonces := a.Nonces.ToSlice()
		w.WriteUint64(uint64(len(nonces)))
		for _, n := range nonces {
			w.WriteUint64(n.(uint64))
		}
	})
	return encErr
}

// UnmarshalWire decodes a ring previously written by MarshalWire.
func (r *Ring) UnmarshalWire(rd *wire.Reader) error {
	n, err := rd.ReadUint64()
	if err != nil {
		return err
	}
	const maxRingSize = 1 << 16
	if n > maxRingSize {
		return fmt.Errorf("ledger: ring size %d exceeds maximum %d", n, maxRingSize)
	}
	*r = *NewRing()
	for i := uint64(0); i < n; i++ {
		id, err := rd.ReadUint64()
		if err != nil {
			return err
		}
		ip, err := rd.ReadString()
		if err != nil {
			return err
		}
		port, err := rd.ReadString()
		if err != nil {
			return err
		}
		pub, err := rd.ReadString()
		if err != nil {
			return err
		}
		a, err := r.Register(uint32(id), ip, port, pub)
		if err != nil {
			return err
		}
		balBytes, err := rd.ReadBytes()
		if err != nil {
			return err
		}
		a.Balance = new(uint256.Int).SetBytes(balBytes)
		stakeBytes, err := rd.ReadBytes()
		if err != nil {
			return err
		}
		a.Stake = new(uint256.Int).SetBytes(stakeBytes)
		nonceCount, err := rd.ReadUint64()
		if err != nil {
			return err
		}
		const maxNonces = 1 << 20
		if nonceCount > maxNonces {
			return fmt.Errorf("ledger: nonce count %d exceeds maximum %d", nonceCount, maxNonces)
		}
		for j := uint64(0); j < nonceCount; j++ {
			nonce, err := rd.ReadUint64()
			if err != nil {
				return err
			}
			a.AddNonce(nonce)
		}
	}
	return nil
}

// EncodeWire wraps MarshalWire in a versioned envelope for HTTP transport.
func (r *Ring) EncodeWire() ([]byte, error) { return wire.Encode(wire.KindRing, r) }

// DecodeRing decodes a ring envelope produced by EncodeWire.
func DecodeRing(data []byte) (*Ring, error) {
	r := NewRing()
	if err := wire.Decode(data, wire.KindRing, r); err != nil {
		return nil, err
	}
	return r, nil
}
