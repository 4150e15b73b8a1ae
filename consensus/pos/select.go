package pos

import (
	"math/big"

	"github.com/tos-network/blockchat/ledger"
	"github.com/zeebo/pcg"
)

// SelectValidator deterministically draws the id of the next block's
// validator from seedHash (a hex-encoded block hash) and ring, per
// spec.md §4.4: build the cumulative stake distribution in ascending id
// order, seed a PRNG with the integer value of seedHash, draw one uniform
// value in [0,1), and return the smallest id whose cumulative share is
// >= the draw.
//
// The PRNG is github.com/zeebo/pcg's PCG64 (the Permuted Congruential
// Generator family spec.md names as the compatibility contract): the
// 256-bit seed hash is reduced to two 64-bit words via math/big and fed
// to PCG64.Seed(seedHi, seedLo, 1, 1) — the fixed sequence-selector words
// (1, 1) are part of the frozen contract, not a tunable, so every node
// derives the identical stream from the identical hash (DESIGN.md "Open
// Questions").
func SelectValidator(seedHash string, ring *ledger.Ring) (uint32, error) {
	total := ring.TotalStake()
	if total.IsZero() {
		return 0, ErrUndefinedSelection
	}

	draw := seededUniform(seedHash)

	totalF := new(big.Float).SetInt(total.ToBig())
	cumulative := new(big.Float)
	var lastID uint32
	var found bool
	ring.Each(func(a *ledger.Account) {
		if found {
			return
		}
		lastID = a.ID
		stakeF := new(big.Float).SetInt(a.Stake.ToBig())
		share := new(big.Float).Quo(stakeF, totalF)
		cumulative.Add(cumulative, share)
		if draw <= cumulativeAsFloat64(cumulative) {
			found = true
		}
	})
	if !found {
		// Floating point accumulation can fall a hair short of 1.0; the
		// last id in ring order is the correct fallback, matching the
		// mathematical guarantee that cumulative reaches 1.0 exactly.
		return lastID, nil
	}
	return lastID, nil
}

func cumulativeAsFloat64(f *big.Float) float64 {
	v, _ := f.Float64()
	return v
}

// seededUniform seeds a PCG64 generator with seedHash and draws one
// uniform float64 in [0,1), scaling a 64-bit draw by 2^-64.
func seededUniform(seedHash string) float64 {
	seed := new(big.Int)
	if _, ok := seed.SetString(seedHash, 16); !ok {
		// Every decimal string is also valid hex, so this fallback
		// never succeeds where the hex parse failed; block hashes and
		// the genesis sentinel ("1", read as 0x1) take the hex path.
		seed.SetString(seedHash, 10)
	}

	mask64 := new(big.Int).Lsh(big.NewInt(1), 64)
	mask64.Sub(mask64, big.NewInt(1))

	hi := new(big.Int).Rsh(seed, 64)
	hi.And(hi, mask64)
	lo := new(big.Int).And(seed, mask64)

	gen := pcg.NewPCG64()
	gen.Seed(hi.Uint64(), lo.Uint64(), 1, 1)
	draw := gen.Random()

	return float64(draw) / (1 << 64)
}
