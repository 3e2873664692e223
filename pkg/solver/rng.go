package solver

import (
	"github.com/mitchellh/hashstructure/v2"

	"github.com/meridian-health/resicore/pkg/model"
)

// SplitMix64 is a small, deterministic PRNG satisfying model.Rng. Identical
// seeds produce identical sequences, which is what gives solver backends
// their byte-identical-output-for-identical-input guarantee.
type SplitMix64 struct {
	state uint64
}

var _ model.Rng = (*SplitMix64)(nil)

// NewSplitMix64 returns a generator seeded with seed.
func NewSplitMix64(seed uint64) *SplitMix64 {
	r := &SplitMix64{}
	r.Seed(seed)
	return r
}

func (r *SplitMix64) Seed(seed uint64) {
	r.state = seed
}

func (r *SplitMix64) NextU64() uint64 {
	r.state += 0x9E3779B97F4A7C15
	z := r.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

func (r *SplitMix64) NextF64() float64 {
	return float64(r.NextU64()>>11) / (1 << 53)
}

// DeriveSeed hashes ctx into a default RNG seed, used when the caller
// doesn't supply one, so identical contexts solve identically.
func DeriveSeed(ctx *model.SchedulingContext) uint64 {
	h, err := hashstructure.Hash(ctx, hashstructure.FormatV2, &hashstructure.HashOptions{SlicesAsSets: true})
	if err != nil {
		// ctx is a plain struct of slices/primitives; hashstructure only
		// fails on unsupported types like channels or funcs, neither of
		// which SchedulingContext contains.
		panic(err)
	}
	return h
}
