// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package simulate

import "math/rand/v2"

// A SeedSequence spawns the random streams
// of the realisations of a run.
// Each realisation gets an independent stream
// derived only from the run seed
// and the realisation number,
// so realisations can run in any order,
// or in parallel,
// and still reproduce the same output.
type SeedSequence struct {
	seed uint64
}

// NewSeedSequence returns a seed sequence
// for the given run seed.
// A zero seed draws a random one.
func NewSeedSequence(seed uint64) SeedSequence {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return SeedSequence{seed: seed}
}

// Seed returns the run seed,
// so a run with a drawn seed can be reported
// and repeated.
func (s SeedSequence) Seed() uint64 {
	return s.seed
}

// Fork returns a fresh random stream
// at the initial state of a realisation.
// Calling Fork again with the same realisation
// restarts the stream.
func (s SeedSequence) Fork(realisation int) *rand.Rand {
	return rand.New(rand.NewPCG(s.seed, uint64(realisation)))
}
