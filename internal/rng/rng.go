// Package rng derives reproducible, statistically independent random
// streams for units of parallel work (a particle, a pair, a cell).
package rng

import "math/rand/v2"

// Stream returns a generator keyed by seed and the work-unit coordinates.
// Equal inputs give bit-identical sequences regardless of scheduling.
func Stream(seed uint64, keys ...uint64) *rand.Rand {
	h := mix(seed)
	for _, k := range keys {
		h = mix(h ^ k)
	}
	return rand.New(rand.NewPCG(seed, h))
}

// splitmix64 finalizer
func mix(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
