package coulomb

import (
	"math"
	"math/rand/v2"

	"github.com/wildstyl3r/picc/internal/constants"
	"github.com/wildstyl3r/picc/internal/species"
)

// Shuffle permutes the indices of one cell in place.
func Shuffle(idx []int, rng *rand.Rand) {
	rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
}

// SplitSameSpecies pairs a shuffled cell of one species with itself: the
// first half collides with the second. An odd particle out is handled by
// cycling the shorter half.
func SplitSameSpecies(idx []int) (first, second []int) {
	half := len(idx) / 2
	return idx[:half], idx[half:]
}

// Temperature estimates kB*T [J] of the listed particles from the spread of
// their (relativistic) velocities.
func Temperature(s *species.Species, idx []int) float64 {
	var vx, vy, vz, vs float64
	for _, i := range idx {
		u := s.Velocity(i)
		us := u.X*u.X + u.Y*u.Y + u.Z*u.Z
		gm := math.Sqrt(1. + us*constants.InvC2)
		vx += u.X / gm
		vy += u.Y / gm
		vz += u.Z / gm
		vs += us / gm / gm
	}
	n := float64(len(idx))
	vx, vy, vz, vs = vx/n, vy/n, vz/n, vs/n
	return s.Mass / 3. * (vs - (vx*vx + vy*vy + vz*vz))
}

type CellParams struct {
	Dt, DV     float64
	CoulombLog float64 // fixed when > 0
	// Temperatures [J] of the two species; estimated from the cell
	// when not positive and the Coulomb logarithm must be computed.
	T1, T2 float64
}

// CollideCell collides the particles idx1 of s1 with idx2 of s2, pairing
// them in order and cycling the shorter list. Velocities are updated in
// place; weights and positions are left untouched. Returns the number of
// pairs processed.
func CollideCell(s1, s2 *species.Species, idx1, idx2 []int, c CellParams, rng *rand.Rand) int {
	n1Count, n2Count := len(idx1), len(idx2)
	if n1Count == 0 || n2Count == 0 {
		return 0
	}
	pairs := max(n1Count, n2Count)

	var n1, n2, n12 float64
	for _, i := range idx1 {
		n1 += s1.W[i]
	}
	for _, i := range idx2 {
		n2 += s2.W[i]
	}
	for k := range pairs {
		n12 += min(s1.W[idx1[k%n1Count]], s2.W[idx2[k%n2Count]])
	}
	n1, n2, n12 = n1/c.DV, n2/c.DV, n12/c.DV

	p := PairParams{
		N1: n1, N2: n2, N12: n12,
		Q1: s1.Charge, M1: s1.Mass,
		Q2: s2.Charge, M2: s2.Mass,
		Dt:         c.Dt,
		CoulombLog: c.CoulombLog,
	}
	if p.CoulombLog <= 0 {
		p.DebyeLength = debyeLength(s1, s2, idx1, idx2, n1, n2, c)
	}

	for k := range pairs {
		i1, i2 := idx1[k%n1Count], idx2[k%n2Count]
		u1, u2 := UpdateMomentum(s1.Velocity(i1), s2.Velocity(i2), s1.W[i1], s2.W[i2], &p, rng)
		s1.SetVelocity(i1, u1)
		s2.SetVelocity(i2, u2)
	}
	return pairs
}

func debyeLength(s1, s2 *species.Species, idx1, idx2 []int, n1, n2 float64, c CellParams) float64 {
	T1, T2 := c.T1, c.T2
	if T1 <= 0 {
		T1 = Temperature(s1, idx1)
	}
	if T2 <= 0 {
		T2 = Temperature(s2, idx2)
	}
	var lmdD float64
	if T1 > 0 && T2 > 0 {
		lmdD = 1. / math.Sqrt(n1*s1.Charge*s1.Charge/(T1*constants.FreeSpacePermittivityE0)+
			n2*s2.Charge*s2.Charge/(T2*constants.FreeSpacePermittivityE0))
	}
	rmin := math.Pow(4.*math.Pi/3.*max(n1, n2), -1./3.)
	return max(lmdD, rmin)
}
