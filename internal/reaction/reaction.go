// Package reaction decides which pairs of macroparticles undergo a binary
// reaction (fusion-like events, recombination) and hands the firing pairs
// to particle creation.
package reaction

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/wildstyl3r/picc/internal/constants"
	"github.com/wildstyl3r/picc/internal/creation"
	"github.com/wildstyl3r/picc/internal/process"
	"github.com/wildstyl3r/picc/internal/species"
	"github.com/wildstyl3r/picc/internal/utils"
)

var ErrSetup = errors.New("reaction: invalid setup")

// Reaction fires a pair with probability
// 1 - exp(-m sigma(E*) v_rel dt w_max / dV) and then consumes
// min(w1, w2) / m of both parents. The multiplier m > 1 makes more, lighter
// events, which lowers the noise of rare reactions.
type Reaction struct {
	Process    *process.Process // sigma of the COM kinetic energy [eV]
	Multiplier float64
	Creator    *creation.Creator
}

func New(p *process.Process, multiplier float64, creator *creation.Creator) (*Reaction, error) {
	if p == nil || creator == nil {
		return nil, fmt.Errorf("%w: process and products are required", ErrSetup)
	}
	if multiplier < 1 {
		return nil, fmt.Errorf("%w: multiplier %v < 1", ErrSetup, multiplier)
	}
	return &Reaction{Process: p, Multiplier: multiplier, Creator: creator}, nil
}

// Kinematics returns the kinetic energy [J] of the pair in its center of
// momentum frame and the relative speed of the two particles [m/s]. Both
// come from the invariant gamma_rel = gamma1 gamma2 - u1.u2/c^2, written to
// avoid cancellation at low energies.
func Kinematics(m1, m2 float64, u1, u2 r3.Vec) (ekin, vrel float64) {
	invC2 := constants.InvC2
	gm1 := gammaMinusOne(u1)
	gm2 := gammaMinusOne(u2)
	// gamma_rel - 1
	x := gm1*gm2 + gm1 + gm2 - r3.Dot(u1, u2)*invC2
	x = max(x, 0.)

	c2 := 1. / invC2
	mc2 := (m1 + m2) * c2
	twoA := 2. * m1 * m2 * c2 * c2 * x
	ekin = twoA / (math.Sqrt(mc2*mc2+twoA) + mc2)
	vrel = math.Sqrt(c2*x*(2.+x)) / (1. + x)
	return
}

func gammaMinusOne(u r3.Vec) float64 {
	u2 := r3.Norm2(u) * constants.InvC2
	return u2 / (math.Sqrt(1.+u2) + 1.)
}

// Probability of the pair (i1 of s1, i2 of s2) reacting within dt in a cell
// of volume dV.
func (r *Reaction) Probability(s1 *species.Species, i1 int, s2 *species.Species, i2 int, dt, dV float64) float64 {
	ekin, vrel := Kinematics(s1.Mass, s2.Mass, s1.Velocity(i1), s2.Velocity(i2))
	sigma := r.Process.CrossSection(utils.J2eV(ekin))
	wmax := max(s1.W[i1], s2.W[i2])
	return 1. - math.Exp(-r.Multiplier*sigma*vrel*dt*wmax/dV)
}

// Events pairs idx1 with idx2 (the shorter list cycled) and draws which
// pairs react. Reaction weights are fixed here and clipped again to the
// parents' remaining weight when consumed.
func (r *Reaction) Events(s1, s2 *species.Species, idx1, idx2 []int, dt, dV float64, rng *rand.Rand) *creation.Events {
	ev := &creation.Events{S1: s1, S2: s2}
	n1, n2 := len(idx1), len(idx2)
	if n1 == 0 || n2 == 0 {
		return ev
	}
	pairs := max(n1, n2)
	ev.I1 = make([]int, pairs)
	ev.I2 = make([]int, pairs)
	ev.Mask = make([]int, pairs)
	ev.Weight = make([]float64, pairs)
	for k := range pairs {
		i1, i2 := idx1[k%n1], idx2[k%n2]
		ev.I1[k], ev.I2[k] = i1, i2
		if rng.Float64() < r.Probability(s1, i1, s2, i2, dt, dV) {
			ev.Mask[k] = 1
			ev.Weight[k] = min(s1.W[i1], s2.W[i2]) / r.Multiplier
		}
	}
	return ev
}
