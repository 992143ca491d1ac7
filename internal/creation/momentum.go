package creation

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/wildstyl3r/picc/internal/constants"
	"github.com/wildstyl3r/picc/internal/scatter"
	"github.com/wildstyl3r/picc/internal/utils"
)

// EnergyCost gives a two-product reaction its kinematics: the pair's
// energy in the center of momentum frame minus Cost is shared by the two
// products, emitted back to back in an isotropic direction. Every duplicate
// pair (one copy of each product) gets its own direction. Products must
// have the same Count.
type EnergyCost struct {
	Cost float64 // [eV], negative for exothermic reactions
}

func (ec EnergyCost) InitializeMomentum(ev Event, rng *rand.Rand) {
	if len(ev.Products) != 2 {
		panic("EnergyCost needs exactly two products")
	}
	c2 := 1. / constants.InvC2
	m1, m2 := ev.S1.Mass, ev.S2.Mass
	u1, u2 := ev.S1.Velocity(ev.I1), ev.S2.Velocity(ev.I2)
	g1 := math.Sqrt(1. + r3.Norm2(u1)*constants.InvC2)
	g2 := math.Sqrt(1. + r3.Norm2(u2)*constants.InvC2)

	ptot := r3.Add(r3.Scale(m1, u1), r3.Scale(m2, u2))
	etot := (m1*g1 + m2*g2) * c2
	estar := math.Sqrt(max(0., etot*etot-r3.Norm2(ptot)*c2))

	ma, mb := ev.Products[0].Species.Mass, ev.Products[1].Species.Mass
	mac2, mbc2 := ma*c2, mb*c2
	efinal := max(estar-utils.EV2J(ec.Cost), mac2+mbc2)

	// two-body momentum in the center of momentum frame
	pstar := math.Sqrt(max(0., (efinal*efinal-(mac2+mbc2)*(mac2+mbc2))*
		(efinal*efinal-(mac2-mbc2)*(mac2-mbc2)))) / (2. * efinal) * math.Sqrt(constants.InvC2)
	ea := math.Sqrt(pstar*pstar*c2 + mac2*mac2)
	eb := math.Sqrt(pstar*pstar*c2 + mbc2*mbc2)

	vc := r3.Scale(c2/etot, ptot)
	vcms := r3.Norm2(vc)
	gc := 1. / math.Sqrt(1.-vcms*constants.InvC2)
	boost := func(p r3.Vec, e float64) r3.Vec {
		if vcms == 0 {
			return p
		}
		return r3.Add(p, r3.Scale((gc-1.)/vcms*r3.Dot(vc, p)+gc*e/c2, vc))
	}

	slotsA, slotsB := ev.Slots[0], ev.Slots[1]
	for d := range min(len(slotsA), len(slotsB)) {
		dir := scatter.RandomizeVelocity(pstar, rng)
		pa := boost(dir, ea)
		pb := boost(r3.Scale(-1., dir), eb)
		ev.Products[0].Species.SetVelocity(slotsA[d], r3.Scale(1./ma, pa))
		ev.Products[1].Species.SetVelocity(slotsB[d], r3.Scale(1./mb, pb))
	}
}
