package mcc

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/wildstyl3r/picc/internal/constants"
	"github.com/wildstyl3r/picc/internal/creation"
	"github.com/wildstyl3r/picc/internal/scatter"
	"github.com/wildstyl3r/picc/internal/species"
)

// Ionizer sets the kinematics of impact ionization: the projectile pays the
// energy cost, the remainder is split evenly between it and the ejected
// electron, both leaving isotropically; the ion is drawn from the local
// background Maxwellian.
type Ionizer struct {
	Collider *Collider
	T        float64 // time of the step [s]
}

// Creator wires the ionization products: one ejected electron and one ion
// per event, each carrying the projectile weight.
func (c *Collider) Creator(electrons, ions *species.Species, t float64) *creation.Creator {
	return &creation.Creator{
		Products: []creation.Product{
			{Species: electrons, Count: 1},
			{Species: ions, Count: 1},
		},
		Momentum: Ionizer{Collider: c, T: t},
	}
}

func (ion Ionizer) InitializeMomentum(ev creation.Event, rng *rand.Rand) {
	c := ion.Collider
	src, i := ev.S1, ev.I1
	E := collisionEnergy(r3.Norm2(src.Velocity(i)), c.Mass)
	remaining := max(0., E-c.Ionization.EnergyPenalty())
	vp := math.Sqrt(2. / c.Mass * constants.ElectronCharge * remaining / 2.)

	src.SetVelocity(i, scatter.RandomizeVelocity(vp, rng))
	electrons, ions := ev.Products[0].Species, ev.Products[1].Species
	for _, j := range ev.Slots[0] {
		electrons.SetVelocity(j, scatter.RandomizeVelocity(vp, rng))
	}
	x, y, z := src.X[i], src.Y[i], src.Z[i]
	std := scatter.ThermalSpeed(c.Background.Temperature(x, y, z, ion.T), c.Background.Mass)
	for _, j := range ev.Slots[1] {
		ions.SetVelocity(j, scatter.Maxwellian(std, rng))
	}
}
