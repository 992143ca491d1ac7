package scatter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/wildstyl3r/picc/internal/constants"
	"github.com/wildstyl3r/picc/internal/rng"
)

func TestElasticPreservesCOMSpeed(t *testing.T) {
	r := rng.Stream(7)
	uCOM := r3.Vec{X: 1e4, Y: -3e3, Z: 250}
	for range 1000 {
		u := r3.Vec{X: r.NormFloat64() * 1e5, Y: r.NormFloat64() * 1e5, Z: r.NormFloat64() * 1e5}
		before := r3.Norm(r3.Sub(u, uCOM))
		after := r3.Norm(r3.Sub(Elastic(u, uCOM, r), uCOM))
		assert.InEpsilon(t, before, after, 1e-12)
	}
}

func TestElasticIsIsotropic(t *testing.T) {
	r := rng.Stream(11)
	var mean r3.Vec
	const n = 20000
	for range n {
		mean = r3.Add(mean, Elastic(r3.Vec{X: 1}, r3.Vec{}, r))
	}
	mean = r3.Scale(1./n, mean)
	assert.InDelta(t, 0., r3.Norm(mean), 0.03, "no preferred direction")
}

func TestBackScatterInvolution(t *testing.T) {
	r := rng.Stream(3)
	for range 100 {
		u := r3.Vec{X: r.NormFloat64(), Y: r.NormFloat64(), Z: r.NormFloat64()}
		uCOM := r3.Vec{X: r.NormFloat64(), Y: r.NormFloat64(), Z: r.NormFloat64()}
		twice := BackScatter(BackScatter(u, uCOM), uCOM)
		assert.InDelta(t, u.X, twice.X, 1e-12)
		assert.InDelta(t, u.Y, twice.Y, 1e-12)
		assert.InDelta(t, u.Z, twice.Z, 1e-12)
	}
}

func TestBackScatterReversesInCOMFrame(t *testing.T) {
	u := r3.Vec{X: 3, Y: 1}
	uCOM := r3.Vec{X: 1}
	assert.Equal(t, r3.Vec{X: -1, Y: -1}, BackScatter(u, uCOM))
}

func TestChargeExchange(t *testing.T) {
	ua := r3.Vec{X: 1, Y: 2, Z: 3}
	assert.Equal(t, ua, ChargeExchange(r3.Vec{X: 9}, ua))
}

func TestDeterministicDraws(t *testing.T) {
	a := Elastic(r3.Vec{X: 5}, r3.Vec{Y: 1}, rng.Stream(99, 1))
	b := Elastic(r3.Vec{X: 5}, r3.Vec{Y: 1}, rng.Stream(99, 1))
	assert.Equal(t, a, b)
}

func TestEnergyNonRelativisticLimit(t *testing.T) {
	v := 1e5
	want := 0.5 * constants.ElectornMass * v * v / constants.ElectronCharge
	assert.InEpsilon(t, want, Energy(v*v, constants.ElectornMass), 1e-6)
}

func TestApplyEnergyPenalty(t *testing.T) {
	m := constants.ElectornMass
	u := r3.Vec{X: 3e6, Y: 4e6}
	e := Energy(r3.Norm2(u), m)
	after := ApplyEnergyPenalty(u, m, 10)
	assert.InEpsilon(t, e-10, Energy(r3.Norm2(after), m), 1e-9)
	assert.InDelta(t, 0., r3.Norm(r3.Cross(u, after)), 1e-3*r3.Norm(u), "direction kept")

	assert.Equal(t, r3.Vec{}, ApplyEnergyPenalty(u, m, 2*e), "not enough energy")
	assert.Equal(t, u, ApplyEnergyPenalty(u, m, 0))
}

func TestThermalSpeed(t *testing.T) {
	assert.InEpsilon(t, math.Sqrt(constants.KBolzmann*300/constants.AtomicMassUnit), ThermalSpeed(300, constants.AtomicMassUnit), 1e-15)
}
