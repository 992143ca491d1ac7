package creation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/wildstyl3r/picc/internal/constants"
	"github.com/wildstyl3r/picc/internal/rng"
	"github.com/wildstyl3r/picc/internal/species"
)

func TestCreateSplitsReactionWeight(t *testing.T) {
	a := species.New("a", 1, 1)
	b := species.New("b", -1, 1)
	prod := species.New("c", 0, 2)
	a.Add(r3.Vec{X: 1}, r3.Vec{X: 10}, 1)
	b.Add(r3.Vec{X: 2}, r3.Vec{Y: 20}, 1)

	c := Creator{Products: []Product{{Species: prod, Count: 1}}}
	counts := c.Create(&Events{
		S1: a, S2: b,
		I1: []int{0}, I2: []int{0},
		Mask:   []int{1},
		Weight: []float64{1},
	}, rng.Stream(1))

	assert.Equal(t, []int{2}, counts)
	require.Equal(t, 2, prod.Len())
	assert.Equal(t, []float64{0.5, 0.5}, prod.W)
	assert.Equal(t, r3.Vec{X: 10}, prod.Velocity(0), "even slot copies parent 1")
	assert.Equal(t, r3.Vec{Y: 20}, prod.Velocity(1), "odd slot copies parent 2")
	assert.Equal(t, 2., prod.X[1])
	assert.True(t, prod.Valid(0))
	assert.True(t, prod.Valid(1))

	assert.Equal(t, 0., a.W[0])
	assert.Equal(t, 0., b.W[0])
	assert.False(t, a.Valid(0))
	assert.False(t, b.Valid(0))
}

func TestCreateWithoutEventsIsNoop(t *testing.T) {
	a := species.New("a", 1, 1)
	a.Add(r3.Vec{}, r3.Vec{}, 1)
	a.Add(r3.Vec{}, r3.Vec{}, 1)
	c := Creator{Products: []Product{{Species: a, Count: 2}}}

	counts := c.Create(&Events{S1: a, S2: a, I1: []int{0}, I2: []int{1}, Mask: []int{0}, Weight: []float64{1}}, rng.Stream(1))
	assert.Equal(t, []int{0}, counts)
	assert.Equal(t, 2, a.Len())
	assert.Equal(t, []float64{1, 1}, a.W)

	counts = c.Create(&Events{S1: a, S2: a}, rng.Stream(1))
	assert.Equal(t, []int{0}, counts)
	assert.Equal(t, 2, a.Len())
}

func TestCreateSlotLayout(t *testing.T) {
	a := species.New("a", 1, 1)
	b := species.New("b", 1, 1)
	for k := range 3 {
		a.Add(r3.Vec{X: float64(k)}, r3.Vec{}, 4)
		b.Add(r3.Vec{X: float64(10 + k)}, r3.Vec{}, 4)
	}
	out := species.New("out", 0, 1)
	out.Add(r3.Vec{X: -1}, r3.Vec{}, 1)

	c := Creator{Products: []Product{{Species: out, Count: 2}}}
	counts := c.Create(&Events{
		S1: a, S2: b,
		I1: []int{0, 1, 2}, I2: []int{0, 1, 2},
		Mask:   []int{1, 0, 1},
		Weight: []float64{1, 1, 3},
	}, rng.Stream(2))

	assert.Equal(t, []int{8}, counts)
	require.Equal(t, 9, out.Len())
	assert.Equal(t, []float64{-1, 0, 10, 0, 10, 2, 12, 2, 12}, out.X)
	assert.Equal(t, []float64{1, .5, .5, .5, .5, 1.5, 1.5, 1.5, 1.5}, out.W)
	assert.Equal(t, []float64{3, 4, 1}, a.W)

	seen := map[int64]bool{}
	for _, id := range out.ID {
		assert.NotEqual(t, species.InvalidID, id)
		assert.False(t, seen[id], "ids are unique")
		seen[id] = true
	}
}

func TestCreateClipsToRemainingWeight(t *testing.T) {
	a := species.New("a", 1, 1)
	b := species.New("b", 1, 1)
	a.Add(r3.Vec{}, r3.Vec{}, 1)
	b.Add(r3.Vec{}, r3.Vec{}, 3)
	b.Add(r3.Vec{}, r3.Vec{}, 3)
	out := species.New("out", 0, 1)

	c := Creator{Products: []Product{{Species: out, Count: 1}}}
	counts := c.Create(&Events{
		S1: a, S2: b,
		I1: []int{0, 0}, I2: []int{0, 1},
		Mask:   []int{1, 1},
		Weight: []float64{1, 1},
	}, rng.Stream(3))

	assert.Equal(t, []int{2}, counts, "the drained parent creates nothing the second time")
	assert.Equal(t, 4, out.Len())
	assert.False(t, out.Valid(2))
	assert.False(t, out.Valid(3))
	assert.Equal(t, []float64{2, 3}, b.W)
	assert.False(t, a.Valid(0))
}

func TestCreateSingleParent(t *testing.T) {
	e := species.New("e", -1, 1)
	ions := species.New("ions", 1, 100)
	e.Add(r3.Vec{Z: 3}, r3.Vec{X: 5}, 7)
	e.Add(r3.Vec{Z: 4}, r3.Vec{X: 6}, 8)

	c := Creator{Products: []Product{{Species: e, Count: 1}, {Species: ions, Count: 1}}}
	counts := c.Create(&Events{S1: e, I1: []int{0, 1}, Mask: []int{0, 1}}, rng.Stream(4))

	assert.Equal(t, []int{1, 1}, counts)
	require.Equal(t, 3, e.Len())
	require.Equal(t, 1, ions.Len())
	assert.Equal(t, []float64{7, 8, 8}, e.W, "parent keeps its weight")
	assert.Equal(t, 8., ions.W[0])
	assert.Equal(t, 4., ions.Z[0])
	assert.True(t, e.Valid(1))
}

func weightedMomentum(ss ...*species.Species) r3.Vec {
	var p r3.Vec
	for _, s := range ss {
		p = r3.Add(p, s.Momentum())
	}
	return p
}

func TestEnergyCostConservesMomentum(t *testing.T) {
	r := rng.Stream(5)
	d := species.New("d", constants.ElectronCharge, 2*constants.ProtonMass)
	tr := species.New("t", constants.ElectronCharge, 3*constants.ProtonMass)
	n := species.New("n", 0, 2*constants.ProtonMass)
	he := species.New("he", 2*constants.ElectronCharge, 3*constants.ProtonMass)
	d.Add(r3.Vec{}, r3.Vec{X: 1e6, Y: -3e5}, 1)
	tr.Add(r3.Vec{}, r3.Vec{X: -2e5, Z: 4e5}, 1)

	before := weightedMomentum(d, tr, n, he)
	c := Creator{
		Products: []Product{{Species: n, Count: 1}, {Species: he, Count: 1}},
		Momentum: EnergyCost{},
	}
	counts := c.Create(&Events{S1: d, S2: tr, I1: []int{0}, I2: []int{0}, Mask: []int{1}, Weight: []float64{0.5}}, r)
	require.Equal(t, []int{2, 2}, counts)

	after := weightedMomentum(d, tr, n, he)
	tol := 1e-9 * r3.Norm(before)
	assert.InDelta(t, before.X, after.X, tol)
	assert.InDelta(t, before.Y, after.Y, tol)
	assert.InDelta(t, before.Z, after.Z, tol)

	// products of each duplicate fly apart in the center of momentum frame
	assert.NotEqual(t, n.Velocity(0), n.Velocity(1))
}

func TestEnergyCostRemovesEnergy(t *testing.T) {
	a := species.New("a", 1, constants.ElectornMass)
	a.Add(r3.Vec{}, r3.Vec{X: 2e6}, 1)
	a.Add(r3.Vec{}, r3.Vec{X: -2e6}, 1)
	out := species.New("out", 0, constants.ElectornMass)

	const cost = 5. // eV
	c := Creator{
		Products: []Product{{Species: out, Count: 1}, {Species: out, Count: 1}},
		Momentum: EnergyCost{Cost: cost},
	}
	c.Create(&Events{S1: a, S2: a, I1: []int{0}, I2: []int{1}, Mask: []int{1}, Weight: []float64{1}}, rng.Stream(6))
	require.Equal(t, 4, out.Len())

	kinetic := func(u r3.Vec) float64 {
		g := math.Sqrt(1. + r3.Norm2(u)*constants.InvC2)
		return (g - 1.) * constants.ElectornMass / constants.InvC2 / constants.ElectronCharge
	}
	initial := 2. * kinetic(r3.Vec{X: 2e6})
	// slots 0 and 2 form the first duplicate pair, 1 and 3 the second
	assert.InEpsilon(t, initial-cost, kinetic(out.Velocity(0))+kinetic(out.Velocity(2)), 1e-6)
	assert.InEpsilon(t, initial-cost, kinetic(out.Velocity(1))+kinetic(out.Velocity(3)), 1e-6)
}
