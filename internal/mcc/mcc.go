// Package mcc collides particles with a static neutral background by the
// null-collision Monte Carlo method.
//
// A particle is first gated by the total collision probability
// P = 1 - exp(-nu_max dt); survivors draw one number r1 and walk the
// processes in their configured order accumulating
// nu_i = n_a sigma_i(E) v / nu_max. The first process whose running sum
// reaches r1 fires. Ionization runs as a separate pass with its own
// envelope, since it creates particles.
package mcc

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/wildstyl3r/picc/internal/constants"
	"github.com/wildstyl3r/picc/internal/process"
	"github.com/wildstyl3r/picc/internal/scatter"
	"github.com/wildstyl3r/picc/internal/species"
	"github.com/wildstyl3r/picc/internal/utils"
)

var ErrSetup = errors.New("mcc: invalid background collision setup")

// Field is a scalar background quantity as a function of position and time.
type Field func(x, y, z, t float64) float64

func Constant(v float64) Field {
	return func(_, _, _, _ float64) float64 { return v }
}

type Background struct {
	Density     Field   // [m^-3]
	Temperature Field   // [K]
	MaxDensity  float64 // upper bound of Density over the domain [m^-3]
	Mass        float64 // neutral mass [kg]
}

const (
	scanStart       = 1e-4  // [eV]
	DefaultScanMax  = 5000. // [eV]
	DefaultScanStep = 0.2   // [eV]
)

type Collider struct {
	Mass       float64 // projectile mass [kg]
	Background Background

	Scattering []*process.Process
	Ionization *process.Process

	NuMax, PTotal                     float64
	NuMaxIonization, PTotalIonization float64
}

// New prepares the collision envelopes for a projectile of the given mass.
// dt is the effective collision timestep; the energy scan for nu_max runs
// up to scanMax with step scanStep.
func New(mass float64, bg Background, processes []*process.Process, dt, scanMax, scanStep float64) (*Collider, error) {
	if mass <= 0 || bg.Mass <= 0 {
		return nil, fmt.Errorf("%w: masses must be positive", ErrSetup)
	}
	if bg.Density == nil || bg.Temperature == nil {
		return nil, fmt.Errorf("%w: background density and temperature are required", ErrSetup)
	}
	if bg.MaxDensity < 0 || dt <= 0 {
		return nil, fmt.Errorf("%w: max density %v, dt %v", ErrSetup, bg.MaxDensity, dt)
	}
	if scanStep <= 0 || scanMax <= scanStart {
		return nil, fmt.Errorf("%w: energy scan [%v, %v] step %v", ErrSetup, scanStart, scanMax, scanStep)
	}
	scattering, ionization := process.Split(processes)
	if len(ionization) > 1 {
		return nil, fmt.Errorf("%w: %d ionization processes, at most one is supported", ErrSetup, len(ionization))
	}

	c := &Collider{Mass: mass, Background: bg, Scattering: scattering}
	c.NuMax = MaxFrequency(scattering, mass, bg.MaxDensity, scanMax, scanStep)
	c.PTotal = CollisionProbability(c.NuMax, dt)
	if len(ionization) == 1 {
		c.Ionization = ionization[0]
		c.NuMaxIonization = MaxFrequency(ionization, mass, bg.MaxDensity, scanMax, scanStep)
		c.PTotalIonization = CollisionProbability(c.NuMaxIonization, dt)
	}
	return c, nil
}

// MaxFrequency scans E over [1e-4, eMax] and returns the largest total
// collision frequency n_max v(E) sum sigma_i(E) [1/s].
func MaxFrequency(processes []*process.Process, mass, maxDensity, eMax, de float64) (nuMax float64) {
	n := int((eMax - scanStart) / de)
	for k := range n + 1 {
		E := scanStart + float64(k)*de
		v := math.Sqrt(2. * E * constants.ElectronCharge / mass)
		nuMax = max(nuMax, maxDensity*v*process.TotalCrossSection(processes, E))
	}
	return
}

func CollisionProbability(nuMax, dt float64) float64 {
	return 1. - math.Exp(-nuMax*dt)
}

// collisionEnergy [eV] of a projectile hitting a neutral with relative speed^2 v2.
func collisionEnergy(v2, mass float64) float64 {
	return 0.5 * mass * v2 / constants.ElectronCharge
}

// Scatter runs the scattering pass on particle i of s at time t and returns
// the index into c.Scattering of the process that fired, or -1.
func (c *Collider) Scatter(s *species.Species, i int, t float64, rng *rand.Rand) int {
	if c.PTotal == 0 || rng.Float64() > c.PTotal {
		return -1
	}
	x, y, z := s.X[i], s.Y[i], s.Z[i]
	na := c.Background.Density(x, y, z, t)
	if na <= 0 {
		return -1
	}

	std := scatter.ThermalSpeed(c.Background.Temperature(x, y, z, t), c.Background.Mass)
	ua := scatter.Maxwellian(std, rng)
	u := s.Velocity(i)
	v2 := r3.Norm2(r3.Sub(u, ua))
	E := collisionEnergy(v2, c.Mass)
	v := math.Sqrt(v2)

	r1 := rng.Float64()
	var nu float64
	for k, p := range c.Scattering {
		nui := na * p.CrossSection(E) * v / c.NuMax
		nu += nui
		if nui > 0 && r1 <= nu {
			s.SetVelocity(i, c.apply(p, u, ua, rng))
			return k
		}
	}
	return -1
}

func (c *Collider) apply(p *process.Process, u, ua r3.Vec, rng *rand.Rand) r3.Vec {
	m, M := c.Mass, c.Background.Mass
	uCOM := r3.Scale(1./(m+M), r3.Add(r3.Scale(m, u), r3.Scale(M, ua)))

	if penalty := p.EnergyPenalty(); penalty > 0 {
		urel := scatter.ApplyEnergyPenalty(r3.Sub(u, uCOM), m, penalty)
		u = r3.Add(uCOM, urel)
	}

	var next r3.Vec
	switch p.Kind {
	case process.Elastic, process.Excitation:
		next = scatter.Elastic(u, uCOM, rng)
	case process.BackScatter:
		next = scatter.BackScatter(u, uCOM)
	case process.ChargeExchange:
		next = scatter.ChargeExchange(u, ua)
	default:
		panic(fmt.Sprintf("process %s cannot scatter", p.Kind))
	}
	utils.AssertFinite("u", next.X, next.Y, next.Z)
	return next
}

// Ionizes decides whether particle i of s ionizes the background at time t.
func (c *Collider) Ionizes(s *species.Species, i int, t float64, rng *rand.Rand) bool {
	if c.Ionization == nil || c.PTotalIonization == 0 || rng.Float64() > c.PTotalIonization {
		return false
	}
	x, y, z := s.X[i], s.Y[i], s.Z[i]
	na := c.Background.Density(x, y, z, t)
	if na <= 0 {
		return false
	}
	v2 := r3.Norm2(s.Velocity(i))
	nu := na * c.Ionization.CrossSection(collisionEnergy(v2, c.Mass)) * math.Sqrt(v2) / c.NuMaxIonization
	return nu > 0 && rng.Float64() <= nu
}

// IonizationMask fills mask[k] with 1 when particle idx[k] ionizes.
func (c *Collider) IonizationMask(s *species.Species, idx []int, t float64, mask []int, rng *rand.Rand) (fired int) {
	for k, i := range idx {
		mask[k] = 0
		if c.Ionizes(s, i, t, rng) {
			mask[k] = 1
			fired++
		}
	}
	return
}
