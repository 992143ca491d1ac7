// Package scatter implements the velocity-space kernels of background
// collisions. All velocities are proper velocities (momentum per unit rest
// mass); none of the kernels touches particle weight.
package scatter

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/wildstyl3r/picc/internal/constants"
)

func isotropic(rng *rand.Rand) float64 {
	return 1. - 2.*rng.Float64()
}

// RandomizeVelocity returns a vector of length mag pointing in an
// isotropically sampled direction.
func RandomizeVelocity(mag float64, rng *rand.Rand) r3.Vec {
	cosTheta := isotropic(rng)
	sinTheta := math.Sqrt(math.FMA(cosTheta, -cosTheta, 1.))
	phi := 2. * math.Pi * rng.Float64()
	return r3.Vec{
		X: mag * sinTheta * math.Cos(phi),
		Y: mag * sinTheta * math.Sin(phi),
		Z: mag * cosTheta,
	}
}

// Elastic redirects u isotropically in the frame moving with uCOM, keeping
// its speed in that frame.
func Elastic(u, uCOM r3.Vec, rng *rand.Rand) r3.Vec {
	mag := r3.Norm(r3.Sub(u, uCOM))
	return r3.Add(RandomizeVelocity(mag, rng), uCOM)
}

// BackScatter reverses u in the frame moving with uCOM. Applying it twice
// with the same uCOM is the identity.
func BackScatter(u, uCOM r3.Vec) r3.Vec {
	return r3.Sub(r3.Scale(2., uCOM), u)
}

// ChargeExchange hands the projectile the velocity of the neutral it
// exchanged charge with.
func ChargeExchange(u, ua r3.Vec) r3.Vec {
	return ua
}

// Maxwellian samples a velocity with per-component standard deviation std.
func Maxwellian(std float64, rng *rand.Rand) r3.Vec {
	return r3.Vec{
		X: std * rng.NormFloat64(),
		Y: std * rng.NormFloat64(),
		Z: std * rng.NormFloat64(),
	}
}

// ThermalSpeed is sqrt(kB T / m) for T in K.
func ThermalSpeed(temperature, mass float64) float64 {
	return math.Sqrt(constants.KBolzmann * temperature / mass)
}

// Energy is the relativistic kinetic energy [eV] of a particle of the given
// mass with proper velocity squared u2, written as m u^2 / (gamma + 1) to
// stay accurate in the non-relativistic limit.
func Energy(u2, mass float64) float64 {
	gamma := math.Sqrt(1. + u2*constants.InvC2)
	return mass * u2 / (gamma + 1.) / constants.ElectronCharge
}

// ApplyEnergyPenalty shortens u so that the particle loses penalty eV of
// kinetic energy. A penalty larger than the energy leaves the particle at rest.
func ApplyEnergyPenalty(u r3.Vec, mass, penalty float64) r3.Vec {
	u2 := r3.Norm2(u)
	if u2 == 0 || penalty <= 0 {
		return u
	}
	remaining := (Energy(u2, mass) - penalty) * constants.ElectronCharge
	if remaining <= 0 {
		return r3.Vec{}
	}
	mc2 := mass / constants.InvC2
	scale := math.Sqrt(remaining*(remaining+2.*mc2)*constants.InvC2) / mass / math.Sqrt(u2)
	return r3.Scale(scale, u)
}
