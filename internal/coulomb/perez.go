// Package coulomb performs binary Coulomb collisions with the relativistic
// Nanbu-Perez method (F. Perez et al., Phys. Plasmas 19, 083104 (2012);
// K. Nanbu, Phys. Rev. E 55, 4642 (1997)).
package coulomb

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/wildstyl3r/picc/internal/constants"
	"github.com/wildstyl3r/picc/internal/utils"
)

// smallest normal float64
const tiny = 0x1p-1022

// PairParams are shared by all pairs of one cell.
type PairParams struct {
	N1, N2, N12 float64 // [m^-3]
	Q1, M1      float64
	Q2, M2      float64
	Dt          float64 // [s]
	CoulombLog  float64 // used as is when > 0, computed otherwise
	DebyeLength float64 // max(Debye length, interparticle distance) [m]
}

// UpdateMomentum scatters the pair (u1, u2) and returns the new proper
// velocities. Each particle is updated only with probability equal to the
// other's weight over max(w1, w2), so either, both, or none may change.
func UpdateMomentum(u1, u2 r3.Vec, w1, w2 float64, p *PairParams, rng *rand.Rand) (r3.Vec, r3.Vec) {
	diffm := r3.Norm(r3.Sub(u1, u2))
	summm := r3.Norm(u1) + r3.Norm(u2)
	if diffm < tiny || diffm/summm < 1e-10 {
		return u1, u2
	}

	m1, m2 := p.M1, p.M2
	invC2 := constants.InvC2

	g1 := math.Sqrt(1. + r3.Norm2(u1)*invC2)
	g2 := math.Sqrt(1. + r3.Norm2(u2)*invC2)

	p1 := r3.Scale(m1, u1)
	p2 := r3.Scale(m2, u2)

	// center of momentum velocity and gamma
	massG := m1*g1 + m2*g2
	vc := r3.Scale(1./massG, r3.Add(p1, p2))
	vcms := r3.Norm2(vc)
	gc := 1. / math.Sqrt(1.-vcms*invC2)

	vcDv1 := r3.Dot(vc, u1) / g1
	vcDv2 := r3.Dot(vc, u2) / g2

	p1s := p1
	if vcms > tiny {
		factor := ((gc-1.)/vcms*vcDv1 - gc) * m1 * g1
		p1s = r3.Add(p1, r3.Scale(factor, vc))
	}
	p1sm := r3.Norm(p1s)

	g1s := (1. - vcDv1*invC2) * gc * g1
	g2s := (1. - vcDv2*invC2) * gc * g2

	lnLmd := coulombLog(p, gc, massG, g1s, g2s, p1sm)

	tts := m1*g1s*m2*g2s/(invC2*p1sm*p1sm) + 1.
	s := p.N1 * p.N2 / p.N12 * p.Dt * lnLmd * p.Q1 * p.Q1 * p.Q2 * p.Q2 /
		(4. * math.Pi * constants.FreeSpacePermittivityE0 * constants.FreeSpacePermittivityE0 *
			m1 * g1 * m2 * g2 / (invC2 * invC2)) * gc * p1sm / massG * tts * tts

	// density-limited bound from the Wigner-Seitz radius
	cbrtN1, cbrtN2 := math.Cbrt(p.N1), math.Cbrt(p.N2)
	vrel := massG * p1sm / (m1 * g1s * m2 * g2s * gc)
	sp := constants.WignerSeitzCoeff * p.N1 * p.N2 / p.N12 * p.Dt * vrel * (m1 + m2) /
		max(m1*cbrtN1*cbrtN1, m2*cbrtN2*cbrtN2)

	s = min(s, sp)

	cosXs := SampleCosine(s, rng)
	sinXs := math.Sqrt(max(0., 1.-cosXs*cosXs))

	phis := rng.Float64() * 2. * math.Pi
	cosphis, sinphis := math.Cos(phis), math.Sin(phis)

	p1fs := rotate(p1s, p1sm, cosXs, sinXs, cosphis, sinphis)
	p2fs := r3.Scale(-1., p1fs)

	p1f, p2f := p1fs, p2fs
	if vcms > tiny {
		factor := (gc - 1.) / vcms
		factor1 := factor*r3.Dot(vc, p1fs) + m1*g1s*gc
		factor2 := factor*r3.Dot(vc, p2fs) + m2*g2s*gc
		p1f = r3.Add(p1fs, r3.Scale(factor1, vc))
		p2f = r3.Add(p2fs, r3.Scale(factor2, vc))
	}

	wmax := max(w1, w2)
	if w2 > rng.Float64()*wmax {
		u1 = r3.Scale(1./m1, p1f)
		utils.AssertFinite("u1", u1.X, u1.Y, u1.Z)
	}
	if w1 > rng.Float64()*wmax {
		u2 = r3.Scale(1./m2, p2f)
		utils.AssertFinite("u2", u2.X, u2.Y, u2.Z)
	}
	return u1, u2
}

func coulombLog(p *PairParams, gc, massG, g1s, g2s, p1sm float64) float64 {
	if p.CoulombLog > 0 {
		return p.CoulombLog
	}
	invC2 := constants.InvC2
	b0 := math.Abs(p.Q1*p.Q2) * invC2 / (4. * math.Pi * constants.FreeSpacePermittivityE0) * gc / massG *
		(p.M1*g1s*p.M2*g2s/(p1sm*p1sm*invC2) + 1.)
	bmin := max(constants.ReducedPlanck*math.Pi/p1sm, b0)
	return max(2., 0.5*math.Log(1.+p.DebyeLength*p.DebyeLength/(bmin*bmin)))
}

// SampleCosine draws the cosine of the COM deflection angle for the
// collision strength s from the fitted inverse cumulative distributions.
func SampleCosine(s float64, rng *rand.Rand) float64 {
	r := rng.Float64()
	switch {
	case s <= 0.1:
		for {
			cosXs := 1. + s*math.Log(r)
			if cosXs >= -1. {
				return cosXs
			}
			r = rng.Float64()
		}
	case s <= 3.:
		Ainv := 0.0056958 + s*(0.9560202+s*(-0.508139+s*(0.47913906+s*(-0.12788975+s*0.02389567))))
		return Ainv * math.Log(math.Exp(-1./Ainv)+2.*r*math.Sinh(1./Ainv))
	case s <= 6.:
		A := 3. * math.Exp(-s)
		return 1. / A * math.Log(math.Exp(-A)+2.*r*math.Sinh(A))
	default:
		return 2.*r - 1.
	}
}

// rotate turns p (of norm pm) by the polar angle (cosX, sinX) and the
// azimuth (cosPhi, sinPhi) around its own direction.
func rotate(p r3.Vec, pm, cosX, sinX, cosPhi, sinPhi float64) r3.Vec {
	if pp := math.Sqrt(p.X*p.X + p.Y*p.Y); pp > tiny {
		return r3.Vec{
			X: (p.X*p.Z/pp)*sinX*cosPhi + (p.Y*pm/pp)*sinX*sinPhi + p.X*cosX,
			Y: (p.Y*p.Z/pp)*sinX*cosPhi + (-p.X*pm/pp)*sinX*sinPhi + p.Y*cosX,
			Z: -pp*sinX*cosPhi + p.Z*cosX,
		}
	}
	// x -> y, y -> z, z -> x
	pp := math.Sqrt(p.Y*p.Y + p.Z*p.Z)
	return r3.Vec{
		X: -pp*sinX*cosPhi + p.X*cosX,
		Y: (p.Y*p.X/pp)*sinX*cosPhi + (p.Z*pm/pp)*sinX*sinPhi + p.Y*cosX,
		Z: (p.Z*p.X/pp)*sinX*cosPhi + (-p.Y*pm/pp)*sinX*sinPhi + p.Z*cosX,
	}
}
