// Package process describes the physical collision processes available to
// the background MCC and reaction drivers. A Process is immutable once
// built and safe for concurrent evaluation.
package process

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/interp"
)

var ErrTable = errors.New("process: invalid cross-section table")

type Kind int

const (
	Elastic Kind = iota
	BackScatter
	ChargeExchange
	Excitation
	Ionization
)

var kindNames = map[Kind]string{
	Elastic:        "elastic",
	BackScatter:    "back",
	ChargeExchange: "charge_exchange",
	Excitation:     "excitation",
	Ionization:     "ionization",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if strings.EqualFold(n, name) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown process kind %q", name)
}

type Process struct {
	Name      string
	Kind      Kind
	Threshold float64 // [eV]

	energy []float64 // [eV]
	sigma  []float64 // [m^2]

	// uniform tables (LXCat grids) are indexed directly, others go through
	// table; nil for a single point
	uniform bool
	de      float64
	table   *interp.PiecewiseLinear
}

// New validates a tabulated cross section. Energies must be strictly
// increasing and cross sections finite and non-negative.
func New(name string, kind Kind, threshold float64, energy, sigma []float64) (*Process, error) {
	if len(energy) == 0 || len(energy) != len(sigma) {
		return nil, fmt.Errorf("%w: %s: %d energies, %d cross sections", ErrTable, name, len(energy), len(sigma))
	}
	if threshold < 0 || math.IsNaN(threshold) {
		return nil, fmt.Errorf("%w: %s: threshold %v", ErrTable, name, threshold)
	}
	for i := range energy {
		if math.IsNaN(sigma[i]) || math.IsInf(sigma[i], 0) || sigma[i] < 0 {
			return nil, fmt.Errorf("%w: %s: cross section %v at %v eV", ErrTable, name, sigma[i], energy[i])
		}
		if i > 0 && !(energy[i] > energy[i-1]) {
			return nil, fmt.Errorf("%w: %s: energies not increasing at row %d", ErrTable, name, i)
		}
	}
	p := &Process{
		Name:      name,
		Kind:      kind,
		Threshold: threshold,
		energy:    append([]float64(nil), energy...),
		sigma:     append([]float64(nil), sigma...),
	}
	if n := len(energy); n > 1 {
		p.table = &interp.PiecewiseLinear{}
		if err := p.table.Fit(p.energy, p.sigma); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrTable, name, err)
		}
		p.de = (energy[n-1] - energy[0]) / float64(n-1)
		p.uniform = true
		for i := 1; i < n; i++ {
			if math.Abs(energy[i]-energy[i-1]-p.de) > 1e-9*p.de {
				p.uniform = false
				break
			}
		}
	}
	return p, nil
}

// CrossSection returns sigma(E) in m^2 for a kinetic energy E in eV,
// linearly interpolated and held constant beyond the table ends.
func (p *Process) CrossSection(E float64) float64 {
	if E < p.Threshold {
		return 0
	}
	if !p.uniform {
		if p.table == nil {
			return p.sigma[0]
		}
		return p.table.Predict(E)
	}
	n := len(p.energy)
	if E <= p.energy[0] {
		return p.sigma[0]
	}
	if E >= p.energy[n-1] {
		return p.sigma[n-1]
	}
	i := min(int((E-p.energy[0])/p.de), n-2)
	t := (E - p.energy[i]) / (p.energy[i+1] - p.energy[i])
	return math.FMA(t, p.sigma[i+1]-p.sigma[i], p.sigma[i])
}

// EnergyPenalty is the energy [eV] the projectile loses in the event.
func (p *Process) EnergyPenalty() float64 {
	switch p.Kind {
	case Excitation, Ionization:
		return p.Threshold
	}
	return 0
}

// MaxEnergy is the last tabulated energy.
func (p *Process) MaxEnergy() float64 {
	return p.energy[len(p.energy)-1]
}

func TotalCrossSection(processes []*Process, E float64) (total float64) {
	for _, p := range processes {
		total += p.CrossSection(E)
	}
	return
}

// Split separates ionization processes from those that only scatter.
func Split(processes []*Process) (scattering, ionization []*Process) {
	for _, p := range processes {
		if p.Kind == Ionization {
			ionization = append(ionization, p)
		} else {
			scattering = append(scattering, p)
		}
	}
	return
}
