package engine

import (
	"fmt"
	"log"
	"maps"
	"math/rand/v2"
	"os"
	"slices"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/wildstyl3r/picc/internal/config"
	"github.com/wildstyl3r/picc/internal/constants"
	"github.com/wildstyl3r/picc/internal/creation"
	"github.com/wildstyl3r/picc/internal/mcc"
	"github.com/wildstyl3r/picc/internal/process"
	"github.com/wildstyl3r/picc/internal/reaction"
	"github.com/wildstyl3r/picc/internal/rng"
	"github.com/wildstyl3r/picc/internal/scatter"
	"github.com/wildstyl3r/picc/internal/species"
	"github.com/wildstyl3r/picc/internal/utils"
)

// stream key of the initial particle load, out of reach of step numbers
const loadKey = ^uint64(0)

// FromConfig builds the grid, loads every species with its initial
// Maxwellian and sets up the configured collisions.
func FromConfig(cfg *config.Config) (*Engine, error) {
	g := cfg.Grid
	grid := species.Grid{
		Lo: r3.Vec{X: g.Lo[0], Y: g.Lo[1], Z: g.Lo[2]},
		Dx: r3.Vec{
			X: (g.Hi[0] - g.Lo[0]) / float64(g.Cells[0]),
			Y: (g.Hi[1] - g.Lo[1]) / float64(g.Cells[1]),
			Z: (g.Hi[2] - g.Lo[2]) / float64(g.Cells[2]),
		},
		N: g.Cells,
	}

	names := slices.Sorted(maps.Keys(cfg.Species))
	ss := make([]*species.Species, len(names))
	byName := make(map[string]*species.Species, len(names))
	for k, name := range names {
		sp := cfg.Species[name]
		ss[k] = species.New(name, sp.ChargeSI(), sp.MassSI())
		byName[name] = ss[k]
		load(ss[k], sp, cfg, rng.Stream(cfg.Seed, loadKey, uint64(k)))
	}

	collisions := make([]Collision, 0, len(cfg.Collisions))
	for i, cp := range cfg.Collisions {
		name := cp.Name
		if name == "" {
			name = cp.Type + "#" + strconv.Itoa(i)
		}
		c, err := newCollision(name, cp, byName, cfg.Dt)
		if err != nil {
			return nil, fmt.Errorf("%w: collision %s: %w", config.ErrConfig, name, err)
		}
		collisions = append(collisions, c)
	}

	e := New(grid, cfg.Dt, cfg.Seed, ss, collisions)
	e.Threads = cfg.Threads
	if cfg.Verbose {
		e.Logger = log.New(os.Stderr, "picc: ", log.LstdFlags)
	}
	return e, nil
}

// load fills s with sp.Count particles uniformly over the domain, drawn from
// a drifting Maxwellian. The total weight matches sp.Density over the domain.
func load(s *species.Species, sp config.SpeciesParameters, cfg *config.Config, r *rand.Rand) {
	if sp.Count == 0 {
		return
	}
	g := cfg.Grid
	volume := 1.
	for d := range 3 {
		volume *= g.Hi[d] - g.Lo[d]
	}
	w := sp.Density * volume / float64(sp.Count)
	std := scatter.ThermalSpeed(sp.Temperature, s.Mass)
	drift := r3.Vec{X: sp.Drift[0], Y: sp.Drift[1], Z: sp.Drift[2]}
	for range sp.Count {
		pos := r3.Vec{
			X: g.Lo[0] + r.Float64()*(g.Hi[0]-g.Lo[0]),
			Y: g.Lo[1] + r.Float64()*(g.Hi[1]-g.Lo[1]),
			Z: g.Lo[2] + r.Float64()*(g.Hi[2]-g.Lo[2]),
		}
		if cfg.Geometry == "xz" {
			pos.Y = 0
		}
		s.Add(pos, r3.Add(drift, scatter.Maxwellian(std, r)), w)
	}
}

func newCollision(name string, cp config.CollisionParameters, byName map[string]*species.Species, dt float64) (Collision, error) {
	switch cp.Type {
	case config.Coulomb:
		return NewCoulomb(name, cp.NDt, byName[cp.Species[0]], byName[cp.Species[1]], cp.CoulombLog), nil
	case config.BackgroundMCC:
		s := byName[cp.Species[0]]
		processes, err := buildProcesses(cp)
		if err != nil {
			return nil, err
		}
		bg, err := background(cp.Background)
		if err != nil {
			return nil, err
		}
		collider, err := mcc.New(s.Mass, bg, processes, dt*float64(cp.NDt), cp.ScanMax, cp.ScanStep)
		if err != nil {
			return nil, err
		}
		var electrons, ions *species.Species
		if len(cp.IonizationSpecies) == 2 {
			electrons, ions = byName[cp.IonizationSpecies[0]], byName[cp.IonizationSpecies[1]]
		}
		if collider.Ionization != nil && electrons == nil {
			return nil, fmt.Errorf("ionization process %s has no product species", collider.Ionization.Name)
		}
		return NewBackground(name, cp.NDt, s, collider, electrons, ions), nil
	case config.Reaction:
		processes, err := buildProcesses(cp)
		if err != nil {
			return nil, err
		}
		creator := &creation.Creator{}
		for _, p := range cp.Products {
			creator.Products = append(creator.Products, creation.Product{Species: byName[p], Count: cp.ProductCount})
		}
		if cp.EnergyCost != 0 {
			creator.Momentum = creation.EnergyCost{Cost: cp.EnergyCost}
		}
		r, err := reaction.New(processes[0], cp.Multiplier, creator)
		if err != nil {
			return nil, err
		}
		return NewReaction(name, cp.NDt, byName[cp.Species[0]], byName[cp.Species[1]], r), nil
	}
	return nil, fmt.Errorf("%w: collision type %q", config.ErrUnsupported, cp.Type)
}

func buildProcesses(cp config.CollisionParameters) ([]*process.Process, error) {
	var processes []*process.Process
	for i, pp := range cp.Processes {
		kind, err := process.ParseKind(pp.Kind)
		if err != nil {
			return nil, err
		}
		name := pp.Name
		if name == "" {
			name = kind.String() + "#" + strconv.Itoa(i)
		}
		var p *process.Process
		if pp.File != "" {
			p, err = process.FromFile(name, kind, pp.Threshold, pp.File)
		} else {
			p, err = process.New(name, kind, pp.Threshold, pp.Energy, pp.Sigma)
		}
		if err != nil {
			return nil, err
		}
		processes = append(processes, p)
	}
	if cp.LXCat != "" {
		loaded, err := process.LoadLXCat(cp.LXCat, cp.ScanMax, cp.LXCatStep)
		if err != nil {
			return nil, err
		}
		processes = append(processes, loaded...)
	}
	return processes, nil
}

func background(bp config.BackgroundParameters) (mcc.Background, error) {
	n := bp.GasDensity()
	bg := mcc.Background{
		Density:     mcc.Constant(n),
		Temperature: mcc.Constant(bp.Temperature),
		MaxDensity:  n,
		Mass:        bp.Mass * constants.AtomicMassUnit,
	}
	if bp.DensityProfile == "" {
		return bg, nil
	}
	profile, err := utils.ReadFloatPairs(bp.DensityProfile)
	if err != nil {
		return bg, fmt.Errorf("density profile: %w", err)
	}
	if len(profile) == 0 {
		return bg, fmt.Errorf("density profile %s is empty", bp.DensityProfile)
	}
	xs := make([]float64, len(profile))
	factors := make([]float64, len(profile))
	for i, row := range profile {
		xs[i], factors[i] = row[0], row[1]
		if row[1] < 0 {
			return bg, fmt.Errorf("density profile %s: negative factor at x = %v", bp.DensityProfile, row[0])
		}
		if i > 0 && !(xs[i] > xs[i-1]) {
			return bg, fmt.Errorf("density profile %s: x not increasing at row %d", bp.DensityProfile, i)
		}
	}
	bg.MaxDensity = n * floats.Max(factors)
	if len(profile) == 1 {
		bg.Density = mcc.Constant(n * factors[0])
		return bg, nil
	}
	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, factors); err != nil {
		return bg, fmt.Errorf("density profile %s: %w", bp.DensityProfile, err)
	}
	bg.Density = func(x, _, _, _ float64) float64 {
		return n * pl.Predict(x)
	}
	return bg, nil
}
