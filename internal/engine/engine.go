// Package engine advances the collision step of a particle-in-cell run:
// every collision due at a step is applied cell by cell, in parallel,
// with a reproducible random stream per cell.
package engine

import (
	"log"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/wildstyl3r/picc/internal/coulomb"
	"github.com/wildstyl3r/picc/internal/creation"
	"github.com/wildstyl3r/picc/internal/diag"
	"github.com/wildstyl3r/picc/internal/rng"
	"github.com/wildstyl3r/picc/internal/species"
)

// stream phases
const (
	decide uint64 = iota
	apply
)

type Engine struct {
	Grid       species.Grid
	Dt         float64 // [s]
	Seed       uint64
	Threads    int
	Species    []*species.Species
	Collisions []Collision
	Counters   *diag.Counters
	Logger     *log.Logger // nil keeps the engine quiet

	time float64
}

func New(grid species.Grid, dt float64, seed uint64, ss []*species.Species, collisions []Collision) *Engine {
	var names []string
	for _, c := range collisions {
		names = append(names, c.counterNames()...)
	}
	return &Engine{
		Grid:       grid,
		Dt:         dt,
		Seed:       seed,
		Species:    ss,
		Collisions: collisions,
		Counters:   diag.NewCounters(grid.NumCells(), names...),
	}
}

func (e *Engine) Time() float64 {
	return e.time
}

func (e *Engine) logf(format string, v ...any) {
	if e.Logger != nil {
		e.Logger.Printf(format, v...)
	}
}

func (e *Engine) stream(step, collision, cell int, phase uint64) *rand.Rand {
	return rng.Stream(e.Seed, uint64(step), uint64(collision), uint64(cell), phase)
}

// forEachCell runs f on every cell with at most Threads goroutines.
func (e *Engine) forEachCell(f func(cell int)) {
	var g errgroup.Group
	threads := e.Threads
	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(threads)
	for cell := range e.Grid.NumCells() {
		g.Go(func() error {
			f(cell)
			return nil
		})
	}
	g.Wait()
}

// Step applies every collision due at step, then advances the time.
func (e *Engine) Step(step int) {
	for ci, c := range e.Collisions {
		if step%c.Period() != 0 {
			continue
		}
		dt := e.Dt * float64(c.Period())
		switch c := c.(type) {
		case *CoulombCollision:
			e.coulomb(step, ci, c, dt)
		case *BackgroundCollision:
			e.background(step, ci, c)
		case *ReactionCollision:
			e.reaction(step, ci, c, dt)
		default:
			panic("unknown collision type")
		}
	}
	e.time += e.Dt
}

// Run performs steps [first, first+n) and compacts the species after each.
func (e *Engine) Run(first, n int) {
	for step := first; step < first+n; step++ {
		e.Step(step)
		removed := 0
		for _, s := range e.Species {
			removed += s.Compact()
		}
		if e.Logger != nil {
			e.logf("step %d: t = %g s, %d removed", step, e.time, removed)
			for _, t := range diag.Totals(e.Species...) {
				e.logf("  %-12s n = %-8d w = %-12g q = %g C", t.Name, t.Count, t.Weight, t.Charge)
			}
		}
	}
}

func pairing(s1, s2 *species.Species, idx1, idx2 []int, r *rand.Rand) ([]int, []int) {
	if s1 == s2 {
		coulomb.Shuffle(idx1, r)
		return coulomb.SplitSameSpecies(idx1)
	}
	coulomb.Shuffle(idx1, r)
	coulomb.Shuffle(idx2, r)
	return idx1, idx2
}

func (e *Engine) coulomb(step, ci int, c *CoulombCollision, dt float64) {
	bins1 := c.S1.Bin(e.Grid)
	bins2 := bins1
	if c.S2 != c.S1 {
		bins2 = c.S2.Bin(e.Grid)
	}
	params := coulomb.CellParams{Dt: dt, DV: e.Grid.CellVolume(), CoulombLog: c.CoulombLog}
	e.forEachCell(func(cell int) {
		r := e.stream(step, ci, cell, decide)
		idx1, idx2 := pairing(c.S1, c.S2, bins1[cell], bins2[cell], r)
		pairs := coulomb.CollideCell(c.S1, c.S2, idx1, idx2, params, r)
		e.Counters.Add(c.name, cell, uint64(pairs))
	})
}

// background needs no dt: the collider envelopes already hold dt*ndt.
func (e *Engine) background(step, ci int, c *BackgroundCollision) {
	bins := c.S.Bin(e.Grid)
	var events []*creation.Events
	if c.ionizes() {
		events = make([]*creation.Events, len(bins))
	}
	t := e.time
	e.forEachCell(func(cell int) {
		r := e.stream(step, ci, cell, decide)
		for _, i := range bins[cell] {
			if k := c.Collider.Scatter(c.S, i, t, r); k >= 0 {
				e.Counters.Add(c.counterName(k), cell, 1)
			}
		}
		if events != nil {
			mask := make([]int, len(bins[cell]))
			fired := c.Collider.IonizationMask(c.S, bins[cell], t, mask, r)
			events[cell] = &creation.Events{S1: c.S, I1: bins[cell], Mask: mask}
			e.Counters.Add(c.ionizationName(), cell, uint64(fired))
		}
	})
	if events != nil {
		e.create(step, ci, c.Collider.Creator(c.Electrons, c.Ions, t), events)
	}
}

func (e *Engine) reaction(step, ci int, c *ReactionCollision, dt float64) {
	bins1 := c.S1.Bin(e.Grid)
	bins2 := bins1
	if c.S2 != c.S1 {
		bins2 = c.S2.Bin(e.Grid)
	}
	dV := e.Grid.CellVolume()
	events := make([]*creation.Events, len(bins1))
	e.forEachCell(func(cell int) {
		r := e.stream(step, ci, cell, decide)
		idx1, idx2 := pairing(c.S1, c.S2, bins1[cell], bins2[cell], r)
		events[cell] = c.Reaction.Events(c.S1, c.S2, idx1, idx2, dt, dV, r)
	})
	created := e.create(step, ci, c.Reaction.Creator, events)
	for cell, n := range created {
		e.Counters.Add(c.name, cell, uint64(n))
	}
}

// create turns the per-cell events into particles: slots are reserved
// serially in cell order, then filled in parallel. It returns the number of
// events per cell that created particles; events whose parents were already
// drained are not counted.
func (e *Engine) create(step, ci int, creator *creation.Creator, events []*creation.Events) []int {
	plans := make([]creation.Plan, len(events))
	blocks := make([][]creation.Block, len(events))
	for cell, ev := range events {
		if ev == nil {
			continue
		}
		plans[cell] = creation.NewPlan(ev.Mask)
		if plans[cell].Fired > 0 {
			blocks[cell] = creator.Reserve(ev, plans[cell])
		}
	}
	created := make([]int, len(events))
	e.forEachCell(func(cell int) {
		if blocks[cell] == nil {
			return
		}
		counts := creator.Apply(events[cell], plans[cell], blocks[cell], e.stream(step, ci, cell, apply))
		if per := events[cell].PerEvent(creator.Products[0]); per > 0 {
			created[cell] = counts[0] / per
		}
	})
	return created
}
