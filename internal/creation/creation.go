// Package creation spawns reaction products into their species, moves the
// reaction weight from the parents to the products and tombstones parents
// that run out of weight.
//
// A batch of events (usually one cell) is processed in three phases: a Plan
// from the event mask, a Reserve of slots in every product species, and an
// Apply that fills them. Reserve resizes species and must not overlap with
// anything else touching them; Apply of different batches may run
// concurrently when their parents are disjoint.
package creation

import (
	"math/rand/v2"

	"github.com/wildstyl3r/picc/internal/species"
	"github.com/wildstyl3r/picc/internal/utils"
)

type Product struct {
	Species *species.Species
	Count   int // duplicates per parent and event
}

// CopyFunc fills slot j of dst from particle i of src. Weight and id are
// assigned by the caller.
type CopyFunc func(dst *species.Species, j int, src *species.Species, i int)

// CopyParticle copies position and velocity.
func CopyParticle(dst *species.Species, j int, src *species.Species, i int) {
	dst.X[j], dst.Y[j], dst.Z[j] = src.X[i], src.Y[i], src.Z[i]
	dst.SetVelocity(j, src.Velocity(i))
}

// Events are the candidate reactions of one batch; Mask[e] is 1 when event e
// fires. With S2 == nil the events have a single parent (impact ionization
// of the background): every product copies it Count times, carries its full
// weight, and the parent keeps its weight.
type Events struct {
	S1, S2 *species.Species
	I1, I2 []int
	Mask   []int
	Weight []float64 // reaction weight of each pair
}

func (ev *Events) paired() bool {
	return ev.S2 != nil
}

// PerEvent is the number of particles of p created by one event.
func (ev *Events) PerEvent(p Product) int {
	if ev.paired() {
		return 2 * p.Count
	}
	return p.Count
}

type Plan struct {
	Fired   int
	offsets []int
}

func NewPlan(mask []int) Plan {
	offsets := make([]int, len(mask))
	return Plan{Fired: utils.ExclusiveSum(mask, offsets), offsets: offsets}
}

// Slots is the number of slots the plan needs in the species of p.
func (pl Plan) Slots(ev *Events, p Product) int {
	return pl.Fired * ev.PerEvent(p)
}

// Event is one fired reaction as seen by a MomentumInitializer. Slots[p]
// lists the slots created for product p; for paired events copies of
// parent 1 sit at even positions and copies of parent 2 at odd ones.
type Event struct {
	S1, S2   *species.Species
	I1, I2   int
	Products []Product
	Slots    [][]int
}

// MomentumInitializer sets product velocities of reactions whose
// kinematics differ from a plain copy of the parents.
type MomentumInitializer interface {
	InitializeMomentum(ev Event, rng *rand.Rand)
}

type Creator struct {
	Products []Product
	Copy     CopyFunc // CopyParticle when nil
	Momentum MomentumInitializer
}

// Block is a run of slots reserved in one product species together with
// the ids they will receive.
type Block struct {
	Start   int
	FirstID int64
}

// Reserve grows every product species by what plan needs. Unfilled slots
// keep species.InvalidID.
func (c *Creator) Reserve(ev *Events, plan Plan) []Block {
	blocks := make([]Block, len(c.Products))
	for p, prod := range c.Products {
		blocks[p].Start, blocks[p].FirstID = prod.Species.Grow(plan.Slots(ev, prod))
	}
	return blocks
}

// Apply fills the reserved blocks and returns how many particles were
// created per product. A paired event whose parents were already drained
// by earlier events of the batch creates nothing.
func (c *Creator) Apply(ev *Events, plan Plan, blocks []Block, rng *rand.Rand) []int {
	copyFn := c.Copy
	if copyFn == nil {
		copyFn = CopyParticle
	}
	counts := make([]int, len(c.Products))
	slots := make([][]int, len(c.Products))
	for e, fired := range ev.Mask {
		if fired == 0 {
			continue
		}
		i1, i2 := ev.I1[e], -1
		var rw float64
		if ev.paired() {
			i2 = ev.I2[e]
			rw = min(ev.Weight[e], ev.S1.Weight(i1), ev.S2.Weight(i2))
			if rw <= 0 {
				continue
			}
		} else {
			rw = ev.S1.Weight(i1)
		}

		for p, prod := range c.Products {
			dst := prod.Species
			per := ev.PerEvent(prod)
			start := blocks[p].Start + plan.offsets[e]*per
			slots[p] = slots[p][:0]
			for k := range per {
				j := start + k
				switch {
				case !ev.paired():
					copyFn(dst, j, ev.S1, i1)
					dst.W[j] = rw
				case k%2 == 0:
					copyFn(dst, j, ev.S1, i1)
					dst.W[j] = rw / 2.
				default:
					copyFn(dst, j, ev.S2, i2)
					dst.W[j] = rw / 2.
				}
				dst.ID[j] = blocks[p].FirstID + int64(j-blocks[p].Start)
				slots[p] = append(slots[p], j)
			}
			counts[p] += per
		}

		if ev.paired() {
			if ev.S1.SubtractWeight(i1, rw) <= 0 {
				ev.S1.MarkDeleted(i1)
			}
			if ev.S2.SubtractWeight(i2, rw) <= 0 {
				ev.S2.MarkDeleted(i2)
			}
		}

		if c.Momentum != nil {
			c.Momentum.InitializeMomentum(Event{
				S1: ev.S1, S2: ev.S2,
				I1: i1, I2: i2,
				Products: c.Products,
				Slots:    slots,
			}, rng)
		}
	}
	return counts
}

// Create runs all three phases on a single batch. Zero fired events leave
// every species untouched.
func (c *Creator) Create(ev *Events, rng *rand.Rand) []int {
	plan := NewPlan(ev.Mask)
	if plan.Fired == 0 {
		return make([]int, len(c.Products))
	}
	return c.Apply(ev, plan, c.Reserve(ev, plan), rng)
}
