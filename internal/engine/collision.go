package engine

import (
	"github.com/wildstyl3r/picc/internal/mcc"
	"github.com/wildstyl3r/picc/internal/reaction"
	"github.com/wildstyl3r/picc/internal/species"
)

// Collision is one of CoulombCollision, BackgroundCollision or
// ReactionCollision.
type Collision interface {
	Name() string
	// Period is the number of steps between two applications; the
	// collision then acts over Period timesteps.
	Period() int
	counterNames() []string
	isCollision()
}

type base struct {
	name string
	ndt  int
}

func (b base) Name() string { return b.name }

func (b base) Period() int { return max(b.ndt, 1) }

func (base) isCollision() {}

type CoulombCollision struct {
	base
	S1, S2     *species.Species
	CoulombLog float64 // computed per cell when not positive
}

func NewCoulomb(name string, ndt int, s1, s2 *species.Species, coulombLog float64) *CoulombCollision {
	return &CoulombCollision{base: base{name, ndt}, S1: s1, S2: s2, CoulombLog: coulombLog}
}

func (c *CoulombCollision) counterNames() []string {
	return []string{c.name}
}

type BackgroundCollision struct {
	base
	S        *species.Species
	Collider *mcc.Collider
	// ionization products, nil without an ionization process
	Electrons, Ions *species.Species
}

func NewBackground(name string, ndt int, s *species.Species, collider *mcc.Collider, electrons, ions *species.Species) *BackgroundCollision {
	return &BackgroundCollision{base: base{name, ndt}, S: s, Collider: collider, Electrons: electrons, Ions: ions}
}

func (c *BackgroundCollision) counterName(k int) string {
	return c.name + ":" + c.Collider.Scattering[k].Name
}

func (c *BackgroundCollision) ionizationName() string {
	return c.name + ":" + c.Collider.Ionization.Name
}

func (c *BackgroundCollision) ionizes() bool {
	return c.Collider.Ionization != nil && c.Electrons != nil && c.Ions != nil
}

func (c *BackgroundCollision) counterNames() (names []string) {
	for k := range c.Collider.Scattering {
		names = append(names, c.counterName(k))
	}
	if c.ionizes() {
		names = append(names, c.ionizationName())
	}
	return
}

type ReactionCollision struct {
	base
	S1, S2   *species.Species
	Reaction *reaction.Reaction
}

func NewReaction(name string, ndt int, s1, s2 *species.Species, r *reaction.Reaction) *ReactionCollision {
	return &ReactionCollision{base: base{name, ndt}, S1: s1, S2: s2, Reaction: r}
}

func (c *ReactionCollision) counterNames() []string {
	return []string{c.name}
}
