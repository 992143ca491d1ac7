package process

import (
	"fmt"
	"strconv"

	"github.com/wildstyl3r/lxgata"

	"github.com/wildstyl3r/picc/internal/utils"
)

// FromFile reads a two-column "energy [eV]  cross section [m^2]" table.
func FromFile(name string, kind Kind, threshold float64, path string) (*Process, error) {
	rows, err := utils.ReadFloatPairs(path)
	if err != nil {
		return nil, fmt.Errorf("cross section %s: %w", name, err)
	}
	energy := make([]float64, len(rows))
	sigma := make([]float64, len(rows))
	for i, row := range rows {
		energy[i], sigma[i] = row[0], row[1]
	}
	return New(name, kind, threshold, energy, sigma)
}

var lxcatKinds = map[lxgata.CollisionType]Kind{
	lxgata.ELASTIC:    Elastic,
	lxgata.EFFECTIVE:  Elastic,
	lxgata.EXCITATION: Excitation,
	lxgata.ROTATION:   Excitation,
	lxgata.IONIZATION: Ionization,
}

// LoadLXCat loads an LXCat cross-section file and tabulates every supported
// collision on a uniform grid [0, eMax] with step eStep. Attachment has no
// counterpart among the MCC kinds and is skipped.
func LoadLXCat(path string, eMax, eStep float64) ([]*Process, error) {
	if eStep <= 0 || eMax <= eStep {
		return nil, fmt.Errorf("%w: lxcat grid [0, %v] step %v", ErrTable, eMax, eStep)
	}
	collisions, err := lxgata.LoadCrossSections(path)
	if err != nil {
		return nil, fmt.Errorf("invalid cross section file: %w", err)
	}

	numEnergyCells := int(eMax/eStep) + 1
	energyGrid := make([]float64, numEnergyCells)
	tables := make([][]float64, len(collisions))
	for j := range tables {
		tables[j] = make([]float64, numEnergyCells)
	}
	for i := range energyGrid {
		energyGrid[i] = float64(i) * eStep
		crossSections := collisions.CrossSectionsAt(energyGrid[i])
		for j := range tables {
			tables[j][i] = crossSections[j]
		}
	}

	var processes []*Process
	for j := range collisions {
		kind, supported := lxcatKinds[collisions[j].Type]
		if !supported {
			continue
		}
		name := string(collisions[j].Type) + "#" + strconv.Itoa(j)
		p, err := New(name, kind, collisions[j].Threshold, energyGrid, tables[j])
		if err != nil {
			return nil, err
		}
		processes = append(processes, p)
	}
	if len(processes) == 0 {
		return nil, fmt.Errorf("%w: %s has no supported collisions", ErrTable, path)
	}
	return processes, nil
}
