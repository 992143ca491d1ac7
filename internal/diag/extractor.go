package diag

import (
	"flag"
	"fmt"
	"math"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/wildstyl3r/picc/internal/config"
	"github.com/wildstyl3r/picc/internal/scatter"
	"github.com/wildstyl3r/picc/internal/species"
	"github.com/wildstyl3r/picc/internal/utils"
)

type SpeciesTotals struct {
	Name     string
	Count    int
	Weight   float64
	Charge   float64 // [C]
	Momentum r3.Vec  // [kg m/s]

	// unweighted over macroparticles [eV]
	MeanEnergy, EnergySpread float64
}

func Totals(ss ...*species.Species) []SpeciesTotals {
	totals := make([]SpeciesTotals, len(ss))
	for k, s := range ss {
		var energies []float64
		for i := range s.Len() {
			if s.Valid(i) {
				energies = append(energies, scatter.Energy(r3.Norm2(s.Velocity(i)), s.Mass))
			}
		}
		totals[k] = SpeciesTotals{
			Name:     s.Name,
			Count:    len(energies),
			Weight:   s.TotalWeight(),
			Charge:   s.TotalCharge(),
			Momentum: s.Momentum(),
		}
		if len(energies) > 1 {
			mean, variance := utils.MeanAndVariance(energies, true)
			totals[k].MeanEnergy, totals[k].EnergySpread = mean, math.Sqrt(variance)
		} else if len(energies) == 1 {
			totals[k].MeanEnergy = energies[0]
		}
	}
	return totals
}

// NetCharge sums the charge of all species [C].
func NetCharge(totals []SpeciesTotals) float64 {
	charges := make([]float64, len(totals))
	for i := range totals {
		charges[i] = totals[i].Charge
	}
	return floats.Sum(charges)
}

type Extractor struct {
	Counters    *Counters
	Grid        species.Grid
	Species     []*species.Species
	OutputUnits []string
}

type output struct {
	saveFlag   *bool
	fileSuffix string
	columns    func(*Extractor) []string
	rows       func(*Extractor) utils.CSV
}

type Flags struct {
	all        *bool
	outputs    map[string]output
	outputPath string
	makeDir    bool
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func NewFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		all: fs.Bool("all", false, "save every available output"),
		outputs: map[string]output{
			"Collision counters": {
				saveFlag:   fs.Bool("cc", false, "save collision counters per cell"),
				fileSuffix: "cc",
				columns: func(e *Extractor) []string {
					unit := config.LengthUnit(e.OutputUnits)
					return append([]string{"cell", "x (" + unit + ")", "z (" + unit + ")"}, e.Counters.Processes()...)
				},
				rows: func(e *Extractor) (rows utils.CSV) {
					lengthUnit := []config.UnitElement{{Class: config.Length, Power: 1}}
					names := e.Counters.Processes()
					g := e.Grid
					for cell := range e.Counters.NumCells {
						i := cell % g.N[0]
						k := cell / (g.N[0] * g.N[1])
						x := g.Lo.X + (float64(i)+0.5)*g.Dx.X
						z := g.Lo.Z + (float64(k)+0.5)*g.Dx.Z
						row := []string{
							strconv.Itoa(cell),
							formatFloat(config.SI(x, lengthUnit, e.OutputUnits, false)),
							formatFloat(config.SI(z, lengthUnit, e.OutputUnits, false)),
						}
						for _, name := range names {
							row = append(row, strconv.FormatUint(e.Counters.AtCell[name][cell], 10))
						}
						rows = append(rows, row)
					}
					return
				},
			},
			"Species totals": {
				saveFlag:   fs.Bool("tot", true, "save species totals"),
				fileSuffix: "totals",
				columns: func(*Extractor) []string {
					return []string{"species", "count", "weight", "charge (C)", "px (kg m/s)", "py (kg m/s)", "pz (kg m/s)", "mean energy (eV)", "energy spread (eV)"}
				},
				rows: func(e *Extractor) (rows utils.CSV) {
					for _, t := range Totals(e.Species...) {
						rows = append(rows, []string{
							t.Name,
							strconv.Itoa(t.Count),
							formatFloat(t.Weight),
							formatFloat(t.Charge),
							formatFloat(t.Momentum.X),
							formatFloat(t.Momentum.Y),
							formatFloat(t.Momentum.Z),
							formatFloat(t.MeanEnergy),
							formatFloat(t.EnergySpread),
						})
					}
					return
				},
			},
		},
	}
}

func (df *Flags) SetOutputPath(path string, makeDir bool) {
	df.outputPath = path
	df.makeDir = makeDir
}

// Save writes every enabled output for the run.
func (e *Extractor) Save(runName string, df *Flags) error {
	for name, out := range df.outputs {
		if !*out.saveFlag && !*df.all {
			continue
		}
		file, err := utils.OpenFile(df.makeDir, df.outputPath, out.fileSuffix, runName)
		if err != nil {
			return fmt.Errorf("unable to save %s: %w", name, err)
		}
		err = utils.WriteCSV(file, out.columns(e), out.rows(e))
		if cerr := file.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("error writing %s: %w", name, err)
		}
	}
	return nil
}
