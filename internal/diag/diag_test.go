package diag

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/wildstyl3r/picc/internal/constants"
	"github.com/wildstyl3r/picc/internal/species"
)

func TestCountersConcurrentAdd(t *testing.T) {
	c := NewCounters(12, "elastic", "ionization")
	var wg sync.WaitGroup
	for cell := range 12 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				c.Add("elastic", cell, 1)
			}
			c.Add("ionization", cell, uint64(cell))
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(1200), c.Total("elastic"))
	assert.Equal(t, map[string]uint64{"elastic": 1200, "ionization": 66}, c.Totals())
	assert.Equal(t, []string{"elastic", "ionization"}, c.Processes())

	c.Reset()
	assert.Zero(t, c.Total("elastic"))
}

func TestTotals(t *testing.T) {
	e := species.New("e", -2, 1)
	ions := species.New("i", 1, 3)
	e.Add(r3.Vec{}, r3.Vec{X: 1}, 2)
	e.Add(r3.Vec{}, r3.Vec{X: 5}, 7)
	e.MarkDeleted(1)
	ions.Add(r3.Vec{}, r3.Vec{Y: 1}, 4)

	totals := Totals(e, ions)
	require.Len(t, totals, 2)
	assert.Equal(t, 1, totals[0].Count)
	assert.Equal(t, 2., totals[0].Weight)
	assert.Equal(t, r3.Vec{X: 2}, totals[0].Momentum)
	assert.Equal(t, r3.Vec{Y: 12}, totals[1].Momentum)
	assert.InEpsilon(t, 1.5/constants.ElectronCharge, totals[1].MeanEnergy, 1e-9)
	assert.Zero(t, totals[1].EnergySpread)
	assert.Equal(t, 0., NetCharge(totals))
}

func TestSave(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	df := NewFlags(fs)
	require.NoError(t, fs.Parse([]string{"-cc"}))
	dir := t.TempDir()
	df.SetOutputPath(dir, false)

	g := species.Grid{Dx: r3.Vec{X: 0.25, Y: 1, Z: 0.25}, N: [3]int{11, 1, 1}}
	c := NewCounters(g.NumCells(), "elastic")
	c.Add("elastic", 10, 3)
	s := species.New("e", -1, 1)
	s.Add(r3.Vec{}, r3.Vec{}, 1)

	e := Extractor{Counters: c, Grid: g, Species: []*species.Species{s}, OutputUnits: []string{"m"}}
	require.NoError(t, e.Save("run", df))

	data, err := os.ReadFile(filepath.Join(dir, "run_cc.txt"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 12)
	assert.Equal(t, "cell,x (m),z (m),elastic", lines[0])
	assert.Equal(t, "0,0.125,0.125,0", lines[1])
	assert.Equal(t, "10,2.625,0.125,3", lines[11], "rows in natural order")

	_, err = os.Stat(filepath.Join(dir, "run_totals.txt"))
	assert.NoError(t, err, "totals are saved by default")
}
