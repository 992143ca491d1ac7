package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExclusiveSum(t *testing.T) {
	mask := []int{1, 0, 1, 1, 0}
	offsets := make([]int, len(mask))
	total := ExclusiveSum(mask, offsets)
	assert.Equal(t, 3, total)
	assert.Equal(t, []int{0, 1, 1, 2, 3}, offsets)

	assert.Equal(t, 0, ExclusiveSum([]int{}, []int{}), "empty mask")
}

func TestMeanAndVariance(t *testing.T) {
	mean, variance := MeanAndVariance([]float64{1, 2, 3, 4}, false)
	assert.Equal(t, 2.5, mean)
	assert.Equal(t, 1.25, variance)
}

func TestAtomicAddFloat64(t *testing.T) {
	w := 1000.
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 125 {
				AtomicAddFloat64(&w, -1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 0., AtomicLoadFloat64(&w), "no lost updates")
}

func TestReadFloatPairs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sigma.dat")
	content := "# energy (eV)  cross section (m^2)\n\n0.0 1e-20\n10.0   2e-20\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	pairs, err := ReadFloatPairs(path)
	require.NoError(t, err)
	assert.Equal(t, [][2]float64{{0, 1e-20}, {10, 2e-20}}, pairs)

	require.NoError(t, os.WriteFile(path, []byte("1 2 3\n"), 0600))
	_, err = ReadFloatPairs(path)
	assert.Error(t, err, "three columns")
}

func TestWriteCSVNaturalOrder(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, []string{"cell", "n"}, CSV{{"10", "a"}, {"2", "b"}, {"1", "c"}})
	require.NoError(t, err)
	assert.Equal(t, "cell,n\n1,c\n2,b\n10,a\n", buf.String())
}

func TestGetFilename(t *testing.T) {
	assert.Equal(t, "argon", GetFilename("/data/xs/argon.txt"))
}
