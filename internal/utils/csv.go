package utils

import (
	"encoding/csv"
	"io"
	"sort"

	"github.com/facette/natsort"
)

type CSV [][]string

func (data CSV) Less(i, j int) bool {
	return natsort.Compare(data[i][0], data[j][0])
}

func (data CSV) Len() int {
	return len(data)
}
func (data CSV) Swap(i, j int) {
	data[i], data[j] = data[j], data[i]
}

// WriteCSV writes the header followed by data rows in natural order of their first column.
func WriteCSV(w io.Writer, columns []string, data CSV) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}
	sort.Sort(data)
	if err := cw.WriteAll(data); err != nil {
		return err
	}
	return cw.Error()
}
