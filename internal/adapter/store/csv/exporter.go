// Package csv exports prepared datasets as flat CSV tables.
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strconv"

	"go.ngs.io/oceanprep/internal/domain"
)

// Exporter writes one row per grid cell with a column per coordinate and
// a column per variable. Rows where every variable is NaN are skipped.
type Exporter struct {
	// Precision is the number of significant digits; -1 keeps the shortest
	// exact representation.
	Precision int
}

// NewExporter creates an exporter with the shortest exact float formatting.
func NewExporter() *Exporter {
	return &Exporter{Precision: -1}
}

// ExportFile writes ds to path.
func (e *Exporter) ExportFile(path string, ds *domain.Dataset) (rows int, err error) {
	//nolint:gosec // G304: output path comes from the command line.
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create CSV file %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close CSV file %s: %w", path, cerr)
		}
	}()
	return e.Export(file, ds)
}

// Export writes ds to w and returns the number of data rows written. Only
// variables sharing the dimensions of the first variable are exported.
func (e *Exporter) Export(w io.Writer, ds *domain.Dataset) (int, error) {
	vars := ds.Vars()
	if len(vars) == 0 {
		return 0, fmt.Errorf("dataset has no variables to export")
	}
	dims := vars[0].Dims
	cols := make([]*domain.Variable, 0, len(vars))
	for _, v := range vars {
		if slices.Equal(v.Dims, dims) {
			cols = append(cols, v)
		}
	}

	coords := make([]*domain.Coord, len(dims))
	for i, d := range dims {
		if coords[i] = ds.Coord(d); coords[i] == nil {
			return 0, fmt.Errorf("missing coordinate %s", d)
		}
	}

	writer := csv.NewWriter(w)
	header := append([]string{}, dims...)
	for _, v := range cols {
		header = append(header, v.Name)
	}
	if err := writer.Write(header); err != nil {
		return 0, fmt.Errorf("failed to write CSV header: %w", err)
	}

	shape := vars[0].Data.Shape
	total := 1
	for _, n := range shape {
		total *= n
	}
	idx := make([]int, len(shape))
	record := make([]string, len(header))
	rows := 0
	for flat := 0; flat < total; flat++ {
		allNaN := true
		for j, v := range cols {
			val := v.Data.Elements[flat]
			if math.IsNaN(val) {
				record[len(dims)+j] = ""
				continue
			}
			allNaN = false
			record[len(dims)+j] = e.format(val)
		}
		if allNaN {
			continue
		}
		unravel(shape, flat, idx)
		for i, c := range coords {
			record[i] = e.format(c.Values[idx[i]])
		}
		if err := writer.Write(record); err != nil {
			return rows, fmt.Errorf("failed to write CSV record: %w", err)
		}
		rows++
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return rows, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return rows, nil
}

func (e *Exporter) format(v float64) string {
	return strconv.FormatFloat(v, 'g', e.Precision, 64)
}

func unravel(shape []int, flat int, idx []int) {
	for i := len(shape) - 1; i >= 0; i-- {
		idx[i] = flat % shape[i]
		flat /= shape[i]
	}
}
