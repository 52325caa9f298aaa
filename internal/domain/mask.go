package domain

import (
	"fmt"
	"math"
)

// Mask is a boolean lat/lon grid; true marks cells inside the basin.
type Mask struct {
	nLat, nLon int
	cells      []bool
}

// NewMask creates an all-false mask.
func NewMask(nLat, nLon int) *Mask {
	return &Mask{nLat: nLat, nLon: nLon, cells: make([]bool, nLat*nLon)}
}

// MaskFromField builds a mask from a 2-D (lat, lon) variable, marking the
// cells for which keep returns true. NaN cells are always outside.
func MaskFromField(v *Variable, keep func(float64) bool) (*Mask, error) {
	if len(v.Dims) != 2 || v.Dims[0] != DimLat || v.Dims[1] != DimLon {
		return nil, fmt.Errorf("mask field %s: expected dims [lat lon], got %v", v.Name, v.Dims)
	}
	m := NewMask(v.Data.Shape[0], v.Data.Shape[1])
	for i, val := range v.Data.Elements {
		m.cells[i] = !math.IsNaN(val) && keep(val)
	}
	return m, nil
}

// Positive reports whether a categorical mask value marks a basin cell.
func Positive(v float64) bool { return v > 0 }

// NLat returns the number of latitude rows.
func (m *Mask) NLat() int { return m.nLat }

// NLon returns the number of longitude columns.
func (m *Mask) NLon() int { return m.nLon }

// At reports whether cell (i, j) is inside the mask.
func (m *Mask) At(i, j int) bool { return m.cells[i*m.nLon+j] }

// Set marks cell (i, j).
func (m *Mask) Set(i, j int, inside bool) { m.cells[i*m.nLon+j] = inside }

// Count returns the number of cells inside the mask.
func (m *Mask) Count() int {
	n := 0
	for _, c := range m.cells {
		if c {
			n++
		}
	}
	return n
}

// AnyInRow reports whether latitude row i has a cell inside the mask.
func (m *Mask) AnyInRow(i int) bool {
	for j := 0; j < m.nLon; j++ {
		if m.At(i, j) {
			return true
		}
	}
	return false
}

// AnyInColumn reports whether longitude column j has a cell inside the mask.
func (m *Mask) AnyInColumn(j int) bool {
	for i := 0; i < m.nLat; i++ {
		if m.At(i, j) {
			return true
		}
	}
	return false
}
