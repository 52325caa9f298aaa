// Package domain defines the labeled grid containers handled by the preparation pipeline.
package domain

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/ctessum/sparse"
)

// Canonical dimension names of prepared products.
const (
	DimMonth = "month"
	DimDepth = "depth"
	DimLat   = "lat"
	DimLon   = "lon"
)

var (
	// ErrVariableNotFound is returned when a dataset or archive lacks a variable.
	ErrVariableNotFound = errors.New("variable not found")
	// ErrShapeMismatch is returned when array shapes disagree with coordinates.
	ErrShapeMismatch = errors.New("shape mismatch")
)

// Attrs holds string metadata such as units and descriptions.
type Attrs map[string]string

// Clone returns an independent copy of the attributes.
func (a Attrs) Clone() Attrs {
	out := make(Attrs, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Keys returns the attribute names in sorted order.
func (a Attrs) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Coord is a named one-dimensional axis.
type Coord struct {
	Name   string
	Values []float64
	Attrs  Attrs
}

// Len returns the number of labels on the axis.
func (c *Coord) Len() int { return len(c.Values) }

// Variable is a named N-dimensional array whose axes are named by Dims.
type Variable struct {
	Name  string
	Dims  []string
	Data  *sparse.DenseArray
	Attrs Attrs
}

// NewVariable wraps data in a variable after checking that the rank matches dims.
func NewVariable(name string, dims []string, data *sparse.DenseArray, attrs Attrs) (*Variable, error) {
	if data == nil {
		return nil, fmt.Errorf("variable %s: nil data", name)
	}
	if len(data.Shape) != len(dims) {
		return nil, fmt.Errorf("variable %s: %w: data has %d dims, labels %v", name, ErrShapeMismatch, len(data.Shape), dims)
	}
	if attrs == nil {
		attrs = Attrs{}
	}
	return &Variable{Name: name, Dims: dims, Data: data, Attrs: attrs}, nil
}

// DimIndex returns the position of dim in v.Dims, or -1.
func (v *Variable) DimIndex(dim string) int {
	for i, d := range v.Dims {
		if d == dim {
			return i
		}
	}
	return -1
}

// Dataset is an ordered collection of coordinates and variables sharing them.
type Dataset struct {
	Attrs  Attrs
	coords []*Coord
	vars   []*Variable
}

// NewDataset creates an empty dataset with the given global attributes.
func NewDataset(attrs Attrs) *Dataset {
	if attrs == nil {
		attrs = Attrs{}
	}
	return &Dataset{Attrs: attrs}
}

// AddCoord adds or replaces a coordinate.
func (ds *Dataset) AddCoord(c *Coord) {
	if c.Attrs == nil {
		c.Attrs = Attrs{}
	}
	for i, existing := range ds.coords {
		if existing.Name == c.Name {
			ds.coords[i] = c
			return
		}
	}
	ds.coords = append(ds.coords, c)
}

// AddVar adds or replaces a variable. Every dimension of v must name a
// coordinate of the same length.
func (ds *Dataset) AddVar(v *Variable) error {
	for i, dim := range v.Dims {
		c := ds.Coord(dim)
		if c == nil {
			return fmt.Errorf("variable %s: no coordinate for dimension %q", v.Name, dim)
		}
		if c.Len() != v.Data.Shape[i] {
			return fmt.Errorf("variable %s: %w: dimension %q has %d labels, data has %d",
				v.Name, ErrShapeMismatch, dim, c.Len(), v.Data.Shape[i])
		}
	}
	for i, existing := range ds.vars {
		if existing.Name == v.Name {
			ds.vars[i] = v
			return nil
		}
	}
	ds.vars = append(ds.vars, v)
	return nil
}

// Coord returns the named coordinate or nil.
func (ds *Dataset) Coord(name string) *Coord {
	for _, c := range ds.coords {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Coords returns the coordinates in insertion order.
func (ds *Dataset) Coords() []*Coord { return ds.coords }

// Var returns the named variable or nil.
func (ds *Dataset) Var(name string) *Variable {
	for _, v := range ds.vars {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// Vars returns the variables in insertion order.
func (ds *Dataset) Vars() []*Variable { return ds.vars }

// VarNames returns the variable names in insertion order.
func (ds *Dataset) VarNames() []string {
	names := make([]string, len(ds.vars))
	for i, v := range ds.vars {
		names[i] = v.Name
	}
	return names
}

// Shape returns the length of every coordinate keyed by name.
func (ds *Dataset) Shape() map[string]int {
	shape := make(map[string]int, len(ds.coords))
	for _, c := range ds.coords {
		shape[c.Name] = c.Len()
	}
	return shape
}

// Clone deep-copies coordinates, variables and attributes.
func (ds *Dataset) Clone() *Dataset {
	out := NewDataset(ds.Attrs.Clone())
	for _, c := range ds.coords {
		out.coords = append(out.coords, &Coord{
			Name:   c.Name,
			Values: append([]float64(nil), c.Values...),
			Attrs:  c.Attrs.Clone(),
		})
	}
	for _, v := range ds.vars {
		out.vars = append(out.vars, &Variable{
			Name:  v.Name,
			Dims:  append([]string(nil), v.Dims...),
			Data:  v.Data.Copy(),
			Attrs: v.Attrs.Clone(),
		})
	}
	return out
}

// SelRange keeps the labels of dim that fall inside the inclusive window
// [lo, hi], on ascending and descending axes alike. Every variable spanning
// dim is cut to the same indices.
func (ds *Dataset) SelRange(dim string, lo, hi float64) (*Dataset, error) {
	c := ds.Coord(dim)
	if c == nil {
		return nil, fmt.Errorf("failed to select %s: no such coordinate", dim)
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	keep := make([]int, 0, c.Len())
	for i, v := range c.Values {
		if v >= lo && v <= hi {
			keep = append(keep, i)
		}
	}
	return ds.isel(dim, keep), nil
}

// isel returns a copy of ds restricted to the given indices along dim.
func (ds *Dataset) isel(dim string, keep []int) *Dataset {
	out := NewDataset(ds.Attrs.Clone())
	for _, c := range ds.coords {
		if c.Name != dim {
			out.coords = append(out.coords, c)
			continue
		}
		values := make([]float64, len(keep))
		for i, k := range keep {
			values[i] = c.Values[k]
		}
		out.coords = append(out.coords, &Coord{Name: c.Name, Values: values, Attrs: c.Attrs})
	}
	for _, v := range ds.vars {
		axis := v.DimIndex(dim)
		if axis < 0 {
			out.vars = append(out.vars, v)
			continue
		}
		out.vars = append(out.vars, &Variable{
			Name:  v.Name,
			Dims:  v.Dims,
			Data:  takeAxis(v.Data, axis, keep),
			Attrs: v.Attrs,
		})
	}
	return out
}

// takeAxis gathers the given indices of axis from a into a new array.
func takeAxis(a *sparse.DenseArray, axis int, keep []int) *sparse.DenseArray {
	shape := append([]int(nil), a.Shape...)
	shape[axis] = len(keep)
	out := sparse.ZerosDense(shape...)

	outer := 1
	for _, n := range a.Shape[:axis] {
		outer *= n
	}
	inner := 1
	for _, n := range a.Shape[axis+1:] {
		inner *= n
	}
	n := a.Shape[axis]
	for o := 0; o < outer; o++ {
		for j, k := range keep {
			src := (o*n + k) * inner
			dst := (o*len(keep) + j) * inner
			copy(out.Elements[dst:dst+inner], a.Elements[src:src+inner])
		}
	}
	return out
}

// Where sets every lat/lon cell outside the mask to NaN. With drop, latitude
// rows and longitude columns that contain no cell inside the mask are removed.
// The mask must be defined on the dataset's lat and lon coordinates.
func (ds *Dataset) Where(m *Mask, drop bool) (*Dataset, error) {
	lat, lon := ds.Coord(DimLat), ds.Coord(DimLon)
	if lat == nil || lon == nil {
		return nil, fmt.Errorf("failed to apply mask: dataset has no lat/lon coordinates")
	}
	if m.NLat() != lat.Len() || m.NLon() != lon.Len() {
		return nil, fmt.Errorf("failed to apply mask: %w: mask is %dx%d, grid is %dx%d",
			ErrShapeMismatch, m.NLat(), m.NLon(), lat.Len(), lon.Len())
	}

	out := ds.Clone()
	for _, v := range out.vars {
		latAxis, lonAxis := v.DimIndex(DimLat), v.DimIndex(DimLon)
		if latAxis < 0 || lonAxis < 0 {
			continue
		}
		index := make([]int, len(v.Data.Shape))
		for i := range v.Data.Elements {
			unravel(v.Data.Shape, i, index)
			if !m.At(index[latAxis], index[lonAxis]) {
				v.Data.Elements[i] = math.NaN()
			}
		}
	}
	if !drop {
		return out, nil
	}

	rows := make([]int, 0, m.NLat())
	for i := 0; i < m.NLat(); i++ {
		if m.AnyInRow(i) {
			rows = append(rows, i)
		}
	}
	cols := make([]int, 0, m.NLon())
	for j := 0; j < m.NLon(); j++ {
		if m.AnyInColumn(j) {
			cols = append(cols, j)
		}
	}
	return out.isel(DimLat, rows).isel(DimLon, cols), nil
}

// unravel converts a flat row-major index into per-axis indices.
func unravel(shape []int, flat int, index []int) {
	for axis := len(shape) - 1; axis >= 0; axis-- {
		index[axis] = flat % shape[axis]
		flat /= shape[axis]
	}
}
