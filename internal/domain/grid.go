package domain

import (
	"fmt"
	"math"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
)

// Axis is an arange-style axis definition: Start inclusive, Stop exclusive.
type Axis struct {
	Start float64 `toml:"start"`
	Stop  float64 `toml:"stop"`
	Step  float64 `toml:"step"`
}

// Values expands the axis into its labels.
func (a Axis) Values() []float64 {
	if a.Step == 0 {
		return nil
	}
	n := int(math.Ceil((a.Stop - a.Start) / a.Step))
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{a.Start}
	}
	return floats.Span(make([]float64, n), a.Start, a.Start+float64(n-1)*a.Step)
}

// TargetGrid is the common lat/lon grid every product is regridded onto.
type TargetGrid struct {
	Lat Axis `toml:"lat"`
	Lon Axis `toml:"lon"`
}

// DefaultTargetGrid returns the 2.5 degree North/Central Atlantic grid.
func DefaultTargetGrid() TargetGrid {
	return TargetGrid{
		Lat: Axis{Start: -40, Stop: 80, Step: 2.5},
		Lon: Axis{Start: -90, Stop: 40, Step: 2.5},
	}
}

// Validate checks that both axes produce at least two labels.
func (g TargetGrid) Validate() error {
	if g.Lat.Step <= 0 || g.Lon.Step <= 0 {
		return fmt.Errorf("grid step must be positive (lat %.3f, lon %.3f)", g.Lat.Step, g.Lon.Step)
	}
	if len(g.Lat.Values()) < 2 || len(g.Lon.Values()) < 2 {
		return fmt.Errorf("grid must have at least 2 latitudes and 2 longitudes")
	}
	return nil
}

// LatCoord returns the latitude coordinate of the grid.
func (g TargetGrid) LatCoord() *Coord {
	return &Coord{Name: DimLat, Values: g.Lat.Values(), Attrs: Attrs{"units": "degrees_north"}}
}

// LonCoord returns the longitude coordinate of the grid.
func (g TargetGrid) LonCoord() *Coord {
	return &Coord{Name: DimLon, Values: g.Lon.Values(), Attrs: Attrs{"units": "degrees_east"}}
}

// NewArray wraps values in a dense array of the given shape without copying.
func NewArray(values []float64, shape ...int) (*sparse.DenseArray, error) {
	a := sparse.ZerosDense(shape...)
	if len(a.Elements) != len(values) {
		return nil, fmt.Errorf("%w: %d values for shape %v", ErrShapeMismatch, len(values), shape)
	}
	a.Elements = values
	return a, nil
}

// FirstColumn returns a[:, 0] of a 2-D array.
func FirstColumn(a *sparse.DenseArray) ([]float64, error) {
	if len(a.Shape) != 2 {
		return nil, fmt.Errorf("expected 2D array, got %dD", len(a.Shape))
	}
	out := make([]float64, a.Shape[0])
	for i := range out {
		out[i] = a.Elements[i*a.Shape[1]]
	}
	return out, nil
}

// FirstRow returns a[0, :] of a 2-D array.
func FirstRow(a *sparse.DenseArray) ([]float64, error) {
	if len(a.Shape) != 2 {
		return nil, fmt.Errorf("expected 2D array, got %dD", len(a.Shape))
	}
	return append([]float64(nil), a.Elements[:a.Shape[1]]...), nil
}

// Scaled returns values multiplied by f.
func Scaled(values []float64, f float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v * f
	}
	return out
}

// Months returns the 12 calendar month numbers starting at first (1-12).
func Months(first int) []float64 {
	out := make([]float64, 12)
	for i := range out {
		out[i] = float64((first-1+i)%12 + 1)
	}
	return out
}
