// Package interp provides point interpolation and lat/lon regridding.
package interp

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/ctessum/sparse"

	"go.ngs.io/oceanprep/internal/domain"
)

// Method selects how destination cells are derived from source cells.
type Method int

const (
	// Bilinear interpolates between the four surrounding source cells.
	Bilinear Method = iota
	// NearestS2D assigns every destination cell its nearest source cell.
	NearestS2D
)

// ErrUnknownMethod is returned by ParseMethod for unsupported names.
var ErrUnknownMethod = errors.New("unknown regrid method")

func (m Method) String() string {
	switch m {
	case Bilinear:
		return "bilinear"
	case NearestS2D:
		return "nearest_s2d"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// ParseMethod converts a method name into a Method.
func ParseMethod(name string) (Method, error) {
	switch name {
	case "bilinear":
		return Bilinear, nil
	case "nearest_s2d":
		return NearestS2D, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, name)
	}
}

// Axes is a rectilinear lat/lon grid.
type Axes struct {
	Lat *domain.Coord
	Lon *domain.Coord
}

// AxesOf returns the lat/lon axes of a dataset.
func AxesOf(ds *domain.Dataset) (Axes, error) {
	lat, lon := ds.Coord(domain.DimLat), ds.Coord(domain.DimLon)
	if lat == nil || lon == nil {
		return Axes{}, fmt.Errorf("dataset has no lat/lon coordinates")
	}
	return Axes{Lat: lat, Lon: lon}, nil
}

// TargetAxes returns the axes of a target grid.
func TargetAxes(g domain.TargetGrid) Axes {
	return Axes{Lat: g.LatCoord(), Lon: g.LonCoord()}
}

// Stats summarizes a weight matrix.
type Stats struct {
	Weights  int
	Unmapped int
}

// Regridder maps fields between two lat/lon grids through a precomputed
// sparse weight matrix with one row per destination cell and one column
// per source cell.
type Regridder struct {
	method   Method
	periodic bool
	src, dst Axes
	nSrc     int
	nDst     int
	weights  *sparse.SparseArray
	order    []int
	mapped   []bool
}

// NewRegridder computes the weights from src to dst. With periodic,
// longitudes wrap at 360 degrees so that bilinear cells straddle the seam
// between the last and the first source column.
func NewRegridder(method Method, src, dst Axes, periodic bool) (*Regridder, error) {
	if src.Lat.Len() < 2 || src.Lon.Len() < 2 {
		return nil, fmt.Errorf("source grid must be at least 2x2, got %dx%d", src.Lat.Len(), src.Lon.Len())
	}
	srcLat, err := newSortedAxis(src.Lat.Values)
	if err != nil {
		return nil, fmt.Errorf("invalid source latitude: %w", err)
	}
	srcLon, err := newSortedAxis(src.Lon.Values)
	if err != nil {
		return nil, fmt.Errorf("invalid source longitude: %w", err)
	}

	r := &Regridder{
		method:   method,
		periodic: periodic,
		src:      src,
		dst:      dst,
		nSrc:     src.Lat.Len() * src.Lon.Len(),
		nDst:     dst.Lat.Len() * dst.Lon.Len(),
	}
	r.weights = sparse.ZerosSparse(r.nDst, r.nSrc)
	r.mapped = make([]bool, r.nDst)

	for i, y := range dst.Lat.Values {
		for j, x := range dst.Lon.Values {
			d := i*dst.Lon.Len() + j
			switch method {
			case Bilinear:
				r.mapped[d] = r.addBilinear(d, srcLat, srcLon, y, x)
			case NearestS2D:
				r.addNearest(d, srcLat, srcLon, y, x)
				r.mapped[d] = true
			default:
				return nil, fmt.Errorf("%w: %v", ErrUnknownMethod, method)
			}
		}
	}

	r.order = make([]int, 0, len(r.weights.Elements))
	for k := range r.weights.Elements {
		r.order = append(r.order, k)
	}
	sort.Ints(r.order)
	return r, nil
}

// Method returns the interpolation method.
func (r *Regridder) Method() Method { return r.method }

// Stats returns the number of stored weights and unmapped destination cells.
func (r *Regridder) Stats() Stats {
	s := Stats{Weights: len(r.weights.Elements)}
	for _, m := range r.mapped {
		if !m {
			s.Unmapped++
		}
	}
	return s
}

func (r *Regridder) addWeight(d, latIdx, lonIdx int, w float64) {
	if w == 0 {
		return
	}
	r.weights.AddVal(w, d, latIdx*r.src.Lon.Len()+lonIdx)
}

// addBilinear stores the four bilinear weights of destination cell d and
// reports whether the point lies inside the source domain.
func (r *Regridder) addBilinear(d int, lat, lon *sortedAxis, y, x float64) bool {
	j0, j1, u, ok := lat.bracket(y)
	if !ok {
		return false
	}
	i0, i1, t, ok := lon.bracketLon(x, r.periodic)
	if !ok {
		return false
	}
	j0, j1 = lat.index[j0], lat.index[j1]
	i0, i1 = lon.index[i0], lon.index[i1]
	r.addWeight(d, j0, i0, (1-t)*(1-u))
	r.addWeight(d, j0, i1, t*(1-u))
	r.addWeight(d, j1, i0, (1-t)*u)
	r.addWeight(d, j1, i1, t*u)
	return true
}

// addNearest stores a unit weight on the source cell closest to (y, x)
// along the great circle.
func (r *Regridder) addNearest(d int, lat, lon *sortedAxis, y, x float64) {
	latCand := lat.neighbours(y)
	lonCand := lon.neighbours(lon.lonInRange(x))
	lonCand = append(lonCand, 0, len(lon.values)-1)

	best, bestLat, bestLon := math.Inf(1), 0, 0
	for _, a := range latCand {
		for _, b := range lonCand {
			dist := greatCircle(y, x, lat.values[a], lon.values[b])
			if dist < best {
				best, bestLat, bestLon = dist, a, b
			}
		}
	}
	r.addWeight(d, lat.index[bestLat], lon.index[bestLon], 1)
}

// ApplyField regrids one row-major (lat, lon) slab. Unmapped cells are NaN.
func (r *Regridder) ApplyField(src []float64) ([]float64, error) {
	if len(src) != r.nSrc {
		return nil, fmt.Errorf("%w: field has %d values, source grid has %d", domain.ErrShapeMismatch, len(src), r.nSrc)
	}
	out := make([]float64, r.nDst)
	r.applyInto(out, src)
	return out, nil
}

func (r *Regridder) applyInto(out, src []float64) {
	for d := range out {
		if r.mapped[d] {
			out[d] = 0
		} else {
			out[d] = math.NaN()
		}
	}
	for _, k := range r.order {
		d, s := k/r.nSrc, k%r.nSrc
		out[d] += r.weights.Elements[k] * src[s]
	}
}

// ApplyVariable regrids every trailing (lat, lon) slab of v. Leading
// dimensions and attributes are preserved.
func (r *Regridder) ApplyVariable(v *domain.Variable) (*domain.Variable, error) {
	n := len(v.Dims)
	if n < 2 || v.Dims[n-2] != domain.DimLat || v.Dims[n-1] != domain.DimLon {
		return nil, fmt.Errorf("variable %s: trailing dims must be [lat lon], got %v", v.Name, v.Dims)
	}
	if v.Data.Shape[n-2] != r.src.Lat.Len() || v.Data.Shape[n-1] != r.src.Lon.Len() {
		return nil, fmt.Errorf("variable %s: %w: grid is %dx%d, regridder expects %dx%d", v.Name,
			domain.ErrShapeMismatch, v.Data.Shape[n-2], v.Data.Shape[n-1], r.src.Lat.Len(), r.src.Lon.Len())
	}

	shape := append([]int(nil), v.Data.Shape[:n-2]...)
	shape = append(shape, r.dst.Lat.Len(), r.dst.Lon.Len())
	out := sparse.ZerosDense(shape...)

	slabs := len(v.Data.Elements) / r.nSrc
	for k := 0; k < slabs; k++ {
		r.applyInto(out.Elements[k*r.nDst:(k+1)*r.nDst], v.Data.Elements[k*r.nSrc:(k+1)*r.nSrc])
	}
	return domain.NewVariable(v.Name, v.Dims, out, v.Attrs.Clone())
}

// ApplyDataset regrids every variable spanning lat and lon, replaces the
// lat/lon coordinates with the destination axes and keeps all attributes.
func (r *Regridder) ApplyDataset(ds *domain.Dataset) (*domain.Dataset, error) {
	out := domain.NewDataset(ds.Attrs.Clone())
	for _, c := range ds.Coords() {
		switch c.Name {
		case domain.DimLat:
			out.AddCoord(mergeCoord(r.dst.Lat, c))
		case domain.DimLon:
			out.AddCoord(mergeCoord(r.dst.Lon, c))
		default:
			out.AddCoord(c)
		}
	}
	for _, v := range ds.Vars() {
		next := v
		if v.DimIndex(domain.DimLat) >= 0 || v.DimIndex(domain.DimLon) >= 0 {
			var err error
			next, err = r.ApplyVariable(v)
			if err != nil {
				return nil, fmt.Errorf("failed to regrid: %w", err)
			}
		}
		if err := out.AddVar(next); err != nil {
			return nil, fmt.Errorf("failed to regrid: %w", err)
		}
	}
	return out, nil
}

// mergeCoord takes the labels of dst and the attributes of both, dst winning.
func mergeCoord(dst, src *domain.Coord) *domain.Coord {
	attrs := src.Attrs.Clone()
	for k, v := range dst.Attrs {
		attrs[k] = v
	}
	return &domain.Coord{Name: dst.Name, Values: append([]float64(nil), dst.Values...), Attrs: attrs}
}

// sortedAxis is an ascending view of a monotonic axis; index maps sorted
// positions back to positions in the original axis.
type sortedAxis struct {
	values []float64
	index  []int
}

func newSortedAxis(values []float64) (*sortedAxis, error) {
	n := len(values)
	a := &sortedAxis{values: make([]float64, n), index: make([]int, n)}
	descending := n > 1 && values[n-1] < values[0]
	for k := range values {
		src := k
		if descending {
			src = n - 1 - k
		}
		a.values[k] = values[src]
		a.index[k] = src
	}
	if !strictlyIncreasing(a.values) {
		return nil, fmt.Errorf("axis is not strictly monotonic")
	}
	return a, nil
}

// bracket returns the sorted indices enclosing v and the fractional position.
func (a *sortedAxis) bracket(v float64) (int, int, float64, bool) {
	i, ok := bracket(a.values, v)
	if !ok {
		return 0, 0, 0, false
	}
	x0, x1 := a.values[i], a.values[i+1]
	return i, i + 1, (v - x0) / (x1 - x0), true
}

// lonInRange shifts a longitude by multiples of 360 into [first, first+360).
func (a *sortedAxis) lonInRange(x float64) float64 {
	first := a.values[0]
	x = first + math.Mod(x-first, 360)
	if x < first {
		x += 360
	}
	return x
}

// bracketLon is bracket for longitudes, crossing the seam when periodic.
func (a *sortedAxis) bracketLon(x float64, periodic bool) (int, int, float64, bool) {
	x = a.lonInRange(x)
	if i0, i1, t, ok := a.bracket(x); ok {
		return i0, i1, t, true
	}
	last := len(a.values) - 1
	if !periodic {
		return 0, 0, 0, false
	}
	x0, x1 := a.values[last], a.values[0]+360
	if x1 <= x0 {
		return 0, 0, 0, false
	}
	return last, 0, (x - x0) / (x1 - x0), true
}

// neighbours returns the sorted indices adjacent to v.
func (a *sortedAxis) neighbours(v float64) []int {
	i := sort.SearchFloat64s(a.values, v)
	out := make([]int, 0, 2)
	if i > 0 {
		out = append(out, i-1)
	}
	if i < len(a.values) {
		out = append(out, i)
	}
	return out
}

// greatCircle returns the central angle in radians between two points given in degrees.
func greatCircle(lat1, lon1, lat2, lon2 float64) float64 {
	const rad = math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * math.Asin(math.Min(1, math.Sqrt(h)))
}
