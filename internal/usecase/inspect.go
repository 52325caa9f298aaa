package usecase

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"go.ngs.io/oceanprep/internal/adapter/interp"
	"go.ngs.io/oceanprep/internal/adapter/store"
	"go.ngs.io/oceanprep/internal/domain"
)

var (
	// ErrNotPrepared is returned when a product's output cannot be opened.
	ErrNotPrepared = errors.New("product has not been prepared")

	// ErrOutsideGrid is returned for profile requests outside the prepared grid.
	ErrOutsideGrid = errors.New("point is outside the prepared grid")
)

// ProductInfo lists a configured product and whether its output exists.
type ProductInfo struct {
	Name     string   `json:"name"`
	Inputs   []string `json:"inputs"`
	Output   string   `json:"output"`
	Prepared bool     `json:"prepared"`
}

// CoordSummary describes one coordinate of a prepared dataset.
type CoordSummary struct {
	Name  string       `json:"name"`
	Size  int          `json:"size"`
	Min   float64      `json:"min"`
	Max   float64      `json:"max"`
	Attrs domain.Attrs `json:"attrs"`
}

// VariableSummary describes one variable of a prepared dataset.
type VariableSummary struct {
	Name  string       `json:"name"`
	Dims  []string     `json:"dims"`
	Valid int          `json:"valid"`
	Attrs domain.Attrs `json:"attrs"`
}

// Description is the metadata of a prepared dataset.
type Description struct {
	Product   string            `json:"product"`
	Attrs     domain.Attrs      `json:"attrs"`
	Coords    []CoordSummary    `json:"coords"`
	Variables []VariableSummary `json:"variables"`
}

// Profile holds bilinear point values per depth; nil marks a missing value.
type Profile struct {
	Product string                `json:"product"`
	Lat     float64               `json:"lat"`
	Lon     float64               `json:"lon"`
	Month   int                   `json:"month"`
	Depth   []float64             `json:"depth"`
	Values  map[string][]*float64 `json:"values"`
}

// InspectUseCase reads prepared outputs and caches the decoded datasets.
type InspectUseCase struct {
	backend  store.Backend
	products []Product

	mu    sync.RWMutex
	cache map[string]*domain.Dataset
}

// NewInspectUseCase creates an inspector over the given products.
func NewInspectUseCase(backend store.Backend, products []Product) *InspectUseCase {
	return &InspectUseCase{
		backend:  backend,
		products: products,
		cache:    make(map[string]*domain.Dataset),
	}
}

// Products lists the configured products.
func (uc *InspectUseCase) Products() []ProductInfo {
	out := make([]ProductInfo, 0, len(uc.products))
	for _, p := range uc.products {
		info := ProductInfo{Name: p.Name, Inputs: p.Inputs, Output: p.Output}
		if a, err := uc.backend.Open(p.Output); err == nil {
			info.Prepared = true
			_ = a.Close()
		}
		out = append(out, info)
	}
	return out
}

// Dataset returns the decoded output of a product.
func (uc *InspectUseCase) Dataset(name string) (*domain.Dataset, error) {
	uc.mu.RLock()
	ds, ok := uc.cache[name]
	uc.mu.RUnlock()
	if ok {
		return ds, nil
	}

	p, err := uc.product(name)
	if err != nil {
		return nil, err
	}
	a, err := uc.backend.Open(p.Output)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotPrepared, name, err)
	}
	defer func() { _ = a.Close() }()
	ds, err = store.ReadDataset(a)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", p.Output, err)
	}

	uc.mu.Lock()
	uc.cache[name] = ds
	uc.mu.Unlock()
	return ds, nil
}

// Invalidate drops a cached dataset so that the next call re-reads it.
func (uc *InspectUseCase) Invalidate(name string) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	delete(uc.cache, name)
}

// Describe summarizes the coordinates and variables of a prepared product.
func (uc *InspectUseCase) Describe(name string) (*Description, error) {
	ds, err := uc.Dataset(name)
	if err != nil {
		return nil, err
	}
	d := &Description{Product: name, Attrs: ds.Attrs}
	for _, c := range ds.Coords() {
		s := CoordSummary{Name: c.Name, Size: c.Len(), Attrs: c.Attrs}
		if c.Len() > 0 {
			s.Min, s.Max = c.Values[0], c.Values[0]
			for _, v := range c.Values {
				s.Min = math.Min(s.Min, v)
				s.Max = math.Max(s.Max, v)
			}
		}
		d.Coords = append(d.Coords, s)
	}
	for _, v := range ds.Vars() {
		valid := 0
		for _, x := range v.Data.Elements {
			if !math.IsNaN(x) {
				valid++
			}
		}
		d.Variables = append(d.Variables, VariableSummary{Name: v.Name, Dims: v.Dims, Valid: valid, Attrs: v.Attrs})
	}
	return d, nil
}

// Profile interpolates every (month, depth, lat, lon) variable at one point
// for one calendar month, returning one value per depth level.
func (uc *InspectUseCase) Profile(name string, lat, lon float64, month int) (*Profile, error) {
	ds, err := uc.Dataset(name)
	if err != nil {
		return nil, err
	}
	months, depth := ds.Coord(domain.DimMonth), ds.Coord(domain.DimDepth)
	lats, lons := ds.Coord(domain.DimLat), ds.Coord(domain.DimLon)
	if months == nil || depth == nil || lats == nil || lons == nil {
		return nil, fmt.Errorf("product %s lacks month/depth/lat/lon coordinates", name)
	}

	mi := -1
	for i, m := range months.Values {
		if int(m) == month {
			mi = i
			break
		}
	}
	if mi < 0 {
		return nil, fmt.Errorf("month %d not found in %s", month, name)
	}

	prof := &Profile{
		Product: name,
		Lat:     lat,
		Lon:     lon,
		Month:   month,
		Depth:   depth.Values,
		Values:  make(map[string][]*float64),
	}
	nLat, nLon := lats.Len(), lons.Len()
	slab := nLat * nLon
	for _, v := range ds.Vars() {
		if len(v.Dims) != 4 || v.DimIndex(domain.DimMonth) != 0 || v.DimIndex(domain.DimDepth) != 1 {
			continue
		}
		values := make([]*float64, depth.Len())
		for k := range values {
			off := (mi*depth.Len() + k) * slab
			grid, err := interp.NewGrid2D(lons.Values, lats.Values, v.Data.Elements[off:off+slab])
			if err != nil {
				return nil, fmt.Errorf("failed to interpolate %s: %w", v.Name, err)
			}
			val, err := grid.InterpolateAt(lon, lat)
			if err != nil {
				return nil, fmt.Errorf("%w: (%.3f, %.3f)", ErrOutsideGrid, lat, lon)
			}
			if !math.IsNaN(val) {
				values[k] = &val
			}
		}
		prof.Values[v.Name] = values
	}
	return prof, nil
}

func (uc *InspectUseCase) product(name string) (Product, error) {
	for _, p := range uc.products {
		if p.Name == name {
			return p, nil
		}
	}
	return Product{}, fmt.Errorf("%w: %q", ErrUnknownProduct, name)
}
