package usecase

import (
	"errors"
	"fmt"
	"strings"

	"go.ngs.io/oceanprep/internal/adapter/store"
	"go.ngs.io/oceanprep/internal/config"
	"go.ngs.io/oceanprep/internal/domain"
)

// ErrUnknownProduct is returned when a product name is not configured.
var ErrUnknownProduct = errors.New("unknown product")

// Product names.
const (
	SeawaterName = "seawater"
	PlafomName   = "plafom"
)

// Opener opens a source archive; it is normally Backend.Open.
type Opener func(path string) (store.Archive, error)

// Product is the recipe for one prepared dataset.
type Product struct {
	Name   string
	Inputs []string
	Output string

	// Depth is the inclusive window kept before regridding.
	Depth config.DepthWindow

	// RegridPeriodic wraps source longitudes during bilinear regridding.
	RegridPeriodic bool

	// MaskPeriodic is the periodic flag of the mask regrid. NearestS2D
	// always wraps longitude, so it only shows up in the step log.
	MaskPeriodic bool

	// Build reads the inputs and relabels them into a dataset with
	// month, depth, lat and lon coordinates.
	Build func(open Opener) (*domain.Dataset, error)
}

// Products returns every configured product in preparation order.
func Products(cfg *config.Config) []Product {
	return []Product{SeawaterProduct(cfg), PlafomProduct(cfg)}
}

// ProductByName looks up a configured product.
func ProductByName(cfg *config.Config, name string) (Product, error) {
	names := make([]string, 0, 2)
	for _, p := range Products(cfg) {
		if p.Name == name {
			return p, nil
		}
		names = append(names, p.Name)
	}
	return Product{}, fmt.Errorf("%w: %q (expected one of %s)", ErrUnknownProduct, name, strings.Join(names, ", "))
}

// readVars opens path and reads the named variables in order.
func readVars(open Opener, path string, names ...string) ([]*domain.Variable, domain.Attrs, error) {
	a, err := open(path)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = a.Close() }()

	vars := make([]*domain.Variable, len(names))
	for i, name := range names {
		if vars[i], err = a.Variable(name); err != nil {
			return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}
	return vars, a.Attrs(), nil
}

// relabel wraps the payload of src under a new name and dims without copying it.
func relabel(src *domain.Variable, name string, dims []string, attrs domain.Attrs) (*domain.Variable, error) {
	v, err := domain.NewVariable(name, dims, src.Data, attrs)
	if err != nil {
		return nil, fmt.Errorf("failed to relabel %s as %s: %w", src.Name, name, err)
	}
	return v, nil
}

var gridDims = []string{domain.DimMonth, domain.DimDepth, domain.DimLat, domain.DimLon}

func latCoord(values []float64) *domain.Coord {
	return &domain.Coord{Name: domain.DimLat, Values: values, Attrs: domain.Attrs{"units": "degrees_north"}}
}

func lonCoord(values []float64) *domain.Coord {
	return &domain.Coord{Name: domain.DimLon, Values: values, Attrs: domain.Attrs{"units": "degrees_east"}}
}

func depthCoord(values []float64) *domain.Coord {
	return &domain.Coord{Name: domain.DimDepth, Values: values, Attrs: domain.Attrs{"units": "m", "positive": "down"}}
}
