// Package store defines how gridded archives are opened and persisted.
package store

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"go.ngs.io/oceanprep/internal/domain"
)

// ErrUnknownBackend is returned by NewBackend for unsupported backend names.
var ErrUnknownBackend = errors.New("unknown storage backend")

// Archive is an open gridded data file.
type Archive interface {
	// Variables lists the variable names in file order.
	Variables() []string

	// Variable reads a variable with its file dimension names. Fill values
	// are decoded as NaN.
	Variable(name string) (*domain.Variable, error)

	// Attrs returns the global text attributes.
	Attrs() domain.Attrs

	// Close releases the underlying file.
	Close() error
}

// Backend opens archives and writes prepared datasets.
type Backend interface {
	Name() string
	Open(path string) (Archive, error)
	Write(path string, ds *domain.Dataset) error
}

// Factory builds a backend; registered by the backend packages.
type Factory func() Backend

var factories = map[string]Factory{}

// Register makes a backend available to NewBackend.
func Register(name string, f Factory) {
	factories[name] = f
}

// NewBackend returns the backend registered under name.
func NewBackend(name string) (Backend, error) {
	f, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
	return f(), nil
}

// Backends lists the registered backend names in sorted order.
func Backends() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ReadDataset reads every variable of an archive whose dimensions all have
// one-dimensional coordinate variables of the same name.
func ReadDataset(a Archive) (*domain.Dataset, error) {
	ds := domain.NewDataset(a.Attrs())
	vars := make([]*domain.Variable, 0)
	for _, name := range a.Variables() {
		v, err := a.Variable(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		if len(v.Dims) == 1 && v.Dims[0] == name {
			ds.AddCoord(&domain.Coord{Name: name, Values: v.Data.Elements, Attrs: v.Attrs})
			continue
		}
		vars = append(vars, v)
	}
	for _, v := range vars {
		if err := ds.AddVar(v); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", v.Name, err)
		}
	}
	return ds, nil
}

// CheckWritable reports datasets that cannot be persisted: NetCDF treats a
// zero-length dimension as the unlimited record dimension.
func CheckWritable(ds *domain.Dataset) error {
	for _, c := range ds.Coords() {
		if c.Len() == 0 {
			return fmt.Errorf("dimension %q is empty", c.Name)
		}
	}
	for _, v := range ds.Vars() {
		if len(v.Dims) == 0 {
			return fmt.Errorf("variable %s has no dimensions", v.Name)
		}
	}
	return nil
}

// Packing holds the CF attributes that map stored values to physical ones.
type Packing struct {
	Fill    float64
	HasFill bool
	Scale   float64
	Offset  float64
}

// NewPacking returns the identity packing.
func NewPacking() Packing {
	return Packing{Scale: 1}
}

// Decode replaces fill values with NaN, then applies scale_factor and
// add_offset in place.
func (p Packing) Decode(values []float64) {
	for i, v := range values {
		if p.HasFill && v == p.Fill {
			values[i] = math.NaN()
			continue
		}
		values[i] = v*p.Scale + p.Offset
	}
}

// IsPackingAttr reports attributes consumed by Decode; readers drop them
// from the decoded variable.
func IsPackingAttr(name string) bool {
	switch name {
	case "_FillValue", "missing_value", "scale_factor", "add_offset":
		return true
	}
	return false
}

// FormatNumbers renders a numeric attribute as space separated text.
func FormatNumbers(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, " ")
}
