// Package native reads NetCDF and HDF5 archives with a pure Go decoder and
// writes classic NetCDF-3 files, so it needs no C library.
package native

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"

	"go.ngs.io/oceanprep/internal/adapter/store"
	"go.ngs.io/oceanprep/internal/domain"
)

// BackendName is the registry name of this backend.
const BackendName = "native"

func init() {
	store.Register(BackendName, func() store.Backend { return Backend{} })
}

// Backend implements store.Backend without cgo.
type Backend struct{}

// Name implements store.Backend.
func (Backend) Name() string { return BackendName }

// Open implements store.Backend.
func (Backend) Open(path string) (store.Archive, error) {
	g, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return &archive{g: g, path: path}, nil
}

type archive struct {
	g    api.Group
	path string
}

func (a *archive) Variables() []string { return a.g.ListVariables() }

func (a *archive) Variable(name string) (*domain.Variable, error) {
	if !slices.Contains(a.g.ListVariables(), name) {
		return nil, fmt.Errorf("%w: %s in %s", domain.ErrVariableNotFound, name, a.path)
	}
	vg, err := a.g.GetVarGetter(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	raw, err := vg.Values()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	dims := vg.Dimensions()
	values, shape, err := flatten(raw, len(dims))
	if err != nil {
		return nil, fmt.Errorf("variable %s: %w", name, err)
	}
	attrs := vg.Attributes()
	packing(attrs).Decode(values)

	data, err := domain.NewArray(values, shape...)
	if err != nil {
		return nil, err
	}
	return domain.NewVariable(name, dims, data, collectAttrs(attrs))
}

func (a *archive) Attrs() domain.Attrs { return collectAttrs(a.g.Attributes()) }

func (a *archive) Close() error {
	a.g.Close()
	return nil
}

// collectAttrs keeps text attributes verbatim and renders numeric ones as
// space separated values. Packing attributes are left out.
func collectAttrs(m api.AttributeMap) domain.Attrs {
	attrs := domain.Attrs{}
	if m == nil {
		return attrs
	}
	for _, k := range m.Keys() {
		if store.IsPackingAttr(k) {
			continue
		}
		v, ok := m.Get(k)
		if !ok {
			continue
		}
		if s, ok := v.(string); ok {
			attrs[k] = s
			continue
		}
		if vals, ok := numericAttr(m, k); ok {
			attrs[k] = store.FormatNumbers(vals)
		}
	}
	return attrs
}

// packing reads the fill value (_FillValue, else missing_value),
// scale_factor and add_offset from m.
func packing(m api.AttributeMap) store.Packing {
	p := store.NewPacking()
	for _, name := range []string{"_FillValue", "missing_value"} {
		if vals, ok := numericAttr(m, name); ok {
			p.Fill, p.HasFill = vals[0], true
			break
		}
	}
	if vals, ok := numericAttr(m, "scale_factor"); ok {
		p.Scale = vals[0]
	}
	if vals, ok := numericAttr(m, "add_offset"); ok {
		p.Offset = vals[0]
	}
	return p
}

// numericAttr returns attribute name as float64 values. Attributes arrive as
// slices from CDF files and as bare scalars from HDF5 files.
func numericAttr(m api.AttributeMap, name string) ([]float64, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.Get(name)
	if !ok {
		return nil, false
	}
	values, _, err := flatten(v, 1)
	if err != nil || len(values) == 0 {
		values, _, err = flatten(v, 0)
		if err != nil || len(values) == 0 {
			return nil, false
		}
	}
	return values, true
}

// flatten converts the nested slices returned by the decoder into a
// row-major float64 slice and its shape. rank is the number of nesting levels
// expected; rank 0 accepts a bare scalar.
func flatten(raw any, rank int) ([]float64, []int, error) {
	rv := reflect.ValueOf(raw)
	if rank == 0 {
		f, err := toFloat(rv)
		if err != nil {
			return nil, nil, err
		}
		return []float64{f}, []int{1}, nil
	}

	shape := make([]int, rank)
	cur := rv
	for d := 0; d < rank; d++ {
		if cur.Kind() != reflect.Slice {
			return nil, nil, fmt.Errorf("expected %d nested slices, got %s at level %d", rank, cur.Kind(), d)
		}
		shape[d] = cur.Len()
		if cur.Len() == 0 {
			return []float64{}, shape, nil
		}
		cur = cur.Index(0)
	}

	out := make([]float64, 0, product(shape))
	var walk func(v reflect.Value, d int) error
	walk = func(v reflect.Value, d int) error {
		if v.Len() != shape[d] {
			return fmt.Errorf("ragged array at level %d", d)
		}
		for i := 0; i < v.Len(); i++ {
			e := v.Index(i)
			if d == rank-1 {
				f, err := toFloat(e)
				if err != nil {
					return err
				}
				out = append(out, f)
				continue
			}
			if err := walk(e, d+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(rv, 0); err != nil {
		return nil, nil, err
	}
	return out, shape, nil
}

func toFloat(v reflect.Value) (float64, error) {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), nil
	default:
		return 0, fmt.Errorf("non-numeric element of kind %s", v.Kind())
	}
}

func product(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}
