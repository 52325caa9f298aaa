// Package libnc reads and writes NetCDF archives through the netCDF-C library.
package libnc

import (
	"fmt"

	"github.com/fhs/go-netcdf/netcdf"

	"go.ngs.io/oceanprep/internal/adapter/store"
	"go.ngs.io/oceanprep/internal/domain"
)

// BackendName is the registry name of this backend.
const BackendName = "netcdf"

func init() {
	store.Register(BackendName, func() store.Backend { return Backend{} })
}

// Backend implements store.Backend on top of libnetcdf.
type Backend struct{}

// Name implements store.Backend.
func (Backend) Name() string { return BackendName }

// Open opens a NetCDF-3 or NetCDF-4 file read-only.
func (Backend) Open(path string) (store.Archive, error) {
	nc, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("failed to open NetCDF file %s: %w", path, err)
	}
	return &archive{nc: nc, path: path}, nil
}

type archive struct {
	nc   netcdf.Dataset
	path string
}

func (a *archive) Variables() []string {
	n, err := a.nc.NVars()
	if err != nil {
		return nil
	}
	names := make([]string, 0, n)
	for i := 0; i < n; i++ {
		name, err := a.nc.VarN(i).Name()
		if err != nil {
			continue
		}
		names = append(names, name)
	}
	return names
}

func (a *archive) Variable(name string) (*domain.Variable, error) {
	v, err := a.nc.Var(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s in %s", domain.ErrVariableNotFound, name, a.path)
	}

	dims, err := v.Dims()
	if err != nil {
		return nil, fmt.Errorf("failed to get dimensions: %w", err)
	}
	names := make([]string, len(dims))
	shape := make([]int, len(dims))
	total := 1
	for i, d := range dims {
		if names[i], err = d.Name(); err != nil {
			return nil, fmt.Errorf("failed to get dimension name: %w", err)
		}
		n, err := d.Len()
		if err != nil {
			return nil, fmt.Errorf("failed to get dimension length: %w", err)
		}
		shape[i] = int(n)
		total *= int(n)
	}

	values, err := readFloat64s(v, total)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	packing(v).Decode(values)

	nattrs, err := v.NAttrs()
	if err != nil {
		return nil, fmt.Errorf("failed to count attributes of %s: %w", name, err)
	}
	attrs := collectAttrs(nattrs, v.AttrN)

	data, err := domain.NewArray(values, shape...)
	if err != nil {
		return nil, err
	}
	return domain.NewVariable(name, names, data, attrs)
}

func (a *archive) Attrs() domain.Attrs {
	n, err := a.nc.NAttrs()
	if err != nil {
		return domain.Attrs{}
	}
	return collectAttrs(n, a.nc.AttrN)
}

func (a *archive) Close() error {
	return a.nc.Close()
}

// collectAttrs gathers text attributes verbatim and numeric ones as space
// separated values. Packing attributes are left out.
func collectAttrs(n int, attrN func(int) (netcdf.Attr, error)) domain.Attrs {
	attrs := domain.Attrs{}
	for i := 0; i < n; i++ {
		a, err := attrN(i)
		if err != nil || store.IsPackingAttr(a.Name()) {
			continue
		}
		t, err := a.Type()
		if err != nil {
			continue
		}
		if t != netcdf.CHAR {
			if vals, ok := readAttrFloat64s(a); ok {
				attrs[a.Name()] = store.FormatNumbers(vals)
			}
			continue
		}
		length, err := a.Len()
		if err != nil {
			continue
		}
		buf := make([]byte, length)
		if err := a.ReadBytes(buf); err != nil {
			continue
		}
		attrs[a.Name()] = trimNUL(buf)
	}
	return attrs
}

func trimNUL(b []byte) string {
	for len(b) > 0 && b[len(b)-1] == 0 {
		b = b[:len(b)-1]
	}
	return string(b)
}

// packing reads the fill value (_FillValue, else missing_value),
// scale_factor and add_offset of v.
func packing(v netcdf.Var) store.Packing {
	p := store.NewPacking()
	for _, name := range []string{"_FillValue", "missing_value"} {
		if vals, ok := readAttrFloat64s(v.Attr(name)); ok {
			p.Fill, p.HasFill = vals[0], true
			break
		}
	}
	if vals, ok := readAttrFloat64s(v.Attr("scale_factor")); ok {
		p.Scale = vals[0]
	}
	if vals, ok := readAttrFloat64s(v.Attr("add_offset")); ok {
		p.Offset = vals[0]
	}
	return p
}

// readAttrFloat64s reads a numeric attribute of any type as float64. It
// reports false for missing, empty or text attributes.
func readAttrFloat64s(a netcdf.Attr) ([]float64, bool) {
	n, err := a.Len()
	if err != nil || n == 0 {
		return nil, false
	}
	t, err := a.Type()
	if err != nil {
		return nil, false
	}
	var out []float64
	switch t {
	case netcdf.DOUBLE:
		out = make([]float64, n)
		err = a.ReadFloat64s(out)
	case netcdf.FLOAT:
		buf := make([]float32, n)
		err = a.ReadFloat32s(buf)
		out = widen(buf)
	case netcdf.INT:
		buf := make([]int32, n)
		err = a.ReadInt32s(buf)
		out = widen(buf)
	case netcdf.SHORT:
		buf := make([]int16, n)
		err = a.ReadInt16s(buf)
		out = widen(buf)
	case netcdf.BYTE:
		buf := make([]int8, n)
		err = a.ReadInt8s(buf)
		out = widen(buf)
	case netcdf.UBYTE:
		buf := make([]uint8, n)
		err = a.ReadUint8s(buf)
		out = widen(buf)
	case netcdf.USHORT:
		buf := make([]uint16, n)
		err = a.ReadUint16s(buf)
		out = widen(buf)
	case netcdf.UINT:
		buf := make([]uint32, n)
		err = a.ReadUint32s(buf)
		out = widen(buf)
	case netcdf.INT64:
		buf := make([]int64, n)
		err = a.ReadInt64s(buf)
		out = widen(buf)
	case netcdf.UINT64:
		buf := make([]uint64, n)
		err = a.ReadUint64s(buf)
		out = widen(buf)
	default:
		return nil, false
	}
	if err != nil {
		return nil, false
	}
	return out, true
}

// readFloat64s reads a whole variable of any numeric type as float64.
func readFloat64s(v netcdf.Var, total int) ([]float64, error) {
	t, err := v.Type()
	if err != nil {
		return nil, fmt.Errorf("failed to get var type: %w", err)
	}
	switch t {
	case netcdf.DOUBLE:
		data := make([]float64, total)
		if err := v.ReadFloat64s(data); err != nil {
			return nil, err
		}
		return data, nil
	case netcdf.FLOAT:
		tmp := make([]float32, total)
		if err := v.ReadFloat32s(tmp); err != nil {
			return nil, err
		}
		return widen(tmp), nil
	case netcdf.INT:
		tmp := make([]int32, total)
		if err := v.ReadInt32s(tmp); err != nil {
			return nil, err
		}
		return widen(tmp), nil
	case netcdf.SHORT:
		tmp := make([]int16, total)
		if err := v.ReadInt16s(tmp); err != nil {
			return nil, err
		}
		return widen(tmp), nil
	case netcdf.BYTE:
		tmp := make([]int8, total)
		if err := v.ReadInt8s(tmp); err != nil {
			return nil, err
		}
		return widen(tmp), nil
	case netcdf.UBYTE:
		tmp := make([]uint8, total)
		if err := v.ReadUint8s(tmp); err != nil {
			return nil, err
		}
		return widen(tmp), nil
	case netcdf.USHORT:
		tmp := make([]uint16, total)
		if err := v.ReadUint16s(tmp); err != nil {
			return nil, err
		}
		return widen(tmp), nil
	case netcdf.UINT:
		tmp := make([]uint32, total)
		if err := v.ReadUint32s(tmp); err != nil {
			return nil, err
		}
		return widen(tmp), nil
	case netcdf.INT64:
		tmp := make([]int64, total)
		if err := v.ReadInt64s(tmp); err != nil {
			return nil, err
		}
		return widen(tmp), nil
	case netcdf.UINT64:
		tmp := make([]uint64, total)
		if err := v.ReadUint64s(tmp); err != nil {
			return nil, err
		}
		return widen(tmp), nil
	default:
		return nil, fmt.Errorf("unsupported var type: %v", t)
	}
}

type number interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64 | ~float32
}

func widen[T number](in []T) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}
