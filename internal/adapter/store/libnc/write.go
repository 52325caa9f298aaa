package libnc

import (
	"fmt"
	"math"

	"github.com/fhs/go-netcdf/netcdf"

	"go.ngs.io/oceanprep/internal/adapter/store"
	"go.ngs.io/oceanprep/internal/domain"
)

// Write creates a NetCDF-4 file holding every coordinate as a 1-D variable
// and every data variable as double precision with a NaN _FillValue.
func (Backend) Write(path string, ds *domain.Dataset) (err error) {
	if err := store.CheckWritable(ds); err != nil {
		return fmt.Errorf("cannot write %s: %w", path, err)
	}

	nc, err := netcdf.CreateFile(path, netcdf.CLOBBER|netcdf.NETCDF4)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := nc.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	dims := make(map[string]netcdf.Dim, len(ds.Coords()))
	coordVars := make([]netcdf.Var, 0, len(ds.Coords()))
	for _, c := range ds.Coords() {
		d, err := nc.AddDim(c.Name, uint64(c.Len()))
		if err != nil {
			return fmt.Errorf("failed to add dimension %s: %w", c.Name, err)
		}
		dims[c.Name] = d
		v, err := nc.AddVar(c.Name, netcdf.DOUBLE, []netcdf.Dim{d})
		if err != nil {
			return fmt.Errorf("failed to add coordinate %s: %w", c.Name, err)
		}
		if err := putTextAttrs(v.Attr, c.Attrs); err != nil {
			return fmt.Errorf("coordinate %s: %w", c.Name, err)
		}
		coordVars = append(coordVars, v)
	}

	dataVars := make([]netcdf.Var, 0, len(ds.Vars()))
	for _, dv := range ds.Vars() {
		vdims := make([]netcdf.Dim, len(dv.Dims))
		for i, name := range dv.Dims {
			vdims[i] = dims[name]
		}
		v, err := nc.AddVar(dv.Name, netcdf.DOUBLE, vdims)
		if err != nil {
			return fmt.Errorf("failed to add variable %s: %w", dv.Name, err)
		}
		if err := v.Attr("_FillValue").WriteFloat64s([]float64{math.NaN()}); err != nil {
			return fmt.Errorf("variable %s: failed to write _FillValue: %w", dv.Name, err)
		}
		if err := putTextAttrs(v.Attr, dv.Attrs); err != nil {
			return fmt.Errorf("variable %s: %w", dv.Name, err)
		}
		dataVars = append(dataVars, v)
	}

	if err := putTextAttrs(nc.Attr, ds.Attrs); err != nil {
		return fmt.Errorf("global attributes: %w", err)
	}
	if err := nc.EndDef(); err != nil {
		return fmt.Errorf("failed to leave define mode: %w", err)
	}

	for i, c := range ds.Coords() {
		if err := coordVars[i].WriteFloat64s(c.Values); err != nil {
			return fmt.Errorf("failed to write coordinate %s: %w", c.Name, err)
		}
	}
	for i, dv := range ds.Vars() {
		if err := dataVars[i].WriteFloat64s(dv.Data.Elements); err != nil {
			return fmt.Errorf("failed to write variable %s: %w", dv.Name, err)
		}
	}
	return nil
}

func putTextAttrs(attr func(string) netcdf.Attr, attrs domain.Attrs) error {
	for _, k := range attrs.Keys() {
		if k == "_FillValue" {
			continue
		}
		if err := attr(k).WriteBytes([]byte(attrs[k])); err != nil {
			return fmt.Errorf("failed to write attribute %s: %w", k, err)
		}
	}
	return nil
}
