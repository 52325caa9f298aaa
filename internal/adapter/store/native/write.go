package native

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/ctessum/cdf"

	"go.ngs.io/oceanprep/internal/adapter/store"
	"go.ngs.io/oceanprep/internal/domain"
)

// Write stores ds as a classic NetCDF-3 file. Data variables are written as
// doubles with a NaN _FillValue.
func (Backend) Write(path string, ds *domain.Dataset) error {
	if err := store.CheckWritable(ds); err != nil {
		return fmt.Errorf("cannot write %s: %w", path, err)
	}

	names := make([]string, 0, len(ds.Coords()))
	lengths := make([]int, 0, len(ds.Coords()))
	for _, c := range ds.Coords() {
		names = append(names, c.Name)
		lengths = append(lengths, c.Len())
	}

	h := cdf.NewHeader(names, lengths)
	for _, c := range ds.Coords() {
		h.AddVariable(c.Name, []string{c.Name}, []float64{0})
		addAttrs(h, c.Name, c.Attrs)
	}
	for _, v := range ds.Vars() {
		h.AddVariable(v.Name, v.Dims, []float64{0})
		h.AddAttribute(v.Name, "_FillValue", []float64{math.NaN()})
		addAttrs(h, v.Name, v.Attrs)
	}
	addAttrs(h, "", ds.Attrs)
	h.Define()

	if errs := h.Check(); len(errs) > 0 {
		return fmt.Errorf("creating %s: %w", path, errors.Join(errs...))
	}

	ff, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	f, err := cdf.Create(ff, h)
	if err != nil {
		ff.Close()
		return fmt.Errorf("creating %s: %w", path, err)
	}

	for _, c := range ds.Coords() {
		if err := writeVar(f, c.Name, c.Values); err != nil {
			ff.Close()
			return fmt.Errorf("writing coordinate %s: %w", c.Name, err)
		}
	}
	for _, v := range ds.Vars() {
		if err := writeVar(f, v.Name, v.Data.Elements); err != nil {
			ff.Close()
			return fmt.Errorf("writing variable %s: %w", v.Name, err)
		}
	}
	if err := cdf.UpdateNumRecs(ff); err != nil {
		ff.Close()
		return fmt.Errorf("finalizing %s: %w", path, err)
	}
	return ff.Close()
}

// writeVar writes the whole extent of a fixed-size variable.
func writeVar(f *cdf.File, name string, values []float64) error {
	end := f.Header.Lengths(name)
	start := make([]int, len(end))
	_, err := f.Writer(name, start, end).Write(values)
	return err
}

// addAttrs copies text attributes; an empty v targets the global list.
func addAttrs(h *cdf.Header, v string, attrs domain.Attrs) {
	for _, k := range attrs.Keys() {
		if k == "_FillValue" || attrs[k] == "" {
			continue
		}
		h.AddAttribute(v, k, attrs[k])
	}
}
