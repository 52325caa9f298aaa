package domain

import (
	"errors"
	"math"
	"testing"
)

// newTestDataset builds a (depth, lat, lon) dataset whose values encode their index.
func newTestDataset(t *testing.T, depth, lat, lon []float64) *Dataset {
	t.Helper()
	ds := NewDataset(Attrs{"description": "test"})
	ds.AddCoord(&Coord{Name: DimDepth, Values: depth})
	ds.AddCoord(&Coord{Name: DimLat, Values: lat})
	ds.AddCoord(&Coord{Name: DimLon, Values: lon})

	values := make([]float64, len(depth)*len(lat)*len(lon))
	for i := range values {
		values[i] = float64(i)
	}
	data, err := NewArray(values, len(depth), len(lat), len(lon))
	if err != nil {
		t.Fatalf("NewArray: %v", err)
	}
	v, err := NewVariable("x", []string{DimDepth, DimLat, DimLon}, data, Attrs{"units": "1"})
	if err != nil {
		t.Fatalf("NewVariable: %v", err)
	}
	if err := ds.AddVar(v); err != nil {
		t.Fatalf("AddVar: %v", err)
	}
	return ds
}

func TestAddVar_ShapeMismatch(t *testing.T) {
	ds := NewDataset(nil)
	ds.AddCoord(&Coord{Name: DimLat, Values: []float64{0, 1, 2}})
	data, _ := NewArray(make([]float64, 2), 2)
	v, err := NewVariable("bad", []string{DimLat}, data, nil)
	if err != nil {
		t.Fatalf("NewVariable: %v", err)
	}
	if err := ds.AddVar(v); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestAddVar_MissingCoord(t *testing.T) {
	ds := NewDataset(nil)
	data, _ := NewArray(make([]float64, 2), 2)
	v, _ := NewVariable("orphan", []string{DimDepth}, data, nil)
	if err := ds.AddVar(v); err == nil {
		t.Fatal("expected error for missing coordinate")
	}
}

func TestNewArray_KeepsBackingSlice(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6}
	a, err := NewArray(values, 2, 3)
	if err != nil {
		t.Fatalf("NewArray: %v", err)
	}
	values[0] = 42
	if a.Get(0, 0) != 42 {
		t.Fatalf("expected array to share backing slice, got %v", a.Get(0, 0))
	}
	if _, err := NewArray(values, 4, 4); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestSelRange(t *testing.T) {
	tests := []struct {
		name   string
		depth  []float64
		lo, hi float64
		want   []float64
	}{
		{"ascending", []float64{5, 100, 500, 800, 1200}, 0, 800, []float64{5, 100, 500, 800}},
		{"descending", []float64{1200, 800, 500, 100, 5}, 0, 800, []float64{800, 500, 100, 5}},
		{"swapped bounds", []float64{5, 100, 500}, 600, 0, []float64{5, 100, 500}},
		{"empty", []float64{900, 1000}, 0, 800, []float64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := newTestDataset(t, tt.depth, []float64{0, 1}, []float64{10, 20, 30})
			out, err := ds.SelRange(DimDepth, tt.lo, tt.hi)
			if err != nil {
				t.Fatalf("SelRange: %v", err)
			}
			got := out.Coord(DimDepth).Values
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("expected %v, got %v", tt.want, got)
				}
			}
			v := out.Var("x")
			if v.Data.Shape[0] != len(tt.want) {
				t.Fatalf("variable not cut: shape %v", v.Data.Shape)
			}
			// The source dataset is untouched.
			if ds.Coord(DimDepth).Len() != len(tt.depth) {
				t.Fatalf("source coordinate was modified")
			}
		})
	}
}

func TestSelRange_KeepsValuesAligned(t *testing.T) {
	ds := newTestDataset(t, []float64{0, 10, 20}, []float64{0, 1}, []float64{0, 1})
	out, err := ds.SelRange(DimDepth, 10, 20)
	if err != nil {
		t.Fatalf("SelRange: %v", err)
	}
	v := out.Var("x")
	// depth index 1 in the source starts at flat index 4.
	if got := v.Data.Get(0, 0, 0); got != 4 {
		t.Fatalf("expected 4, got %v", got)
	}
	if got := v.Data.Get(1, 1, 1); got != 11 {
		t.Fatalf("expected 11, got %v", got)
	}
}

func TestSelRange_UnknownDim(t *testing.T) {
	ds := newTestDataset(t, []float64{0}, []float64{0, 1}, []float64{0, 1})
	if _, err := ds.SelRange("time", 0, 1); err == nil {
		t.Fatal("expected error for unknown dimension")
	}
}

func TestWhere_Drop(t *testing.T) {
	ds := newTestDataset(t, []float64{0, 10}, []float64{-10, 0, 10}, []float64{0, 5, 10, 15})

	m := NewMask(3, 4)
	m.Set(1, 1, true)
	m.Set(1, 2, true)
	m.Set(2, 2, true)

	out, err := ds.Where(m, true)
	if err != nil {
		t.Fatalf("Where: %v", err)
	}

	lat := out.Coord(DimLat).Values
	lon := out.Coord(DimLon).Values
	if len(lat) != 2 || lat[0] != 0 || lat[1] != 10 {
		t.Fatalf("unexpected lat after drop: %v", lat)
	}
	if len(lon) != 2 || lon[0] != 5 || lon[1] != 10 {
		t.Fatalf("unexpected lon after drop: %v", lon)
	}

	v := out.Var("x")
	if v.Data.Shape[1] != 2 || v.Data.Shape[2] != 2 {
		t.Fatalf("unexpected shape: %v", v.Data.Shape)
	}
	// (lat=0, lon=5) is inside: source flat index 0*12 + 1*4 + 1 = 5.
	if got := v.Data.Get(0, 0, 0); got != 5 {
		t.Fatalf("expected 5, got %v", got)
	}
	// (lat=10, lon=5) is outside the mask but kept by the row/column rule.
	if got := v.Data.Get(0, 1, 0); !math.IsNaN(got) {
		t.Fatalf("expected NaN outside mask, got %v", got)
	}
	if got := v.Data.Get(1, 1, 1); got != 12+2*4+2 {
		t.Fatalf("expected %d, got %v", 12+2*4+2, got)
	}
}

func TestWhere_NoDropKeepsGrid(t *testing.T) {
	ds := newTestDataset(t, []float64{0}, []float64{0, 1}, []float64{0, 1})
	m := NewMask(2, 2)
	m.Set(0, 0, true)

	out, err := ds.Where(m, false)
	if err != nil {
		t.Fatalf("Where: %v", err)
	}
	v := out.Var("x")
	if v.Data.Shape[1] != 2 || v.Data.Shape[2] != 2 {
		t.Fatalf("grid should not shrink without drop: %v", v.Data.Shape)
	}
	if !math.IsNaN(v.Data.Get(0, 1, 1)) {
		t.Fatalf("expected NaN at (1,1)")
	}
	if ds.Var("x").Data.Get(0, 1, 1) != 3 {
		t.Fatalf("source dataset was modified")
	}
}

func TestWhere_ShapeMismatch(t *testing.T) {
	ds := newTestDataset(t, []float64{0}, []float64{0, 1}, []float64{0, 1})
	if _, err := ds.Where(NewMask(3, 2), true); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestMaskFromField(t *testing.T) {
	data, _ := NewArray([]float64{0, 1, math.NaN(), 3}, 2, 2)
	v, _ := NewVariable("atlantic", []string{DimLat, DimLon}, data, nil)
	m, err := MaskFromField(v, Positive)
	if err != nil {
		t.Fatalf("MaskFromField: %v", err)
	}
	if m.At(0, 0) || !m.At(0, 1) || m.At(1, 0) || !m.At(1, 1) {
		t.Fatalf("unexpected mask cells")
	}
	if m.Count() != 2 {
		t.Fatalf("expected 2 cells, got %d", m.Count())
	}

	bad, _ := NewVariable("atlantic", []string{DimLon, DimLat}, data, nil)
	if _, err := MaskFromField(bad, Positive); err == nil {
		t.Fatal("expected error for transposed mask")
	}
}
