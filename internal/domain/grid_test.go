package domain

import (
	"math"
	"testing"
)

func TestDefaultTargetGrid(t *testing.T) {
	g := DefaultTargetGrid()
	if err := g.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	lat := g.LatCoord()
	if lat.Len() != 48 {
		t.Fatalf("expected 48 latitudes, got %d", lat.Len())
	}
	if lat.Values[0] != -40 || math.Abs(lat.Values[47]-77.5) > 1e-9 {
		t.Fatalf("unexpected latitude range [%v, %v]", lat.Values[0], lat.Values[47])
	}
	if lat.Attrs["units"] != "degrees_north" {
		t.Fatalf("unexpected lat units %q", lat.Attrs["units"])
	}

	lon := g.LonCoord()
	if lon.Len() != 52 {
		t.Fatalf("expected 52 longitudes, got %d", lon.Len())
	}
	if lon.Values[0] != -90 || math.Abs(lon.Values[51]-37.5) > 1e-9 {
		t.Fatalf("unexpected longitude range [%v, %v]", lon.Values[0], lon.Values[51])
	}
	for i := 1; i < lon.Len(); i++ {
		if math.Abs(lon.Values[i]-lon.Values[i-1]-2.5) > 1e-9 {
			t.Fatalf("uneven spacing at %d: %v", i, lon.Values[i]-lon.Values[i-1])
		}
	}
}

func TestTargetGrid_Validate(t *testing.T) {
	tests := []struct {
		name    string
		grid    TargetGrid
		wantErr bool
	}{
		{"default", DefaultTargetGrid(), false},
		{"zero step", TargetGrid{Lat: Axis{0, 10, 0}, Lon: Axis{0, 10, 1}}, true},
		{"single latitude", TargetGrid{Lat: Axis{0, 1, 2}, Lon: Axis{0, 10, 1}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.grid.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFirstRowColumn(t *testing.T) {
	// lat varies along rows, lon along columns, as in the source archives.
	lat, _ := NewArray([]float64{-1, -1, -1, 0, 0, 0}, 2, 3)
	lon, _ := NewArray([]float64{10, 20, 30, 10, 20, 30}, 2, 3)

	col, err := FirstColumn(lat)
	if err != nil {
		t.Fatalf("FirstColumn: %v", err)
	}
	if len(col) != 2 || col[0] != -1 || col[1] != 0 {
		t.Fatalf("unexpected column %v", col)
	}

	row, err := FirstRow(lon)
	if err != nil {
		t.Fatalf("FirstRow: %v", err)
	}
	if len(row) != 3 || row[0] != 10 || row[2] != 30 {
		t.Fatalf("unexpected row %v", row)
	}

	flat, _ := NewArray([]float64{1, 2}, 2)
	if _, err := FirstRow(flat); err == nil {
		t.Fatal("expected error for 1D array")
	}
}

func TestMonths(t *testing.T) {
	got := Months(2)
	want := []float64{2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Months(2) = %v, want %v", got, want)
		}
	}
	if Months(1)[11] != 12 {
		t.Fatalf("Months(1) should end in December")
	}
}

func TestScaled(t *testing.T) {
	got := Scaled([]float64{-5, 250}, -1)
	if got[0] != 5 || got[1] != -250 {
		t.Fatalf("unexpected %v", got)
	}
}
