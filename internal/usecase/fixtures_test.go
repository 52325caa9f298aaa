package usecase

import (
	"testing"

	"go.ngs.io/oceanprep/internal/adapter/store"
	"go.ngs.io/oceanprep/internal/config"
	"go.ngs.io/oceanprep/internal/domain"
)

// Source grid shared by the synthetic inputs: 5 degree cells, lon 0..355.
var (
	srcLat = steps(-60, 5, 30)
	srcLon = steps(0, 5, 72)
)

func steps(start, step float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func indexCoord(name string, n int) *domain.Coord {
	return &domain.Coord{Name: name, Values: steps(0, 1, n), Attrs: domain.Attrs{}}
}

func mustVar(t *testing.T, name string, dims []string, values []float64, shape ...int) *domain.Variable {
	t.Helper()
	data, err := domain.NewArray(values, shape...)
	if err != nil {
		t.Fatalf("NewArray %s: %v", name, err)
	}
	v, err := domain.NewVariable(name, dims, data, nil)
	if err != nil {
		t.Fatalf("NewVariable %s: %v", name, err)
	}
	return v
}

func mustAdd(t *testing.T, ds *domain.Dataset, vars ...*domain.Variable) {
	t.Helper()
	for _, v := range vars {
		if err := ds.AddVar(v); err != nil {
			t.Fatalf("AddVar %s: %v", v.Name, err)
		}
	}
}

// curvilinear returns the 2-D lat and lon center arrays of the source grid.
func curvilinear() (lat2d, lon2d []float64) {
	for _, y := range srcLat {
		for _, x := range srcLon {
			lat2d = append(lat2d, y)
			lon2d = append(lon2d, x)
		}
	}
	return lat2d, lon2d
}

// field4D fills a (12, len(depth), lat, lon) array from f.
func field4D(depth []float64, f func(month int, depth, lat, lon float64) float64) []float64 {
	out := make([]float64, 0, 12*len(depth)*len(srcLat)*len(srcLon))
	for m := 0; m < 12; m++ {
		for _, z := range depth {
			for _, y := range srcLat {
				for _, x := range srcLon {
					out = append(out, f(m, z, y, x))
				}
			}
		}
	}
	return out
}

func d18oField(_ int, _, lat, _ float64) float64  { return lat / 10 }
func thetaField(_ int, depth, _, _ float64) float64 { return 20 - depth/100 }

// seawaterDepths are positive-down depths; the archive stores them negated.
var seawaterDepths = []float64{5, 500, 1000}

func seawaterSource(t *testing.T) *domain.Dataset {
	t.Helper()
	ds := domain.NewDataset(domain.Attrs{"title": "D18O Breitkreuz et al. 2018"})
	ds.AddCoord(indexCoord("t", 12))
	ds.AddCoord(indexCoord("z", len(seawaterDepths)))
	ds.AddCoord(indexCoord("y", len(srcLat)))
	ds.AddCoord(indexCoord("x", len(srcLon)))

	nz, ny, nx := len(seawaterDepths), len(srcLat), len(srcLon)
	lat2d, lon2d := curvilinear()
	dims := []string{"t", "z", "y", "x"}
	mustAdd(t, ds,
		mustVar(t, "D18O_1deg", dims, field4D(seawaterDepths, d18oField), 12, nz, ny, nx),
		mustVar(t, "THETA_1deg", dims, field4D(seawaterDepths, thetaField), 12, nz, ny, nx),
		mustVar(t, "lat_1deg_center", []string{"y", "x"}, lat2d, ny, nx),
		mustVar(t, "lon_1deg_center", []string{"y", "x"}, lon2d, ny, nx),
		mustVar(t, "depth_center", []string{"z"}, domain.Scaled(seawaterDepths, -1), nz),
	)
	return ds
}

// plafomDepthsCM are PLAFOM layer depths in centimetres.
var plafomDepthsCM = []float64{500, 25000, 100000}

func plafomSource(t *testing.T, species string, withAxes bool) *domain.Dataset {
	t.Helper()
	ds := domain.NewDataset(domain.Attrs{"source": "PLAFOM2.0"})
	ds.AddCoord(indexCoord("time", 12))
	ds.AddCoord(indexCoord("z_t", len(plafomDepthsCM)))
	ds.AddCoord(indexCoord("nlat", len(srcLat)))
	ds.AddCoord(indexCoord("nlon", len(srcLon)))

	nz, ny, nx := len(plafomDepthsCM), len(srcLat), len(srcLon)
	values := field4D(plafomDepthsCM, func(m int, _, lat, _ float64) float64 { return float64(m) + lat/100 })
	mustAdd(t, ds, mustVar(t, species, []string{"time", "z_t", "nlat", "nlon"}, values, 12, nz, ny, nx))
	if withAxes {
		lat2d, lon2d := curvilinear()
		mustAdd(t, ds,
			mustVar(t, "latitude", []string{"nlat", "nlon"}, lat2d, ny, nx),
			mustVar(t, "longitude", []string{"nlat", "nlon"}, lon2d, ny, nx),
			mustVar(t, "ndep", []string{"z_t"}, plafomDepthsCM, nz),
		)
	}
	return ds
}

// maskSource is a 1 degree global mask whose basin covers source cells
// with -26 < lat < 46 and -51 < lon < -9.
func maskSource(t *testing.T) *domain.Dataset {
	t.Helper()
	lat, lon := steps(-89.5, 1, 180), steps(-179.5, 1, 360)
	ds := domain.NewDataset(nil)
	ds.AddCoord(&domain.Coord{Name: "lat", Values: lat, Attrs: domain.Attrs{}})
	ds.AddCoord(&domain.Coord{Name: "lon", Values: lon, Attrs: domain.Attrs{}})
	values := make([]float64, 0, len(lat)*len(lon))
	for _, y := range lat {
		for _, x := range lon {
			code := 0.0
			if y > -26 && y < 46 && x > -51 && x < -9 {
				code = 3
			}
			values = append(values, code)
		}
	}
	mustAdd(t, ds, mustVar(t, "atlantic", []string{"lat", "lon"}, values, len(lat), len(lon)))
	return ds
}

// Masked target grid: lat -25..45 and lon -50..-10 at 2.5 degrees.
const (
	maskedLats = 29
	maskedLons = 17
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Backend = store.MemoryBackendName
	cfg.OutputDir = "out"
	cfg.Mask.Path = "in/mask.nc"
	cfg.Seawater.Input = "in/d18o.nc"
	cfg.Plafom.Warm = "in/warm.nc"
	cfg.Plafom.Temperate = "in/temperate.nc"
	cfg.Plafom.Cold = "in/cold.nc"
	return cfg
}

func seededMemory(t *testing.T, cfg *config.Config) *store.Memory {
	t.Helper()
	m := store.NewMemory()
	m.Put(cfg.Mask.Path, maskSource(t))
	m.Put(cfg.Seawater.Input, seawaterSource(t))
	m.Put(cfg.Plafom.Warm, plafomSource(t, "GRuberW", true))
	m.Put(cfg.Plafom.Temperate, plafomSource(t, "GBulloides", false))
	m.Put(cfg.Plafom.Cold, plafomSource(t, "NPachyderma", false))
	return m
}
