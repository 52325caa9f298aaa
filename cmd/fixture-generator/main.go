// Package main writes synthetic input archives with the variable layouts of
// the seawater climatology, the PLAFOM2.0 species files and the RECCAP2
// region mask, so that the pipeline can run without the research data.
package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/fhs/go-netcdf/netcdf"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

const fillValue = float32(-1e34)

// sourceGrid is the cell-centred global grid shared by the synthetic inputs.
type sourceGrid struct {
	lat, lon []float64
}

func newSourceGrid(resolution float64) sourceGrid {
	nLat := int(math.Round(180 / resolution))
	nLon := int(math.Round(360 / resolution))
	g := sourceGrid{lat: make([]float64, nLat), lon: make([]float64, nLon)}
	for i := range g.lat {
		g.lat[i] = -90 + (float64(i)+0.5)*resolution
	}
	for j := range g.lon {
		g.lon[j] = (float64(j) + 0.5) * resolution
	}
	return g
}

// curvilinear expands the axes into 2-D center arrays the way model output stores them.
func (g sourceGrid) curvilinear() (lat2d, lon2d []float64) {
	lat2d = make([]float64, 0, len(g.lat)*len(g.lon))
	lon2d = make([]float64, 0, len(g.lat)*len(g.lon))
	for _, y := range g.lat {
		for _, x := range g.lon {
			lat2d = append(lat2d, y)
			lon2d = append(lon2d, x)
		}
	}
	return lat2d, lon2d
}

// land marks a crude African bulge and Antarctica so that fill values occur.
func land(lat, lon float64) bool {
	if lon >= 180 {
		lon -= 360
	}
	return lat < -78 || (lat > 5 && lat < 30 && lon > -15 && lon < 10)
}

func main() {
	outDir := pflag.String("out", "./data/fixtures", "Output directory for the synthetic archives")
	resolution := pflag.Float64("resolution", 1.0, "Source grid resolution in degrees")
	verbose := pflag.BoolP("verbose", "v", false, "Log every file written")
	pflag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	if *resolution <= 0 || *resolution > 30 {
		log.Fatalf("Invalid resolution %.3f", *resolution)
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	grid := newSourceGrid(*resolution)
	log.WithFields(logrus.Fields{"lat": len(grid.lat), "lon": len(grid.lon)}).Info("Generating synthetic archives")

	files := []struct {
		name  string
		write func(path string, g sourceGrid) error
	}{
		{"D18O_Breitkreuz_et_al_2018.nc", writeSeawater},
		{"PLAFOM2.0_GLOBAL_MONTHLY_CONC_warm-waterPlankForamSpecies.nc", plafomWriter("GRuberW", 26)},
		{"PLAFOM2.0_GLOBAL_MONTHLY_CONC_temperate-waterPlankForamSpecies.nc", plafomWriter("GBulloides", 14)},
		{"PLAFOM2.0_GLOBAL_MONTHLY_CONC_cold-waterPlankForamSpecies.nc", plafomWriter("NPachyderma", 2)},
		{"RECCAP2_region_masks_all_v20221025.nc", writeMask},
	}
	for _, f := range files {
		path := filepath.Join(*outDir, f.name)
		if err := f.write(path, grid); err != nil {
			log.Fatalf("Failed to write %s: %v", path, err)
		}
		log.WithField("file", path).Debug("Written")
	}
	log.WithField("dir", *outDir).Infof("Generated %d archives", len(files))
}

// seawaterDepths are layer centres in metres, stored negative as in the climatology.
var seawaterDepths = []float64{5, 15, 30, 50, 100, 200, 400, 700, 1000, 2000}

func writeSeawater(path string, g sourceGrid) error {
	nz := len(seawaterDepths)
	d18o := make([]float32, 0, 12*nz*len(g.lat)*len(g.lon))
	theta := make([]float32, 0, cap(d18o))
	for m := 0; m < 12; m++ {
		season := math.Cos(2 * math.Pi * float64(m) / 12)
		for _, z := range seawaterDepths {
			for _, y := range g.lat {
				for _, x := range g.lon {
					if land(y, x) {
						d18o = append(d18o, fillValue)
						theta = append(theta, fillValue)
						continue
					}
					surface := 28*math.Cos(y*math.Pi/180) - 2 + 1.5*season*math.Sin(y*math.Pi/180)
					t := 2 + (surface-2)*math.Exp(-z/500)
					theta = append(theta, float32(t))
					d18o = append(d18o, float32(0.5+0.02*(t-15)-0.0002*z+0.1*math.Sin(x*math.Pi/180)))
				}
			}
		}
	}
	lat2d, lon2d := g.curvilinear()
	depth := make([]float64, nz)
	for i, z := range seawaterDepths {
		depth[i] = -z
	}

	dims := []dimSpec{{"time", 12}, {"depth", nz}, {"y", len(g.lat)}, {"x", len(g.lon)}}
	return writeArchive(path, dims, []varSpec{
		{name: "lat_1deg_center", dims: []string{"y", "x"}, f64: lat2d, units: "degrees_north"},
		{name: "lon_1deg_center", dims: []string{"y", "x"}, f64: lon2d, units: "degrees_east"},
		{name: "depth_center", dims: []string{"depth"}, f64: depth, units: "m"},
		{name: "D18O_1deg", dims: []string{"time", "depth", "y", "x"}, f32: d18o, units: "permil"},
		{name: "THETA_1deg", dims: []string{"time", "depth", "y", "x"}, f32: theta, units: "degC"},
	}, "synthetic seawater d18O climatology")
}

// plafomDepthsCM are layer centres in centimetres.
var plafomDepthsCM = []float64{500, 1500, 2500, 3500, 4500, 5500, 6500, 7500, 8500, 9500, 15000, 30000, 60000, 100000}

// plafomWriter returns a writer for one species whose abundance peaks where
// the surface temperature equals optimum.
func plafomWriter(species string, optimum float64) func(string, sourceGrid) error {
	return func(path string, g sourceGrid) error {
		nz := len(plafomDepthsCM)
		conc := make([]float32, 0, 12*nz*len(g.lat)*len(g.lon))
		for m := 0; m < 12; m++ {
			// Records start in February.
			season := math.Cos(2 * math.Pi * float64(m+1) / 12)
			for _, zcm := range plafomDepthsCM {
				for _, y := range g.lat {
					for _, x := range g.lon {
						if land(y, x) {
							conc = append(conc, fillValue)
							continue
						}
						sst := 28*math.Cos(y*math.Pi/180) - 2 + 1.5*season*math.Sin(y*math.Pi/180)
						habitat := math.Exp(-math.Pow((sst-optimum)/5, 2))
						conc = append(conc, float32(0.8*habitat*math.Exp(-zcm/100/150)))
					}
				}
			}
		}
		lat2d, lon2d := g.curvilinear()

		dims := []dimSpec{{"time", 12}, {"z_t", nz}, {"nlat", len(g.lat)}, {"nlon", len(g.lon)}}
		return writeArchive(path, dims, []varSpec{
			{name: "latitude", dims: []string{"nlat", "nlon"}, f64: lat2d, units: "degrees_north"},
			{name: "longitude", dims: []string{"nlat", "nlon"}, f64: lon2d, units: "degrees_east"},
			{name: "ndep", dims: []string{"z_t"}, f64: plafomDepthsCM, units: "cm"},
			{name: species, dims: []string{"time", "z_t", "nlat", "nlon"}, f32: conc, units: "mmol C/m3"},
		}, fmt.Sprintf("synthetic PLAFOM2.0 %s concentration", species))
	}
}

// writeMask writes a 1 degree categorical mask; positive codes mark Atlantic sub-regions.
func writeMask(path string, _ sourceGrid) error {
	lat := make([]float64, 180)
	lon := make([]float64, 360)
	for i := range lat {
		lat[i] = -89.5 + float64(i)
	}
	for j := range lon {
		lon[j] = -179.5 + float64(j)
	}
	codes := make([]int32, 0, len(lat)*len(lon))
	for _, y := range lat {
		for _, x := range lon {
			var code int32
			switch {
			case land(y, x) || y < -35 || y > 65 || x < -75 || x > 20:
				code = 0
			case y > 45:
				code = 1
			case y > 20:
				code = 2
			case y > -10:
				code = 3
			default:
				code = 4
			}
			codes = append(codes, code)
		}
	}

	dims := []dimSpec{{"lat", len(lat)}, {"lon", len(lon)}}
	return writeArchive(path, dims, []varSpec{
		{name: "lat", dims: []string{"lat"}, f64: lat, units: "degrees_north"},
		{name: "lon", dims: []string{"lon"}, f64: lon, units: "degrees_east"},
		{name: "atlantic", dims: []string{"lat", "lon"}, i32: codes},
	}, "synthetic RECCAP2 region masks")
}

type dimSpec struct {
	name string
	len  int
}

// varSpec holds exactly one of f64, f32 or i32.
type varSpec struct {
	name  string
	dims  []string
	f64   []float64
	f32   []float32
	i32   []int32
	units string
}

func writeArchive(path string, dims []dimSpec, vars []varSpec, title string) error {
	ds, err := netcdf.CreateFile(path, netcdf.CLOBBER|netcdf.NETCDF4)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer ds.Close()

	byName := make(map[string]netcdf.Dim, len(dims))
	for _, d := range dims {
		nd, err := ds.AddDim(d.name, uint64(d.len))
		if err != nil {
			return err
		}
		byName[d.name] = nd
	}

	ncVars := make([]netcdf.Var, len(vars))
	for i, v := range vars {
		vdims := make([]netcdf.Dim, len(v.dims))
		for k, name := range v.dims {
			vdims[k] = byName[name]
		}
		t := netcdf.DOUBLE
		switch {
		case v.f32 != nil:
			t = netcdf.FLOAT
		case v.i32 != nil:
			t = netcdf.INT
		}
		if ncVars[i], err = ds.AddVar(v.name, t, vdims); err != nil {
			return err
		}
		if v.f32 != nil {
			if err := ncVars[i].Attr("_FillValue").WriteFloat32s([]float32{fillValue}); err != nil {
				return err
			}
		}
		if v.units != "" {
			if err := ncVars[i].Attr("units").WriteBytes([]byte(v.units)); err != nil {
				return err
			}
		}
	}
	if err := ds.Attr("title").WriteBytes([]byte(title)); err != nil {
		return err
	}
	if err := ds.EndDef(); err != nil {
		return err
	}

	for i, v := range vars {
		switch {
		case v.f32 != nil:
			err = ncVars[i].WriteFloat32s(v.f32)
		case v.i32 != nil:
			err = ncVars[i].WriteInt32s(v.i32)
		default:
			err = ncVars[i].WriteFloat64s(v.f64)
		}
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", v.name, err)
		}
	}
	return nil
}
