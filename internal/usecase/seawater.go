package usecase

import (
	"fmt"

	"go.ngs.io/oceanprep/internal/config"
	"go.ngs.io/oceanprep/internal/domain"
)

// Source variable names in the Breitkreuz et al. (2018) climatology.
const (
	seawaterD18O  = "D18O_1deg"
	seawaterTheta = "THETA_1deg"
	seawaterLat   = "lat_1deg_center"
	seawaterLon   = "lon_1deg_center"
	seawaterDepth = "depth_center"
)

// SeawaterProduct prepares the seawater d18O and temperature climatology.
func SeawaterProduct(cfg *config.Config) Product {
	input := cfg.Seawater.Input
	return Product{
		Name:           SeawaterName,
		Inputs:         []string{input},
		Output:         cfg.OutputPath(cfg.Seawater.Output),
		Depth:          cfg.Seawater.Depth,
		RegridPeriodic: true,
		MaskPeriodic:   false,
		Build: func(open Opener) (*domain.Dataset, error) {
			return buildSeawater(open, input)
		},
	}
}

func buildSeawater(open Opener, input string) (*domain.Dataset, error) {
	src, _, err := readVars(open, input, seawaterD18O, seawaterTheta, seawaterLon, seawaterLat, seawaterDepth)
	if err != nil {
		return nil, err
	}
	d18o, theta, lon2d, lat2d, depth := src[0], src[1], src[2], src[3], src[4]

	lon, err := domain.FirstRow(lon2d.Data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", seawaterLon, err)
	}
	lat, err := domain.FirstColumn(lat2d.Data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", seawaterLat, err)
	}
	if len(depth.Data.Shape) != 1 {
		return nil, fmt.Errorf("%s: %w: expected 1-D, got shape %v", seawaterDepth, domain.ErrShapeMismatch, depth.Data.Shape)
	}

	ds := domain.NewDataset(domain.Attrs{
		"description": "gridded climatology from Breitkruez et al., 2018 (https://doi.org/10.1029/2018JC014300)",
	})
	ds.AddCoord(&domain.Coord{Name: domain.DimMonth, Values: domain.Months(1), Attrs: domain.Attrs{}})
	ds.AddCoord(depthCoord(domain.Scaled(depth.Data.Elements, -1)))
	ds.AddCoord(latCoord(lat))
	ds.AddCoord(lonCoord(lon))

	d18osw, err := relabel(d18o, "d18Osw", gridDims, domain.Attrs{
		"units":       "Permille VSMOW",
		"description": "Gridded seawater d18O (1950-1980 climatology)",
	})
	if err != nil {
		return nil, err
	}
	temp, err := relabel(theta, "T", gridDims, domain.Attrs{
		"units":       "deg C",
		"description": "Gridded seawater temperature (1950-1980 climatology)",
	})
	if err != nil {
		return nil, err
	}
	for _, v := range []*domain.Variable{d18osw, temp} {
		if err := ds.AddVar(v); err != nil {
			return nil, fmt.Errorf("failed to build seawater dataset: %w", err)
		}
	}
	return ds, nil
}
