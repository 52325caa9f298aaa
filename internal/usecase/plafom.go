package usecase

import (
	"fmt"
	"strings"

	"go.ngs.io/oceanprep/internal/config"
	"go.ngs.io/oceanprep/internal/domain"
)

// plafomSpecies maps each PLAFOM2.0 archive to the species it contributes.
type plafomSpecies struct {
	input       string
	variable    string
	description string
}

// plafomMonths labels the model's monthly records, which start in February.
var plafomMonths = []string{"Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec", "Jan"}

// PlafomProduct prepares the PLAFOM2.0 foraminifera concentrations of three species.
func PlafomProduct(cfg *config.Config) Product {
	species := []plafomSpecies{
		{cfg.Plafom.Warm, "GRuberW", "Monthly concentration of G. ruber white"},
		{cfg.Plafom.Temperate, "GBulloides", "Monthly concentration of G. bulloides"},
		{cfg.Plafom.Cold, "NPachyderma", "Monthly concentration of N. pachyderma"},
	}
	inputs := make([]string, len(species))
	for i, s := range species {
		inputs[i] = s.input
	}
	return Product{
		Name:           PlafomName,
		Inputs:         inputs,
		Output:         cfg.OutputPath(cfg.Plafom.Output),
		Depth:          cfg.Plafom.Depth,
		RegridPeriodic: true,
		MaskPeriodic:   true,
		Build: func(open Opener) (*domain.Dataset, error) {
			return buildPlafom(open, species)
		},
	}
}

func buildPlafom(open Opener, species []plafomSpecies) (*domain.Dataset, error) {
	// Coordinates come from the warm-water archive; the three files share one grid.
	axes, _, err := readVars(open, species[0].input, "longitude", "latitude", "ndep")
	if err != nil {
		return nil, err
	}
	lon, err := domain.FirstRow(axes[0].Data)
	if err != nil {
		return nil, fmt.Errorf("longitude: %w", err)
	}
	lat, err := domain.FirstColumn(axes[1].Data)
	if err != nil {
		return nil, fmt.Errorf("latitude: %w", err)
	}
	if len(axes[2].Data.Shape) != 1 {
		return nil, fmt.Errorf("ndep: %w: expected 1-D, got shape %v", domain.ErrShapeMismatch, axes[2].Data.Shape)
	}

	ds := domain.NewDataset(domain.Attrs{
		"description": "Global monthly concentration of the cold-water planktonic foraminifera species from Kretschmer et al., 2018 ( https://doi.org/10.5194/bg-15-4405-2018)",
	})
	ds.AddCoord(&domain.Coord{
		Name:   domain.DimMonth,
		Values: domain.Months(2),
		Attrs:  domain.Attrs{"month_names": strings.Join(plafomMonths, " ")},
	})
	depth := make([]float64, len(axes[2].Data.Elements))
	for i, cm := range axes[2].Data.Elements {
		depth[i] = cm / 100
	}
	ds.AddCoord(depthCoord(depth))
	ds.AddCoord(latCoord(lat))
	ds.AddCoord(lonCoord(lon))

	for _, s := range species {
		src, _, err := readVars(open, s.input, s.variable)
		if err != nil {
			return nil, err
		}
		v, err := relabel(src[0], s.variable, gridDims, domain.Attrs{
			"units":       "mmol C/m3",
			"description": s.description,
		})
		if err != nil {
			return nil, err
		}
		if err := ds.AddVar(v); err != nil {
			return nil, fmt.Errorf("failed to build plafom dataset: %w", err)
		}
	}
	return ds, nil
}
