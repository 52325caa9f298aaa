// Package usecase runs the preparation pipeline and serves its outputs.
package usecase

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"go.ngs.io/oceanprep/internal/adapter/interp"
	"go.ngs.io/oceanprep/internal/adapter/store"
	"go.ngs.io/oceanprep/internal/config"
	"go.ngs.io/oceanprep/internal/domain"
)

// Result summarizes one prepared product.
type Result struct {
	Product string         `json:"product"`
	Output  string         `json:"output"`
	Shape   map[string]int `json:"shape"`
	// Masked is the number of lat/lon cells inside the basin.
	Masked int `json:"masked"`
}

// PrepareUseCase reads, relabels, cuts, regrids, masks and writes products.
type PrepareUseCase struct {
	backend store.Backend
	grid    domain.TargetGrid
	mask    config.Mask
	log     logrus.FieldLogger
}

// NewPrepareUseCase creates a pipeline writing through backend.
func NewPrepareUseCase(backend store.Backend, grid domain.TargetGrid, mask config.Mask, log logrus.FieldLogger) *PrepareUseCase {
	return &PrepareUseCase{backend: backend, grid: grid, mask: mask, log: log}
}

// Execute prepares one product. Any failing step aborts the product.
func (uc *PrepareUseCase) Execute(ctx context.Context, p Product) (*Result, error) {
	log := uc.log.WithField("product", p.Name)

	log.WithFields(logrus.Fields{"step": "read", "inputs": p.Inputs}).Info("Reading source archives")
	ds, err := p.Build(uc.backend.Open)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", p.Name, err)
	}
	log.WithFields(logrus.Fields{"step": "read", "shape": ds.Shape()}).Debug("Dataset reconstructed")
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ds, err = ds.SelRange(domain.DimDepth, p.Depth.Min, p.Depth.Max)
	if err != nil {
		return nil, fmt.Errorf("failed to select depth window for %s: %w", p.Name, err)
	}
	log.WithFields(logrus.Fields{
		"step":  "depth",
		"min":   p.Depth.Min,
		"max":   p.Depth.Max,
		"shape": ds.Shape(),
	}).Info("Depth window applied")
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src, err := interp.AxesOf(ds)
	if err != nil {
		return nil, fmt.Errorf("failed to regrid %s: %w", p.Name, err)
	}
	regridder, err := interp.NewRegridder(interp.Bilinear, src, interp.TargetAxes(uc.grid), p.RegridPeriodic)
	if err != nil {
		return nil, fmt.Errorf("failed to build regridder for %s: %w", p.Name, err)
	}
	ds, err = regridder.ApplyDataset(ds)
	if err != nil {
		return nil, fmt.Errorf("failed to regrid %s: %w", p.Name, err)
	}
	stats := regridder.Stats()
	log.WithFields(logrus.Fields{
		"step":     "regrid",
		"method":   regridder.Method().String(),
		"periodic": p.RegridPeriodic,
		"weights":  stats.Weights,
		"unmapped": stats.Unmapped,
		"shape":    ds.Shape(),
	}).Info("Regridded onto target grid")
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mask, err := uc.loadMask(ds, p.MaskPeriodic, log)
	if err != nil {
		return nil, fmt.Errorf("failed to build basin mask for %s: %w", p.Name, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ds, err = ds.Where(mask, true)
	if err != nil {
		return nil, fmt.Errorf("failed to apply basin mask to %s: %w", p.Name, err)
	}
	log.WithFields(logrus.Fields{"step": "mask", "cells": mask.Count(), "shape": ds.Shape()}).Info("Basin mask applied")
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := uc.backend.Write(p.Output, ds); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", p.Name, err)
	}
	log.WithFields(logrus.Fields{"step": "write", "output": p.Output, "backend": uc.backend.Name()}).Info("Product written")

	return &Result{Product: p.Name, Output: p.Output, Shape: ds.Shape(), Masked: mask.Count()}, nil
}

// ExecuteAll prepares products in order and stops at the first failure.
func (uc *PrepareUseCase) ExecuteAll(ctx context.Context, products []Product) ([]*Result, error) {
	results := make([]*Result, 0, len(products))
	for _, p := range products {
		r, err := uc.Execute(ctx, p)
		if err != nil {
			return results, err
		}
		results = append(results, r)
	}
	return results, nil
}

// loadMask regrids the categorical basin field onto the lat/lon axes of ds
// with nearest-neighbour weights and keeps cells with a positive code.
func (uc *PrepareUseCase) loadMask(ds *domain.Dataset, periodic bool, log logrus.FieldLogger) (*domain.Mask, error) {
	field, src, err := uc.readMaskField()
	if err != nil {
		return nil, err
	}
	dst, err := interp.AxesOf(ds)
	if err != nil {
		return nil, err
	}
	regridder, err := interp.NewRegridder(interp.NearestS2D, src, dst, periodic)
	if err != nil {
		return nil, err
	}
	basin, err := regridder.ApplyVariable(field)
	if err != nil {
		return nil, err
	}
	stats := regridder.Stats()
	log.WithFields(logrus.Fields{
		"step":     "mask",
		"method":   regridder.Method().String(),
		"periodic": periodic,
		"weights":  stats.Weights,
		"source":   uc.mask.Path,
	}).Debug("Mask regridded")
	return domain.MaskFromField(basin, domain.Positive)
}

// readMaskField reads the mask variable and the coordinate variables of
// its two dimensions, relabelling them as lat and lon.
func (uc *PrepareUseCase) readMaskField() (*domain.Variable, interp.Axes, error) {
	a, err := uc.backend.Open(uc.mask.Path)
	if err != nil {
		return nil, interp.Axes{}, err
	}
	defer func() { _ = a.Close() }()

	v, err := a.Variable(uc.mask.Variable)
	if err != nil {
		return nil, interp.Axes{}, err
	}
	if len(v.Dims) != 2 {
		return nil, interp.Axes{}, fmt.Errorf("mask %s: %w: expected 2 dims, got %v", v.Name, domain.ErrShapeMismatch, v.Dims)
	}

	coords := make([]*domain.Coord, 2)
	for i, dim := range v.Dims {
		c, err := a.Variable(dim)
		if err != nil {
			return nil, interp.Axes{}, fmt.Errorf("mask coordinate %s: %w", dim, err)
		}
		if len(c.Data.Shape) != 1 || c.Data.Shape[0] != v.Data.Shape[i] {
			return nil, interp.Axes{}, fmt.Errorf("mask coordinate %s: %w", dim, domain.ErrShapeMismatch)
		}
		coords[i] = &domain.Coord{Name: dim, Values: c.Data.Elements, Attrs: c.Attrs}
	}
	coords[0].Name, coords[1].Name = domain.DimLat, domain.DimLon

	field, err := domain.NewVariable(v.Name, []string{domain.DimLat, domain.DimLon}, v.Data, v.Attrs)
	if err != nil {
		return nil, interp.Axes{}, err
	}
	return field, interp.Axes{Lat: coords[0], Lon: coords[1]}, nil
}
