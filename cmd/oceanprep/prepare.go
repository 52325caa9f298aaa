package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"go.ngs.io/oceanprep/internal/adapter/store"
	"go.ngs.io/oceanprep/internal/usecase"
)

var prepareCmd = &cobra.Command{
	Use:       "prepare [seawater|plafom|all]",
	Short:     "Read, regrid, mask and write one or all products",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{usecase.SeawaterName, usecase.PlafomName, "all"},
	RunE: func(_ *cobra.Command, args []string) error {
		name := "all"
		if len(args) == 1 {
			name = args[0]
		}

		products := usecase.Products(cfg)
		if name != "all" {
			p, err := usecase.ProductByName(cfg, name)
			if err != nil {
				return err
			}
			products = []usecase.Product{p}
		}

		backend, err := store.NewBackend(cfg.Backend)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		uc := usecase.NewPrepareUseCase(backend, cfg.Grid, cfg.Mask, log)
		results, err := uc.ExecuteAll(ctx, products)
		for _, r := range results {
			log.WithFields(logrus.Fields{
				"product": r.Product,
				"output":  r.Output,
				"shape":   r.Shape,
				"masked":  r.Masked,
			}).Info("Prepared")
		}
		return err
	},
}
