package main

import (
	"github.com/spf13/cobra"

	"go.ngs.io/oceanprep/internal/adapter/store/csv"
)

var exportCmd = &cobra.Command{
	Use:   "export <product> <out.csv>",
	Short: "Write a prepared product as a CSV table, one row per valid cell",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		inspector, err := newInspector()
		if err != nil {
			return err
		}
		ds, err := inspector.Dataset(args[0])
		if err != nil {
			return err
		}
		rows, err := csv.NewExporter().ExportFile(args[1], ds)
		if err != nil {
			return err
		}
		log.WithField("product", args[0]).WithField("rows", rows).Infof("Exported to %s", args[1])
		return nil
	},
}
