package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var describeCmd = &cobra.Command{
	Use:   "describe <product>",
	Short: "Print the coordinates and variables of a prepared product as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		inspector, err := newInspector()
		if err != nil {
			return err
		}
		d, err := inspector.Describe(args[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	},
}
