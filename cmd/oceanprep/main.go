// Package main provides the oceanprep command line tool.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Error("oceanprep failed")
		os.Exit(1)
	}
}
