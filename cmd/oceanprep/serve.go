package main

import (
	"fmt"

	"github.com/spf13/cobra"

	httpHandler "go.ngs.io/oceanprep/internal/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve prepared products over HTTP",
	RunE: func(_ *cobra.Command, _ []string) error {
		inspector, err := newInspector()
		if err != nil {
			return err
		}
		router := httpHandler.SetupRouter(inspector, cfg.Server.AllowedOrigins)

		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		log.Infof("Server listening on %s", addr)
		log.Infof("Health check: http://localhost:%s/health", cfg.Server.Port)
		log.Info("API endpoints:")
		log.Info("  - GET /v1/products")
		log.Info("  - GET /v1/products/:name")
		log.Info("  - GET /v1/products/:name/profile?lat=&lon=&month=")
		return router.Run(addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&port, "port", "", "HTTP port (default from PORT or 8080)")
}
