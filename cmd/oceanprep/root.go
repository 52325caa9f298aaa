package main

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"go.ngs.io/oceanprep/internal/adapter/store"
	_ "go.ngs.io/oceanprep/internal/adapter/store/libnc"
	_ "go.ngs.io/oceanprep/internal/adapter/store/native"
	"go.ngs.io/oceanprep/internal/config"
	"go.ngs.io/oceanprep/internal/usecase"
)

const version = "0.1.0"

var (
	configFile  string
	backendName string
	outputDir   string
	logLevel    string
	port        string

	cfg *config.Config
	log = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:   "oceanprep",
	Short: "Regrid and basin-mask ocean climatologies onto a common grid.",
	Long: `oceanprep prepares the seawater d18O/temperature climatology of
Breitkreuz et al. (2018) and the PLAFOM2.0 foraminifera concentrations of
Kretschmer et al. (2018): it relabels the source archives, cuts a depth
window, regrids onto a 2.5 degree grid and keeps the Atlantic basin.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return startup(cmd.Flags())
	},
}

func init() {
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "TOML configuration file")
	flags.StringVar(&backendName, "backend", "", fmt.Sprintf("storage backend %v", store.Backends()))
	flags.StringVar(&outputDir, "output-dir", "", "directory for prepared products")
	flags.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(prepareCmd, describeCmd, exportCmd, serveCmd, versionCmd)
}

// startup loads the configuration and lets explicitly set flags win over
// the file and the environment.
func startup(flags *pflag.FlagSet) error {
	var err error
	cfg, err = config.Load(configFile)
	if err != nil {
		return err
	}
	if flags.Changed("backend") {
		cfg.Backend = backendName
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir = outputDir
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Lookup("port") != nil && flags.Changed("port") {
		cfg.Server.Port = port
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	log.SetLevel(level)

	if err := cfg.Validate(store.Backends()...); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	log.WithFields(logrus.Fields{
		"config":     configFile,
		"backend":    cfg.Backend,
		"output_dir": cfg.OutputDir,
	}).Debug("Configuration loaded")
	return nil
}

// newInspector builds the read side over the configured outputs.
func newInspector() (*usecase.InspectUseCase, error) {
	backend, err := store.NewBackend(cfg.Backend)
	if err != nil {
		return nil, err
	}
	return usecase.NewInspectUseCase(backend, usecase.Products(cfg)), nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of oceanprep",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("oceanprep version %s\n", version)
	},
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return nil
	},
}
