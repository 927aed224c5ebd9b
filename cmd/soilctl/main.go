package main

import (
	"fmt"
	"os"
	"time"

	"soilsense/internal/data"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// flags globais compartilhados pelos subcomandos
type globalFlags struct {
	driver  string
	dsn     string
	verbose bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "soilctl",
		Short: "Offline tools for the SoilSense soil monitor",
		Long: `soilctl classifies soil readings, runs the sensor simulator offline and
inspects the history stored by the SoilSense server.

Available subcommands:
  recommend - Classify a reading against a crop profile
  simulate  - Run the generator and irrigation controller for N steps
  history   - Print the stored history for a time range
  export    - Export the stored history as csv or json
  crops     - List the crop profiles
  ask       - Ask AgroBot a question`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flags.driver, "driver", "sqlite", "database driver (sqlite or mysql)")
	root.PersistentFlags().StringVar(&flags.dsn, "db", "soilsense.db", "database DSN")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newRecommendCmd(),
		newSimulateCmd(),
		newHistoryCmd(flags),
		newExportCmd(flags),
		newCropsCmd(),
		newAskCmd(flags),
	)
	return root
}

func (f *globalFlags) logger() zerolog.Logger {
	level := zerolog.WarnLevel
	if f.verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).With().Timestamp().Logger()
}

// openManager abre o armazenamento configurado pelos flags globais
func (f *globalFlags) openManager() (*data.Manager, data.Store, error) {
	db, err := data.NewDatabase(f.driver, f.dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s database: %w", f.driver, err)
	}
	return data.NewManager(db, f.logger()), db, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
