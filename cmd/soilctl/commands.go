package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"soilsense/internal/agrobot"
	"soilsense/internal/agronomy"
	"soilsense/internal/models"
	"soilsense/internal/simulator"

	"github.com/spf13/cobra"
)

func newRecommendCmd() *cobra.Command {
	var (
		crop    string
		asJSON  bool
		reading = simulator.InitialState()
	)

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Classify a reading against a crop profile",
		Long: `Classify soil values against the ranges of a crop. Values not given on
the command line take the simulator's initial state.`,
		Example: "  soilctl recommend --crop rice --moisture 40 --ph 6.5",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := models.ParseCrop(crop)
			if err != nil {
				return err
			}
			reading.Crop = c
			reading.Timestamp = time.Now()

			recs := agronomy.Recommendations(reading, string(c))
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), recs)
			}
			printRecommendations(cmd.OutOrStdout(), recs)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&crop, "crop", string(models.DefaultCrop), "crop profile")
	f.Float64Var(&reading.Moisture, "moisture", reading.Moisture, "soil moisture (%)")
	f.Float64Var(&reading.PH, "ph", reading.PH, "soil pH")
	f.Float64Var(&reading.N, "n", reading.N, "nitrogen (mg/kg)")
	f.Float64Var(&reading.P, "p", reading.P, "phosphorus (mg/kg)")
	f.Float64Var(&reading.K, "k", reading.K, "potassium (mg/kg)")
	f.Float64Var(&reading.Temperature, "temperature", reading.Temperature, "soil temperature (°C)")
	f.Float64Var(&reading.Humidity, "humidity", reading.Humidity, "air humidity (%)")
	f.BoolVar(&asJSON, "json", false, "print JSON instead of text")
	return cmd
}

func newSimulateCmd() *cobra.Command {
	var (
		steps    int
		crop     string
		seed     int64
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:     "simulate",
		Short:   "Run the generator and irrigation controller for N steps",
		Example: "  soilctl simulate --steps 20 --crop maize --seed 42",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := models.ParseCrop(crop)
			if err != nil {
				return err
			}
			if steps <= 0 {
				return fmt.Errorf("steps must be positive, got %d", steps)
			}
			if interval <= 0 {
				return fmt.Errorf("interval must be positive, got %s", interval)
			}

			// relógio simulado, avança um intervalo por passo
			clock := time.Now().Truncate(time.Second)
			gen := simulator.NewGenerator(
				simulator.WithRand(rand.New(rand.NewSource(seed))),
				simulator.WithClock(func() time.Time { return clock }),
				simulator.WithCropSource(func() models.Crop { return c }),
			)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STEP\tTIME\tMOISTURE\tPH\tN\tP\tK\tTEMP\tHUMIDITY\tPUMP\tALERTS")
			for i := 1; i <= steps; i++ {
				clock = clock.Add(interval)
				r := gen.Step()
				alerts := agronomy.Alerts(r, string(c))
				fmt.Fprintf(w, "%d\t%s\t%.1f\t%.2f\t%.0f\t%.0f\t%.0f\t%.1f\t%.0f\t%s\t%s\n",
					i, r.Timestamp.Format(time.TimeOnly),
					r.Moisture, r.PH, r.N, r.P, r.K, r.Temperature, r.Humidity,
					simulator.State(r), alertSummary(alerts))
			}
			return w.Flush()
		},
	}

	f := cmd.Flags()
	f.IntVar(&steps, "steps", 10, "number of readings to generate")
	f.StringVar(&crop, "crop", string(models.DefaultCrop), "crop profile")
	f.Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	f.DurationVar(&interval, "interval", 5*time.Second, "simulated time between readings")
	return cmd
}

func newHistoryCmd(flags *globalFlags) *cobra.Command {
	var (
		rng    string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:     "history",
		Short:   "Print the stored history for a time range",
		Example: "  soilctl history --range daily --db soilsense.db",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, _, err := flags.openManager()
			if err != nil {
				return err
			}
			defer manager.Close()

			readings := manager.FilteredHistory(rng)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), readings)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tCROP\tMOISTURE\tPH\tN\tP\tK\tTEMP\tHUMIDITY\tPUMP")
			for _, r := range readings {
				fmt.Fprintf(w, "%s\t%s\t%.1f\t%.2f\t%.0f\t%.0f\t%.0f\t%.1f\t%.0f\t%t\n",
					r.Timestamp.Local().Format(time.DateTime), r.Crop,
					r.Moisture, r.PH, r.N, r.P, r.K, r.Temperature, r.Humidity, r.PumpOn)
			}
			fmt.Fprintf(w, "%d readings\n", len(readings))
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&rng, "range", string(models.RangeAll), "daily, weekly, monthly or all")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func newExportCmd(flags *globalFlags) *cobra.Command {
	var format, rng, output string

	cmd := &cobra.Command{
		Use:     "export",
		Short:   "Export the stored history as csv or json",
		Example: "  soilctl export --format csv --range weekly -o weekly.csv",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, _, err := flags.openManager()
			if err != nil {
				return err
			}
			defer manager.Close()

			body, _, filename, err := manager.ExportData(format, rng)
			if err != nil {
				return err
			}

			if output == "" {
				_, err = cmd.OutOrStdout().Write(body)
				return err
			}
			if output == "." {
				output = filename
			}
			if err := os.WriteFile(output, body, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "csv", "csv or json")
	cmd.Flags().StringVar(&rng, "range", string(models.RangeAll), "daily, weekly, monthly or all")
	cmd.Flags().StringVarP(&output, "output", "o", "", `output file; "." uses the default export name`)
	return cmd
}

func newCropsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crops",
		Short: "List the crop profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tMOISTURE\tPH\tN\tP\tK\tTEMP\tHUMIDITY")
			for _, p := range models.AllProfiles() {
				fmt.Fprintf(w, "%s\t%s %s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					p.ID, p.Icon, p.Name,
					span(p.Moisture), span(p.PH), span(p.N), span(p.P), span(p.K),
					span(p.Temperature), span(p.Humidity))
			}
			return w.Flush()
		},
	}
}

func newAskCmd(flags *globalFlags) *cobra.Command {
	var (
		apiKey string
		demo   bool
	)

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask AgroBot a question",
		Long: `Ask AgroBot a question. The latest stored reading and the current crop are
sent as context. With --demo the canned offline answers are used and no
request leaves the machine.`,
		Example: `  soilctl ask --demo "when should I fertilize tomatoes?"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")
			if demo {
				fmt.Fprintln(cmd.OutOrStdout(), agrobot.DemoResponse(question))
				return nil
			}

			manager, store, err := flags.openManager()
			if err != nil {
				return err
			}
			defer manager.Close()

			logger := flags.logger()
			client := agrobot.NewClient(agrobot.DefaultClientConfig(), logger)
			session := agrobot.NewSession(store, client, apiKey, logger)

			reply, err := session.Ask(cmd.Context(), question)
			if errors.Is(err, agrobot.ErrNotConfigured) {
				return fmt.Errorf("%w: pass --api-key, set OPENAI_API_KEY or use --demo", err)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), reply)
			return nil
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", os.Getenv("OPENAI_API_KEY"), "OpenAI API key")
	cmd.Flags().BoolVar(&demo, "demo", false, "answer with the offline demo responses")
	return cmd
}

func printRecommendations(w io.Writer, recs []models.Recommendation) {
	for _, r := range recs {
		fmt.Fprintf(w, "%s [%s] %s: %s\n", r.Icon, r.Type, r.Category, r.Message)
	}
}

func alertSummary(alerts []models.Recommendation) string {
	if len(alerts) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(alerts))
	for _, a := range alerts {
		parts = append(parts, fmt.Sprintf("%s:%s", a.Param, a.Type))
	}
	return strings.Join(parts, ",")
}

func span(r models.Range) string {
	return fmt.Sprintf("%g-%g", r.Min, r.Max)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
