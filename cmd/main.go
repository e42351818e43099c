package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"collision-sim/internal/analysis"
	"collision-sim/internal/api"
	"collision-sim/internal/config"
	"collision-sim/internal/db"
	"collision-sim/internal/models"
	"collision-sim/internal/parser"
	"collision-sim/internal/physics"
	"collision-sim/internal/simulator"
	"collision-sim/internal/vehicle"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configPath string
	dbPath     string
	logLevel   string

	cfg      config.Config
	registry *vehicle.Registry
	database *db.Database

	log = logrus.WithField("module", "cli")
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "collision-sim",
		Short: "Collision Sim - stopping distance and impact speed estimation",
		Long: `A CLI tool that estimates whether a vehicle can stop before an obstacle
and, if not, how fast it hits it. Braking capability is derived from the
vehicle's 60-0 mph test distance and capped by road friction. Telemetry
traces can be ingested to find hard-braking events and scenario speeds.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to SQLite telemetry database (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: trace, debug, info, warn, error (overrides config)")

	// Add commands
	rootCmd.AddCommand(simulateCmd())
	rootCmd.AddCommand(compareCmd())
	rootCmd.AddCommand(vehiclesCmd())
	rootCmd.AddCommand(surfacesCmd())
	rootCmd.AddCommand(scenarioCmd())
	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(queryCmd())
	rootCmd.AddCommand(telemetryCmd())
	rootCmd.AddCommand(brakingCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(serverCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the config, configures logging and builds the vehicle registry
func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}
	if dbPath != "" {
		cfg.Database = dbPath
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.0000",
	})

	if cfg.VehiclesFile != "" {
		registry, err = vehicle.LoadFile(cfg.VehiclesFile)
		return err
	}
	registry = vehicle.Default()
	return nil
}

// initDB initializes database connection
func initDB() error {
	var err error
	database, err = db.New(cfg.Database)
	return err
}

// newSimulator binds a simulator to vehicleID using the loaded config
func newSimulator(vehicleID string) (*simulator.Simulator, error) {
	return simulator.New(registry, vehicleID,
		simulator.WithEnvironment(cfg.Environment),
		simulator.WithFriction(cfg.FrictionTable()),
		simulator.WithRoadLoad(cfg.RoadLoadCalculator()),
		simulator.WithLogger(logrus.WithField("module", "simulator")),
	)
}

func newDetector() analysis.Detector {
	return analysis.Detector{
		SampleIntervalSec:  cfg.Telemetry.SampleIntervalSec,
		ThresholdMPHPerSec: cfg.Telemetry.HardBrakingMPHPerSec,
	}
}

// serverCmd starts the REST API server
func serverCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the REST API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initDB(); err != nil {
				return fmt.Errorf("database error: %w", err)
			}
			defer database.Close()

			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			server := api.NewServer(database, api.Options{
				Registry:    registry,
				Environment: cfg.Environment,
				Friction:    cfg.FrictionTable(),
				RoadLoad:    cfg.RoadLoadCalculator(),
				Detector:    newDetector(),
			})
			addr := fmt.Sprintf(":%d", cfg.Server.Port)

			log.WithFields(logrus.Fields{
				"addr":     addr,
				"database": cfg.Database,
				"vehicles": len(registry.IDs()),
			}).Info("collision-sim API server listening")

			fmt.Println("Available endpoints:")
			fmt.Println("  GET  /health")
			fmt.Println("  GET  /api/v1/vehicles")
			fmt.Println("  GET  /api/v1/vehicles/{id}")
			fmt.Println("  GET  /api/v1/surfaces")
			fmt.Println("  POST /api/v1/simulate")
			fmt.Println("  POST /api/v1/compare")
			fmt.Println("  GET  /api/v1/telemetry")
			fmt.Println("  POST /api/v1/telemetry")
			fmt.Println("  POST /api/v1/telemetry/batch")
			fmt.Println("  GET  /api/v1/telemetry/vehicles")
			fmt.Println("  GET  /api/v1/telemetry/braking-events")
			fmt.Println("  GET  /api/v1/telemetry/scenario")
			fmt.Println("  GET  /api/v1/telemetry/summary/{vehicle_id}")
			fmt.Println("  GET  /api/v1/stats")
			fmt.Println()

			return http.ListenAndServe(addr, server.Router())
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "Server port (overrides config)")
	return cmd
}

// ingestCmd loads telemetry traces into the database
func ingestCmd() *cobra.Command {
	var format string
	var validate bool

	cmd := &cobra.Command{
		Use:   "ingest [file...]",
		Short: "Ingest telemetry speed traces from files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initDB(); err != nil {
				return fmt.Errorf("database error: %w", err)
			}
			defer database.Close()

			p := parser.NewParser(format)
			totalRecords := 0
			totalErrors := 0

			for _, file := range args {
				fileLog := log.WithField("file", file)
				start := time.Now()

				samples, err := p.ParseFile(file)
				if err != nil {
					fileLog.WithError(err).Error("parse failed")
					totalErrors++
					continue
				}

				// Validate if requested
				if validate {
					var valid []models.TelemetrySample
					for _, s := range samples {
						if errs := parser.ValidateSample(&s); len(errs) == 0 {
							valid = append(valid, s)
						} else {
							totalErrors++
						}
					}
					samples = valid
				}

				count, err := database.InsertSamplesBatch(samples)
				if err != nil {
					fileLog.WithError(err).Error("insert failed")
					continue
				}

				elapsed := time.Since(start)
				fileLog.WithFields(logrus.Fields{
					"samples": count,
					"elapsed": elapsed,
				}).Info("ingested")
				totalRecords += int(count)
			}

			fmt.Printf("Total: %d samples ingested", totalRecords)
			if totalErrors > 0 {
				fmt.Printf(", %d errors", totalErrors)
			}
			fmt.Println()

			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "csv", "File format (csv, json, log)")
	cmd.Flags().BoolVarP(&validate, "validate", "v", true, "Validate samples before inserting")
	return cmd
}

// queryCmd queries stored telemetry samples
func queryCmd() *cobra.Command {
	var q models.TelemetryQuery
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query stored telemetry samples",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := q.Validate(); err != nil {
				return err
			}
			if err := initDB(); err != nil {
				return fmt.Errorf("database error: %w", err)
			}
			defer database.Close()

			start := time.Now()
			results, err := database.QuerySamples(q)
			if err != nil {
				return fmt.Errorf("query error: %w", err)
			}
			elapsed := time.Since(start)

			if outputFormat == "json" {
				return printJSON(results)
			}

			fmt.Printf("Found %d samples (query time: %v)\n\n", len(results), elapsed)
			for _, s := range results {
				fmt.Printf("[t=%7.2fs] Vehicle: %-12s | Speed: %6.2f mph (%6.2f km/h)\n",
					s.TimeSec, s.VehicleID, s.SpeedMPH, s.SpeedMPH*physics.MPHToKmh)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&q.VehicleID, "vehicle-id", "V", "", "Filter by telemetry vehicle ID")
	cmd.Flags().Float64Var(&q.StartSec, "start", 0, "Earliest sample time in seconds")
	cmd.Flags().Float64Var(&q.EndSec, "end", 0, "Latest sample time in seconds (0 for no bound)")
	cmd.Flags().Float64Var(&q.MinSpeed, "min-speed", 0, "Minimum speed in mph")
	cmd.Flags().IntVarP(&q.Limit, "limit", "l", 100, "Maximum samples to return (0 for all)")
	cmd.Flags().IntVar(&q.Offset, "offset", 0, "Samples to skip, requires --limit")
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "Output format (table, json)")
	return cmd
}

// telemetryCmd groups commands about the stored traces
func telemetryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "telemetry",
		Short: "Stored telemetry commands",
	}

	listCmd := &cobra.Command{
		Use:   "vehicles",
		Short: "List vehicles with stored samples and their summaries",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initDB(); err != nil {
				return fmt.Errorf("database error: %w", err)
			}
			defer database.Close()

			ids, err := database.ListVehicleIDs()
			if err != nil {
				return fmt.Errorf("query error: %w", err)
			}

			fmt.Printf("%-14s %8s %10s %10s %10s\n", "Vehicle", "Samples", "Avg mph", "Max mph", "Duration")
			fmt.Println(strings.Repeat("-", 56))
			for _, id := range ids {
				s, err := database.GetSummary(id)
				if err != nil {
					return fmt.Errorf("summary for %s: %w", id, err)
				}
				fmt.Printf("%-14s %8d %10.2f %10.2f %9.2fs\n",
					s.VehicleID, s.Samples, s.AvgSpeedMPH, s.MaxSpeedMPH, s.DurationSec)
			}
			return nil
		},
	}

	cmd.AddCommand(listCmd)
	return cmd
}

// brakingCmd lists hard-braking events found in the stored traces
func brakingCmd() *cobra.Command {
	var vehicleID string
	var threshold float64
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "braking",
		Short: "Detect hard-braking events in stored telemetry",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initDB(); err != nil {
				return fmt.Errorf("database error: %w", err)
			}
			defer database.Close()

			detector := newDetector()
			if cmd.Flags().Changed("threshold") {
				if threshold >= 0 {
					return fmt.Errorf("threshold must be negative, got %g", threshold)
				}
				detector.ThresholdMPHPerSec = threshold
			}

			samples, err := database.QuerySamples(models.TelemetryQuery{VehicleID: vehicleID})
			if err != nil {
				return fmt.Errorf("query error: %w", err)
			}
			events := detector.HardBraking(samples)

			if outputFormat == "json" {
				return printJSON(events)
			}

			fmt.Printf("Hard-braking events (below %g mph/s): %d\n\n", detector.ThresholdMPHPerSec, len(events))
			for _, e := range events {
				fmt.Printf("[t=%7.2fs] Vehicle: %-12s | Speed: %6.2f mph | Accel: %7.2f mph/s\n",
					e.TimeSec, e.VehicleID, e.SpeedMPH, e.AccelMPHS)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&vehicleID, "vehicle-id", "V", "", "Filter by telemetry vehicle ID")
	cmd.Flags().Float64VarP(&threshold, "threshold", "t", -10, "Deceleration threshold in mph/s (overrides config)")
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "Output format (table, json)")
	return cmd
}

// statsCmd shows database statistics
func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show telemetry database statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initDB(); err != nil {
				return fmt.Errorf("database error: %w", err)
			}
			defer database.Close()

			stats, err := database.GetStats()
			if err != nil {
				return fmt.Errorf("error getting stats: %w", err)
			}

			fmt.Println("Collision Sim Telemetry Statistics")
			fmt.Println("==================================")
			fmt.Printf("  Vehicles:        %v\n", stats["total_vehicles"])
			fmt.Printf("  Samples:         %v\n", stats["total_samples"])
			fmt.Printf("  Max Speed:       %.2f mph\n", stats["max_speed_mph"])
			fmt.Printf("  Database:        %s\n", cfg.Database)

			return nil
		},
	}
}
