package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"collision-sim/internal/analysis"
	"collision-sim/internal/models"
	"collision-sim/internal/physics"
	"collision-sim/internal/simulator"
	"collision-sim/internal/vehicle"

	"github.com/spf13/cobra"
)

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// scenarioFlags are the inputs shared by simulate, compare and scenario
type scenarioFlags struct {
	vehicleID string
	speedKmh  float64
	obstacleM float64
	surface   string
	reaction  string
	output    string
}

func (f *scenarioFlags) register(cmd *cobra.Command, withSpeed, withSurface bool) {
	cmd.Flags().StringVarP(&f.vehicleID, "vehicle", "m", vehicle.DefaultID, "Vehicle ID from the registry")
	if withSpeed {
		cmd.Flags().Float64VarP(&f.speedKmh, "speed", "s", 80, "Initial speed in km/h")
	}
	cmd.Flags().Float64VarP(&f.obstacleM, "obstacle", "d", 40, "Distance to the obstacle in metres")
	if withSurface {
		cmd.Flags().StringVarP(&f.surface, "surface", "r", physics.WetAsphalt, "Road surface label")
	}
	cmd.Flags().StringVarP(&f.reaction, "reaction", "t", "AVERAGE", "Reaction time in seconds or a preset (DESIGN_STANDARD, AVERAGE, FAST_AI)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "table", "Output format (table, json)")
}

// simulateCmd runs one stopping scenario
func simulateCmd() *cobra.Command {
	var f scenarioFlags

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Simulate an emergency stop toward an obstacle",
		RunE: func(cmd *cobra.Command, args []string) error {
			reaction, err := physics.ParseReactionTime(f.reaction)
			if err != nil {
				return err
			}
			sim, err := newSimulator(f.vehicleID)
			if err != nil {
				return err
			}
			result, err := sim.Run(f.speedKmh, f.obstacleM, f.surface, reaction)
			if err != nil {
				return err
			}

			if f.output == "json" {
				return printJSON(result.Report())
			}
			printVehicleHeader(sim)
			printReport(result.Report())
			return nil
		},
	}

	f.register(cmd, true, true)
	return cmd
}

// compareCmd runs the same stop across several surfaces
func compareCmd() *cobra.Command {
	var f scenarioFlags
	var surfaces []string

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare stopping distance across road surfaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			reaction, err := physics.ParseReactionTime(f.reaction)
			if err != nil {
				return err
			}
			sim, err := newSimulator(f.vehicleID)
			if err != nil {
				return err
			}
			rows, err := sim.CompareSurfaces(f.speedKmh, f.obstacleM, reaction, surfaces...)
			if err != nil {
				return err
			}

			if f.output == "json" {
				return printJSON(rows)
			}
			printVehicleHeader(sim)
			fmt.Printf("%-14s %6s %9s %9s %9s %8s %12s\n", "Surface", "Mu", "Total m", "Extra m", "Impact", "Crash", "Limit")
			fmt.Println(strings.Repeat("-", 74))
			for _, row := range rows {
				r := row.Result.Report()
				fmt.Printf("%-14s %6.2f %9.2f %9.2f %9.1f %8v %12s\n",
					row.Result.Surface, r.PhysicsAnalysis.FrictionMu, r.Distances.TotalM,
					models.Round(row.ExtraStoppingM, 2), r.ImpactSpeedKmh, r.IsCrash, r.LimitFactor)
			}
			return nil
		},
	}

	f.register(cmd, true, false)
	cmd.Flags().StringSliceVar(&surfaces, "surface", nil, "Surfaces to compare, first is the baseline (default: all, highest grip first)")
	return cmd
}

// scenarioCmd picks the top speed from stored telemetry and simulates a stop from it
func scenarioCmd() *cobra.Command {
	var f scenarioFlags
	var traceVehicle string

	cmd := &cobra.Command{
		Use:   "scenario",
		Short: "Simulate a stop from the top speed found in stored telemetry",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initDB(); err != nil {
				return fmt.Errorf("database error: %w", err)
			}
			defer database.Close()

			reaction, err := physics.ParseReactionTime(f.reaction)
			if err != nil {
				return err
			}
			samples, err := database.QuerySamples(models.TelemetryQuery{VehicleID: traceVehicle})
			if err != nil {
				return fmt.Errorf("query error: %w", err)
			}
			scenario, err := analysis.SelectScenario(samples, traceVehicle)
			if err != nil {
				return err
			}

			sim, err := newSimulator(f.vehicleID)
			if err != nil {
				return err
			}
			result, err := sim.Run(scenario.SpeedKmh, f.obstacleM, f.surface, reaction)
			if err != nil {
				return err
			}

			if f.output == "json" {
				return printJSON(map[string]interface{}{"scenario": scenario, "report": result.Report()})
			}
			fmt.Printf("Scenario speed: %.2f mph (%.2f km/h) from %d samples\n\n",
				scenario.MaxSpeedMPH, scenario.SpeedKmh, scenario.Samples)
			printVehicleHeader(sim)
			printReport(result.Report())
			return nil
		},
	}

	f.register(cmd, false, true)
	cmd.Flags().StringVarP(&traceVehicle, "vehicle-id", "V", "", "Telemetry vehicle ID to take the speed from (default: whole dataset)")
	return cmd
}

// vehiclesCmd lists and shows registry entries
func vehiclesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vehicles",
		Short: "Vehicle registry commands",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all vehicles",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("%-22s %-45s %8s %10s\n", "ID", "Name", "Mass kg", "60-0 m")
			fmt.Println(strings.Repeat("-", 88))
			for _, v := range registry.List() {
				fmt.Printf("%-22s %-45s %8.0f %10.2f\n", v.ID, v.DisplayName(), v.MassKg, v.BrakingDistAt60MphM)
			}
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show [vehicle_id]",
		Short: "Show a vehicle's spec and derived braking capability",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sim, err := newSimulator(args[0])
			if err != nil {
				return err
			}
			v := sim.Spec()
			loads := cfg.RoadLoadCalculator()

			fmt.Printf("%s (%s)\n", v.DisplayName(), v.ID)
			fmt.Println(strings.Repeat("=", 50))
			fmt.Printf("  Mass:              %.0f kg\n", v.MassKg)
			fmt.Printf("  Length:            %.3f m\n", v.LengthM)
			fmt.Printf("  Body width:        %.3f m\n", v.WidthBodyM)
			fmt.Printf("  Height:            %.3f m\n", v.HeightM)
			fmt.Printf("  Wheelbase:         %.3f m\n", v.WheelbaseM)
			fmt.Printf("  Drag coefficient:  %.3f\n", v.DragCoeff)
			fmt.Printf("  Frontal area:      %.2f m²\n", loads.FrontalArea(v))
			if v.Accel0To60Sec > 0 {
				fmt.Printf("  0-60 mph:          %.1f s\n", v.Accel0To60Sec)
			}
			fmt.Printf("  60-0 mph:          %.2f m\n", v.BrakingDistAt60MphM)
			fmt.Printf("  Max deceleration:  %.2f m/s²\n", sim.MaxDecel())
			fmt.Printf("  Max braking:       %.3f g\n", sim.MaxBrakingG())
			fmt.Printf("  Rolling resistance: %.1f N\n", loads.RollingResistance(v))
			return nil
		},
	}

	cmd.AddCommand(listCmd, showCmd)
	return cmd
}

// surfacesCmd prints the friction table and reaction-time presets
func surfacesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "surfaces",
		Short: "List road surfaces and reaction-time presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			friction := cfg.FrictionTable()
			fmt.Printf("%-14s %s\n", "Surface", "Mu")
			for _, label := range friction.Surfaces() {
				mu, _ := friction.Coefficient(label)
				fmt.Printf("%-14s %.2f\n", label, mu)
			}
			fmt.Printf("%-14s %.2f\n\n", "(other)", friction.Fallback)

			fmt.Printf("%-16s %s\n", "Reaction preset", "Seconds")
			for _, name := range physics.ReactionPresets() {
				t, _ := physics.ReactionTime(name)
				fmt.Printf("%-16s %.1f\n", name, t)
			}
			return nil
		},
	}
}

func printVehicleHeader(sim *simulator.Simulator) {
	fmt.Printf("Vehicle: %s | Max braking %.3f g (from %.2f m @ 60 mph)\n\n",
		sim.Spec().DisplayName(), sim.MaxBrakingG(), sim.Spec().BrakingDistAt60MphM)
}

func printReport(r models.Report) {
	fmt.Printf("Scenario:       %s\n", r.Scenario)
	if r.IsCrash {
		fmt.Printf("Crash:          YES\n")
		fmt.Printf("Impact speed:   %.1f km/h\n", r.ImpactSpeedKmh)
	} else {
		fmt.Printf("Crash:          NO\n")
	}
	fmt.Println()
	fmt.Printf("Reaction dist:  %.2f m\n", r.Distances.ReactionM)
	fmt.Printf("Braking dist:   %.2f m\n", r.Distances.BrakingM)
	fmt.Printf("Stopping dist:  %.2f m (obstacle at %g m)\n", r.Distances.TotalM, r.Distances.ObstacleM)
	fmt.Println()
	fmt.Printf("Friction (mu):  %.2f\n", r.PhysicsAnalysis.FrictionMu)
	fmt.Printf("Braking:        %.2f g (%s)\n", r.PhysicsAnalysis.BrakingG, r.LimitFactor)
	fmt.Printf("Aero drag:      %.1f N\n", r.PhysicsAnalysis.AeroDragN)
	fmt.Printf("Rolling res.:   %.1f N\n", r.PhysicsAnalysis.RollingResN)
}
