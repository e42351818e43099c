// Package analysis derives braking events and scenario speeds from speed traces.
package analysis

import (
	"fmt"
	"sort"

	"collision-sim/internal/models"
	"collision-sim/internal/physics"

	"github.com/samber/lo"
)

// Detector finds hard-braking samples in telemetry traces
type Detector struct {
	// SampleIntervalSec is used as Δt when two consecutive samples of a vehicle share a timestamp.
	SampleIntervalSec float64
	// ThresholdMPHPerSec is the deceleration below which a sample counts as hard braking.
	ThresholdMPHPerSec float64
}

// NewDetector returns a detector for 10 Hz traces with a −10 mph/s threshold.
func NewDetector() Detector {
	return Detector{SampleIntervalSec: 0.1, ThresholdMPHPerSec: -10}
}

// AccelSample is a sample with the acceleration since the previous sample of the same vehicle
type AccelSample struct {
	models.TelemetrySample
	AccelMPHS float64
	HasAccel  bool // false for the first sample of each vehicle
}

// Accelerations groups samples by vehicle, orders each group by time and
// derives Δspeed/Δt between consecutive samples. Output is ordered by
// vehicle id, then time.
func (d Detector) Accelerations(samples []models.TelemetrySample) []AccelSample {
	groups := lo.GroupBy(samples, func(s models.TelemetrySample) string { return s.VehicleID })
	ids := lo.Keys(groups)
	sort.Strings(ids)

	out := make([]AccelSample, 0, len(samples))
	for _, id := range ids {
		trace := groups[id]
		sort.SliceStable(trace, func(i, j int) bool { return trace[i].TimeSec < trace[j].TimeSec })
		for i, s := range trace {
			a := AccelSample{TelemetrySample: s}
			if i > 0 {
				dt := s.TimeSec - trace[i-1].TimeSec
				if dt <= 0 {
					dt = d.SampleIntervalSec
				}
				a.AccelMPHS = (s.SpeedMPH - trace[i-1].SpeedMPH) / dt
				a.HasAccel = true
			}
			out = append(out, a)
		}
	}
	return out
}

// HardBraking returns the samples whose deceleration is strictly below the threshold.
func (d Detector) HardBraking(samples []models.TelemetrySample) []models.BrakingEvent {
	hard := lo.Filter(d.Accelerations(samples), func(a AccelSample, _ int) bool {
		return a.HasAccel && a.AccelMPHS < d.ThresholdMPHPerSec
	})
	return lo.Map(hard, func(a AccelSample, _ int) models.BrakingEvent {
		return models.BrakingEvent{
			VehicleID: a.VehicleID,
			TimeSec:   a.TimeSec,
			SpeedMPH:  a.SpeedMPH,
			AccelMPHS: a.AccelMPHS,
		}
	})
}

// SelectScenario picks the top speed of the trace as a simulation start
// speed. With vehicleID set only that vehicle's samples are considered.
func SelectScenario(samples []models.TelemetrySample, vehicleID string) (models.Scenario, error) {
	if vehicleID != "" {
		samples = lo.Filter(samples, func(s models.TelemetrySample, _ int) bool { return s.VehicleID == vehicleID })
	}
	if len(samples) == 0 {
		if vehicleID != "" {
			return models.Scenario{}, fmt.Errorf("no telemetry for vehicle %q", vehicleID)
		}
		return models.Scenario{}, fmt.Errorf("no telemetry samples")
	}

	fastest := lo.MaxBy(samples, func(a, b models.TelemetrySample) bool { return a.SpeedMPH > b.SpeedMPH })
	return models.Scenario{
		VehicleID:   vehicleID,
		MaxSpeedMPH: fastest.SpeedMPH,
		SpeedKmh:    fastest.SpeedMPH * physics.MPHToKmh,
		Samples:     len(samples),
	}, nil
}
