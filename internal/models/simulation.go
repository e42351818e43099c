package models

import (
	"fmt"
	"math"
)

// LimitFactor names the constraint that caps braking deceleration
type LimitFactor string

const (
	LimitRoadFriction LimitFactor = "ROAD_FRICTION"
	LimitCarBrake     LimitFactor = "CAR_BRAKE"
)

// SimulationResult is the unrounded outcome of one stopping run
type SimulationResult struct {
	VehicleID       string      `json:"vehicle_id"`
	SpeedKmh        float64     `json:"speed_kmh"`
	Surface         string      `json:"surface"`
	ReactionTimeSec float64     `json:"reaction_time_sec"`
	IsCrash         bool        `json:"is_crash"`
	ImpactSpeedKmh  float64     `json:"impact_speed_kmh"`
	ReactionDistM   float64     `json:"reaction_m"`
	BrakingDistM    float64     `json:"braking_m"`
	TotalDistM      float64     `json:"total_m"`
	ObstacleDistM   float64     `json:"obstacle_m"`
	FrictionMu      float64     `json:"friction_mu"`
	BrakingG        float64     `json:"braking_g"`
	AeroDragN       float64     `json:"aero_drag_n"`
	RollingResN     float64     `json:"rolling_res_n"`
	LimitFactor     LimitFactor `json:"limit_factor"`
}

// Report is the presentation form of a SimulationResult
type Report struct {
	Scenario        string          `json:"scenario"`
	IsCrash         bool            `json:"is_crash"`
	ImpactSpeedKmh  float64         `json:"impact_speed_kmh"`
	Distances       ReportDistances `json:"distances"`
	PhysicsAnalysis ReportPhysics   `json:"physics_analysis"`
	LimitFactor     LimitFactor     `json:"limit_factor"`
}

// ReportDistances groups the distance figures of a Report, in metres
type ReportDistances struct {
	ReactionM float64 `json:"reaction_m"`
	BrakingM  float64 `json:"braking_m"`
	TotalM    float64 `json:"total_m"`
	ObstacleM float64 `json:"obstacle_m"`
}

// ReportPhysics groups friction and road-load figures of a Report
type ReportPhysics struct {
	FrictionMu  float64 `json:"friction_mu"`
	BrakingG    float64 `json:"braking_g"`
	AeroDragN   float64 `json:"aero_drag_N"`
	RollingResN float64 `json:"rolling_res_N"`
}

// Report rounds the result for display. Impact speed and forces keep one
// decimal, distances and braking g keep two.
func (r SimulationResult) Report() Report {
	return Report{
		Scenario:       fmt.Sprintf("%s / %gkm/h", r.Surface, r.SpeedKmh),
		IsCrash:        r.IsCrash,
		ImpactSpeedKmh: Round(r.ImpactSpeedKmh, 1),
		Distances: ReportDistances{
			ReactionM: Round(r.ReactionDistM, 2),
			BrakingM:  Round(r.BrakingDistM, 2),
			TotalM:    Round(r.TotalDistM, 2),
			ObstacleM: r.ObstacleDistM,
		},
		PhysicsAnalysis: ReportPhysics{
			FrictionMu:  r.FrictionMu,
			BrakingG:    Round(r.BrakingG, 2),
			AeroDragN:   Round(r.AeroDragN, 1),
			RollingResN: Round(r.RollingResN, 1),
		},
		LimitFactor: r.LimitFactor,
	}
}

// SurfaceComparison is one row of a surface sweep
type SurfaceComparison struct {
	Result SimulationResult `json:"result"`
	// ExtraStoppingM is the added total stopping distance against the baseline surface
	ExtraStoppingM float64 `json:"extra_stopping_m"`
}

// Round rounds x to the given number of decimal places
func Round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}
