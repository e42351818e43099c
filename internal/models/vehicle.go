package models

import (
	"fmt"
	"math"
)

// VehicleSpec holds the physical data the simulator needs for one vehicle
type VehicleSpec struct {
	ID                  string  `json:"id" yaml:"id"`
	Brand               string  `json:"brand" yaml:"brand"`
	Model               string  `json:"model" yaml:"model"`
	Year                int     `json:"year" yaml:"year"`
	MassKg              float64 `json:"mass_kg" yaml:"mass_kg"`
	LengthM             float64 `json:"length_m" yaml:"length_m"`
	WidthBodyM          float64 `json:"width_body_m" yaml:"width_body_m"` // body only, mirrors excluded
	HeightM             float64 `json:"height_m" yaml:"height_m"`
	WheelbaseM          float64 `json:"wheelbase_m" yaml:"wheelbase_m"`
	DragCoeff           float64 `json:"drag_coeff" yaml:"drag_coeff"`
	Accel0To60Sec       float64 `json:"accel_0_60mph_sec,omitempty" yaml:"accel_0_60mph_sec,omitempty"`
	BrakingDistAt60MphM float64 `json:"braking_dist_at_60mph_m" yaml:"braking_dist_at_60mph_m"` // 60-0 mph
}

// Validate checks the invariants the simulator relies on. NaN and Inf fail every check.
func (v *VehicleSpec) Validate() error {
	if !positiveFinite(v.BrakingDistAt60MphM) {
		return fmt.Errorf("%w: %s: braking distance at 60 mph must be positive, got %g",
			ErrInvalidVehicleSpec, v.ID, v.BrakingDistAt60MphM)
	}
	if !positiveFinite(v.MassKg) {
		return fmt.Errorf("%w: %s: mass must be positive, got %g", ErrInvalidVehicleSpec, v.ID, v.MassKg)
	}
	if math.IsNaN(v.DragCoeff) || math.IsInf(v.DragCoeff, 0) || v.DragCoeff < 0 {
		return fmt.Errorf("%w: %s: drag coefficient must be finite and non-negative, got %g", ErrInvalidVehicleSpec, v.ID, v.DragCoeff)
	}
	return nil
}

func positiveFinite(x float64) bool {
	return x > 0 && !math.IsInf(x, 1)
}

// DisplayName returns "year brand model"
func (v *VehicleSpec) DisplayName() string {
	if v.Year == 0 {
		return fmt.Sprintf("%s %s", v.Brand, v.Model)
	}
	return fmt.Sprintf("%d %s %s", v.Year, v.Brand, v.Model)
}
