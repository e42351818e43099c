package physics

import "collision-sim/internal/models"

// RoadLoad computes the resistive forces acting on a moving vehicle
// (Gillespie ch. 2). The forces are informational: the stopping model does
// not subtract them from the braking deceleration.
type RoadLoad struct {
	Env Environment
	// FrontalAreaFactor scales body width × height to an effective frontal area.
	FrontalAreaFactor float64
	// RollingCoefficient is fr in Rx = fr·m·g; about 0.015 on asphalt.
	RollingCoefficient float64
}

// NewRoadLoad returns a calculator with the default area factor and rolling coefficient.
func NewRoadLoad(env Environment) RoadLoad {
	return RoadLoad{Env: env, FrontalAreaFactor: 0.85, RollingCoefficient: 0.015}
}

// FrontalArea estimates the frontal area in m².
func (r RoadLoad) FrontalArea(spec *models.VehicleSpec) float64 {
	return spec.WidthBodyM * spec.HeightM * r.FrontalAreaFactor
}

// Drag returns aerodynamic drag in N at speedKmh (Gillespie eq. 2.16).
func (r RoadLoad) Drag(speedKmh float64, spec *models.VehicleSpec) float64 {
	v := speedKmh * KmhToMS
	return AeroDrag(r.Env.AirDensity, spec.DragCoeff, r.FrontalArea(spec), v)
}

// RollingResistance returns rolling resistance in N (Gillespie eq. 2.22).
// It does not depend on speed.
func (r RoadLoad) RollingResistance(spec *models.VehicleSpec) float64 {
	return RollingResistance(r.RollingCoefficient, spec.MassKg, r.Env.Gravity)
}

// Compute returns (drag, rolling resistance) in N.
func (r RoadLoad) Compute(speedKmh float64, spec *models.VehicleSpec) (float64, float64) {
	return r.Drag(speedKmh, spec), r.RollingResistance(spec)
}
