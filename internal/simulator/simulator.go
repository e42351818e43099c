// Package simulator decides whether a braking vehicle stops short of an
// obstacle and, if it does not, how fast it hits it.
//
// The model is a single step: the vehicle covers the reaction distance at
// constant speed, then brakes at a constant deceleration capped by the lower
// of its own braking capability and the road's friction. Aerodynamic drag and
// rolling resistance are computed and reported but do not shorten the
// stopping distance.
package simulator

import (
	"fmt"
	"math"

	"collision-sim/internal/models"
	"collision-sim/internal/physics"
	"collision-sim/internal/vehicle"

	"github.com/sirupsen/logrus"
)

// ReferenceSpeedMS is the 60 mph test speed the reference braking distance is measured from.
const ReferenceSpeedMS = 60 * physics.MPHToMS

// Simulator is bound to one vehicle. Its derived braking limits are fixed at
// construction, so Run may be called from several goroutines.
type Simulator struct {
	spec     *models.VehicleSpec
	env      physics.Environment
	friction physics.FrictionTable
	loads    physics.RoadLoad
	log      *logrus.Entry

	maxDecel    float64 // m/s²
	maxBrakingG float64
}

// Option customizes a Simulator.
type Option func(*Simulator)

// WithEnvironment replaces the standard environment constants.
// The road-load calculator is rebound to the new environment unless
// WithRoadLoad is also given after it.
func WithEnvironment(env physics.Environment) Option {
	return func(s *Simulator) {
		s.env = env
		s.loads.Env = env
	}
}

// WithFriction replaces the standard friction table.
func WithFriction(f physics.FrictionTable) Option {
	return func(s *Simulator) { s.friction = f }
}

// WithRoadLoad replaces the road-load calculator.
func WithRoadLoad(r physics.RoadLoad) Option {
	return func(s *Simulator) { s.loads = r }
}

// WithLogger sets the log entry used by the simulator.
func WithLogger(l *logrus.Entry) Option {
	return func(s *Simulator) { s.log = l }
}

// New resolves vehicleID in the registry and derives the vehicle's peak
// braking deceleration from a = v²/2d at the 60 mph reference test.
func New(registry *vehicle.Registry, vehicleID string, opts ...Option) (*Simulator, error) {
	spec, err := registry.Lookup(vehicleID)
	if err != nil {
		return nil, err
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	env := physics.StandardEnvironment()
	s := &Simulator{
		spec:     spec,
		env:      env,
		friction: physics.StandardFriction(),
		loads:    physics.NewRoadLoad(env),
		log:      logrus.WithField("module", "simulator"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if !finite(s.env.Gravity) || s.env.Gravity <= 0 {
		return nil, fmt.Errorf("gravity must be positive, got %g", s.env.Gravity)
	}

	s.maxDecel = ReferenceSpeedMS * ReferenceSpeedMS / (2 * spec.BrakingDistAt60MphM)
	s.maxBrakingG = s.maxDecel / s.env.Gravity

	s.log.WithFields(logrus.Fields{
		"vehicle":       spec.ID,
		"mass_kg":       spec.MassKg,
		"max_braking_g": models.Round(s.maxBrakingG, 3),
	}).Debugf("simulator loaded for %s (%gm @ 60mph)", spec.DisplayName(), spec.BrakingDistAt60MphM)
	return s, nil
}

// Spec returns the bound vehicle spec.
func (s *Simulator) Spec() *models.VehicleSpec { return s.spec }

// MaxDecel returns the vehicle's peak braking deceleration in m/s².
func (s *Simulator) MaxDecel() float64 { return s.maxDecel }

// MaxBrakingG returns MaxDecel in units of g.
func (s *Simulator) MaxBrakingG() float64 { return s.maxBrakingG }

// Friction returns the friction table the simulator resolves surfaces with.
func (s *Simulator) Friction() physics.FrictionTable { return s.friction }

// Run simulates an emergency stop from speedKmh toward an obstacle
// obstacleDistM ahead on the given surface. Unknown surfaces use the
// friction table's fallback coefficient.
func (s *Simulator) Run(speedKmh, obstacleDistM float64, surface string, reactionTimeSec float64) (models.SimulationResult, error) {
	if err := validateInput(speedKmh, obstacleDistM, reactionTimeSec); err != nil {
		return models.SimulationResult{}, err
	}

	v0 := speedKmh * physics.KmhToMS
	drag, rolling := s.loads.Compute(speedKmh, s.spec)

	mu, known := s.friction.Coefficient(surface)
	if !known {
		s.log.WithField("surface", surface).Debugf("unknown surface, using friction %.2f", mu)
	}

	brakingG := math.Min(s.maxBrakingG, mu)
	decel := brakingG * s.env.Gravity

	reactionDist := v0 * reactionTimeSec
	brakingDist := v0 * v0 / (2 * decel)
	total := reactionDist + brakingDist
	isCrash := total > obstacleDistM

	impact := 0.0
	if isCrash {
		// obstacle reached before the brakes engage
		impact = speedKmh
		if available := obstacleDistM - reactionDist; available > 0 {
			impact = speedAfterBraking(v0, decel, available) * physics.MSToKmh
		}
	}

	limit := models.LimitCarBrake
	if mu < s.maxBrakingG {
		limit = models.LimitRoadFriction
	}

	return models.SimulationResult{
		VehicleID:       s.spec.ID,
		SpeedKmh:        speedKmh,
		Surface:         surface,
		ReactionTimeSec: reactionTimeSec,
		IsCrash:         isCrash,
		ImpactSpeedKmh:  impact,
		ReactionDistM:   reactionDist,
		BrakingDistM:    brakingDist,
		TotalDistM:      total,
		ObstacleDistM:   obstacleDistM,
		FrictionMu:      mu,
		BrakingG:        brakingG,
		AeroDragN:       drag,
		RollingResN:     rolling,
		LimitFactor:     limit,
	}, nil
}

// speedAfterBraking solves v² = v0² − 2·a·d, clamping at zero.
func speedAfterBraking(v0, decel, dist float64) float64 {
	vSq := v0*v0 - 2*decel*dist
	if vSq <= 0 {
		return 0
	}
	return math.Sqrt(vSq)
}

func validateInput(speedKmh, obstacleDistM, reactionTimeSec float64) error {
	switch {
	case !finite(speedKmh) || speedKmh <= 0:
		return fmt.Errorf("%w: speed must be positive, got %g km/h", models.ErrInvalidInput, speedKmh)
	case !finite(obstacleDistM) || obstacleDistM < 0:
		return fmt.Errorf("%w: obstacle distance cannot be negative, got %g m", models.ErrInvalidInput, obstacleDistM)
	case !finite(reactionTimeSec) || reactionTimeSec <= 0:
		return fmt.Errorf("%w: reaction time must be positive, got %g s", models.ErrInvalidInput, reactionTimeSec)
	}
	return nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
