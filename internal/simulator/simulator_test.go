package simulator

import (
	"errors"
	"math"
	"sync"
	"testing"

	"collision-sim/internal/models"
	"collision-sim/internal/physics"
	"collision-sim/internal/vehicle"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIPace(t *testing.T, opts ...Option) *Simulator {
	t.Helper()
	s, err := New(vehicle.Default(), vehicle.DefaultID, opts...)
	require.NoError(t, err)
	return s
}

func TestNew(t *testing.T) {
	t.Run("derives braking capability from the 60 mph test", func(t *testing.T) {
		s := newIPace(t)
		assert.InDelta(t, 26.8224, ReferenceSpeedMS, 1e-12)
		assert.InDelta(t, 10.58, s.MaxDecel(), 0.005)
		assert.InDelta(t, 1.079, s.MaxBrakingG(), 0.0005)
		assert.Equal(t, vehicle.DefaultID, s.Spec().ID)
	})

	t.Run("max braking g is v_ref squared over 2 d g", func(t *testing.T) {
		for _, id := range vehicle.Default().IDs() {
			s, err := New(vehicle.Default(), id)
			require.NoError(t, err)
			d := s.Spec().BrakingDistAt60MphM
			want := ReferenceSpeedMS * ReferenceSpeedMS / (2 * d * 9.80665)
			assert.InDelta(t, want, s.MaxBrakingG(), 1e-12, id)
		}
	})

	t.Run("unknown vehicle", func(t *testing.T) {
		s, err := New(vehicle.Default(), "batmobile")
		assert.Nil(t, s)
		assert.True(t, errors.Is(err, models.ErrVehicleNotFound))
	})

	t.Run("non-positive or non-finite braking distance", func(t *testing.T) {
		for _, d := range []float64{0, -10, math.NaN(), math.Inf(1)} {
			reg := vehicle.NewRegistry(models.VehicleSpec{ID: "bad", MassKg: 1000, BrakingDistAt60MphM: d})
			s, err := New(reg, "bad")
			assert.Nil(t, s)
			assert.True(t, errors.Is(err, models.ErrInvalidVehicleSpec))
		}
	})

	t.Run("custom gravity changes braking g", func(t *testing.T) {
		s := newIPace(t, WithEnvironment(physics.Environment{Gravity: 9.8, AirDensity: 1.2}))
		assert.InDelta(t, s.MaxDecel()/9.8, s.MaxBrakingG(), 1e-12)
	})

	t.Run("rejects zero gravity", func(t *testing.T) {
		_, err := New(vehicle.Default(), vehicle.DefaultID, WithEnvironment(physics.Environment{}))
		assert.Error(t, err)
	})

	t.Run("rejects NaN gravity", func(t *testing.T) {
		_, err := New(vehicle.Default(), vehicle.DefaultID, WithEnvironment(physics.Environment{Gravity: math.NaN(), AirDensity: 1.2}))
		assert.Error(t, err)
	})
}

func TestRunWetAsphaltCrash(t *testing.T) {
	s := newIPace(t)

	r, err := s.Run(80, 40, physics.WetAsphalt, 1.0)
	require.NoError(t, err)

	assert.Equal(t, 0.60, r.FrictionMu)
	assert.Equal(t, 0.60, r.BrakingG)
	assert.InDelta(t, 22.22, r.ReactionDistM, 0.005)
	assert.InDelta(t, 41.96, r.BrakingDistM, 0.005)
	assert.InDelta(t, 64.19, r.TotalDistM, 0.005)
	assert.True(t, r.IsCrash)
	assert.InDelta(t, 60.73, r.ImpactSpeedKmh, 0.01)
	assert.Equal(t, models.LimitRoadFriction, r.LimitFactor)

	assert.InDelta(t, 219.99, r.AeroDragN, 0.01)
	assert.InDelta(t, 319.21, r.RollingResN, 0.01)

	assert.Equal(t, vehicle.DefaultID, r.VehicleID)
	assert.Equal(t, 80.0, r.SpeedKmh)
	assert.Equal(t, 40.0, r.ObstacleDistM)
}

func TestRunObstacleDistances(t *testing.T) {
	s := newIPace(t)

	t.Run("60 m still crashes at lower speed", func(t *testing.T) {
		r, err := s.Run(80, 60, physics.WetAsphalt, 1.0)
		require.NoError(t, err)
		assert.True(t, r.IsCrash)
		assert.InDelta(t, 25.27, r.ImpactSpeedKmh, 0.01)
	})

	t.Run("70 m stops short", func(t *testing.T) {
		r, err := s.Run(80, 70, physics.WetAsphalt, 1.0)
		require.NoError(t, err)
		assert.False(t, r.IsCrash)
		assert.Zero(t, r.ImpactSpeedKmh)
	})

	t.Run("obstacle inside reaction distance hits at full speed", func(t *testing.T) {
		for _, obstacle := range []float64{0, 10, 22.2} {
			r, err := s.Run(80, obstacle, physics.WetAsphalt, 1.0)
			require.NoError(t, err)
			assert.True(t, r.IsCrash)
			assert.Equal(t, 80.0, r.ImpactSpeedKmh, "obstacle %g", obstacle)
		}
	})

	t.Run("obstacle exactly at the reaction distance", func(t *testing.T) {
		r, err := s.Run(72, 20, physics.DryAsphalt, 1.0)
		require.NoError(t, err)
		assert.True(t, r.IsCrash)
		assert.Equal(t, 72.0, r.ImpactSpeedKmh)
	})
}

func TestRunStoppingBoundary(t *testing.T) {
	s := newIPace(t)
	base, err := s.Run(80, 100, physics.WetAsphalt, 1.0)
	require.NoError(t, err)

	t.Run("obstacle at total stopping distance is not a crash", func(t *testing.T) {
		r, err := s.Run(80, base.TotalDistM, physics.WetAsphalt, 1.0)
		require.NoError(t, err)
		assert.False(t, r.IsCrash)
		assert.Zero(t, r.ImpactSpeedKmh)
	})

	t.Run("obstacle a hair short crashes at near zero speed", func(t *testing.T) {
		r, err := s.Run(80, base.TotalDistM-1e-9, physics.WetAsphalt, 1.0)
		require.NoError(t, err)
		assert.True(t, r.IsCrash)
		assert.Less(t, r.ImpactSpeedKmh, 0.01)
		assert.GreaterOrEqual(t, r.ImpactSpeedKmh, 0.0)
	})

	t.Run("braking room beyond the stop clamps to zero", func(t *testing.T) {
		v0 := 80 * physics.KmhToMS
		decel := 0.6 * 9.80665
		assert.Zero(t, speedAfterBraking(v0, decel, base.BrakingDistM+1))
		assert.Zero(t, speedAfterBraking(v0, decel, v0*v0/(2*decel)))
	})
}

func TestRunUnknownSurface(t *testing.T) {
	s := newIPace(t)

	unknown, err := s.Run(80, 40, "LAVA", 1.0)
	require.NoError(t, err)
	assert.Equal(t, 0.6, unknown.FrictionMu)
	assert.Equal(t, "LAVA", unknown.Surface)

	wet, err := s.Run(80, 40, physics.WetAsphalt, 1.0)
	require.NoError(t, err)
	assert.Equal(t, wet.TotalDistM, unknown.TotalDistM)
}

func TestRunLimitFactor(t *testing.T) {
	reg := vehicle.NewRegistry(
		models.VehicleSpec{ID: "truck", MassKg: 8000, BrakingDistAt60MphM: 50},
		models.VehicleSpec{ID: "exact", MassKg: 1000, BrakingDistAt60MphM: 50},
	)
	truck, err := New(reg, "truck")
	require.NoError(t, err)
	require.InDelta(t, 0.7336, truck.MaxBrakingG(), 0.0001)

	t.Run("weak brakes on good grip", func(t *testing.T) {
		r, err := truck.Run(100, 200, physics.DryAsphalt, 1.5)
		require.NoError(t, err)
		assert.Equal(t, models.LimitCarBrake, r.LimitFactor)
		assert.Equal(t, truck.MaxBrakingG(), r.BrakingG)
	})

	t.Run("low grip dominates", func(t *testing.T) {
		r, err := truck.Run(100, 200, physics.Snow, 1.5)
		require.NoError(t, err)
		assert.Equal(t, models.LimitRoadFriction, r.LimitFactor)
		assert.Equal(t, 0.25, r.BrakingG)
	})

	t.Run("equal limits count as car brake", func(t *testing.T) {
		s, err := New(reg, "exact")
		require.NoError(t, err)
		friction := physics.NewFrictionTable(map[string]float64{"MATCH": s.MaxBrakingG()}, 0.6)
		s, err = New(reg, "exact", WithFriction(friction))
		require.NoError(t, err)

		r, err := s.Run(100, 200, "MATCH", 1.5)
		require.NoError(t, err)
		assert.Equal(t, models.LimitCarBrake, r.LimitFactor)
	})
}

func TestRunRoadLoadsDoNotAffectStopping(t *testing.T) {
	plain := newIPace(t)
	heavy := newIPace(t, WithRoadLoad(physics.RoadLoad{
		Env:                physics.Environment{Gravity: 9.80665, AirDensity: 5},
		FrontalAreaFactor:  3,
		RollingCoefficient: 0.2,
	}))

	a, err := plain.Run(120, 80, physics.DryAsphalt, 1.0)
	require.NoError(t, err)
	b, err := heavy.Run(120, 80, physics.DryAsphalt, 1.0)
	require.NoError(t, err)

	assert.Greater(t, b.AeroDragN, a.AeroDragN)
	assert.Greater(t, b.RollingResN, a.RollingResN)
	assert.Equal(t, a.BrakingDistM, b.BrakingDistM)
	assert.Equal(t, a.TotalDistM, b.TotalDistM)
	assert.Equal(t, a.ImpactSpeedKmh, b.ImpactSpeedKmh)
}

func TestRunInvalidInput(t *testing.T) {
	s := newIPace(t)
	cases := []struct {
		name     string
		speed    float64
		obstacle float64
		reaction float64
	}{
		{"zero speed", 0, 40, 1},
		{"negative speed", -10, 40, 1},
		{"NaN speed", math.NaN(), 40, 1},
		{"infinite speed", math.Inf(1), 40, 1},
		{"negative obstacle", 80, -1, 1},
		{"NaN obstacle", 80, math.NaN(), 1},
		{"zero reaction", 80, 40, 0},
		{"negative reaction", 80, 40, -0.5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := s.Run(tc.speed, tc.obstacle, physics.WetAsphalt, tc.reaction)
			assert.True(t, errors.Is(err, models.ErrInvalidInput))
			assert.Equal(t, models.SimulationResult{}, r)
		})
	}

	t.Run("zero obstacle is allowed", func(t *testing.T) {
		r, err := s.Run(50, 0, physics.WetAsphalt, 1)
		require.NoError(t, err)
		assert.True(t, r.IsCrash)
		assert.Equal(t, 50.0, r.ImpactSpeedKmh)
	})
}

func TestMonotonicInSpeed(t *testing.T) {
	s := newIPace(t)
	for _, surface := range physics.StandardFriction().Surfaces() {
		prev := 0.0
		for speed := 5.0; speed <= 200; speed += 5 {
			r, err := s.Run(speed, 50, surface, 1.5)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, r.TotalDistM, prev, "%s at %g km/h", surface, speed)
			prev = r.TotalDistM
		}
	}
}

func TestLowerFrictionNeverStopsShorter(t *testing.T) {
	s := newIPace(t)
	surfaces := physics.StandardFriction().Surfaces() // highest grip first
	for _, speed := range []float64{30, 60, 90, 130} {
		prev := 0.0
		for _, surface := range surfaces {
			r, err := s.Run(speed, 50, surface, 1.0)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, r.TotalDistM, prev, "%s at %g km/h", surface, speed)
			prev = r.TotalDistM
		}
	}

	ice, _ := s.Run(80, 50, physics.Ice, 1.0)
	dry, _ := s.Run(80, 50, physics.DryAsphalt, 1.0)
	assert.Greater(t, ice.TotalDistM, dry.TotalDistM)
}

func TestRunConcurrent(t *testing.T) {
	s := newIPace(t)
	want, err := s.Run(80, 40, physics.WetAsphalt, 1.0)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]models.SimulationResult, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = s.Run(80, 40, physics.WetAsphalt, 1.0)
		}(i)
	}
	wg.Wait()
	for _, r := range results {
		assert.Equal(t, want, r)
	}
}

func TestReport(t *testing.T) {
	s := newIPace(t)
	r, err := s.Run(80, 40, physics.WetAsphalt, 1.0)
	require.NoError(t, err)

	rep := r.Report()
	assert.Equal(t, "WET_ASPHALT / 80km/h", rep.Scenario)
	assert.True(t, rep.IsCrash)
	assert.Equal(t, 60.7, rep.ImpactSpeedKmh)
	assert.Equal(t, 22.22, rep.Distances.ReactionM)
	assert.Equal(t, 41.96, rep.Distances.BrakingM)
	assert.Equal(t, 64.19, rep.Distances.TotalM)
	assert.Equal(t, 40.0, rep.Distances.ObstacleM)
	assert.Equal(t, 0.6, rep.PhysicsAnalysis.BrakingG)
	assert.Equal(t, 220.0, rep.PhysicsAnalysis.AeroDragN)
	assert.Equal(t, 319.2, rep.PhysicsAnalysis.RollingResN)
	assert.Equal(t, models.LimitRoadFriction, rep.LimitFactor)
}

func TestCompareSurfaces(t *testing.T) {
	s := newIPace(t)

	t.Run("defaults to every surface", func(t *testing.T) {
		rows, err := s.CompareSurfaces(100, 50, 1.0)
		require.NoError(t, err)
		require.Len(t, rows, 6)
		assert.Equal(t, physics.DryAsphalt, rows[0].Result.Surface)
		assert.Zero(t, rows[0].ExtraStoppingM)
		assert.Equal(t, physics.Ice, rows[5].Result.Surface)
		assert.Greater(t, rows[5].ExtraStoppingM, rows[4].ExtraStoppingM)
	})

	t.Run("dry versus wet", func(t *testing.T) {
		rows, err := s.CompareSurfaces(80, 40, 1.0, physics.DryAsphalt, physics.WetAsphalt)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		want := rows[1].Result.BrakingDistM - rows[0].Result.BrakingDistM
		assert.InDelta(t, want, rows[1].ExtraStoppingM, 1e-9)
		assert.Greater(t, rows[1].ExtraStoppingM, 0.0)
	})

	t.Run("propagates invalid input", func(t *testing.T) {
		_, err := s.CompareSurfaces(-1, 40, 1.0)
		assert.True(t, errors.Is(err, models.ErrInvalidInput))
	})
}
