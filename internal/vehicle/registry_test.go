package vehicle

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"collision-sim/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	r := Default()
	assert.Equal(t, []string{"tesla_m3_std_2024", "waymo_jaguar_ipace"}, r.IDs())

	spec, err := r.Lookup(DefaultID)
	require.NoError(t, err)
	assert.Equal(t, 2170.0, spec.MassKg)
	assert.Equal(t, 34.0, spec.BrakingDistAt60MphM)
	assert.NoError(t, spec.Validate())

	tesla, err := r.Lookup("tesla_m3_std_2024")
	require.NoError(t, err)
	assert.Equal(t, 35.05, tesla.BrakingDistAt60MphM)
	assert.Equal(t, "2024 Tesla Model 3 Rear-Wheel Drive (2024 Highland)", tesla.DisplayName())
}

func TestLookupNotFound(t *testing.T) {
	_, err := Default().Lookup("delorean")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrVehicleNotFound))
	assert.Contains(t, err.Error(), "delorean")
}

func TestLookupReturnsSharedSpec(t *testing.T) {
	r := Default()
	a, _ := r.Lookup(DefaultID)
	b, _ := r.Lookup(DefaultID)
	assert.Same(t, a, b)
}

func TestListOrder(t *testing.T) {
	list := Default().List()
	require.Len(t, list, 2)
	assert.Equal(t, "tesla_m3_std_2024", list[0].ID)
	assert.Equal(t, "waymo_jaguar_ipace", list[1].ID)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("merges over builtins", func(t *testing.T) {
		path := filepath.Join(dir, "ok.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
- id: test_van
  brand: Test
  model: Van
  mass_kg: 2500
  width_body_m: 2.0
  height_m: 2.2
  drag_coeff: 0.35
  braking_dist_at_60mph_m: 42
`), 0o644))

		r, err := LoadFile(path)
		require.NoError(t, err)
		assert.Len(t, r.IDs(), 3)
		van, err := r.Lookup("test_van")
		require.NoError(t, err)
		assert.Equal(t, 42.0, van.BrakingDistAt60MphM)
	})

	t.Run("rejects invalid spec", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
- id: broken
  mass_kg: 1000
  braking_dist_at_60mph_m: 0
`), 0o644))

		_, err := LoadFile(path)
		assert.True(t, errors.Is(err, models.ErrInvalidVehicleSpec))
	})

	t.Run("rejects NaN braking distance", func(t *testing.T) {
		path := filepath.Join(dir, "nan.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
- id: nan_car
  mass_kg: 1000
  braking_dist_at_60mph_m: .nan
`), 0o644))

		_, err := LoadFile(path)
		assert.True(t, errors.Is(err, models.ErrInvalidVehicleSpec))
	})

	t.Run("rejects unknown keys", func(t *testing.T) {
		path := filepath.Join(dir, "strict.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
- id: x
  mass_kg: 1000
  braking_dist_at_60mph_m: 30
  wings: 2
`), 0o644))

		_, err := LoadFile(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		spec models.VehicleSpec
		ok   bool
	}{
		{"valid", models.VehicleSpec{ID: "a", MassKg: 1, BrakingDistAt60MphM: 30}, true},
		{"zero braking distance", models.VehicleSpec{ID: "a", MassKg: 1}, false},
		{"negative braking distance", models.VehicleSpec{ID: "a", MassKg: 1, BrakingDistAt60MphM: -3}, false},
		{"zero mass", models.VehicleSpec{ID: "a", BrakingDistAt60MphM: 30}, false},
		{"negative drag", models.VehicleSpec{ID: "a", MassKg: 1, DragCoeff: -0.1, BrakingDistAt60MphM: 30}, false},
		{"NaN braking distance", models.VehicleSpec{ID: "a", MassKg: 1, BrakingDistAt60MphM: math.NaN()}, false},
		{"infinite braking distance", models.VehicleSpec{ID: "a", MassKg: 1, BrakingDistAt60MphM: math.Inf(1)}, false},
		{"NaN mass", models.VehicleSpec{ID: "a", MassKg: math.NaN(), BrakingDistAt60MphM: 30}, false},
		{"infinite mass", models.VehicleSpec{ID: "a", MassKg: math.Inf(1), BrakingDistAt60MphM: 30}, false},
		{"NaN drag", models.VehicleSpec{ID: "a", MassKg: 1, DragCoeff: math.NaN(), BrakingDistAt60MphM: 30}, false},
		{"infinite drag", models.VehicleSpec{ID: "a", MassKg: 1, DragCoeff: math.Inf(1), BrakingDistAt60MphM: 30}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.spec.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, models.ErrInvalidVehicleSpec))
			}
		})
	}
}
