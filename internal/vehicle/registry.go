// Package vehicle provides the read-only table of vehicle specifications.
package vehicle

import (
	"fmt"
	"os"
	"sort"

	"collision-sim/internal/models"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

var log = logrus.WithField("module", "vehicle")

// DefaultID is the vehicle used when none is given.
const DefaultID = "waymo_jaguar_ipace"

// builtin specs. Sources: Jaguar official specs and fastestlaps.com for the
// I-PACE, MotorTrend 2024 Model 3 Highland test (115 ft 60-0) for the Tesla.
var builtin = []models.VehicleSpec{
	{
		ID:                  "waymo_jaguar_ipace",
		Brand:               "Jaguar",
		Model:               "I-PACE EV400",
		Year:                2019,
		MassKg:              2170,
		LengthM:             4.681,
		WidthBodyM:          1.895,
		HeightM:             1.557,
		WheelbaseM:          2.990,
		DragCoeff:           0.29,
		Accel0To60Sec:       4.5,
		BrakingDistAt60MphM: 34,
	},
	{
		ID:                  "tesla_m3_std_2024",
		Brand:               "Tesla",
		Model:               "Model 3 Rear-Wheel Drive (2024 Highland)",
		Year:                2024,
		MassKg:              1760,
		LengthM:             4.720,
		WidthBodyM:          1.850,
		HeightM:             1.440,
		WheelbaseM:          2.875,
		DragCoeff:           0.219,
		Accel0To60Sec:       5.6,
		BrakingDistAt60MphM: 35.05,
	},
}

// Registry maps a vehicle id to its spec. It is never mutated after construction.
type Registry struct {
	specs map[string]*models.VehicleSpec
}

// NewRegistry builds a registry from specs. Later entries replace earlier
// ones with the same id. Specs are stored as given; validation happens when
// a simulator binds to one.
func NewRegistry(specs ...models.VehicleSpec) *Registry {
	r := &Registry{specs: make(map[string]*models.VehicleSpec, len(specs))}
	for i := range specs {
		s := specs[i]
		r.specs[s.ID] = &s
	}
	return r
}

// Default returns a registry holding the built-in vehicles.
func Default() *Registry {
	return NewRegistry(builtin...)
}

// Lookup returns the spec for id or ErrVehicleNotFound.
func (r *Registry) Lookup(id string) (*models.VehicleSpec, error) {
	s, ok := r.specs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrVehicleNotFound, id)
	}
	return s, nil
}

// IDs returns all vehicle ids in sorted order.
func (r *Registry) IDs() []string {
	ids := lo.Keys(r.specs)
	sort.Strings(ids)
	return ids
}

// List returns all specs ordered by id.
func (r *Registry) List() []*models.VehicleSpec {
	return lo.Map(r.IDs(), func(id string, _ int) *models.VehicleSpec {
		return r.specs[id]
	})
}

// LoadFile reads a YAML list of specs and returns a registry with them
// merged over the built-in vehicles. Every loaded spec must be valid.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vehicles file: %w", err)
	}
	var specs []models.VehicleSpec
	if err := yaml.UnmarshalStrict(data, &specs); err != nil {
		return nil, fmt.Errorf("failed to parse vehicles file: %w", err)
	}
	for i := range specs {
		if specs[i].ID == "" {
			return nil, fmt.Errorf("%w: entry %d has no id", models.ErrInvalidVehicleSpec, i)
		}
		if err := specs[i].Validate(); err != nil {
			return nil, err
		}
	}
	log.WithField("file", path).Infof("loaded %d vehicle specs", len(specs))
	return NewRegistry(append(append([]models.VehicleSpec{}, builtin...), specs...)...), nil
}
