// Package physics holds the environment constants, surface friction and
// reaction-time tables, and the road-load formulas used by the simulator.
//
// Sources: gravity per ISO 80000-3, friction per NHTSA "The Pneumatic Tire"
// and Gillespie "Fundamentals of Vehicle Dynamics", reaction times per the
// AASHTO Green Book.
package physics

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Unit conversions.
const (
	MPHToMS   = 0.44704  // exact
	MPHToKmh  = 1.609344 // exact
	KmhToMS   = 1 / 3.6
	MSToKmh   = 3.6
	NmToFtLb  = 0.737562
	hpDivisor = 33000 // ft-lb/min per horsepower
	// GillespieDivisor is 33000 / 2π, the shortcut constant in HP = T·RPM / 5252.
	GillespieDivisor = 5252
)

// Environment is the process-wide set of physical constants
type Environment struct {
	Gravity    float64 `yaml:"gravity" json:"gravity"`         // m/s²
	AirDensity float64 `yaml:"air_density" json:"air_density"` // kg/m³, sea level
}

// StandardEnvironment returns standard gravity and sea-level air density.
func StandardEnvironment() Environment {
	return Environment{Gravity: 9.80665, AirDensity: 1.225}
}

// Surface labels recognized by the default friction table.
const (
	DryAsphalt  = "DRY_ASPHALT"
	WetAsphalt  = "WET_ASPHALT"
	DryConcrete = "DRY_CONCRETE"
	WetConcrete = "WET_CONCRETE"
	Snow        = "SNOW"
	Ice         = "ICE"
)

// DefaultFriction is the coefficient used for surfaces missing from the table.
const DefaultFriction = 0.6

// FrictionTable maps a surface label to its tire-road friction coefficient.
// An unknown label is not an error: it resolves to Fallback.
type FrictionTable struct {
	coefficients map[string]float64
	Fallback     float64
}

// StandardFriction returns the built-in surface table.
func StandardFriction() FrictionTable {
	return NewFrictionTable(map[string]float64{
		DryAsphalt:  0.85, // Gillespie range 0.80-0.90
		WetAsphalt:  0.60, // NHTSA, conservative
		DryConcrete: 0.80,
		WetConcrete: 0.55,
		Snow:        0.25, // Bosch handbook
		Ice:         0.10,
	}, DefaultFriction)
}

// NewFrictionTable copies coefficients into a new read-only table.
func NewFrictionTable(coefficients map[string]float64, fallback float64) FrictionTable {
	return FrictionTable{coefficients: lo.Assign(coefficients), Fallback: fallback}
}

// With returns a copy of the table with overrides merged on top.
func (f FrictionTable) With(overrides map[string]float64) FrictionTable {
	return FrictionTable{coefficients: lo.Assign(f.coefficients, overrides), Fallback: f.Fallback}
}

// Coefficient returns the friction coefficient for surface and whether the
// label was known.
func (f FrictionTable) Coefficient(surface string) (float64, bool) {
	if mu, ok := f.coefficients[surface]; ok {
		return mu, true
	}
	return f.Fallback, false
}

// Surfaces lists the known labels, highest grip first.
func (f FrictionTable) Surfaces() []string {
	labels := lo.Keys(f.coefficients)
	sort.Slice(labels, func(i, j int) bool {
		mi, mj := f.coefficients[labels[i]], f.coefficients[labels[j]]
		if mi != mj {
			return mi > mj
		}
		return labels[i] < labels[j]
	})
	return labels
}

// Validate checks every coefficient lies in (0,1].
func (f FrictionTable) Validate() error {
	for label, mu := range f.coefficients {
		if !(mu > 0 && mu <= 1) {
			return fmt.Errorf("friction for %s must be in (0,1], got %g", label, mu)
		}
	}
	if !(f.Fallback > 0 && f.Fallback <= 1) {
		return fmt.Errorf("default friction must be in (0,1], got %g", f.Fallback)
	}
	return nil
}

// Reaction-time presets, seconds.
var reactionTimes = map[string]float64{
	"DESIGN_STANDARD": 2.5, // AASHTO 95th percentile
	"AVERAGE":         1.5,
	"FAST_AI":         0.5,
}

// ReactionTime returns the preset's duration in seconds. Names are exact, upper case.
func ReactionTime(name string) (float64, bool) {
	t, ok := reactionTimes[name]
	return t, ok
}

// ReactionPresets lists the preset names, fastest first.
func ReactionPresets() []string {
	names := lo.Keys(reactionTimes)
	sort.Slice(names, func(i, j int) bool {
		return reactionTimes[names[i]] < reactionTimes[names[j]]
	})
	return names
}

// ParseReactionTime accepts a preset name (case-insensitive) or a number of seconds.
func ParseReactionTime(s string) (float64, error) {
	if t, ok := ReactionTime(strings.ToUpper(strings.TrimSpace(s))); ok {
		return t, nil
	}
	t, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("reaction time %q is neither a preset (%s) nor a number",
			s, strings.Join(ReactionPresets(), ", "))
	}
	return t, nil
}
