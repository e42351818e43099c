package analysis

import (
	"testing"

	"collision-sim/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(id string, t, mph float64) models.TelemetrySample {
	return models.TelemetrySample{VehicleID: id, TimeSec: t, SpeedMPH: mph}
}

func TestAccelerations(t *testing.T) {
	d := NewDetector()
	got := d.Accelerations([]models.TelemetrySample{
		sample("b", 0.1, 20),
		sample("a", 0.2, 56),
		sample("a", 0.0, 60),
		sample("b", 0.0, 21),
		sample("a", 0.1, 59),
	})
	require.Len(t, got, 5)

	assert.Equal(t, "a", got[0].VehicleID)
	assert.False(t, got[0].HasAccel)
	assert.InDelta(t, -10, got[1].AccelMPHS, 1e-9)
	assert.InDelta(t, -30, got[2].AccelMPHS, 1e-9)

	assert.Equal(t, "b", got[3].VehicleID)
	assert.False(t, got[3].HasAccel)
	assert.InDelta(t, -10, got[4].AccelMPHS, 1e-9)
}

func TestAccelerationsFallbackInterval(t *testing.T) {
	d := Detector{SampleIntervalSec: 0.5, ThresholdMPHPerSec: -10}
	got := d.Accelerations([]models.TelemetrySample{
		sample("a", 1, 30),
		sample("a", 1, 25),
	})
	require.Len(t, got, 2)
	assert.InDelta(t, -10, got[1].AccelMPHS, 1e-9)
}

func TestHardBraking(t *testing.T) {
	d := NewDetector()
	events := d.HardBraking([]models.TelemetrySample{
		sample("a", 0.0, 60),
		sample("a", 0.1, 59), // -10, not below threshold
		sample("a", 0.2, 56), // -30
		sample("a", 0.3, 57), // accelerating
		sample("b", 0.0, 40),
		sample("b", 0.1, 38), // -20
	})
	require.Len(t, events, 2)
	assert.Equal(t, models.BrakingEvent{VehicleID: "a", TimeSec: 0.2, SpeedMPH: 56, AccelMPHS: events[0].AccelMPHS}, events[0])
	assert.InDelta(t, -30, events[0].AccelMPHS, 1e-9)
	assert.Equal(t, "b", events[1].VehicleID)

	assert.Empty(t, d.HardBraking(nil))

	strict := Detector{SampleIntervalSec: 0.1, ThresholdMPHPerSec: -25}
	assert.Len(t, strict.HardBraking([]models.TelemetrySample{sample("a", 0, 60), sample("a", 0.1, 56)}), 1)
}

func TestSelectScenario(t *testing.T) {
	samples := []models.TelemetrySample{
		sample("a", 0, 50),
		sample("b", 0, 70),
		sample("a", 0.1, 55),
	}

	t.Run("whole dataset", func(t *testing.T) {
		sc, err := SelectScenario(samples, "")
		require.NoError(t, err)
		assert.Equal(t, 70.0, sc.MaxSpeedMPH)
		assert.InDelta(t, 112.654, sc.SpeedKmh, 0.001)
		assert.Equal(t, 3, sc.Samples)
		assert.Empty(t, sc.VehicleID)
	})

	t.Run("single vehicle", func(t *testing.T) {
		sc, err := SelectScenario(samples, "a")
		require.NoError(t, err)
		assert.Equal(t, 55.0, sc.MaxSpeedMPH)
		assert.Equal(t, "a", sc.VehicleID)
		assert.Equal(t, 2, sc.Samples)
	})

	t.Run("no data", func(t *testing.T) {
		_, err := SelectScenario(samples, "zzz")
		assert.ErrorContains(t, err, "zzz")
		_, err = SelectScenario(nil, "")
		assert.Error(t, err)
	})
}
