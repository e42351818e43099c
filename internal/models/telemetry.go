package models

import "fmt"

// TelemetrySample is a single speed reading for one vehicle
type TelemetrySample struct {
	ID        int64   `json:"id"`
	VehicleID string  `json:"vehicle_id"`
	TimeSec   float64 `json:"time_sec"`  // seconds since trace start
	SpeedMPH  float64 `json:"speed_mph"` // mph
}

// TelemetryQuery represents query parameters for sample searches.
// Zero values leave a filter off; Offset only applies together with Limit.
type TelemetryQuery struct {
	VehicleID string
	StartSec  float64
	EndSec    float64
	MinSpeed  float64 // mph
	Limit     int
	Offset    int
}

// Validate rejects negative bounds and an inverted time window
func (q TelemetryQuery) Validate() error {
	switch {
	case q.StartSec < 0 || q.EndSec < 0:
		return fmt.Errorf("%w: time bounds cannot be negative", ErrInvalidInput)
	case q.EndSec > 0 && q.EndSec < q.StartSec:
		return fmt.Errorf("%w: end %g is before start %g", ErrInvalidInput, q.EndSec, q.StartSec)
	case q.MinSpeed < 0:
		return fmt.Errorf("%w: min speed cannot be negative", ErrInvalidInput)
	case q.Limit < 0 || q.Offset < 0:
		return fmt.Errorf("%w: limit and offset cannot be negative", ErrInvalidInput)
	case q.Offset > 0 && q.Limit == 0:
		return fmt.Errorf("%w: offset requires a limit", ErrInvalidInput)
	}
	return nil
}

// BrakingEvent marks a sample whose deceleration crossed the hard-braking threshold
type BrakingEvent struct {
	VehicleID string  `json:"vehicle_id"`
	TimeSec   float64 `json:"time_sec"`
	SpeedMPH  float64 `json:"speed_mph"`
	AccelMPHS float64 `json:"accel_mph_s"` // negative while braking
}

// Scenario is the initial speed picked from a telemetry trace
type Scenario struct {
	VehicleID   string  `json:"vehicle_id,omitempty"` // empty when taken across the whole dataset
	MaxSpeedMPH float64 `json:"max_speed_mph"`
	SpeedKmh    float64 `json:"speed_kmh"`
	Samples     int     `json:"samples"`
}

// TelemetrySummary provides aggregated statistics for one vehicle
type TelemetrySummary struct {
	VehicleID   string  `json:"vehicle_id"`
	Samples     int     `json:"samples"`
	AvgSpeedMPH float64 `json:"avg_speed_mph"`
	MaxSpeedMPH float64 `json:"max_speed_mph"`
	DurationSec float64 `json:"duration_sec"`
}
