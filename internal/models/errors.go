package models

import "errors"

var (
	// ErrVehicleNotFound is returned when a vehicle id is not in the registry.
	ErrVehicleNotFound = errors.New("vehicle not found")

	// ErrInvalidVehicleSpec is returned when a spec breaks an invariant
	// (braking distance or mass not positive and finite, drag coefficient negative or not finite).
	ErrInvalidVehicleSpec = errors.New("invalid vehicle spec")

	// ErrInvalidInput is returned for malformed numeric arguments to a simulation run or a telemetry query.
	ErrInvalidInput = errors.New("invalid input")
)
