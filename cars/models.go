// Package cars is responsible for the car records owned by users: their data
// model, validation, persistence, and both the HTML-form and JSON-API
// surfaces over the same operations.
// This file defines the Car entity and its closed enumerations.
package cars

import (
	"time"

	"github.com/google/uuid"
)

// FuelType is the closed set of accepted fuel values. Parsing happens once at
// the request boundary; everything past the DTO layer holds a valid value.
type FuelType string

const (
	FuelGasoline FuelType = "gasoline"
	FuelDiesel   FuelType = "diesel"
	FuelElectric FuelType = "electric"
	FuelHybrid   FuelType = "hybrid"
)

// ParseFuelType validates a raw fuel string. The empty string yields the
// default, gasoline. The bool reports whether the value was acceptable.
func ParseFuelType(raw string) (FuelType, bool) {
	switch FuelType(raw) {
	case "":
		return FuelGasoline, true
	case FuelGasoline, FuelDiesel, FuelElectric, FuelHybrid:
		return FuelType(raw), true
	default:
		return "", false
	}
}

// Transmission is the closed set of accepted transmission values.
type Transmission string

const (
	TransmissionAuto   Transmission = "auto"
	TransmissionManual Transmission = "manual"
)

// ParseTransmission validates a raw transmission string. The empty string
// yields the default, auto.
func ParseTransmission(raw string) (Transmission, bool) {
	switch Transmission(raw) {
	case "":
		return TransmissionAuto, true
	case TransmissionAuto, TransmissionManual:
		return Transmission(raw), true
	default:
		return "", false
	}
}

// MinYear is the oldest acceptable model year. The first automobile was built
// in 1885; nothing in the garage predates it.
const MinYear = 1885

// Car represents a vehicle record owned by exactly one user.
type Car struct {
	ID           uuid.UUID    `json:"id"`
	UserID       int          `json:"user_id"`
	Model        string       `json:"model"`
	Year         int          `json:"year"`
	MPG          float64      `json:"mpg"`
	Notes        string       `json:"notes"`
	Fuel         FuelType     `json:"fuel"`
	IsElectric   bool         `json:"isElectric"`
	Transmission Transmission `json:"transmission"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}
