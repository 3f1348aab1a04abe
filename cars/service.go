// This file contains the business logic shared by both surfaces: one
// validation path and one persistence path, with the handlers responsible
// only for encoding the result.
package cars

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/user/garage-go/apperror"
)

// Service provides validated, owner-scoped car operations.
type Service struct {
	store Store
}

// NewService creates a new car Service with its store injected.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// validate applies the defaulting and trimming rules and checks every
// constraint, returning a Car ready to persist. Messages are user-facing;
// the HTML surface shows them as flash text and the JSON surface returns
// them in the error object.
func validate(ownerID int, input *CarInput) (*Car, error) {
	if input.Model == nil || input.Year == nil || input.MPG == nil {
		return nil, apperror.NewValidationError("Model, year, and mpg are required.", nil)
	}

	model := strings.TrimSpace(*input.Model)
	if model == "" {
		return nil, apperror.NewValidationError("Model, year, and mpg are required.", nil)
	}

	if *input.Year < MinYear {
		return nil, apperror.NewValidationError("Year must be 1885 or later.", nil)
	}

	if *input.MPG < 0 {
		return nil, apperror.NewValidationError("Mpg must be a non-negative number.", nil)
	}

	fuelRaw := ""
	if input.Fuel != nil {
		fuelRaw = *input.Fuel
	}
	fuel, ok := ParseFuelType(fuelRaw)
	if !ok {
		return nil, apperror.NewValidationError("Fuel must be one of gasoline, diesel, electric, or hybrid.", nil)
	}

	transmissionRaw := ""
	if input.Transmission != nil {
		transmissionRaw = *input.Transmission
	}
	transmission, ok := ParseTransmission(transmissionRaw)
	if !ok {
		return nil, apperror.NewValidationError("Transmission must be auto or manual.", nil)
	}

	notes := ""
	if input.Notes != nil {
		notes = strings.TrimSpace(*input.Notes)
	}

	return &Car{
		UserID:       ownerID,
		Model:        model,
		Year:         *input.Year,
		MPG:          *input.MPG,
		Notes:        notes,
		Fuel:         fuel,
		IsElectric:   input.ElectricFlag(),
		Transmission: transmission,
	}, nil
}

// Create validates the input and inserts a new car owned by ownerID.
func (s *Service) Create(ctx context.Context, ownerID int, input *CarInput) (*Car, error) {
	car, err := validate(ownerID, input)
	if err != nil {
		return nil, err
	}
	car.ID = uuid.New()
	if err := s.store.Insert(ctx, car); err != nil {
		return nil, err
	}
	return car, nil
}

// Update validates the input and performs a full-field replace of the record
// matching both id and owner. A wrong id or wrong owner is a silent no-op:
// the caller learns nothing about records it does not own.
func (s *Service) Update(ctx context.Context, ownerID int, id uuid.UUID, input *CarInput) error {
	car, err := validate(ownerID, input)
	if err != nil {
		return err
	}
	car.ID = id
	return s.store.Update(ctx, car)
}

// Delete removes the record matching both id and owner; a miss is a silent
// no-op for the same reason as Update.
func (s *Service) Delete(ctx context.Context, ownerID int, id uuid.UUID) error {
	return s.store.Delete(ctx, id, ownerID)
}

// ListByOwner returns the owner's cars ordered by creation time, most recent
// first.
func (s *Service) ListByOwner(ctx context.Context, ownerID int) ([]Car, error) {
	return s.store.ListByOwner(ctx, ownerID)
}
