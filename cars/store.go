// This file defines the car persistence interface and its pgx implementation.
// Every read and mutation is filtered by both record id and owner id, so a
// cross-owner access is indistinguishable from a nonexistent record.
package cars

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/garage-go/apperror"
)

// Store persists car records scoped by owner.
type Store interface {
	// Insert adds a new record and fills in its timestamps.
	Insert(ctx context.Context, car *Car) error
	// Update replaces the mutable fields of the record matching both id and
	// owner. No match is a silent no-op.
	Update(ctx context.Context, car *Car) error
	// Delete removes the record matching both id and owner. No match is a
	// silent no-op.
	Delete(ctx context.Context, id uuid.UUID, ownerID int) error
	// ListByOwner returns the owner's cars, most recently created first.
	ListByOwner(ctx context.Context, ownerID int) ([]Car, error)
}

// PGStore is the PostgreSQL-backed Store.
type PGStore struct {
	db *pgxpool.Pool
}

// NewPGStore creates a PGStore on the given pool.
func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Insert(ctx context.Context, car *Car) error {
	query := `INSERT INTO cars (id, user_id, model, year, mpg, notes, fuel, is_electric, transmission)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
              RETURNING created_at, updated_at`
	err := s.db.QueryRow(ctx, query,
		car.ID, car.UserID, car.Model, car.Year, car.MPG, car.Notes,
		car.Fuel, car.IsElectric, car.Transmission,
	).Scan(&car.CreatedAt, &car.UpdatedAt)
	if err != nil {
		return apperror.NewDatabaseError("failed to insert car", err)
	}
	return nil
}

func (s *PGStore) Update(ctx context.Context, car *Car) error {
	// The owner filter in the WHERE clause is the ownership isolation
	// guarantee; a wrong owner matches zero rows, same as a wrong id.
	query := `UPDATE cars
              SET model = $3, year = $4, mpg = $5, notes = $6, fuel = $7,
                  is_electric = $8, transmission = $9, updated_at = now()
              WHERE id = $1 AND user_id = $2`
	_, err := s.db.Exec(ctx, query,
		car.ID, car.UserID, car.Model, car.Year, car.MPG, car.Notes,
		car.Fuel, car.IsElectric, car.Transmission,
	)
	if err != nil {
		return apperror.NewDatabaseError("failed to update car", err)
	}
	return nil
}

func (s *PGStore) Delete(ctx context.Context, id uuid.UUID, ownerID int) error {
	query := `DELETE FROM cars WHERE id = $1 AND user_id = $2`
	if _, err := s.db.Exec(ctx, query, id, ownerID); err != nil {
		return apperror.NewDatabaseError("failed to delete car", err)
	}
	return nil
}

func (s *PGStore) ListByOwner(ctx context.Context, ownerID int) ([]Car, error) {
	query := `SELECT id, user_id, model, year, mpg, notes, fuel, is_electric, transmission, created_at, updated_at
              FROM cars
              WHERE user_id = $1
              ORDER BY created_at DESC`
	rows, err := s.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list cars", err)
	}
	defer rows.Close()

	cars := []Car{}
	for rows.Next() {
		var car Car
		if err := rows.Scan(
			&car.ID, &car.UserID, &car.Model, &car.Year, &car.MPG, &car.Notes,
			&car.Fuel, &car.IsElectric, &car.Transmission, &car.CreatedAt, &car.UpdatedAt,
		); err != nil {
			return nil, apperror.NewDatabaseError("failed to scan car row", err)
		}
		cars = append(cars, car)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to read car rows", err)
	}
	return cars, nil
}
