package unit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"offboard/internal/occupancy/models"
	"offboard/pkg/domain"
	dErrors "offboard/pkg/domain-errors"
)

// PostgresStore persists units in PostgreSQL.
type PostgresStore struct {
	db    *sql.DB
	clock Clock
}

// PostgresOption configures a PostgresStore.
type PostgresOption func(*PostgresStore)

// WithPostgresClock sets the clock function for testability.
func WithPostgresClock(clock Clock) PostgresOption {
	return func(s *PostgresStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func NewPostgres(db *sql.DB, opts ...PostgresOption) *PostgresStore {
	s := &PostgresStore{db: db, clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *PostgresStore) GetByID(ctx context.Context, unitID domain.UnitID) (*models.Unit, error) {
	query := `
		SELECT id, unit_number, occupancy_status, updated_by, created_at, updated_at
		FROM units
		WHERE id = $1
	`
	var u models.Unit
	var updatedBy sql.NullInt64
	err := s.db.QueryRowContext(ctx, query, int64(unitID)).Scan(
		&u.ID, &u.Number, &u.OccupancyStatus, &updatedBy, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get unit: %w", err)
	}
	u.UpdatedBy = domain.UserID(updatedBy.Int64)
	return &u, nil
}

func (s *PostgresStore) SetVacant(ctx context.Context, unitID domain.UnitID, updatedBy domain.UserID) error {
	query := `
		UPDATE units
		SET occupancy_status = $1, updated_by = $2, updated_at = $3
		WHERE id = $4
	`
	res, err := s.db.ExecContext(ctx, query, models.StatusVacant, int64(updatedBy), s.clock(), int64(unitID))
	if err != nil {
		return fmt.Errorf("set unit vacant: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set unit vacant: %w", err)
	}
	if n == 0 {
		return dErrors.New(dErrors.CodeNotFound, "unit not found")
	}
	return nil
}
