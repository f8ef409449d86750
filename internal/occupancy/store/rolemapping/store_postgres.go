package rolemapping

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"offboard/internal/occupancy/models"
	"offboard/pkg/domain"
)

// PostgresStore persists role and delegation mappings in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindActive(ctx context.Context, unitID domain.UnitID, userID domain.UserID) (*models.RoleMapping, error) {
	query := `
		SELECT id, unit_id, user_id, role, active, start_date, end_date
		FROM role_mappings
		WHERE unit_id = $1 AND user_id = $2 AND active
		ORDER BY id
		LIMIT 1
	`
	var m models.RoleMapping
	var endDate sql.NullTime
	err := s.db.QueryRowContext(ctx, query, int64(unitID), int64(userID)).Scan(
		&m.ID, &m.UnitID, &m.UserID, &m.Role, &m.Active, &m.StartDate, &endDate,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find active role mapping: %w", err)
	}
	if endDate.Valid {
		m.EndDate = &endDate.Time
	}
	return &m, nil
}

func (s *PostgresStore) Deactivate(ctx context.Context, mappingID int64, endDate time.Time) error {
	query := `
		UPDATE role_mappings
		SET active = FALSE, end_date = $1
		WHERE id = $2
	`
	if _, err := s.db.ExecContext(ctx, query, endDate, mappingID); err != nil {
		return fmt.Errorf("deactivate role mapping: %w", err)
	}
	return nil
}

func (s *PostgresStore) HasOtherActiveOwner(ctx context.Context, userID domain.UserID, exclude domain.UnitID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM role_mappings
			WHERE user_id = $1 AND unit_id <> $2 AND active AND role IN ($3, $4)
		)
	`
	var exists bool
	err := s.db.QueryRowContext(ctx, query,
		int64(userID), int64(exclude), models.RoleOwner, models.RolePermitHolder,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check other active owner mapping: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) ListActiveDelegations(ctx context.Context, unitID domain.UnitID, grantorID domain.UserID) ([]*models.DelegationMapping, error) {
	query := `
		SELECT id, unit_id, grantor_id, grantee_id, kind, active, end_date
		FROM delegation_mappings
		WHERE unit_id = $1 AND grantor_id = $2 AND active
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query, int64(unitID), int64(grantorID))
	if err != nil {
		return nil, fmt.Errorf("list active delegations: %w", err)
	}
	defer rows.Close()

	var out []*models.DelegationMapping
	for rows.Next() {
		var d models.DelegationMapping
		var endDate sql.NullTime
		if err := rows.Scan(&d.ID, &d.UnitID, &d.GrantorID, &d.GranteeID, &d.Kind, &d.Active, &endDate); err != nil {
			return nil, fmt.Errorf("scan delegation: %w", err)
		}
		if endDate.Valid {
			d.EndDate = &endDate.Time
		}
		out = append(out, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list active delegations: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) DeactivateDelegation(ctx context.Context, delegationID int64, endDate time.Time) error {
	query := `
		UPDATE delegation_mappings
		SET active = FALSE, end_date = $1
		WHERE id = $2
	`
	if _, err := s.db.ExecContext(ctx, query, endDate, delegationID); err != nil {
		return fmt.Errorf("deactivate delegation: %w", err)
	}
	return nil
}
