package resident

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"offboard/internal/occupancy/models"
	"offboard/pkg/domain"
	dErrors "offboard/pkg/domain-errors"
)

// PostgresStore answers the owner-exit questions against PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) EmailByUser(ctx context.Context, userID domain.UserID) (string, error) {
	var email string
	err := s.db.QueryRowContext(ctx, `SELECT email FROM users WHERE id = $1`, int64(userID)).Scan(&email)
	if errors.Is(err, sql.ErrNoRows) {
		return "", dErrors.New(dErrors.CodeNotFound, "user email not found")
	}
	if err != nil {
		return "", fmt.Errorf("lookup user email: %w", err)
	}
	return email, nil
}

func (s *PostgresStore) HasOtherActiveBooking(ctx context.Context, email string, exclude domain.UnitID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE email = $1 AND unit_id <> $2 AND active
		)
	`
	var exists bool
	if err := s.db.QueryRowContext(ctx, query, email, int64(exclude)).Scan(&exists); err != nil {
		return false, fmt.Errorf("check other active booking: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) ListPendingProfileUpdates(ctx context.Context, userID domain.UserID) ([]*models.ProfileUpdateRequest, error) {
	query := `
		SELECT id, user_id, kind, payload, status
		FROM profile_update_requests
		WHERE user_id = $1 AND status = $2
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query, int64(userID), models.ProfileUpdatePending)
	if err != nil {
		return nil, fmt.Errorf("list pending profile updates: %w", err)
	}
	defer rows.Close()

	var out []*models.ProfileUpdateRequest
	for rows.Next() {
		var r models.ProfileUpdateRequest
		var payload []byte
		if err := rows.Scan(&r.ID, &r.UserID, &r.Kind, &payload, &r.Status); err != nil {
			return nil, fmt.Errorf("scan profile update request: %w", err)
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &r.Payload); err != nil {
				return nil, fmt.Errorf("decode profile update payload: %w", err)
			}
		}
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list pending profile updates: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) MarkProfileUpdateApproved(ctx context.Context, requestID int64) error {
	query := `
		UPDATE profile_update_requests
		SET status = $1
		WHERE id = $2
	`
	if _, err := s.db.ExecContext(ctx, query, models.ProfileUpdateApproved, requestID); err != nil {
		return fmt.Errorf("approve profile update request: %w", err)
	}
	return nil
}
