package delegated

import (
	"context"
	"database/sql"
	"fmt"

	"offboard/internal/occupancy/models"
	"offboard/pkg/domain"
	dErrors "offboard/pkg/domain-errors"
)

// PostgresStore persists delegated-access records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) ListAccessCardRequests(ctx context.Context, unitID domain.UnitID, userID domain.UserID) (map[models.AccessCardStatus][]*models.AccessCardRequest, error) {
	query := `
		SELECT id, unit_id, user_id, card_kind, status, active
		FROM access_card_requests
		WHERE unit_id = $1 AND user_id = $2 AND active
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query, int64(unitID), int64(userID))
	if err != nil {
		return nil, fmt.Errorf("list access card requests: %w", err)
	}
	defer rows.Close()

	grouped := make(map[models.AccessCardStatus][]*models.AccessCardRequest)
	for rows.Next() {
		var r models.AccessCardRequest
		if err := rows.Scan(&r.ID, &r.UnitID, &r.UserID, &r.CardKind, &r.Status, &r.Active); err != nil {
			return nil, fmt.Errorf("scan access card request: %w", err)
		}
		grouped[r.Status] = append(grouped[r.Status], &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list access card requests: %w", err)
	}
	return grouped, nil
}

func (s *PostgresStore) CancelAccessCardRequest(ctx context.Context, requestID int64) error {
	// Conditional update: only open/pending requests are locally cancellable.
	query := `
		UPDATE access_card_requests
		SET status = $1, active = FALSE
		WHERE id = $2 AND status IN ($3, $4)
	`
	res, err := s.db.ExecContext(ctx, query,
		models.CardStatusCancelled, requestID, models.CardStatusOpen, models.CardStatusPending,
	)
	if err != nil {
		return fmt.Errorf("cancel access card request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("cancel access card request: %w", err)
	}
	if n == 0 {
		return dErrors.New(dErrors.CodeConflict, "access card request not locally cancellable")
	}
	return nil
}

func (s *PostgresStore) ListPOARequests(ctx context.Context, unitID domain.UnitID, userID domain.UserID) ([]*models.POARequest, error) {
	query := `
		SELECT id, unit_id, user_id, status, active
		FROM poa_requests
		WHERE unit_id = $1 AND user_id = $2 AND active
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query, int64(unitID), int64(userID))
	if err != nil {
		return nil, fmt.Errorf("list poa requests: %w", err)
	}
	defer rows.Close()

	var out []*models.POARequest
	for rows.Next() {
		var r models.POARequest
		if err := rows.Scan(&r.ID, &r.UnitID, &r.UserID, &r.Status, &r.Active); err != nil {
			return nil, fmt.Errorf("scan poa request: %w", err)
		}
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list poa requests: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) CancelPOARequest(ctx context.Context, requestID int64) error {
	query := `
		UPDATE poa_requests
		SET status = $1, active = FALSE
		WHERE id = $2 AND status NOT IN ($3, $4)
	`
	if _, err := s.db.ExecContext(ctx, query,
		models.POAStatusCancelled, requestID, models.POAStatusCancelled, models.POAStatusExpired,
	); err != nil {
		return fmt.Errorf("cancel poa request: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeactivatePOAGrants(ctx context.Context, unitID domain.UnitID, grantorID domain.UserID) (int, error) {
	query := `
		UPDATE poa_grants
		SET active = FALSE
		WHERE unit_id = $1 AND grantor_id = $2 AND active
	`
	res, err := s.db.ExecContext(ctx, query, int64(unitID), int64(grantorID))
	if err != nil {
		return 0, fmt.Errorf("deactivate poa grants: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("deactivate poa grants: %w", err)
	}
	return int(n), nil
}

func (s *PostgresStore) DeactivateVisitorRequests(ctx context.Context, unitID domain.UnitID, createdBy domain.UserID) (int, error) {
	query := `
		UPDATE visitor_requests
		SET active = FALSE
		WHERE unit_id = $1 AND created_by = $2 AND active
	`
	res, err := s.db.ExecContext(ctx, query, int64(unitID), int64(createdBy))
	if err != nil {
		return 0, fmt.Errorf("deactivate visitor requests: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("deactivate visitor requests: %w", err)
	}
	return int(n), nil
}
