package requestnum

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

const defaultTxTimeout = 5 * time.Second

// PostgresTx implements Tx over a database transaction.
type PostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func NewPostgresTx(db *sql.DB) *PostgresTx {
	return &PostgresTx{db: db, timeout: defaultTxTimeout}
}

func (t *PostgresTx) RunInTx(ctx context.Context, fn func(s Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin request numbering tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(&postgresStore{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit request numbering tx: %w", err)
	}
	return nil
}

type postgresStore struct {
	tx *sql.Tx
}

func (s *postgresStore) LockUnit(ctx context.Context, unitID domain.UnitID) error {
	// FOR UPDATE serializes numbering per unit; the lock rides the enclosing
	// transaction and drops at commit or rollback.
	var id int64
	err := s.tx.QueryRowContext(ctx, `SELECT id FROM units WHERE id = $1 FOR UPDATE`, int64(unitID)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return dErrors.New(dErrors.CodeNotFound, "unit not found")
	}
	if err != nil {
		return fmt.Errorf("lock unit row: %w", err)
	}
	return nil
}

func (s *postgresStore) ListNumbers(ctx context.Context, unitID domain.UnitID, prefix string) ([]string, error) {
	query := `
		SELECT request_number FROM unit_requests
		WHERE unit_id = $1 AND request_number LIKE $2 || '%'
	`
	rows, err := s.tx.QueryContext(ctx, query, int64(unitID), prefix)
	if err != nil {
		return nil, fmt.Errorf("list request numbers: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan request number: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list request numbers: %w", err)
	}
	return out, nil
}

func (s *postgresStore) InsertRequest(ctx context.Context, req *models.UnitRequest) error {
	query := `
		INSERT INTO unit_requests (unit_id, request_number, kind, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := s.tx.QueryRowContext(ctx, query, int64(req.UnitID), req.Number, req.Kind, req.CreatedAt).Scan(&req.ID)
	if err != nil {
		return fmt.Errorf("insert unit request: %w", err)
	}
	return nil
}
