package terms

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"offboard/internal/occupancy/models"
)

// PostgresStore answers the four due-term queries against PostgreSQL. The
// shapes are near-identical; each query joins its parent request table and
// compares the end date at date granularity.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DueOwnerMoveOuts(ctx context.Context, asOf time.Time) ([]*models.OwnerMoveOut, error) {
	query := `
		SELECT m.id, m.unit_id, m.user_id, m.active, r.active, r.role, m.vacating_date
		FROM owner_move_outs m
		JOIN occupancy_requests r ON r.id = m.request_id
		WHERE m.active AND r.active AND r.role = $1
		  AND m.vacating_date IS NOT NULL AND m.vacating_date::date <= $2::date
		ORDER BY m.unit_id, m.user_id
	`
	rows, err := s.db.QueryContext(ctx, query, models.RoleOwner, models.DateOnly(asOf))
	if err != nil {
		return nil, fmt.Errorf("query due owner move-outs: %w", err)
	}
	defer rows.Close()

	var out []*models.OwnerMoveOut
	for rows.Next() {
		var r models.OwnerMoveOut
		var end sql.NullTime
		if err := rows.Scan(&r.ID, &r.UnitID, &r.UserID, &r.Active, &r.RequestActive, &r.RequestRole, &end); err != nil {
			return nil, fmt.Errorf("scan owner move-out: %w", err)
		}
		if end.Valid {
			r.VacatingDate = &end.Time
		}
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query due owner move-outs: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) DueTenantLeases(ctx context.Context, asOf time.Time) ([]*models.TenantLease, error) {
	query := `
		SELECT l.id, l.unit_id, l.user_id, l.active, r.active, r.role, l.lease_end_date
		FROM tenant_leases l
		JOIN occupancy_requests r ON r.id = l.request_id
		WHERE l.active AND r.active AND r.role = $1
		  AND l.lease_end_date IS NOT NULL AND l.lease_end_date::date <= $2::date
		ORDER BY l.unit_id, l.user_id
	`
	rows, err := s.db.QueryContext(ctx, query, models.RoleTenant, models.DateOnly(asOf))
	if err != nil {
		return nil, fmt.Errorf("query due tenant leases: %w", err)
	}
	defer rows.Close()

	var out []*models.TenantLease
	for rows.Next() {
		var r models.TenantLease
		var end sql.NullTime
		if err := rows.Scan(&r.ID, &r.UnitID, &r.UserID, &r.Active, &r.RequestActive, &r.RequestRole, &end); err != nil {
			return nil, fmt.Errorf("scan tenant lease: %w", err)
		}
		if end.Valid {
			r.LeaseEndDate = &end.Time
		}
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query due tenant leases: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) DueCompanyLeases(ctx context.Context, asOf time.Time) ([]*models.CompanyLease, error) {
	query := `
		SELECT c.id, c.unit_id, c.user_id, c.active, r.active, r.role, c.contract_end_date
		FROM company_leases c
		JOIN occupancy_requests r ON r.id = c.request_id
		WHERE c.active AND r.active AND r.role = $1
		  AND c.contract_end_date IS NOT NULL AND c.contract_end_date::date <= $2::date
		ORDER BY c.unit_id, c.user_id
	`
	rows, err := s.db.QueryContext(ctx, query, models.RoleCompanyTenant, models.DateOnly(asOf))
	if err != nil {
		return nil, fmt.Errorf("query due company leases: %w", err)
	}
	defer rows.Close()

	var out []*models.CompanyLease
	for rows.Next() {
		var r models.CompanyLease
		var end sql.NullTime
		if err := rows.Scan(&r.ID, &r.UnitID, &r.UserID, &r.Active, &r.RequestActive, &r.RequestRole, &end); err != nil {
			return nil, fmt.Errorf("scan company lease: %w", err)
		}
		if end.Valid {
			r.ContractEndDate = &end.Time
		}
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query due company leases: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) DueOwnerPermits(ctx context.Context, asOf time.Time) ([]*models.OwnerPermit, error) {
	query := `
		SELECT p.id, p.unit_id, p.user_id, p.active, r.active, r.role, p.permit_expiry_date
		FROM owner_permits p
		JOIN occupancy_requests r ON r.id = p.request_id
		WHERE p.active AND r.active AND r.role = $1
		  AND p.permit_expiry_date IS NOT NULL AND p.permit_expiry_date::date <= $2::date
		ORDER BY p.unit_id, p.user_id
	`
	rows, err := s.db.QueryContext(ctx, query, models.RolePermitHolder, models.DateOnly(asOf))
	if err != nil {
		return nil, fmt.Errorf("query due owner permits: %w", err)
	}
	defer rows.Close()

	var out []*models.OwnerPermit
	for rows.Next() {
		var r models.OwnerPermit
		var end sql.NullTime
		if err := rows.Scan(&r.ID, &r.UnitID, &r.UserID, &r.Active, &r.RequestActive, &r.RequestRole, &end); err != nil {
			return nil, fmt.Errorf("scan owner permit: %w", err)
		}
		if end.Valid {
			r.PermitExpiryDate = &end.Time
		}
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query due owner permits: %w", err)
	}
	return out, nil
}
