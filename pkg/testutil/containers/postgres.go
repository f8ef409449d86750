//go:build integration

package containers

import (
	"context"
	"database/sql"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	_ "github.com/lib/pq"
)

// PostgresContainer wraps a testcontainers Postgres instance with the
// occupancy schema applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

const schema = `
CREATE TABLE units (
	id               BIGINT PRIMARY KEY,
	unit_number      TEXT NOT NULL,
	occupancy_status TEXT NOT NULL,
	updated_by       BIGINT NOT NULL DEFAULT 0,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE role_mappings (
	id         BIGSERIAL PRIMARY KEY,
	unit_id    BIGINT NOT NULL,
	user_id    BIGINT NOT NULL,
	role       TEXT NOT NULL,
	active     BOOLEAN NOT NULL DEFAULT TRUE,
	start_date TIMESTAMPTZ NOT NULL DEFAULT now(),
	end_date   TIMESTAMPTZ
);

CREATE TABLE delegation_mappings (
	id         BIGSERIAL PRIMARY KEY,
	unit_id    BIGINT NOT NULL,
	grantor_id BIGINT NOT NULL,
	grantee_id BIGINT NOT NULL,
	kind       TEXT NOT NULL,
	active     BOOLEAN NOT NULL DEFAULT TRUE,
	end_date   TIMESTAMPTZ
);

CREATE TABLE occupancy_requests (
	id         BIGSERIAL PRIMARY KEY,
	unit_id    BIGINT NOT NULL,
	user_id    BIGINT NOT NULL,
	role       TEXT NOT NULL,
	active     BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE owner_move_outs (
	id            BIGSERIAL PRIMARY KEY,
	request_id    BIGINT NOT NULL REFERENCES occupancy_requests (id),
	unit_id       BIGINT NOT NULL,
	user_id       BIGINT NOT NULL,
	active        BOOLEAN NOT NULL DEFAULT TRUE,
	vacating_date TIMESTAMPTZ
);

CREATE TABLE tenant_leases (
	id             BIGSERIAL PRIMARY KEY,
	request_id     BIGINT NOT NULL REFERENCES occupancy_requests (id),
	unit_id        BIGINT NOT NULL,
	user_id        BIGINT NOT NULL,
	active         BOOLEAN NOT NULL DEFAULT TRUE,
	lease_end_date TIMESTAMPTZ
);

CREATE TABLE company_leases (
	id                BIGSERIAL PRIMARY KEY,
	request_id        BIGINT NOT NULL REFERENCES occupancy_requests (id),
	unit_id           BIGINT NOT NULL,
	user_id           BIGINT NOT NULL,
	active            BOOLEAN NOT NULL DEFAULT TRUE,
	contract_end_date TIMESTAMPTZ
);

CREATE TABLE owner_permits (
	id                 BIGSERIAL PRIMARY KEY,
	request_id         BIGINT NOT NULL REFERENCES occupancy_requests (id),
	unit_id            BIGINT NOT NULL,
	user_id            BIGINT NOT NULL,
	active             BOOLEAN NOT NULL DEFAULT TRUE,
	permit_expiry_date TIMESTAMPTZ
);

CREATE TABLE access_card_requests (
	id        BIGSERIAL PRIMARY KEY,
	unit_id   BIGINT NOT NULL,
	user_id   BIGINT NOT NULL,
	card_kind TEXT NOT NULL,
	status    TEXT NOT NULL,
	active    BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE poa_requests (
	id      BIGSERIAL PRIMARY KEY,
	unit_id BIGINT NOT NULL,
	user_id BIGINT NOT NULL,
	status  TEXT NOT NULL,
	active  BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE poa_grants (
	id         BIGSERIAL PRIMARY KEY,
	unit_id    BIGINT NOT NULL,
	grantor_id BIGINT NOT NULL,
	grantee_id BIGINT NOT NULL,
	active     BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE visitor_requests (
	id         BIGSERIAL PRIMARY KEY,
	unit_id    BIGINT NOT NULL,
	created_by BIGINT NOT NULL,
	active     BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE users (
	id    BIGINT PRIMARY KEY,
	email TEXT NOT NULL
);

CREATE TABLE bookings (
	id      BIGSERIAL PRIMARY KEY,
	email   TEXT NOT NULL,
	unit_id BIGINT NOT NULL,
	active  BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE profile_update_requests (
	id      BIGSERIAL PRIMARY KEY,
	user_id BIGINT NOT NULL,
	kind    TEXT NOT NULL,
	payload JSONB NOT NULL DEFAULT '{}',
	status  TEXT NOT NULL
);

CREATE TABLE unit_requests (
	id             BIGSERIAL PRIMARY KEY,
	unit_id        BIGINT NOT NULL REFERENCES units (id),
	request_number TEXT NOT NULL,
	kind           TEXT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (unit_id, request_number)
);
`

// NewPostgresContainer starts a Postgres container and applies the schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("offboard"),
		tcpostgres.WithUsername("offboard"),
		tcpostgres.WithPassword("offboard"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres connection: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping postgres: %v", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	pc := &PostgresContainer{
		Container: container,
		DSN:       dsn,
		DB:        db,
	}

	t.Cleanup(func() {
		_ = pc.DB.Close()
		_ = pc.Container.Terminate(context.Background())
	})

	return pc
}

// Truncate empties every table. Use between tests to ensure isolation.
func (p *PostgresContainer) Truncate(ctx context.Context) error {
	_, err := p.DB.ExecContext(ctx, `
		TRUNCATE units, role_mappings, delegation_mappings, occupancy_requests,
			owner_move_outs, tenant_leases, company_leases, owner_permits,
			access_card_requests, poa_requests, poa_grants, visitor_requests,
			users, bookings, profile_update_requests, unit_requests
		RESTART IDENTITY CASCADE`)
	return err
}
