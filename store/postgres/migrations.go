package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the gatehouse store (PostgreSQL).
var Migrations = migrate.NewGroup("gatehouse")

// tableMigration builds a migration that runs up and drops table on rollback.
func tableMigration(name, version, table, up string) *migrate.Migration {
	return &migrate.Migration{
		Name:    name,
		Version: version,
		Up: func(ctx context.Context, exec migrate.Executor) error {
			_, err := exec.Exec(ctx, up)
			return err
		},
		Down: func(ctx context.Context, exec migrate.Executor) error {
			_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS `+table)
			return err
		},
	}
}

func init() {
	Migrations.MustRegister(
		tableMigration("create_roles", "20240101000001", "gatehouse_roles", `
CREATE TABLE IF NOT EXISTS gatehouse_roles (
    id              TEXT PRIMARY KEY,
    name            TEXT NOT NULL UNIQUE,
    guard_name      TEXT NOT NULL DEFAULT 'web',
    description     TEXT NOT NULL DEFAULT '',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`),
		tableMigration("create_permissions", "20240101000002", "gatehouse_permissions", `
CREATE TABLE IF NOT EXISTS gatehouse_permissions (
    id              TEXT PRIMARY KEY,
    name            TEXT NOT NULL UNIQUE,
    guard_name      TEXT NOT NULL DEFAULT 'web',
    description     TEXT NOT NULL DEFAULT '',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`),
		tableMigration("create_role_permissions", "20240101000003", "gatehouse_role_permissions", `
CREATE TABLE IF NOT EXISTS gatehouse_role_permissions (
    role_id         TEXT NOT NULL REFERENCES gatehouse_roles(id) ON DELETE CASCADE,
    permission_id   TEXT NOT NULL REFERENCES gatehouse_permissions(id) ON DELETE CASCADE,
    PRIMARY KEY (role_id, permission_id)
);

CREATE INDEX IF NOT EXISTS idx_gatehouse_role_permissions_perm ON gatehouse_role_permissions (permission_id);
`),
		tableMigration("create_assignments", "20240101000004", "gatehouse_assignments", `
CREATE TABLE IF NOT EXISTS gatehouse_assignments (
    id              TEXT PRIMARY KEY,
    user_id         TEXT NOT NULL,
    role_id         TEXT NOT NULL REFERENCES gatehouse_roles(id) ON DELETE CASCADE,
    granted_by      TEXT NOT NULL DEFAULT '',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    UNIQUE (user_id, role_id)
);

CREATE INDEX IF NOT EXISTS idx_gatehouse_assignments_user ON gatehouse_assignments (user_id);
CREATE INDEX IF NOT EXISTS idx_gatehouse_assignments_role ON gatehouse_assignments (role_id);
`),
		tableMigration("create_accounts", "20240101000005", "gatehouse_accounts", `
CREATE TABLE IF NOT EXISTS gatehouse_accounts (
    user_id         TEXT PRIMARY KEY,
    tenant_id       TEXT NOT NULL DEFAULT '',
    active          BOOLEAN NOT NULL DEFAULT TRUE,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_gatehouse_accounts_tenant ON gatehouse_accounts (tenant_id);
`),
		tableMigration("create_modules", "20240101000006", "gatehouse_modules", `
CREATE TABLE IF NOT EXISTS gatehouse_modules (
    code            TEXT PRIMARY KEY,
    name            TEXT NOT NULL,
    description     TEXT NOT NULL DEFAULT '',
    sort_order      INTEGER NOT NULL DEFAULT 0,
    actions         JSONB NOT NULL DEFAULT '[]',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`),
		tableMigration("create_entitlements", "20240101000007", "gatehouse_entitlements", `
CREATE TABLE IF NOT EXISTS gatehouse_entitlements (
    id              TEXT PRIMARY KEY,
    tenant_id       TEXT NOT NULL,
    module_code     TEXT NOT NULL,
    active          BOOLEAN NOT NULL DEFAULT TRUE,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    UNIQUE (tenant_id, module_code)
);
`),
		tableMigration("create_module_grants", "20240101000008", "gatehouse_module_grants", `
CREATE TABLE IF NOT EXISTS gatehouse_module_grants (
    id              TEXT PRIMARY KEY,
    user_id         TEXT NOT NULL,
    module_code     TEXT NOT NULL,
    module_name     TEXT NOT NULL DEFAULT '',
    active          BOOLEAN NOT NULL DEFAULT TRUE,
    actions         JSONB NOT NULL DEFAULT '[]',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    UNIQUE (user_id, module_code)
);
`),
		tableMigration("create_subscriptions", "20240101000009", "gatehouse_subscriptions", `
CREATE TABLE IF NOT EXISTS gatehouse_subscriptions (
    id              TEXT PRIMARY KEY,
    tenant_id       TEXT NOT NULL UNIQUE,
    status          TEXT NOT NULL,
    ends_at         TIMESTAMPTZ,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`),
		tableMigration("create_check_logs", "20240101000010", "gatehouse_check_logs", `
CREATE TABLE IF NOT EXISTS gatehouse_check_logs (
    id              TEXT PRIMARY KEY,
    tenant_id       TEXT NOT NULL DEFAULT '',
    user_id         TEXT NOT NULL DEFAULT '',
    module          TEXT NOT NULL DEFAULT '',
    action          TEXT NOT NULL DEFAULT '',
    decision        TEXT NOT NULL,
    reason          TEXT NOT NULL DEFAULT '',
    stage           INTEGER NOT NULL DEFAULT 0,
    eval_time_ns    BIGINT NOT NULL DEFAULT 0,
    request_ip      TEXT NOT NULL DEFAULT '',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_gatehouse_check_logs_tenant ON gatehouse_check_logs (tenant_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_gatehouse_check_logs_user ON gatehouse_check_logs (user_id, created_at DESC);
`),
	)
}
