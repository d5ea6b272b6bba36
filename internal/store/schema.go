package store

// schemaSQL is shared by the sqlite and postgres backends, so it sticks to
// TEXT and INTEGER columns. Amounts are decimal strings; an empty in_base
// means no cached base amount. Dates are RFC 3339 in UTC, empty when unset.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS projects (
    id                   TEXT PRIMARY KEY,
    owner                TEXT NOT NULL,
    client_name          TEXT NOT NULL,
    name                 TEXT NOT NULL DEFAULT '',
    total_amount         TEXT NOT NULL,
    total_currency       TEXT NOT NULL DEFAULT '',
    total_in_base        TEXT NOT NULL DEFAULT '',
    deposit_amount       TEXT NOT NULL DEFAULT '0',
    deposit_currency     TEXT NOT NULL DEFAULT '',
    deposit_in_base      TEXT NOT NULL DEFAULT '',
    deposit_date         TEXT NOT NULL DEFAULT '',
    expected_start       TEXT NOT NULL DEFAULT '',
    expected_completion  TEXT NOT NULL DEFAULT '',
    status               TEXT NOT NULL,
    updated_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS payments (
    id                   TEXT PRIMARY KEY,
    project_id           TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    amount               TEXT NOT NULL,
    currency             TEXT NOT NULL DEFAULT '',
    in_base              TEXT NOT NULL DEFAULT '',
    paid_at              TEXT NOT NULL,
    type                 TEXT NOT NULL,
    description          TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS milestones (
    project_id           TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    position             INTEGER NOT NULL,
    name                 TEXT NOT NULL,
    amount               TEXT NOT NULL,
    currency             TEXT NOT NULL DEFAULT '',
    in_base              TEXT NOT NULL DEFAULT '',
    due_date             TEXT NOT NULL DEFAULT '',
    completed            INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (project_id, position)
);

CREATE TABLE IF NOT EXISTS settings (
    owner                TEXT PRIMARY KEY,
    base_currency        TEXT NOT NULL,
    break_even_amount    TEXT NOT NULL DEFAULT '0',
    break_even_currency  TEXT NOT NULL DEFAULT '',
    break_even_in_base   TEXT NOT NULL DEFAULT '',
    updated_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS monthly_targets (
    owner                TEXT NOT NULL,
    month                TEXT NOT NULL,
    amount               TEXT NOT NULL,
    currency             TEXT NOT NULL DEFAULT '',
    in_base              TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (owner, month)
);

CREATE TABLE IF NOT EXISTS plans (
    id                   TEXT PRIMARY KEY,
    owner                TEXT NOT NULL,
    month                TEXT NOT NULL,
    target_amount        TEXT NOT NULL DEFAULT '0',
    target_currency      TEXT NOT NULL DEFAULT '',
    target_in_base       TEXT NOT NULL DEFAULT '',
    break_even_amount    TEXT NOT NULL DEFAULT '0',
    break_even_currency  TEXT NOT NULL DEFAULT '',
    break_even_in_base   TEXT NOT NULL DEFAULT '',
    is_active            INTEGER NOT NULL DEFAULT 1,
    updated_at           TEXT NOT NULL,
    UNIQUE (owner, month)
);

CREATE TABLE IF NOT EXISTS revenue_streams (
    plan_id              TEXT NOT NULL REFERENCES plans(id) ON DELETE CASCADE,
    position             INTEGER NOT NULL,
    name                 TEXT NOT NULL,
    amount               TEXT NOT NULL,
    currency             TEXT NOT NULL DEFAULT '',
    in_base              TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (plan_id, position)
);

CREATE TABLE IF NOT EXISTS expenses (
    id                   TEXT PRIMARY KEY,
    owner                TEXT NOT NULL,
    scope                TEXT NOT NULL,
    kind                 TEXT NOT NULL,
    position             INTEGER NOT NULL,
    name                 TEXT NOT NULL,
    amount               TEXT NOT NULL,
    currency             TEXT NOT NULL DEFAULT '',
    in_base              TEXT NOT NULL DEFAULT '',
    is_active            INTEGER NOT NULL DEFAULT 1,
    start_date           TEXT NOT NULL DEFAULT '',
    end_date             TEXT NOT NULL DEFAULT '',
    frequency            TEXT NOT NULL DEFAULT '',
    team                 TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_projects_owner ON projects(owner);
CREATE INDEX IF NOT EXISTS idx_payments_project ON payments(project_id);
CREATE INDEX IF NOT EXISTS idx_plans_owner ON plans(owner);
CREATE INDEX IF NOT EXISTS idx_expenses_scope ON expenses(owner, scope);
`
