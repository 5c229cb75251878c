package postgres

import "context"

// Dates are TEXT so unparseable legacy values survive a round trip.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS companies (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS projects (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    owner_id   TEXT NOT NULL DEFAULT '',
    color      TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS lots (
    id            TEXT PRIMARY KEY,
    project_id    TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    name          TEXT NOT NULL,
    company_id    TEXT REFERENCES companies(id) ON DELETE SET NULL,
    color         TEXT NOT NULL DEFAULT '',
    display_order INTEGER NOT NULL DEFAULT 0,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS interventions (
    id         TEXT PRIMARY KEY,
    seq        BIGSERIAL,
    lot_id     TEXT NOT NULL REFERENCES lots(id) ON DELETE CASCADE,
    name       TEXT NOT NULL,
    start_date TEXT NOT NULL,
    end_date   TEXT NOT NULL,
    start_time TEXT NOT NULL DEFAULT '08:00',
    end_time   TEXT NOT NULL DEFAULT '17:00',
    state      TEXT NOT NULL,
    visible    BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS intervention_links (
    id         TEXT PRIMARY KEY,
    seq        BIGSERIAL,
    source_id  TEXT NOT NULL REFERENCES interventions(id) ON DELETE CASCADE,
    target_id  TEXT NOT NULL REFERENCES interventions(id) ON DELETE CASCADE,
    type       TEXT NOT NULL
               CHECK (type IN ('finish-to-start','start-to-finish','finish-to-finish','start-to-start')),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CHECK (source_id <> target_id),
    UNIQUE (source_id, target_id, type)
);

CREATE INDEX IF NOT EXISTS idx_lots_project         ON lots(project_id);
CREATE INDEX IF NOT EXISTS idx_interventions_lot    ON interventions(lot_id);
CREATE INDEX IF NOT EXISTS idx_links_source         ON intervention_links(source_id);
CREATE INDEX IF NOT EXISTS idx_links_target         ON intervention_links(target_id);
`

// CreateSchema creates all tables if they don't exist.
func (s *Store) CreateSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schemaSQL)
	return err
}

// DropSchema drops every table.
func (s *Store) DropSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `DROP TABLE IF EXISTS intervention_links, interventions, lots, projects, companies CASCADE`)
	return err
}
