package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate applies the schema. Every statement is idempotent so the whole
// list runs on each open.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// ALTER TABLE ADD COLUMN has no IF NOT EXISTS form in SQLite.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS companies (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS projects (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		owner_id   TEXT NOT NULL DEFAULT '',
		color      TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS lots (
		id         TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		name       TEXT NOT NULL,
		company_id TEXT REFERENCES companies(id) ON DELETE SET NULL,
		color      TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	)`,

	`ALTER TABLE lots ADD COLUMN display_order INTEGER NOT NULL DEFAULT 0`,

	`CREATE TABLE IF NOT EXISTS interventions (
		id         TEXT PRIMARY KEY,
		lot_id     TEXT NOT NULL REFERENCES lots(id) ON DELETE CASCADE,
		name       TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date   TEXT NOT NULL,
		start_time TEXT NOT NULL DEFAULT '08:00',
		end_time   TEXT NOT NULL DEFAULT '17:00',
		state      TEXT NOT NULL,
		visible    INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS intervention_links (
		id         TEXT PRIMARY KEY,
		source_id  TEXT NOT NULL REFERENCES interventions(id) ON DELETE CASCADE,
		target_id  TEXT NOT NULL REFERENCES interventions(id) ON DELETE CASCADE,
		type       TEXT NOT NULL
		           CHECK(type IN ('finish-to-start','start-to-finish','finish-to-finish','start-to-start')),
		created_at TEXT NOT NULL,
		CHECK(source_id <> target_id),
		UNIQUE(source_id, target_id, type)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_lots_project ON lots(project_id)`,
	`CREATE INDEX IF NOT EXISTS idx_lots_company ON lots(company_id)`,
	`CREATE INDEX IF NOT EXISTS idx_interventions_lot ON interventions(lot_id)`,
	`CREATE INDEX IF NOT EXISTS idx_interventions_dates ON interventions(start_date, end_date)`,
	`CREATE INDEX IF NOT EXISTS idx_links_source ON intervention_links(source_id)`,
	`CREATE INDEX IF NOT EXISTS idx_links_target ON intervention_links(target_id)`,
}
