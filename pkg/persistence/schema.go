package persistence

import (
	"database/sql"
	"fmt"
)

// CurrentSchemaVersion tracks the schema for migration support.
const CurrentSchemaVersion = 1

const schemaSQL = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS projects (
	name               TEXT PRIMARY KEY,
	repo_url           TEXT NOT NULL DEFAULT '',
	last_successful_job TEXT NOT NULL DEFAULT '',
	created_at         TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at         TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS jobs (
	id          TEXT PRIMARY KEY,
	project     TEXT NOT NULL,
	status      TEXT NOT NULL,
	strategy    TEXT NOT NULL DEFAULT '',
	spec_json   TEXT NOT NULL DEFAULT '',
	result_json TEXT NOT NULL DEFAULT '',
	warnings    TEXT NOT NULL DEFAULT '[]',
	error       TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (project) REFERENCES projects(name)
);

CREATE TABLE IF NOT EXISTS job_logs (
	job_id   TEXT NOT NULL,
	seq      INTEGER NOT NULL,
	stage    TEXT NOT NULL,
	message  TEXT NOT NULL,
	logged_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (job_id, seq),
	FOREIGN KEY (job_id) REFERENCES jobs(id)
);

CREATE INDEX IF NOT EXISTS idx_jobs_project ON jobs(project);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
`

// initializeSchema creates the schema when missing. Idempotent.
func initializeSchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	var version int
	err := db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	switch {
	case err == sql.ErrNoRows:
		if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (?)", CurrentSchemaVersion); err != nil {
			return fmt.Errorf("failed to record schema version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("failed to read schema version: %w", err)
	case version > CurrentSchemaVersion:
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, CurrentSchemaVersion)
	}
	return nil
}
