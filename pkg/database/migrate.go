package database

import (
	"database/sql"
	"fmt"
)

// Schema mirrors the four composite keys as primary keys. Each snapshot
// replaces the previous one wholesale.
const Schema = `
CREATE TABLE IF NOT EXISTS snapshot (
    load_id    TEXT PRIMARY KEY,
    loaded_at  TEXT NOT NULL,
    written_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS workshops (
    cohort          TEXT    NOT NULL,
    cohort_year     INTEGER NOT NULL,
    workshop_number INTEGER NOT NULL,
    session_number  INTEGER NOT NULL,
    title           TEXT,
    session_title   TEXT,
    speaker         TEXT,
    file_type       TEXT,
    file_name       TEXT,
    start_month     TEXT,
    source          TEXT NOT NULL,
    PRIMARY KEY (cohort, cohort_year, workshop_number, session_number)
);

CREATE TABLE IF NOT EXISTS mmm (
    year      INTEGER NOT NULL,
    month     TEXT    NOT NULL,
    host      TEXT,
    title     TEXT,
    programme TEXT,
    date      TEXT,
    file_type TEXT,
    file_name TEXT,
    source    TEXT NOT NULL,
    PRIMARY KEY (year, month)
);

CREATE TABLE IF NOT EXISTS mwm (
    year           INTEGER NOT NULL,
    month          TEXT    NOT NULL,
    session_number INTEGER NOT NULL,
    host           TEXT,
    title          TEXT,
    programme      TEXT,
    date           TEXT,
    file_type      TEXT,
    file_name      TEXT,
    source         TEXT NOT NULL,
    PRIMARY KEY (year, month, session_number)
);

CREATE TABLE IF NOT EXISTS podcasts (
    year           INTEGER NOT NULL,
    episode_number INTEGER NOT NULL,
    title          TEXT,
    guests         TEXT,
    type           TEXT,
    date           TEXT,
    file_type      TEXT,
    file_name      TEXT,
    source         TEXT NOT NULL,
    PRIMARY KEY (year, episode_number)
);

CREATE TABLE IF NOT EXISTS audit (
    seq           INTEGER PRIMARY KEY,
    source        TEXT NOT NULL,
    sheet         TEXT,
    classified_as TEXT NOT NULL,
    fallback      INTEGER NOT NULL DEFAULT 0,
    row_count     INTEGER NOT NULL DEFAULT 0,
    ingested      INTEGER NOT NULL DEFAULT 0,
    skipped       INTEGER NOT NULL DEFAULT 0,
    duplicates    INTEGER NOT NULL DEFAULT 0,
    replaced      INTEGER NOT NULL DEFAULT 0,
    error         TEXT
);
`

func Migrate(db *sql.DB) error {
	if _, err := db.Exec(Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
