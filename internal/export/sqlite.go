package export

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"sessionmeta/internal/meta"
	"sessionmeta/pkg/database"
)

// WriteSQLite replaces the snapshot in db with the contents of ix inside a
// single transaction.
func WriteSQLite(ctx context.Context, db *sql.DB, ix *meta.Index) error {
	if err := database.Migrate(db); err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, table := range []string{"snapshot", "workshops", "mmm", "mwm", "podcasts", "audit"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshot (load_id, loaded_at, written_at) VALUES (?, ?, ?)`,
		ix.ID(), ix.LoadedAt().UTC().Format(time.RFC3339), time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	for _, r := range ix.Workshops() {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO workshops (cohort, cohort_year, workshop_number, session_number, title, session_title, speaker, file_type, file_name, start_month, source)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.Cohort, r.CohortYear, r.WorkshopNumber, r.SessionNumber,
			nullable(r.Title), nullable(r.SessionTitle), nullable(r.Speaker), nullable(r.FileType),
			nullable(r.FileName), nullable(r.StartMonth), r.Source,
		); err != nil {
			return fmt.Errorf("insert workshop: %w", err)
		}
	}

	for _, r := range ix.MMMs() {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO mmm (year, month, host, title, programme, date, file_type, file_name, source)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.Year, r.Month, nullable(r.Host), nullable(r.Title), nullable(r.Programme),
			nullable(r.Date), nullable(r.FileType), nullable(r.FileName), r.Source,
		); err != nil {
			return fmt.Errorf("insert mmm: %w", err)
		}
	}

	for _, r := range ix.MWMs() {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO mwm (year, month, session_number, host, title, programme, date, file_type, file_name, source)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.Year, r.Month, r.SessionNumber, nullable(r.Host), nullable(r.Title), nullable(r.Programme),
			nullable(r.Date), nullable(r.FileType), nullable(r.FileName), r.Source,
		); err != nil {
			return fmt.Errorf("insert mwm: %w", err)
		}
	}

	for _, r := range ix.Podcasts() {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO podcasts (year, episode_number, title, guests, type, date, file_type, file_name, source)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.Year, r.EpisodeNumber, nullable(r.Title), nullable(r.Guests), nullable(r.Type),
			nullable(r.Date), nullable(r.FileType), nullable(r.FileName), r.Source,
		); err != nil {
			return fmt.Errorf("insert podcast: %w", err)
		}
	}

	for i, e := range ix.Audit() {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO audit (seq, source, sheet, classified_as, fallback, row_count, ingested, skipped, duplicates, replaced, error)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			i+1, e.Source, nullable(e.Sheet), e.Program, e.Fallback, e.Rows,
			e.Ingested, e.Skipped, e.Duplicates, e.Replaced, nullable(e.Error),
		); err != nil {
			return fmt.Errorf("insert audit: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
