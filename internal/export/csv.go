// Package export writes the normalized contents of an index for operators:
// one CSV file per program, or a SQLite snapshot.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"sessionmeta/internal/meta"
)

// CSV file names written by WriteCSV.
const (
	WorkshopsFile = "workshops.csv"
	MMMFile       = "mmm.csv"
	MWMFile       = "mwm.csv"
	PodcastsFile  = "podcasts.csv"
)

// WriteCSV writes the four record sets into dir, creating it if needed.
// Columns use the same names as the JSON API.
func WriteCSV(dir string, ix *meta.Index) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	workshops := [][]string{{"cohort", "cohort_year", "workshop_number", "session_number", "title", "session_title", "speaker", "file_type", "file_name", "start_month", "source"}}
	for _, r := range ix.Workshops() {
		workshops = append(workshops, []string{
			r.Cohort, itoa(r.CohortYear), itoa(r.WorkshopNumber), itoa(r.SessionNumber),
			r.Title, r.SessionTitle, r.Speaker, r.FileType, r.FileName, r.StartMonth, r.Source,
		})
	}

	mmm := [][]string{{"year", "mmm_month", "host", "title", "programme", "date", "file_type", "file_name", "source"}}
	for _, r := range ix.MMMs() {
		mmm = append(mmm, []string{
			itoa(r.Year), r.Month, r.Host, r.Title, r.Programme, r.Date, r.FileType, r.FileName, r.Source,
		})
	}

	mwm := [][]string{{"year", "mwm_month", "session_number", "host", "title", "programme", "date", "file_type", "file_name", "source"}}
	for _, r := range ix.MWMs() {
		mwm = append(mwm, []string{
			itoa(r.Year), r.Month, itoa(r.SessionNumber), r.Host, r.Title, r.Programme, r.Date, r.FileType, r.FileName, r.Source,
		})
	}

	podcasts := [][]string{{"year", "episode_number", "title", "guests", "type", "date", "file_type", "file_name", "source"}}
	for _, r := range ix.Podcasts() {
		podcasts = append(podcasts, []string{
			itoa(r.Year), itoa(r.EpisodeNumber), r.Title, r.Guests, r.Type, r.Date, r.FileType, r.FileName, r.Source,
		})
	}

	for name, rows := range map[string][][]string{
		WorkshopsFile: workshops,
		MMMFile:       mmm,
		MWMFile:       mwm,
		PodcastsFile:  podcasts,
	} {
		if err := writeRows(filepath.Join(dir, name), rows); err != nil {
			return err
		}
	}
	return nil
}

func writeRows(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func itoa(n int) string { return strconv.Itoa(n) }
