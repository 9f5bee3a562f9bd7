package meta

import (
	"strings"

	"sessionmeta/internal/table"
	"sessionmeta/pkg/models"
)

// Column signatures. Spreadsheets in this domain reuse "Session" and "Date"
// across schemas, so classification keys on combinations of columns.
var (
	podcastNumberCols  = []string{"podcast #", "podcast#", "podcast no", "podcast number", "episode #", "episode number", "episode"}
	podcastDateCols    = []string{"date of podcast", "podcast date"}
	sessionNumberCols  = []string{"session #", "session#", "session no", "session no.", "session number"}
	topicOrHostCols    = []string{"topic", "host"}
	hostOrSessionCols  = []string{"host", "session"}
	workshopOnlyCols   = []string{"workshop", "workshop title", "workshop #"}
	programmeCols      = []string{"programme", "program"}
	cohortYearCols     = []string{"cohort year", "cohort_year", "cohortyear"}
	workshopNumberCols = []string{"workshop", "workshop #", "workshop number", "workshop no"}
	workshopSessCols   = []string{"session", "session #", "session number", "session no"}
)

// Classify decides which schema a table's columns describe. cols holds the
// lower-cased, whitespace-collapsed header names. More specific signatures
// are checked first because some schemas carry a superset of another's
// columns. The sheet name only breaks the tie when columns are silent.
func Classify(cols map[string]bool, sheet string) models.Program {
	switch {
	case hasAny(cols, podcastNumberCols) && hasAny(cols, podcastDateCols):
		return models.ProgramPodcast
	case hasAny(cols, sessionNumberCols) && hasAny(cols, topicOrHostCols) && cols["date"]:
		return models.ProgramMWM
	case cols["year"] && cols["date"] && hasAny(cols, hostOrSessionCols) && !hasAny(cols, workshopOnlyCols):
		return models.ProgramMMM
	case hasAny(cols, programmeCols) && hasAny(cols, cohortYearCols) &&
		hasAny(cols, workshopNumberCols) && hasAny(cols, workshopSessCols):
		return models.ProgramWorkshop
	}
	return classifySheetName(sheet)
}

// classifyLoose is the best-effort pass for CSV files, which lack the sheet
// name signal. Rows ingested this way lean on file-name patterns for the
// key fields the columns do not provide.
func classifyLoose(cols map[string]bool) models.Program {
	switch {
	case cols["podcast title"] || cols["date of podcast"]:
		return models.ProgramPodcast
	case cols["session #"] && cols["topic"]:
		return models.ProgramMWM
	case cols["mmm"] || cols["midmonth mentoring (mmm)"] || (cols["date"] && cols["host"]):
		return models.ProgramMMM
	}
	return models.ProgramUnrecognized
}

func classifySheetName(sheet string) models.Program {
	name := strings.ToLower(sheet)
	words := strings.Fields(strings.NewReplacer("-", " ", "_", " ", "(", " ", ")", " ").Replace(name))
	has := func(w string) bool {
		for _, x := range words {
			if x == w {
				return true
			}
		}
		return false
	}
	switch {
	case strings.Contains(name, "midweek mentoring") || has("mwm"):
		return models.ProgramMWM
	case strings.Contains(name, "midmonth mentoring") || has("mmm"):
		return models.ProgramMMM
	case has("podcast") || has("podcasts"):
		return models.ProgramPodcast
	}
	return models.ProgramUnrecognized
}

// classifyTable applies the strict rules and, for CSV sources only, the
// loose ones. The flag reports whether the loose pass decided.
func classifyTable(t *table.Table) (models.Program, bool) {
	cols := t.Columns()
	if p := Classify(cols, t.Sheet); p != models.ProgramUnrecognized {
		return p, false
	}
	if t.Format != table.FormatCSV {
		return models.ProgramUnrecognized, false
	}
	p := classifyLoose(cols)
	return p, p != models.ProgramUnrecognized
}

func hasAny(cols map[string]bool, names []string) bool {
	for _, n := range names {
		if cols[n] {
			return true
		}
	}
	return false
}
