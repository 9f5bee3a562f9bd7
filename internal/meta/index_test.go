package meta

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"sessionmeta/internal/table"
	"sessionmeta/pkg/models"
)

func TestLoadWorkshopEndToEnd(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "workshops.csv",
		workshopHeader,
		"PEP 2025,2025,4,1,Pricing Power,John Smith,Transcript,PEP25_W4_S1.docx",
		"PEP 2025,2025,4,2,Pricing Power,Jane Doe,Video,PEP25_W4_S2.mp4",
	)

	ix := Load([]string{path}, Options{})
	assert.Len(t, ix.Workshops(), 2)

	rec, ok := ix.LookupWorkshop("PEP", 2025, 4, 1)
	require.True(t, ok)
	assert.Equal(t, "John Smith", rec.Speaker)
	assert.Equal(t, "Pricing Power", rec.Title)
	assert.Equal(t, "transcript", rec.FileType)
	assert.Equal(t, path, rec.Source)
	assert.Equal(t, models.ProgramWorkshop, rec.Program)

	rows := ix.LookupWorkshopPartial(WorkshopQuery{Cohort: "PEP", CohortYear: 2025, WorkshopNumber: 4})
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].SessionNumber)
	assert.Equal(t, 2, rows[1].SessionNumber)

	audit := ix.Audit()
	require.Len(t, audit, 1)
	assert.Equal(t, AuditEntry{Source: path, Program: "Workshop", Rows: 2, Ingested: 2}, audit[0])
}

func TestLookupNormalizesInputs(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "workshops.csv",
		workshopHeader,
		"PEP 2025,2025.0,Workshop 04,#1,Pricing Power,John Smith,Video,a.mp4",
	)
	ix := Load([]string{path}, Options{})

	for _, cohort := range []string{"PEP", "pep", " PEP 2025 "} {
		_, ok := ix.LookupWorkshop(cohort, 2025, 4, 1)
		assert.True(t, ok, cohort)
	}

	_, ok := ix.LookupWorkshop("", 2025, 4, 1)
	assert.False(t, ok)
	_, ok = ix.LookupWorkshop("PEP", 2025, 0, 1)
	assert.False(t, ok)
	_, ok = ix.LookupWorkshop("PEP", 2025, 4, 2)
	assert.False(t, ok)
}

func TestRowsMissingKeyPartsAreSkipped(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "workshops.csv",
		workshopHeader,
		"PEP 2025,2025,4,1,A,John Smith,Video,a.mp4",
		",2025,4,2,B,John Smith,Video,b.mp4",
		"PEP 2025,2025,,3,C,John Smith,Video,c.mp4",
		"PEP 2025,2025,4,n/a,D,John Smith,Video,d.mp4",
		"PEP,,4,5,E,John Smith,Video,e.mp4",
		"PEP,2025,4,0,F,John Smith,Video,f.mp4",
	)
	ix := Load([]string{path}, Options{})

	assert.Len(t, ix.Workshops(), 1)
	audit := ix.Audit()
	require.Len(t, audit, 1)
	assert.Equal(t, 1, audit[0].Ingested)
	assert.Equal(t, 5, audit[0].Skipped)
}

func TestCohortYearFallsBackToProgramme(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "workshops.csv",
		workshopHeader,
		"PEA 2024,,2,3,Cash Flow,Rachel Davis,Video,a.mp4",
	)
	ix := Load([]string{path}, Options{})

	rec, ok := ix.LookupWorkshop("PEA", 2024, 2, 3)
	require.True(t, ok)
	assert.Equal(t, "Rachel Davis", rec.Speaker)
}

func TestWorkshopTranscriptWinsConflict(t *testing.T) {
	video := "PEP 2025,2025,4,1,Pricing Power,John Smith,Video,w4s1.mp4"
	transcript := "PEP 2025,2025,4,1,Pricing Power,John Smith,Transcript,w4s1.docx"
	transcription := "PEP 2025,2025,4,1,Pricing Power,John Smith,Transcription,w4s1.txt"

	tests := []struct {
		name         string
		rows         []string
		wantFileName string
		want         AuditEntry
	}{
		{"video then transcript", []string{video, transcript}, "w4s1.docx", AuditEntry{Ingested: 2, Replaced: 1}},
		{"transcript then video", []string{transcript, video}, "w4s1.docx", AuditEntry{Ingested: 2, Duplicates: 1}},
		{"first transcript kept", []string{transcript, transcription}, "w4s1.docx", AuditEntry{Ingested: 2, Duplicates: 1}},
		{"first video kept", []string{video, video}, "w4s1.mp4", AuditEntry{Ingested: 2, Duplicates: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCSV(t, t.TempDir(), "w.csv", append([]string{workshopHeader}, tt.rows...)...)
			ix := Load([]string{path}, Options{})

			rec, ok := ix.LookupWorkshop("PEP", 2025, 4, 1)
			require.True(t, ok)
			assert.Equal(t, tt.wantFileName, rec.FileName)
			if tt.wantFileName == "w4s1.docx" {
				assert.Equal(t, "transcript", rec.FileType)
			}

			got := ix.Audit()[0]
			assert.Equal(t, tt.want.Ingested, got.Ingested)
			assert.Equal(t, tt.want.Replaced, got.Replaced)
			assert.Equal(t, tt.want.Duplicates, got.Duplicates)
		})
	}
}

func TestConflictRuleAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeCSV(t, dir, "a.csv", workshopHeader, "PEP 2025,2025,4,1,T,John Smith,Video,v.mp4")
	b := writeCSV(t, dir, "b.csv", workshopHeader, "PEP 2025,2025,4,1,T,John Smith,Transcript,t.docx")

	for _, paths := range [][]string{{a, b}, {b, a}} {
		ix := Load(paths, Options{})
		rec, ok := ix.LookupWorkshop("PEP", 2025, 4, 1)
		require.True(t, ok)
		assert.Equal(t, "transcript", rec.FileType)
		assert.Equal(t, b, rec.Source)
	}
}

func TestLoadIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeCSV(t, dir, "w.csv", workshopHeader,
			"PEP 2025,2025,4,1,A,John Smith,Video,a.mp4",
			"PEP 2025,2025,4,1,A,John Smith,Transcript,a.docx",
			"PEA 2024,2024,1,2,B,Jane Doe,Video,b.mp4",
		),
		writeMixedFixtures(t, dir),
	}

	first := Load(paths, Options{})
	second := Load(paths, Options{})

	assert.NotEqual(t, first.ID(), second.ID())
	assert.Equal(t, first.Workshops(), second.Workshops())
	assert.Equal(t, first.MMMs(), second.MMMs())
	assert.Equal(t, first.MWMs(), second.MWMs())
	assert.Equal(t, first.Podcasts(), second.Podcasts())
	assert.Equal(t, first.Speakers(), second.Speakers())
	assert.Equal(t, first.Audit(), second.Audit())
}

// writeMixedFixtures builds a workbook with one sheet per non-workshop
// program plus a sheet nothing recognizes.
func writeMixedFixtures(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "master.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "MMM"))
	sheets := map[string][][]any{
		"MMM": {
			{"Programme", "Session", "Year", "Date", "Host", "File Name", "File Type"},
			{"PEP", "Midmonth Mentoring (MMM)", 2025, "2025-04-15", "Rachel Davis", "PEP Apr 2025 MMM.mp4", "Video"},
			{"PEP", "Midmonth Mentoring (MMM)", 2025, "", "Rachel Davis", "PEP Jun 2025 MMM.mp4", "Video"},
		},
		"MWM": {
			{"Programme", "Workshop", "Session #", "Date", "Host", "Topic", "File Name", "File Type"},
			{"PEP 2025", 3, 2, "2025-05-07", "Adam Goff", "Budgeting", "mwm-s2.mp4", "Video"},
			{"PEP 2025", 3, 3, "", "Adam Goff", "Forecasting", "PEP May 2025 MWM S3.mp4", "Video"},
		},
		"Podcast": {
			{"Podcast #", "Type", "Podcast Title", "Guest(s)", "Date of Podcast", "File Name", "File Type"},
			{12, "Interview", "Wealth Talk", "Sam Lee", "2024-07-01", "ep12.mp3", "Audio"},
			{"", "Interview", "Scaling Up", "Ana Ruiz", "2024-08-01", "Episode 013 - Scaling Up.mp3", "Audio"},
		},
		"Notes": {
			{"Remark", "Owner"},
			{"check audio", "ops"},
		},
	}
	for _, name := range []string{"MWM", "Podcast", "Notes"} {
		_, err := f.NewSheet(name)
		require.NoError(t, err)
	}
	for name, rows := range sheets {
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func TestLoadWorkbookSheets(t *testing.T) {
	path := writeMixedFixtures(t, t.TempDir())
	ix := Load([]string{path}, Options{})

	mmm, ok := ix.LookupMMM(2025, "April")
	require.True(t, ok)
	assert.Equal(t, "Rachel Davis", mmm.Host)
	assert.Equal(t, path+"::MMM", mmm.Source)

	_, ok = ix.LookupMMM(2025, "jun")
	assert.True(t, ok, "month recovered from file name")

	mwm, ok := ix.LookupMWM(2025, "May", 2)
	require.True(t, ok)
	assert.Equal(t, "Budgeting", mwm.Title)

	mwm, ok = ix.LookupMWM(2025, "2025-05-20", 3)
	require.True(t, ok)
	assert.Equal(t, "Forecasting", mwm.Title)

	pod, ok := ix.LookupPodcast(2024, 12)
	require.True(t, ok)
	assert.Equal(t, "Sam Lee", pod.Guests)

	pod, ok = ix.LookupPodcast(2024, 13)
	require.True(t, ok)
	assert.Equal(t, "Scaling Up", pod.Title)

	_, ok = ix.LookupPodcast(2024, 0)
	assert.False(t, ok)

	byProgram := map[string]string{}
	for _, e := range ix.Audit() {
		byProgram[e.Sheet] = e.Program
	}
	assert.Equal(t, map[string]string{
		"MMM":     "MMM",
		"MWM":     "MWM",
		"Podcast": "Podcast",
		"Notes":   "Unrecognized",
	}, byProgram)

	assert.Equal(t, []string{"Adam Goff", "Rachel Davis"}, ix.Speakers())
}

func TestLoadIsolatesBadSources(t *testing.T) {
	dir := t.TempDir()
	good := writeCSV(t, dir, "w.csv", workshopHeader, "PEP 2025,2025,4,1,A,John Smith,Video,a.mp4")
	missing := filepath.Join(dir, "missing.csv")
	unsupported := writeCSV(t, dir, "notes.txt", "hello")
	corrupt := writeCSV(t, dir, "broken.xlsx", "not a zip")

	ix := Load([]string{missing, unsupported, good, corrupt}, Options{})

	assert.Len(t, ix.Workshops(), 1)
	audit := ix.Audit()
	require.Len(t, audit, 4)
	assert.Contains(t, audit[0].Error, "not found")
	assert.NotEmpty(t, audit[1].Error)
	assert.Empty(t, audit[2].Error)
	assert.NotEmpty(t, audit[3].Error)
}

func TestLoadUsesFallbackDir(t *testing.T) {
	fallback := t.TempDir()
	writeCSV(t, fallback, "w.csv", workshopHeader, "PEP 2025,2025,4,1,A,John Smith,Video,a.mp4")

	ix := Load([]string{"/no/such/dir/w.csv"}, Options{FallbackDir: fallback})

	_, ok := ix.LookupWorkshop("PEP", 2025, 4, 1)
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(fallback, "w.csv"), ix.Audit()[0].Source)
}

func TestEmptyIndex(t *testing.T) {
	ix := Load(nil, Options{})

	assert.True(t, ix.Loaded())
	_, ok := ix.LookupWorkshop("PEP", 2025, 4, 1)
	assert.False(t, ok)
	_, ok = ix.MatchSpeaker("John")
	assert.False(t, ok)
	assert.Empty(t, ix.LookupWorkshopPartial(WorkshopQuery{Cohort: "PEP"}))
	assert.Empty(t, ix.Audit())
}

func TestCohortAllowList(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "w.csv",
		workshopHeader,
		"PEP 2025,2025,4,1,A,John Smith,Video,a.mp4",
		"SUPEREVENT 2025,2025,1,1,Keynote,Jane Doe,Video,k.mp4",
	)

	ix := Load([]string{path}, Options{Cohorts: []string{"pea", "PEP"}})
	assert.Len(t, ix.Workshops(), 1)
	assert.Equal(t, 1, ix.Audit()[0].Skipped)

	ix = Load([]string{path}, Options{})
	assert.Len(t, ix.Workshops(), 2)
}

func TestLooseCSVFallback(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "mmm.csv",
		"Date,Host,File Name",
		",Rachel Davis,PEP Sept 2024 MMM - Recording.mp4",
	)
	ix := Load([]string{path}, Options{})

	rec, ok := ix.LookupMMM(2024, "Sep")
	require.True(t, ok)
	assert.Equal(t, "Rachel Davis", rec.Host)
	assert.True(t, ix.Audit()[0].Fallback)
}

func TestLoadWorkbookDateCellsKeepTheirMonth(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mmm.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "MMM"))
	require.NoError(t, f.SetSheetRow("MMM", "A1", &[]any{"Programme", "Session", "Year", "Date", "Host", "File Name", "File Type"}))
	require.NoError(t, f.SetSheetRow("MMM", "A2", &[]any{"PEP", "Midmonth Mentoring (MMM)", 2025, nil, "Rachel Davis", "mmm-1.mp4", "Video"}))
	require.NoError(t, f.SetSheetRow("MMM", "A3", &[]any{"PEP", "Midmonth Mentoring (MMM)", 2025, nil, "Adam Goff", "mmm-2.mp4", "Video"}))
	require.NoError(t, f.SetCellValue("MMM", "D2", time.Date(2025, time.March, 4, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, f.SetCellValue("MMM", "D3", time.Date(2025, time.April, 15, 0, 0, 0, 0, time.UTC)))
	usDate := "m/d/yyyy"
	style, err := f.NewStyle(&excelize.Style{CustomNumFmt: &usDate})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle("MMM", "D2", "D3", style))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	ix := Load([]string{path}, Options{})

	rec, ok := ix.LookupMMM(2025, "Mar")
	require.True(t, ok)
	assert.Equal(t, "Rachel Davis", rec.Host)
	assert.Equal(t, "2025-03-04", rec.Date)

	rec, ok = ix.LookupMMM(2025, "Apr")
	require.True(t, ok)
	assert.Equal(t, "Adam Goff", rec.Host)

	audit := ix.Audit()
	require.Len(t, audit, 1)
	assert.Equal(t, 2, audit[0].Ingested)
	assert.Zero(t, audit[0].Skipped)
}

func TestMonthFirstDateStringIsNotDropped(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "mmm.csv",
		"Year,Date,Host,Session",
		"2024,12/13/2024,Rachel Davis,MMM",
	)
	ix := Load([]string{path}, Options{})

	rec, ok := ix.LookupMMM(2024, "Dec")
	require.True(t, ok)
	assert.Equal(t, "Rachel Davis", rec.Host)
	assert.Equal(t, 1, ix.Audit()[0].Ingested)
}

func TestUnreadableSheetIsAudited(t *testing.T) {
	ix := New(Options{})
	ix.ingestTable(&table.Table{
		Source: "master.xlsx",
		Sheet:  "Bro:ken",
		Format: table.FormatXLSX,
		Err:    errors.New("read sheet master.xlsx::Bro:ken: invalid sheet name"),
	})

	audit := ix.Audit()
	require.Len(t, audit, 1)
	assert.Equal(t, "Bro:ken", audit[0].Sheet)
	assert.Equal(t, models.ProgramUnrecognized.String(), audit[0].Program)
	assert.Contains(t, audit[0].Error, "invalid sheet name")
	assert.Zero(t, audit[0].Ingested)
}
