package meta

import (
	"sessionmeta/internal/normalize"
	"sessionmeta/internal/table"
	"sessionmeta/pkg/models"
)

// rowCounts tallies what one table contributed.
type rowCounts struct {
	ingested   int
	skipped    int
	duplicates int
	replaced   int
}

func (ix *Index) ingestWorkshop(t *table.Table) rowCounts {
	var (
		progCol  = t.ColumnIndex("programme", "program")
		yearCol  = t.ColumnIndex("cohort year", "cohort_year", "cohortyear")
		wkCol    = t.ColumnIndex("workshop", "workshop #", "workshop number", "workshop no")
		sessCol  = t.ColumnIndex("session", "session #", "session number", "session no")
		spkCol   = t.ColumnIndex("delivered by", "delivered_by", "speaker", "host")
		titleCol = t.ColumnIndex("workshop title", "title")
		headCol  = t.ColumnIndex("session heading", "session title")
		fileCol  = t.ColumnIndex("file name", "filename")
		ftypeCol = t.ColumnIndex("file type", "filetype")
		monthCol = t.ColumnIndex("starting month", "start month")
		source   = t.Label()
	)
	var counts rowCounts

	for _, row := range t.Rows {
		programme := table.Value(row, progCol)
		cohort, ok := normalize.CohortToken(programme)
		if !ok || !ix.acceptCohort(cohort) {
			counts.skipped++
			continue
		}
		cohortYear, ok := normalize.PositiveInt(table.Value(row, yearCol))
		if !ok {
			if _, y, found := normalize.CohortFromProgramme(programme); found {
				cohortYear, ok = y, true
			}
		}
		wk, wkOK := normalize.PositiveInt(table.Value(row, wkCol))
		sess, sessOK := normalize.PositiveInt(table.Value(row, sessCol))
		if !ok || !wkOK || !sessOK {
			counts.skipped++
			continue
		}

		rec := &models.WorkshopRecord{
			Program:        models.ProgramWorkshop,
			Cohort:         cohort,
			CohortYear:     cohortYear,
			WorkshopNumber: wk,
			SessionNumber:  sess,
			Title:          table.Value(row, titleCol),
			SessionTitle:   table.Value(row, headCol),
			Speaker:        table.Value(row, spkCol),
			FileType:       normalize.FileType(table.Value(row, ftypeCol)),
			FileName:       table.Value(row, fileCol),
			Source:         source,
		}
		if m, ok := normalize.Month3(table.Value(row, monthCol)); ok {
			rec.StartMonth = m
		}
		counts.ingested++

		key := rec.Key()
		existing, dup := ix.workshops[key]
		switch {
		case !dup:
			ix.workshops[key] = rec
		case isTranscript(rec.FileType) && !isTranscript(existing.FileType):
			ix.workshops[key] = rec
			counts.replaced++
		default:
			counts.duplicates++
		}
	}
	return counts
}

// isTranscript reports whether a lower-cased file type names a transcript.
// Transcripts carry the searchable text, so they win workshop key conflicts.
func isTranscript(fileType string) bool {
	return fileType == "transcript" || fileType == "transcription"
}

func (ix *Index) ingestMMM(t *table.Table) rowCounts {
	var (
		yearCol  = t.ColumnIndex("year")
		dateCol  = t.ColumnIndex("date")
		hostCol  = t.ColumnIndex("host")
		fileCol  = t.ColumnIndex("file name", "filename")
		ftypeCol = t.ColumnIndex("file type", "filetype")
		progCol  = t.ColumnIndex("programme", "program")
		titleCol = t.ColumnIndex("workshop title", "topic", "session heading", "session title")
		source   = t.Label()
	)
	var counts rowCounts

	for _, row := range t.Rows {
		date := table.Value(row, dateCol)
		fileName := table.Value(row, fileCol)

		year, ok := normalize.PositiveInt(table.Value(row, yearCol))
		if !ok {
			year, ok = normalize.YearFromDate(date)
		}
		if !ok {
			year, ok = normalize.YearFromText(fileName)
		}
		month, monthOK := normalize.Month3(date)
		if !monthOK {
			month, monthOK = normalize.MonthFromText(fileName)
		}
		if !ok || !monthOK {
			counts.skipped++
			continue
		}

		rec := &models.MMMRecord{
			Program:   models.ProgramMMM,
			Year:      year,
			Month:     month,
			Host:      table.Value(row, hostCol),
			Title:     table.Value(row, titleCol),
			Programme: table.Value(row, progCol),
			Date:      date,
			FileType:  normalize.FileType(table.Value(row, ftypeCol)),
			FileName:  fileName,
			Source:    source,
		}
		counts.ingested++
		if _, dup := ix.mmm[rec.Key()]; dup {
			counts.replaced++
		}
		ix.mmm[rec.Key()] = rec
	}
	return counts
}

func (ix *Index) ingestMWM(t *table.Table) rowCounts {
	var (
		yearCol  = t.ColumnIndex("year")
		dateCol  = t.ColumnIndex("date")
		hostCol  = t.ColumnIndex("host", "delivered by", "delivered_by")
		topicCol = t.ColumnIndex("topic", "session heading", "title")
		sessCol  = t.ColumnIndex("session #", "session#", "session no", "session number")
		fileCol  = t.ColumnIndex("file name", "filename")
		ftypeCol = t.ColumnIndex("file type", "filetype")
		progCol  = t.ColumnIndex("programme", "program")
		source   = t.Label()
	)
	var counts rowCounts

	for _, row := range t.Rows {
		date := table.Value(row, dateCol)
		fileName := table.Value(row, fileCol)
		programme := table.Value(row, progCol)

		year, ok := normalize.YearFromDate(date)
		if !ok {
			year, ok = normalize.PositiveInt(table.Value(row, yearCol))
		}
		if !ok {
			if _, y, found := normalize.CohortFromProgramme(programme); found {
				year, ok = y, true
			}
		}
		if !ok {
			year, ok = normalize.YearFromText(fileName)
		}
		month, monthOK := normalize.Month3(date)
		if !monthOK {
			month, monthOK = normalize.MonthFromText(fileName)
		}
		sess, sessOK := normalize.PositiveInt(table.Value(row, sessCol))
		if !ok || !monthOK || !sessOK {
			counts.skipped++
			continue
		}

		rec := &models.MWMRecord{
			Program:       models.ProgramMWM,
			Year:          year,
			Month:         month,
			SessionNumber: sess,
			Host:          table.Value(row, hostCol),
			Title:         table.Value(row, topicCol),
			Programme:     programme,
			Date:          date,
			FileType:      normalize.FileType(table.Value(row, ftypeCol)),
			FileName:      fileName,
			Source:        source,
		}
		counts.ingested++
		if _, dup := ix.mwm[rec.Key()]; dup {
			counts.replaced++
		}
		ix.mwm[rec.Key()] = rec
	}
	return counts
}

func (ix *Index) ingestPodcast(t *table.Table) rowCounts {
	var (
		epCol     = t.ColumnIndex("podcast #", "podcast no", "podcast number", "episode #", "episode", "episode number")
		dateCol   = t.ColumnIndex("date of podcast", "podcast date", "date")
		yearCol   = t.ColumnIndex("year")
		typeCol   = t.ColumnIndex("type")
		titleCol  = t.ColumnIndex("podcast title", "title", "episode title")
		guestsCol = t.ColumnIndex("guest(s)", "guests", "guest")
		fileCol   = t.ColumnIndex("file name", "filename")
		ftypeCol  = t.ColumnIndex("file type", "filetype")
		source    = t.Label()
	)
	var counts rowCounts

	for _, row := range t.Rows {
		date := table.Value(row, dateCol)
		fileName := table.Value(row, fileCol)

		ep, ok := normalize.PositiveInt(table.Value(row, epCol))
		if !ok {
			ep, ok = normalize.EpisodeFromText(fileName)
		}
		year, yearOK := normalize.YearFromDate(date)
		if !yearOK {
			year, yearOK = normalize.PositiveInt(table.Value(row, yearCol))
		}
		if !yearOK {
			year, yearOK = normalize.YearFromText(fileName)
		}
		if !ok || !yearOK {
			counts.skipped++
			continue
		}

		rec := &models.PodcastRecord{
			Program:       models.ProgramPodcast,
			Year:          year,
			EpisodeNumber: ep,
			Title:         table.Value(row, titleCol),
			Guests:        table.Value(row, guestsCol),
			Type:          table.Value(row, typeCol),
			Date:          date,
			FileType:      normalize.FileType(table.Value(row, ftypeCol)),
			FileName:      fileName,
			Source:        source,
		}
		counts.ingested++
		if _, dup := ix.podcasts[rec.Key()]; dup {
			counts.replaced++
		}
		ix.podcasts[rec.Key()] = rec
	}
	return counts
}
