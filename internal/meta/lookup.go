package meta

import (
	"strings"
	"time"

	"sessionmeta/internal/cache"
	"sessionmeta/internal/normalize"
	"sessionmeta/pkg/models"
)

// LookupWorkshop finds one workshop session by its full key. Inputs are
// normalized the way ingestion normalizes cells, so "pep" and "PEP 2025"
// both resolve to cohort PEP.
func (ix *Index) LookupWorkshop(cohort string, cohortYear, workshopNumber, sessionNumber int) (*models.WorkshopRecord, bool) {
	c, ok := normalize.CohortToken(cohort)
	if !ok || cohortYear <= 0 || workshopNumber <= 0 || sessionNumber <= 0 {
		return nil, false
	}
	key := models.WorkshopKey{Cohort: c, CohortYear: cohortYear, WorkshopNumber: workshopNumber, SessionNumber: sessionNumber}
	rec := cache.Do(ix.cache, cache.NewKey("lookup_workshop", key), func() *models.WorkshopRecord {
		return ix.workshops[key]
	})
	return rec, rec != nil
}

// LookupMMM accepts the month as a name, abbreviation or date string.
func (ix *Index) LookupMMM(year int, month string) (*models.MMMRecord, bool) {
	m, ok := normalize.Month3(month)
	if !ok || year <= 0 {
		return nil, false
	}
	key := models.MMMKey{Year: year, Month: m}
	rec := cache.Do(ix.cache, cache.NewKey("lookup_mmm", key), func() *models.MMMRecord {
		return ix.mmm[key]
	})
	return rec, rec != nil
}

func (ix *Index) LookupMWM(year int, month string, sessionNumber int) (*models.MWMRecord, bool) {
	m, ok := normalize.Month3(month)
	if !ok || year <= 0 || sessionNumber <= 0 {
		return nil, false
	}
	key := models.MWMKey{Year: year, Month: m, SessionNumber: sessionNumber}
	rec := cache.Do(ix.cache, cache.NewKey("lookup_mwm", key), func() *models.MWMRecord {
		return ix.mwm[key]
	})
	return rec, rec != nil
}

func (ix *Index) LookupPodcast(year, episodeNumber int) (*models.PodcastRecord, bool) {
	if year <= 0 || episodeNumber <= 0 {
		return nil, false
	}
	key := models.PodcastKey{Year: year, EpisodeNumber: episodeNumber}
	rec := cache.Do(ix.cache, cache.NewKey("lookup_podcast", key), func() *models.PodcastRecord {
		return ix.podcasts[key]
	})
	return rec, rec != nil
}

// WorkshopQuery holds the criteria of a partial workshop lookup. Zero values
// mean "not supplied".
type WorkshopQuery struct {
	Cohort         string
	CohortYear     int
	WorkshopNumber int
	SessionNumber  int
	// Title matches as a case-insensitive substring.
	Title string
	// Speaker is resolved through the speaker matcher first.
	Speaker string
}

func (q WorkshopQuery) normalized() WorkshopQuery {
	var n WorkshopQuery
	if c, ok := normalize.CohortToken(q.Cohort); ok {
		n.Cohort = c
	}
	n.CohortYear = max(q.CohortYear, 0)
	n.WorkshopNumber = max(q.WorkshopNumber, 0)
	n.SessionNumber = max(q.SessionNumber, 0)
	n.Title = strings.ToLower(strings.TrimSpace(q.Title))
	n.Speaker = strings.TrimSpace(q.Speaker)
	return n
}

func (q WorkshopQuery) empty() bool {
	return q == WorkshopQuery{}
}

// LookupWorkshopPartial returns every workshop record matching all supplied
// criteria, ordered by key. A query with no criteria matches nothing.
func (ix *Index) LookupWorkshopPartial(q WorkshopQuery) []*models.WorkshopRecord {
	q = q.normalized()
	if q.empty() {
		return []*models.WorkshopRecord{}
	}
	return cache.Do(ix.cache, cache.NewKey("lookup_workshop_partial", q), func() []*models.WorkshopRecord {
		return ix.partialWorkshops(q)
	})
}

func (ix *Index) partialWorkshops(q WorkshopQuery) []*models.WorkshopRecord {
	out := []*models.WorkshopRecord{}
	var speakerName string
	if q.Speaker != "" {
		name, ok := ix.speakers.Match(q.Speaker)
		if !ok {
			return out
		}
		speakerName = name
	}
	for _, r := range ix.Workshops() {
		switch {
		case q.Cohort != "" && r.Cohort != q.Cohort,
			q.CohortYear != 0 && r.CohortYear != q.CohortYear,
			q.WorkshopNumber != 0 && r.WorkshopNumber != q.WorkshopNumber,
			q.SessionNumber != 0 && r.SessionNumber != q.SessionNumber,
			q.Title != "" && !strings.Contains(strings.ToLower(r.Title), q.Title),
			speakerName != "" && r.Speaker != speakerName:
			continue
		}
		out = append(out, r)
	}
	return out
}

type speakerMatch struct {
	name string
	ok   bool
}

// MatchSpeaker resolves a free-text name to a known speaker or host.
func (ix *Index) MatchSpeaker(query string) (string, bool) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", false
	}
	m := cache.Do(ix.cache, cache.NewKey("match_speaker", query), func() speakerMatch {
		name, ok := ix.speakers.Match(query)
		return speakerMatch{name: name, ok: ok}
	})
	return m.name, m.ok
}

// ClearCache drops every memoized lookup. Callers that change the
// underlying files out of band should reload instead.
func (ix *Index) ClearCache() { ix.cache.Clear() }

func (ix *Index) CacheStats() cache.Stats { return ix.cache.Stats() }

// Stats summarizes the index for operators.
type Stats struct {
	LoadID    string      `json:"load_id"`
	LoadedAt  time.Time   `json:"loaded_at"`
	Sources   []string    `json:"sources"`
	Workshops int         `json:"workshops"`
	MMM       int         `json:"mmm"`
	MWM       int         `json:"mwm"`
	Podcasts  int         `json:"podcasts"`
	Speakers  int         `json:"speakers"`
	Cache     cache.Stats `json:"cache"`
}

func (ix *Index) Stats() Stats {
	return Stats{
		LoadID:    ix.id,
		LoadedAt:  ix.loadedAt,
		Sources:   append([]string(nil), ix.sources...),
		Workshops: len(ix.workshops),
		MMM:       len(ix.mmm),
		MWM:       len(ix.mwm),
		Podcasts:  len(ix.podcasts),
		Speakers:  ix.speakers.Len(),
		Cache:     ix.cache.Stats(),
	}
}

// SampleKeys returns up to n keys per program, in key order, rendered as
// ordered tuples for the debug endpoint.
func (ix *Index) SampleKeys(n int) map[string][][]any {
	out := map[string][][]any{
		"workshop": {},
		"mmm":      {},
		"mwm":      {},
		"podcast":  {},
	}
	for i, r := range ix.Workshops() {
		if i == n {
			break
		}
		out["workshop"] = append(out["workshop"], []any{r.Cohort, r.CohortYear, r.WorkshopNumber, r.SessionNumber})
	}
	for i, r := range ix.MMMs() {
		if i == n {
			break
		}
		out["mmm"] = append(out["mmm"], []any{r.Year, r.Month})
	}
	for i, r := range ix.MWMs() {
		if i == n {
			break
		}
		out["mwm"] = append(out["mwm"], []any{r.Year, r.Month, r.SessionNumber})
	}
	for i, r := range ix.Podcasts() {
		if i == n {
			break
		}
		out["podcast"] = append(out["podcast"], []any{r.Year, r.EpisodeNumber})
	}
	return out
}
