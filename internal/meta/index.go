// Package meta builds the master metadata index: it loads the session
// spreadsheets, classifies and ingests every table into four keyed maps and
// answers typed lookups against them.
package meta

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"sessionmeta/internal/cache"
	"sessionmeta/internal/speaker"
	"sessionmeta/internal/table"
	"sessionmeta/pkg/logger"
	"sessionmeta/pkg/models"
)

// ErrSourceMissing is recorded in the audit log for paths that exist neither
// where given nor in the fallback directory.
var ErrSourceMissing = errors.New("source file not found")

type Options struct {
	// FallbackDir is searched for a file's base name when the given path
	// does not exist.
	FallbackDir string
	// Cohorts restricts workshop rows to these cohort tokens. Empty accepts
	// every cohort.
	Cohorts   []string
	CacheSize int
	CacheTTL  time.Duration
	// Parallelism bounds concurrent file parsing; 0 means GOMAXPROCS.
	Parallelism int
	Logger      *logger.Logger
}

// AuditEntry records how one file or sheet was treated during a load.
type AuditEntry struct {
	Source     string `json:"source"`
	Sheet      string `json:"sheet,omitempty"`
	Program    string `json:"classified_as"`
	Fallback   bool   `json:"fallback,omitempty"`
	Rows       int    `json:"rows"`
	Ingested   int    `json:"ingested"`
	Skipped    int    `json:"skipped"`
	Duplicates int    `json:"duplicates,omitempty"`
	Replaced   int    `json:"replaced,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Index is immutable once Load returns and safe for concurrent readers.
type Index struct {
	id       string
	loadedAt time.Time
	sources  []string

	workshops map[models.WorkshopKey]*models.WorkshopRecord
	mmm       map[models.MMMKey]*models.MMMRecord
	mwm       map[models.MWMKey]*models.MWMRecord
	podcasts  map[models.PodcastKey]*models.PodcastRecord

	speakers *speaker.Matcher
	audit    []AuditEntry
	cohorts  map[string]bool
	cache    *cache.Cache
	log      *logger.Logger
}

// New returns an empty index. Load is the usual constructor.
func New(opts Options) *Index {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	ix := &Index{
		workshops: make(map[models.WorkshopKey]*models.WorkshopRecord),
		mmm:       make(map[models.MMMKey]*models.MMMRecord),
		mwm:       make(map[models.MWMKey]*models.MWMRecord),
		podcasts:  make(map[models.PodcastKey]*models.PodcastRecord),
		speakers:  speaker.NewMatcher(),
		cache:     cache.New(opts.CacheSize, opts.CacheTTL),
		log:       log,
	}
	if len(opts.Cohorts) > 0 {
		ix.cohorts = make(map[string]bool, len(opts.Cohorts))
		for _, c := range opts.Cohorts {
			if c = strings.ToUpper(strings.TrimSpace(c)); c != "" {
				ix.cohorts[c] = true
			}
		}
	}
	return ix
}

type parsedFile struct {
	path   string
	tables []*table.Table
	err    error
}

// Load builds an index from paths. It never fails: unreadable files and
// tables are logged, noted in the audit log and skipped. Files are parsed
// concurrently but ingested in path order, so conflict resolution does not
// depend on scheduling.
func Load(paths []string, opts Options) *Index {
	ix := New(opts)
	ix.id = uuid.NewString()
	ix.sources = append([]string(nil), paths...)

	limit := opts.Parallelism
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	parsed := make([]parsedFile, len(paths))
	var g errgroup.Group
	g.SetLimit(limit)
	for i, p := range paths {
		g.Go(func() error {
			parsed[i] = parseFile(p, opts.FallbackDir)
			return nil
		})
	}
	_ = g.Wait()

	for _, pf := range parsed {
		if pf.err != nil {
			ix.log.Warn("skipping source", "path", pf.path, "error", pf.err)
			ix.audit = append(ix.audit, AuditEntry{
				Source:  pf.path,
				Program: models.ProgramUnrecognized.String(),
				Error:   pf.err.Error(),
			})
			continue
		}
		for _, t := range pf.tables {
			ix.ingestTable(t)
		}
	}

	ix.populateSpeakers()
	ix.loadedAt = time.Now()
	ix.log.Info("metadata index loaded",
		"load_id", ix.id,
		"sources", len(paths),
		"workshops", len(ix.workshops),
		"mmm", len(ix.mmm),
		"mwm", len(ix.mwm),
		"podcasts", len(ix.podcasts),
		"speakers", ix.speakers.Len(),
	)
	return ix
}

func parseFile(path, fallbackDir string) (pf parsedFile) {
	pf.path = path
	defer func() {
		if r := recover(); r != nil {
			pf.tables, pf.err = nil, fmt.Errorf("parse %s: %v", path, r)
		}
	}()

	resolved, err := resolvePath(path, fallbackDir)
	if err != nil {
		pf.err = err
		return pf
	}
	pf.path = resolved
	pf.tables, pf.err = table.Load(resolved)
	return pf
}

func resolvePath(path, fallbackDir string) (string, error) {
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	if fallbackDir != "" {
		alt := filepath.Join(fallbackDir, filepath.Base(path))
		if _, err := os.Stat(alt); err == nil {
			return alt, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrSourceMissing, path)
}

// ingestTable classifies t and hands it to its ingestor. A panic inside one
// table is contained to that table.
func (ix *Index) ingestTable(t *table.Table) {
	entry := AuditEntry{Source: t.Source, Sheet: t.Sheet, Rows: len(t.Rows)}
	defer func() {
		if r := recover(); r != nil {
			entry.Error = fmt.Sprint(r)
			ix.log.Error("table ingestion panicked", "table", t.Label(), "panic", r)
		}
		ix.audit = append(ix.audit, entry)
	}()

	if t.Err != nil {
		entry.Program, entry.Error = models.ProgramUnrecognized.String(), t.Err.Error()
		ix.log.Warn("skipping sheet", "table", t.Label(), "error", t.Err)
		return
	}

	program, fallback := classifyTable(t)
	entry.Program, entry.Fallback = program.String(), fallback

	var counts rowCounts
	switch program {
	case models.ProgramWorkshop:
		counts = ix.ingestWorkshop(t)
	case models.ProgramMMM:
		counts = ix.ingestMMM(t)
	case models.ProgramMWM:
		counts = ix.ingestMWM(t)
	case models.ProgramPodcast:
		counts = ix.ingestPodcast(t)
	default:
		ix.log.Debug("unrecognized table", "table", t.Label(), "columns", t.Header)
		return
	}
	entry.Ingested, entry.Skipped = counts.ingested, counts.skipped
	entry.Duplicates, entry.Replaced = counts.duplicates, counts.replaced
	ix.log.Debug("table ingested",
		"table", t.Label(),
		"program", program,
		"fallback", fallback,
		"ingested", counts.ingested,
		"skipped", counts.skipped,
	)
}

func (ix *Index) acceptCohort(cohort string) bool {
	return ix.cohorts == nil || ix.cohorts[cohort]
}

// populateSpeakers registers every speaker and host once all tables are in,
// walking records in key order so the matcher's exact cache is stable.
func (ix *Index) populateSpeakers() {
	for _, r := range ix.Workshops() {
		ix.addPeople(r)
	}
	for _, r := range ix.MMMs() {
		ix.addPeople(r)
	}
	for _, r := range ix.MWMs() {
		ix.addPeople(r)
	}
}

func (ix *Index) addPeople(r models.Record) {
	for _, name := range r.People() {
		ix.speakers.Add(name)
	}
}

// ID identifies this load; it changes on every reload.
func (ix *Index) ID() string { return ix.id }

func (ix *Index) LoadedAt() time.Time { return ix.loadedAt }

// Loaded reports whether the index came from Load rather than New.
func (ix *Index) Loaded() bool { return !ix.loadedAt.IsZero() }

// Audit returns a copy of the classification audit log in load order.
func (ix *Index) Audit() []AuditEntry {
	return append([]AuditEntry(nil), ix.audit...)
}

// Speakers lists the canonical names known to the speaker matcher.
func (ix *Index) Speakers() []string { return ix.speakers.Names() }

func (ix *Index) Workshops() []*models.WorkshopRecord {
	out := make([]*models.WorkshopRecord, 0, len(ix.workshops))
	for _, r := range ix.workshops {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return workshopLess(out[i].Key(), out[j].Key()) })
	return out
}

func (ix *Index) MMMs() []*models.MMMRecord {
	out := make([]*models.MMMRecord, 0, len(ix.mmm))
	for _, r := range ix.mmm {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return monthOrder(a.Month) < monthOrder(b.Month)
	})
	return out
}

func (ix *Index) MWMs() []*models.MWMRecord {
	out := make([]*models.MWMRecord, 0, len(ix.mwm))
	for _, r := range ix.mwm {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Month != b.Month {
			return monthOrder(a.Month) < monthOrder(b.Month)
		}
		return a.SessionNumber < b.SessionNumber
	})
	return out
}

func (ix *Index) Podcasts() []*models.PodcastRecord {
	out := make([]*models.PodcastRecord, 0, len(ix.podcasts))
	for _, r := range ix.podcasts {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.EpisodeNumber < b.EpisodeNumber
	})
	return out
}

func workshopLess(a, b models.WorkshopKey) bool {
	switch {
	case a.Cohort != b.Cohort:
		return a.Cohort < b.Cohort
	case a.CohortYear != b.CohortYear:
		return a.CohortYear < b.CohortYear
	case a.WorkshopNumber != b.WorkshopNumber:
		return a.WorkshopNumber < b.WorkshopNumber
	default:
		return a.SessionNumber < b.SessionNumber
	}
}

var months = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

func monthOrder(m string) int {
	for i, x := range months {
		if x == m {
			return i
		}
	}
	return len(months)
}
