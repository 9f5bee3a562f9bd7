// Package normalize turns raw spreadsheet cell values into the canonical
// forms used as index keys: positive integers, English 3-letter month codes,
// trimmed strings and upper-case cohort tokens. All functions are pure.
package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/araddon/dateparse"
)

var month3 = map[string]string{
	"jan": "Jan", "january": "Jan",
	"feb": "Feb", "february": "Feb",
	"mar": "Mar", "march": "Mar",
	"apr": "Apr", "april": "Apr",
	"may": "May",
	"jun": "Jun", "june": "Jun",
	"jul": "Jul", "july": "Jul",
	"aug": "Aug", "august": "Aug",
	"sep": "Sep", "sept": "Sep", "september": "Sep",
	"oct": "Oct", "october": "Oct",
	"nov": "Nov", "november": "Nov",
	"dec": "Dec", "december": "Dec",
}

var (
	digitsRe    = regexp.MustCompile(`[0-9]+`)
	numericRe   = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)
	yearRe      = regexp.MustCompile(`(?:^|[^0-9])((?:19|20)[0-9]{2})(?:[^0-9]|$)`)
	episodeRe   = regexp.MustCompile(`(?i)episode\s*0*([0-9]+)`)
	programmeRe = regexp.MustCompile(`(?i)\b(PE[AP])\s*([0-9]{4})\b`)
)

// Str trims s; an empty result is reported as absent.
func Str(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != ""
}

// Int extracts the first run of digits, so "2024.0", "Workshop 04" and
// "#7" all normalize. Values without digits are absent.
func Int(s string) (int, bool) {
	m := digitsRe.FindString(s)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

// PositiveInt is Int restricted to values > 0, the form every numeric key
// component must take.
func PositiveInt(s string) (int, bool) {
	n, ok := Int(s)
	if !ok || n <= 0 {
		return 0, false
	}
	return n, true
}

// Month3 resolves v to a capitalized English month code ("Jan".."Dec").
// Dates (time.Time or parseable strings) win; otherwise the text is scanned
// token by token for a month name or abbreviation.
func Month3(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case time.Time:
		if x.IsZero() {
			return "", false
		}
		return x.Month().String()[:3], true
	case *time.Time:
		if x == nil {
			return "", false
		}
		return Month3(*x)
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return "", false
		}
		if t, ok := parseDate(s); ok {
			return t.Month().String()[:3], true
		}
		return MonthFromText(s)
	case fmt.Stringer:
		return Month3(x.String())
	default:
		return "", false
	}
}

// MonthFromText scans free text (titles, file names) for a month word.
func MonthFromText(s string) (string, bool) {
	tokens := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, t := range tokens {
		if m, ok := month3[t]; ok {
			return m, true
		}
	}
	return "", false
}

// YearFromDate returns the year of a date value. Strings must parse as a
// full date; use YearFromText for years embedded in prose.
func YearFromDate(v any) (int, bool) {
	switch x := v.(type) {
	case time.Time:
		if x.IsZero() {
			return 0, false
		}
		return x.Year(), true
	case string:
		t, ok := parseDate(strings.TrimSpace(x))
		if !ok {
			return 0, false
		}
		return t.Year(), true
	default:
		return 0, false
	}
}

// YearFromText finds the first standalone 19xx/20xx run, e.g. in
// "PEP Apr 2025 MMM - Recording.mp4".
func YearFromText(s string) (int, bool) {
	m := yearRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// EpisodeFromText pulls an episode number out of text like "Episode 012".
func EpisodeFromText(s string) (int, bool) {
	m := episodeRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	return PositiveInt(m[1])
}

// CohortToken returns the upper-cased first word of a programme value:
// "PEP 2024" -> "PEP".
func CohortToken(programme string) (string, bool) {
	fields := strings.Fields(programme)
	if len(fields) == 0 {
		return "", false
	}
	return strings.ToUpper(fields[0]), true
}

// CohortFromProgramme reads both cohort and cohort year out of values such
// as "PEA 2024" or "pep2025".
func CohortFromProgramme(programme string) (string, int, bool) {
	m := programmeRe.FindStringSubmatch(programme)
	if m == nil {
		return "", 0, false
	}
	year, err := strconv.Atoi(m[2])
	if err != nil {
		return "", 0, false
	}
	return strings.ToUpper(m[1]), year, true
}

// FileType lower-cases a file type label ("Transcript" -> "transcript").
func FileType(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// parseDate accepts mixed spreadsheet date renderings, preferring day-first
// for ambiguous numeric dates and falling back to month-first when the
// day-first reading is impossible ("12/13/2024"). Bare numbers are never
// dates here: a lone "2024" must not turn into January.
func parseDate(s string) (t time.Time, ok bool) {
	if s == "" || numericRe.MatchString(s) || !strings.ContainsAny(s, "0123456789") {
		return time.Time{}, false
	}
	// dateparse can panic on some malformed inputs.
	defer func() {
		if recover() != nil {
			t, ok = time.Time{}, false
		}
	}()
	parsed, err := dateparse.ParseAny(s,
		dateparse.PreferMonthFirst(false),
		dateparse.RetryAmbiguousDateWithSwap(true),
	)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}
