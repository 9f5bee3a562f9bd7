// Package speaker resolves free-text speaker and host names to the names
// recorded in the master spreadsheets.
package speaker

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// DefaultMinRatio is the similarity a fuzzy match must exceed.
const DefaultMinRatio = 0.8

var initialRe = regexp.MustCompile(`([a-z])\.\s*`)

type identity struct {
	normalized string
	// variations holds every surface form seen for the identity plus the
	// first and last name tokens of the normalized name.
	variations map[string]struct{}
	canonical  string
}

// Matcher accumulates names during ingestion and answers queries once
// ingestion is done. Add must not run concurrently with Match.
type Matcher struct {
	byName map[string]*identity
	// order is byName's keys sorted; every scan walks it so that ties
	// resolve to the lexicographically first identity.
	order []string
	exact map[string]string
}

func NewMatcher() *Matcher {
	return &Matcher{
		byName: make(map[string]*identity),
		exact:  make(map[string]string),
	}
}

// Add registers a name. Blank names are ignored.
func (m *Matcher) Add(name string) {
	name = strings.TrimSpace(name)
	norm := Normalize(name)
	if norm == "" {
		return
	}

	id, ok := m.byName[norm]
	if !ok {
		id = &identity{normalized: norm, variations: make(map[string]struct{})}
		m.byName[norm] = id
		i := sort.SearchStrings(m.order, norm)
		m.order = append(m.order, "")
		copy(m.order[i+1:], m.order[i:])
		m.order[i] = norm
	}
	id.variations[name] = struct{}{}
	if parts := strings.Fields(norm); len(parts) > 1 {
		id.variations[parts[0]] = struct{}{}
		id.variations[parts[len(parts)-1]] = struct{}{}
	}
	id.canonical = longest(id.variations)

	m.exact[strings.ToLower(name)] = name
}

// Len reports the number of distinct identities.
func (m *Matcher) Len() int { return len(m.byName) }

// Names lists the canonical form of every identity in normalized-name order.
func (m *Matcher) Names() []string {
	out := make([]string, 0, len(m.order))
	for _, norm := range m.order {
		out = append(out, m.byName[norm].canonical)
	}
	return out
}

// Match resolves query with DefaultMinRatio.
func (m *Matcher) Match(query string) (string, bool) {
	return m.MatchRatio(query, DefaultMinRatio)
}

// MatchRatio resolves query to a known name. Structural matches (exact,
// first/last name, initials) are tried across all identities before any
// fuzzy comparison, so two similar but distinct people are never conflated
// when one of them matches outright.
func (m *Matcher) MatchRatio(query string, minRatio float64) (string, bool) {
	raw := strings.TrimSpace(query)
	if raw == "" {
		return "", false
	}
	if name, ok := m.exact[strings.ToLower(raw)]; ok {
		return name, true
	}

	norm := Normalize(raw)
	if norm == "" {
		return "", false
	}

	for _, key := range m.order {
		id := m.byName[key]
		if norm == id.normalized {
			return id.canonical, true
		}
		for v := range id.variations {
			if Normalize(v) == norm {
				return id.canonical, true
			}
		}
	}

	if initial, last, ok := splitInitials(raw); ok {
		for _, key := range m.order {
			parts := strings.Fields(key)
			if len(parts) < 2 {
				continue
			}
			if strings.HasPrefix(parts[0], initial) && parts[len(parts)-1] == last {
				return m.byName[key].canonical, true
			}
		}
	}

	var best *identity
	bestRatio := minRatio
	for _, key := range m.order {
		id := m.byName[key]
		for v := range id.variations {
			if r := Ratio(norm, Normalize(v)); r > bestRatio {
				best, bestRatio = id, r
			}
		}
	}
	if best == nil {
		return "", false
	}
	return best.canonical, true
}

// Normalize lower-cases, collapses whitespace and rewrites initials so
// "J. Smith" and "j smith" compare equal.
func Normalize(name string) string {
	s := strings.Join(strings.Fields(strings.ToLower(name)), " ")
	s = initialRe.ReplaceAllString(s, "$1 ")
	return strings.TrimSpace(s)
}

// Ratio is a normalized edit-distance similarity in [0, 1].
func Ratio(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := max(la, lb)
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

// splitInitials reads "<initial>. <last name>" queries.
func splitInitials(query string) (initial, last string, ok bool) {
	if !strings.Contains(query, ".") {
		return "", "", false
	}
	parts := strings.Fields(strings.ReplaceAll(strings.ToLower(query), ".", " "))
	if len(parts) < 2 {
		return "", "", false
	}
	r, _ := utf8.DecodeRuneInString(parts[0])
	return string(r), parts[len(parts)-1], true
}

// longest picks the most complete surface form; equal lengths fall back to
// byte order so the choice never depends on map iteration.
func longest(variations map[string]struct{}) string {
	var best string
	for v := range variations {
		if len(v) > len(best) || (len(v) == len(best) && v < best) {
			best = v
		}
	}
	return best
}
