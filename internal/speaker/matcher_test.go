package speaker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatcherSingleSpeaker(t *testing.T) {
	m := NewMatcher()
	m.Add("John Smith")

	tests := []struct {
		query string
		want  string
		ok    bool
	}{
		{"John Smith", "John Smith", true},
		{"john smith", "John Smith", true},
		{"  JOHN   SMITH ", "John Smith", true},
		{"John", "John Smith", true},
		{"Smith", "John Smith", true},
		{"Jon Smith", "John Smith", true},
		{"J. Smith", "John Smith", true},
		{"J.Smith", "John Smith", true},
		{"Alice Wong", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, ok := m.Match(tt.query)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatcherMultipleSpeakers(t *testing.T) {
	m := NewMatcher()
	m.Add("John Smith")
	m.Add("Jane Smith")
	m.Add("  ")

	assert.Equal(t, 2, m.Len())

	got, ok := m.Match("Jane")
	assert.True(t, ok)
	assert.Equal(t, "Jane Smith", got)

	// Shared last name: the lexicographically first identity wins.
	got, ok = m.Match("Smith")
	assert.True(t, ok)
	assert.Equal(t, "Jane Smith", got)

	got, ok = m.Match("J. Smith")
	assert.True(t, ok)
	assert.Equal(t, "Jane Smith", got)

	assert.Equal(t, []string{"Jane Smith", "John Smith"}, m.Names())
}

func TestMatcherStructuralBeatsFuzzy(t *testing.T) {
	m := NewMatcher()
	m.Add("Adam Goff")
	m.Add("Adam Goffe")

	got, ok := m.Match("adam goffe")
	assert.True(t, ok)
	assert.Equal(t, "Adam Goffe", got)
}

func TestMatchRatioThreshold(t *testing.T) {
	m := NewMatcher()
	m.Add("Rachel Davis")

	_, ok := m.MatchRatio("Rachael Daviss", 0.95)
	assert.False(t, ok)

	got, ok := m.MatchRatio("Rachael Daviss", 0.8)
	assert.True(t, ok)
	assert.Equal(t, "Rachel Davis", got)
}

func TestNormalizeAndRatio(t *testing.T) {
	assert.Equal(t, "j smith", Normalize("J. Smith"))
	assert.Equal(t, "j smith", Normalize(" j.smith "))
	assert.Equal(t, "john smith", Normalize("John\tSmith"))

	assert.InDelta(t, 1.0, Ratio("", ""), 1e-9)
	assert.InDelta(t, 0.9, Ratio("jon smith", "john smith"), 1e-9)
	assert.InDelta(t, 0.0, Ratio("abc", "xyz"), 1e-9)
}
