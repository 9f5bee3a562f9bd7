package meta

import (
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreReload(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "w.csv", workshopHeader, "PEP 2025,2025,4,1,A,John Smith,Video,a.mp4")

	store := NewStore([]string{path}, Options{})
	assert.False(t, store.Current().Loaded())

	var hooked []*Index
	store.OnReload(func(ix *Index) { hooked = append(hooked, ix) })

	first := store.Reload()
	require.Same(t, first, store.Current())
	_, ok := first.LookupWorkshop("PEP", 2025, 4, 1)
	require.True(t, ok)
	_, ok = first.LookupWorkshop("PEP", 2025, 4, 2)
	require.False(t, ok)
	assert.Equal(t, 2, first.CacheStats().Size)

	writeCSV(t, dir, "w.csv", workshopHeader,
		"PEP 2025,2025,4,1,A,John Smith,Video,a.mp4",
		"PEP 2025,2025,4,2,B,Jane Doe,Video,b.mp4",
	)
	second := store.Reload()

	assert.NotEqual(t, first.ID(), second.ID())
	assert.Equal(t, 0, first.CacheStats().Size)
	assert.Equal(t, 0, second.CacheStats().Size)
	_, ok = second.LookupWorkshop("PEP", 2025, 4, 2)
	assert.True(t, ok)
	assert.Equal(t, []*Index{first, second}, hooked)

	// The outgoing index keeps answering from its own data.
	_, ok = first.LookupWorkshop("PEP", 2025, 4, 2)
	assert.False(t, ok)
}

func TestStoreReloadWithMissingSources(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "w.csv", workshopHeader, "PEP 2025,2025,4,1,A,John Smith,Video,a.mp4")
	store := NewStore([]string{path}, Options{})
	store.Reload()

	require.NoError(t, os.Remove(path))
	ix := store.Reload()

	assert.True(t, ix.Loaded())
	assert.Empty(t, ix.Workshops())
	assert.NotEmpty(t, ix.Audit()[0].Error)
}

func TestStoreConcurrentReadsDuringReload(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "w.csv", workshopHeader, "PEP 2025,2025,4,1,A,John Smith,Video,a.mp4")
	store := NewStore([]string{path}, Options{})
	store.Reload()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, ok := store.Current().LookupWorkshop("PEP", 2025, 4, 1)
				assert.True(t, ok)
				store.Current().LookupWorkshopPartial(WorkshopQuery{Speaker: "John"})
			}
		}()
	}
	for i := 0; i < 3; i++ {
		store.Reload()
	}
	wg.Wait()
}
