package sync

import (
	"time"

	"sessionmeta/internal/meta"
)

const TypeMetaReloaded = "meta.reloaded"

// ReloadEvent announces that a new index has been published. Subscribers
// holding cached lookups should drop them when LoadID changes.
type ReloadEvent struct {
	Type      string    `json:"type"`
	LoadID    string    `json:"load_id"`
	Workshops int       `json:"workshops"`
	MMM       int       `json:"mmm"`
	MWM       int       `json:"mwm"`
	Podcasts  int       `json:"podcasts"`
	Failed    []string  `json:"failed_sources,omitempty"`
	At        time.Time `json:"at"`
}

func NewReloadEvent(ix *meta.Index) ReloadEvent {
	st := ix.Stats()
	ev := ReloadEvent{
		Type:      TypeMetaReloaded,
		LoadID:    st.LoadID,
		Workshops: st.Workshops,
		MMM:       st.MMM,
		MWM:       st.MWM,
		Podcasts:  st.Podcasts,
		At:        st.LoadedAt,
	}
	for _, e := range ix.Audit() {
		if e.Error != "" {
			ev.Failed = append(ev.Failed, e.Source)
		}
	}
	return ev
}
