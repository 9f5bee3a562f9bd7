package models

// Program identifies which of the four session schemas a table or record
// belongs to. The string values are part of the metadata vocabulary shared
// with the chunk-ingestion pipeline and must not change.
type Program string

const (
	ProgramUnrecognized Program = ""
	ProgramWorkshop     Program = "Workshop"
	ProgramMMM          Program = "MMM"
	ProgramMWM          Program = "MWM"
	ProgramPodcast      Program = "Podcast"
)

func (p Program) String() string {
	if p == ProgramUnrecognized {
		return "Unrecognized"
	}
	return string(p)
}

// Record is one canonical session/episode. The concrete type is one of
// *WorkshopRecord, *MMMRecord, *MWMRecord or *PodcastRecord.
//
// Records handed out by the index are shared; treat them as read-only.
type Record interface {
	Kind() Program
	// People returns the speaker/host names the record contributes to the
	// speaker matcher.
	People() []string
}

type WorkshopKey struct {
	Cohort         string
	CohortYear     int
	WorkshopNumber int
	SessionNumber  int
}

type MMMKey struct {
	Year  int
	Month string
}

type MWMKey struct {
	Year          int
	Month         string
	SessionNumber int
}

type PodcastKey struct {
	Year          int
	EpisodeNumber int
}

// WorkshopRecord is one session of a cohort workshop. Empty strings mean the
// source row did not carry the field.
type WorkshopRecord struct {
	Program        Program `json:"program"`
	Cohort         string  `json:"cohort"`
	CohortYear     int     `json:"cohort_year"`
	WorkshopNumber int     `json:"workshop_number"`
	SessionNumber  int     `json:"session_number"`
	Title          string  `json:"title,omitempty"`
	SessionTitle   string  `json:"session_title,omitempty"`
	Speaker        string  `json:"speaker,omitempty"`
	FileType       string  `json:"file_type,omitempty"`
	FileName       string  `json:"file_name,omitempty"`
	StartMonth     string  `json:"start_month,omitempty"`
	Source         string  `json:"source"`
}

func (r *WorkshopRecord) Kind() Program { return ProgramWorkshop }

func (r *WorkshopRecord) People() []string { return nonEmpty(r.Speaker) }

func (r *WorkshopRecord) Key() WorkshopKey {
	return WorkshopKey{
		Cohort:         r.Cohort,
		CohortYear:     r.CohortYear,
		WorkshopNumber: r.WorkshopNumber,
		SessionNumber:  r.SessionNumber,
	}
}

// MMMRecord is one midmonth mentoring session.
type MMMRecord struct {
	Program   Program `json:"program"`
	Year      int     `json:"year"`
	Month     string  `json:"mmm_month"`
	Host      string  `json:"host,omitempty"`
	Title     string  `json:"title,omitempty"`
	Programme string  `json:"programme,omitempty"`
	Date      string  `json:"date,omitempty"`
	FileType  string  `json:"file_type,omitempty"`
	FileName  string  `json:"file_name,omitempty"`
	Source    string  `json:"source"`
}

func (r *MMMRecord) Kind() Program { return ProgramMMM }

func (r *MMMRecord) People() []string { return nonEmpty(r.Host) }

func (r *MMMRecord) Key() MMMKey { return MMMKey{Year: r.Year, Month: r.Month} }

// MWMRecord is one midweek mentoring session.
type MWMRecord struct {
	Program       Program `json:"program"`
	Year          int     `json:"year"`
	Month         string  `json:"mwm_month"`
	SessionNumber int     `json:"session_number"`
	Host          string  `json:"host,omitempty"`
	Title         string  `json:"title,omitempty"`
	Programme     string  `json:"programme,omitempty"`
	Date          string  `json:"date,omitempty"`
	FileType      string  `json:"file_type,omitempty"`
	FileName      string  `json:"file_name,omitempty"`
	Source        string  `json:"source"`
}

func (r *MWMRecord) Kind() Program { return ProgramMWM }

func (r *MWMRecord) People() []string { return nonEmpty(r.Host) }

func (r *MWMRecord) Key() MWMKey {
	return MWMKey{Year: r.Year, Month: r.Month, SessionNumber: r.SessionNumber}
}

// PodcastRecord is one podcast episode.
type PodcastRecord struct {
	Program       Program `json:"program"`
	Year          int     `json:"year"`
	EpisodeNumber int     `json:"episode_number"`
	Title         string  `json:"title,omitempty"`
	Guests        string  `json:"guests,omitempty"`
	Type          string  `json:"type,omitempty"`
	Date          string  `json:"date,omitempty"`
	FileType      string  `json:"file_type,omitempty"`
	FileName      string  `json:"file_name,omitempty"`
	Source        string  `json:"source"`
}

func (r *PodcastRecord) Kind() Program { return ProgramPodcast }

// People is empty for podcasts: guests are free text lists, not hosts.
func (r *PodcastRecord) People() []string { return nil }

func (r *PodcastRecord) Key() PodcastKey {
	return PodcastKey{Year: r.Year, EpisodeNumber: r.EpisodeNumber}
}

func nonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}
