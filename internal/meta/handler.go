package meta

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const sampleKeyCount = 10

type Handler struct {
	Store *Store
	// Auth guards the lookup and reload routes; nil leaves them open.
	Auth gin.HandlerFunc
}

func NewHandler(store *Store, auth gin.HandlerFunc) *Handler {
	return &Handler{Store: store, Auth: auth}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/debug", h.debug) // GET /meta/debug
	rg.GET("/audit", h.audit) // GET /meta/audit

	guarded := rg.Group("")
	if h.Auth != nil {
		guarded.Use(h.Auth)
	}
	guarded.POST("/lookup", h.lookup) // POST /meta/lookup
	guarded.POST("/reload", h.reload) // POST /meta/reload
}

// Health reports whether an index has been loaded.
func (h *Handler) Health(c *gin.Context) {
	ix := h.Store.Current()
	c.JSON(http.StatusOK, gin.H{
		"ok":          true,
		"meta_loaded": ix.Loaded(),
		"sources":     h.Store.Paths(),
		"load_id":     ix.ID(),
	})
}

func (h *Handler) debug(c *gin.Context) {
	ix := h.Store.Current()
	if !ix.Loaded() {
		c.JSON(http.StatusOK, gin.H{"loaded": false, "reason": "meta not loaded"})
		return
	}
	stats := ix.Stats()
	keys := ix.SampleKeys(sampleKeyCount)
	c.JSON(http.StatusOK, gin.H{
		"loaded":               true,
		"load_id":              stats.LoadID,
		"loaded_at":            stats.LoadedAt,
		"sources":              stats.Sources,
		"workshop_count":       stats.Workshops,
		"mmm_count":            stats.MMM,
		"mwm_count":            stats.MWM,
		"pod_count":            stats.Podcasts,
		"speaker_count":        stats.Speakers,
		"workshop_sample_keys": keys["workshop"],
		"mmm_sample_keys":      keys["mmm"],
		"mwm_sample_keys":      keys["mwm"],
		"pod_sample_keys":      keys["podcast"],
		"cache":                stats.Cache,
	})
}

func (h *Handler) audit(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"entries": h.Store.Current().Audit()})
}

// LookupRequest is the body of POST /meta/lookup. Which fields matter
// depends on Program.
type LookupRequest struct {
	Program        string `json:"program" binding:"required"`
	Cohort         string `json:"cohort"`
	CohortYear     int    `json:"cohort_year"`
	WorkshopNumber int    `json:"workshop_number"`
	SessionNumber  int    `json:"session_number"`
	Year           int    `json:"year"`
	MMMMonth       string `json:"mmm_month"`
	MWMMonth       string `json:"mwm_month"`
	EpisodeNumber  int    `json:"episode_number"`
	Title          string `json:"title"`
	Speaker        string `json:"speaker"`
	QueryString    string `json:"query_string"`
}

func (h *Handler) lookup(c *gin.Context) {
	var req LookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ix := h.Store.Current()
	if !ix.Loaded() {
		c.JSON(http.StatusOK, gin.H{"found": false, "row": nil, "reason": "meta not loaded"})
		return
	}

	switch strings.ToLower(strings.TrimSpace(req.Program)) {
	case "workshop":
		if rec, ok := ix.LookupWorkshop(req.Cohort, req.CohortYear, req.WorkshopNumber, req.SessionNumber); ok {
			c.JSON(http.StatusOK, gin.H{"found": true, "row": rec, "partial": false})
			return
		}
		rows := ix.LookupWorkshopPartial(WorkshopQuery{
			Cohort:         req.Cohort,
			CohortYear:     req.CohortYear,
			WorkshopNumber: req.WorkshopNumber,
			SessionNumber:  req.SessionNumber,
			Title:          req.Title,
			Speaker:        req.Speaker,
		})
		c.JSON(http.StatusOK, gin.H{"found": len(rows) > 0, "rows": rows, "partial": true})

	case "mmm":
		rec, ok := ix.LookupMMM(req.Year, req.MMMMonth)
		c.JSON(http.StatusOK, gin.H{"found": ok, "row": rec})

	case "mwm":
		rec, ok := ix.LookupMWM(req.Year, req.MWMMonth, req.SessionNumber)
		c.JSON(http.StatusOK, gin.H{"found": ok, "row": rec})

	case "podcast":
		rec, ok := ix.LookupPodcast(req.Year, req.EpisodeNumber)
		c.JSON(http.StatusOK, gin.H{"found": ok, "row": rec})

	case "speaker":
		q := req.QueryString
		if q == "" {
			q = req.Speaker
		}
		if name, ok := ix.MatchSpeaker(q); ok {
			c.JSON(http.StatusOK, gin.H{"found": true, "speaker": name})
			return
		}
		c.JSON(http.StatusOK, gin.H{"found": false, "reason": "no matching speaker found"})

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown program"})
	}
}

func (h *Handler) reload(c *gin.Context) {
	if len(h.Store.Paths()) == 0 {
		c.JSON(http.StatusOK, gin.H{"ok": false, "reason": "MASTER_INDEX_PATHS not configured"})
		return
	}
	stats := h.Store.Reload().Stats()
	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"load_id": stats.LoadID,
		"wk":      stats.Workshops,
		"mmm":     stats.MMM,
		"mwm":     stats.MWM,
		"pod":     stats.Podcasts,
	})
}
