package meta

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, auth gin.HandlerFunc) (*gin.Engine, *Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	path := writeCSV(t, t.TempDir(), "w.csv",
		workshopHeader,
		"PEP 2025,2025,4,1,Pricing Power,John Smith,Transcript,a.docx",
		"PEP 2025,2025,4,2,Pricing Power,Jane Doe,Video,b.mp4",
	)
	store := NewStore([]string{path}, Options{})
	store.Reload()

	h := NewHandler(store, auth)
	r := gin.New()
	r.GET("/health", h.Health)
	h.RegisterRoutes(r.Group("/meta"))
	return r, store
}

func doJSON(t *testing.T, r http.Handler, method, target string, body any, header ...string) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return w.Code, out
}

func TestHandlerLookupWorkshop(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	code, out := doJSON(t, r, http.MethodPost, "/meta/lookup", gin.H{
		"program": "Workshop", "cohort": "PEP", "cohort_year": 2025, "workshop_number": 4, "session_number": 1,
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, out["found"])
	assert.Equal(t, false, out["partial"])
	row := out["row"].(map[string]any)
	assert.Equal(t, "John Smith", row["speaker"])
	assert.Equal(t, "Workshop", row["program"])

	code, out = doJSON(t, r, http.MethodPost, "/meta/lookup", gin.H{
		"program": "workshop", "cohort": "PEP", "cohort_year": 2025, "workshop_number": 4,
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, out["partial"])
	assert.Len(t, out["rows"], 2)

	_, out = doJSON(t, r, http.MethodPost, "/meta/lookup", gin.H{"program": "workshop"})
	assert.Equal(t, false, out["found"])
	assert.Empty(t, out["rows"])
}

func TestHandlerLookupOtherPrograms(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	_, out := doJSON(t, r, http.MethodPost, "/meta/lookup", gin.H{"program": "podcast", "year": 2024, "episode_number": 3})
	assert.Equal(t, false, out["found"])
	assert.Nil(t, out["row"])

	_, out = doJSON(t, r, http.MethodPost, "/meta/lookup", gin.H{"program": "speaker", "query_string": "J. Smith"})
	assert.Equal(t, true, out["found"])
	assert.Equal(t, "John Smith", out["speaker"])

	_, out = doJSON(t, r, http.MethodPost, "/meta/lookup", gin.H{"program": "speaker", "query_string": "Nobody Here"})
	assert.Equal(t, false, out["found"])

	code, out := doJSON(t, r, http.MethodPost, "/meta/lookup", gin.H{"program": "webinar"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "unknown program", out["error"])

	code, _ = doJSON(t, r, http.MethodPost, "/meta/lookup", gin.H{"cohort": "PEP"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestHandlerDebugAuditReload(t *testing.T) {
	r, store := newTestRouter(t, nil)
	before := store.Current().ID()

	code, out := doJSON(t, r, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, out["meta_loaded"])
	assert.Equal(t, before, out["load_id"])

	_, out = doJSON(t, r, http.MethodGet, "/meta/debug", nil)
	assert.Equal(t, float64(2), out["workshop_count"])
	assert.Len(t, out["workshop_sample_keys"], 2)

	_, out = doJSON(t, r, http.MethodGet, "/meta/audit", nil)
	assert.Len(t, out["entries"], 1)

	code, out = doJSON(t, r, http.MethodPost, "/meta/reload", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, out["ok"])
	assert.Equal(t, float64(2), out["wk"])
	assert.NotEqual(t, before, store.Current().ID())
}

func TestHandlerAuthGuardsLookupAndReload(t *testing.T) {
	auth := func(c *gin.Context) {
		if c.GetHeader("Authorization") != "Bearer secret" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
	r, _ := newTestRouter(t, auth)
	body := gin.H{"program": "speaker", "query_string": "John"}

	code, _ := doJSON(t, r, http.MethodPost, "/meta/lookup", body)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = doJSON(t, r, http.MethodPost, "/meta/reload", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, out := doJSON(t, r, http.MethodPost, "/meta/lookup", body, "Authorization", "Bearer secret")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, out["found"])

	code, _ = doJSON(t, r, http.MethodGet, "/meta/debug", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestHandlerBeforeLoad(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(NewStore(nil, Options{}), nil)
	r := gin.New()
	r.GET("/health", h.Health)
	h.RegisterRoutes(r.Group("/meta"))

	_, out := doJSON(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, false, out["meta_loaded"])

	_, out = doJSON(t, r, http.MethodPost, "/meta/lookup", gin.H{"program": "mmm", "year": 2025, "mmm_month": "Apr"})
	assert.Equal(t, "meta not loaded", out["reason"])

	_, out = doJSON(t, r, http.MethodPost, "/meta/reload", nil)
	assert.Equal(t, false, out["ok"])
}
