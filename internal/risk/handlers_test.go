package risk

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cialabs/carbonrisk/internal/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func asUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(auth.ContextKeyUserID, userID)
		c.Next()
	}
}

func riskRouter(f *fixture, userID string) *gin.Engine {
	r := gin.New()
	NewHandler(f.service).RegisterRoutes(r.Group("/api/risk", asUser(userID)))
	return r
}

func postEvaluate(router *gin.Engine, body any) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/risk/evaluate", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestEvaluateHandler(t *testing.T) {
	f := newFixture(t)
	fp := f.addFootprint(t, "usr_a", 2500)
	bgd := f.regionByISO(t, "BGD")
	router := riskRouter(f, "usr_a")

	w := postEvaluate(router, gin.H{
		"footprint_ids": []string{fp.ID},
		"region_ids":    []string{bgd.ID},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.RiskSignals, 4)
	require.Len(t, resp.Summary, 1)
	assert.Equal(t, "Bangladesh", resp.Summary[0].RegionName)
	assert.Greater(t, resp.TotalPeopleAtRisk, int64(0))
}

func TestEvaluateHandler_Validation(t *testing.T) {
	f := newFixture(t)
	router := riskRouter(f, "usr_a")

	for _, body := range []gin.H{
		{},
		{"footprint_ids": []string{"fp_000000000000000000000000"}},
		{"region_ids": []string{"rg_000000000000000000000000"}},
		{"footprint_ids": []string{}, "region_ids": []string{"rg_000000000000000000000000"}},
	} {
		w := postEvaluate(router, body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
}

func TestEvaluateHandler_NothingResolves(t *testing.T) {
	f := newFixture(t)
	fp := f.addFootprint(t, "usr_a", 100)
	bgd := f.regionByISO(t, "BGD")
	router := riskRouter(f, "usr_a")

	w := postEvaluate(router, gin.H{
		"footprint_ids": []string{"fp_000000000000000000000000"},
		"region_ids":    []string{bgd.ID},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = postEvaluate(router, gin.H{
		"footprint_ids": []string{fp.ID},
		"region_ids":    []string{"rg_000000000000000000000000"},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEvaluateHandler_ForeignFootprint(t *testing.T) {
	f := newFixture(t)
	mine := f.addFootprint(t, "usr_a", 1000)
	other := f.addFootprint(t, "usr_b", 9000)
	bgd := f.regionByISO(t, "BGD")
	router := riskRouter(f, "usr_a")

	w := postEvaluate(router, gin.H{
		"footprint_ids": []string{mine.ID, other.ID},
		"region_ids":    []string{bgd.ID},
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Access denied to some footprints")
}

func TestSignalsByFootprintHandler(t *testing.T) {
	f := newFixture(t)
	fp := f.addFootprint(t, "usr_a", 1000)
	bgd := f.regionByISO(t, "BGD")
	router := riskRouter(f, "usr_a")

	w := postEvaluate(router, gin.H{
		"footprint_ids": []string{fp.ID},
		"region_ids":    []string{bgd.ID},
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/risk/signals/footprint/"+fp.ID, nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		RiskSignals []Signal `json:"risk_signals"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.RiskSignals, 4)

	// a stranger gets 403
	stranger := riskRouter(f, "usr_b")
	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/api/risk/signals/footprint/"+fp.ID, nil)
	stranger.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSignalsByRegionHandler(t *testing.T) {
	f := newFixture(t)
	bgd := f.regionByISO(t, "BGD")
	router := riskRouter(f, "usr_a")

	// no evaluations yet, still a 200 with an empty list
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/risk/signals/region/"+bgd.ID, nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"risk_signals":[]`)

	// unknown region is a 404, malformed ID a 400
	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/api/risk/signals/region/rg_000000000000000000000000", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/api/risk/signals/region/garbage", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
