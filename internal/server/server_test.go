package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cialabs/carbonrisk/internal/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		Port:           "8080",
		Env:            "test",
		LogLevel:       "error",
		JWTSecret:      "test-secret",
		JWTExpiry:      time.Hour,
		CORSOrigins:    []string{"*"},
		RateLimitRPM:   10000,
		MaxUploadBytes: 1 << 20,
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := New(testConfig())
	require.NoError(t, err)
	return s
}

func do(s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	s.Router().ServeHTTP(w, req)
	return w
}

func signup(t *testing.T, s *Server, email string) string {
	t.Helper()
	w := do(s, "POST", "/api/auth/signup", "", gin.H{"email": email, "password": "password123"})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := do(s, "GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)

	w = do(s, "GET", "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// not ready until Run marks it
	w = do(s, "GET", "/health/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestInfoEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := do(s, "GET", "/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Carbon Risk Tracker")
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := do(s, "GET", "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	s := newTestServer(t)

	for _, route := range []struct{ method, path string }{
		{"GET", "/api/footprints"},
		{"POST", "/api/footprints"},
		{"GET", "/api/footprints/summary"},
		{"POST", "/api/risk/evaluate"},
		{"GET", "/api/auth/me"},
	} {
		w := do(s, route.method, route.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", route.method, route.path)
	}
}

func TestRegionsArePublic(t *testing.T) {
	s := newTestServer(t)

	w := do(s, "GET", "/api/regions", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Regions []struct {
			ID      string `json:"id"`
			ISOCode string `json:"iso_code"`
		} `json:"regions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Regions, 15)
}

func TestEndToEndFlow(t *testing.T) {
	s := newTestServer(t)
	token := signup(t, s, "flow@example.com")

	// log an activity dated yesterday so it stays inside every summary window
	w := do(s, "POST", "/api/footprints", token, gin.H{
		"category": "transport",
		"amount":   1000,
		"unit":     "km",
		"date":     time.Now().AddDate(0, 0, -1).Format("2006-01-02"),
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var fp struct {
		ID    string  `json:"id"`
		CO2Kg float64 `json:"co2_kg"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fp))
	assert.InDelta(t, 192.0, fp.CO2Kg, 1e-9)

	// pick a region
	w = do(s, "GET", "/api/regions?search=bangladesh", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var regions struct {
		Regions []struct {
			ID string `json:"id"`
		} `json:"regions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &regions))
	require.Len(t, regions.Regions, 1)

	// evaluate risk
	w = do(s, "POST", "/api/risk/evaluate", token, gin.H{
		"footprint_ids": []string{fp.ID},
		"region_ids":    []string{regions.Regions[0].ID},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var result struct {
		RiskSignals []struct {
			RiskType string `json:"risk_type"`
		} `json:"risk_signals"`
		TotalPeopleAtRisk int64 `json:"total_people_at_risk"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Len(t, result.RiskSignals, 4)
	assert.Greater(t, result.TotalPeopleAtRisk, int64(0))

	// signals are queryable afterwards
	w = do(s, "GET", "/api/risk/signals/footprint/"+fp.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// and show up in the footprint summary
	w = do(s, "GET", "/api/footprints/summary?period=1y", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "transport")
}

func TestUsersAreIsolated(t *testing.T) {
	s := newTestServer(t)
	alice := signup(t, s, "alice@example.com")
	mallory := signup(t, s, "mallory@example.com")

	w := do(s, "POST", "/api/footprints", alice, gin.H{
		"category": "energy", "amount": 50, "unit": "kwh",
		"date": time.Now().AddDate(0, 0, -1).Format("2006-01-02"),
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var fp struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fp))

	// mallory cannot see or delete alice's footprint
	w = do(s, "GET", "/api/footprints", mallory, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), fp.ID)

	w = do(s, "DELETE", "/api/footprints/"+fp.ID, mallory, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(s, "GET", "/api/risk/signals/footprint/"+fp.ID, mallory, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// nor pool it into a risk evaluation
	w = do(s, "GET", "/api/regions?search=haiti", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var regions struct {
		Regions []struct {
			ID string `json:"id"`
		} `json:"regions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &regions))
	require.Len(t, regions.Regions, 1)

	w = do(s, "POST", "/api/risk/evaluate", mallory, gin.H{
		"footprint_ids": []string{fp.ID},
		"region_ids":    []string{regions.Regions[0].ID},
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequestIDHeader(t *testing.T) {
	s := newTestServer(t)

	w := do(s, "GET", "/health", "", nil)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	// an upstream request ID is echoed back
	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("X-Request-ID", "upstream-id-123")
	w = httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	assert.Equal(t, "upstream-id-123", w.Header().Get("X-Request-ID"))
}

func TestSecurityHeaders(t *testing.T) {
	s := newTestServer(t)

	w := do(s, "GET", "/health", "", nil)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get("Content-Security-Policy"))
}
