package security

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func serve(t *testing.T, mw gin.HandlerFunc, method, origin string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw)
	r.GET("/api/regions", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	req := httptest.NewRequest(method, "/api/regions", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHeadersMiddleware(t *testing.T) {
	w := serve(t, HeadersMiddleware(), "GET", "")

	want := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"X-XSS-Protection":       "1; mode=block",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}
	for h, v := range want {
		if got := w.Header().Get(h); got != v {
			t.Errorf("%s = %q, want %q", h, got, v)
		}
	}
	if w.Header().Get("Content-Security-Policy") == "" {
		t.Error("Content-Security-Policy not set")
	}
	if w.Header().Get("Permissions-Policy") == "" {
		t.Error("Permissions-Policy not set")
	}
}

func TestCORSAllowedOrigin(t *testing.T) {
	w := serve(t, CORSMiddleware([]string{"https://app.carbonrisk.dev"}), "GET", "https://app.carbonrisk.dev")
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.carbonrisk.dev" {
		t.Errorf("Allow-Origin = %q", got)
	}
	if w.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Error("explicit origins should allow credentials")
	}
}

func TestCORSDisallowedOrigin(t *testing.T) {
	w := serve(t, CORSMiddleware([]string{"https://app.carbonrisk.dev"}), "GET", "https://evil.invalid")
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("disallowed origin must not receive CORS headers")
	}
}

func TestCORSWildcard(t *testing.T) {
	w := serve(t, CORSMiddleware([]string{"*"}), "GET", "https://anywhere.invalid")
	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("wildcard config should echo the origin")
	}
	if w.Header().Get("Access-Control-Allow-Credentials") != "" {
		t.Error("wildcard origins must not allow credentials")
	}
}

func TestCORSPreflight(t *testing.T) {
	w := serve(t, CORSMiddleware([]string{"*"}), "OPTIONS", "https://app.carbonrisk.dev")
	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Error("Access-Control-Allow-Methods not set on preflight")
	}
}
