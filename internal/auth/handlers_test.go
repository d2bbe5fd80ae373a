package auth

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

func authRouter(m *Manager) *gin.Engine {
	r := gin.New()
	h := NewHandler(m)
	h.RegisterRoutes(r.Group("/api/auth"))
	r.GET("/api/auth/me", RequireAuth(m), h.Me)
	return r
}

func postJSON(router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestSignupHandler(t *testing.T) {
	router := authRouter(newTestManager())

	w := postJSON(router, "/api/auth/signup", gin.H{
		"email":    "alice@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Token string `json:"token"`
		User  User   `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "alice@example.com", resp.User.Email)
}

func TestSignupHandler_Validation(t *testing.T) {
	router := authRouter(newTestManager())

	tests := []struct {
		name string
		body gin.H
		want int
	}{
		{"missing password", gin.H{"email": "a@b.com"}, http.StatusBadRequest},
		{"missing email", gin.H{"password": "password123"}, http.StatusBadRequest},
		{"bad email", gin.H{"email": "not-an-email", "password": "password123"}, http.StatusBadRequest},
		{"short password", gin.H{"email": "a@b.com", "password": "short"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(router, "/api/auth/signup", tt.body)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestSignupHandler_Conflict(t *testing.T) {
	router := authRouter(newTestManager())

	w := postJSON(router, "/api/auth/signup", gin.H{"email": "bob@example.com", "password": "password123"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(router, "/api/auth/signup", gin.H{"email": "bob@example.com", "password": "password456"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "email_taken")
}

func TestLoginHandler(t *testing.T) {
	router := authRouter(newTestManager())

	w := postJSON(router, "/api/auth/signup", gin.H{"email": "carol@example.com", "password": "password123"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(router, "/api/auth/login", gin.H{"email": "carol@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code)

	w = postJSON(router, "/api/auth/login", gin.H{"email": "carol@example.com", "password": "nope-nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMeHandler(t *testing.T) {
	m := newTestManager()
	router := authRouter(m)

	w := postJSON(router, "/api/auth/signup", gin.H{"email": "dave@example.com", "password": "password123"})
	require.Equal(t, http.StatusCreated, w.Code)

	var signup struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &signup))

	w = httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+signup.Token)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "dave@example.com")
	assert.NotContains(t, w.Body.String(), "password_hash")

	// unauthenticated
	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/api/auth/me", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
