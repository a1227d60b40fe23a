package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func setupCORSRouter(cfg CORSConfig) *gin.Engine {
	r := gin.New()
	r.Use(CORS(cfg))
	r.GET("/api/v1/taxonomy", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return r
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		cfg        CORSConfig
		method     string
		origin     string
		wantStatus int
		wantOrigin string
		wantCreds  bool
	}{
		{"no origin", DefaultCORSConfig(), http.MethodGet, "", http.StatusOK, "", false},
		{"wildcard", DefaultCORSConfig(), http.MethodGet, "https://a.example", http.StatusOK, "*", false},
		{"preflight", DefaultCORSConfig(), http.MethodOptions, "https://a.example", http.StatusNoContent, "*", false},
		{
			"listed origin with credentials",
			CORSConfig{AllowOrigins: []string{"https://partner.example"}, AllowCredentials: true},
			http.MethodGet, "https://partner.example", http.StatusOK, "https://partner.example", true,
		},
		{
			"unlisted origin",
			CORSConfig{AllowOrigins: []string{"https://partner.example"}},
			http.MethodGet, "https://other.example", http.StatusOK, "", false,
		},
		{
			"wildcard with credentials echoes origin",
			CORSConfig{AllowOrigins: []string{"*"}, AllowCredentials: true},
			http.MethodGet, "https://b.example", http.StatusOK, "https://b.example", true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/v1/taxonomy", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			setupCORSRouter(tt.cfg).ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d; want %d", w.Code, tt.wantStatus)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Allow-Origin = %q; want %q", got, tt.wantOrigin)
			}
			if got := w.Header().Get("Access-Control-Allow-Credentials") == "true"; got != tt.wantCreds {
				t.Errorf("Allow-Credentials = %v; want %v", got, tt.wantCreds)
			}
		})
	}
}

func TestCORS_MaxAgeInSeconds(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/taxonomy", nil)
	req.Header.Set("Origin", "https://a.example")
	w := httptest.NewRecorder()
	setupCORSRouter(CORSConfig{AllowOrigins: []string{"*"}, MaxAge: 10 * time.Minute}).ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Max-Age"); got != "600" {
		t.Errorf("Max-Age = %q; want 600", got)
	}
}
