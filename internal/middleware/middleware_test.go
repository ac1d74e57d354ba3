package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/sgs-visits/backend/internal/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newCORSRouter(origins string) *gin.Engine {
	r := gin.New()
	r.Use(CORS(origins))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.POST("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func TestCORSPreflight(t *testing.T) {
	r := newCORSRouter("*")

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://dashboard.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got == "" {
		t.Fatal("missing allow-origin header")
	}
}

func TestCORSAllowedOrigin(t *testing.T) {
	r := newCORSRouter("https://dashboard.example.com")

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://dashboard.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://dashboard.example.com" {
		t.Fatalf("unexpected allow-origin %q", got)
	}
}

func TestCORSDisallowedOrigin(t *testing.T) {
	r := newCORSRouter("https://dashboard.example.com")

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no allow-origin for unknown origin, got %q", got)
	}
}

func newGateRouter(enabled bool) (*gin.Engine, *auth.JWTService) {
	svc := auth.NewJWTService("test-secret", 1)
	r := gin.New()
	r.Use(DashboardGate(svc, enabled))
	r.GET("/admin", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return r, svc
}

func TestDashboardGateDisabled(t *testing.T) {
	r, _ := newGateRouter(false)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected pass-through when disabled, got %d", w.Code)
	}
}

func TestDashboardGateEnabled(t *testing.T) {
	r, svc := newGateRouter(true)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	token, _, err := svc.Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Token "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for non-bearer scheme, got %d", w.Code)
	}
}
