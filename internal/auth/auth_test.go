package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestJWTRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", 1)

	token, expiresAt, err := svc.Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if expiresAt.IsZero() {
		t.Fatal("expected expiry")
	}

	claims, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Role != RoleDashboard {
		t.Fatalf("expected dashboard role, got %q", claims.Role)
	}
}

func TestJWTWrongSecret(t *testing.T) {
	token, _, err := NewJWTService("secret-a", 1).Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := NewJWTService("secret-b", 1).Validate(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestJWTGarbage(t *testing.T) {
	if _, err := NewJWTService("secret", 1).Validate("not.a.token"); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func newLoginRouter(t *testing.T, password string) *gin.Engine {
	t.Helper()
	svc := NewJWTService("test-secret", 1)
	h, err := NewHandler(password, svc, zap.NewNop())
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	r := gin.New()
	r.POST("/auth/dashboard", h.Login)
	return r
}

func postLogin(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/auth/dashboard", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLogin(t *testing.T) {
	r := newLoginRouter(t, "open-sesame")

	w := postLogin(r, `{"password":"open-sesame"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp TokenResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Token == "" || resp.ExpiresAt == 0 {
		t.Fatalf("incomplete response %+v", resp)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	r := newLoginRouter(t, "open-sesame")
	if w := postLogin(r, `{"password":"guess"}`); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestLoginMissingPassword(t *testing.T) {
	r := newLoginRouter(t, "open-sesame")
	if w := postLogin(r, `{}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestLoginDisabled(t *testing.T) {
	r := newLoginRouter(t, "")
	if w := postLogin(r, `{"password":"anything"}`); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}
