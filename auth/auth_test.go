package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
)

func newProbeRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/probe", IdentityMiddleware(), func(c *gin.Context) {
		identity, ok := IdentityFromContext(c)
		if !ok {
			c.JSON(500, gin.H{"error": "identity missing after middleware"})
			return
		}
		c.JSON(200, gin.H{"name": identity.Name, "email": identity.Email})
	})
	return r
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func probe(r *gin.Engine, header, query string) *httptest.ResponseRecorder {
	target := "/probe"
	if query != "" {
		target += "?token=" + query
	}
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdentityMiddlewareAcceptsBearerHeader(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	r := newProbeRouter()

	token := signToken(t, "test-secret", jwt.MapClaims{
		"userName":  "Alice",
		"userEmail": "alice@example.com",
		"exp":       time.Now().Add(time.Hour).Unix(),
	})

	w := probe(r, "Bearer "+token, "")
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if !strings.Contains(body, "alice@example.com") || !strings.Contains(body, "Alice") {
		t.Fatalf("identity not propagated: %s", body)
	}
}

func TestIdentityMiddlewareAcceptsQueryToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	r := newProbeRouter()

	token := signToken(t, "test-secret", jwt.MapClaims{
		"userEmail": "bob@example.com",
		"exp":       time.Now().Add(time.Hour).Unix(),
	})

	w := probe(r, "", token)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	// userName absent from the claims falls back to the email.
	if !strings.Contains(w.Body.String(), `"name":"bob@example.com"`) {
		t.Fatalf("expected name fallback to email: %s", w.Body.String())
	}
}

func TestIdentityMiddlewareRejections(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	r := newProbeRouter()

	expired := signToken(t, "test-secret", jwt.MapClaims{
		"userEmail": "alice@example.com",
		"exp":       time.Now().Add(-time.Hour).Unix(),
	})
	wrongKey := signToken(t, "other-secret", jwt.MapClaims{
		"userEmail": "alice@example.com",
		"exp":       time.Now().Add(time.Hour).Unix(),
	})
	noEmail := signToken(t, "test-secret", jwt.MapClaims{
		"userName": "Ghost",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})

	cases := []struct {
		name   string
		header string
		query  string
	}{
		{"missing token", "", ""},
		{"expired token", "Bearer " + expired, ""},
		{"wrong signing key", "Bearer " + wrongKey, ""},
		{"garbage token", "Bearer not.a.jwt", ""},
		{"missing email claim", "", noEmail},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := probe(r, tc.header, tc.query)
			if w.Code != 401 {
				t.Fatalf("expected 401, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}
