package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var authTestSecret = []byte("unit-test-secret")

func mintToken(t *testing.T, secret []byte, mutate func(*jwt.RegisteredClaims)) string {
	t.Helper()
	claims := authClaims{
		Email: "jane.doe@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    "idp.example",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	if mutate != nil {
		mutate(&claims.RegisteredClaims)
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func authRouter(opts AuthOptions) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Auth(opts))
	r.GET("/me", func(c *gin.Context) {
		uid, _ := UserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": uid, "email": UserEmail(c)})
	})
	return r
}

func TestAuth_ValidToken(t *testing.T) {
	r := authRouter(AuthOptions{Secret: authTestSecret, Issuer: "idp.example"})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, authTestSecret, nil))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if !strings.Contains(body, `"user_id":"user-1"`) || !strings.Contains(body, `"email":"jane.doe@example.com"`) {
		t.Fatalf("identity not propagated: %s", body)
	}
}

func TestAuth_Rejections(t *testing.T) {
	r := authRouter(AuthOptions{Secret: authTestSecret, Issuer: "idp.example"})

	cases := map[string]string{
		"no header":     "",
		"not bearer":    "Basic dXNlcjpwYXNz",
		"empty bearer":  "Bearer   ",
		"garbage token": "Bearer not.a.jwt",
		"wrong secret":  "Bearer " + mintToken(t, []byte("other-secret"), nil),
		"expired": "Bearer " + mintToken(t, authTestSecret, func(rc *jwt.RegisteredClaims) {
			rc.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-2 * time.Hour))
		}),
		"missing subject": "Bearer " + mintToken(t, authTestSecret, func(rc *jwt.RegisteredClaims) {
			rc.Subject = ""
		}),
		"wrong issuer": "Bearer " + mintToken(t, authTestSecret, func(rc *jwt.RegisteredClaims) {
			rc.Issuer = "someone-else"
		}),
	}
	for name, header := range cases {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d; want 401", name, w.Code)
		}
	}
}

func TestAuth_NoIssuerCheckWhenUnset(t *testing.T) {
	r := authRouter(AuthOptions{Secret: authTestSecret})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, authTestSecret, func(rc *jwt.RegisteredClaims) {
		rc.Issuer = "anything"
	}))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}
