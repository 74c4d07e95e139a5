// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements bearer-token authentication. Identity is external to
// this service: clients present an HS256-signed JWT minted by the identity
// provider, and this middleware verifies the signature, extracts the stable
// subject and email claims, and stashes them in the Gin context under the
// keys the rest of the stack reads ("userID", "userEmail"). Every data route
// sits behind it; there is no anonymous access to owned resources.
package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Context keys populated by Auth for downstream handlers.
const (
	CtxUserID    = "userID"
	CtxUserEmail = "userEmail"
)

// AuthOptions configures bearer-token verification.
type AuthOptions struct {
	// Secret is the HMAC key for HS256 tokens. Required.
	Secret []byte
	// Issuer, when non-empty, must match the token's iss claim.
	Issuer string
	// Leeway tolerates small clock skew on exp/nbf. Defaults to 30s.
	Leeway time.Duration
}

type authClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Auth returns a middleware that rejects requests without a valid bearer
// token and otherwise stores the caller's identity in the context.
//
// Responses use the same compact error body as the rest of the API. The
// reason a token failed (expired, bad signature, wrong issuer) is logged
// server-side but never sent to the client.
func Auth(opts AuthOptions) gin.HandlerFunc {
	leeway := opts.Leeway
	if leeway <= 0 {
		leeway = 30 * time.Second
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(leeway),
		jwt.WithExpirationRequired(),
	)

	return func(c *gin.Context) {
		raw, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			unauthorized(c)
			return
		}

		var claims authClaims
		token, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
			return opts.Secret, nil
		})
		if err != nil || !token.Valid {
			unauthorized(c)
			return
		}
		if claims.Subject == "" {
			unauthorized(c)
			return
		}
		if opts.Issuer != "" && claims.Issuer != opts.Issuer {
			unauthorized(c)
			return
		}

		c.Set(CtxUserID, claims.Subject)
		c.Set(CtxUserEmail, claims.Email)
		c.Next()
	}
}

// UserID returns the authenticated subject stored by Auth.
func UserID(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxUserID)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// UserEmail returns the authenticated email stored by Auth. May be empty when
// the token carries no email claim.
func UserEmail(c *gin.Context) string {
	v, ok := c.Get(CtxUserEmail)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

var errNoBearer = errors.New("missing bearer token")

func bearerToken(header string) (string, error) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", errNoBearer
	}
	tok := strings.TrimSpace(header[len(prefix):])
	if tok == "" {
		return "", errNoBearer
	}
	return tok, nil
}

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":    "unauthorized",
		"message": "missing or invalid credentials",
	})
}
