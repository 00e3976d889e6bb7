package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/net/websocket"
)

const (
	ErrTypeUnauthorized = "unauthorized"
)

// NewAuthToken returns a token signed with the given secret, valid for the
// given duration.
func NewAuthToken(secret []byte, subject string, ttl time.Duration) (string, error) {
	now := time.Now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	return token.SignedString(secret)
}

// VerifyAuthToken returns a websocket handshake that rejects clients without
// a valid token. Every client is accepted when the secret is empty.
func VerifyAuthToken(secret []byte) func(*websocket.Config, *http.Request) error {
	return func(c *websocket.Config, r *http.Request) error {
		if err := verifyToken(secret, r); err != nil {
			logs.WithTag("remote_addr", r.RemoteAddr).Debug(err)
			return err
		}
		return nil
	}
}

// VerifyAuthTokenHandler responds with 401 to requests without a valid token.
// Every request is accepted when the secret is empty.
func VerifyAuthTokenHandler(secret []byte, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := verifyToken(secret, r); err != nil {
			logs.WithTag("remote_addr", r.RemoteAddr).Debug(err)
			writeJSON(w, http.StatusUnauthorized, errorResponse{
				Error: err.Error(),
				Type:  ErrTypeUnauthorized,
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func verifyToken(secret []byte, r *http.Request) error {
	if len(secret) == 0 {
		return nil
	}

	tokenString := tokenFromRequest(r)
	if tokenString == "" {
		return errors.New("missing auth token").WithType(ErrTypeUnauthorized)
	}

	_, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return errors.New("invalid auth token").
			WithType(ErrTypeUnauthorized).
			Wrap(err)
	}
	return nil
}

// Browsers cannot set headers on websocket connections, so the token can
// also be passed as a query parameter.
func tokenFromRequest(r *http.Request) string {
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return r.URL.Query().Get("token")
}
