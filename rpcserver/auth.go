package rpcserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// jwtClaims is the minimal Engine API auth claim set: an issued-at time
// the verifier checks falls within a small clock-skew window, matching
// the standard engine authrpc handshake.
type jwtClaims struct {
	jwt.RegisteredClaims
}

const jwtClockSkew = 5 * time.Second

// authMiddleware enforces the authrpc bearer-JWT handshake using secret
// (the 32-byte key loaded from --jwtsecret). Requests with a missing,
// malformed, or expired-skew token are rejected with 401 before the
// handler ever sees them.
func authMiddleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}
			claims := &jwtClaims{}
			parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.New("rpcserver: unexpected signing method")
				}
				return secret, nil
			})
			if err != nil || !parsed.Valid {
				http.Error(w, "invalid bearer token", http.StatusUnauthorized)
				return
			}
			if claims.IssuedAt == nil || time.Since(claims.IssuedAt.Time) > jwtClockSkew || time.Until(claims.IssuedAt.Time) > jwtClockSkew {
				http.Error(w, "token outside clock-skew window", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", errors.New("rpcserver: missing bearer token")
	}
	return strings.TrimPrefix(header, prefix), nil
}

// MintAuthToken builds a fresh short-lived bearer token signed with
// secret, for this process's own outbound calls if it ever needs to act
// as an authrpc client (mirrors the consensus client's own token mint).
func MintAuthToken(secret []byte) (string, error) {
	claims := jwtClaims{RegisteredClaims: jwt.RegisteredClaims{IssuedAt: jwt.NewNumericDate(time.Now())}}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}
